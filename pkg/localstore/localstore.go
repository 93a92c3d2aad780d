// Package localstore is the synchronous, capacity-limited key-value storage the client
// keeps its guest data and its remote snapshot cache in.
package localstore

import (
	"errors"
	"fmt"

	"github.com/paihq/pai/pkg/record"
)

var (
	ErrQuotaExceeded = errors.New("local storage quota exceeded")
	ErrUnavailable   = errors.New("local storage unavailable")
)

type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Shadow distinguishes the two copies a store keeps per domain and user.
type Shadow string

const (
	// LocalShadow is the authoritative collection of guest/offline mode.
	LocalShadow Shadow = "local"
	// CacheShadow is the last known remote snapshot.
	CacheShadow Shadow = "cache"
)

// Key namespaces storage per domain and per user identity. User keys are prefixed with "u/"
// so that no user key can address the guest namespace.
func Key(kind record.Kind, userKey string, shadow Shadow) string {
	owner := "guest"
	if userKey != "" {
		owner = "u/" + userKey
	}
	return fmt.Sprintf("pai:%s:%s:%s", kind, owner, shadow)
}
