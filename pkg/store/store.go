// Package store keeps the in-memory collection of one domain and routes each mutation
// either to local storage (guest mode, or a fallback when access is denied) or to the
// remote record service, merging the results back so the collection is always the
// single source of truth for rendering.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/pkg/identity"
	"github.com/paihq/pai/pkg/localstore"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/remote"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const DefaultSyncDelay = 2 * time.Second

type State int

const (
	StateUninitialized State = iota
	StateGuestLoading
	StateRemoteLoading
	// StateLocal serves the local-only snapshot.
	StateLocal
	// StateStaleCache serves the cached remote snapshot (or nothing) after the remote fetch failed
	// or while it is still running.
	StateStaleCache
	StateRemote
)

func (s State) String() string {
	switch s {
	case StateGuestLoading:
		return "guest-loading"
	case StateRemoteLoading:
		return "remote-loading"
	case StateLocal:
		return "ready(local)"
	case StateStaleCache:
		return "ready(stale-cache)"
	case StateRemote:
		return "ready(remote)"
	default:
		return "uninitialized"
	}
}

// Outcome tells the caller what happened to a mutation. Details reach the user through notices.
type Outcome int

const (
	Failed Outcome = iota
	Saved
	// SavedLocally means the remote service denied access and the change was kept on this device.
	SavedLocally
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case SavedLocally:
		return "saved-locally"
	default:
		return "failed"
	}
}

type Option func(*options)

type options struct {
	syncDelay time.Duration
	newId     func() string
}

// WithSyncDelay sets the debounce of the background refresh that follows remote mutations.
func WithSyncDelay(d time.Duration) Option {
	return func(o *options) { o.syncDelay = d }
}

func WithIdGenerator(newId func() string) Option {
	return func(o *options) { o.newId = newId }
}

type Store[T record.Record[T]] struct {
	kind      record.Kind
	identity  identity.Identity
	remote    remote.Service[T]
	storage   localstore.Storage
	notifier  Notifier
	syncDelay time.Duration
	newId     func() string

	// ops serializes loads, mutations and refreshes.
	ops       sync.Mutex
	refreshes singleflight.Group

	mu               sync.RWMutex
	state            State
	records          []T
	mode             identity.Mode
	userKey          string
	generation       uint64
	accessNoticeSent bool
	closed           bool
	syncTimer        *time.Timer
}

func New[T record.Record[T]](
	kind record.Kind,
	id identity.Identity,
	remoteService remote.Service[T],
	storage localstore.Storage,
	notifier Notifier,
	opts ...Option,
) *Store[T] {
	o := options{syncDelay: DefaultSyncDelay, newId: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Store[T]{
		kind:      kind,
		identity:  id,
		remote:    remoteService,
		storage:   storage,
		notifier:  notifier,
		syncDelay: o.syncDelay,
		newId:     o.newId,
	}
}

func (s *Store[T]) Kind() record.Kind {
	return s.kind
}

func (s *Store[T]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Records returns a sorted copy of the collection.
func (s *Store[T]) Records() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return record.Find(s.records, id)
}

// Load runs the state machine from Uninitialized to a Ready state for the current identity.
func (s *Store[T]) Load(ctx context.Context) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.load(ctx)
}

// Reset drops the collection and returns to Uninitialized. The next operation loads again.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateUninitialized
	s.records = nil
	s.accessNoticeSent = false
	s.stopTimerLocked()
}

// Close stops the pending background refresh. Results of calls still in flight are discarded.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Store[T]) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store[T]) load(ctx context.Context) {
	mode, userKey := s.identity.Mode(), s.identity.UserKey()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	s.mode, s.userKey = mode, userKey
	s.records = nil
	if mode == identity.Guest {
		s.state = StateGuestLoading
	} else {
		s.state = StateRemoteLoading
	}
	s.mu.Unlock()
	log.Debugf("loading %s for %s user %q", s.kind, mode, userKey)

	if mode == identity.Guest {
		local, _ := s.readShadow(localstore.LocalShadow, userKey)
		s.settle(gen, StateLocal, local)
		return
	}

	if cached, found := s.readShadow(localstore.CacheShadow, userKey); found {
		s.settle(gen, StateStaleCache, cached)
	}

	records, err := s.remote.List(ctx)
	switch {
	case err == nil:
		if s.settle(gen, StateRemote, records) {
			s.writeShadow(localstore.CacheShadow, userKey, records)
			s.accessRestored()
		}
	case remote.IsAccessDenied(err):
		log.Infof("access to remote %s denied, falling back to local data: %v", s.kind, err)
		local, _ := s.readShadow(localstore.LocalShadow, userKey)
		if s.settle(gen, StateLocal, local) {
			s.notifyAccessDenied(ctx, CodeAccessDenied, "Your session or subscription is inactive. Showing data saved on this device.")
		}
	default:
		log.Errorf("failed to load remote %s: %v", s.kind, err)
		s.mu.Lock()
		if s.generation == gen && s.state == StateRemoteLoading {
			s.state = StateStaleCache
		}
		s.mu.Unlock()
		s.notify(ctx, event_bus.NoticeError, CodeRemoteError, fmt.Sprintf("Could not load %s. Please try again.", s.kind))
	}
}

// ensureReady loads when the store was never loaded or the operating mode changed since.
func (s *Store[T]) ensureReady(ctx context.Context) {
	s.mu.RLock()
	state, mode, userKey := s.state, s.mode, s.userKey
	s.mu.RUnlock()
	if state == StateUninitialized || mode != s.identity.Mode() || userKey != s.identity.UserKey() {
		s.load(ctx)
	}
}

// settle replaces the collection wholesale unless the store was reset or closed meanwhile.
func (s *Store[T]) settle(gen uint64, state State, records []T) bool {
	sorted := slices.Clone(records)
	record.Sort(sorted)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return false
	}
	s.records = sorted
	s.state = state
	return true
}

func (s *Store[T]) snapshot() (State, []T, string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, slices.Clone(s.records), s.userKey, s.generation
}

// apply mutates the in-memory collection; it is a no-op once the store is closed or reset.
func (s *Store[T]) apply(gen uint64, fn func([]T) []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		return false
	}
	s.records = fn(s.records)
	return true
}

func (s *Store[T]) stopTimerLocked() {
	if s.syncTimer != nil {
		s.syncTimer.Stop()
		s.syncTimer = nil
	}
}

func (s *Store[T]) readShadow(shadow localstore.Shadow, userKey string) ([]T, bool) {
	key := localstore.Key(s.kind, userKey, shadow)
	value, found, err := s.storage.Get(key)
	if err != nil {
		log.Warnf("failed to read %s: %v", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		log.Warnf("ignoring unreadable %s: %v", key, err)
		return nil, false
	}
	records := make([]T, 0, len(raw))
	for i, element := range raw {
		var rec T
		if err := json.Unmarshal(element, &rec); err != nil {
			log.Warnf("skipping unreadable record %d of %s: %v", i, key, err)
			continue
		}
		records = append(records, rec)
	}
	return records, true
}

// writeShadow persists records. Storage failures only degrade durability, so they are logged.
func (s *Store[T]) writeShadow(shadow localstore.Shadow, userKey string, records []T) {
	key := localstore.Key(s.kind, userKey, shadow)
	if records == nil {
		records = []T{}
	}
	value, err := json.Marshal(records)
	if err != nil {
		log.Warnf("failed to encode %s: %v", key, err)
		return
	}
	if err := s.storage.Set(key, string(value)); err != nil {
		log.Warnf("failed to write %s: %v", key, err)
	}
}
