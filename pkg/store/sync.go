package store

import (
	"context"
	"time"

	"github.com/paihq/pai/pkg/identity"
	"github.com/paihq/pai/pkg/localstore"
	log "github.com/sirupsen/logrus"
)

// Refresh re-fetches the remote collection and replaces memory wholesale. Concurrent calls
// share one fetch. It does nothing in local mode.
func (s *Store[T]) Refresh(ctx context.Context) error {
	_, err, _ := s.refreshes.Do("refresh", func() (any, error) {
		s.ops.Lock()
		defer s.ops.Unlock()
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *Store[T]) refresh(ctx context.Context) error {
	s.mu.RLock()
	state, userKey, gen, closed := s.state, s.userKey, s.generation, s.closed
	s.mu.RUnlock()
	if closed || s.identity.Mode() != identity.Authenticated {
		return nil
	}
	if state != StateRemote && state != StateStaleCache {
		return nil
	}

	records, err := s.remote.List(ctx)
	if err != nil {
		log.Warnf("background sync of %s failed: %v", s.kind, err)
		return err
	}
	if s.settle(gen, StateRemote, records) {
		s.writeShadow(localstore.CacheShadow, userKey, records)
		s.accessRestored()
	}
	return nil
}

// scheduleSync debounces Refresh: every call pushes the pending refresh back by syncDelay.
func (s *Store[T]) scheduleSync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.syncDelay <= 0 {
		return
	}
	if s.syncTimer != nil {
		s.syncTimer.Stop()
	}
	s.syncTimer = time.AfterFunc(s.syncDelay, func() {
		_ = s.Refresh(context.Background())
	})
}
