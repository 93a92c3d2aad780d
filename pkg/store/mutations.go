package store

import (
	"context"
	"fmt"

	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/pkg/localstore"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/remote"
	log "github.com/sirupsen/logrus"
)

const savedLocallyMessage = "Saved locally, renew to sync."

// Create validates rec, expands its recurrence and persists every sibling.
// Only validation failures are returned as errors.
func (s *Store[T]) Create(ctx context.Context, rec T) (Outcome, error) {
	if err := rec.Validate(); err != nil {
		return Failed, err
	}

	s.ops.Lock()
	defer s.ops.Unlock()
	s.ensureReady(ctx)
	if s.isClosed() {
		return Failed, nil
	}

	state, _, userKey, gen := s.snapshot()
	siblings := s.expand(rec)
	if state == StateLocal {
		s.createLocal(gen, state, userKey, siblings)
		return Saved, nil
	}
	return s.createRemote(ctx, gen, state, userKey, siblings), nil
}

// expand returns the siblings of rec. A caller-assigned id is kept for a single record
// and suffixed per sibling, so replays map to the same ids and idempotency keys.
func (s *Store[T]) expand(rec T) []T {
	presetId := rec.RecordId()
	recurrenceId := presetId
	if recurrenceId == "" {
		recurrenceId = s.newId()
	}
	siblings := record.Expand(rec, recurrenceId)
	if presetId != "" && len(siblings) > 1 {
		for i := range siblings {
			siblings[i] = siblings[i].WithId(fmt.Sprintf("%s#%d", presetId, i))
		}
	}
	return siblings
}

func (s *Store[T]) createLocal(gen uint64, state State, userKey string, siblings []T) {
	withIds := make([]T, 0, len(siblings))
	for _, sib := range siblings {
		if sib.RecordId() == "" {
			sib = sib.WithId(s.newId())
		}
		withIds = append(withIds, sib)
	}
	s.mutateLocal(gen, state, userKey, func(records []T) []T {
		for _, sib := range withIds {
			records = record.Upsert(records, sib)
		}
		return records
	})
}

func (s *Store[T]) createRemote(ctx context.Context, gen uint64, state State, userKey string, siblings []T) Outcome {
	created := 0
	for i, sib := range siblings {
		res, err := s.remote.Create(ctx, sib.WithId(""), sib.RecordId())
		if err != nil {
			if remote.IsAccessDenied(err) {
				log.Infof("remote %s create denied after %d of %d, saving locally: %v", s.kind, created, len(siblings), err)
				s.createLocal(gen, state, userKey, siblings[i:])
				s.notifyAccessDenied(ctx, CodeSavedLocally, savedLocallyMessage)
				if created > 0 {
					s.scheduleSync()
				}
				return SavedLocally
			}
			log.Errorf("failed to create remote %s (%d of %d): %v", s.kind, i+1, len(siblings), err)
			s.notify(ctx, event_bus.NoticeError, CodeRemoteError, fmt.Sprintf("Could not save to %s. Please try again.", s.kind))
			if created > 0 {
				s.afterRemoteChange(userKey)
			}
			return Failed
		}
		s.apply(gen, func(records []T) []T { return record.Upsert(records, res) })
		created++
	}
	s.accessRestored()
	s.afterRemoteChange(userKey)
	return Saved
}

// Update applies mutate to the record with the given id and persists the result.
func (s *Store[T]) Update(ctx context.Context, id string, mutate func(T) T) (Outcome, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.ensureReady(ctx)
	if s.isClosed() {
		return Failed, nil
	}

	state, records, userKey, gen := s.snapshot()
	current, found := record.Find(records, id)
	if !found {
		s.notify(ctx, event_bus.NoticeError, CodeNotFound, fmt.Sprintf("The %s entry no longer exists.", s.kind))
		return Failed, nil
	}
	updated := mutate(current).WithId(id)
	if err := updated.Validate(); err != nil {
		return Failed, err
	}

	if state == StateLocal {
		s.mutateLocal(gen, state, userKey, func(records []T) []T { return record.Upsert(records, updated) })
		return Saved, nil
	}

	patch, err := record.MergePatch(current, updated)
	if err != nil {
		return Failed, fmt.Errorf("encode %s patch: %w", s.kind, err)
	}
	res, err := s.remote.Update(ctx, id, patch)
	if err != nil {
		if remote.IsAccessDenied(err) {
			log.Infof("remote %s update denied, saving locally: %v", s.kind, err)
			s.mutateLocal(gen, state, userKey, func(records []T) []T { return record.Upsert(records, updated) })
			s.notifyAccessDenied(ctx, CodeSavedLocally, savedLocallyMessage)
			return SavedLocally, nil
		}
		log.Errorf("failed to update remote %s %s: %v", s.kind, id, err)
		s.notify(ctx, event_bus.NoticeError, CodeRemoteError, fmt.Sprintf("Could not update %s. Please try again.", s.kind))
		return Failed, nil
	}
	s.apply(gen, func(records []T) []T { return record.Upsert(records, res) })
	s.accessRestored()
	s.afterRemoteChange(userKey)
	return Saved, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (Outcome, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.ensureReady(ctx)
	if s.isClosed() {
		return Failed, nil
	}

	state, records, userKey, gen := s.snapshot()
	remove := func(records []T) []T {
		out, _ := record.Remove(records, id)
		return out
	}

	if state == StateLocal {
		if _, found := record.Find(records, id); !found {
			s.notify(ctx, event_bus.NoticeError, CodeNotFound, fmt.Sprintf("The %s entry no longer exists.", s.kind))
			return Failed, nil
		}
		s.mutateLocal(gen, state, userKey, remove)
		return Saved, nil
	}

	if err := s.remote.Delete(ctx, id); err != nil {
		if remote.IsAccessDenied(err) {
			log.Infof("remote %s delete denied, removing locally: %v", s.kind, err)
			s.mutateLocal(gen, state, userKey, remove)
			s.notifyAccessDenied(ctx, CodeSavedLocally, savedLocallyMessage)
			return SavedLocally, nil
		}
		log.Errorf("failed to delete remote %s %s: %v", s.kind, id, err)
		s.notify(ctx, event_bus.NoticeError, CodeRemoteError, fmt.Sprintf("Could not delete %s. Please try again.", s.kind))
		return Failed, nil
	}
	s.apply(gen, remove)
	s.accessRestored()
	s.afterRemoteChange(userKey)
	return Saved, nil
}

// mutateLocal applies fn to memory and to the local shadow. In local mode memory mirrors the
// shadow; in remote mode the shadow is read, modified and written back.
func (s *Store[T]) mutateLocal(gen uint64, state State, userKey string, fn func([]T) []T) {
	if !s.apply(gen, fn) {
		return
	}
	if state == StateLocal {
		s.writeShadow(localstore.LocalShadow, userKey, s.Records())
		return
	}
	shadow, _ := s.readShadow(localstore.LocalShadow, userKey)
	s.writeShadow(localstore.LocalShadow, userKey, fn(shadow))
}

func (s *Store[T]) afterRemoteChange(userKey string) {
	s.writeShadow(localstore.CacheShadow, userKey, s.Records())
	s.scheduleSync()
}
