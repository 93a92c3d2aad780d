package store

import (
	"context"

	"github.com/paihq/pai/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const (
	CodeAccessDenied = "access_denied"
	CodeSavedLocally = "saved_locally"
	CodeRemoteError  = "remote_error"
	CodeNotFound     = "not_found"
)

// Notifier receives the user-visible side channel of a store.
type Notifier interface {
	Notify(ctx context.Context, notice event_bus.Notice)
}

// BusNotifier raises notices as NoticeRaised events.
type BusNotifier struct {
	bus *event_bus.EventBus
}

func NewBusNotifier(bus *event_bus.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Notify(ctx context.Context, notice event_bus.Notice) {
	if err := n.bus.Publish(event_bus.NewEvent(ctx, event_bus.NoticeRaised, notice)); err != nil {
		log.Warnf("failed to deliver notice %s: %v", notice.Code, err)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, event_bus.Notice) {}

func (s *Store[T]) notify(ctx context.Context, level event_bus.NoticeLevel, code, message string) {
	s.notifier.Notify(ctx, event_bus.Notice{Level: level, Kind: string(s.kind), Code: code, Message: message})
}

// notifyAccessDenied raises the access notice once until a remote call succeeds again.
func (s *Store[T]) notifyAccessDenied(ctx context.Context, code, message string) {
	s.mu.Lock()
	sent := s.accessNoticeSent
	s.accessNoticeSent = true
	s.mu.Unlock()
	if !sent {
		s.notify(ctx, event_bus.NoticeWarning, code, message)
	}
}

func (s *Store[T]) accessRestored() {
	s.mu.Lock()
	s.accessNoticeSent = false
	s.mu.Unlock()
}
