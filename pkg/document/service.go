package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paihq/pai/internal/event_bus"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context, kind record.Kind) ([]Document, error)
	ListBetween(ctx context.Context, kind record.Kind, from, to recurrence.Date) ([]Document, error)
	// Create stores one record. Repeating a call with the same idempotency key returns the
	// record stored by the first call and created=false.
	Create(ctx context.Context, kind record.Kind, payload []byte, idempotencyKey string) (doc Document, created bool, err error)
	// CreateRecurring expands the record's recurrence and stores all siblings atomically.
	CreateRecurring(ctx context.Context, kind record.Kind, payload []byte) ([]Document, error)
	Update(ctx context.Context, kind record.Kind, id string, patch []byte) (Document, error)
	Delete(ctx context.Context, kind record.Kind, id string) error
}

type ServiceImpl struct {
	repo     Repository
	registry *Registry
	eventBus *event_bus.EventBus
	newId    func() string
}

func NewService(repo Repository, registry *Registry, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, registry: registry, eventBus: eventBus, newId: uuid.NewString}
}

func (s *ServiceImpl) List(ctx context.Context, kind record.Kind) ([]Document, error) {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userId, kind)
}

func (s *ServiceImpl) ListBetween(ctx context.Context, kind record.Kind, from, to recurrence.Date) ([]Document, error) {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBetween(ctx, userId, kind, from, to)
}

func (s *ServiceImpl) Create(ctx context.Context, kind record.Kind, payload []byte, idempotencyKey string) (Document, bool, error) {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return Document{}, false, err
	}
	codec, _ := s.registry.Codec(kind)
	doc, err := codec.Single(payload, s.newId())
	if err != nil {
		return Document{}, false, err
	}
	doc.ClientKey = idempotencyKey

	replayed := false
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		if idempotencyKey != "" {
			existing, err := repo.FindByClientKey(ctx, userId, kind, idempotencyKey)
			if err == nil {
				doc, replayed = existing, true
				return nil
			}
			if !errors.Is(err, ErrDocumentNotFound) {
				return err
			}
		}
		doc, err = repo.Insert(ctx, userId, doc)
		return err
	})
	if err != nil {
		return Document{}, false, err
	}
	if replayed {
		log.Debugf("replayed %s create with key %s", kind, idempotencyKey)
		return doc, false, nil
	}

	s.publish(ctx, event_bus.RecordCreated, event_bus.RecordChanged{UserId: userId, Kind: string(kind), Id: doc.Id, Current: doc.Data})
	return doc, true, nil
}

func (s *ServiceImpl) CreateRecurring(ctx context.Context, kind record.Kind, payload []byte) ([]Document, error) {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return nil, err
	}
	codec, _ := s.registry.Codec(kind)
	docs, err := codec.Expand(payload, s.newId)
	if err != nil {
		return nil, err
	}

	created := make([]Document, 0, len(docs))
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		for _, doc := range docs {
			stored, err := repo.Insert(ctx, userId, doc)
			if err != nil {
				return err
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, doc := range created {
		s.publish(ctx, event_bus.RecordCreated, event_bus.RecordChanged{UserId: userId, Kind: string(kind), Id: doc.Id, Current: doc.Data})
	}
	return created, nil
}

func (s *ServiceImpl) Update(ctx context.Context, kind record.Kind, id string, patch []byte) (Document, error) {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return Document{}, err
	}
	codec, _ := s.registry.Codec(kind)

	var previous, updated Document
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		previous, err = repo.Get(ctx, userId, kind, id)
		if err != nil {
			return err
		}
		merged, err := codec.Merge(previous, patch)
		if err != nil {
			return err
		}
		updated, err = repo.Update(ctx, userId, merged)
		return err
	})
	if err != nil {
		return Document{}, err
	}

	s.publish(ctx, event_bus.RecordUpdated, event_bus.RecordChanged{
		UserId: userId, Kind: string(kind), Id: id, Previous: previous.Data, Current: updated.Data,
	})
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, kind record.Kind, id string) error {
	userId, err := s.begin(ctx, kind)
	if err != nil {
		return err
	}

	var previous Document
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		previous, err = repo.Get(ctx, userId, kind, id)
		if err != nil {
			return err
		}
		_, err = repo.Delete(ctx, userId, kind, id)
		return err
	})
	if err != nil {
		return err
	}

	s.publish(ctx, event_bus.RecordDeleted, event_bus.RecordChanged{UserId: userId, Kind: string(kind), Id: id, Previous: previous.Data})
	return nil
}

func (s *ServiceImpl) begin(ctx context.Context, kind record.Kind) (int, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.registry.Codec(kind); err != nil {
		return 0, err
	}
	return userId, nil
}

// publish notifies subscribers after the change was committed. Subscriber failures do not
// undo the change, so they are only logged.
func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, change event_bus.RecordChanged) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, change)); err != nil {
		log.Errorf("failed to publish %s for %s %s: %v", eventType, change.Kind, change.Id, err)
	}
}

// Records decodes the documents of kind owned by the current user.
func Records[T any](ctx context.Context, s Service, kind record.Kind) ([]T, error) {
	docs, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	return Decode[T](docs)
}

// RawData returns the record JSON of each document, in order.
func RawData(docs []Document) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data)
	}
	return out
}
