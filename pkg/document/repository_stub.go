package document

import (
	"context"
	"sync"
	"time"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
)

type stubKey struct {
	userId int
	kind   record.Kind
	id     string
}

type RepositoryStub struct {
	mu   *sync.Mutex
	docs map[stubKey]Document
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{mu: &sync.Mutex{}, docs: map[stubKey]Document{}}
}

// WithTransaction runs fn on a copy and keeps its changes only when fn succeeds.
func (s *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	s.mu.Lock()
	snapshot := make(map[stubKey]Document, len(s.docs))
	for k, v := range s.docs {
		snapshot[k] = v
	}
	s.mu.Unlock()

	tx := &RepositoryStub{mu: &sync.Mutex{}, docs: snapshot}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = tx.docs
	return nil
}

func (s *RepositoryStub) List(ctx context.Context, userId int, kind record.Kind) ([]Document, error) {
	return s.filter(func(k stubKey, d Document) bool { return k.userId == userId && k.kind == kind }), nil
}

func (s *RepositoryStub) ListBetween(ctx context.Context, userId int, kind record.Kind, from, to recurrence.Date) ([]Document, error) {
	return s.filter(func(k stubKey, d Document) bool {
		return k.userId == userId && k.kind == kind && !d.Date.IsZero() && !d.Date.Before(from) && !d.Date.After(to)
	}), nil
}

func (s *RepositoryStub) Get(ctx context.Context, userId int, kind record.Kind, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, found := s.docs[stubKey{userId, kind, id}]
	if !found {
		return Document{}, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *RepositoryStub) FindByClientKey(ctx context.Context, userId int, kind record.Kind, clientKey string) (Document, error) {
	docs := s.filter(func(k stubKey, d Document) bool {
		return k.userId == userId && k.kind == kind && clientKey != "" && d.ClientKey == clientKey
	})
	if len(docs) == 0 {
		return Document{}, ErrDocumentNotFound
	}
	return docs[0], nil
}

func (s *RepositoryStub) Insert(ctx context.Context, userId int, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	s.docs[stubKey{userId, doc.Kind, doc.Id}] = doc
	return doc, nil
}

func (s *RepositoryStub) Update(ctx context.Context, userId int, doc Document) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stubKey{userId, doc.Kind, doc.Id}
	existing, found := s.docs[key]
	if !found {
		return Document{}, ErrDocumentNotFound
	}
	doc.CreatedAt = existing.CreatedAt
	doc.ClientKey = existing.ClientKey
	doc.UpdatedAt = time.Now()
	s.docs[key] = doc
	return doc, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, userId int, kind record.Kind, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stubKey{userId, kind, id}
	if _, found := s.docs[key]; !found {
		return false, nil
	}
	delete(s.docs, key)
	return true, nil
}

func (s *RepositoryStub) filter(keep func(stubKey, Document) bool) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Document{}
	for k, d := range s.docs {
		if keep(k, d) {
			out = append(out, d)
		}
	}
	sortDocuments(out)
	return out
}
