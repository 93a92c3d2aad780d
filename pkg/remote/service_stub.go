package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/paihq/pai/pkg/record"
)

// ServiceStub is an in-memory Service. Fail, when set, is consulted before every call and
// its error is returned instead of performing the operation.
type ServiceStub[T record.Record[T]] struct {
	mu      sync.Mutex
	nextId  int
	records map[string]T
	keys    map[string]string
	Fail    func(op string) error
	Calls   map[string]int
}

func NewServiceStub[T record.Record[T]]() *ServiceStub[T] {
	return &ServiceStub[T]{
		records: map[string]T{},
		keys:    map[string]string{},
		Calls:   map[string]int{},
	}
}

func (s *ServiceStub[T]) SetFail(fail func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = fail
}

func (s *ServiceStub[T]) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[op]
}

// Seed stores records as if they had been created remotely earlier.
func (s *ServiceStub[T]) Seed(records ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.RecordId() == "" {
			s.nextId++
			r = r.WithId(fmt.Sprintf("srv-%d", s.nextId))
		}
		s.records[r.RecordId()] = r
	}
}

func (s *ServiceStub[T]) begin(op string) error {
	s.mu.Lock()
	s.Calls[op]++
	fail := s.Fail
	s.mu.Unlock()
	if fail != nil {
		return fail(op)
	}
	return nil
}

func (s *ServiceStub[T]) List(ctx context.Context) ([]T, error) {
	if err := s.begin("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	record.Sort(out)
	return out, nil
}

func (s *ServiceStub[T]) Create(ctx context.Context, rec T, idempotencyKey string) (T, error) {
	if err := s.begin("create"); err != nil {
		var zero T
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, seen := s.keys[idempotencyKey]; seen && idempotencyKey != "" {
		return s.records[id], nil
	}
	s.nextId++
	rec = rec.WithId(fmt.Sprintf("srv-%d", s.nextId))
	s.records[rec.RecordId()] = rec
	if idempotencyKey != "" {
		s.keys[idempotencyKey] = rec.RecordId()
	}
	return rec, nil
}

func (s *ServiceStub[T]) Update(ctx context.Context, id string, patch json.RawMessage) (T, error) {
	var zero T
	if err := s.begin("update"); err != nil {
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, found := s.records[id]
	if !found {
		return zero, &StatusError{Code: 404, Message: "record not found"}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return zero, err
	}
	merged, err := record.ApplyPatch(data, patch)
	if err != nil {
		return zero, &StatusError{Code: 400, Message: err.Error()}
	}
	var rec T
	if err := json.Unmarshal(merged, &rec); err != nil {
		return zero, &StatusError{Code: 400, Message: err.Error()}
	}
	rec = rec.WithId(id)
	s.records[id] = rec
	return rec, nil
}

func (s *ServiceStub[T]) Delete(ctx context.Context, id string) error {
	if err := s.begin("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.records[id]; !found {
		return &StatusError{Code: 404, Message: "record not found"}
	}
	delete(s.records, id)
	return nil
}
