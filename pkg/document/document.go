// Package document stores the records of every domain as owner-scoped JSON documents and
// serves them over the per-kind record API.
package document

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/paihq/pai/pkg/calendar"
	"github.com/paihq/pai/pkg/contact"
	"github.com/paihq/pai/pkg/finance"
	"github.com/paihq/pai/pkg/note"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/task"
	"github.com/paihq/pai/pkg/timeclock"
)

var ErrUnknownKind = errors.New("unknown record kind")

// Document is a validated record in its stored form. Data is the record JSON, id included.
type Document struct {
	Id        string
	Kind      record.Kind
	Date      recurrence.Date
	SortKey   string
	ClientKey string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Codec validates payloads of one kind and turns them into documents.
type Codec interface {
	// Single decodes one record. Payloads asking for more than one occurrence are rejected.
	Single(payload []byte, id string) (Document, error)
	// Expand decodes a record and returns one document per recurrence date.
	Expand(payload []byte, newId func() string) ([]Document, error)
	// Merge applies a JSON merge patch to the stored record and re-validates it.
	Merge(stored Document, patch []byte) (Document, error)
}

type codec[T record.Record[T]] struct {
	kind record.Kind
}

func (c codec[T]) decode(payload []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(payload, &rec); err != nil {
		return rec, record.Invalid("body", fmt.Sprintf("malformed %s record: %v", c.kind, err))
	}
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

func (c codec[T]) encode(rec T) (Document, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s record: %w", c.kind, err)
	}
	return Document{
		Id:      rec.RecordId(),
		Kind:    c.kind,
		Date:    rec.RecordDate(),
		SortKey: truncateSortKey(rec.SortKey()),
		Data:    data,
	}, nil
}

// maxSortKeyRunes bounds the indexed ordering column. Longer keys only lose ordering precision.
const maxSortKeyRunes = 255

func truncateSortKey(key string) string {
	if utf8.RuneCountInString(key) <= maxSortKeyRunes {
		return key
	}
	return string([]rune(key)[:maxSortKeyRunes])
}

func (c codec[T]) Single(payload []byte, id string) (Document, error) {
	rec, err := c.decode(payload)
	if err != nil {
		return Document{}, err
	}
	if err := single(rec); err != nil {
		return Document{}, err
	}
	return c.encode(rec.WithId(id))
}

// single rejects a stored record that still asks for more than one occurrence.
func single[T record.Record[T]](rec T) error {
	if rec.Recurrence().Count() > 1 {
		return record.Invalid("recurrence", "recurring records must be created through the recurring endpoint")
	}
	return nil
}

func (c codec[T]) Expand(payload []byte, newId func() string) ([]Document, error) {
	rec, err := c.decode(payload)
	if err != nil {
		return nil, err
	}
	siblings := record.Expand(rec, newId())
	docs := make([]Document, 0, len(siblings))
	for _, sibling := range siblings {
		doc, err := c.encode(sibling.WithId(newId()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c codec[T]) Merge(stored Document, patch []byte) (Document, error) {
	merged, err := record.ApplyPatch(stored.Data, patch)
	if err != nil {
		return Document{}, err
	}
	rec, err := c.decode(merged)
	if err != nil {
		return Document{}, err
	}
	if err := single(rec); err != nil {
		return Document{}, err
	}
	doc, err := c.encode(rec.WithId(stored.Id))
	if err != nil {
		return Document{}, err
	}
	doc.ClientKey = stored.ClientKey
	doc.CreatedAt = stored.CreatedAt
	return doc, nil
}

type Registry struct {
	codecs map[record.Kind]Codec
}

func NewRegistry() *Registry {
	return &Registry{codecs: map[record.Kind]Codec{}}
}

// Register adds the codec of T under kind.
func Register[T record.Record[T]](r *Registry, kind record.Kind) {
	r.codecs[kind] = codec[T]{kind: kind}
}

// DefaultRegistry knows every domain kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	Register[finance.Expense](r, record.Expenses)
	Register[finance.Income](r, record.Incomes)
	Register[finance.Investment](r, record.Investments)
	Register[task.Task](r, record.Tasks)
	Register[note.Note](r, record.Notes)
	Register[calendar.Event](r, record.CalendarEvents)
	Register[contact.Contact](r, record.Contacts)
	Register[timeclock.Entry](r, record.TimeEntries)
	return r
}

func (r *Registry) Codec(kind record.Kind) (Codec, error) {
	c, ok := r.codecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return c, nil
}

// Decode unmarshals the data of documents into records of type T.
func Decode[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc.Data, &rec); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", doc.Kind, doc.Id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// sortDocuments applies the ledger order used by the repository. Undated documents go last.
func sortDocuments(docs []Document) {
	slices.SortFunc(docs, func(a, b Document) int {
		if a.Date.IsZero() != b.Date.IsZero() {
			if a.Date.IsZero() {
				return 1
			}
			return -1
		}
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.SortKey, b.SortKey); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
}
