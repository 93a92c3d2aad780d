// Package record holds the contract every PAI domain record fulfils: an owner-scoped id,
// a date driving the ledger order, and the optional back-reference to the recurrence
// expansion that produced it.
package record

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/paihq/pai/pkg/recurrence"
)

// Kind names a domain collection. It is used in URLs and local storage keys.
type Kind string

const (
	Expenses       Kind = "expenses"
	Incomes        Kind = "incomes"
	Investments    Kind = "investments"
	Tasks          Kind = "tasks"
	Notes          Kind = "notes"
	CalendarEvents Kind = "calendar"
	Contacts       Kind = "contacts"
	TimeEntries    Kind = "timeclock"
)

var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Record is implemented by value types; the With* methods return modified copies.
type Record[T any] interface {
	RecordId() string
	WithId(id string) T
	RecordDate() recurrence.Date
	WithDate(date recurrence.Date) T
	// SortKey is the deterministic tiebreak between records sharing a date.
	SortKey() string
	Recurrence() recurrence.Spec
	RecurrenceLink() Link
	WithLink(link Link) T
	Validate() error
}

// Link ties sibling records produced by one recurrence expansion. It is informational only.
type Link struct {
	RecurrenceId    string `json:"recurrenceId,omitempty"`
	RecurrenceIndex *int   `json:"recurrenceIndex,omitempty"`
	RecurrenceTotal *int   `json:"recurrenceTotal,omitempty"`
}

func NewLink(recurrenceId string, index, total int) Link {
	return Link{RecurrenceId: recurrenceId, RecurrenceIndex: &index, RecurrenceTotal: &total}
}

func (l Link) IsZero() bool {
	return l.RecurrenceId == "" && l.RecurrenceIndex == nil && l.RecurrenceTotal == nil
}

// Meta is embedded by domain records.
type Meta struct {
	Id string `json:"id,omitempty"`
	Link
	Repeat *recurrence.Spec `json:"recurrence,omitempty"`
}

func (m Meta) RecordId() string {
	return m.Id
}

func (m Meta) RecurrenceLink() Link {
	return m.Link
}

func (m Meta) Recurrence() recurrence.Spec {
	if m.Repeat == nil {
		return recurrence.Once
	}
	return *m.Repeat
}

// Linked returns a copy carrying link. The recurrence request is dropped because the
// sibling is now an independent, already expanded record.
func (m Meta) Linked(link Link) Meta {
	m.Link = link
	m.Repeat = nil
	return m
}

// ValidateRecurrence checks the recurrence request, if any, for a schedule starting at start.
// Every expanded date must stay representable as YYYY-MM-DD.
func (m Meta) ValidateRecurrence(start recurrence.Date) error {
	if m.Repeat == nil {
		return nil
	}
	if !m.Repeat.Frequency.Valid() {
		return Invalid("recurrence.frequency", fmt.Sprintf("unknown frequency %q", m.Repeat.Frequency))
	}
	if start.Valid() && m.Repeat.Last(start).After(recurrence.MaxDate) {
		return Invalid("recurrence.occurrences", "schedule runs past "+recurrence.MaxDate.String())
	}
	return nil
}

// Compare is the canonical ledger order: date descending, then sort key, then id.
func Compare[T Record[T]](a, b T) int {
	if c := b.RecordDate().Compare(a.RecordDate()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SortKey(), b.SortKey()); c != 0 {
		return c
	}
	return cmp.Compare(a.RecordId(), b.RecordId())
}

func Sort[T Record[T]](records []T) {
	slices.SortStableFunc(records, Compare[T])
}

func IsSorted[T Record[T]](records []T) bool {
	return slices.IsSortedFunc(records, Compare[T])
}

func Find[T Record[T]](records []T, id string) (T, bool) {
	for _, r := range records {
		if r.RecordId() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Upsert replaces the record with the same id or appends it, and keeps the slice sorted.
func Upsert[T Record[T]](records []T, r T) []T {
	out := slices.Clone(records)
	idx := slices.IndexFunc(out, func(existing T) bool { return existing.RecordId() == r.RecordId() })
	if idx >= 0 {
		out[idx] = r
	} else {
		out = append(out, r)
	}
	Sort(out)
	return out
}

func Remove[T Record[T]](records []T, id string) ([]T, bool) {
	idx := slices.IndexFunc(records, func(existing T) bool { return existing.RecordId() == id })
	if idx < 0 {
		return records, false
	}
	return slices.Delete(slices.Clone(records), idx, idx+1), true
}

// Expand turns r into its recurrence siblings. A single-date spec yields r unchanged.
func Expand[T Record[T]](r T, recurrenceId string) []T {
	spec := r.Recurrence()
	dates := recurrence.ExpandDate(r.RecordDate(), spec)
	if len(dates) == 1 {
		return []T{r}
	}
	siblings := make([]T, 0, len(dates))
	for i, d := range dates {
		siblings = append(siblings, r.WithDate(d).WithLink(NewLink(recurrenceId, i, len(dates))))
	}
	return siblings
}

// ValidateDate is shared by domain Validate implementations.
func ValidateDate(field string, d recurrence.Date) error {
	if d.IsZero() {
		return Invalid(field, "is required")
	}
	if !d.Valid() {
		return Invalid(field, "is not a valid calendar date")
	}
	return nil
}
