package finance

import (
	"strings"

	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/shopspring/decimal"
)

// Entry holds the fields shared by every ledger record.
type Entry struct {
	Date        recurrence.Date `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	// ExcludeFromTotals marks an entry as recorded but not aggregated.
	ExcludeFromTotals bool `json:"excludeFromTotals"`
}

func (e Entry) validate() error {
	if err := record.ValidateDate("date", e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return record.Invalid("description", "is required")
	}
	if len(e.Description) > 200 {
		return record.Invalid("description", "too long (max 200 characters)")
	}
	if !e.Amount.IsPositive() {
		return record.Invalid("amount", "must be greater than zero")
	}
	return nil
}

type Expense struct {
	record.Meta
	Entry
}

func (e Expense) RecordDate() recurrence.Date { return e.Date }
func (e Expense) SortKey() string             { return e.Description }

func (e Expense) WithId(id string) Expense {
	e.Id = id
	return e
}

func (e Expense) WithDate(d recurrence.Date) Expense {
	e.Date = d
	return e
}

func (e Expense) WithLink(l record.Link) Expense {
	e.Meta = e.Meta.Linked(l)
	return e
}

func (e Expense) Validate() error {
	if err := e.ValidateRecurrence(e.RecordDate()); err != nil {
		return err
	}
	return e.validate()
}

type Income struct {
	record.Meta
	Entry
	Source string `json:"source,omitempty"`
}

func (i Income) RecordDate() recurrence.Date { return i.Date }
func (i Income) SortKey() string             { return i.Description }

func (i Income) WithId(id string) Income {
	i.Id = id
	return i
}

func (i Income) WithDate(d recurrence.Date) Income {
	i.Date = d
	return i
}

func (i Income) WithLink(l record.Link) Income {
	i.Meta = i.Meta.Linked(l)
	return i
}

func (i Income) Validate() error {
	if err := i.ValidateRecurrence(i.RecordDate()); err != nil {
		return err
	}
	return i.validate()
}

type Investment struct {
	record.Meta
	Entry
	Asset string `json:"asset,omitempty"`
}

func (i Investment) RecordDate() recurrence.Date { return i.Date }
func (i Investment) SortKey() string             { return i.Description }

func (i Investment) WithId(id string) Investment {
	i.Id = id
	return i
}

func (i Investment) WithDate(d recurrence.Date) Investment {
	i.Date = d
	return i
}

func (i Investment) WithLink(l record.Link) Investment {
	i.Meta = i.Meta.Linked(l)
	return i
}

func (i Investment) Validate() error {
	if err := i.ValidateRecurrence(i.RecordDate()); err != nil {
		return err
	}
	return i.validate()
}

// Totals sums the entries that count towards aggregates.
func Totals(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.ExcludeFromTotals {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}
