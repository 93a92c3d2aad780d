package stats

import (
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/shopspring/decimal"
)

type DailyTotals struct {
	Date        recurrence.Date
	Expenses    decimal.Decimal
	Incomes     decimal.Decimal
	Investments decimal.Decimal
}

// CategoryTotal sums one category of one ledger. Entries without a category are grouped under "".
type CategoryTotal struct {
	Kind     string
	Category string
	Total    decimal.Decimal
}

// FinanceSummary aggregates the ledgers of one calendar month. Entries marked
// excludeFromTotals are counted in Excluded only.
type FinanceSummary struct {
	From        recurrence.Date
	To          recurrence.Date
	Days        []DailyTotals
	Categories  []CategoryTotal
	Expenses    decimal.Decimal
	Incomes     decimal.Decimal
	Investments decimal.Decimal
	Excluded    int
}

// Balance is incomes minus expenses and investments.
func (s FinanceSummary) Balance() decimal.Decimal {
	return s.Incomes.Sub(s.Expenses).Sub(s.Investments)
}
