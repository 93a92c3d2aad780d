package stats

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/finance"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsService interface {
	GetFinanceStats(ctx context.Context, year int, month time.Month) (FinanceSummary, error)
}

type StatsServiceImpl struct {
	documents document.Service
}

func NewStatsServiceImpl(documents document.Service) *StatsServiceImpl {
	return &StatsServiceImpl{documents: documents}
}

func (s *StatsServiceImpl) GetFinanceStats(ctx context.Context, year int, month time.Month) (FinanceSummary, error) {
	from := recurrence.NewDate(year, month, 1)
	to := recurrence.NewDate(year, month, recurrence.DaysIn(year, month))
	summary := FinanceSummary{From: from, To: to}

	expenses, err := listEntries[finance.Expense](ctx, s.documents, record.Expenses, from, to, func(e finance.Expense) finance.Entry { return e.Entry })
	if err != nil {
		return FinanceSummary{}, err
	}
	incomes, err := listEntries[finance.Income](ctx, s.documents, record.Incomes, from, to, func(i finance.Income) finance.Entry { return i.Entry })
	if err != nil {
		return FinanceSummary{}, err
	}
	investments, err := listEntries[finance.Investment](ctx, s.documents, record.Investments, from, to, func(i finance.Investment) finance.Entry { return i.Entry })
	if err != nil {
		return FinanceSummary{}, err
	}
	log.Tracef("finance stats %s..%s: %d expenses, %d incomes, %d investments", from, to, len(expenses), len(incomes), len(investments))

	summary.Expenses = finance.Totals(expenses)
	summary.Incomes = finance.Totals(incomes)
	summary.Investments = finance.Totals(investments)

	days := map[recurrence.Date]*DailyTotals{}
	categories := map[[2]string]decimal.Decimal{}
	add := func(kind record.Kind, entries []finance.Entry, field func(*DailyTotals) *decimal.Decimal) {
		for _, e := range entries {
			if e.ExcludeFromTotals {
				summary.Excluded++
				continue
			}
			day, ok := days[e.Date]
			if !ok {
				day = &DailyTotals{Date: e.Date}
				days[e.Date] = day
			}
			total := field(day)
			*total = total.Add(e.Amount)
			key := [2]string{string(kind), e.Category}
			categories[key] = categories[key].Add(e.Amount)
		}
	}
	add(record.Expenses, expenses, func(d *DailyTotals) *decimal.Decimal { return &d.Expenses })
	add(record.Incomes, incomes, func(d *DailyTotals) *decimal.Decimal { return &d.Incomes })
	add(record.Investments, investments, func(d *DailyTotals) *decimal.Decimal { return &d.Investments })

	for _, day := range days {
		summary.Days = append(summary.Days, *day)
	}
	slices.SortFunc(summary.Days, func(a, b DailyTotals) int { return a.Date.Compare(b.Date) })

	for key, total := range categories {
		summary.Categories = append(summary.Categories, CategoryTotal{Kind: key[0], Category: key[1], Total: total})
	}
	slices.SortFunc(summary.Categories, func(a, b CategoryTotal) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Category, b.Category))
	})
	return summary, nil
}

func listEntries[T any](ctx context.Context, documents document.Service, kind record.Kind, from, to recurrence.Date, entry func(T) finance.Entry) ([]finance.Entry, error) {
	docs, err := documents.ListBetween(ctx, kind, from, to)
	if err != nil {
		return nil, err
	}
	records, err := document.Decode[T](docs)
	if err != nil {
		log.Errorf("failed to decode %s: %v", kind, err)
		return nil, err
	}
	entries := make([]finance.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, entry(r))
	}
	return entries, nil
}
