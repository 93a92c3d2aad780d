package stats

import (
	"bytes"
	"encoding/csv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatsRenderer interface {
	RenderStats(stats FinanceSummary) (string, error)
}

type CsvStatsRendererImpl struct {
}

func NewCsvStatsRenderer() *CsvStatsRendererImpl {
	return &CsvStatsRendererImpl{}
}

// RenderStats writes one row per day with entries, a total row, and a block of category totals.
func (t *CsvStatsRendererImpl) RenderStats(stats FinanceSummary) (string, error) {
	data := make([][]string, 0, len(stats.Days)+len(stats.Categories)+4)
	data = append(data, []string{"Date", "Expenses", "Incomes", "Investments", "Balance"})
	for _, day := range stats.Days {
		data = append(data, []string{
			day.Date.String(),
			amount(day.Expenses),
			amount(day.Incomes),
			amount(day.Investments),
			amount(day.Incomes.Sub(day.Expenses).Sub(day.Investments)),
		})
	}
	data = append(data, []string{"Total", amount(stats.Expenses), amount(stats.Incomes), amount(stats.Investments), amount(stats.Balance())})

	if len(stats.Categories) > 0 {
		data = append(data, []string{}, []string{"Kind", "Category", "Total"})
		for _, c := range stats.Categories {
			data = append(data, []string{c.Kind, c.Category, amount(c.Total)})
		}
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.WriteAll(data); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
