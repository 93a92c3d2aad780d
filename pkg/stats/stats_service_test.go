package stats

import (
	"context"
	"testing"
	"time"

	"github.com/paihq/pai/pkg/document"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/recurrence"
	"github.com/paihq/pai/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{
	Id:       1,
	Uid:      "uid-1",
	Username: "test-user-1",
	Settings: user.Settings{Timezone: "Europe/Warsaw", Currency: "PLN"},
})

func setup(t *testing.T) (*StatsServiceImpl, document.Service) {
	t.Helper()
	documents := document.NewService(document.NewRepositoryStub(), document.DefaultRegistry(), nil)
	return NewStatsServiceImpl(documents), documents
}

func seed(t *testing.T, documents document.Service, kind record.Kind, payloads ...string) {
	t.Helper()
	for _, p := range payloads {
		_, _, err := documents.Create(ctx, kind, []byte(p), "")
		require.NoError(t, err)
	}
}

func TestStatsServiceImpl_GetFinanceStats(t *testing.T) {
	t.Run("should sum the month skipping excluded entries", func(t *testing.T) {
		// given
		service, documents := setup(t)
		seed(t, documents, record.Expenses,
			`{"date":"2024-02-01","description":"rent","amount":"900","category":"home"}`,
			`{"date":"2024-02-01","description":"coffee","amount":"3.50","category":"food"}`,
			`{"date":"2024-02-29","description":"groceries","amount":"60.25","category":"food"}`,
			`{"date":"2024-02-10","description":"reimbursed flight","amount":"400","excludeFromTotals":true}`,
			`{"date":"2024-03-01","description":"rent","amount":"900","category":"home"}`,
		)
		seed(t, documents, record.Incomes, `{"date":"2024-02-25","description":"salary","amount":"3000"}`)
		seed(t, documents, record.Investments, `{"date":"2024-02-26","description":"index fund","amount":"500","asset":"VWCE"}`)

		// when
		summary, err := service.GetFinanceStats(ctx, 2024, time.February)

		// then
		require.NoError(t, err)
		assert.Equal(t, recurrence.NewDate(2024, 2, 1), summary.From)
		assert.Equal(t, recurrence.NewDate(2024, 2, 29), summary.To)
		assert.True(t, decimal.RequireFromString("963.75").Equal(summary.Expenses), summary.Expenses.String())
		assert.True(t, decimal.RequireFromString("3000").Equal(summary.Incomes))
		assert.True(t, decimal.RequireFromString("500").Equal(summary.Investments))
		assert.True(t, decimal.RequireFromString("1536.25").Equal(summary.Balance()))
		assert.Equal(t, 1, summary.Excluded)

		require.Len(t, summary.Days, 4)
		assert.Equal(t, recurrence.NewDate(2024, 2, 1), summary.Days[0].Date)
		assert.True(t, decimal.RequireFromString("903.50").Equal(summary.Days[0].Expenses))
		assert.Equal(t, recurrence.NewDate(2024, 2, 29), summary.Days[3].Date)

		require.Len(t, summary.Categories, 4)
		assert.Equal(t, "expenses", summary.Categories[0].Kind)
		assert.Equal(t, "food", summary.Categories[0].Category)
		assert.True(t, decimal.RequireFromString("63.75").Equal(summary.Categories[0].Total))
		assert.Equal(t, "home", summary.Categories[1].Category)
		assert.Equal(t, "incomes", summary.Categories[2].Kind)
		assert.Equal(t, "investments", summary.Categories[3].Kind)
	})

	t.Run("should return zero totals for an empty month", func(t *testing.T) {
		service, _ := setup(t)

		summary, err := service.GetFinanceStats(ctx, 2023, time.December)

		require.NoError(t, err)
		assert.True(t, summary.Balance().IsZero())
		assert.Empty(t, summary.Days)
	})

	t.Run("should require a user", func(t *testing.T) {
		service, _ := setup(t)

		_, err := service.GetFinanceStats(context.Background(), 2024, time.January)

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}
