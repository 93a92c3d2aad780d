package stats

import (
	"errors"
	"net/http"
	"time"

	"github.com/paihq/pai/internal/rest"
	"github.com/paihq/pai/internal/utils"
	"github.com/paihq/pai/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type DailyTotalsDTO struct {
	Date        string          `json:"date"`
	Expenses    decimal.Decimal `json:"expenses"`
	Incomes     decimal.Decimal `json:"incomes"`
	Investments decimal.Decimal `json:"investments"`
}

type CategoryTotalDTO struct {
	Kind     string          `json:"kind"`
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type FinanceSummaryDTO struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	Days        []DailyTotalsDTO   `json:"days"`
	Categories  []CategoryTotalDTO `json:"categories"`
	Expenses    decimal.Decimal    `json:"expenses"`
	Incomes     decimal.Decimal    `json:"incomes"`
	Investments decimal.Decimal    `json:"investments"`
	Balance     decimal.Decimal    `json:"balance"`
	Excluded    int                `json:"excluded"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
	clock            utils.Clock
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer, clock utils.Clock) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer, clock}
}

// GetFinanceStats godoc
// @Summary Monthly finance totals
// @Description Totals of expenses, incomes and investments of one month. Entries excluded from totals are only counted.
// @Tags Stats
// @Produce json,text/csv
// @Param month query string false "Month in YYYY-MM format, current month when omitted"
// @Success 200 {object} FinanceSummaryDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid month"
// @Router /api/stats/finance [get]
// @Security BearerToken
func (handler *StatsHandler) GetFinanceStats(w http.ResponseWriter, r *http.Request) {
	current, err := user.CurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}

	today := utils.Today(handler.clock, current.Settings.Location())
	month := time.Date(today.Year, today.Month, 1, 0, 0, 0, 0, time.UTC)
	if param := r.URL.Query().Get("month"); param != "" {
		month, err = time.Parse("2006-01", param)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid month format", "month must be in YYYY-MM format")
			return
		}
	}

	stats, err := handler.statsService.GetFinanceStats(r.Context(), month.Year(), month.Month())
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
			return
		}
		log.Errorf("failed to compute finance stats: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to compute stats", "")
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderStats(stats)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "Failed to render stats", "")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(stats))
}

func toDTO(stats FinanceSummary) FinanceSummaryDTO {
	days := make([]DailyTotalsDTO, 0, len(stats.Days))
	for _, day := range stats.Days {
		days = append(days, DailyTotalsDTO{
			Date:        day.Date.String(),
			Expenses:    day.Expenses,
			Incomes:     day.Incomes,
			Investments: day.Investments,
		})
	}
	categories := make([]CategoryTotalDTO, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		categories = append(categories, CategoryTotalDTO(c))
	}
	return FinanceSummaryDTO{
		From:        stats.From.String(),
		To:          stats.To.String(),
		Days:        days,
		Categories:  categories,
		Expenses:    stats.Expenses,
		Incomes:     stats.Incomes,
		Investments: stats.Investments,
		Balance:     stats.Balance(),
		Excluded:    stats.Excluded,
	}
}
