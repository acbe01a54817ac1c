package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/types"
)

// Spanish short labels, matching the rest of the presentation layer.
var (
	weekdayLabels = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}
	monthLabels   = []string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}
)

// TrendPoint is one bucket of a spending trend chart.
type TrendPoint struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// TrendSeries buckets the expenses of the current period into chart
// points. Weeks yield seven weekday buckets starting Monday, months five
// seven-day buckets, years twelve month buckets. Every bucket is always
// present, zero-valued when empty, so charts keep a stable shape. The
// all-time period has no natural bucket width and falls back to the
// year series.
func TrendSeries(expenses []models.Expense, period types.Period, now time.Time) []TrendPoint {
	if period == types.PeriodAll {
		period = types.PeriodYear
	}
	r := types.RangeFor(period, 0, now)

	switch period {
	case types.PeriodWeek:
		points := emptySeries(weekdayLabels)
		for _, expense := range expenses {
			if !r.Contains(expense.Date) {
				continue
			}
			weekday := int(expense.Date.Weekday())
			if weekday == 0 {
				weekday = 7
			}
			points[weekday-1].Total = points[weekday-1].Total.Add(expense.Amount)
		}
		return points

	case types.PeriodYear:
		points := emptySeries(monthLabels)
		for _, expense := range expenses {
			if !r.Contains(expense.Date) {
				continue
			}
			bucket := int(expense.Date.Month()) - 1
			points[bucket].Total = points[bucket].Total.Add(expense.Amount)
		}
		return points
	}

	// Month: days 1-7 fall into "Sem 1", 8-14 into "Sem 2" and so on.
	// The 29th and later always land in the fifth bucket.
	points := emptySeries([]string{"Sem 1", "Sem 2", "Sem 3", "Sem 4", "Sem 5"})
	for _, expense := range expenses {
		if !r.Contains(expense.Date) {
			continue
		}
		bucket := (expense.Date.Day() - 1) / 7
		if bucket > 4 {
			bucket = 4
		}
		points[bucket].Total = points[bucket].Total.Add(expense.Amount)
	}
	return points
}

func emptySeries(labels []string) []TrendPoint {
	points := make([]TrendPoint, len(labels))
	for i, label := range labels {
		points[i] = TrendPoint{Label: label, Total: decimal.Zero}
	}
	return points
}
