// Package aggregate derives every displayed financial figure from the
// cached collections. All functions are pure: they read the expense and
// reference snapshots they are handed and never touch the remote, so
// results are reproducible for any fixed input and clock.
package aggregate

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/types"
)

var oneHundred = decimal.NewFromInt(100)

// ActiveExpenses returns the expenses dated inside the range, order
// preserved. This is the working set the other derivations consume.
func ActiveExpenses(expenses []models.Expense, r types.Range) []models.Expense {
	var active []models.Expense
	for _, expense := range expenses {
		if r.Contains(expense.Date) {
			active = append(active, expense)
		}
	}
	return active
}

// PeriodTotal sums the expenses dated inside the range.
func PeriodTotal(expenses []models.Expense, r types.Range) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		if r.Contains(expense.Date) {
			total = total.Add(expense.Amount)
		}
	}
	return total
}

// PercentageChange renders the relative change between two period totals
// for display. A previous total of zero cannot produce a ratio, so the
// result degrades to "+100%" when anything was spent and "0%" when
// nothing was. Otherwise the change is rendered with one decimal and an
// explicit sign for increases, e.g. "+12.5%".
func PercentageChange(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		if current.IsPositive() {
			return "+100%"
		}
		return "0%"
	}

	change := current.Sub(previous).Div(previous).Mul(oneHundred)
	if change.IsPositive() {
		return "+" + change.StringFixed(1) + "%"
	}
	return change.StringFixed(1) + "%"
}

// CategoryLookup resolves a category ID against the reference cache.
type CategoryLookup func(uuid.UUID) (models.Category, bool)

// CategoryShare is one slice of the spending breakdown.
type CategoryShare struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Share    int64           `json:"share"`
}

// CategoryBreakdown groups the expenses inside the range by category and
// computes each category's rounded share of the total. Expenses whose
// category does not resolve are attributed to the uncategorized
// fallback. Sorted by descending total.
func CategoryBreakdown(expenses []models.Expense, r types.Range, lookup CategoryLookup) []CategoryShare {
	totals := make(map[uuid.UUID]decimal.Decimal)
	grand := decimal.Zero
	for _, expense := range expenses {
		if !r.Contains(expense.Date) {
			continue
		}
		totals[expense.CategoryID] = totals[expense.CategoryID].Add(expense.Amount)
		grand = grand.Add(expense.Amount)
	}

	breakdown := make([]CategoryShare, 0, len(totals))
	for id, total := range totals {
		category, ok := lookup(id)
		if !ok {
			category = models.Uncategorized()
		}

		share := int64(0)
		if grand.IsPositive() {
			share = total.Div(grand).Mul(oneHundred).Round(0).IntPart()
		}

		breakdown = append(breakdown, CategoryShare{
			Category: category,
			Total:    total,
			Share:    share,
		})
	}

	slices.SortFunc(breakdown, func(a, b CategoryShare) int {
		return b.Total.Cmp(a.Total)
	})
	return breakdown
}

// BudgetStatus is a budget enriched with its derived spending state.
type BudgetStatus struct {
	models.Budget
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage int64           `json:"percentage"`
}

// BudgetWithSpent computes the spent amount for a budget from the
// expense collection. Budgets are monthly, so only expenses of the
// calendar month containing now count, regardless of when the budget was
// created. Remaining goes negative when the budget is exceeded; clamping
// is a presentation decision.
func BudgetWithSpent(budget models.Budget, expenses []models.Expense, now time.Time) BudgetStatus {
	month := types.MonthOf(now)

	spent := decimal.Zero
	for _, expense := range expenses {
		if expense.CategoryID != budget.CategoryID {
			continue
		}
		if budget.ProjectID != uuid.Nil && expense.ProjectID != budget.ProjectID {
			continue
		}
		if !month.Contains(expense.Date) {
			continue
		}
		spent = spent.Add(expense.Amount)
	}

	// Percentage goes past 100 for exceeded budgets; a zero-total
	// budget cannot produce a ratio and reports 0.
	percentage := int64(0)
	if budget.Total.IsPositive() {
		percentage = spent.Div(budget.Total).Mul(oneHundred).Round(0).IntPart()
	}

	return BudgetStatus{
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Total.Sub(spent),
		Percentage: percentage,
	}
}

// GoalStatus is a goal enriched with its derived progress.
type GoalStatus struct {
	models.Goal
	Percentage int64           `json:"percentage"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// GoalProgress computes the completion percentage, clamped to [0, 100],
// and the amount still missing, floored at zero for overfunded goals.
func GoalProgress(goal models.Goal) GoalStatus {
	percentage := int64(0)
	if goal.TargetAmount.IsPositive() {
		percentage = goal.CurrentAmount.Div(goal.TargetAmount).Mul(oneHundred).Round(0).IntPart()
	}
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	remaining := goal.TargetAmount.Sub(goal.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return GoalStatus{
		Goal:       goal,
		Percentage: percentage,
		Remaining:  remaining,
	}
}

// DailyAverage is the month-to-date total divided by the number of days
// elapsed, at least one so the first of the month does not divide by
// zero.
func DailyAverage(expenses []models.Expense, now time.Time) decimal.Decimal {
	total := PeriodTotal(expenses, types.RangeFor(types.PeriodMonth, 0, now))

	days := now.Day()
	if days < 1 {
		days = 1
	}
	return total.Div(decimal.NewFromInt(int64(days)))
}

// ProjectedMonth extrapolates the daily average over the full month.
func ProjectedMonth(expenses []models.Expense, now time.Time) decimal.Decimal {
	days := types.MonthOf(now).Days()
	return DailyAverage(expenses, now).Mul(decimal.NewFromInt(int64(days)))
}

// Summary bundles the figures the overview screen renders for one
// period.
type Summary struct {
	Period        types.Period    `json:"period"`
	Total         decimal.Decimal `json:"total"`
	PreviousTotal decimal.Decimal `json:"previousTotal"`
	Change        string          `json:"change"`
	DailyAverage  decimal.Decimal `json:"dailyAverage"`
	Projected     decimal.Decimal `json:"projected"`
	Breakdown     []CategoryShare `json:"breakdown"`
	Trend         []TrendPoint    `json:"trend"`
}

// Summarize derives the full overview for a period. The daily average
// and projection always refer to the current month, whatever the period,
// since they answer "how is this month going".
func Summarize(expenses []models.Expense, period types.Period, now time.Time, lookup CategoryLookup) Summary {
	current := types.RangeFor(period, 0, now)
	previous := types.RangeFor(period, 1, now)

	active := ActiveExpenses(expenses, current)
	total := PeriodTotal(active, current)
	previousTotal := PeriodTotal(expenses, previous)

	return Summary{
		Period:        period,
		Total:         total,
		PreviousTotal: previousTotal,
		Change:        PercentageChange(total, previousTotal),
		DailyAverage:  DailyAverage(expenses, now),
		Projected:     ProjectedMonth(expenses, now),
		Breakdown:     CategoryBreakdown(active, current, lookup),
		Trend:         TrendSeries(expenses, period, now),
	}
}
