package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetPeriodMonthly is the only supported budget period.
const BudgetPeriodMonthly = "monthly"

// Budget caps spending for one category. The spent amount is never
// stored: it is recomputed from the expense set on every read, see
// aggregate.BudgetWithSpent.
type Budget struct {
	DefaultModel
	CategoryID uuid.UUID       `json:"categoryId"`
	ProjectID  uuid.UUID       `json:"projectId"`
	Total      decimal.Decimal `json:"total" gorm:"type:DECIMAL(20,8)"`
	Period     string          `json:"period"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

var (
	ErrBudgetTotalNegative  = errors.New("budget total must not be negative")
	ErrBudgetPeriodNotValid = errors.New("budget period must be monthly")
)

func (b Budget) Validate() error {
	if b.Total.IsNegative() {
		return ErrBudgetTotalNegative
	}
	if b.Period != BudgetPeriodMonthly {
		return ErrBudgetPeriodNotValid
	}
	return nil
}

// BudgetPatch is a merge-patch for a budget. Nil fields are left untouched.
type BudgetPatch struct {
	CategoryID *uuid.UUID       `json:"categoryId"`
	Total      *decimal.Decimal `json:"total"`
}
