package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings goal. Unlike budgets, the current amount is stored:
// goals accumulate contributions over time instead of being derived.
// CurrentAmount may exceed TargetAmount; presentation clamps the
// percentage, see aggregate.GoalProgress.
type Goal struct {
	DefaultModel
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount" gorm:"type:DECIMAL(20,8)"`
	CurrentAmount decimal.Decimal `json:"currentAmount" gorm:"type:DECIMAL(20,8)"`
	Deadline      time.Time       `json:"deadline"`
	Icon          string          `json:"icon"`
	Color         string          `json:"color"`
}

var (
	ErrGoalTargetNotPositive = errors.New("goal target amount must be larger than zero")
	ErrGoalCurrentNegative   = errors.New("goal current amount must not be negative")
)

func (g Goal) Validate() error {
	if !g.TargetAmount.IsPositive() {
		return ErrGoalTargetNotPositive
	}
	if g.CurrentAmount.IsNegative() {
		return ErrGoalCurrentNegative
	}
	return nil
}

// GoalPatch is a merge-patch for a goal. Nil fields are left untouched.
type GoalPatch struct {
	Name          *string          `json:"name"`
	TargetAmount  *decimal.Decimal `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount"`
	Deadline      *time.Time       `json:"deadline"`
}
