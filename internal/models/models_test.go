package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gastoro/backend/internal/models"
)

func TestProjectValidate(t *testing.T) {
	assert.Nil(t, models.Project{Name: "Gastos compartidos"}.Validate())
	assert.ErrorIs(t, models.Project{}.Validate(), models.ErrProjectNameRequired)
	assert.ErrorIs(t, models.Project{Name: "   "}.Validate(), models.ErrProjectNameRequired)
}

func TestExpenseValidate(t *testing.T) {
	valid := models.Expense{
		ProjectID:  uuid.New(),
		CategoryID: uuid.New(),
		Name:       "Supermercado",
		Amount:     decimal.NewFromFloat(420.50),
	}
	assert.Nil(t, valid.Validate())

	noName := valid
	noName.Name = " "
	assert.ErrorIs(t, noName.Validate(), models.ErrExpenseNameRequired)

	zeroAmount := valid
	zeroAmount.Amount = decimal.Zero
	assert.ErrorIs(t, zeroAmount.Validate(), models.ErrExpenseAmountNotPositive)

	negativeAmount := valid
	negativeAmount.Amount = decimal.NewFromInt(-5)
	assert.ErrorIs(t, negativeAmount.Validate(), models.ErrExpenseAmountNotPositive)

	noProject := valid
	noProject.ProjectID = uuid.Nil
	assert.ErrorIs(t, noProject.Validate(), models.ErrExpenseProjectRequired)
}

func TestExpensePatchApply(t *testing.T) {
	expense := models.Expense{
		Name:   "Tacos",
		Amount: decimal.NewFromInt(100),
		Date:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	newName := "Tacos al pastor"
	newAmount := decimal.NewFromInt(150)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	patch := models.ExpensePatch{Name: &newName, Amount: &newAmount}
	patch.Apply(&expense, now)

	assert.Equal(t, "Tacos al pastor", expense.Name)
	assert.True(t, expense.Amount.Equal(newAmount))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), expense.Date, "unset fields stay untouched")
	assert.Equal(t, now, expense.UpdatedAt)
}

func TestBudgetValidate(t *testing.T) {
	valid := models.Budget{
		CategoryID: uuid.New(),
		Total:      decimal.NewFromInt(1000),
		Period:     models.BudgetPeriodMonthly,
	}
	assert.Nil(t, valid.Validate())

	negative := valid
	negative.Total = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), models.ErrBudgetTotalNegative)

	weekly := valid
	weekly.Period = "weekly"
	assert.ErrorIs(t, weekly.Validate(), models.ErrBudgetPeriodNotValid)
}

func TestGoalValidate(t *testing.T) {
	valid := models.Goal{
		Name:         "Vacaciones",
		TargetAmount: decimal.NewFromInt(80000),
	}
	assert.Nil(t, valid.Validate())

	zeroTarget := valid
	zeroTarget.TargetAmount = decimal.Zero
	assert.ErrorIs(t, zeroTarget.Validate(), models.ErrGoalTargetNotPositive)

	negativeCurrent := valid
	negativeCurrent.CurrentAmount = decimal.NewFromInt(-10)
	assert.ErrorIs(t, negativeCurrent.Validate(), models.ErrGoalCurrentNegative)
}

func TestUncategorizedFallback(t *testing.T) {
	fallback := models.Uncategorized()

	assert.Equal(t, models.UncategorizedName, fallback.Name)
	assert.Equal(t, uuid.Nil, fallback.ID, "the fallback carries no ID")
	assert.NotEmpty(t, fallback.Icon)
	assert.NotEmpty(t, fallback.Color)
}
