package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is transactional data: the append-heavy collection all
// aggregation is computed over. Amount is always a positive magnitude;
// the debit sign is applied at presentation time only.
type Expense struct {
	DefaultModel
	ProjectID   uuid.UUID       `json:"projectId"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Date        time.Time       `json:"date"`
	Receipts    []Receipt       `json:"receipts" gorm:"constraint:OnDelete:CASCADE"`
	Comments    []Comment       `json:"comments" gorm:"constraint:OnDelete:CASCADE"`
}

// Receipt is an image attached to an expense.
type Receipt struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	ExpenseID uuid.UUID `json:"expenseId"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a collaborator note on an expense.
type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	ExpenseID uuid.UUID `json:"expenseId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrExpenseNameRequired      = errors.New("expense name must not be empty")
	ErrExpenseAmountNotPositive = errors.New("expense amount must be larger than zero")
	ErrExpenseProjectRequired   = errors.New("expense must belong to a project")
)

func (e *Expense) BeforeSave(_ *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Description = strings.TrimSpace(e.Description)

	if e.Date.IsZero() {
		e.Date = time.Now().In(time.UTC)
	} else {
		e.Date = e.Date.In(time.UTC)
	}

	return nil
}

// Validate checks the expense before any remote call is attempted. No
// optimistic mutation may happen for invalid input.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrExpenseNameRequired
	}
	if !e.Amount.IsPositive() {
		return ErrExpenseAmountNotPositive
	}
	if e.ProjectID == uuid.Nil {
		return ErrExpenseProjectRequired
	}
	return nil
}

// ExpensePatch is a merge-patch for an expense. Nil fields are left
// untouched.
type ExpensePatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *time.Time       `json:"date"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
}

// Apply merges the patch into the expense and bumps UpdatedAt.
func (p ExpensePatch) Apply(e *Expense, now time.Time) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	e.UpdatedAt = now
}
