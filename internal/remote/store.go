// Package remote defines the contract to the remote datastore. The cache
// layer only ever talks to this interface; transport details live in the
// implementations.
package remote

import (
	"context"

	"github.com/gastoro/backend/internal/models"
	"github.com/google/uuid"
)

// ExpenseFilters narrows the remote expense query. Zero values are not
// applied. Filtering is advisory: the cache replaces its whole collection
// with whatever the query returns.
type ExpenseFilters struct {
	ProjectID  uuid.UUID
	CategoryID uuid.UUID
}

// Store is the remote datastore collaborator. Implementations must return
// *Error for every failure so that no raw transport error crosses the
// cache boundary. Expenses are returned pre-joined with their receipts
// and comments.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)

	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	// DeleteProject cascades expense deletion remotely.
	DeleteProject(ctx context.Context, id uuid.UUID) error

	ListExpenses(ctx context.Context, filters ExpenseFilters) ([]models.Expense, error)
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)

	ListBudgets(ctx context.Context) ([]models.Budget, error)
	CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error)
	UpdateBudget(ctx context.Context, id uuid.UUID, patch models.BudgetPatch) (models.Budget, error)
	DeleteBudget(ctx context.Context, id uuid.UUID) error

	ListGoals(ctx context.Context) ([]models.Goal, error)
	CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error)
	UpdateGoal(ctx context.Context, id uuid.UUID, patch models.GoalPatch) (models.Goal, error)
	DeleteGoal(ctx context.Context, id uuid.UUID) error
}
