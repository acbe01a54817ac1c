package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
)

// fakeStore implements remote.Store in memory and counts calls so tests
// can assert whether the freshness window short-circuited the remote.
type fakeStore struct {
	mu         sync.Mutex
	categories []models.Category
	projects   []models.Project
	expenses   []models.Expense
	budgets    []models.Budget
	goals      []models.Goal

	// err fails every call when set.
	err   error
	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (s *fakeStore) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.err
}

func (s *fakeStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStore) ListCategories(context.Context) ([]models.Category, error) {
	if err := s.record("ListCategories"); err != nil {
		return nil, err
	}
	return s.categories, nil
}

func (s *fakeStore) ListProjects(context.Context) ([]models.Project, error) {
	if err := s.record("ListProjects"); err != nil {
		return nil, err
	}
	return s.projects, nil
}

func (s *fakeStore) CreateProject(_ context.Context, project models.Project) (models.Project, error) {
	if err := s.record("CreateProject"); err != nil {
		return models.Project{}, err
	}
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	return project, nil
}

func (s *fakeStore) DeleteProject(_ context.Context, _ uuid.UUID) error {
	return s.record("DeleteProject")
}

func (s *fakeStore) ListExpenses(_ context.Context, filters remote.ExpenseFilters) ([]models.Expense, error) {
	if err := s.record("ListExpenses"); err != nil {
		return nil, err
	}

	if filters.ProjectID == uuid.Nil {
		return s.expenses, nil
	}
	var matched []models.Expense
	for _, expense := range s.expenses {
		if expense.ProjectID == filters.ProjectID {
			matched = append(matched, expense)
		}
	}
	return matched, nil
}

func (s *fakeStore) CreateExpense(_ context.Context, expense models.Expense) (models.Expense, error) {
	if err := s.record("CreateExpense"); err != nil {
		return models.Expense{}, err
	}
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	return expense, nil
}

func (s *fakeStore) ListBudgets(context.Context) ([]models.Budget, error) {
	if err := s.record("ListBudgets"); err != nil {
		return nil, err
	}
	return s.budgets, nil
}

func (s *fakeStore) CreateBudget(_ context.Context, budget models.Budget) (models.Budget, error) {
	if err := s.record("CreateBudget"); err != nil {
		return models.Budget{}, err
	}
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	return budget, nil
}

func (s *fakeStore) UpdateBudget(_ context.Context, id uuid.UUID, patch models.BudgetPatch) (models.Budget, error) {
	if err := s.record("UpdateBudget"); err != nil {
		return models.Budget{}, err
	}

	budget := models.Budget{Period: models.BudgetPeriodMonthly}
	budget.ID = id
	if patch.CategoryID != nil {
		budget.CategoryID = *patch.CategoryID
	}
	if patch.Total != nil {
		budget.Total = *patch.Total
	}
	return budget, nil
}

func (s *fakeStore) DeleteBudget(_ context.Context, _ uuid.UUID) error {
	return s.record("DeleteBudget")
}

func (s *fakeStore) ListGoals(context.Context) ([]models.Goal, error) {
	if err := s.record("ListGoals"); err != nil {
		return nil, err
	}
	return s.goals, nil
}

func (s *fakeStore) CreateGoal(_ context.Context, goal models.Goal) (models.Goal, error) {
	if err := s.record("CreateGoal"); err != nil {
		return models.Goal{}, err
	}
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	return goal, nil
}

func (s *fakeStore) UpdateGoal(_ context.Context, id uuid.UUID, patch models.GoalPatch) (models.Goal, error) {
	if err := s.record("UpdateGoal"); err != nil {
		return models.Goal{}, err
	}

	var goal models.Goal
	goal.ID = id
	if patch.Name != nil {
		goal.Name = *patch.Name
	}
	if patch.TargetAmount != nil {
		goal.TargetAmount = *patch.TargetAmount
	}
	if patch.CurrentAmount != nil {
		goal.CurrentAmount = *patch.CurrentAmount
	}
	if patch.Deadline != nil {
		goal.Deadline = *patch.Deadline
	}
	return goal, nil
}

func (s *fakeStore) DeleteGoal(_ context.Context, _ uuid.UUID) error {
	return s.record("DeleteGoal")
}
