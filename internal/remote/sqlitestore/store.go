// Package sqlitestore implements remote.Store on a SQLite database. It is
// the datastore the companion service runs against and the reference
// implementation for tests.
package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
)

// Store implements remote.Store.
type Store struct {
	db *gorm.DB
}

// Connect opens the SQLite database, migrates the schema and configures
// the connection pool.
func Connect(dsn string) (*Store, error) {
	config := &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{Logger: log.Logger},
	}

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// This is done to prevent SQLITE_BUSY errors.
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		models.Category{},
		models.Project{},
		models.Expense{},
		models.Receipt{},
		models.Comment{},
		models.Budget{},
		models.Goal{},
	)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// wrap converts database errors into remote.Error so that raw driver
// errors never cross the store boundary.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return remote.NewError(op, remote.ErrNotFound.Error(), remote.ErrNotFound)
	}

	if reflect.TypeOf(err) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Str("op", op).Msgf("%T: %v", err, err)
		return remote.NewError(op, "a database error occurred during your request", err)
	}

	log.Error().Str("op", op).Msgf("%T: %v", err, err)
	return remote.NewError(op, "an error occurred on the server during your request", err)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, wrap("ListCategories", err)
	}
	return categories, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, wrap("ListProjects", err)
	}
	return projects, nil
}

func (s *Store) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	err := s.db.WithContext(ctx).Create(&project).Error
	if err != nil {
		return models.Project{}, wrap("CreateProject", err)
	}
	return project, nil
}

// DeleteProject removes the project and cascades to its expenses.
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return err
		}

		var expenses []models.Expense
		if err := tx.Where("project_id = ?", id).Find(&expenses).Error; err != nil {
			return err
		}
		for _, expense := range expenses {
			if err := deleteExpense(tx, expense.ID); err != nil {
				return err
			}
		}

		return tx.Delete(&project).Error
	})
	return wrap("DeleteProject", err)
}

func deleteExpense(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("expense_id = ?", id).Delete(&models.Receipt{}).Error; err != nil {
		return err
	}
	if err := tx.Where("expense_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Expense{}, "id = ?", id).Error
}

// ListExpenses returns expenses pre-joined with their receipts and
// comments, most recent first.
func (s *Store) ListExpenses(ctx context.Context, filters remote.ExpenseFilters) ([]models.Expense, error) {
	q := s.db.WithContext(ctx).
		Preload("Receipts").
		Preload("Comments").
		Order("date DESC")

	if filters.ProjectID != uuid.Nil {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.CategoryID != uuid.Nil {
		q = q.Where("category_id = ?", filters.CategoryID)
	}

	var expenses []models.Expense
	err := q.Find(&expenses).Error
	if err != nil {
		return nil, wrap("ListExpenses", err)
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if err := expense.Validate(); err != nil {
		return models.Expense{}, remote.NewError("CreateExpense", err.Error(), err)
	}

	err := s.db.WithContext(ctx).Create(&expense).Error
	if err != nil {
		return models.Expense{}, wrap("CreateExpense", err)
	}
	return expense, nil
}

func (s *Store) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&budgets).Error
	if err != nil {
		return nil, wrap("ListBudgets", err)
	}
	return budgets, nil
}

func (s *Store) CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	if err := budget.Validate(); err != nil {
		return models.Budget{}, remote.NewError("CreateBudget", err.Error(), err)
	}

	err := s.db.WithContext(ctx).Create(&budget).Error
	if err != nil {
		return models.Budget{}, wrap("CreateBudget", err)
	}
	return budget, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id uuid.UUID, patch models.BudgetPatch) (models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).First(&budget, "id = ?", id).Error
	if err != nil {
		return models.Budget{}, wrap("UpdateBudget", err)
	}

	if patch.CategoryID != nil {
		budget.CategoryID = *patch.CategoryID
	}
	if patch.Total != nil {
		budget.Total = *patch.Total
	}
	if err := budget.Validate(); err != nil {
		return models.Budget{}, remote.NewError("UpdateBudget", err.Error(), err)
	}

	err = s.db.WithContext(ctx).Save(&budget).Error
	if err != nil {
		return models.Budget{}, wrap("UpdateBudget", err)
	}
	return budget, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Budget{}, "id = ?", id)
	if result.Error != nil {
		return wrap("DeleteBudget", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("DeleteBudget", gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.WithContext(ctx).Order("deadline ASC").Find(&goals).Error
	if err != nil {
		return nil, wrap("ListGoals", err)
	}
	return goals, nil
}

func (s *Store) CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	if err := goal.Validate(); err != nil {
		return models.Goal{}, remote.NewError("CreateGoal", err.Error(), err)
	}

	err := s.db.WithContext(ctx).Create(&goal).Error
	if err != nil {
		return models.Goal{}, wrap("CreateGoal", err)
	}
	return goal, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id uuid.UUID, patch models.GoalPatch) (models.Goal, error) {
	var goal models.Goal
	err := s.db.WithContext(ctx).First(&goal, "id = ?", id).Error
	if err != nil {
		return models.Goal{}, wrap("UpdateGoal", err)
	}

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
	if err := goal.Validate(); err != nil {
		return models.Goal{}, remote.NewError("UpdateGoal", err.Error(), err)
	}

	err = s.db.WithContext(ctx).Save(&goal).Error
	if err != nil {
		return models.Goal{}, wrap("UpdateGoal", err)
	}
	return goal, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Goal{}, "id = ?", id)
	if result.Error != nil {
		return wrap("DeleteGoal", result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("DeleteGoal", gorm.ErrRecordNotFound)
	}
	return nil
}
