package sqlitestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
	"github.com/gastoro/backend/internal/remote/sqlitestore"
	"github.com/gastoro/backend/test"
)

type StoreSuite struct {
	suite.Suite

	store *sqlitestore.Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (suite *StoreSuite) SetupTest() {
	store, err := sqlitestore.Connect(test.TmpFile(suite.T()))
	require.Nil(suite.T(), err)

	suite.store = store
	suite.ctx = context.Background()
}

func (suite *StoreSuite) TearDownTest() {
	_ = suite.store.Close()
}

func (suite *StoreSuite) createProject(name string) models.Project {
	project, err := suite.store.CreateProject(suite.ctx, models.Project{Name: name})
	require.Nil(suite.T(), err)
	return project
}

func (suite *StoreSuite) createExpense(projectID uuid.UUID, name string, amount int64) models.Expense {
	expense, err := suite.store.CreateExpense(suite.ctx, models.Expense{
		ProjectID:  projectID,
		CategoryID: uuid.New(),
		Name:       name,
		Amount:     decimal.NewFromInt(amount),
		Date:       time.Now(),
	})
	require.Nil(suite.T(), err)
	return expense
}

func (suite *StoreSuite) TestProjectRoundTrip() {
	created := suite.createProject("  Casa compartida  ")
	assert.Equal(suite.T(), "Casa compartida", created.Name, "names are trimmed on save")
	assert.NotEqual(suite.T(), uuid.Nil, created.ID)

	projects, err := suite.store.ListProjects(suite.ctx)
	require.Nil(suite.T(), err)
	require.Len(suite.T(), projects, 1)
}

func (suite *StoreSuite) TestDeleteProjectCascades() {
	project := suite.createProject("Viaje")
	keep := suite.createProject("Personal")

	expense := suite.createExpense(project.ID, "Hotel", 2000)
	kept := suite.createExpense(keep.ID, "Supermercado", 300)

	require.Nil(suite.T(), suite.store.DeleteProject(suite.ctx, project.ID))

	expenses, err := suite.store.ListExpenses(suite.ctx, remote.ExpenseFilters{})
	require.Nil(suite.T(), err)
	require.Len(suite.T(), expenses, 1, "the project's expenses must be deleted with it")
	assert.Equal(suite.T(), kept.ID, expenses[0].ID)
	assert.NotEqual(suite.T(), expense.ID, expenses[0].ID)
}

func (suite *StoreSuite) TestDeleteMissingProjectIsNotFound() {
	err := suite.store.DeleteProject(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, remote.ErrNotFound)
}

func (suite *StoreSuite) TestListExpensesFiltersAndOrders() {
	project := suite.createProject("Personal")
	other := suite.createProject("Casa")

	older, err := suite.store.CreateExpense(suite.ctx, models.Expense{
		ProjectID:  project.ID,
		CategoryID: uuid.New(),
		Name:       "Viejo",
		Amount:     decimal.NewFromInt(10),
		Date:       time.Now().Add(-48 * time.Hour),
	})
	require.Nil(suite.T(), err)
	newer := suite.createExpense(project.ID, "Nuevo", 20)
	suite.createExpense(other.ID, "Otro", 30)

	expenses, err := suite.store.ListExpenses(suite.ctx, remote.ExpenseFilters{ProjectID: project.ID})
	require.Nil(suite.T(), err)
	require.Len(suite.T(), expenses, 2)
	assert.Equal(suite.T(), newer.ID, expenses[0].ID, "most recent first")
	assert.Equal(suite.T(), older.ID, expenses[1].ID)
}

func (suite *StoreSuite) TestCreateExpenseValidates() {
	project := suite.createProject("Personal")

	_, err := suite.store.CreateExpense(suite.ctx, models.Expense{
		ProjectID: project.ID,
		Name:      "Sin monto",
	})
	assert.ErrorIs(suite.T(), err, models.ErrExpenseAmountNotPositive)
}

func (suite *StoreSuite) TestBudgetRoundTrip() {
	created, err := suite.store.CreateBudget(suite.ctx, models.Budget{
		CategoryID: uuid.New(),
		Total:      decimal.NewFromInt(1000),
		Period:     models.BudgetPeriodMonthly,
	})
	require.Nil(suite.T(), err)

	newTotal := decimal.NewFromInt(750)
	updated, err := suite.store.UpdateBudget(suite.ctx, created.ID, models.BudgetPatch{Total: &newTotal})
	require.Nil(suite.T(), err)
	assert.True(suite.T(), updated.Total.Equal(newTotal))

	require.Nil(suite.T(), suite.store.DeleteBudget(suite.ctx, created.ID))
	assert.ErrorIs(suite.T(), suite.store.DeleteBudget(suite.ctx, created.ID), remote.ErrNotFound)
}

func (suite *StoreSuite) TestUpdateMissingBudgetIsNotFound() {
	newTotal := decimal.NewFromInt(1)
	_, err := suite.store.UpdateBudget(suite.ctx, uuid.New(), models.BudgetPatch{Total: &newTotal})
	assert.ErrorIs(suite.T(), err, remote.ErrNotFound)
}

func (suite *StoreSuite) TestGoalRoundTrip() {
	created, err := suite.store.CreateGoal(suite.ctx, models.Goal{
		Name:         "Vacaciones",
		TargetAmount: decimal.NewFromInt(80000),
	})
	require.Nil(suite.T(), err)

	contribution := decimal.NewFromInt(5000)
	updated, err := suite.store.UpdateGoal(suite.ctx, created.ID, models.GoalPatch{CurrentAmount: &contribution})
	require.Nil(suite.T(), err)
	assert.True(suite.T(), updated.CurrentAmount.Equal(contribution))

	require.Nil(suite.T(), suite.store.DeleteGoal(suite.ctx, created.ID))

	goals, err := suite.store.ListGoals(suite.ctx)
	require.Nil(suite.T(), err)
	assert.Empty(suite.T(), goals)
}

func (suite *StoreSuite) TestUpdateGoalValidates() {
	created, err := suite.store.CreateGoal(suite.ctx, models.Goal{
		Name:         "Coche",
		TargetAmount: decimal.NewFromInt(1000),
	})
	require.Nil(suite.T(), err)

	negative := decimal.NewFromInt(-1)
	_, err = suite.store.UpdateGoal(suite.ctx, created.ID, models.GoalPatch{CurrentAmount: &negative})
	assert.ErrorIs(suite.T(), err, models.ErrGoalCurrentNegative)
}
