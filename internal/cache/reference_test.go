package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/gastoro/backend/internal/keyvalue"
	"github.com/gastoro/backend/internal/models"
)

type ReferenceCacheSuite struct {
	suite.Suite

	store       *fakeStore
	persistence *keyvalue.Memory
	cache       *ReferenceCache
	clock       time.Time
}

func TestReferenceCacheSuite(t *testing.T) {
	suite.Run(t, new(ReferenceCacheSuite))
}

func (suite *ReferenceCacheSuite) SetupTest() {
	suite.store = newFakeStore()
	suite.store.categories = []models.Category{
		testCategory("Comida"),
		testCategory("Transporte"),
	}
	suite.store.projects = []models.Project{
		testProject("Personal"),
		testProject("Casa compartida"),
	}

	suite.persistence = keyvalue.NewMemory()
	suite.clock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	suite.cache = NewReference(suite.store, suite.persistence)
	suite.cache.now = func() time.Time { return suite.clock }
}

func testCategory(name string) models.Category {
	category := models.Category{Name: name, Icon: "pricetag", Color: "#FF5722"}
	category.ID = uuid.New()
	return category
}

func testProject(name string) models.Project {
	project := models.Project{Name: name}
	project.ID = uuid.New()
	return project
}

func (suite *ReferenceCacheSuite) advance(d time.Duration) {
	suite.clock = suite.clock.Add(d)
}

func (suite *ReferenceCacheSuite) TestLoadCategoriesRespectsFreshness() {
	ctx := context.Background()

	suite.cache.LoadCategories(ctx, false)
	suite.cache.LoadCategories(ctx, false)
	assert.Equal(suite.T(), 1, suite.store.callCount("ListCategories"), "fresh data must not trigger a remote call")

	suite.advance(CategoryMaxAge + time.Second)
	suite.cache.LoadCategories(ctx, false)
	assert.Equal(suite.T(), 2, suite.store.callCount("ListCategories"), "stale data must be reloaded")
}

func (suite *ReferenceCacheSuite) TestForceBypassesFreshness() {
	ctx := context.Background()

	suite.cache.LoadProjects(ctx, false)
	suite.cache.LoadProjects(ctx, true)
	assert.Equal(suite.T(), 2, suite.store.callCount("ListProjects"))
}

func (suite *ReferenceCacheSuite) TestProjectsExpireFasterThanCategories() {
	ctx := context.Background()

	suite.cache.LoadCategories(ctx, false)
	suite.cache.LoadProjects(ctx, false)

	suite.advance(ProjectMaxAge + time.Second)
	suite.cache.LoadCategories(ctx, false)
	suite.cache.LoadProjects(ctx, false)

	assert.Equal(suite.T(), 1, suite.store.callCount("ListCategories"))
	assert.Equal(suite.T(), 2, suite.store.callCount("ListProjects"))
}

func (suite *ReferenceCacheSuite) TestLoadFailureKeepsStaleData() {
	ctx := context.Background()

	suite.cache.LoadCategories(ctx, false)
	require.Len(suite.T(), suite.cache.Categories(), 2)

	suite.store.fail(errors.New("connection refused"))
	suite.cache.LoadCategories(ctx, true)

	assert.Len(suite.T(), suite.cache.Categories(), 2, "stale data must survive a failed load")
	assert.Error(suite.T(), suite.cache.LastError())
	assert.False(suite.T(), suite.cache.Loading(), "loading must be cleared after a failure")

	// A successful load clears the error again
	suite.store.fail(nil)
	suite.cache.LoadCategories(ctx, true)
	assert.Nil(suite.T(), suite.cache.LastError())
}

func (suite *ReferenceCacheSuite) TestInitializeSelectsFirstProject() {
	suite.cache.Initialize(context.Background())

	current, ok := suite.cache.CurrentProject()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "Personal", current.Name)
	assert.True(suite.T(), suite.cache.IsReady())
}

func (suite *ReferenceCacheSuite) TestScopeManagement() {
	suite.cache.Initialize(context.Background())

	// Switching to all projects drops the single selection
	suite.cache.UseAllProjects()
	assert.True(suite.T(), suite.cache.Scope().All)
	_, ok := suite.cache.CurrentProject()
	assert.False(suite.T(), ok)

	// Selecting a single project leaves all-projects mode
	second := suite.store.projects[1]
	suite.cache.SetCurrentProject(second)
	scope := suite.cache.Scope()
	assert.False(suite.T(), scope.All)
	assert.Equal(suite.T(), second.ID, scope.ProjectID)
}

func (suite *ReferenceCacheSuite) TestAddProjectBecomesCurrentWhenNoneSelected() {
	project := testProject("Viaje")
	suite.cache.AddProject(project)

	projects := suite.cache.Projects()
	require.Len(suite.T(), projects, 1)
	assert.Equal(suite.T(), project.ID, projects[0].ID)

	current, ok := suite.cache.CurrentProject()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), project.ID, current.ID)

	// A second project is prepended but does not steal the selection
	another := testProject("Oficina")
	suite.cache.AddProject(another)
	projects = suite.cache.Projects()
	require.Len(suite.T(), projects, 2)
	assert.Equal(suite.T(), another.ID, projects[0].ID, "new projects are prepended")

	current, _ = suite.cache.CurrentProject()
	assert.Equal(suite.T(), project.ID, current.ID)
}

func (suite *ReferenceCacheSuite) TestDeleteProjectReselects() {
	suite.cache.Initialize(context.Background())

	first, ok := suite.cache.CurrentProject()
	require.True(suite.T(), ok)

	suite.cache.DeleteProject(first.ID)
	current, ok := suite.cache.CurrentProject()
	require.True(suite.T(), ok, "a remaining project must be selected")
	assert.NotEqual(suite.T(), first.ID, current.ID)

	suite.cache.DeleteProject(current.ID)
	_, ok = suite.cache.CurrentProject()
	assert.False(suite.T(), ok, "no selection remains when all projects are gone")
	assert.True(suite.T(), suite.cache.Scope().Empty())
}

func (suite *ReferenceCacheSuite) TestBudgetRoundTrip() {
	ctx := context.Background()
	categoryID := uuid.New()

	created, err := suite.cache.CreateBudget(ctx, models.Budget{
		CategoryID: categoryID,
		Total:      decimal.NewFromInt(1000),
		Period:     models.BudgetPeriodMonthly,
	})
	require.Nil(suite.T(), err)
	require.Len(suite.T(), suite.cache.Budgets(), 1)

	newTotal := decimal.NewFromInt(1500)
	updated, err := suite.cache.UpdateBudget(ctx, created.ID, models.BudgetPatch{Total: &newTotal})
	require.Nil(suite.T(), err)
	assert.True(suite.T(), updated.Total.Equal(newTotal))
	assert.True(suite.T(), suite.cache.Budgets()[0].Total.Equal(newTotal))

	require.Nil(suite.T(), suite.cache.DeleteBudget(ctx, created.ID))
	assert.Empty(suite.T(), suite.cache.Budgets())
}

func (suite *ReferenceCacheSuite) TestInvalidBudgetNeverReachesRemote() {
	_, err := suite.cache.CreateBudget(context.Background(), models.Budget{
		Total:  decimal.NewFromInt(-1),
		Period: models.BudgetPeriodMonthly,
	})

	assert.ErrorIs(suite.T(), err, models.ErrBudgetTotalNegative)
	assert.Equal(suite.T(), 0, suite.store.callCount("CreateBudget"))
	assert.Empty(suite.T(), suite.cache.Budgets())
}

func (suite *ReferenceCacheSuite) TestGoalRoundTrip() {
	ctx := context.Background()

	created, err := suite.cache.CreateGoal(ctx, models.Goal{
		Name:         "Fondo de emergencia",
		TargetAmount: decimal.NewFromInt(50000),
	})
	require.Nil(suite.T(), err)
	require.Len(suite.T(), suite.cache.Goals(), 1)

	contribution := decimal.NewFromInt(20000)
	updated, err := suite.cache.UpdateGoal(ctx, created.ID, models.GoalPatch{CurrentAmount: &contribution})
	require.Nil(suite.T(), err)
	assert.True(suite.T(), updated.CurrentAmount.Equal(contribution))

	require.Nil(suite.T(), suite.cache.DeleteGoal(ctx, created.ID))
	assert.Empty(suite.T(), suite.cache.Goals())
}

func (suite *ReferenceCacheSuite) TestRemoteFailurePropagatesForMutations() {
	suite.store.fail(errors.New("gateway timeout"))

	_, err := suite.cache.CreateGoal(context.Background(), models.Goal{
		Name:         "Coche",
		TargetAmount: decimal.NewFromInt(200000),
	})

	assert.Error(suite.T(), err)
	assert.Empty(suite.T(), suite.cache.Goals(), "nothing may be inserted locally when the remote call fails")
}

func (suite *ReferenceCacheSuite) TestReset() {
	suite.cache.Initialize(context.Background())
	require.True(suite.T(), suite.cache.IsReady())

	suite.cache.Reset()

	assert.Empty(suite.T(), suite.cache.Categories())
	assert.Empty(suite.T(), suite.cache.Projects())
	assert.True(suite.T(), suite.cache.Scope().Empty())
	assert.False(suite.T(), suite.cache.IsReady())

	// The next load hits the remote again
	suite.cache.LoadCategories(context.Background(), false)
	assert.Equal(suite.T(), 2, suite.store.callCount("ListCategories"))
}

func (suite *ReferenceCacheSuite) TestPersistedStateSurvivesRestart() {
	suite.cache.Initialize(context.Background())
	second := suite.store.projects[1]
	suite.cache.SetCurrentProject(second)

	listCalls := suite.store.callCount("ListCategories")

	// A new cache over the same persistence restores collections,
	// timestamps and scope. Fresh restored data needs no remote call.
	restarted := NewReference(suite.store, suite.persistence)
	restarted.now = func() time.Time { return suite.clock }
	restarted.Initialize(context.Background())

	assert.Equal(suite.T(), listCalls, suite.store.callCount("ListCategories"))
	assert.Len(suite.T(), restarted.Categories(), 2)

	current, ok := restarted.CurrentProject()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), second.ID, current.ID)
}

func (suite *ReferenceCacheSuite) TestCategoryByID() {
	suite.cache.LoadCategories(context.Background(), false)

	want := suite.store.categories[0]
	got, ok := suite.cache.CategoryByID(want.ID)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), want.Name, got.Name)

	_, ok = suite.cache.CategoryByID(uuid.New())
	assert.False(suite.T(), ok)
}
