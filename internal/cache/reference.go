// Package cache holds the locally-queryable copies of remote entities.
//
// Two caches exist: the ReferenceCache for slowly-changing reference data
// (categories, projects, budgets, goals) with per-collection freshness
// windows, and the ExpenseCache for the transactional expense collection,
// which is always reloaded in full. Reads never contend with the remote;
// writes are serialized per cache instance so the aggregation engine
// always observes an internally consistent snapshot.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gastoro/backend/internal/keyvalue"
	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
)

// Freshness windows. Projects change more often than the rest since
// collaborators create them during onboarding.
const (
	CategoryMaxAge = 5 * time.Minute
	ProjectMaxAge  = 2 * time.Minute
	BudgetMaxAge   = 5 * time.Minute
	GoalMaxAge     = 5 * time.Minute
)

const referenceStateKey = "gastoro/reference-state"

// ReferenceCache keeps an eventually-fresh local copy of the reference
// collections plus the project-scope selection.
type ReferenceCache struct {
	store       remote.Store
	persistence keyvalue.Persistence
	now         func() time.Time

	mu         sync.RWMutex
	categories []models.Category
	projects   []models.Project
	budgets    []models.Budget
	goals      []models.Goal
	scope      ProjectScope

	lastCategories time.Time
	lastProjects   time.Time
	lastBudgets    time.Time
	lastGoals      time.Time

	loadingCategories bool
	loadingProjects   bool
	loadingBudgets    bool
	loadingGoals      bool

	lastErr error
}

// referenceState is the serializable subset persisted to device storage.
// Loading flags and error state are deliberately not part of it.
type referenceState struct {
	Categories     []models.Category `json:"categories"`
	Projects       []models.Project  `json:"projects"`
	Budgets        []models.Budget   `json:"budgets"`
	Goals          []models.Goal     `json:"goals"`
	Scope          ProjectScope      `json:"scope"`
	LastCategories time.Time         `json:"lastCategories"`
	LastProjects   time.Time         `json:"lastProjects"`
	LastBudgets    time.Time         `json:"lastBudgets"`
	LastGoals      time.Time         `json:"lastGoals"`
}

// NewReference returns an empty ReferenceCache. Call Initialize to
// restore persisted state and fill it.
func NewReference(store remote.Store, persistence keyvalue.Persistence) *ReferenceCache {
	return &ReferenceCache{
		store:       store,
		persistence: persistence,
		now:         time.Now,
	}
}

// Initialize restores the persisted snapshot, then loads all reference
// collections in parallel, respecting their freshness windows. If no
// project is selected afterwards, the first known project becomes
// current.
func (c *ReferenceCache) Initialize(ctx context.Context) {
	c.restore()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { c.LoadCategories(ctx, false); return nil })
	g.Go(func() error { c.LoadProjects(ctx, false); return nil })
	g.Go(func() error { c.LoadBudgets(ctx, false); return nil })
	g.Go(func() error { c.LoadGoals(ctx, false); return nil })
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scope.Empty() && len(c.projects) > 0 {
		c.scope = ScopeProject(c.projects[0].ID)
		log.Info().Str("project", c.projects[0].Name).Msg("initial project selected")
		c.persistLocked()
	}
}

// fresh reports whether a collection loaded at last with size entries can
// be served without a remote call.
func (c *ReferenceCache) fresh(last time.Time, size int, maxAge time.Duration) bool {
	return size > 0 && !last.IsZero() && c.now().Sub(last) < maxAge
}

// LoadCategories fills the category collection. Within the freshness
// window this is a no-op unless force is set. A remote failure leaves the
// cached data untouched: stale-but-available beats empty.
func (c *ReferenceCache) LoadCategories(ctx context.Context, force bool) {
	c.mu.Lock()
	if !force && c.fresh(c.lastCategories, len(c.categories), CategoryMaxAge) {
		c.mu.Unlock()
		loadCount.WithLabelValues("categories", outcomeHit).Inc()
		log.Debug().Msg("using cached categories")
		return
	}
	c.loadingCategories = true
	c.lastErr = nil
	c.mu.Unlock()

	categories, err := c.store.ListCategories(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingCategories = false
	if err != nil {
		c.lastErr = err
		loadCount.WithLabelValues("categories", outcomeError).Inc()
		log.Error().Err(err).Msg("loading categories failed")
		return
	}

	c.categories = categories
	c.lastCategories = c.now()
	loadCount.WithLabelValues("categories", outcomeRefresh).Inc()
	c.persistLocked()
}

// LoadProjects fills the project collection, same contract as
// LoadCategories with a shorter window.
func (c *ReferenceCache) LoadProjects(ctx context.Context, force bool) {
	c.mu.Lock()
	if !force && c.fresh(c.lastProjects, len(c.projects), ProjectMaxAge) {
		c.mu.Unlock()
		loadCount.WithLabelValues("projects", outcomeHit).Inc()
		log.Debug().Msg("using cached projects")
		return
	}
	c.loadingProjects = true
	c.lastErr = nil
	c.mu.Unlock()

	projects, err := c.store.ListProjects(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingProjects = false
	if err != nil {
		c.lastErr = err
		loadCount.WithLabelValues("projects", outcomeError).Inc()
		log.Error().Err(err).Msg("loading projects failed")
		return
	}

	c.projects = projects
	c.lastProjects = c.now()
	loadCount.WithLabelValues("projects", outcomeRefresh).Inc()
	c.persistLocked()
}

// LoadBudgets fills the budget collection.
func (c *ReferenceCache) LoadBudgets(ctx context.Context, force bool) {
	c.mu.Lock()
	if !force && c.fresh(c.lastBudgets, len(c.budgets), BudgetMaxAge) {
		c.mu.Unlock()
		loadCount.WithLabelValues("budgets", outcomeHit).Inc()
		return
	}
	c.loadingBudgets = true
	c.lastErr = nil
	c.mu.Unlock()

	budgets, err := c.store.ListBudgets(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingBudgets = false
	if err != nil {
		c.lastErr = err
		loadCount.WithLabelValues("budgets", outcomeError).Inc()
		log.Error().Err(err).Msg("loading budgets failed")
		return
	}

	c.budgets = budgets
	c.lastBudgets = c.now()
	loadCount.WithLabelValues("budgets", outcomeRefresh).Inc()
	c.persistLocked()
}

// LoadGoals fills the goal collection.
func (c *ReferenceCache) LoadGoals(ctx context.Context, force bool) {
	c.mu.Lock()
	if !force && c.fresh(c.lastGoals, len(c.goals), GoalMaxAge) {
		c.mu.Unlock()
		loadCount.WithLabelValues("goals", outcomeHit).Inc()
		return
	}
	c.loadingGoals = true
	c.lastErr = nil
	c.mu.Unlock()

	goals, err := c.store.ListGoals(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingGoals = false
	if err != nil {
		c.lastErr = err
		loadCount.WithLabelValues("goals", outcomeError).Inc()
		log.Error().Err(err).Msg("loading goals failed")
		return
	}

	c.goals = goals
	c.lastGoals = c.now()
	loadCount.WithLabelValues("goals", outcomeRefresh).Inc()
	c.persistLocked()
}

// RefreshCategories forces a reload regardless of freshness.
func (c *ReferenceCache) RefreshCategories(ctx context.Context) {
	c.LoadCategories(ctx, true)
}

// RefreshProjects forces a reload regardless of freshness.
func (c *ReferenceCache) RefreshProjects(ctx context.Context) {
	c.LoadProjects(ctx, true)
}

// AddProject prepends a project whose remote create already succeeded.
// The caller performs the remote call first, so this never fails. If no
// project is current yet, the new one becomes current.
func (c *ReferenceCache) AddProject(project models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.projects = append([]models.Project{project}, c.projects...)
	if c.scope.Empty() {
		c.scope = ScopeProject(project.ID)
	}
	c.persistLocked()
}

// DeleteProject removes a project from the local collection. Expenses of
// the project are the remote store's cascade to clean up. If the removed
// project was current, the first remaining project is selected, or the
// selection is cleared when none remain.
func (c *ReferenceCache) DeleteProject(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.projects[:0:0]
	for _, p := range c.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.projects = kept

	if !c.scope.All && c.scope.ProjectID == id {
		if len(c.projects) > 0 {
			c.scope = ScopeProject(c.projects[0].ID)
		} else {
			c.scope = ProjectScope{}
		}
	}
	c.persistLocked()
}

// SetCurrentProject selects a single project. Because the scope is a
// tagged union, this also leaves the all-projects mode.
func (c *ReferenceCache) SetCurrentProject(project models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scope = ScopeProject(project.ID)
	log.Debug().Str("project", project.Name).Msg("current project changed")
	c.persistLocked()
}

// UseAllProjects switches to the all-projects scope.
func (c *ReferenceCache) UseAllProjects() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scope = ScopeAll()
	c.persistLocked()
}

// Scope returns the active project scope.
func (c *ReferenceCache) Scope() ProjectScope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope
}

// CurrentProject resolves the scope to a project. It reports false in
// all-projects mode, when nothing is selected, or when the selected ID is
// unknown.
func (c *ReferenceCache) CurrentProject() (models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.scope.All || c.scope.ProjectID == uuid.Nil {
		return models.Project{}, false
	}
	return c.projectByIDLocked(c.scope.ProjectID)
}

// CategoryByID looks a category up in the current in-memory collection.
func (c *ReferenceCache) CategoryByID(id uuid.UUID) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range c.categories {
		if category.ID == id {
			return category, true
		}
	}
	return models.Category{}, false
}

// ProjectByID looks a project up in the current in-memory collection.
func (c *ReferenceCache) ProjectByID(id uuid.UUID) (models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectByIDLocked(id)
}

func (c *ReferenceCache) projectByIDLocked(id uuid.UUID) (models.Project, bool) {
	for _, project := range c.projects {
		if project.ID == id {
			return project, true
		}
	}
	return models.Project{}, false
}

// Categories returns a copy of the category collection.
func (c *ReferenceCache) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.categories...)
}

// Projects returns a copy of the project collection.
func (c *ReferenceCache) Projects() []models.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Project(nil), c.projects...)
}

// Budgets returns a copy of the budget collection.
func (c *ReferenceCache) Budgets() []models.Budget {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Budget(nil), c.budgets...)
}

// Goals returns a copy of the goal collection.
func (c *ReferenceCache) Goals() []models.Goal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Goal(nil), c.goals...)
}

// CreateBudget creates the budget remotely, then prepends it locally.
// The error is returned so the initiating action can surface the failure;
// nothing is inserted locally when the remote call fails.
func (c *ReferenceCache) CreateBudget(ctx context.Context, budget models.Budget) (models.Budget, error) {
	if err := budget.Validate(); err != nil {
		return models.Budget{}, err
	}

	created, err := c.store.CreateBudget(ctx, budget)
	if err != nil {
		log.Error().Err(err).Msg("creating budget failed")
		return models.Budget{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.budgets = append([]models.Budget{created}, c.budgets...)
	c.persistLocked()
	return created, nil
}

// UpdateBudget patches the budget remotely and merges the result.
func (c *ReferenceCache) UpdateBudget(ctx context.Context, id uuid.UUID, patch models.BudgetPatch) (models.Budget, error) {
	updated, err := c.store.UpdateBudget(ctx, id, patch)
	if err != nil {
		log.Error().Err(err).Msg("updating budget failed")
		return models.Budget{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.budgets {
		if c.budgets[i].ID == id {
			c.budgets[i] = updated
			break
		}
	}
	c.persistLocked()
	return updated, nil
}

// DeleteBudget deletes the budget remotely, then locally.
func (c *ReferenceCache) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteBudget(ctx, id); err != nil {
		log.Error().Err(err).Msg("deleting budget failed")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.budgets[:0:0]
	for _, b := range c.budgets {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	c.budgets = kept
	c.persistLocked()
	return nil
}

// CreateGoal creates the goal remotely, then prepends it locally.
func (c *ReferenceCache) CreateGoal(ctx context.Context, goal models.Goal) (models.Goal, error) {
	if err := goal.Validate(); err != nil {
		return models.Goal{}, err
	}

	created, err := c.store.CreateGoal(ctx, goal)
	if err != nil {
		log.Error().Err(err).Msg("creating goal failed")
		return models.Goal{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.goals = append([]models.Goal{created}, c.goals...)
	c.persistLocked()
	return created, nil
}

// UpdateGoal patches the goal remotely and merges the result.
func (c *ReferenceCache) UpdateGoal(ctx context.Context, id uuid.UUID, patch models.GoalPatch) (models.Goal, error) {
	updated, err := c.store.UpdateGoal(ctx, id, patch)
	if err != nil {
		log.Error().Err(err).Msg("updating goal failed")
		return models.Goal{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.goals {
		if c.goals[i].ID == id {
			c.goals[i] = updated
			break
		}
	}
	c.persistLocked()
	return updated, nil
}

// DeleteGoal deletes the goal remotely, then locally.
func (c *ReferenceCache) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteGoal(ctx, id); err != nil {
		log.Error().Err(err).Msg("deleting goal failed")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.goals[:0:0]
	for _, g := range c.goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	c.goals = kept
	c.persistLocked()
	return nil
}

// IsReady reports whether both primary reference collections are
// populated.
func (c *ReferenceCache) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.categories) > 0 && len(c.projects) > 0
}

// LastError returns the error recorded by the most recent failed load,
// or nil.
func (c *ReferenceCache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Loading reports whether any collection load is in flight.
func (c *ReferenceCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadingCategories || c.loadingProjects || c.loadingBudgets || c.loadingGoals
}

// Reset clears all collections, timestamps and the scope. Used exactly
// once at logout.
func (c *ReferenceCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.categories = nil
	c.projects = nil
	c.budgets = nil
	c.goals = nil
	c.scope = ProjectScope{}
	c.lastCategories = time.Time{}
	c.lastProjects = time.Time{}
	c.lastBudgets = time.Time{}
	c.lastGoals = time.Time{}
	c.lastErr = nil
	c.persistLocked()
}

// persistLocked writes the serializable subset to device storage. Must be
// called with the write lock held. Persistence failures are logged, never
// propagated: the in-memory cache stays authoritative.
func (c *ReferenceCache) persistLocked() {
	if c.persistence == nil {
		return
	}

	state := referenceState{
		Categories:     c.categories,
		Projects:       c.projects,
		Budgets:        c.budgets,
		Goals:          c.goals,
		Scope:          c.scope,
		LastCategories: c.lastCategories,
		LastProjects:   c.lastProjects,
		LastBudgets:    c.lastBudgets,
		LastGoals:      c.lastGoals,
	}

	value, err := json.Marshal(state)
	if err != nil {
		log.Error().Err(err).Msg("marshaling reference state failed")
		return
	}
	if err := c.persistence.Save(referenceStateKey, value); err != nil {
		log.Error().Err(err).Msg("persisting reference state failed")
	}
}

// restore loads the persisted snapshot, if any.
func (c *ReferenceCache) restore() {
	if c.persistence == nil {
		return
	}

	value, err := c.persistence.Load(referenceStateKey)
	if err != nil {
		log.Error().Err(err).Msg("restoring reference state failed")
		return
	}
	if value == nil {
		return
	}

	var state referenceState
	if err := json.Unmarshal(value, &state); err != nil {
		log.Error().Err(err).Msg("unmarshaling reference state failed")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = state.Categories
	c.projects = state.Projects
	c.budgets = state.Budgets
	c.goals = state.Goals
	c.scope = state.Scope
	c.lastCategories = state.LastCategories
	c.lastProjects = state.LastProjects
	c.lastBudgets = state.LastBudgets
	c.lastGoals = state.LastGoals
}
