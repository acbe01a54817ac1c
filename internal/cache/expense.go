package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/gastoro/backend/internal/keyvalue"
	"github.com/gastoro/backend/internal/models"
	"github.com/gastoro/backend/internal/remote"
)

const expenseStateKey = "gastoro/expense-state"

// ExpenseCache keeps the local copy of the expense collection for the
// active project scope. Unlike the reference collections there is no
// freshness window: every load fetches the full, pre-joined collection.
type ExpenseCache struct {
	store       remote.Store
	persistence keyvalue.Persistence
	now         func() time.Time

	mu       sync.RWMutex
	expenses []models.Expense
	loading  bool
	lastErr  error

	// generation increments on every load start. A response whose
	// generation no longer matches is discarded, so a slow response for
	// a previously selected project can never overwrite the collection
	// of the project selected afterwards.
	generation uint64
}

type expenseState struct {
	Expenses []models.Expense `json:"expenses"`
}

// NewExpense returns an empty ExpenseCache.
func NewExpense(store remote.Store, persistence keyvalue.Persistence) *ExpenseCache {
	return &ExpenseCache{
		store:       store,
		persistence: persistence,
		now:         time.Now,
	}
}

// Initialize restores the persisted expense snapshot and loads the
// collection for the given scope.
func (c *ExpenseCache) Initialize(ctx context.Context, scope ProjectScope) {
	c.restore()
	c.LoadExpenses(ctx, scope)
}

// LoadExpenses replaces the collection with the remote result for the
// scope. Concurrent calls are safe: only the most recently started load
// may commit its result. A remote failure keeps the previous collection
// and records the error.
func (c *ExpenseCache) LoadExpenses(ctx context.Context, scope ProjectScope) {
	var filters remote.ExpenseFilters
	if !scope.All {
		filters.ProjectID = scope.ProjectID
	}

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.loading = true
	c.lastErr = nil
	c.mu.Unlock()

	expenses, err := c.store.ListExpenses(ctx, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		log.Debug().Msg("discarding superseded expense load")
		return
	}
	c.loading = false
	if err != nil {
		c.lastErr = err
		loadCount.WithLabelValues("expenses", outcomeError).Inc()
		log.Error().Err(err).Msg("loading expenses failed")
		return
	}

	c.expenses = expenses
	loadCount.WithLabelValues("expenses", outcomeRefresh).Inc()
	c.persistLocked()
}

// AddExpense validates and creates the expense remotely, then prepends
// the created record. Nothing is inserted locally when the remote call
// fails.
func (c *ExpenseCache) AddExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if err := expense.Validate(); err != nil {
		return models.Expense{}, err
	}

	created, err := c.store.CreateExpense(ctx, expense)
	if err != nil {
		log.Error().Err(err).Msg("creating expense failed")
		return models.Expense{}, err
	}

	c.AddExpenseLocal(created)
	return created, nil
}

// AddExpenseLocal prepends an expense that already exists remotely, for
// example one created by the receipt scanning backend.
func (c *ExpenseCache) AddExpenseLocal(expense models.Expense) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expenses = append([]models.Expense{expense}, c.expenses...)
	c.persistLocked()
}

// UpdateExpenseLocal patches an expense in the local collection only.
// The remote write is a separate concern of the caller; the next full
// load reconciles any divergence.
func (c *ExpenseCache) UpdateExpenseLocal(id uuid.UUID, patch models.ExpensePatch) (models.Expense, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.expenses {
		if c.expenses[i].ID == id {
			patch.Apply(&c.expenses[i], c.now())
			c.persistLocked()
			return c.expenses[i], true
		}
	}
	return models.Expense{}, false
}

// DeleteExpenseLocal removes an expense from the local collection only.
func (c *ExpenseCache) DeleteExpenseLocal(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.expenses {
		if c.expenses[i].ID == id {
			c.expenses = append(c.expenses[:i], c.expenses[i+1:]...)
			c.persistLocked()
			return true
		}
	}
	return false
}

// ExpenseByID looks an expense up in the local collection.
func (c *ExpenseCache) ExpenseByID(id uuid.UUID) (models.Expense, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, expense := range c.expenses {
		if expense.ID == id {
			return expense, true
		}
	}
	return models.Expense{}, false
}

// AddComment appends a comment to an expense. The comment gets its
// identity and timestamp here so the UI can render it immediately.
func (c *ExpenseCache) AddComment(expenseID, authorID uuid.UUID, text string) (models.Comment, bool) {
	comment := models.Comment{
		ID:        uuid.New(),
		ExpenseID: expenseID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.expenses {
		if c.expenses[i].ID == expenseID {
			c.expenses[i].Comments = append(c.expenses[i].Comments, comment)
			c.persistLocked()
			return comment, true
		}
	}
	return models.Comment{}, false
}

// DeleteComment removes a comment from an expense.
func (c *ExpenseCache) DeleteComment(expenseID, commentID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.expenses {
		if c.expenses[i].ID != expenseID {
			continue
		}
		for j := range c.expenses[i].Comments {
			if c.expenses[i].Comments[j].ID == commentID {
				c.expenses[i].Comments = append(c.expenses[i].Comments[:j], c.expenses[i].Comments[j+1:]...)
				c.persistLocked()
				return true
			}
		}
		return false
	}
	return false
}

// Filters narrows the cached collection. Zero-valued fields do not
// filter; set fields combine with AND.
type Filters struct {
	ProjectID  uuid.UUID
	CategoryID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Search     string
}

func (f Filters) match(expense models.Expense) bool {
	if f.ProjectID != uuid.Nil && expense.ProjectID != f.ProjectID {
		return false
	}
	if f.CategoryID != uuid.Nil && expense.CategoryID != f.CategoryID {
		return false
	}
	if !f.StartDate.IsZero() && expense.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && expense.Date.After(f.EndDate) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(expense.Name), needle) &&
			!strings.Contains(strings.ToLower(expense.Description), needle) {
			return false
		}
	}
	return true
}

// Expenses returns a copy of the full cached collection, newest first.
func (c *ExpenseCache) Expenses() []models.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Expense(nil), c.expenses...)
}

// ExpensesByFilters returns the cached expenses matching all set filter
// fields.
func (c *ExpenseCache) ExpensesByFilters(filters Filters) []models.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []models.Expense
	for _, expense := range c.expenses {
		if filters.match(expense) {
			matched = append(matched, expense)
		}
	}
	return matched
}

// TotalExpenses sums the amounts of the cached expenses matching the
// filters. The zero Filters value sums the whole collection.
func (c *ExpenseCache) TotalExpenses(filters Filters) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := decimal.Zero
	for _, expense := range c.expenses {
		if filters.match(expense) {
			total = total.Add(expense.Amount)
		}
	}
	return total
}

// CategoryTotal is the summed amount and occurrence count of the cached
// expenses of one category. Name and share resolution is the
// aggregation engine's job.
type CategoryTotal struct {
	CategoryID uuid.UUID
	Total      decimal.Decimal
	Count      int
}

// CategoryBreakdown groups the cached expenses matching the filters by
// category, sorted by descending total.
func (c *ExpenseCache) CategoryBreakdown(filters Filters) []CategoryTotal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totals := make(map[uuid.UUID]CategoryTotal)
	for _, expense := range c.expenses {
		if !filters.match(expense) {
			continue
		}
		entry := totals[expense.CategoryID]
		entry.CategoryID = expense.CategoryID
		entry.Total = entry.Total.Add(expense.Amount)
		entry.Count++
		totals[expense.CategoryID] = entry
	}

	breakdown := make([]CategoryTotal, 0, len(totals))
	for _, entry := range totals {
		breakdown = append(breakdown, entry)
	}
	slices.SortFunc(breakdown, func(a, b CategoryTotal) int {
		return b.Total.Cmp(a.Total)
	})
	return breakdown
}

// Recent returns the newest limit expenses.
func (c *ExpenseCache) Recent(limit int) []models.Expense {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if limit > len(c.expenses) {
		limit = len(c.expenses)
	}
	return append([]models.Expense(nil), c.expenses[:limit]...)
}

// Loading reports whether a load is in flight.
func (c *ExpenseCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// LastError returns the error recorded by the most recent failed load,
// or nil.
func (c *ExpenseCache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Reset clears the collection. Used exactly once at logout. The
// generation is bumped so in-flight loads cannot resurrect data.
func (c *ExpenseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.expenses = nil
	c.loading = false
	c.lastErr = nil
	c.persistLocked()
}

func (c *ExpenseCache) persistLocked() {
	if c.persistence == nil {
		return
	}

	value, err := json.Marshal(expenseState{Expenses: c.expenses})
	if err != nil {
		log.Error().Err(err).Msg("marshaling expense state failed")
		return
	}
	if err := c.persistence.Save(expenseStateKey, value); err != nil {
		log.Error().Err(err).Msg("persisting expense state failed")
	}
}

func (c *ExpenseCache) restore() {
	if c.persistence == nil {
		return
	}

	value, err := c.persistence.Load(expenseStateKey)
	if err != nil {
		log.Error().Err(err).Msg("restoring expense state failed")
		return
	}
	if value == nil {
		return
	}

	var state expenseState
	if err := json.Unmarshal(value, &state); err != nil {
		log.Error().Err(err).Msg("unmarshaling expense state failed")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.expenses = state.Expenses
}
