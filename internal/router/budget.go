package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/aggregate"
	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/models"
)

// RegisterBudgetRoutes registers the routes for budgets.
func (api API) RegisterBudgetRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGetPost)
	r.GET("", api.GetBudgets)
	r.POST("", api.CreateBudget)
	r.OPTIONS("/:id", optionsPatchDelete)
	r.PATCH("/:id", api.UpdateBudget)
	r.DELETE("/:id", api.DeleteBudget)
}

type BudgetListResponse struct {
	Data []aggregate.BudgetStatus `json:"data"`
}

type BudgetResponse struct {
	Data models.Budget `json:"data"`
}

// GetBudgets serves the cached budgets with their spent and remaining
// amounts for the current calendar month. The spent amount is derived on
// every read so it can never drift from the expense collection.
func (api API) GetBudgets(c *gin.Context) {
	force := c.Query("refresh") == "true"
	api.Reference.LoadBudgets(c.Request.Context(), force)

	expenses := api.Expenses.Expenses()
	now := api.now()

	budgets := api.Reference.Budgets()
	statuses := make([]aggregate.BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		statuses = append(statuses, aggregate.BudgetWithSpent(budget, expenses, now))
	}

	c.JSON(http.StatusOK, BudgetListResponse{Data: statuses})
}

// CreateBudget creates the budget remotely, then prepends it to the
// cache.
func (api API) CreateBudget(c *gin.Context) {
	var budget models.Budget
	if err := c.ShouldBindJSON(&budget); err != nil {
		httperror.Handler(c, err)
		return
	}

	if budget.Period == "" {
		budget.Period = models.BudgetPeriodMonthly
	}
	if budget.ProjectID == uuid.Nil {
		if id, ok := api.scopeProject(); ok {
			budget.ProjectID = id
		}
	}

	created, err := api.Reference.CreateBudget(c.Request.Context(), budget)
	if err != nil {
		httperror.Handler(c, err)
		return
	}
	c.JSON(http.StatusCreated, BudgetResponse{Data: created})
}

// UpdateBudget patches the budget remotely and merges the result.
func (api API) UpdateBudget(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	var patch models.BudgetPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperror.Handler(c, err)
		return
	}

	updated, err := api.Reference.UpdateBudget(c.Request.Context(), id, patch)
	if err != nil {
		httperror.Handler(c, err)
		return
	}
	c.JSON(http.StatusOK, BudgetResponse{Data: updated})
}

// DeleteBudget deletes the budget remotely, then locally.
func (api API) DeleteBudget(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	if err := api.Reference.DeleteBudget(c.Request.Context(), id); err != nil {
		httperror.Handler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
