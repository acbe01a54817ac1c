package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/cache"
	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/models"
)

// RegisterExpenseRoutes registers the routes for expenses.
func (api API) RegisterExpenseRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGetPost)
	r.GET("", api.GetExpenses)
	r.POST("", api.CreateExpense)
	r.GET("/recent", api.GetRecentExpenses)
	r.OPTIONS("/:id", optionsPatchDelete)
	r.GET("/:id", api.GetExpense)
	r.PATCH("/:id", api.UpdateExpense)
	r.DELETE("/:id", api.DeleteExpense)
	r.POST("/:id/comments", api.CreateComment)
	r.DELETE("/:id/comments/:commentId", api.DeleteComment)
}

type ExpenseListResponse struct {
	Data []models.Expense `json:"data"`
}

type ExpenseResponse struct {
	Data models.Expense `json:"data"`
}

// GetExpenses serves the cached expenses matching the query filters.
// ?reload=true replaces the collection from the remote first.
func (api API) GetExpenses(c *gin.Context) {
	if c.Query("reload") == "true" {
		api.Expenses.LoadExpenses(c.Request.Context(), api.Reference.Scope())
	}

	var filters cache.Filters
	filters.Search = c.Query("search")

	if category := c.Query("category"); category != "" {
		id, err := uuid.Parse(category)
		if err != nil {
			httperror.InvalidUUID(c)
			return
		}
		filters.CategoryID = id
	}
	if from := c.Query("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			httperror.InvalidQueryString(c)
			return
		}
		filters.StartDate = t
	}
	if to := c.Query("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			httperror.InvalidQueryString(c)
			return
		}
		filters.EndDate = t
	}

	expenses := api.Expenses.ExpensesByFilters(filters)
	if expenses == nil {
		expenses = []models.Expense{}
	}
	c.JSON(http.StatusOK, ExpenseListResponse{Data: expenses})
}

// CreateExpense creates the expense remotely, then prepends it to the
// cache. The project defaults to the current selection.
func (api API) CreateExpense(c *gin.Context) {
	var expense models.Expense
	if err := c.ShouldBindJSON(&expense); err != nil {
		httperror.Handler(c, err)
		return
	}

	if expense.ProjectID == uuid.Nil {
		if id, ok := api.scopeProject(); ok {
			expense.ProjectID = id
		}
	}

	created, err := api.Expenses.AddExpense(c.Request.Context(), expense)
	if err != nil {
		httperror.Handler(c, err)
		return
	}
	c.JSON(http.StatusCreated, ExpenseResponse{Data: created})
}

// GetRecentExpenses serves the newest expenses, five by default.
func (api API) GetRecentExpenses(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httperror.InvalidQueryString(c)
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, ExpenseListResponse{Data: api.Expenses.Recent(limit)})
}

// GetExpense serves one cached expense.
func (api API) GetExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	expense, ok := api.Expenses.ExpenseByID(id)
	if !ok {
		httperror.New(c, http.StatusNotFound, "There is no expense for the ID you specified")
		return
	}
	c.JSON(http.StatusOK, ExpenseResponse{Data: expense})
}

// UpdateExpense patches an expense in the local collection. The remote
// copy is reconciled on the next full load.
func (api API) UpdateExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	var patch models.ExpensePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperror.Handler(c, err)
		return
	}

	expense, ok := api.Expenses.UpdateExpenseLocal(id, patch)
	if !ok {
		httperror.New(c, http.StatusNotFound, "There is no expense for the ID you specified")
		return
	}
	c.JSON(http.StatusOK, ExpenseResponse{Data: expense})
}

// DeleteExpense removes an expense from the local collection.
func (api API) DeleteExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	if !api.Expenses.DeleteExpenseLocal(id) {
		httperror.New(c, http.StatusNotFound, "There is no expense for the ID you specified")
		return
	}
	c.Status(http.StatusNoContent)
}

type CreateCommentRequest struct {
	AuthorID uuid.UUID `json:"authorId"`
	Text     string    `json:"text" binding:"required"`
}

type CommentResponse struct {
	Data models.Comment `json:"data"`
}

// CreateComment appends a comment to an expense.
func (api API) CreateComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	var request CreateCommentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httperror.Handler(c, err)
		return
	}
	if request.AuthorID == uuid.Nil {
		request.AuthorID = models.PlaceholderUserID
	}

	comment, ok := api.Expenses.AddComment(id, request.AuthorID, request.Text)
	if !ok {
		httperror.New(c, http.StatusNotFound, "There is no expense for the ID you specified")
		return
	}
	c.JSON(http.StatusCreated, CommentResponse{Data: comment})
}

// DeleteComment removes a comment from an expense.
func (api API) DeleteComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}
	commentID, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	if !api.Expenses.DeleteComment(id, commentID) {
		httperror.New(c, http.StatusNotFound, "There is no comment for the ID you specified")
		return
	}
	c.Status(http.StatusNoContent)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}
