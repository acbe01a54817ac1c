package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/aggregate"
	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/models"
)

// RegisterGoalRoutes registers the routes for savings goals.
func (api API) RegisterGoalRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGetPost)
	r.GET("", api.GetGoals)
	r.POST("", api.CreateGoal)
	r.OPTIONS("/:id", optionsPatchDelete)
	r.PATCH("/:id", api.UpdateGoal)
	r.DELETE("/:id", api.DeleteGoal)
}

type GoalListResponse struct {
	Data []aggregate.GoalStatus `json:"data"`
}

type GoalResponse struct {
	Data models.Goal `json:"data"`
}

// GetGoals serves the cached goals with their derived progress.
func (api API) GetGoals(c *gin.Context) {
	force := c.Query("refresh") == "true"
	api.Reference.LoadGoals(c.Request.Context(), force)

	goals := api.Reference.Goals()
	statuses := make([]aggregate.GoalStatus, 0, len(goals))
	for _, goal := range goals {
		statuses = append(statuses, aggregate.GoalProgress(goal))
	}

	c.JSON(http.StatusOK, GoalListResponse{Data: statuses})
}

// CreateGoal creates the goal remotely, then prepends it to the cache.
func (api API) CreateGoal(c *gin.Context) {
	var goal models.Goal
	if err := c.ShouldBindJSON(&goal); err != nil {
		httperror.Handler(c, err)
		return
	}

	created, err := api.Reference.CreateGoal(c.Request.Context(), goal)
	if err != nil {
		httperror.Handler(c, err)
		return
	}
	c.JSON(http.StatusCreated, GoalResponse{Data: created})
}

// UpdateGoal patches the goal remotely and merges the result.
// Contributions are a patch that raises currentAmount.
func (api API) UpdateGoal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	var patch models.GoalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httperror.Handler(c, err)
		return
	}

	updated, err := api.Reference.UpdateGoal(c.Request.Context(), id, patch)
	if err != nil {
		httperror.Handler(c, err)
		return
	}
	c.JSON(http.StatusOK, GoalResponse{Data: updated})
}

// DeleteGoal deletes the goal remotely, then locally.
func (api API) DeleteGoal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	if err := api.Reference.DeleteGoal(c.Request.Context(), id); err != nil {
		httperror.Handler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
