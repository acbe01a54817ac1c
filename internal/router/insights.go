package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastoro/backend/internal/aggregate"
	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/types"
)

// RegisterInsightRoutes registers the routes for derived figures.
func (api API) RegisterInsightRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGet)
	r.GET("", api.GetInsights)
}

type InsightsResponse struct {
	Data aggregate.Summary `json:"data"`
}

// GetInsights serves the derived overview for a period: totals, change
// against the preceding period, category breakdown, trend buckets and
// the month projection. Everything is computed from the cached
// collections, no remote call happens here.
func (api API) GetInsights(c *gin.Context) {
	period, err := types.ParsePeriod(c.Query("period"))
	if err != nil {
		httperror.New(c, http.StatusBadRequest, err.Error())
		return
	}

	summary := aggregate.Summarize(api.Expenses.Expenses(), period, api.now(), api.Reference.CategoryByID)
	c.JSON(http.StatusOK, InsightsResponse{Data: summary})
}
