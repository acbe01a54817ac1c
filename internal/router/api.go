package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gastoro/backend/internal/cache"
	"github.com/gastoro/backend/internal/remote"
	"github.com/gastoro/backend/internal/scan"
)

// API bundles the collaborators the handlers work against.
type API struct {
	Reference  *cache.ReferenceCache
	Expenses   *cache.ExpenseCache
	Store      remote.Store
	Reconciler *scan.Reconciler

	// Now is swappable for tests. Leave nil for the wall clock.
	Now func() time.Time
}

func (api API) now() time.Time {
	if api.Now != nil {
		return api.Now()
	}
	return time.Now()
}

type HealthResponse struct {
	Ready bool `json:"ready"` // Whether the reference collections are populated
}

// GetHealth reports whether the caches can serve the app shell.
func (api API) GetHealth(c *gin.Context) {
	status := http.StatusOK
	ready := api.Reference.IsReady()
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, HealthResponse{Ready: ready})
}

// DeleteAll clears both caches. The app shell calls this exactly once at
// logout.
func (api API) DeleteAll(c *gin.Context) {
	api.Reference.Reset()
	api.Expenses.Reset()
	c.Status(http.StatusNoContent)
}
