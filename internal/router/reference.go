package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/cache"
	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/models"
)

// RegisterCategoryRoutes registers the routes for categories.
func (api API) RegisterCategoryRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGet)
	r.GET("", api.GetCategories)
}

// RegisterProjectRoutes registers the routes for projects.
func (api API) RegisterProjectRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", optionsGetPost)
	r.GET("", api.GetProjects)
	r.POST("", api.CreateProject)
	r.OPTIONS("/:id", func(c *gin.Context) {
		c.Header("allow", "OPTIONS, DELETE")
		c.Status(http.StatusNoContent)
	})
	r.DELETE("/:id", api.DeleteProject)
	r.GET("/selection", api.GetSelection)
	r.PUT("/selection", api.PutSelection)
}

type CategoryListResponse struct {
	Data []models.Category `json:"data"`
}

// GetCategories serves the cached category collection, reloading it
// first when it is stale or ?refresh=true is set.
func (api API) GetCategories(c *gin.Context) {
	force := c.Query("refresh") == "true"
	api.Reference.LoadCategories(c.Request.Context(), force)

	c.JSON(http.StatusOK, CategoryListResponse{Data: api.Reference.Categories()})
}

type ProjectListResponse struct {
	Data []models.Project `json:"data"`
}

type ProjectResponse struct {
	Data models.Project `json:"data"`
}

// GetProjects serves the cached project collection, reloading it first
// when it is stale or ?refresh=true is set.
func (api API) GetProjects(c *gin.Context) {
	force := c.Query("refresh") == "true"
	api.Reference.LoadProjects(c.Request.Context(), force)

	c.JSON(http.StatusOK, ProjectListResponse{Data: api.Reference.Projects()})
}

// CreateProject creates the project remotely, then inserts it into the
// cache. It becomes the current project when none was selected.
func (api API) CreateProject(c *gin.Context) {
	var project models.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		httperror.Handler(c, err)
		return
	}
	if err := project.Validate(); err != nil {
		httperror.Handler(c, err)
		return
	}

	created, err := api.Store.CreateProject(c.Request.Context(), project)
	if err != nil {
		httperror.Handler(c, err)
		return
	}

	api.Reference.AddProject(created)
	c.JSON(http.StatusCreated, ProjectResponse{Data: created})
}

// DeleteProject deletes the project and its expenses remotely, then
// locally. When the deleted project was current, the selection moves on
// and the expense collection is reloaded for the new scope.
func (api API) DeleteProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperror.InvalidUUID(c)
		return
	}

	if err := api.Store.DeleteProject(c.Request.Context(), id); err != nil {
		httperror.Handler(c, err)
		return
	}

	before := api.Reference.Scope()
	api.Reference.DeleteProject(id)
	if after := api.Reference.Scope(); after != before {
		api.Expenses.LoadExpenses(c.Request.Context(), after)
	}

	c.Status(http.StatusNoContent)
}

type Selection struct {
	All       bool      `json:"all"`
	ProjectID uuid.UUID `json:"projectId"`
}

type SelectionResponse struct {
	Data Selection `json:"data"`
}

// GetSelection returns the active project scope.
func (api API) GetSelection(c *gin.Context) {
	scope := api.Reference.Scope()
	c.JSON(http.StatusOK, SelectionResponse{
		Data: Selection{All: scope.All, ProjectID: scope.ProjectID},
	})
}

// PutSelection switches the project scope and reloads the expense
// collection for it.
func (api API) PutSelection(c *gin.Context) {
	var selection Selection
	if err := c.ShouldBindJSON(&selection); err != nil {
		httperror.Handler(c, err)
		return
	}

	if selection.All {
		api.Reference.UseAllProjects()
	} else {
		project, ok := api.Reference.ProjectByID(selection.ProjectID)
		if !ok {
			httperror.New(c, http.StatusNotFound, "There is no project for the ID you specified")
			return
		}
		api.Reference.SetCurrentProject(project)
	}

	api.Expenses.LoadExpenses(c.Request.Context(), api.Reference.Scope())

	scope := api.Reference.Scope()
	c.JSON(http.StatusOK, SelectionResponse{
		Data: Selection{All: scope.All, ProjectID: scope.ProjectID},
	})
}

// scopeProject resolves the single selected project, if any.
func (api API) scopeProject() (uuid.UUID, bool) {
	scope := api.Reference.Scope()
	if scope.All || scope == (cache.ProjectScope{}) {
		return uuid.Nil, false
	}
	return scope.ProjectID, true
}
