package router

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gastoro/backend/internal/httperror"
	"github.com/gastoro/backend/internal/scan"
)

// RegisterReceiptRoutes registers the routes for receipt scanning.
func (api API) RegisterReceiptRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/scan", func(c *gin.Context) {
		c.Header("allow", "OPTIONS, GET, POST, DELETE")
		c.Status(http.StatusNoContent)
	})
	r.GET("/scan", api.GetScan)
	r.POST("/scan", api.PostScan)
	r.DELETE("/scan", api.DeleteScan)
}

type ScanResponse struct {
	Data ScanObject `json:"data"`
}

type ScanObject struct {
	State scan.State `json:"state"`
	Draft scan.Draft `json:"draft"`
	Error string     `json:"error,omitempty"`
}

func (api API) scanObject() ScanObject {
	object := ScanObject{
		State: api.Reconciler.State(),
		Draft: api.Reconciler.Draft(),
	}
	if err := api.Reconciler.Err(); err != nil {
		object.Error = err.Error()
	}
	return object
}

// GetScan returns the state of the scan in progress, if any.
func (api API) GetScan(c *gin.Context) {
	c.JSON(http.StatusOK, ScanResponse{Data: api.scanObject()})
}

// PostScan runs a receipt image through OCR and returns the populated
// draft. The image goes in the "file" multipart field; the project
// defaults to the current selection.
func (api API) PostScan(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httperror.New(c, http.StatusBadRequest, "The request must contain a receipt image in the 'file' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httperror.Handler(c, err)
		return
	}

	projectID := uuid.Nil
	if raw := c.PostForm("projectId"); raw != "" {
		projectID, err = uuid.Parse(raw)
		if err != nil {
			httperror.InvalidUUID(c)
			return
		}
	} else if id, ok := api.scopeProject(); ok {
		projectID = id
	}
	if projectID == uuid.Nil {
		httperror.New(c, http.StatusBadRequest, "Select a project before scanning a receipt")
		return
	}

	image := scan.Image{
		URI:  c.PostForm("uri"),
		Name: header.Filename,
		MIME: header.Header.Get("Content-Type"),
		Data: data,
	}

	api.Reconciler.Scan(c.Request.Context(), projectID, scan.Draft{}, image)

	status := http.StatusOK
	if api.Reconciler.State() == scan.StateFailed {
		status = http.StatusBadGateway
	}
	c.JSON(status, ScanResponse{Data: api.scanObject()})
}

// DeleteScan cancels a scan that has not departed yet, or clears the
// result of a finished one.
func (api API) DeleteScan(c *gin.Context) {
	if api.Reconciler.State() == scan.StateScanning {
		if !api.Reconciler.Cancel() {
			httperror.New(c, http.StatusConflict, "The scan is already in flight and can no longer be cancelled")
			return
		}
	} else {
		api.Reconciler.Reset()
	}
	c.Status(http.StatusNoContent)
}
