package configs

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go_configserver/internal/configsvc"
	"go_configserver/internal/httpx"
)

// PropertyCreateRequest is the body for adding a single property
type PropertyCreateRequest struct {
	PropertyKey   string `json:"propertyKey" binding:"required"`
	PropertyValue string `json:"propertyValue" binding:"required"`
	CreatedBy     string `json:"createdBy" binding:"required"`
}

// PropertyUpdateRequest is the body for a bulk update with optimistic locking
type PropertyUpdateRequest struct {
	Properties            map[string]string `json:"properties" binding:"required"`
	ExpectedVersionNumber int               `json:"expectedVersionNumber"`
	ExpectedUpdatedAt     time.Time         `json:"expectedUpdatedAt" binding:"required"`
	UpdatedBy             string            `json:"updatedBy" binding:"required"`
}

// Handler serves the configuration management endpoints
type Handler struct {
	svc configsvc.Service
}

// NewHandler creates a configs handler backed by the given service
func NewHandler(svc configsvc.Service) *Handler {
	return &Handler{svc: svc}
}

// pairParams pulls the (domain, application) partition key from the path and
// rejects blank values.
func pairParams(c *gin.Context) (domain, app string, ok bool) {
	domain = c.Param("domain")
	app = c.Param("application")
	if domain == "" || app == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("domain and application are required"))
		return "", "", false
	}
	return domain, app, true
}

// failFromService maps service errors to the HTTP error surface.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, configsvc.ErrNotFound):
		httpx.FailErr(c, httpx.ErrNotFound(err.Error()))
	case errors.Is(err, configsvc.ErrAlreadyExists):
		httpx.FailErr(c, httpx.ErrAlreadyExists(err.Error()))
	case errors.Is(err, configsvc.ErrVersionConflict):
		httpx.FailErr(c, httpx.ErrVersionConflict(err.Error()))
	case errors.Is(err, configsvc.ErrUnsupportedFormat):
		httpx.FailErr(c, httpx.ErrUnsupportedFormat(err.Error()))
	case errors.Is(err, configsvc.ErrInvalidFormat):
		httpx.FailErr(c, httpx.ErrInvalidFormat(err.Error()))
	case errors.Is(err, configsvc.ErrEmptyConfiguration):
		httpx.FailErr(c, httpx.ErrEmptyConfiguration(err.Error()))
	default:
		httpx.FailErr(c, httpx.ErrDatabaseError("", err))
	}
}

// GetMetadata handles GET /api/v1/config/meta
func (h *Handler) GetMetadata(c *gin.Context) {
	meta, err := h.svc.GetMetadata(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, meta)
}

// GetProperties handles GET /api/v1/config/properties/:domain/:application
func (h *Handler) GetProperties(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	res, err := h.svc.GetProperties(c.Request.Context(), app, domain)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, res)
}

// GetPropertyYAML handles GET /api/v1/config/yml/:domain/:application
func (h *Handler) GetPropertyYAML(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	doc, err := h.svc.GetPropertyYAML(c.Request.Context(), app, domain)
	if err != nil {
		failFromService(c, err)
		return
	}
	c.Data(http.StatusOK, "application/x-yaml", []byte(doc))
}

// GetSyncInfo handles GET /api/v1/config/sync/:domain/:application
func (h *Handler) GetSyncInfo(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	sync, err := h.svc.GetSyncInfo(c.Request.Context(), app, domain)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, sync)
}

// AddProperty handles POST /api/v1/config/properties/:domain/:application
func (h *Handler) AddProperty(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	var req PropertyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	created, err := h.svc.AddProperty(c.Request.Context(), app, domain,
		req.PropertyKey, req.PropertyValue, req.CreatedBy)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.Created(c, created)
}

// UpdateProperties handles PUT /api/v1/config/properties/:domain/:application
func (h *Handler) UpdateProperties(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	var req PropertyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid request: "+err.Error()))
		return
	}
	if len(req.Properties) == 0 {
		httpx.FailErr(c, httpx.ErrParamMissing("properties map cannot be empty"))
		return
	}
	res, err := h.svc.UpdateProperties(c.Request.Context(), app, domain, configsvc.UpdateRequest{
		Properties:            req.Properties,
		ExpectedVersionNumber: req.ExpectedVersionNumber,
		ExpectedUpdatedAt:     req.ExpectedUpdatedAt,
		UpdatedBy:             req.UpdatedBy,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, res)
}

// DeleteProperty handles DELETE /api/v1/config/properties/:domain/:application/:propertyKey
func (h *Handler) DeleteProperty(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	key := c.Param("propertyKey")
	if key == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("propertyKey is required"))
		return
	}
	updatedBy := c.DefaultQuery("updatedBy", configsvc.OnboardActor)
	res, err := h.svc.DeleteProperty(c.Request.Context(), app, domain, key, updatedBy)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, res)
}

// Onboard handles POST /api/v1/config/onboard (multipart form)
func (h *Handler) Onboard(c *gin.Context) {
	domain := c.PostForm("domain")
	app := c.PostForm("applicationName")
	if domain == "" || app == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("domain and applicationName are required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("configuration file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("failed to open uploaded file: "+err.Error()))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid("failed to read uploaded file: "+err.Error()))
		return
	}

	res, err := h.svc.Onboard(c.Request.Context(), domain, app, content, fileHeader.Filename)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.Created(c, res)
}

// GetAuditHistory handles GET /api/v1/config/audit/:domain/:application
func (h *Handler) GetAuditHistory(c *gin.Context) {
	domain, app, ok := pairParams(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.svc.GetAuditHistory(c.Request.Context(), app, domain, limit)
	if err != nil {
		failFromService(c, err)
		return
	}
	httpx.OK(c, entries)
}
