package handler

import (
	"context"

	integrationapp "github.com/flowcreate/backend/internal/application/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntegrationHandler handles integration-related API endpoints
type IntegrationHandler struct {
	BaseHandler
	integrationService *integrationapp.IntegrationService
	executionService   *integrationapp.ExecutionService
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(
	integrationService *integrationapp.IntegrationService,
	executionService *integrationapp.ExecutionService,
) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
		executionService:   executionService,
	}
}

// RegisterRoutes registers integration routes on the given group
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integrations")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/stats", h.Stats)
	g.GET("/types", h.Types)
	g.GET("/templates", h.Templates)
	g.POST("/bulk-execute", h.BulkExecute)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/activate", h.Activate)
	g.POST("/:id/pause", h.Pause)
	g.POST("/:id/resume", h.Resume)
	g.POST("/:id/archive", h.Archive)
	g.POST("/:id/tags", h.AddTag)
	g.DELETE("/:id/tags/:tag", h.RemoveTag)
	g.GET("/:id/health", h.Health)
	g.GET("/:id/validate", h.Validate)
	g.POST("/:id/execute", h.Execute)
	g.POST("/:id/test", h.TestConnection)
}

// Create registers a new integration in draft state
func (h *IntegrationHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var req integrationapp.CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.integrationService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns one integration with full config and metrics
func (h *IntegrationHandler) GetByID(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := h.integrationService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns a filtered, paginated page of integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var filter integrationapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	items, total, err := h.integrationService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Search performs a free-text search over name, description and tags
func (h *IntegrationHandler) Search(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	term := c.Query("q")
	if term == "" {
		h.BadRequest(c, "Query parameter 'q' is required")
		return
	}

	var filter integrationapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	items, total, err := h.integrationService.Search(c.Request.Context(), ownerID, term, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Update applies a partial update to name, description or config
func (h *IntegrationHandler) Update(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req integrationapp.UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.integrationService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes an integration permanently
func (h *IntegrationHandler) Delete(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate transitions an integration into the active state
func (h *IntegrationHandler) Activate(c *gin.Context) {
	h.transition(c, h.integrationService.Activate)
}

// Pause transitions an active integration into the paused state
func (h *IntegrationHandler) Pause(c *gin.Context) {
	h.transition(c, h.integrationService.Pause)
}

// Resume transitions a paused integration back into the active state
func (h *IntegrationHandler) Resume(c *gin.Context) {
	h.transition(c, h.integrationService.Resume)
}

// Archive retires an integration
func (h *IntegrationHandler) Archive(c *gin.Context) {
	h.transition(c, h.integrationService.Archive)
}

// AddTagRequest represents a request to add a tag
type AddTagRequest struct {
	Tag string `json:"tag" binding:"required,min=1,max=50"`
}

// AddTag adds a tag to an integration
func (h *IntegrationHandler) AddTag(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req AddTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.integrationService.AddTag(c.Request.Context(), ownerID, id, req.Tag)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RemoveTag removes a tag from an integration
func (h *IntegrationHandler) RemoveTag(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := h.integrationService.RemoveTag(c.Request.Context(), ownerID, id, c.Param("tag"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Health reports the derived health of one integration
func (h *IntegrationHandler) Health(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := h.integrationService.Health(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Stats aggregates portfolio-level statistics for the owner over the
// requested period ("period" query, defaults to 30 days)
func (h *IntegrationHandler) Stats(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	resp, err := h.integrationService.Stats(c.Request.Context(), ownerID, c.Query("period"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Types lists the available integration types
func (h *IntegrationHandler) Types(c *gin.Context) {
	h.Success(c, h.integrationService.Types())
}

// Templates lists starter configurations, optionally filtered by type and category
func (h *IntegrationHandler) Templates(c *gin.Context) {
	templates, err := h.integrationService.Templates(c.Query("type"), c.Query("category"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, templates)
}

// Validate reports whether an integration is ready to execute
func (h *IntegrationHandler) Validate(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := h.executionService.Validate(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Execute performs one integration call, optionally transforming the response
func (h *IntegrationHandler) Execute(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req integrationapp.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.executionService.Execute(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// TestConnection performs a test call against the default endpoint.
// The outcome counts toward the integration's metrics like any other call.
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := h.executionService.TestConnection(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// BulkExecute executes several integrations with a shared payload
func (h *IntegrationHandler) BulkExecute(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var req integrationapp.BulkExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.executionService.BulkExecute(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// transition factors the shared shape of lifecycle endpoints
func (h *IntegrationHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, ownerID, id uuid.UUID) (*integrationapp.IntegrationResponse, error),
) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	resp, err := op(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}
