package handler

import (
	mappingapp "github.com/flowcreate/backend/internal/application/mapping"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MappingHandler handles data-mapping API endpoints
type MappingHandler struct {
	BaseHandler
	mappingService *mappingapp.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappingService *mappingapp.MappingService) *MappingHandler {
	return &MappingHandler{
		mappingService: mappingService,
	}
}

// RegisterRoutes registers mapping routes on the given group
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/mappings")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id/rules", h.UpdateRules)
	g.GET("/:id/validate", h.Validate)
	g.POST("/:id/preview", h.Preview)
	g.DELETE("/:id", h.Delete)
}

// Create registers a new data mapping for an integration
func (h *MappingHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var req mappingapp.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.mappingService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns one mapping with its schemas and rules
func (h *MappingHandler) GetByID(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	resp, err := h.mappingService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns mappings for the owner, optionally scoped to one integration
func (h *MappingHandler) List(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var filter mappingapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	items, err := h.mappingService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// UpdateRules replaces the full rule list of a mapping
func (h *MappingHandler) UpdateRules(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	var req mappingapp.UpdateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.mappingService.UpdateRules(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Validate checks the mapping rules against both schemas
func (h *MappingHandler) Validate(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	resp, err := h.mappingService.Validate(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Preview transforms a sample payload without persisting anything
func (h *MappingHandler) Preview(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	var req mappingapp.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.mappingService.Preview(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a mapping unless an enabled sync job still references it
func (h *MappingHandler) Delete(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid mapping ID")
		return
	}

	if err := h.mappingService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
