package handler

import (
	"strconv"

	syncapp "github.com/flowcreate/backend/internal/application/sync"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncJobHandler handles sync-job API endpoints
type SyncJobHandler struct {
	BaseHandler
	syncJobService *syncapp.SyncJobService
}

// NewSyncJobHandler creates a new SyncJobHandler
func NewSyncJobHandler(syncJobService *syncapp.SyncJobService) *SyncJobHandler {
	return &SyncJobHandler{
		syncJobService: syncJobService,
	}
}

// RegisterRoutes registers sync-job routes on the given group
func (h *SyncJobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/sync-jobs")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/upcoming", h.Upcoming)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/enable", h.Enable)
	g.POST("/:id/disable", h.Disable)
	g.POST("/:id/run", h.RunNow)
	g.DELETE("/:id", h.Delete)
}

// Create registers a new scheduled sync job
func (h *SyncJobHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	var req syncapp.CreateSyncJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.syncJobService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID returns one sync job
func (h *SyncJobHandler) GetByID(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync job ID")
		return
	}

	resp, err := h.syncJobService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// List returns all sync jobs for the owner
func (h *SyncJobHandler) List(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	items, err := h.syncJobService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// Upcoming returns enabled jobs due within the requested horizon
func (h *SyncJobHandler) Upcoming(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 24*30 {
			h.BadRequest(c, "Query parameter 'hours' must be between 1 and 720")
			return
		}
		hours = parsed
	}

	items, err := h.syncJobService.GetUpcoming(c.Request.Context(), ownerID, hours)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// Enable turns a job's schedule on and computes its next run
func (h *SyncJobHandler) Enable(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync job ID")
		return
	}

	resp, err := h.syncJobService.Enable(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Disable turns a job's schedule off
func (h *SyncJobHandler) Disable(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync job ID")
		return
	}

	resp, err := h.syncJobService.Disable(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RunNow triggers one synchronous run regardless of the schedule
func (h *SyncJobHandler) RunNow(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync job ID")
		return
	}

	summary, err := h.syncJobService.RunNow(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// Delete removes a sync job
func (h *SyncJobHandler) Delete(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Owner identity required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sync job ID")
		return
	}

	if err := h.syncJobService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
