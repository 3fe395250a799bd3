package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/flowcreate/backend/internal/infrastructure/persistence"
	"github.com/flowcreate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system and health API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
	scheduler interface{ IsRunning() bool }
}

// NewSystemHandler creates a new SystemHandler. The scheduler is optional
// and may be nil when the server runs without background sync.
func NewSystemHandler(db *persistence.Database, scheduler interface{ IsRunning() bool }) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
		scheduler: scheduler,
	}
}

// RegisterRoutes registers system routes on the given group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
	g := rg.Group("/system")
	g.GET("/info", h.GetSystemInfo)
	g.GET("/ping", h.Ping)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string              `json:"status"`
	Components map[string]string   `json:"components"`
	Database   *DatabaseStatistics `json:"database,omitempty"`
}

// DatabaseStatistics reports connection pool usage
type DatabaseStatistics struct {
	OpenConnections int `json:"open_connections"`
	InUse           int `json:"in_use"`
	Idle            int `json:"idle"`
}

// Health reports component-level health of the service
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:     "healthy",
		Components: map[string]string{},
	}
	status := http.StatusOK

	if err := h.db.Ping(); err != nil {
		resp.Status = "unhealthy"
		resp.Components["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["database"] = "up"
		if stats, err := h.db.Stats(); err == nil {
			resp.Database = &DatabaseStatistics{
				OpenConnections: stats.OpenConnections,
				InUse:           stats.InUse,
				Idle:            stats.Idle,
			}
		}
	}

	if h.scheduler != nil {
		if h.scheduler.IsRunning() {
			resp.Components["scheduler"] = "running"
		} else {
			resp.Components["scheduler"] = "stopped"
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}

// Ready reports whether the service can accept traffic
func (h *SystemHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.ErrCodeInternal, "Database is not reachable"))
		return
	}
	h.Success(c, gin.H{"ready": true})
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic service information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "FlowCreate Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a trivial liveness endpoint
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
