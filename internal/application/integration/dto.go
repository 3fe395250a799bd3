package integration

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EndpointRequest describes one endpoint in a create/update request
type EndpointRequest struct {
	Name    string            `json:"name" binding:"required,min=1,max=100"`
	URL     string            `json:"url" binding:"required,url"`
	Method  string            `json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE"`
	Headers map[string]string `json:"headers"`
}

// CredentialRequest describes the credential in a create/update request
type CredentialRequest struct {
	Type      string     `json:"type" binding:"required,oneof=api_key oauth basic"`
	SecretRef string     `json:"secret_ref" binding:"required,min=1,max=500"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// RateLimitsRequest caps the request rate in a create/update request
type RateLimitsRequest struct {
	RequestsPerMinute int `json:"requests_per_minute" binding:"required,min=1"`
	BurstSize         int `json:"burst_size" binding:"min=0"`
}

// ConfigRequest is the connector configuration in a create/update request
type ConfigRequest struct {
	Type       string             `json:"type" binding:"required,oneof=rest_api webhook database file_feed"`
	Endpoints  []EndpointRequest  `json:"endpoints" binding:"required,min=1,dive"`
	Auth       CredentialRequest  `json:"auth" binding:"required"`
	RateLimits *RateLimitsRequest `json:"rate_limits"`
}

// CreateIntegrationRequest represents a request to create a new integration
type CreateIntegrationRequest struct {
	Name        string        `json:"name" binding:"required,min=1,max=200"`
	Description string        `json:"description" binding:"max=2000"`
	Config      ConfigRequest `json:"config" binding:"required"`
	Tags        []string      `json:"tags" binding:"max=20"`
}

// UpdateIntegrationRequest represents a request to update an integration
type UpdateIntegrationRequest struct {
	Name        *string        `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string        `json:"description" binding:"omitempty,max=2000"`
	Config      *ConfigRequest `json:"config"`
}

// ListFilter represents filter options for the integration list
type ListFilter struct {
	Status   string   `form:"status" binding:"omitempty,oneof=draft active paused archived"`
	Type     string   `form:"type" binding:"omitempty,oneof=rest_api webhook database file_feed"`
	Tags     []string `form:"tags"`
	Search   string   `form:"search"`
	Page     int      `form:"page" binding:"omitempty,min=1"`
	PageSize int      `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string   `form:"order_by" binding:"omitempty,oneof=name created_at updated_at status"`
	OrderDir string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MetricsResponse represents integration metrics in API responses
type MetricsResponse struct {
	TotalRequests         int64      `json:"total_requests"`
	SuccessfulRequests    int64      `json:"successful_requests"`
	SuccessRatio          float64    `json:"success_ratio"`
	AverageResponseTimeMs float64    `json:"average_response_time_ms"`
	LastExecutedAt        *time.Time `json:"last_executed_at,omitempty"`
}

// IntegrationResponse represents an integration in API responses
type IntegrationResponse struct {
	ID          uuid.UUID          `json:"id"`
	OwnerID     uuid.UUID          `json:"owner_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Status      string             `json:"status"`
	Tags        []string           `json:"tags"`
	Config      integration.Config `json:"config"`
	Metrics     MetricsResponse    `json:"metrics"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Version     int                `json:"version"`
}

// IntegrationListResponse represents a list item for integrations
type IntegrationListResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Tags         []string   `json:"tags"`
	SuccessRatio float64    `json:"success_ratio"`
	LastExecuted *time.Time `json:"last_executed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ValidationResponse reports integration readiness in API responses
type ValidationResponse struct {
	IsValid    bool                `json:"is_valid"`
	CanExecute bool                `json:"can_execute"`
	Errors     []shared.FieldError `json:"errors,omitempty"`
}

// HealthResponse represents derived integration health in API responses
type HealthResponse struct {
	Status          string   `json:"status"`
	Score           int      `json:"score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// StatsResponse aggregates portfolio-level integration statistics
// over a period
type StatsResponse struct {
	Period               string           `json:"period"`
	TotalIntegrations    int64            `json:"total_integrations"`
	ActiveIntegrations   int64            `json:"active_integrations"`
	TotalExecutions      int64            `json:"total_executions"`
	SuccessfulExecutions int64            `json:"successful_executions"`
	OverallSuccessRatio  float64          `json:"overall_success_ratio"`
	ByStatus             map[string]int64 `json:"by_status"`
	ByType               map[string]int64 `json:"by_type"`
	Trends               TrendsResponse   `json:"trends"`
}

// TrendsResponse compares execution activity in the requested period
// against the period directly before it
type TrendsResponse struct {
	IntegrationsExecuted         int64   `json:"integrations_executed"`
	PreviousIntegrationsExecuted int64   `json:"previous_integrations_executed"`
	Executions                   int64   `json:"executions"`
	PreviousExecutions           int64   `json:"previous_executions"`
	ExecutionsChangePct          float64 `json:"executions_change_pct"`
}

// ExecuteRequest represents a request to execute an integration call
type ExecuteRequest struct {
	Endpoint  string            `json:"endpoint"`
	Payload   map[string]any    `json:"payload"`
	Headers   map[string]string `json:"headers"`
	MappingID *uuid.UUID        `json:"mapping_id"`
	Trigger   string            `json:"trigger" binding:"omitempty,oneof=manual api scheduled test"`
}

// ExecutionResponse represents the outcome of one integration call.
// DurationMs covers the transport round trip plus any response
// transformation; the two phases are also reported separately.
type ExecutionResponse struct {
	ExecutionID     uuid.UUID      `json:"execution_id"`
	Success         bool           `json:"success"`
	StatusCode      int            `json:"status_code,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
	NetworkTimeMs   int64          `json:"network_time_ms"`
	TransformTimeMs int64          `json:"transformation_time_ms"`
	Data            map[string]any `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// BulkExecuteRequest represents a request to execute several integrations
type BulkExecuteRequest struct {
	IntegrationIDs []uuid.UUID    `json:"integration_ids" binding:"required,min=1,max=50"`
	Payload        map[string]any `json:"payload"`
}

// BulkExecuteResponse summarizes a bulk execution
type BulkExecuteResponse struct {
	Successful int                           `json:"successful"`
	Failed     int                           `json:"failed"`
	Results    map[uuid.UUID]ExecutionResult `json:"results"`
}

// ExecutionResult is one entry of a bulk execution summary
type ExecutionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TypeResponse describes one available integration type
type TypeResponse struct {
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
}

// toConfig converts a ConfigRequest into the domain configuration
func toConfig(req ConfigRequest) integration.Config {
	endpoints := make([]integration.Endpoint, len(req.Endpoints))
	for i, ep := range req.Endpoints {
		endpoints[i] = integration.Endpoint{
			Name:    ep.Name,
			URL:     ep.URL,
			Method:  ep.Method,
			Headers: ep.Headers,
		}
	}
	cfg := integration.Config{
		Type:      integration.IntegrationType(req.Type),
		Endpoints: endpoints,
		Auth: integration.Credential{
			Type:      integration.CredentialType(req.Auth.Type),
			SecretRef: req.Auth.SecretRef,
			ExpiresAt: req.Auth.ExpiresAt,
		},
	}
	if req.RateLimits != nil {
		cfg.RateLimits = &integration.RateLimits{
			RequestsPerMinute: req.RateLimits.RequestsPerMinute,
			BurstSize:         req.RateLimits.BurstSize,
		}
	}
	return cfg
}

// ToIntegrationResponse converts a domain Integration to IntegrationResponse
func ToIntegrationResponse(i *integration.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:          i.ID,
		OwnerID:     i.OwnerID,
		Name:        i.Name,
		Description: i.Description,
		Type:        string(i.Config.Type),
		Status:      string(i.Status),
		Tags:        i.Tags,
		Config:      i.Config,
		Metrics: MetricsResponse{
			TotalRequests:         i.Metrics.TotalRequests,
			SuccessfulRequests:    i.Metrics.SuccessfulRequests,
			SuccessRatio:          i.Metrics.SuccessRatio(),
			AverageResponseTimeMs: i.Metrics.AverageResponseTimeMs,
			LastExecutedAt:        i.Metrics.LastExecutedAt,
		},
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		Version:   i.Version,
	}
}

// ToIntegrationListResponse converts a domain Integration to a list item
func ToIntegrationListResponse(i *integration.Integration) IntegrationListResponse {
	return IntegrationListResponse{
		ID:           i.ID,
		Name:         i.Name,
		Type:         string(i.Config.Type),
		Status:       string(i.Status),
		Tags:         i.Tags,
		SuccessRatio: i.Metrics.SuccessRatio(),
		LastExecuted: i.Metrics.LastExecutedAt,
		CreatedAt:    i.CreatedAt,
	}
}

// ToIntegrationListResponses converts a slice of integrations to list items
func ToIntegrationListResponses(items []integration.Integration) []IntegrationListResponse {
	responses := make([]IntegrationListResponse, len(items))
	for idx := range items {
		responses[idx] = ToIntegrationListResponse(&items[idx])
	}
	return responses
}

// ToHealthResponse converts a domain Health to HealthResponse
func ToHealthResponse(h integration.Health) HealthResponse {
	return HealthResponse{
		Status:          string(h.Status),
		Score:           h.Score,
		Issues:          h.Issues,
		Recommendations: h.Recommendations,
	}
}
