package integration

import (
	"context"
	"strings"
	"time"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntegrationService handles integration lifecycle and query operations
type IntegrationService struct {
	repo           integration.Repository
	eventPublisher shared.EventPublisher
}

// NewIntegrationService creates a new IntegrationService
func NewIntegrationService(repo integration.Repository) *IntegrationService {
	return &IntegrationService{repo: repo}
}

// SetEventPublisher sets the publisher used for lifecycle events
func (s *IntegrationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents publishes and clears the aggregate's pending events.
// Event handling is best effort and never fails the operation.
func (s *IntegrationService) publishEvents(ctx context.Context, integ *integration.Integration) {
	if s.eventPublisher == nil {
		return
	}
	if events := integ.GetDomainEvents(); len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	integ.ClearDomainEvents()
}

// Create creates a new integration in draft status
func (s *IntegrationService) Create(ctx context.Context, ownerID uuid.UUID, req CreateIntegrationRequest) (*IntegrationResponse, error) {
	exists, err := s.repo.ExistsByName(ctx, ownerID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "An integration with this name already exists")
	}

	integ, err := integration.NewIntegration(ownerID, req.Name, req.Description, toConfig(req.Config), req.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, integ); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, integ)

	response := ToIntegrationResponse(integ)
	return &response, nil
}

// GetByID retrieves an integration scoped to its owner
func (s *IntegrationService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*IntegrationResponse, error) {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	response := ToIntegrationResponse(integ)
	return &response, nil
}

// List retrieves the owner's integrations with filtering and pagination
func (s *IntegrationService) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]IntegrationListResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	domainFilter := toDomainFilter(filter)

	items, err := s.repo.FindByOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToIntegrationListResponses(items), total, nil
}

// Search retrieves the owner's integrations matching a term over name,
// description and tags, combined with the remaining filters
func (s *IntegrationService) Search(ctx context.Context, ownerID uuid.UUID, term string, filter ListFilter) ([]IntegrationListResponse, int64, error) {
	filter.Search = strings.TrimSpace(term)
	return s.List(ctx, ownerID, filter)
}

// Update updates an integration's basic information and configuration
func (s *IntegrationService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateIntegrationRequest) (*IntegrationResponse, error) {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	name := integ.Name
	description := integ.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if name != integ.Name {
		exists, err := s.repo.ExistsByName(ctx, ownerID, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "An integration with this name already exists")
		}
	}

	if err := integ.Update(name, description); err != nil {
		return nil, err
	}
	if req.Config != nil {
		if err := integ.UpdateConfig(toConfig(*req.Config)); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, integ); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, integ)

	response := ToIntegrationResponse(integ)
	return &response, nil
}

// Activate transitions the integration to active
func (s *IntegrationService) Activate(ctx context.Context, ownerID, id uuid.UUID) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		return i.Activate(time.Now())
	})
}

// Pause suspends an active integration
func (s *IntegrationService) Pause(ctx context.Context, ownerID, id uuid.UUID) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		return i.Pause()
	})
}

// Resume reactivates a paused integration
func (s *IntegrationService) Resume(ctx context.Context, ownerID, id uuid.UUID) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		return i.Resume(time.Now())
	})
}

// Archive retires an integration permanently
func (s *IntegrationService) Archive(ctx context.Context, ownerID, id uuid.UUID) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		return i.Archive()
	})
}

// Delete removes an integration. Only draft and archived integrations
// may be deleted; anything running must be archived first.
func (s *IntegrationService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !integ.IsDeletable() {
		return shared.NewDomainError("INVALID_STATE", "Only draft or archived integrations can be deleted")
	}
	return s.repo.Delete(ctx, integ.ID)
}

// AddTag adds a tag to an integration
func (s *IntegrationService) AddTag(ctx context.Context, ownerID, id uuid.UUID, tag string) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		i.AddTag(tag)
		return nil
	})
}

// RemoveTag removes a tag from an integration
func (s *IntegrationService) RemoveTag(ctx context.Context, ownerID, id uuid.UUID, tag string) (*IntegrationResponse, error) {
	return s.transition(ctx, ownerID, id, func(i *integration.Integration) error {
		i.RemoveTag(tag)
		return nil
	})
}

// Health derives the current health assessment of an integration
func (s *IntegrationService) Health(ctx context.Context, ownerID, id uuid.UUID) (*HealthResponse, error) {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	response := ToHealthResponse(integration.ComputeHealth(integ, time.Now()))
	return &response, nil
}

// statsPeriods maps the supported stats windows to their durations
var statsPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// Stats aggregates portfolio-level statistics across the owner's
// integrations for the given period ("7d", "30d" or "90d"; empty
// defaults to "30d"). Trends compare the period against the one
// directly before it. Per-call history is not retained, so an
// integration's executions are attributed to the window of its most
// recent call.
func (s *IntegrationService) Stats(ctx context.Context, ownerID uuid.UUID, period string) (*StatsResponse, error) {
	if period == "" {
		period = "30d"
	}
	window, ok := statsPeriods[period]
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown stats period")
	}

	items, err := s.repo.FindByOwner(ctx, ownerID, integration.Filter{})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	currentStart := now.Add(-window)
	previousStart := now.Add(-2 * window)

	stats := StatsResponse{
		Period:   period,
		ByStatus: make(map[string]int64),
		ByType:   make(map[string]int64),
	}
	for idx := range items {
		i := &items[idx]
		stats.TotalIntegrations++
		if i.IsActive() {
			stats.ActiveIntegrations++
		}
		stats.TotalExecutions += i.Metrics.TotalRequests
		stats.SuccessfulExecutions += i.Metrics.SuccessfulRequests
		stats.ByStatus[string(i.Status)]++
		stats.ByType[string(i.Config.Type)]++

		last := i.Metrics.LastExecutedAt
		if last == nil {
			continue
		}
		switch {
		case last.After(currentStart):
			stats.Trends.IntegrationsExecuted++
			stats.Trends.Executions += i.Metrics.TotalRequests
		case last.After(previousStart):
			stats.Trends.PreviousIntegrationsExecuted++
			stats.Trends.PreviousExecutions += i.Metrics.TotalRequests
		}
	}
	if stats.TotalExecutions > 0 {
		stats.OverallSuccessRatio = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions)
	} else {
		stats.OverallSuccessRatio = 1
	}
	stats.Trends.ExecutionsChangePct = changePct(stats.Trends.Executions, stats.Trends.PreviousExecutions)

	return &stats, nil
}

// changePct computes the period-over-period change as a percentage
// rounded to two decimal places. A previous count of zero reports
// full growth when the current count is positive.
func changePct(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	diff := decimal.NewFromInt(current - previous)
	pct, _ := diff.Div(decimal.NewFromInt(previous)).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

// Types lists the available integration types
func (s *IntegrationService) Types() []TypeResponse {
	types := integration.AllIntegrationTypes()
	out := make([]TypeResponse, len(types))
	for i, t := range types {
		out[i] = TypeResponse{Type: string(t), DisplayName: displayName(t)}
	}
	return out
}

// Templates lists the template catalog filtered by type and category
func (s *IntegrationService) Templates(typ, category string) ([]integration.Template, error) {
	var typeFilter *integration.IntegrationType
	if typ != "" {
		t := integration.IntegrationType(typ)
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown integration type")
		}
		typeFilter = &t
	}
	return integration.Templates(typeFilter, category), nil
}

// transition loads, mutates and saves an integration in one step
func (s *IntegrationService) transition(ctx context.Context, ownerID, id uuid.UUID, mutate func(*integration.Integration) error) (*IntegrationResponse, error) {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(integ); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, integ); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, integ)

	response := ToIntegrationResponse(integ)
	return &response, nil
}

// toDomainFilter converts the API filter into the repository filter
func toDomainFilter(filter ListFilter) integration.Filter {
	out := integration.Filter{
		Tags:     filter.Tags,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Limit:    filter.PageSize,
		Offset:   (filter.Page - 1) * filter.PageSize,
	}
	if filter.Status != "" {
		status := integration.Status(filter.Status)
		out.Status = &status
	}
	if filter.Type != "" {
		typ := integration.IntegrationType(filter.Type)
		out.Type = &typ
	}
	return out
}

func displayName(t integration.IntegrationType) string {
	switch t {
	case integration.IntegrationTypeRESTAPI:
		return "REST API"
	case integration.IntegrationTypeWebhook:
		return "Webhook"
	case integration.IntegrationTypeDatabase:
		return "Database"
	case integration.IntegrationTypeFileFeed:
		return "File Feed"
	default:
		return string(t)
	}
}
