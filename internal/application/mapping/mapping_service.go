package mapping

import (
	"context"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// MappingService handles data-mapping operations
type MappingService struct {
	repo            mapping.Repository
	integrationRepo integration.Reader
	syncJobRepo     syncdomain.Repository
	eventPublisher  shared.EventPublisher
}

// NewMappingService creates a new MappingService
func NewMappingService(repo mapping.Repository, integrationRepo integration.Reader, syncJobRepo syncdomain.Repository) *MappingService {
	return &MappingService{
		repo:            repo,
		integrationRepo: integrationRepo,
		syncJobRepo:     syncJobRepo,
	}
}

// SetEventPublisher sets the publisher used for mapping events
func (s *MappingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents publishes and clears the mapping's pending events
func (s *MappingService) publishEvents(ctx context.Context, m *mapping.DataMapping) {
	if s.eventPublisher == nil {
		return
	}
	if events := m.GetDomainEvents(); len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	m.ClearDomainEvents()
}

// Create creates a new data mapping for an integration the owner holds
func (s *MappingService) Create(ctx context.Context, ownerID uuid.UUID, req CreateMappingRequest) (*MappingResponse, error) {
	if _, err := s.integrationRepo.FindByIDForOwner(ctx, ownerID, req.IntegrationID); err != nil {
		return nil, err
	}

	m, err := mapping.NewDataMapping(ownerID, req.IntegrationID, req.Name, req.Description, toSchema(req.SourceSchema), toSchema(req.TargetSchema))
	if err != nil {
		return nil, err
	}
	for _, rule := range req.FieldMappings {
		if err := m.AddFieldMapping(rule.SourceField, rule.TargetField, mapping.TransformationKind(rule.Kind), rule.Config, rule.Required); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, m)

	response := ToMappingResponse(m)
	return &response, nil
}

// GetByID retrieves a mapping scoped to its owner
func (s *MappingService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*MappingResponse, error) {
	m, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	response := ToMappingResponse(m)
	return &response, nil
}

// List retrieves the owner's mappings with filtering and pagination
func (s *MappingService) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]MappingListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	items, err := s.repo.FindByOwner(ctx, ownerID, mapping.Filter{
		IntegrationID: filter.IntegrationID,
		Search:        filter.Search,
		Limit:         filter.PageSize,
		Offset:        (filter.Page - 1) * filter.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return ToMappingListResponses(items), nil
}

// UpdateRules replaces the mapping's rule list
func (s *MappingService) UpdateRules(ctx context.Context, ownerID, id uuid.UUID, req UpdateRulesRequest) (*MappingResponse, error) {
	m, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := m.ReplaceFieldMappings(toFieldMappings(req.FieldMappings)); err != nil {
		return nil, err
	}
	m.AddDomainEvent(mapping.NewMappingUpdatedEvent(m))

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, m)

	response := ToMappingResponse(m)
	return &response, nil
}

// Validate reports the mapping's validity without changing it
func (s *MappingService) Validate(ctx context.Context, ownerID, id uuid.UUID) (*ValidationResponse, error) {
	m, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	verr := m.Validate()
	return &ValidationResponse{
		IsValid: !verr.HasErrors(),
		Errors:  verr.Errors,
	}, nil
}

// Preview runs a dry-run transformation of a sample payload. Nothing is
// persisted; a preview never touches integration metrics.
func (s *MappingService) Preview(ctx context.Context, ownerID, id uuid.UUID, req PreviewRequest) (*PreviewResponse, error) {
	m, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result := mapping.Transform(m, mapping.TransformContext{
		SourceData: req.SourceData,
		OwnerID:    ownerID,
	})

	return &PreviewResponse{
		Success:      result.Success,
		MappingValid: result.MappingValid,
		Data:         result.Data,
		Statistics:   result.Statistics,
		Errors:       result.Errors,
	}, nil
}

// Delete removes a mapping unless an enabled sync job still references it
func (s *MappingService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}

	inUse, err := s.syncJobRepo.ExistsEnabledByMapping(ctx, m.ID)
	if err != nil {
		return err
	}
	if inUse {
		return shared.NewDomainError("INVALID_STATE", "Mapping is referenced by an enabled sync job")
	}

	return s.repo.Delete(ctx, m.ID)
}
