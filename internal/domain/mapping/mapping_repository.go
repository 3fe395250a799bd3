package mapping

import (
	"context"

	"github.com/google/uuid"
)

// Filter defines filter criteria for listing data mappings
type Filter struct {
	// IntegrationID filters by referenced integration (optional)
	IntegrationID *uuid.UUID
	// Search matches against name and description (optional)
	Search string
	// Limit caps the result size
	Limit int
	// Offset skips leading results
	Offset int
}

// Repository defines the interface for data-mapping persistence
type Repository interface {
	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*DataMapping, error)

	// FindByIDForOwner finds a mapping by ID scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*DataMapping, error)

	// FindByOwner lists mappings for an owner applying the filter
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter Filter) ([]DataMapping, error)

	// FindByIntegration lists mappings referencing an integration
	FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]DataMapping, error)

	// Save creates or updates a mapping
	Save(ctx context.Context, m *DataMapping) error

	// Delete removes a mapping
	Delete(ctx context.Context, id uuid.UUID) error
}
