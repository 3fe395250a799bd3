package integration

import (
	"context"

	"github.com/google/uuid"
)

// Filter defines filter criteria for listing and searching integrations
type Filter struct {
	// Status filters by lifecycle status (optional)
	Status *Status
	// Type filters by integration type (optional)
	Type *IntegrationType
	// Tags filters to integrations carrying all of these tags (optional)
	Tags []string
	// Search matches against name, description and tags (optional)
	Search string
	// OrderBy is the sort column (default created_at)
	OrderBy string
	// OrderDir is asc or desc (default desc)
	OrderDir string
	// Limit caps the result size
	Limit int
	// Offset skips leading results
	Offset int
}

// Reader defines the read side of integration persistence
type Reader interface {
	// FindByID finds an integration by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)

	// FindByIDForOwner finds an integration by ID scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Integration, error)

	// FindByOwner lists integrations for an owner applying the filter
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter Filter) ([]Integration, error)

	// CountByOwner counts integrations for an owner applying the filter
	CountByOwner(ctx context.Context, ownerID uuid.UUID, filter Filter) (int64, error)

	// ExistsByName checks if the owner already has an integration with this name
	ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error)
}

// Writer defines the write side of integration persistence
type Writer interface {
	// Save creates or updates an integration.
	// Implementations must persist the whole aggregate atomically so
	// concurrent readers never observe partially updated metrics.
	Save(ctx context.Context, integration *Integration) error

	// Delete removes an integration
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository defines the full interface for integration persistence
type Repository interface {
	Reader
	Writer
}
