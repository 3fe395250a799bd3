package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for sync-job persistence
type Repository interface {
	// FindByID finds a job by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// FindByIDForOwner finds a job by ID scoped to its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*SyncJob, error)

	// FindByOwner lists all jobs for an owner
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]SyncJob, error)

	// FindUpcoming lists enabled jobs due before the horizon, ordered by
	// NextRunAt ascending. Disabled jobs are excluded regardless of
	// their NextRunAt.
	FindUpcoming(ctx context.Context, ownerID uuid.UUID, before time.Time) ([]SyncJob, error)

	// FindDue lists enabled jobs across all owners due at the given
	// instant, for the background runner
	FindDue(ctx context.Context, now time.Time) ([]SyncJob, error)

	// ExistsEnabledByMapping reports whether any enabled job references
	// the mapping; such a mapping cannot be deleted
	ExistsEnabledByMapping(ctx context.Context, mappingID uuid.UUID) (bool, error)

	// Save creates or updates a job
	Save(ctx context.Context, job *SyncJob) error

	// Delete removes a job
	Delete(ctx context.Context, id uuid.UUID) error
}
