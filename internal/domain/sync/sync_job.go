package sync

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Direction is the data-flow direction of a sync job
type Direction string

const (
	// DirectionPull imports records from the external system
	DirectionPull Direction = "pull"
	// DirectionPush exports records to the external system
	DirectionPush Direction = "push"
	// DirectionBidirectional syncs both ways
	DirectionBidirectional Direction = "bidirectional"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionPull, DirectionPush, DirectionBidirectional:
		return true
	default:
		return false
	}
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// DefaultBatchSize caps the per-run record batch when none is configured
const DefaultBatchSize = 100

// SyncJob is the aggregate representing one recurring synchronization
// task, layered on top of an Integration + DataMapping pair.
type SyncJob struct {
	shared.OwnedAggregateRoot
	IntegrationID      uuid.UUID
	MappingID          uuid.UUID
	Name               string
	Description        string
	Direction          Direction
	Schedule           Schedule
	ConflictResolution ConflictPolicy
	BatchSize          int
	NextRunAt          *time.Time
	LastRunAt          *time.Time
}

// NewSyncJob creates a new sync job and computes its first due time
func NewSyncJob(
	ownerID, integrationID, mappingID uuid.UUID,
	name, description string,
	direction Direction,
	schedule Schedule,
	policy ConflictPolicy,
	batchSize int,
	now time.Time,
) (*SyncJob, error) {
	verr := &shared.ValidationError{}
	if ownerID == uuid.Nil {
		verr.Add("owner_id", "owner is required")
	}
	if integrationID == uuid.Nil {
		verr.Add("integration_id", "integration reference is required")
	}
	if mappingID == uuid.Nil {
		verr.Add("mapping_id", "mapping reference is required")
	}
	if name == "" {
		verr.Add("name", "job name is required")
	}
	if !direction.IsValid() {
		verr.Add("direction", "unknown sync direction")
	}
	if !policy.IsValid() {
		verr.Add("conflict_resolution", "unknown conflict resolution policy")
	}
	if batchSize <= 0 {
		verr.Add("batch_size", "batch size must be positive")
	}
	if serr := schedule.Validate(); serr.HasErrors() {
		verr.Errors = append(verr.Errors, serr.Errors...)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	job := &SyncJob{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		IntegrationID:      integrationID,
		MappingID:          mappingID,
		Name:               name,
		Description:        description,
		Direction:          direction,
		Schedule:           schedule,
		ConflictResolution: policy,
		BatchSize:          batchSize,
	}

	next, err := schedule.NextRun(nil, now)
	if err != nil {
		return nil, err
	}
	job.NextRunAt = &next

	return job, nil
}

// Enable turns the schedule on and recomputes the next due time
func (j *SyncJob) Enable(now time.Time) error {
	j.Schedule.Enabled = true
	next, err := j.Schedule.NextRun(j.LastRunAt, now)
	if err != nil {
		return err
	}
	j.NextRunAt = &next
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	return nil
}

// Disable turns the schedule off. The job keeps its NextRunAt but is
// excluded from upcoming queries while disabled.
func (j *SyncJob) Disable() {
	j.Schedule.Enabled = false
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
}

// IsDue returns true if the job should run at the given instant
func (j *SyncJob) IsDue(now time.Time) bool {
	return j.Schedule.Enabled && j.NextRunAt != nil && !j.NextRunAt.After(now)
}

// CompleteRun advances LastRunAt and recomputes NextRunAt after a run
func (j *SyncJob) CompleteRun(ranAt time.Time) error {
	j.LastRunAt = &ranAt
	next, err := j.Schedule.NextRun(j.LastRunAt, ranAt)
	if err != nil {
		return err
	}
	j.NextRunAt = &next
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
	return nil
}
