package sync

import (
	"time"

	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// ScheduleRequest describes the recurrence of a sync job in a request
type ScheduleRequest struct {
	Type            string `json:"type" binding:"required,oneof=interval cron"`
	IntervalSeconds int    `json:"interval_seconds" binding:"omitempty,min=1"`
	CronExpr        string `json:"cron_expr"`
	Enabled         bool   `json:"enabled"`
}

// CreateSyncJobRequest represents a request to create a sync job
type CreateSyncJobRequest struct {
	IntegrationID      uuid.UUID       `json:"integration_id" binding:"required"`
	MappingID          uuid.UUID       `json:"mapping_id" binding:"required"`
	Name               string          `json:"name" binding:"required,min=1,max=200"`
	Description        string          `json:"description" binding:"max=2000"`
	Direction          string          `json:"direction" binding:"required,oneof=pull push bidirectional"`
	Schedule           ScheduleRequest `json:"schedule" binding:"required"`
	ConflictResolution string          `json:"conflict_resolution" binding:"required,oneof=source_wins target_wins merge"`
	BatchSize          int             `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// SyncJobResponse represents a sync job in API responses
type SyncJobResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OwnerID            uuid.UUID           `json:"owner_id"`
	IntegrationID      uuid.UUID           `json:"integration_id"`
	MappingID          uuid.UUID           `json:"mapping_id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Direction          string              `json:"direction"`
	Schedule           syncdomain.Schedule `json:"schedule"`
	ConflictResolution string              `json:"conflict_resolution"`
	BatchSize          int                 `json:"batch_size"`
	NextRunAt          *time.Time          `json:"next_run_at,omitempty"`
	LastRunAt          *time.Time          `json:"last_run_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Version            int                 `json:"version"`
}

// UpcomingJobResponse is one entry of the upcoming-runs view
type UpcomingJobResponse struct {
	JobID           uuid.UUID `json:"job_id"`
	JobName         string    `json:"job_name"`
	IntegrationID   uuid.UUID `json:"integration_id"`
	IntegrationName string    `json:"integration_name"`
	Direction       string    `json:"direction"`
	NextRunAt       time.Time `json:"next_run_at"`
}

// RunSummary reports the outcome of one sync run. Partial failures are
// counted here, never surfaced as a whole-batch error.
type RunSummary struct {
	JobID      uuid.UUID `json:"job_id"`
	RanAt      time.Time `json:"ran_at"`
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Conflicts  int       `json:"conflicts"`
	Errors     []string  `json:"errors,omitempty"`
}

// ToSyncJobResponse converts a domain SyncJob to SyncJobResponse
func ToSyncJobResponse(j *syncdomain.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:                 j.ID,
		OwnerID:            j.OwnerID,
		IntegrationID:      j.IntegrationID,
		MappingID:          j.MappingID,
		Name:               j.Name,
		Description:        j.Description,
		Direction:          string(j.Direction),
		Schedule:           j.Schedule,
		ConflictResolution: string(j.ConflictResolution),
		BatchSize:          j.BatchSize,
		NextRunAt:          j.NextRunAt,
		LastRunAt:          j.LastRunAt,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
		Version:            j.Version,
	}
}

// ToSyncJobResponses converts domain jobs to responses
func ToSyncJobResponses(jobs []syncdomain.SyncJob) []SyncJobResponse {
	responses := make([]SyncJobResponse, len(jobs))
	for i := range jobs {
		responses[i] = ToSyncJobResponse(&jobs[i])
	}
	return responses
}

// toSchedule converts a ScheduleRequest into the domain schedule
func toSchedule(req ScheduleRequest) syncdomain.Schedule {
	return syncdomain.Schedule{
		Type:     syncdomain.ScheduleType(req.Type),
		Interval: time.Duration(req.IntervalSeconds) * time.Second,
		CronExpr: req.CronExpr,
		Enabled:  req.Enabled,
	}
}
