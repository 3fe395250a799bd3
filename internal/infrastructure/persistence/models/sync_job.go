package models

import (
	"encoding/json"
	"time"

	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// SyncJobModel is the persistence model for the SyncJob aggregate.
// The schedule is stored as a JSON column; Enabled and NextRunAt are
// mirrored into indexed columns so the due-job sweep stays a plain
// range query.
type SyncJobModel struct {
	OwnedAggregateModel
	IntegrationID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	MappingID          uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Name               string                    `gorm:"type:varchar(100);not null"`
	Description        string                    `gorm:"type:text"`
	Direction          syncdomain.Direction      `gorm:"type:varchar(20);not null"`
	ScheduleJSON       string                    `gorm:"type:jsonb;column:schedule"`
	ConflictResolution syncdomain.ConflictPolicy `gorm:"type:varchar(20);not null"`
	BatchSize          int                       `gorm:"not null;default:100"`
	Enabled            bool                      `gorm:"not null;default:true;index:idx_sync_jobs_due,priority:1"`
	NextRunAt          *time.Time                `gorm:"index:idx_sync_jobs_due,priority:2"`
	LastRunAt          *time.Time
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob aggregate
func (m *SyncJobModel) ToDomain() *syncdomain.SyncJob {
	job := &syncdomain.SyncJob{
		IntegrationID:      m.IntegrationID,
		MappingID:          m.MappingID,
		Name:               m.Name,
		Description:        m.Description,
		Direction:          m.Direction,
		ConflictResolution: m.ConflictResolution,
		BatchSize:          m.BatchSize,
		NextRunAt:          m.NextRunAt,
		LastRunAt:          m.LastRunAt,
	}
	m.PopulateOwnedAggregateRoot(&job.OwnedAggregateRoot)

	if m.ScheduleJSON != "" {
		var s syncdomain.Schedule
		if err := json.Unmarshal([]byte(m.ScheduleJSON), &s); err == nil {
			job.Schedule = s
		}
	}
	// The Enabled column is the authoritative copy for queries; keep the
	// embedded schedule consistent with it.
	job.Schedule.Enabled = m.Enabled

	return job
}

// FromDomain populates the persistence model from a domain SyncJob aggregate
func (m *SyncJobModel) FromDomain(job *syncdomain.SyncJob) {
	m.FromDomainOwnedAggregateRoot(job.OwnedAggregateRoot)
	m.IntegrationID = job.IntegrationID
	m.MappingID = job.MappingID
	m.Name = job.Name
	m.Description = job.Description
	m.Direction = job.Direction
	m.ConflictResolution = job.ConflictResolution
	m.BatchSize = job.BatchSize
	m.Enabled = job.Schedule.Enabled
	m.NextRunAt = job.NextRunAt
	m.LastRunAt = job.LastRunAt

	if data, err := json.Marshal(job.Schedule); err == nil {
		m.ScheduleJSON = string(data)
	}
}

// SyncJobModelFromDomain builds a persistence model from a domain aggregate
func SyncJobModelFromDomain(job *syncdomain.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(job)
	return m
}
