package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/flowcreate/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncJobRepository implements sync.Repository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// FindByID finds a job by its ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds a job by ID scoped to its owner
func (r *GormSyncJobRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*syncdomain.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists all jobs for an owner
func (r *GormSyncJobRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]syncdomain.SyncJob, error) {
	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// FindUpcoming lists enabled jobs due before the horizon, soonest first
func (r *GormSyncJobRepository) FindUpcoming(ctx context.Context, ownerID uuid.UUID, before time.Time) ([]syncdomain.SyncJob, error) {
	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", ownerID, true, before).
		Order("next_run_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// FindDue lists enabled jobs across all owners due at the given instant
func (r *GormSyncJobRepository) FindDue(ctx context.Context, now time.Time) ([]syncdomain.SyncJob, error) {
	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(jobModels), nil
}

// ExistsEnabledByMapping reports whether any enabled job references the mapping
func (r *GormSyncJobRepository) ExistsEnabledByMapping(ctx context.Context, mappingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("mapping_id = ? AND enabled = ?", mappingID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a job
func (r *GormSyncJobRepository) Save(ctx context.Context, job *syncdomain.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a job
func (r *GormSyncJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SyncJobModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainJobs(jobModels []models.SyncJobModel) []syncdomain.SyncJob {
	jobs := make([]syncdomain.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs
}

// Ensure GormSyncJobRepository implements sync.Repository
var _ syncdomain.Repository = (*GormSyncJobRepository)(nil)
