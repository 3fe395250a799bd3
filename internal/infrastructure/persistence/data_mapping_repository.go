package persistence

import (
	"context"
	"errors"

	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/flowcreate/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDataMappingRepository implements mapping.Repository using GORM
type GormDataMappingRepository struct {
	db *gorm.DB
}

// NewGormDataMappingRepository creates a new GormDataMappingRepository
func NewGormDataMappingRepository(db *gorm.DB) *GormDataMappingRepository {
	return &GormDataMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormDataMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*mapping.DataMapping, error) {
	var model models.DataMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds a mapping by ID scoped to its owner
func (r *GormDataMappingRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*mapping.DataMapping, error) {
	var model models.DataMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists mappings for an owner applying the filter
func (r *GormDataMappingRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter mapping.Filter) ([]mapping.DataMapping, error) {
	var mappingModels []models.DataMappingModel
	query := r.db.WithContext(ctx).Model(&models.DataMappingModel{}).Where("owner_id = ?", ownerID)

	if filter.IntegrationID != nil {
		query = query.Where("integration_id = ?", *filter.IntegrationID)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]mapping.DataMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// FindByIntegration lists mappings referencing an integration
func (r *GormDataMappingRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]mapping.DataMapping, error) {
	var mappingModels []models.DataMappingModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("created_at DESC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]mapping.DataMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Save creates or updates a mapping
func (r *GormDataMappingRepository) Save(ctx context.Context, m *mapping.DataMapping) error {
	model := models.DataMappingModelFromDomain(m)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a mapping
func (r *GormDataMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DataMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormDataMappingRepository implements mapping.Repository
var _ mapping.Repository = (*GormDataMappingRepository)(nil)
