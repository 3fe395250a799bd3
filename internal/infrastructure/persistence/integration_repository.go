package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/flowcreate/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntegrationRepository implements integration.Repository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds an integration by ID scoped to its owner
func (r *GormIntegrationRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND owner_id = ?", id, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists integrations for an owner applying the filter
func (r *GormIntegrationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter integration.Filter) ([]integration.Integration, error) {
	var integrationModels []models.IntegrationModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.IntegrationModel{}).Where("owner_id = ?", ownerID), filter)

	if err := query.Find(&integrationModels).Error; err != nil {
		return nil, err
	}

	integrations := make([]integration.Integration, len(integrationModels))
	for i, model := range integrationModels {
		integrations[i] = *model.ToDomain()
	}
	return integrations, nil
}

// CountByOwner counts integrations for an owner applying the filter
func (r *GormIntegrationRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, filter integration.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.IntegrationModel{}).Where("owner_id = ?", ownerID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByName checks if the owner already has an integration with this name
func (r *GormIntegrationRepository) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, i *integration.Integration) error {
	model := models.IntegrationModelFromDomain(i)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes an integration
func (r *GormIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.IntegrationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormIntegrationRepository) applyFilter(query *gorm.DB, filter integration.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	orderBy := "created_at"
	switch filter.OrderBy {
	case "name", "status", "created_at", "updated_at", "last_executed_at":
		orderBy = filter.OrderBy
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	query = query.Order(orderBy + " " + dir)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	return query
}

// applyFilterWithoutPagination applies filter criteria only
func (r *GormIntegrationRepository) applyFilterWithoutPagination(query *gorm.DB, filter integration.Filter) *gorm.DB {
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil && filter.Type.IsValid() {
		query = query.Where("type = ?", *filter.Type)
	}
	for _, tag := range filter.Tags {
		// Marshal the criteria so user input never reaches the JSON literal raw
		if criteria, err := json.Marshal([]string{tag}); err == nil {
			query = query.Where("tags::jsonb @> ?", string(criteria))
		}
	}
	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR tags::text ILIKE ?", pattern, pattern, pattern)
	}
	return query
}

// Ensure GormIntegrationRepository implements integration.Repository
var _ integration.Repository = (*GormIntegrationRepository)(nil)

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
