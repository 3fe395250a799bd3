package persistence

import (
	"context"
	"testing"

	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/flowcreate/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDataMappingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.DataMappingModel{})
	require.NoError(t, err)

	return db
}

func newPersistedMapping(t *testing.T, ownerID, integrationID uuid.UUID) *mapping.DataMapping {
	t.Helper()
	source := mapping.Schema{
		Name:    "crm_contact",
		Version: "1",
		Fields: []mapping.SchemaField{
			{Name: "email", Type: mapping.FieldTypeString, Required: true},
			{Name: "name", Type: mapping.FieldTypeString},
		},
	}
	target := mapping.Schema{
		Name:    "contact",
		Version: "1",
		Fields: []mapping.SchemaField{
			{Name: "email_address", Type: mapping.FieldTypeString, Required: true},
			{Name: "full_name", Type: mapping.FieldTypeString},
		},
	}

	dm, err := mapping.NewDataMapping(ownerID, integrationID, "contact import", "", source, target)
	require.NoError(t, err)
	require.NoError(t, dm.AddFieldMapping("email", "email_address", mapping.KindDirect, nil, true))
	require.NoError(t, dm.AddFieldMapping("name", "full_name", mapping.KindFormat, map[string]any{"transform": "title"}, false))
	return dm
}

func TestGormDataMappingRepository_SaveAndFind(t *testing.T) {
	db := setupDataMappingTestDB(t)
	repo := NewGormDataMappingRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	integrationID := uuid.New()
	dm := newPersistedMapping(t, ownerID, integrationID)

	require.NoError(t, repo.Save(ctx, dm))

	t.Run("round-trips schemas and rules", func(t *testing.T) {
		found, err := repo.FindByID(ctx, dm.ID)
		require.NoError(t, err)

		assert.Equal(t, dm.ID, found.ID)
		assert.Equal(t, ownerID, found.OwnerID)
		assert.Equal(t, integrationID, found.IntegrationID)
		assert.Equal(t, "crm_contact", found.SourceSchema.Name)
		require.Len(t, found.TargetSchema.Fields, 2)
		require.Len(t, found.FieldMappings, 2)
		assert.Equal(t, mapping.KindFormat, found.FieldMappings[1].Kind)
		assert.Equal(t, "title", found.FieldMappings[1].Config["transform"])
		assert.True(t, found.FieldMappings[0].Required)
	})

	t.Run("scopes lookup to owner", func(t *testing.T) {
		_, err := repo.FindByIDForOwner(ctx, uuid.New(), dm.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := repo.FindByIDForOwner(ctx, ownerID, dm.ID)
		require.NoError(t, err)
		assert.Equal(t, dm.ID, found.ID)
	})
}

func TestGormDataMappingRepository_FindByIntegration(t *testing.T) {
	db := setupDataMappingTestDB(t)
	repo := NewGormDataMappingRepository(db)
	ctx := context.Background()

	integrationID := uuid.New()
	first := newPersistedMapping(t, uuid.New(), integrationID)
	require.NoError(t, repo.Save(ctx, first))

	unrelated := newPersistedMapping(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Save(ctx, unrelated))

	mappings, err := repo.FindByIntegration(ctx, integrationID)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, first.ID, mappings[0].ID)
}

func TestGormDataMappingRepository_FindByOwner(t *testing.T) {
	db := setupDataMappingTestDB(t)
	repo := NewGormDataMappingRepository(db)
	ctx := context.Background()

	ownerID := uuid.New()
	integrationID := uuid.New()
	dm := newPersistedMapping(t, ownerID, integrationID)
	require.NoError(t, repo.Save(ctx, dm))

	other := newPersistedMapping(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Save(ctx, other))

	t.Run("lists only the owner's mappings", func(t *testing.T) {
		mappings, err := repo.FindByOwner(ctx, ownerID, mapping.Filter{})
		require.NoError(t, err)
		require.Len(t, mappings, 1)
		assert.Equal(t, dm.ID, mappings[0].ID)
	})

	t.Run("filters by integration", func(t *testing.T) {
		otherIntegration := uuid.New()
		mappings, err := repo.FindByOwner(ctx, ownerID, mapping.Filter{IntegrationID: &otherIntegration})
		require.NoError(t, err)
		assert.Empty(t, mappings)

		mappings, err = repo.FindByOwner(ctx, ownerID, mapping.Filter{IntegrationID: &integrationID})
		require.NoError(t, err)
		assert.Len(t, mappings, 1)
	})
}

func TestGormDataMappingRepository_Delete(t *testing.T) {
	db := setupDataMappingTestDB(t)
	repo := NewGormDataMappingRepository(db)
	ctx := context.Background()

	dm := newPersistedMapping(t, uuid.New(), uuid.New())
	require.NoError(t, repo.Save(ctx, dm))

	require.NoError(t, repo.Delete(ctx, dm.ID))

	_, err := repo.FindByID(ctx, dm.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, dm.ID), shared.ErrNotFound)
}
