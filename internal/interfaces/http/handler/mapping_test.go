package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	mappingapp "github.com/flowcreate/backend/internal/application/mapping"
	domainmapping "github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/flowcreate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mappingTestEnv struct {
	mappings     *MockMappingRepository
	integrations *MockIntegrationRepository
	jobs         *MockSyncJobRepository
	router       *gin.Engine
}

func newMappingRouter() *mappingTestEnv {
	env := &mappingTestEnv{
		mappings:     new(MockMappingRepository),
		integrations: new(MockIntegrationRepository),
		jobs:         new(MockSyncJobRepository),
	}

	service := mappingapp.NewMappingService(env.mappings, env.integrations, env.jobs)
	h := NewMappingHandler(service)

	router := gin.New()
	router.Use(stubAuth())
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	env.router = router
	return env
}

func validMappingRequest(integrationID uuid.UUID) map[string]any {
	return map[string]any{
		"integration_id": integrationID.String(),
		"name":           "contact mapping",
		"source_schema": map[string]any{
			"name": "crm_contact",
			"fields": []map[string]any{
				{"name": "email", "type": "string", "required": true},
			},
		},
		"target_schema": map[string]any{
			"name": "contact",
			"fields": []map[string]any{
				{"name": "email", "type": "string", "required": true},
			},
		},
		"field_mappings": []map[string]any{
			{"source_field": "email", "target_field": "email", "kind": "direct", "required": true},
		},
	}
}

func TestMappingHandler_Create(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates mapping", func(t *testing.T) {
		env := newMappingRouter()
		integ := newHandlerTestIntegration(ownerID, "CRM Sync")
		env.integrations.On("FindByIDForOwner", mock.Anything, ownerID, integ.ID).Return(integ, nil)
		env.mappings.On("Save", mock.Anything, mock.AnythingOfType("*mapping.DataMapping")).Return(nil)

		w := doJSON(env.router, "POST", "/api/v1/mappings", ownerID, validMappingRequest(integ.ID))

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("404 when integration missing", func(t *testing.T) {
		env := newMappingRouter()
		integrationID := uuid.New()
		env.integrations.On("FindByIDForOwner", mock.Anything, ownerID, integrationID).
			Return(nil, shared.ErrNotFound)

		w := doJSON(env.router, "POST", "/api/v1/mappings", ownerID, validMappingRequest(integrationID))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects schema without fields", func(t *testing.T) {
		env := newMappingRouter()
		body := validMappingRequest(uuid.New())
		body["source_schema"] = map[string]any{"name": "empty", "fields": []map[string]any{}}

		w := doJSON(env.router, "POST", "/api/v1/mappings", ownerID, body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMappingHandler_Preview(t *testing.T) {
	ownerID := uuid.New()
	env := newMappingRouter()

	m := newHandlerTestMapping(ownerID, uuid.New())
	require.NoError(t, m.ReplaceFieldMappings([]domainmapping.FieldMapping{
		{SourceField: "email", TargetField: "email", Kind: domainmapping.KindDirect, Required: true},
	}))
	env.mappings.On("FindByIDForOwner", mock.Anything, ownerID, m.ID).Return(m, nil)

	body := map[string]any{
		"source_data": map[string]any{"email": "ada@example.com"},
	}
	w := doJSON(env.router, "POST", "/api/v1/mappings/"+m.ID.String()+"/preview", ownerID, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")
}

func TestMappingHandler_Delete(t *testing.T) {
	ownerID := uuid.New()

	t.Run("deletes unused mapping", func(t *testing.T) {
		env := newMappingRouter()
		m := newHandlerTestMapping(ownerID, uuid.New())
		env.mappings.On("FindByIDForOwner", mock.Anything, ownerID, m.ID).Return(m, nil)
		env.jobs.On("ExistsEnabledByMapping", mock.Anything, m.ID).Return(false, nil)
		env.mappings.On("Delete", mock.Anything, m.ID).Return(nil)

		w := doJSON(env.router, "DELETE", "/api/v1/mappings/"+m.ID.String(), ownerID, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("422 when an enabled job references it", func(t *testing.T) {
		env := newMappingRouter()
		m := newHandlerTestMapping(ownerID, uuid.New())
		env.mappings.On("FindByIDForOwner", mock.Anything, ownerID, m.ID).Return(m, nil)
		env.jobs.On("ExistsEnabledByMapping", mock.Anything, m.ID).Return(true, nil)

		w := doJSON(env.router, "DELETE", "/api/v1/mappings/"+m.ID.String(), ownerID, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidState)
	})
}
