package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	integrationapp "github.com/flowcreate/backend/internal/application/integration"
	domainintegration "github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/flowcreate/backend/internal/interfaces/http/dto"
	"github.com/flowcreate/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIntegrationRepository is a mock implementation of integration.Repository
type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domainintegration.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domainintegration.Integration, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter domainintegration.Filter) ([]domainintegration.Integration, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, filter domainintegration.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIntegrationRepository) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, ownerID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntegrationRepository) Save(ctx context.Context, integ *domainintegration.Integration) error {
	args := m.Called(ctx, integ)
	return args.Error(0)
}

func (m *MockIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// testOwnerHeader carries the owner identity from test requests into
// stubAuth. Handlers never read it.
const testOwnerHeader = "X-Test-Owner"

// stubAuth stands in for the JWT middleware in handler tests: it sets
// the same context key the real middleware sets after verifying a token.
func stubAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(testOwnerHeader); id != "" {
			c.Set(middleware.JWTOwnerIDKey, id)
		}
		c.Next()
	}
}

func newIntegrationRouter(repo *MockIntegrationRepository) *gin.Engine {
	service := integrationapp.NewIntegrationService(repo)
	h := NewIntegrationHandler(service, nil)

	router := gin.New()
	router.Use(stubAuth())
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func newHandlerTestIntegration(ownerID uuid.UUID, name string) *domainintegration.Integration {
	integ, err := domainintegration.NewIntegration(ownerID, name, "", domainintegration.Config{
		Type: domainintegration.IntegrationTypeRESTAPI,
		Endpoints: []domainintegration.Endpoint{
			{Name: "default", URL: "https://api.example.com/v1/contacts", Method: "GET"},
		},
		Auth: domainintegration.Credential{
			Type:      domainintegration.CredentialTypeAPIKey,
			SecretRef: "env://CRM_API_KEY",
		},
	}, nil)
	if err != nil {
		panic(err)
	}
	return integ
}

func doJSON(router *gin.Engine, method, path string, ownerID uuid.UUID, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if ownerID != uuid.Nil {
		req.Header.Set(testOwnerHeader, ownerID.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validCreateRequest(name string) map[string]any {
	return map[string]any{
		"name": name,
		"config": map[string]any{
			"type": "rest_api",
			"endpoints": []map[string]any{
				{"name": "default", "url": "https://api.example.com/v1/contacts", "method": "GET"},
			},
			"auth": map[string]any{"type": "api_key", "secret_ref": "env://CRM_API_KEY"},
		},
	}
}

func TestIntegrationHandler_Create(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates integration", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		repo.On("ExistsByName", mock.Anything, ownerID, "CRM Sync").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*integration.Integration")).Return(nil)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "POST", "/api/v1/integrations", ownerID, validCreateRequest("CRM Sync"))

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		repo.On("ExistsByName", mock.Anything, ownerID, "CRM Sync").Return(true, nil)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "POST", "/api/v1/integrations", ownerID, validCreateRequest("CRM Sync"))

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects missing body fields", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		router := newIntegrationRouter(repo)

		w := doJSON(router, "POST", "/api/v1/integrations", ownerID, map[string]any{"name": "no config"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires owner identity", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		router := newIntegrationRouter(repo)

		w := doJSON(router, "POST", "/api/v1/integrations", uuid.Nil, validCreateRequest("CRM Sync"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects owner header without auth claims", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		router := newIntegrationRouter(repo)

		raw, err := json.Marshal(validCreateRequest("CRM Sync"))
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/api/v1/integrations", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Owner-ID", ownerID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestIntegrationHandler_GetByID(t *testing.T) {
	ownerID := uuid.New()

	t.Run("returns integration", func(t *testing.T) {
		integ := newHandlerTestIntegration(ownerID, "CRM Sync")
		repo := new(MockIntegrationRepository)
		repo.On("FindByIDForOwner", mock.Anything, ownerID, integ.ID).Return(integ, nil)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "GET", "/api/v1/integrations/"+integ.ID.String(), ownerID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "CRM Sync")
	})

	t.Run("404 when not found", func(t *testing.T) {
		id := uuid.New()
		repo := new(MockIntegrationRepository)
		repo.On("FindByIDForOwner", mock.Anything, ownerID, id).Return(nil, shared.ErrNotFound)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "GET", "/api/v1/integrations/"+id.String(), ownerID, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
	})

	t.Run("400 on malformed id", func(t *testing.T) {
		repo := new(MockIntegrationRepository)
		router := newIntegrationRouter(repo)

		w := doJSON(router, "GET", "/api/v1/integrations/not-a-uuid", ownerID, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIntegrationHandler_List(t *testing.T) {
	ownerID := uuid.New()
	integ := newHandlerTestIntegration(ownerID, "CRM Sync")

	repo := new(MockIntegrationRepository)
	repo.On("FindByOwner", mock.Anything, ownerID, mock.Anything).
		Return([]domainintegration.Integration{*integ}, nil)
	repo.On("CountByOwner", mock.Anything, ownerID, mock.Anything).Return(int64(1), nil)

	router := newIntegrationRouter(repo)
	w := doJSON(router, "GET", "/api/v1/integrations?page=1&page_size=20", ownerID, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestIntegrationHandler_Lifecycle(t *testing.T) {
	ownerID := uuid.New()

	t.Run("activates draft integration", func(t *testing.T) {
		integ := newHandlerTestIntegration(ownerID, "CRM Sync")
		repo := new(MockIntegrationRepository)
		repo.On("FindByIDForOwner", mock.Anything, ownerID, integ.ID).Return(integ, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "POST", "/api/v1/integrations/"+integ.ID.String()+"/activate", ownerID, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"active"`)
	})

	t.Run("422 when pausing a draft integration", func(t *testing.T) {
		integ := newHandlerTestIntegration(ownerID, "CRM Sync")
		repo := new(MockIntegrationRepository)
		repo.On("FindByIDForOwner", mock.Anything, ownerID, integ.ID).Return(integ, nil)

		router := newIntegrationRouter(repo)
		w := doJSON(router, "POST", "/api/v1/integrations/"+integ.ID.String()+"/pause", ownerID, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidState)
	})
}

func TestIntegrationHandler_Delete(t *testing.T) {
	ownerID := uuid.New()
	integ := newHandlerTestIntegration(ownerID, "CRM Sync")

	repo := new(MockIntegrationRepository)
	repo.On("FindByIDForOwner", mock.Anything, ownerID, integ.ID).Return(integ, nil)
	repo.On("Delete", mock.Anything, integ.ID).Return(nil)

	router := newIntegrationRouter(repo)
	w := doJSON(router, "DELETE", "/api/v1/integrations/"+integ.ID.String(), ownerID, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIntegrationHandler_Types(t *testing.T) {
	repo := new(MockIntegrationRepository)
	router := newIntegrationRouter(repo)

	w := doJSON(router, "GET", "/api/v1/integrations/types", uuid.New(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rest_api")
}
