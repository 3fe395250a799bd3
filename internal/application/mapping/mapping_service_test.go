package mapping

import (
	"context"
	"testing"
	"time"

	domainintegration "github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMappingRepository is a mock implementation of mapping.Repository
type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*mapping.DataMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.DataMapping), args.Error(1)
}

func (m *MockMappingRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*mapping.DataMapping, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.DataMapping), args.Error(1)
}

func (m *MockMappingRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter mapping.Filter) ([]mapping.DataMapping, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]mapping.DataMapping), args.Error(1)
}

func (m *MockMappingRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]mapping.DataMapping, error) {
	args := m.Called(ctx, integrationID)
	return args.Get(0).([]mapping.DataMapping), args.Error(1)
}

func (m *MockMappingRepository) Save(ctx context.Context, dm *mapping.DataMapping) error {
	args := m.Called(ctx, dm)
	return args.Error(0)
}

func (m *MockMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIntegrationReader is a mock implementation of integration.Reader
type MockIntegrationReader struct {
	mock.Mock
}

func (m *MockIntegrationReader) FindByID(ctx context.Context, id uuid.UUID) (*domainintegration.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationReader) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*domainintegration.Integration, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationReader) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter domainintegration.Filter) ([]domainintegration.Integration, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]domainintegration.Integration), args.Error(1)
}

func (m *MockIntegrationReader) CountByOwner(ctx context.Context, ownerID uuid.UUID, filter domainintegration.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIntegrationReader) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, ownerID, name)
	return args.Bool(0), args.Error(1)
}

// MockSyncJobRepository is a mock implementation of sync.Repository
type MockSyncJobRepository struct {
	mock.Mock
}

func (m *MockSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*syncdomain.SyncJob, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]syncdomain.SyncJob, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]syncdomain.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindUpcoming(ctx context.Context, ownerID uuid.UUID, before time.Time) ([]syncdomain.SyncJob, error) {
	args := m.Called(ctx, ownerID, before)
	return args.Get(0).([]syncdomain.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) FindDue(ctx context.Context, now time.Time) ([]syncdomain.SyncJob, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]syncdomain.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) ExistsEnabledByMapping(ctx context.Context, mappingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, mappingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncJobRepository) Save(ctx context.Context, job *syncdomain.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockSyncJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Test helper functions
func newTestOwnerID() uuid.UUID {
	return uuid.MustParse("11111111-1111-1111-1111-111111111111")
}

func createTestIntegration(ownerID uuid.UUID) *domainintegration.Integration {
	integ, _ := domainintegration.NewIntegration(ownerID, "CRM Sync", "", domainintegration.Config{
		Type: domainintegration.IntegrationTypeRESTAPI,
		Endpoints: []domainintegration.Endpoint{
			{Name: "default", URL: "https://api.example.com/v1/data", Method: "GET"},
		},
		Auth: domainintegration.Credential{Type: domainintegration.CredentialTypeAPIKey, SecretRef: "vault://keys/example"},
	}, nil)
	return integ
}

func testSchemas() (SchemaRequest, SchemaRequest) {
	source := SchemaRequest{
		Name: "crm_contact",
		Fields: []SchemaFieldRequest{
			{Name: "first_name", Type: "string", Required: true},
			{Name: "email", Type: "string", Required: true},
		},
	}
	target := SchemaRequest{
		Name: "marketing_contact",
		Fields: []SchemaFieldRequest{
			{Name: "name", Type: "string", Required: true},
			{Name: "email", Type: "string", Required: true},
		},
	}
	return source, target
}

func createTestMapping(t *testing.T, ownerID, integrationID uuid.UUID) *mapping.DataMapping {
	t.Helper()
	source := mapping.Schema{Name: "crm_contact", Fields: []mapping.SchemaField{
		{Name: "first_name", Type: mapping.FieldTypeString, Required: true},
		{Name: "email", Type: mapping.FieldTypeString, Required: true},
	}}
	target := mapping.Schema{Name: "marketing_contact", Fields: []mapping.SchemaField{
		{Name: "name", Type: mapping.FieldTypeString, Required: true},
		{Name: "email", Type: mapping.FieldTypeString, Required: true},
	}}
	m, err := mapping.NewDataMapping(ownerID, integrationID, "crm to marketing", "", source, target)
	require.NoError(t, err)
	require.NoError(t, m.AddFieldMapping("first_name", "name", mapping.KindDirect, nil, true))
	require.NoError(t, m.AddFieldMapping("email", "email", mapping.KindDirect, nil, true))
	return m
}

func TestMappingService_Create_Success(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	mockIntegrations := new(MockIntegrationReader)
	service := NewMappingService(mockRepo, mockIntegrations, new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	integ := createTestIntegration(ownerID)
	source, target := testSchemas()

	req := CreateMappingRequest{
		IntegrationID: integ.ID,
		Name:          "crm to marketing",
		SourceSchema:  source,
		TargetSchema:  target,
		FieldMappings: []FieldMappingRequest{
			{SourceField: "first_name", TargetField: "name", Kind: "direct", Required: true},
			{SourceField: "email", TargetField: "email", Kind: "direct", Required: true},
		},
	}

	mockIntegrations.On("FindByIDForOwner", ctx, ownerID, integ.ID).Return(integ, nil)
	mockRepo.On("Save", ctx, mock.AnythingOfType("*mapping.DataMapping")).Return(nil)

	result, err := service.Create(ctx, ownerID, req)

	require.NoError(t, err)
	assert.Equal(t, "crm to marketing", result.Name)
	assert.Len(t, result.FieldMappings, 2)
	assert.True(t, result.IsValid)
	mockRepo.AssertExpectations(t)
}

func TestMappingService_Create_IntegrationNotOwned(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	mockIntegrations := new(MockIntegrationReader)
	service := NewMappingService(mockRepo, mockIntegrations, new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	integrationID := uuid.New()
	source, target := testSchemas()

	mockIntegrations.On("FindByIDForOwner", ctx, ownerID, integrationID).Return(nil, shared.ErrNotFound)

	_, err := service.Create(ctx, ownerID, CreateMappingRequest{
		IntegrationID: integrationID,
		Name:          "crm to marketing",
		SourceSchema:  source,
		TargetSchema:  target,
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingService_Create_BadRule(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	mockIntegrations := new(MockIntegrationReader)
	service := NewMappingService(mockRepo, mockIntegrations, new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	integ := createTestIntegration(ownerID)
	source, target := testSchemas()

	mockIntegrations.On("FindByIDForOwner", ctx, ownerID, integ.ID).Return(integ, nil)

	_, err := service.Create(ctx, ownerID, CreateMappingRequest{
		IntegrationID: integ.ID,
		Name:          "crm to marketing",
		SourceSchema:  source,
		TargetSchema:  target,
		FieldMappings: []FieldMappingRequest{
			{SourceField: "first_name", TargetField: "nonexistent", Kind: "direct"},
		},
	})

	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingService_UpdateRules(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, new(MockIntegrationReader), new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	m := createTestMapping(t, ownerID, uuid.New())

	mockRepo.On("FindByIDForOwner", ctx, ownerID, m.ID).Return(m, nil)
	mockRepo.On("Save", ctx, m).Return(nil)

	result, err := service.UpdateRules(ctx, ownerID, m.ID, UpdateRulesRequest{
		FieldMappings: []FieldMappingRequest{
			{SourceField: "first_name", TargetField: "name", Kind: "format", Config: map[string]any{"transform": "title"}, Required: true},
			{SourceField: "email", TargetField: "email", Kind: "direct", Required: true},
		},
	})

	require.NoError(t, err)
	assert.Len(t, result.FieldMappings, 2)
	assert.Equal(t, mapping.KindFormat, result.FieldMappings[0].Kind)
	mockRepo.AssertExpectations(t)
}

func TestMappingService_Validate(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, new(MockIntegrationReader), new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	m := createTestMapping(t, ownerID, uuid.New())
	require.True(t, m.RemoveFieldMapping(m.FieldMappings[0].ID))

	mockRepo.On("FindByIDForOwner", ctx, ownerID, m.ID).Return(m, nil)

	result, err := service.Validate(ctx, ownerID, m.ID)

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
}

func TestMappingService_Preview(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	service := NewMappingService(mockRepo, new(MockIntegrationReader), new(MockSyncJobRepository))

	ctx := context.Background()
	ownerID := newTestOwnerID()
	m := createTestMapping(t, ownerID, uuid.New())

	mockRepo.On("FindByIDForOwner", ctx, ownerID, m.ID).Return(m, nil)

	result, err := service.Preview(ctx, ownerID, m.ID, PreviewRequest{
		SourceData: map[string]any{"first_name": "Ada", "email": "ada@example.com"},
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, map[string]any{"name": "Ada", "email": "ada@example.com"}, result.Data)
	assert.Equal(t, 2, result.Statistics.FieldsMapped)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMappingService_Delete_BlockedByEnabledJob(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	mockJobs := new(MockSyncJobRepository)
	service := NewMappingService(mockRepo, new(MockIntegrationReader), mockJobs)

	ctx := context.Background()
	ownerID := newTestOwnerID()
	m := createTestMapping(t, ownerID, uuid.New())

	mockRepo.On("FindByIDForOwner", ctx, ownerID, m.ID).Return(m, nil)
	mockJobs.On("ExistsEnabledByMapping", ctx, m.ID).Return(true, nil)

	err := service.Delete(ctx, ownerID, m.ID)

	assert.Error(t, err)
	var derr *shared.DomainError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestMappingService_Delete_Success(t *testing.T) {
	mockRepo := new(MockMappingRepository)
	mockJobs := new(MockSyncJobRepository)
	service := NewMappingService(mockRepo, new(MockIntegrationReader), mockJobs)

	ctx := context.Background()
	ownerID := newTestOwnerID()
	m := createTestMapping(t, ownerID, uuid.New())

	mockRepo.On("FindByIDForOwner", ctx, ownerID, m.ID).Return(m, nil)
	mockJobs.On("ExistsEnabledByMapping", ctx, m.ID).Return(false, nil)
	mockRepo.On("Delete", ctx, m.ID).Return(nil)

	err := service.Delete(ctx, ownerID, m.ID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
