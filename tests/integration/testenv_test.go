// Package integration contains end-to-end API tests that run the full
// HTTP stack against an in-memory database.
package integration

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	integrationapp "github.com/flowcreate/backend/internal/application/integration"
	mappingapp "github.com/flowcreate/backend/internal/application/mapping"
	syncapp "github.com/flowcreate/backend/internal/application/sync"
	"github.com/flowcreate/backend/internal/infrastructure/auth"
	"github.com/flowcreate/backend/internal/infrastructure/config"
	"github.com/flowcreate/backend/internal/infrastructure/event"
	"github.com/flowcreate/backend/internal/infrastructure/persistence"
	"github.com/flowcreate/backend/internal/infrastructure/persistence/models"
	"github.com/flowcreate/backend/internal/infrastructure/ratelimit"
	"github.com/flowcreate/backend/internal/infrastructure/transport"
	"github.com/flowcreate/backend/internal/interfaces/http/handler"
	"github.com/flowcreate/backend/internal/interfaces/http/middleware"
	"github.com/flowcreate/backend/internal/interfaces/http/router"
	"github.com/flowcreate/backend/tests/testutil"
)

// apiEnv is a fully wired API stack over an in-memory sqlite database.
type apiEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	jwt    *auth.JWTService
	events *testutil.RecordingEventHandler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.IntegrationModel{},
		&models.DataMappingModel{},
		&models.SyncJobModel{},
	))

	integrationRepo := persistence.NewGormIntegrationRepository(db)
	mappingRepo := persistence.NewGormDataMappingRepository(db)
	syncJobRepo := persistence.NewGormSyncJobRepository(db)

	log := zap.NewNop()
	httpTransport := transport.NewHTTPTransport(&config.TransportConfig{
		Timeout:         5 * time.Second,
		MaxIdleConns:    10,
		MaxConnsPerHost: 5,
		UserAgent:       "flowcreate-test/1.0",
	}, transport.EnvSecretResolver{})

	integrationService := integrationapp.NewIntegrationService(integrationRepo)
	executionService := integrationapp.NewExecutionService(
		integrationRepo, mappingRepo, httpTransport, ratelimit.NewMemoryLimiter(), log,
	)
	mappingService := mappingapp.NewMappingService(mappingRepo, integrationRepo, syncJobRepo)
	syncJobService := syncapp.NewSyncJobService(syncJobRepo, integrationRepo, mappingRepo, httpTransport, log)

	events := testutil.NewRecordingEventHandler()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(events)
	integrationService.SetEventPublisher(bus)
	executionService.SetEventPublisher(bus)
	mappingService.SetEventPublisher(bus)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-test-secret-0123456789abcdef",
		AccessTokenExpiration: time.Hour,
		Issuer:                "flowcreate-test",
	})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths:  []string{"/api/v1/health", "/api/v1/ready", "/api/v1/system/ping"},
	}))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewIntegrationHandler(integrationService, executionService)).
		Register(handler.NewMappingHandler(mappingService)).
		Register(handler.NewSyncJobHandler(syncJobService)).
		Register(handler.NewSystemHandler(&persistence.Database{DB: db}, nil))
	r.Setup()

	return &apiEnv{
		engine: engine,
		db:     db,
		jwt:    jwtService,
		events: events,
	}
}

// authHeaders mints a bearer token for the given owner.
func (e *apiEnv) authHeaders(t *testing.T, ownerID uuid.UUID) map[string]string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken(ownerID, "tester")
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

// integrationBody builds a valid integration create request whose single
// endpoint points at the given URL.
func integrationBody(name, endpointURL string) map[string]any {
	return map[string]any{
		"name": name,
		"config": map[string]any{
			"type": "rest_api",
			"endpoints": []map[string]any{
				{"name": "default", "url": endpointURL, "method": "GET"},
			},
			"auth": map[string]any{"type": "api_key", "secret_ref": "inline-test-key"},
		},
	}
}

// mappingBody builds a valid single-rule mapping create request.
func mappingBody(integrationID uuid.UUID) map[string]any {
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
