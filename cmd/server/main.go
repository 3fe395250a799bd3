package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	integrationapp "github.com/flowcreate/backend/internal/application/integration"
	mappingapp "github.com/flowcreate/backend/internal/application/mapping"
	syncapp "github.com/flowcreate/backend/internal/application/sync"
	"github.com/flowcreate/backend/internal/infrastructure/auth"
	"github.com/flowcreate/backend/internal/infrastructure/config"
	"github.com/flowcreate/backend/internal/infrastructure/event"
	"github.com/flowcreate/backend/internal/infrastructure/logger"
	"github.com/flowcreate/backend/internal/infrastructure/persistence"
	"github.com/flowcreate/backend/internal/infrastructure/ratelimit"
	"github.com/flowcreate/backend/internal/infrastructure/scheduler"
	"github.com/flowcreate/backend/internal/infrastructure/transport"
	"github.com/flowcreate/backend/internal/interfaces/http/handler"
	"github.com/flowcreate/backend/internal/interfaces/http/middleware"
	"github.com/flowcreate/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FlowCreate Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	mappingRepo := persistence.NewGormDataMappingRepository(db.DB)
	syncJobRepo := persistence.NewGormSyncJobRepository(db.DB)

	// Outbound transport for integration calls, with env-backed secrets
	httpTransport := transport.NewHTTPTransport(&cfg.Transport, transport.EnvSecretResolver{})

	// Per-integration rate limiter: Redis keeps counters shared across
	// instances, memory is enough for a single process
	var execLimiter integrationapp.RateLimiter
	if cfg.Redis.Enabled {
		redisLimiter, err := ratelimit.NewRedisLimiter(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				log.Error("Error closing redis limiter", zap.Error(err))
			}
		}()
		execLimiter = redisLimiter
		log.Info("Redis rate limiter enabled", zap.String("addr", cfg.Redis.Addr()))
	} else {
		execLimiter = ratelimit.NewMemoryLimiter()
	}

	// Initialize application services
	integrationService := integrationapp.NewIntegrationService(integrationRepo)
	executionService := integrationapp.NewExecutionService(integrationRepo, mappingRepo, httpTransport, execLimiter, log)
	mappingService := mappingapp.NewMappingService(mappingRepo, integrationRepo, syncJobRepo)
	syncJobService := syncapp.NewSyncJobService(syncJobRepo, integrationRepo, mappingRepo, httpTransport, log)

	// Event bus with an audit trail of aggregate changes
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	integrationService.SetEventPublisher(eventBus)
	executionService.SetEventPublisher(eventBus)
	mappingService.SetEventPublisher(eventBus)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Sync job scheduler (if enabled)
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Scheduler.Enabled {
		syncScheduler = scheduler.NewSyncScheduler(scheduler.Config{
			PollInterval: cfg.Scheduler.PollInterval,
			JobTimeout:   cfg.Scheduler.JobTimeout,
		}, syncJobService, log)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Initialize HTTP handlers
	integrationHandler := handler.NewIntegrationHandler(integrationService, executionService)
	mappingHandler := handler.NewMappingHandler(mappingService)
	syncJobHandler := handler.NewSyncJobHandler(syncJobService)
	var schedulerStatus interface{ IsRunning() bool }
	if syncScheduler != nil {
		schedulerStatus = syncScheduler
	}
	systemHandler := handler.NewSystemHandler(db, schedulerStatus)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first: request id, panic recovery,
	// request logging, security headers, CORS, body limit, rate limit, auth
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/ready",
			"/api/v1/system/info",
			"/api/v1/system/ping",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Liveness probe outside API versioning
	engine.GET("/health", systemHandler.Health)

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(integrationHandler).
		Register(mappingHandler).
		Register(syncJobHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
