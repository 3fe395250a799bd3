package integration

import (
	"context"
	"errors"
	"sync"
	"time"

	domainintegration "github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimiter decides whether an integration call may proceed under the
// integration's configured rate limits. Implementations track request
// counts per integration id.
type RateLimiter interface {
	Allow(ctx context.Context, integrationID uuid.UUID, limits domainintegration.RateLimits) (bool, error)
}

// ExecutionService performs integration calls: validation, rate limiting,
// the transport round trip, optional response transformation and metrics
// recording.
//
// Executions against the same integration id are serialized through a
// per-id lock so metric updates never interleave; different integrations
// execute concurrently.
type ExecutionService struct {
	repo           domainintegration.Repository
	mappingRepo    mapping.Repository
	transport      domainintegration.Transport
	limiter        RateLimiter
	eventPublisher shared.EventPublisher
	logger         *zap.Logger

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewExecutionService creates a new ExecutionService
func NewExecutionService(
	repo domainintegration.Repository,
	mappingRepo mapping.Repository,
	transport domainintegration.Transport,
	limiter RateLimiter,
	logger *zap.Logger,
) *ExecutionService {
	return &ExecutionService{
		repo:        repo,
		mappingRepo: mappingRepo,
		transport:   transport,
		limiter:     limiter,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher used for execution events
func (s *ExecutionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Validate reports the integration's readiness without executing it
func (s *ExecutionService) Validate(ctx context.Context, ownerID, id uuid.UUID) (*ValidationResponse, error) {
	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result := integ.Validate(time.Now())
	return &ValidationResponse{
		IsValid:    result.IsValid,
		CanExecute: result.CanExecute,
		Errors:     result.Errors,
	}, nil
}

// Execute performs one call against the integration.
//
// When the integration cannot execute (not active, no endpoints, expired
// credential) the call fails with PRECONDITION_FAILED and the metrics are
// untouched. The same holds for a rate-limited call: it never reached the
// wire. Once the transport is invoked, exactly one metrics record is
// written regardless of outcome; a timeout counts as a failed execution.
func (s *ExecutionService) Execute(ctx context.Context, ownerID, id uuid.UUID, req ExecuteRequest) (*ExecutionResponse, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	integ, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if result := integ.Validate(now); !result.CanExecute {
		return nil, shared.NewDomainError("PRECONDITION_FAILED", "Integration is not ready to execute")
	}

	if integ.Config.RateLimits != nil && s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, integ.ID, *integ.Config.RateLimits)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, shared.ErrRateLimited
		}
	}

	endpoint, ok := integ.Config.DefaultEndpoint()
	if req.Endpoint != "" {
		endpoint, ok = integ.Config.EndpointByName(req.Endpoint)
	}
	if !ok {
		return nil, shared.NewDomainError("PRECONDITION_FAILED", "Requested endpoint is not configured")
	}

	executionID := uuid.New()
	trigger := req.Trigger
	if trigger == "" {
		trigger = "api"
	}

	resp, sendErr := s.transport.Send(ctx, domainintegration.Request{
		Endpoint: endpoint,
		Auth:     integ.Config.Auth,
		Payload:  req.Payload,
		Headers:  req.Headers,
	})

	out := ExecutionResponse{ExecutionID: executionID}
	var duration time.Duration
	switch {
	case sendErr != nil:
		duration = 0
		out.Success = false
		out.Error = sendErr.Error()
		if errors.Is(sendErr, domainintegration.ErrTransportTimeout) {
			out.Error = "call timed out"
		}
	default:
		duration = resp.Duration
		out.StatusCode = resp.StatusCode
		out.NetworkTimeMs = resp.Duration.Milliseconds()
		out.Success = resp.Succeeded()
		if out.Success {
			out.Data = resp.Body
		} else {
			out.Error = "endpoint returned a non-success status"
		}
	}

	if out.Success && req.MappingID != nil {
		transformStart := time.Now()
		transformed, terr := s.transformResponse(ctx, ownerID, *req.MappingID, out.Data, executionID)
		out.TransformTimeMs = time.Since(transformStart).Milliseconds()
		if terr != nil {
			out.Success = false
			out.Data = nil
			out.Error = terr.Error()
		} else {
			out.Data = transformed
		}
	}
	out.DurationMs = out.NetworkTimeMs + out.TransformTimeMs

	integ.RecordExecution(out.Success, duration)
	if err := s.repo.Save(ctx, integ); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		if events := integ.GetDomainEvents(); len(events) > 0 {
			_ = s.eventPublisher.Publish(ctx, events...)
		}
	}
	integ.ClearDomainEvents()

	s.logger.Info("integration executed",
		zap.String("integration_id", integ.ID.String()),
		zap.String("execution_id", executionID.String()),
		zap.String("trigger", trigger),
		zap.Bool("success", out.Success),
		zap.Int64("duration_ms", out.DurationMs),
	)

	return &out, nil
}

// TestConnection performs a lightweight probe call against the default
// endpoint. Probe outcomes count toward the metrics like any other call.
func (s *ExecutionService) TestConnection(ctx context.Context, ownerID, id uuid.UUID) (*ExecutionResponse, error) {
	return s.Execute(ctx, ownerID, id, ExecuteRequest{Trigger: "test"})
}

// BulkExecute runs the same payload against several integrations and
// reports a per-integration summary. Individual failures never abort
// the batch.
func (s *ExecutionService) BulkExecute(ctx context.Context, ownerID uuid.UUID, req BulkExecuteRequest) (*BulkExecuteResponse, error) {
	out := BulkExecuteResponse{Results: make(map[uuid.UUID]ExecutionResult, len(req.IntegrationIDs))}

	for _, id := range req.IntegrationIDs {
		resp, err := s.Execute(ctx, ownerID, id, ExecuteRequest{Payload: req.Payload})
		switch {
		case err != nil:
			out.Failed++
			out.Results[id] = ExecutionResult{Success: false, Error: err.Error()}
		case !resp.Success:
			out.Failed++
			out.Results[id] = ExecutionResult{Success: false, Error: resp.Error}
		default:
			out.Successful++
			out.Results[id] = ExecutionResult{Success: true}
		}
	}

	return &out, nil
}

// transformResponse runs the response body through the given mapping
func (s *ExecutionService) transformResponse(ctx context.Context, ownerID, mappingID uuid.UUID, data map[string]any, executionID uuid.UUID) (map[string]any, error) {
	m, err := s.mappingRepo.FindByIDForOwner(ctx, ownerID, mappingID)
	if err != nil {
		return nil, err
	}
	result := mapping.Transform(m, mapping.TransformContext{
		SourceData:  data,
		OwnerID:     ownerID,
		ExecutionID: executionID,
	})
	if !result.Success {
		return nil, shared.NewDomainError("TRANSFORMATION_FAILED", "Response transformation failed")
	}
	return result.Data, nil
}

// lockFor returns the mutex serializing executions of one integration
func (s *ExecutionService) lockFor(id uuid.UUID) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
