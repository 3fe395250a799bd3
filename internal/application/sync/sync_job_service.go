package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	syncdomain "github.com/flowcreate/backend/internal/domain/sync"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncJobService handles sync-job lifecycle and run operations
type SyncJobService struct {
	repo            syncdomain.Repository
	integrationRepo integration.Repository
	mappingRepo     mapping.Repository
	transport       integration.Transport
	logger          *zap.Logger
}

// NewSyncJobService creates a new SyncJobService
func NewSyncJobService(
	repo syncdomain.Repository,
	integrationRepo integration.Repository,
	mappingRepo mapping.Repository,
	transport integration.Transport,
	logger *zap.Logger,
) *SyncJobService {
	return &SyncJobService{
		repo:            repo,
		integrationRepo: integrationRepo,
		mappingRepo:     mappingRepo,
		transport:       transport,
		logger:          logger,
	}
}

// Create creates a new sync job over an integration + mapping pair the
// owner holds. The mapping must reference the same integration.
func (s *SyncJobService) Create(ctx context.Context, ownerID uuid.UUID, req CreateSyncJobRequest) (*SyncJobResponse, error) {
	if _, err := s.integrationRepo.FindByIDForOwner(ctx, ownerID, req.IntegrationID); err != nil {
		return nil, err
	}
	m, err := s.mappingRepo.FindByIDForOwner(ctx, ownerID, req.MappingID)
	if err != nil {
		return nil, err
	}
	if m.IntegrationID != req.IntegrationID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Mapping belongs to a different integration")
	}

	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = syncdomain.DefaultBatchSize
	}

	job, err := syncdomain.NewSyncJob(
		ownerID, req.IntegrationID, req.MappingID,
		req.Name, req.Description,
		syncdomain.Direction(req.Direction),
		toSchedule(req.Schedule),
		syncdomain.ConflictPolicy(req.ConflictResolution),
		batchSize,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	response := ToSyncJobResponse(job)
	return &response, nil
}

// GetByID retrieves a sync job scoped to its owner
func (s *SyncJobService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	response := ToSyncJobResponse(job)
	return &response, nil
}

// List retrieves all of the owner's sync jobs
func (s *SyncJobService) List(ctx context.Context, ownerID uuid.UUID) ([]SyncJobResponse, error) {
	jobs, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ToSyncJobResponses(jobs), nil
}

// Enable turns a job's schedule on
func (s *SyncJobService) Enable(ctx context.Context, ownerID, id uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := job.Enable(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	response := ToSyncJobResponse(job)
	return &response, nil
}

// Disable turns a job's schedule off
func (s *SyncJobService) Disable(ctx context.Context, ownerID, id uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	job.Disable()
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	response := ToSyncJobResponse(job)
	return &response, nil
}

// Delete removes a sync job
func (s *SyncJobService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	job, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, job.ID)
}

// GetUpcoming lists the owner's enabled jobs due within the horizon,
// joined with their integration names, ordered by next run ascending
func (s *SyncJobService) GetUpcoming(ctx context.Context, ownerID uuid.UUID, hoursAhead int) ([]UpcomingJobResponse, error) {
	if hoursAhead <= 0 {
		hoursAhead = 24
	}
	horizon := time.Now().Add(time.Duration(hoursAhead) * time.Hour)

	jobs, err := s.repo.FindUpcoming(ctx, ownerID, horizon)
	if err != nil {
		return nil, err
	}

	out := make([]UpcomingJobResponse, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		if job.NextRunAt == nil {
			continue
		}
		entry := UpcomingJobResponse{
			JobID:         job.ID,
			JobName:       job.Name,
			IntegrationID: job.IntegrationID,
			Direction:     string(job.Direction),
			NextRunAt:     *job.NextRunAt,
		}
		if integ, err := s.integrationRepo.FindByID(ctx, job.IntegrationID); err == nil {
			entry.IntegrationName = integ.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

// RunNow runs a job immediately on behalf of its owner
func (s *SyncJobService) RunNow(ctx context.Context, ownerID, id uuid.UUID) (*RunSummary, error) {
	job, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, job)
}

// RunDue runs every enabled job across owners whose next run has passed.
// Called by the background scheduler; per-job failures are logged but
// never abort the sweep.
func (s *SyncJobService) RunDue(ctx context.Context, now time.Time) (int, error) {
	jobs, err := s.repo.FindDue(ctx, now)
	if err != nil {
		return 0, err
	}

	ran := 0
	for i := range jobs {
		job := &jobs[i]
		if _, err := s.run(ctx, job); err != nil {
			s.logger.Warn("sync job run failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			continue
		}
		ran++
	}
	return ran, nil
}

// run pulls one batch of source records, transforms them through the
// job's mapping and delivers them to the push endpoint, resolving
// conflicts per the job's policy. Per-record failures are accumulated in
// the summary; the run as a whole still completes and advances the
// schedule.
func (s *SyncJobService) run(ctx context.Context, job *syncdomain.SyncJob) (*RunSummary, error) {
	integ, err := s.integrationRepo.FindByID(ctx, job.IntegrationID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if result := integ.Validate(now); !result.CanExecute {
		return nil, shared.NewDomainError("PRECONDITION_FAILED", "Integration is not ready to execute")
	}
	m, err := s.mappingRepo.FindByID(ctx, job.MappingID)
	if err != nil {
		return nil, err
	}

	records, err := s.pullBatch(ctx, integ, job.BatchSize)
	if err != nil {
		return nil, err
	}

	summary := RunSummary{JobID: job.ID, RanAt: now, Processed: len(records)}
	for idx, record := range records {
		if err := s.syncRecord(ctx, integ, m, job.ConflictResolution, record, &summary); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: %v", idx, err))
			continue
		}
		summary.Successful++
	}

	if err := job.CompleteRun(now); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("sync job ran",
		zap.String("job_id", job.ID.String()),
		zap.Int("processed", summary.Processed),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("conflicts", summary.Conflicts),
	)

	return &summary, nil
}

// pullBatch fetches up to batchSize source records from the pull endpoint.
// The endpoint is expected to return {"records": [...]} objects.
func (s *SyncJobService) pullBatch(ctx context.Context, integ *integration.Integration, batchSize int) ([]map[string]any, error) {
	endpoint, ok := integ.Config.DefaultEndpoint()
	if !ok {
		return nil, shared.NewDomainError("PRECONDITION_FAILED", "Integration has no configured endpoints")
	}

	resp, err := s.transport.Send(ctx, integration.Request{
		Endpoint: endpoint,
		Auth:     integ.Config.Auth,
	})
	if err != nil {
		return nil, shared.NewDomainError("TRANSPORT_FAILED", err.Error())
	}
	if !resp.Succeeded() {
		return nil, shared.NewDomainError("TRANSPORT_FAILED", fmt.Sprintf("pull endpoint returned status %d", resp.StatusCode))
	}

	raw, _ := resp.Body["records"].([]any)
	if len(raw) > batchSize {
		raw = raw[:batchSize]
	}

	records := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if record, ok := r.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// syncRecord transforms one source record and delivers it. A conflict
// reported by the target (status 409 with the existing record as the
// body) is resolved per the policy and re-delivered, except target_wins
// which keeps the existing record untouched.
func (s *SyncJobService) syncRecord(
	ctx context.Context,
	integ *integration.Integration,
	m *mapping.DataMapping,
	policy syncdomain.ConflictPolicy,
	record map[string]any,
	summary *RunSummary,
) error {
	result := mapping.Transform(m, mapping.TransformContext{SourceData: record, OwnerID: integ.OwnerID})
	if !result.Success {
		return shared.NewDomainError("TRANSFORMATION_FAILED", "record transformation failed")
	}

	pushEndpoint, ok := integ.Config.EndpointByName("upsert")
	if !ok {
		pushEndpoint, _ = integ.Config.DefaultEndpoint()
	}

	resp, err := s.transport.Send(ctx, integration.Request{
		Endpoint: pushEndpoint,
		Auth:     integ.Config.Auth,
		Payload:  result.Data,
	})
	if err != nil {
		return shared.NewDomainError("TRANSPORT_FAILED", err.Error())
	}
	if resp.Succeeded() {
		return nil
	}
	if resp.StatusCode != 409 {
		return shared.NewDomainError("TRANSPORT_FAILED", fmt.Sprintf("push endpoint returned status %d", resp.StatusCode))
	}

	summary.Conflicts++
	if policy == syncdomain.PolicyTargetWins {
		return nil
	}

	resolved := policy.Resolve(result.Data, resp.Body)
	retry, err := s.transport.Send(ctx, integration.Request{
		Endpoint: pushEndpoint,
		Auth:     integ.Config.Auth,
		Payload:  resolved,
	})
	if err != nil {
		return shared.NewDomainError("TRANSPORT_FAILED", err.Error())
	}
	if !retry.Succeeded() {
		return shared.NewDomainError("TRANSPORT_FAILED", fmt.Sprintf("conflict retry returned status %d", retry.StatusCode))
	}
	return nil
}
