package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DueJobRunner runs every sync job whose schedule has come due.
// It returns the number of jobs it actually ran.
type DueJobRunner interface {
	RunDue(ctx context.Context, now time.Time) (int, error)
}

// Config holds sync scheduler configuration
type Config struct {
	// PollInterval is how often the due-job sweep runs
	PollInterval time.Duration
	// JobTimeout bounds one whole sweep
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Minute,
		JobTimeout:   10 * time.Minute,
	}
}

// SyncScheduler periodically sweeps for due sync jobs and runs them.
// One sweep runs at a time; a sweep that outlives the poll interval
// simply delays the next one.
type SyncScheduler struct {
	config Config
	runner DueJobRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config Config, runner DueJobRunner, logger *zap.Logger) *SyncScheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 10 * time.Minute
	}
	return &SyncScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the background sweep loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop stops the scheduler, waiting for an in-flight sweep to finish
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler loop is active
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SyncScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	ran, err := s.runner.RunDue(sweepCtx, started)
	if err != nil {
		s.logger.Error("Due-job sweep failed", zap.Error(err))
		return
	}
	if ran > 0 {
		s.logger.Info("Due-job sweep completed",
			zap.Int("jobs_ran", ran),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
