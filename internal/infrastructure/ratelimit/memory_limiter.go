package ratelimit

import (
	"context"
	"sync"
	"time"

	appintegration "github.com/flowcreate/backend/internal/application/integration"
	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/google/uuid"
)

// MemoryLimiter enforces per-integration rate limits in process memory.
// It is the single-instance fallback when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*window
}

type window struct {
	count     int
	startedAt time.Time
}

// NewMemoryLimiter creates an in-memory limiter
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[uuid.UUID]*window)}
}

// Allow reports whether one more call may proceed under the limits
func (l *MemoryLimiter) Allow(_ context.Context, integrationID uuid.UUID, limits integration.RateLimits) (bool, error) {
	if limits.RequestsPerMinute <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[integrationID]
	if !ok || now.Sub(w.startedAt) >= time.Minute {
		l.windows[integrationID] = &window{count: 1, startedAt: now}
		return true, nil
	}

	w.count++
	return w.count <= limits.RequestsPerMinute+limits.BurstSize, nil
}

// Ensure MemoryLimiter implements the application port
var _ appintegration.RateLimiter = (*MemoryLimiter)(nil)
