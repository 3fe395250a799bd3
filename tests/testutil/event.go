package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowcreate/backend/internal/domain/shared"
)

// RecordingEventHandler collects every event it handles, for asserting
// on event flow in tests.
type RecordingEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewRecordingEventHandler creates a handler subscribed to the given
// event types. Without types it subscribes to all events.
func NewRecordingEventHandler(eventTypes ...string) *RecordingEventHandler {
	return &RecordingEventHandler{
		eventTypes: eventTypes,
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *RecordingEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event.
func (h *RecordingEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of all handled events.
func (h *RecordingEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]shared.DomainEvent, len(h.handled))
	copy(result, h.handled)
	return result
}

// HandledCount returns the number of handled events.
func (h *RecordingEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError sets the error returned by Handle.
func (h *RecordingEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears all recorded events.
func (h *RecordingEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = nil
	h.err = nil
}

// StubEvent is a minimal domain event for tests.
type StubEvent struct {
	shared.BaseDomainEvent
	Data string
}

// NewStubEvent creates a stub event of the given type.
func NewStubEvent(eventType string, ownerID uuid.UUID) *StubEvent {
	return &StubEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:           uuid.New(),
			Type:         eventType,
			OwnerIDValue: ownerID,
			Timestamp:    time.Now(),
			AggID:        uuid.New(),
			AggType:      "StubAggregate",
		},
		Data: "stub-data",
	}
}
