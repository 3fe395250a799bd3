package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestUUID_Deterministic(t *testing.T) {
	a := NewTestUUID("seed")
	b := NewTestUUID("seed")
	c := NewTestUUID("other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNewMockDB(t *testing.T) {
	db := NewMockDB(t)
	defer db.Close()

	require.NotNil(t, db.DB)
	require.NotNil(t, db.Mock)
	db.ExpectationsWereMet(t)
}

func TestRecordingEventHandler(t *testing.T) {
	handler := NewRecordingEventHandler("thing.created")
	assert.Equal(t, []string{"thing.created"}, handler.EventTypes())

	evt := NewStubEvent("thing.created", TestOwnerID())
	require.NoError(t, handler.Handle(context.Background(), evt))

	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, evt.EventID(), handler.Handled()[0].EventID())

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
}

func TestRequireEventually(t *testing.T) {
	calls := 0
	RequireEventually(t, func() bool {
		calls++
		return calls >= 3
	}, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, calls, 3)
}
