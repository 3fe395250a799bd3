package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Type: IntegrationTypeRESTAPI,
		Endpoints: []Endpoint{
			{Name: "default", URL: "https://api.example.com/v1/data", Method: "GET"},
		},
		Auth: Credential{Type: CredentialTypeAPIKey, SecretRef: "vault://keys/example"},
	}
}

func TestNewIntegration(t *testing.T) {
	ownerID := uuid.New()

	t.Run("creates integration in draft status", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "syncs contacts", validConfig(), []string{"crm", "Contacts"})
		require.NoError(t, err)
		require.NotNil(t, integ)

		assert.Equal(t, ownerID, integ.OwnerID)
		assert.Equal(t, "CRM Sync", integ.Name)
		assert.Equal(t, StatusDraft, integ.Status)
		assert.Equal(t, []string{"crm", "contacts"}, integ.Tags)
		assert.Zero(t, integ.Metrics.TotalRequests)
		assert.NotEmpty(t, integ.ID)
		assert.Equal(t, 1, integ.GetVersion())
	})

	t.Run("publishes IntegrationCreated event", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)

		events := integ.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeIntegrationCreated, events[0].EventType())
	})

	t.Run("fails with empty endpoints", func(t *testing.T) {
		cfg := validConfig()
		cfg.Endpoints = nil
		_, err := NewIntegration(ownerID, "CRM Sync", "", cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no configured endpoints")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewIntegration(ownerID, "", "", validConfig(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with missing secret reference", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.SecretRef = ""
		_, err := NewIntegration(ownerID, "CRM Sync", "", cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret reference is required")
	})

	t.Run("reports all config problems together", func(t *testing.T) {
		cfg := validConfig()
		cfg.Endpoints = nil
		cfg.Auth.SecretRef = ""
		_, err := NewIntegration(ownerID, "CRM Sync", "", cfg, nil)
		require.Error(t, err)

		var verr interface{ HasErrors() bool }
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "no configured endpoints")
		assert.Contains(t, err.Error(), "secret reference is required")
	})
}

func TestIntegration_Lifecycle(t *testing.T) {
	ownerID := uuid.New()
	now := time.Now()

	newDraft := func(t *testing.T) *Integration {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)
		return integ
	}

	t.Run("activates a valid draft", func(t *testing.T) {
		integ := newDraft(t)
		require.NoError(t, integ.Activate(now))
		assert.Equal(t, StatusActive, integ.Status)
		assert.True(t, integ.IsActive())
	})

	t.Run("activation requires valid configuration", func(t *testing.T) {
		integ := newDraft(t)
		integ.Config.Endpoints = nil
		err := integ.Activate(now)
		require.Error(t, err)
		assert.Equal(t, StatusDraft, integ.Status)
	})

	t.Run("activation rejects expired credential", func(t *testing.T) {
		integ := newDraft(t)
		expired := now.Add(-time.Hour)
		integ.Config.Auth.ExpiresAt = &expired
		err := integ.Activate(now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credential is expired")
	})

	t.Run("pause and resume", func(t *testing.T) {
		integ := newDraft(t)
		require.NoError(t, integ.Activate(now))
		require.NoError(t, integ.Pause())
		assert.Equal(t, StatusPaused, integ.Status)
		require.NoError(t, integ.Resume(now))
		assert.Equal(t, StatusActive, integ.Status)
	})

	t.Run("cannot pause a draft", func(t *testing.T) {
		integ := newDraft(t)
		require.Error(t, integ.Pause())
	})

	t.Run("archive is terminal", func(t *testing.T) {
		integ := newDraft(t)
		require.NoError(t, integ.Archive())
		assert.Equal(t, StatusArchived, integ.Status)
		require.Error(t, integ.Activate(now))
		require.Error(t, integ.Archive())
	})

	t.Run("any state can archive", func(t *testing.T) {
		integ := newDraft(t)
		require.NoError(t, integ.Activate(now))
		require.NoError(t, integ.Pause())
		require.NoError(t, integ.Archive())
	})

	t.Run("only draft and archived are deletable", func(t *testing.T) {
		integ := newDraft(t)
		assert.True(t, integ.IsDeletable())
		require.NoError(t, integ.Activate(now))
		assert.False(t, integ.IsDeletable())
		require.NoError(t, integ.Archive())
		assert.True(t, integ.IsDeletable())
	})
}

func TestIntegration_Validate(t *testing.T) {
	ownerID := uuid.New()
	now := time.Now()

	t.Run("valid and active can execute", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)
		require.NoError(t, integ.Activate(now))

		result := integ.Validate(now)
		assert.True(t, result.IsValid)
		assert.True(t, result.CanExecute)
		assert.Empty(t, result.Errors)
	})

	t.Run("valid but paused cannot execute", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)
		require.NoError(t, integ.Activate(now))
		require.NoError(t, integ.Pause())

		result := integ.Validate(now)
		assert.True(t, result.IsValid)
		assert.False(t, result.CanExecute)
	})

	t.Run("reports all failures independently", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)
		integ.Config.Endpoints = nil
		expired := now.Add(-time.Hour)
		integ.Config.Auth.ExpiresAt = &expired

		result := integ.Validate(now)
		assert.False(t, result.IsValid)
		assert.False(t, result.CanExecute)
		require.Len(t, result.Errors, 3)
	})
}

func TestIntegration_RecordExecution(t *testing.T) {
	ownerID := uuid.New()

	t.Run("counts totals and successes", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)

		outcomes := []bool{true, false, true, true, false}
		for _, ok := range outcomes {
			integ.RecordExecution(ok, 100*time.Millisecond)
		}

		assert.Equal(t, int64(5), integ.Metrics.TotalRequests)
		assert.Equal(t, int64(3), integ.Metrics.SuccessfulRequests)
		assert.LessOrEqual(t, integ.Metrics.SuccessfulRequests, integ.Metrics.TotalRequests)
		require.NotNil(t, integ.Metrics.LastExecutedAt)
	})

	t.Run("running mean matches arithmetic mean", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)

		durations := []time.Duration{
			120 * time.Millisecond,
			340 * time.Millisecond,
			80 * time.Millisecond,
			910 * time.Millisecond,
			55 * time.Millisecond,
		}
		var sum float64
		for _, d := range durations {
			integ.RecordExecution(true, d)
			sum += float64(d.Milliseconds())
		}

		expected := sum / float64(len(durations))
		assert.InDelta(t, expected, integ.Metrics.AverageResponseTimeMs, 1e-9)
	})

	t.Run("publishes execution event per call", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)
		integ.ClearDomainEvents()

		integ.RecordExecution(false, 50*time.Millisecond)
		events := integ.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeIntegrationExecuted, events[0].EventType())
	})
}

func TestIntegration_Tags(t *testing.T) {
	ownerID := uuid.New()

	t.Run("tag set semantics", func(t *testing.T) {
		integ, err := NewIntegration(ownerID, "CRM Sync", "", validConfig(), nil)
		require.NoError(t, err)

		integ.AddTag("CRM")
		integ.AddTag("crm")
		integ.AddTag("orders")
		assert.Equal(t, []string{"crm", "orders"}, integ.Tags)
		assert.True(t, integ.HasTag("CRM"))

		integ.RemoveTag("crm")
		assert.Equal(t, []string{"orders"}, integ.Tags)
		assert.False(t, integ.HasTag("crm"))
	})
}

func TestCredential(t *testing.T) {
	now := time.Now()

	t.Run("no expiry never expires", func(t *testing.T) {
		cred := Credential{Type: CredentialTypeAPIKey, SecretRef: "ref"}
		assert.False(t, cred.IsExpired(now))
		assert.False(t, cred.NeedsRefresh(now, DefaultRefreshLead))
	})

	t.Run("expired credential", func(t *testing.T) {
		past := now.Add(-time.Minute)
		cred := Credential{Type: CredentialTypeOAuth, SecretRef: "ref", ExpiresAt: &past}
		assert.True(t, cred.IsExpired(now))
		assert.True(t, cred.NeedsRefresh(now, DefaultRefreshLead))
	})

	t.Run("needs refresh inside lead window", func(t *testing.T) {
		soon := now.Add(48 * time.Hour)
		cred := Credential{Type: CredentialTypeOAuth, SecretRef: "ref", ExpiresAt: &soon}
		assert.False(t, cred.IsExpired(now))
		assert.True(t, cred.NeedsRefresh(now, DefaultRefreshLead))
	})

	t.Run("fresh credential outside lead window", func(t *testing.T) {
		far := now.Add(60 * 24 * time.Hour)
		cred := Credential{Type: CredentialTypeBasic, SecretRef: "ref", ExpiresAt: &far}
		assert.False(t, cred.IsExpired(now))
		assert.False(t, cred.NeedsRefresh(now, DefaultRefreshLead))
	})
}
