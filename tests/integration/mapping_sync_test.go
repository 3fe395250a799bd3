package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcreate/backend/tests/testutil"
)

func TestMappingLifecycleAndPreview(t *testing.T) {
	env := newAPIEnv(t)
	ownerID := uuid.New()
	headers := env.authHeaders(t, ownerID)

	w := testutil.Request(t, env.engine, http.MethodPost, "/api/v1/integrations",
		integrationBody("crm", "https://api.example.com/v1"), headers)
	resp := testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	integrationID, err := uuid.Parse(resp["data"].(map[string]any)["id"].(string))
	require.NoError(t, err)

	w = testutil.Request(t, env.engine, http.MethodPost, "/api/v1/mappings",
		mappingBody(integrationID), headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	mappingID := resp["data"].(map[string]any)["id"].(string)
	assert.Equal(t, true, resp["data"].(map[string]any)["is_valid"])

	// Dry-run transformation of a sample payload.
	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/mappings/"+mappingID+"/preview",
		map[string]any{"source_data": map[string]any{"email": "ada@example.com"}}, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	preview := resp["data"].(map[string]any)
	assert.Equal(t, true, preview["success"])
	assert.Equal(t, "ada@example.com", preview["data"].(map[string]any)["email"])

	// A missing required source field fails the preview.
	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/mappings/"+mappingID+"/preview",
		map[string]any{"source_data": map[string]any{"name": "Ada"}}, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	preview = resp["data"].(map[string]any)
	assert.Equal(t, false, preview["success"])

	w = testutil.Request(t, env.engine, http.MethodGet,
		"/api/v1/mappings/"+mappingID+"/validate", nil, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, true, resp["data"].(map[string]any)["is_valid"])

	types := make(map[string]int)
	for _, evt := range env.events.Handled() {
		types[evt.EventType()]++
	}
	assert.Equal(t, 1, types["mapping.created"])
}

func TestSyncJobRun(t *testing.T) {
	var pulls, pushes atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		pulls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"email": "ada@example.com"},
				{"email": "grace@example.com"},
			},
		})
	})
	mux.HandleFunc("/upsert", func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	env := newAPIEnv(t)
	ownerID := uuid.New()
	headers := env.authHeaders(t, ownerID)

	body := map[string]any{
		"name": "crm",
		"config": map[string]any{
			"type": "rest_api",
			"endpoints": []map[string]any{
				{"name": "default", "url": backend.URL + "/records", "method": "GET"},
				{"name": "upsert", "url": backend.URL + "/upsert", "method": "POST"},
			},
			"auth": map[string]any{"type": "api_key", "secret_ref": "inline-test-key"},
		},
	}
	w := testutil.Request(t, env.engine, http.MethodPost, "/api/v1/integrations", body, headers)
	resp := testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	integrationID, err := uuid.Parse(resp["data"].(map[string]any)["id"].(string))
	require.NoError(t, err)

	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/integrations/"+integrationID.String()+"/activate", nil, headers)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)

	w = testutil.Request(t, env.engine, http.MethodPost, "/api/v1/mappings",
		mappingBody(integrationID), headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	mappingID, err := uuid.Parse(resp["data"].(map[string]any)["id"].(string))
	require.NoError(t, err)

	w = testutil.Request(t, env.engine, http.MethodPost, "/api/v1/sync-jobs", map[string]any{
		"integration_id": integrationID.String(),
		"mapping_id":     mappingID.String(),
		"name":           "nightly contact sync",
		"direction":      "pull",
		"schedule": map[string]any{
			"type":             "interval",
			"interval_seconds": 3600,
			"enabled":          true,
		},
		"conflict_resolution": "source_wins",
	}, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	job := resp["data"].(map[string]any)
	jobID := job["id"].(string)
	assert.NotEmpty(t, job["next_run_at"])

	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/sync-jobs/"+jobID+"/run", nil, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	summary := resp["data"].(map[string]any)
	assert.EqualValues(t, 2, summary["processed"])
	assert.EqualValues(t, 2, summary["successful"])
	assert.EqualValues(t, 0, summary["failed"])

	assert.EqualValues(t, 1, pulls.Load())
	assert.EqualValues(t, 2, pushes.Load())

	// The run advanced the schedule.
	w = testutil.Request(t, env.engine, http.MethodGet,
		"/api/v1/sync-jobs/"+jobID, nil, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.NotEmpty(t, resp["data"].(map[string]any)["last_run_at"])
}

func TestSyncJobConflictResolution(t *testing.T) {
	var upserts atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{{"email": "ada@example.com"}},
		})
	})
	mux.HandleFunc("/upsert", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if upserts.Add(1) == 1 {
			// First delivery conflicts with an existing record.
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{"email": "old@example.com"})
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	env := newAPIEnv(t)
	ownerID := uuid.New()
	headers := env.authHeaders(t, ownerID)

	body := map[string]any{
		"name": "crm",
		"config": map[string]any{
			"type": "rest_api",
			"endpoints": []map[string]any{
				{"name": "default", "url": backend.URL + "/records", "method": "GET"},
				{"name": "upsert", "url": backend.URL + "/upsert", "method": "POST"},
			},
			"auth": map[string]any{"type": "api_key", "secret_ref": "inline-test-key"},
		},
	}
	w := testutil.Request(t, env.engine, http.MethodPost, "/api/v1/integrations", body, headers)
	resp := testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	integrationID, err := uuid.Parse(resp["data"].(map[string]any)["id"].(string))
	require.NoError(t, err)

	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/integrations/"+integrationID.String()+"/activate", nil, headers)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)

	w = testutil.Request(t, env.engine, http.MethodPost, "/api/v1/mappings",
		mappingBody(integrationID), headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	mappingID, err := uuid.Parse(resp["data"].(map[string]any)["id"].(string))
	require.NoError(t, err)

	w = testutil.Request(t, env.engine, http.MethodPost, "/api/v1/sync-jobs", map[string]any{
		"integration_id": integrationID.String(),
		"mapping_id":     mappingID.String(),
		"name":           "conflicting sync",
		"direction":      "pull",
		"schedule": map[string]any{
			"type":             "interval",
			"interval_seconds": 3600,
			"enabled":          true,
		},
		"conflict_resolution": "source_wins",
	}, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	jobID := resp["data"].(map[string]any)["id"].(string)

	w = testutil.Request(t, env.engine, http.MethodPost,
		"/api/v1/sync-jobs/"+jobID+"/run", nil, headers)
	resp = testutil.AssertSuccessResponse(t, w, http.StatusOK)
	summary := resp["data"].(map[string]any)
	assert.EqualValues(t, 1, summary["processed"])
	assert.EqualValues(t, 1, summary["successful"])
	assert.EqualValues(t, 1, summary["conflicts"])

	// Conflict triggers one retry delivery.
	assert.EqualValues(t, 2, upserts.Load())
}
