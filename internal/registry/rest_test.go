package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTStore_CreateVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/model-versions/create", r.URL.Path)

		var req createVersionReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "meps-utilization", req.Name)
		assert.Equal(t, "runs:/run-1/model", req.Source)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(storeResp{
			Version: ModelVersion{Name: req.Name, Version: 7, CurrentStage: StageNone, RunID: req.RunID, Source: req.Source},
		})
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, 2*time.Second)
	mv, err := store.CreateVersion(context.Background(), "meps-utilization", "runs:/run-1/model", "run-1")
	require.NoError(t, err)
	assert.Equal(t, 7, mv.Version)
	assert.Equal(t, StageNone, mv.CurrentStage)
}

func TestRESTStore_SetStageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(storeResp{Code: 42, Msg: "unsupported stage"})
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, 2*time.Second)
	err := store.SetStage(context.Background(), "meps-utilization", 1, Stage("Bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported stage")
}

func TestRESTStore_ListVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "meps-utilization", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listResp{
			Versions: []ModelVersion{
				{Name: "meps-utilization", Version: 1, CurrentStage: StageArchived},
				{Name: "meps-utilization", Version: 2, CurrentStage: StageProduction},
			},
		})
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, 2*time.Second)
	versions, err := store.ListVersions(context.Background(), "meps-utilization")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, StageProduction, versions[1].CurrentStage)
}

func TestRESTStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // deliberately down

	store := NewRESTStore(srv.URL, 500*time.Millisecond)
	_, err := store.ListVersions(context.Background(), "meps-utilization")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
