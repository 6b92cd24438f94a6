package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"meps-serve/internal/pipeline"
	"meps-serve/internal/schema"
	"meps-serve/internal/serve"
)

func writeArtifacts(t *testing.T, dir string) {
	t.Helper()

	n := len(schema.Columns)
	zeros := make([]float64, n)
	stds := make([]float64, n)
	for i := range stds {
		stds[i] = 1
	}

	for _, target := range schema.Targets {
		art := pipeline.Artifact{
			Target:        target,
			SchemaVersion: 1,
			Columns:       schema.Columns,
			Steps: []pipeline.StepSpec{
				{Kind: "transform", Name: "__mp_main__.neg_to_nan"},
				{Kind: "impute", Values: zeros},
				{Kind: "scale", Mean: zeros, Std: stds},
			},
			Model: pipeline.ModelSpec{Kind: "linear", Weights: zeros, Bias: 2.0},
		}
		data, err := json.Marshal(art)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(pipeline.ArtifactPath(dir, target), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestServer(t *testing.T, modelsDir string) *Server {
	t.Helper()
	svc := serve.New(modelsDir, pipeline.DefaultSymbols(), nil)
	return New(svc, "test", 0, 5*time.Second, nil)
}

func TestHandlePredict(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	s := newTestServer(t, dir)

	body := `{"age_years_2022": 45, "gender": 1}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	rec := httptest.NewRecorder()

	s.handlePredict(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("response not decodable: %v", err)
	}
	if len(result) != len(schema.Targets) {
		t.Fatalf("expected %d targets, got %d", len(schema.Targets), len(result))
	}
	for target, count := range result {
		if count < 0 {
			t.Errorf("target %s: negative count %d", target, count)
		}
	}
}

func TestHandlePredict_MalformedBody(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	s := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handlePredict(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestHandlePredict_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	rec := httptest.NewRecorder()
	s.handlePredict(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)
	s := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleHealth_MissingArtifacts(t *testing.T) {
	// Empty models directory: load must fail and health report unavailable.
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHandleModelInfo(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/model/info", nil)
	rec := httptest.NewRecorder()
	s.handleModelInfo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var info struct {
		Version  string   `json:"version"`
		Targets  []string `json:"targets"`
		Features int      `json:"features"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("response not decodable: %v", err)
	}
	if info.Version != "test" {
		t.Errorf("expected version test, got %s", info.Version)
	}
	if len(info.Targets) != len(schema.Targets) {
		t.Errorf("expected %d targets, got %d", len(schema.Targets), len(info.Targets))
	}
	if info.Features != len(schema.Columns) {
		t.Errorf("expected %d features, got %d", len(schema.Columns), info.Features)
	}
}
