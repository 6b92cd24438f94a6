// Package api exposes the prediction service over HTTP: readiness, prediction
// and model info endpoints consumed by the web application.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"meps-serve/internal/schema"
	"meps-serve/internal/serve"
)

// RequestCounter counts handled HTTP requests.
type RequestCounter interface {
	Inc()
}

// Server provides the HTTP API for utilization predictions.
type Server struct {
	svc      *serve.Service
	version  string
	requests RequestCounter
	server   *http.Server
}

// New creates the HTTP server. version labels the deployed model build in
// /model/info responses; requests may be nil.
func New(svc *serve.Service, version string, port int, timeout time.Duration, requests RequestCounter) *Server {
	s := &Server{svc: svc, version: version, requests: requests}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/model/info", s.handleModelInfo)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) count() {
	if s.requests != nil {
		s.requests.Inc()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.count()

	if err := s.svc.Health(r.Context()); err != nil {
		log.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	s.count()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var features schema.Features
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.svc.Predict(r.Context(), &features)
	if err != nil {
		log.Error().Err(err).Msg("prediction failed")
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Debug().Dur("latency", time.Since(start)).Msg("prediction served")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	s.count()

	info := map[string]interface{}{
		"version":  s.version,
		"targets":  schema.Targets,
		"columns":  schema.Columns,
		"features": len(schema.Columns),
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
