// Package serve implements the prediction service: it owns the lazily loaded
// set of per-target pipelines and turns a sparse feature input into one
// non-negative integer count per target.
package serve

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"meps-serve/internal/pipeline"
	"meps-serve/internal/schema"
)

// MetricsInterface defines the metrics methods needed by the service.
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	LoadDurationObserve(float64)
	LoadFailuresInc()
}

// Service serves multi-target utilization predictions. The pipeline set is
// loaded on first use; a failed load is surfaced to the triggering caller and
// retried on the next call rather than cached. Once loaded the set is
// immutable for the rest of the process lifetime.
type Service struct {
	mu     sync.RWMutex
	pipes  map[string]*pipeline.Pipeline // nil until loaded
	loadFn func() (map[string]*pipeline.Pipeline, error)

	metrics MetricsInterface
}

// New creates a service reading artifacts from modelsDir through the given
// legacy symbol table. metrics may be nil.
func New(modelsDir string, symbols *pipeline.SymbolTable, metrics MetricsInterface) *Service {
	return &Service{
		loadFn: func() (map[string]*pipeline.Pipeline, error) {
			return pipeline.LoadDir(modelsDir, symbols)
		},
		metrics: metrics,
	}
}

// ensureLoaded performs the lazy load transition. Exactly one load sequence
// runs under concurrent first callers; everyone else blocks on the mutex and
// observes either the fully populated set or the load error.
func (s *Service) ensureLoaded() (map[string]*pipeline.Pipeline, error) {
	s.mu.RLock()
	pipes := s.pipes
	s.mu.RUnlock()
	if pipes != nil {
		return pipes, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipes != nil {
		return s.pipes, nil
	}

	start := time.Now()
	pipes, err := s.loadFn()
	if err != nil {
		// Leave pipes nil so the next call retries the load.
		if s.metrics != nil {
			s.metrics.LoadFailuresInc()
		}
		log.Error().Err(err).Msg("pipeline load failed")
		return nil, fmt.Errorf("load pipelines: %w", err)
	}

	s.pipes = pipes
	if s.metrics != nil {
		s.metrics.LoadDurationObserve(time.Since(start).Seconds())
	}
	return pipes, nil
}

// Health forces the load transition if it has not happened yet and returns
// nil only when every target pipeline is loaded.
func (s *Service) Health(ctx context.Context) error {
	_, err := s.ensureLoaded()
	return err
}

// Predict assembles the canonical feature row from the sparse input and runs
// every target pipeline against it. Raw outputs are coerced to non-negative
// integers with max(0, round(x)). The call is all-or-nothing: if any single
// pipeline fails, no partial result is returned.
func (s *Service) Predict(ctx context.Context, features *schema.Features) (map[string]int, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	pipes, err := s.ensureLoaded()
	if err != nil {
		if s.metrics != nil {
			s.metrics.PredictionFailuresInc()
		}
		return nil, err
	}

	row := features.Row()

	result := make(map[string]int, len(schema.Targets))
	for _, target := range schema.Targets {
		raw, err := pipes[target].Predict(row)
		if err != nil {
			if s.metrics != nil {
				s.metrics.PredictionFailuresInc()
			}
			return nil, fmt.Errorf("predict %s: %w", target, err)
		}
		result[target] = coerceCount(raw)
	}

	if s.metrics != nil {
		s.metrics.PredictionsInc()
	}
	return result, nil
}

// coerceCount normalizes a raw regression output to a served count: round to
// the nearest integer, then clamp at zero.
func coerceCount(raw float64) int {
	n := int(math.Round(raw))
	if n < 0 {
		return 0
	}
	return n
}
