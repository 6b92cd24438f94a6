// Package metrics provides Prometheus metrics collection for the MEPS
// utilization service. It defines and manages the prediction, pipeline load,
// registry, and HTTP metrics exposed via the Prometheus metrics endpoint for
// monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        prometheus.Counter   // Total number of served predictions
	PredictionFailures prometheus.Counter   // Total number of failed prediction requests
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds

	// Pipeline load metrics
	LoadDuration prometheus.Histogram // Duration of pipeline load sequences
	LoadFailures prometheus.Counter   // Total number of failed load sequences
	ModelAge     prometheus.Gauge     // Age of the loaded model artifacts in seconds

	// Registry metrics
	RegistryErrors prometheus.Counter // Total number of tracking store errors

	// HTTP metrics
	HTTPRequests prometheus.Counter // Total number of HTTP requests handled
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of served predictions",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_load_duration_seconds",
			Help:    "Duration of pipeline load sequences in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		LoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_load_failures_total",
			Help: "Total number of failed pipeline load sequences",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifacts in seconds",
		}),
		RegistryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_errors_total",
			Help: "Total number of tracking store errors",
		}),
		HTTPRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		}),
	}
}
