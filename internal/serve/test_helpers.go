package serve

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	predictions  int
	failures     int
	latencySum   float64
	loadSum      float64
	loadFailures int
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) LoadDurationObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadSum += v
}

func (m *MockMetrics) LoadFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFailures++
}
