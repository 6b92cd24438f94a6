package metrics

// Wrapper adapts Metrics to the prediction service's metrics interface,
// avoiding a direct prometheus dependency there.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc() {
	w.m.Predictions.Inc()
}

func (w *Wrapper) PredictionFailuresInc() {
	w.m.PredictionFailures.Inc()
}

func (w *Wrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}

func (w *Wrapper) LoadDurationObserve(v float64) {
	w.m.LoadDuration.Observe(v)
}

func (w *Wrapper) LoadFailuresInc() {
	w.m.LoadFailures.Inc()
}
