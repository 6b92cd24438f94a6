// Package pipeline loads and runs the per-target inference artifacts. Each
// artifact bundles the fitted preprocessing steps (legacy transform, imputer,
// scaler) with a linear regression head, serialized as one JSON file per
// target under the models directory.
package pipeline

import (
	"fmt"
	"math"
)

// Step is one fitted preprocessing stage applied to a feature row before the
// regression head.
type Step interface {
	Apply(row []float64) ([]float64, error)
}

// transformStep applies a named legacy transform resolved at load time.
type transformStep struct {
	name string
	fn   TransformFunc
}

func (s *transformStep) Apply(row []float64) ([]float64, error) {
	return s.fn(row), nil
}

// imputeStep fills missing (NaN) values with per-column fill values fitted
// during training.
type imputeStep struct {
	fill []float64
}

func (s *imputeStep) Apply(row []float64) ([]float64, error) {
	if len(row) != len(s.fill) {
		return nil, fmt.Errorf("imputer fitted for %d columns, row has %d", len(s.fill), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			out[i] = s.fill[i]
		} else {
			out[i] = v
		}
	}
	return out, nil
}

// scaleStep standardizes each column with the mean and std fitted during
// training. A zero std maps the column to zero.
type scaleStep struct {
	mean []float64
	std  []float64
}

func (s *scaleStep) Apply(row []float64) ([]float64, error) {
	if len(row) != len(s.mean) {
		return nil, fmt.Errorf("scaler fitted for %d columns, row has %d", len(s.mean), len(row))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		if s.std[i] != 0 {
			out[i] = (v - s.mean[i]) / s.std[i]
		} else {
			out[i] = 0
		}
	}
	return out, nil
}

// linearModel is the regression head: w·x + b.
type linearModel struct {
	weights []float64
	bias    float64
}

func (m *linearModel) predict(row []float64) (float64, error) {
	if len(row) != len(m.weights) {
		return 0, fmt.Errorf("model fitted for %d features, row has %d", len(m.weights), len(row))
	}
	sum := m.bias
	for i, v := range row {
		sum += m.weights[i] * v
	}
	return sum, nil
}

// Pipeline is one deserialized inference artifact, bound to a single target.
// It is immutable after load and safe for concurrent use.
type Pipeline struct {
	target string
	steps  []Step
	model  *linearModel
}

// Target returns the prediction target this pipeline was trained for.
func (p *Pipeline) Target() string { return p.target }

// Predict runs the preprocessing steps and the regression head on one feature
// row and returns the raw (unclamped, fractional) output.
func (p *Pipeline) Predict(row []float64) (float64, error) {
	x := row
	var err error
	for _, s := range p.steps {
		x, err = s.Apply(x)
		if err != nil {
			return 0, fmt.Errorf("pipeline %s: %w", p.target, err)
		}
	}
	out, err := p.model.predict(x)
	if err != nil {
		return 0, fmt.Errorf("pipeline %s: %w", p.target, err)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("pipeline %s: non-finite output %f", p.target, out)
	}
	return out, nil
}
