package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"meps-serve/internal/schema"
)

// Load failure causes. Both are fatal to a load attempt; callers distinguish
// them with errors.Is.
var (
	ErrArtifactMissing = errors.New("artifact file missing")
	ErrArtifactCorrupt = errors.New("artifact corrupt")
)

// Artifact is the on-disk JSON form of one saved pipeline.
type Artifact struct {
	Target        string     `json:"target"`
	SchemaVersion int        `json:"schema_version"`
	Columns       []string   `json:"columns"`
	Steps         []StepSpec `json:"steps"`
	Model         ModelSpec  `json:"model"`
}

// StepSpec describes one preprocessing stage. Fields are populated per Kind.
type StepSpec struct {
	Kind   string    `json:"kind"`             // transform, impute, scale
	Name   string    `json:"name,omitempty"`   // transform: legacy symbol name
	Values []float64 `json:"values,omitempty"` // impute: per-column fill values
	Mean   []float64 `json:"mean,omitempty"`   // scale
	Std    []float64 `json:"std,omitempty"`    // scale
}

// ModelSpec describes the regression head.
type ModelSpec struct {
	Kind    string    `json:"kind"` // linear
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// ArtifactPath returns the conventional file location for a target's pipeline.
func ArtifactPath(dir, target string) string {
	return filepath.Join(dir, fmt.Sprintf("model_%s.json", target))
}

// LoadFile reads and decodes one artifact, binding it to target. Decoding
// validates the target binding, the column schema, the vector lengths, and
// resolves named transforms through the symbol table; any violation is an
// ErrArtifactCorrupt.
func LoadFile(path, target string, symbols *SymbolTable) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}

	p, err := decode(&art, target, symbols)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	return p, nil
}

func decode(art *Artifact, target string, symbols *SymbolTable) (*Pipeline, error) {
	if art.Target != target {
		return nil, fmt.Errorf("artifact bound to target %q, expected %q", art.Target, target)
	}
	if len(art.Columns) != len(schema.Columns) {
		return nil, fmt.Errorf("artifact has %d columns, schema has %d", len(art.Columns), len(schema.Columns))
	}
	for i, c := range art.Columns {
		if c != schema.Columns[i] {
			return nil, fmt.Errorf("column %d is %q, schema expects %q", i, c, schema.Columns[i])
		}
	}

	n := len(schema.Columns)
	steps := make([]Step, 0, len(art.Steps))
	for i, spec := range art.Steps {
		switch spec.Kind {
		case "transform":
			fn, err := symbols.Resolve(spec.Name)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			steps = append(steps, &transformStep{name: spec.Name, fn: fn})
		case "impute":
			if len(spec.Values) != n {
				return nil, fmt.Errorf("step %d: imputer has %d fill values, expected %d", i, len(spec.Values), n)
			}
			steps = append(steps, &imputeStep{fill: spec.Values})
		case "scale":
			if len(spec.Mean) != n || len(spec.Std) != n {
				return nil, fmt.Errorf("step %d: scaler has %d/%d values, expected %d", i, len(spec.Mean), len(spec.Std), n)
			}
			steps = append(steps, &scaleStep{mean: spec.Mean, std: spec.Std})
		default:
			return nil, fmt.Errorf("step %d: unknown kind %q", i, spec.Kind)
		}
	}

	if art.Model.Kind != "linear" {
		return nil, fmt.Errorf("unknown model kind %q", art.Model.Kind)
	}
	if len(art.Model.Weights) != n {
		return nil, fmt.Errorf("model has %d weights, expected %d", len(art.Model.Weights), n)
	}

	return &Pipeline{
		target: target,
		steps:  steps,
		model:  &linearModel{weights: art.Model.Weights, bias: art.Model.Bias},
	}, nil
}

// LoadDir loads the pipeline for every known target from dir. Any missing or
// undecodable artifact aborts the whole load; a partial pipeline set is never
// returned.
func LoadDir(dir string, symbols *SymbolTable) (map[string]*Pipeline, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: models directory %s", ErrArtifactMissing, dir)
		}
		return nil, fmt.Errorf("stat models directory %s: %w", dir, err)
	}

	pipes := make(map[string]*Pipeline, len(schema.Targets))
	for _, target := range schema.Targets {
		p, err := LoadFile(ArtifactPath(dir, target), target, symbols)
		if err != nil {
			return nil, err
		}
		pipes[target] = p
	}

	log.Info().Str("dir", dir).Int("pipelines", len(pipes)).Msg("pipelines loaded")
	return pipes, nil
}
