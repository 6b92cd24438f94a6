// Package registry manages lifecycle metadata for a named model: registering
// trained runs as versions, moving versions between stages, and resolving the
// current version at a stage. The tracking store itself is external and
// authoritative; this package only forwards to it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"meps-serve/internal/pipeline"
)

// Stage is a lifecycle position a model version can occupy. Values are
// forwarded to the store as-is; the store decides what it accepts.
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

// ModelVersion describes one registered artifact of a named model.
type ModelVersion struct {
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	CurrentStage Stage     `json:"current_stage"`
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackingStore is the external version store consumed by the registry.
type TrackingStore interface {
	CreateVersion(ctx context.Context, name, runRef, runID string) (ModelVersion, error)
	SetStage(ctx context.Context, name string, version int, stage Stage) error
	ListVersions(ctx context.Context, name string) ([]ModelVersion, error)
}

// ErrNoVersionAtStage is the expected outcome of FetchLatest when no version
// occupies the requested stage. It is distinct from a store failure.
var ErrNoVersionAtStage = errors.New("no model version at stage")

// ArtifactLoader deserializes the pipeline set referenced by a version's
// source location.
type ArtifactLoader func(source string) (map[string]*pipeline.Pipeline, error)

// Registry is a thin lifecycle manager over a tracking store, keyed by a
// fixed model name.
type Registry struct {
	name   string
	store  TrackingStore
	loader ArtifactLoader
}

// New creates a registry for modelName. loader may be nil if FetchLatest is
// not used.
func New(modelName string, store TrackingStore, loader ArtifactLoader) *Registry {
	return &Registry{name: modelName, store: store, loader: loader}
}

// Register creates a new version pointing at the artifact produced by runID.
// A store failure is returned to the caller, never escalated further.
func (r *Registry) Register(ctx context.Context, runID string) (ModelVersion, error) {
	runRef := fmt.Sprintf("runs:/%s/model", runID)
	mv, err := r.store.CreateVersion(ctx, r.name, runRef, runID)
	if err != nil {
		log.Error().Err(err).Str("model", r.name).Str("run_id", runID).Msg("model registration failed")
		return ModelVersion{}, fmt.Errorf("register model %s run %s: %w", r.name, runID, err)
	}
	log.Info().Str("model", r.name).Int("version", mv.Version).Str("run_id", runID).Msg("model registered")
	return mv, nil
}

// TransitionStage asks the store to move version to stage. No local stage
// validation happens here, and previous occupants of the target stage are not
// demoted; an unsupported stage is the store's error to raise.
func (r *Registry) TransitionStage(ctx context.Context, version int, stage Stage) error {
	if err := r.store.SetStage(ctx, r.name, version, stage); err != nil {
		log.Error().Err(err).Str("model", r.name).Int("version", version).Str("stage", string(stage)).Msg("stage transition failed")
		return fmt.Errorf("transition %s v%d to %s: %w", r.name, version, stage, err)
	}
	log.Info().Str("model", r.name).Int("version", version).Str("stage", string(stage)).Msg("stage transitioned")
	return nil
}

// List returns every version the store knows for this model name, in the
// store's listing order.
func (r *Registry) List(ctx context.Context) ([]ModelVersion, error) {
	versions, err := r.store.ListVersions(ctx, r.name)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", r.name, err)
	}
	return versions, nil
}

// FetchLatest scans the store's version listing and returns the first version
// at the given stage, together with the pipeline set loaded from its source.
// The scan order is whatever the store's listing yields; when several
// versions share a stage this is not necessarily the most recently promoted
// one. No version at the stage is reported as ErrNoVersionAtStage; a store
// failure is reported as such.
func (r *Registry) FetchLatest(ctx context.Context, stage Stage) (ModelVersion, map[string]*pipeline.Pipeline, error) {
	versions, err := r.store.ListVersions(ctx, r.name)
	if err != nil {
		return ModelVersion{}, nil, fmt.Errorf("list versions for %s: %w", r.name, err)
	}

	for _, mv := range versions {
		if mv.CurrentStage != stage {
			continue
		}
		var pipes map[string]*pipeline.Pipeline
		if r.loader != nil {
			pipes, err = r.loader(mv.Source)
			if err != nil {
				return ModelVersion{}, nil, fmt.Errorf("load artifact for %s v%d: %w", r.name, mv.Version, err)
			}
		}
		log.Info().Str("model", r.name).Int("version", mv.Version).Str("stage", string(stage)).Msg("fetched latest model at stage")
		return mv, pipes, nil
	}

	return ModelVersion{}, nil, fmt.Errorf("model %s stage %s: %w", r.name, stage, ErrNoVersionAtStage)
}
