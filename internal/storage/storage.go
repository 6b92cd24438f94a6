// Package storage provides a file-backed model tracking store using BoltDB.
// It implements the registry's TrackingStore interface for deployments that
// run without an external tracking server (local development, CI, air-gapped
// installs). Versions are stored per model name with a monotonically
// increasing version number.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"meps-serve/internal/registry"
)

const versionsBucket = "model_versions" // Bucket name for version records

// Store is a BoltDB-backed tracking store. BoltDB serializes writers, which
// covers the basic mutual exclusion the registry needs for local caching.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the tracking database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "meps-tracking.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(versionsBucket)); err != nil {
			return fmt.Errorf("create versions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// versionKey formats the bucket key for one version record. Zero-padding the
// version keeps the cursor's lexicographic order equal to creation order,
// which is the listing order ListVersions provides.
func versionKey(name string, version int) []byte {
	return []byte(fmt.Sprintf("%s/%010d", name, version))
}

// CreateVersion appends a new version record for name. The version number is
// one greater than the highest existing version for that name.
func (s *Store) CreateVersion(ctx context.Context, name, runRef, runID string) (registry.ModelVersion, error) {
	var mv registry.ModelVersion

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(versionsBucket))

		next := 1
		c := b.Cursor()
		prefix := []byte(name + "/")
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			next++
		}

		mv = registry.ModelVersion{
			Name:         name,
			Version:      next,
			CurrentStage: registry.StageNone,
			RunID:        runID,
			Source:       runRef,
			Status:       "READY",
			CreatedAt:    time.Now().UTC(),
		}

		data, err := json.Marshal(mv)
		if err != nil {
			return fmt.Errorf("marshal version: %w", err)
		}
		return b.Put(versionKey(name, next), data)
	})
	if err != nil {
		return registry.ModelVersion{}, err
	}
	return mv, nil
}

// SetStage rewrites the stage of one version record. The stage value is
// stored as given; this store accepts any value.
func (s *Store) SetStage(ctx context.Context, name string, version int, stage registry.Stage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(versionsBucket))

		key := versionKey(name, version)
		data := b.Get(key)
		if data == nil {
			return fmt.Errorf("model %s version %d not found", name, version)
		}

		var mv registry.ModelVersion
		if err := json.Unmarshal(data, &mv); err != nil {
			return fmt.Errorf("unmarshal version: %w", err)
		}

		mv.CurrentStage = stage
		updated, err := json.Marshal(mv)
		if err != nil {
			return fmt.Errorf("marshal version: %w", err)
		}
		return b.Put(key, updated)
	})
}

// ListVersions returns every version record for name in creation order.
func (s *Store) ListVersions(ctx context.Context, name string) ([]registry.ModelVersion, error) {
	var versions []registry.ModelVersion

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(versionsBucket))
		c := b.Cursor()

		prefix := []byte(name + "/")
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var mv registry.ModelVersion
			if err := json.Unmarshal(v, &mv); err != nil {
				continue // Skip malformed records
			}
			versions = append(versions, mv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func hasPrefix(data, prefix []byte) bool {
	return bytes.HasPrefix(data, prefix)
}
