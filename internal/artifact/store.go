// Medallion - SaaS Revenue and Engagement Metrics Pipeline
// Copyright 2026 Medallion Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/medallion-analytics/medallion

// Package artifact persists each table the pipeline produces as a
// JSON-lines snapshot under the lakehouse directory, one subdirectory
// per layer (bronze/, silver/, gold/, quarantine/).
//
// Writes are atomic: the file is staged under a temporary name and
// renamed into place only when fully written, so a failing stage never
// leaves a partial table under the final name. Reruns fully overwrite
// the previous run's artifact.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/goccy/go-json"
)

// Layer names under the lakehouse root.
const (
	LayerBronze     = "bronze"
	LayerSilver     = "silver"
	LayerGold       = "gold"
	LayerQuarantine = "quarantine"
)

// Store writes table snapshots under a lakehouse root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir, creating the layer
// subdirectories as needed.
func NewStore(dir string) (*Store, error) {
	for _, layer := range []string{LayerBronze, LayerSilver, LayerGold, LayerQuarantine} {
		if err := os.MkdirAll(filepath.Join(dir, layer), 0o750); err != nil {
			return nil, fmt.Errorf("create lakehouse layer %s: %w", layer, err)
		}
	}
	return &Store{root: dir}, nil
}

// Path returns the final artifact path for a table in a layer.
func (s *Store) Path(layer, table string) string {
	return filepath.Join(s.root, layer, table+".jsonl")
}

// WriteTable snapshots rows (any slice of row structs) as JSON lines.
// A nil or empty slice writes an empty file: the table exists for every
// run even when it has no rows.
func (s *Store) WriteTable(layer, table string, rows any) error {
	v := reflect.ValueOf(rows)
	if rows != nil && v.Kind() != reflect.Slice {
		return fmt.Errorf("table %s: rows must be a slice, got %T", table, rows)
	}

	final := s.Path(layer, table)
	tmp, err := os.CreateTemp(filepath.Dir(final), "."+table+".*.tmp")
	if err != nil {
		return fmt.Errorf("stage table %s: %w", table, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if rows != nil {
		enc := json.NewEncoder(tmp)
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				tmp.Close()
				return fmt.Errorf("encode table %s row %d: %w", table, i, err)
			}
		}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush table %s: %w", table, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return fmt.Errorf("publish table %s: %w", table, err)
	}
	return nil
}
