// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists per-model documents under the XDG data
// directory: one cached Modelfile text and one model-info JSON document
// per model name.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/djinn-tui/internal/api"
	"github.com/jeranaias/djinn-tui/internal/util"
)

// ErrNotCached is returned when no document exists for the model.
var ErrNotCached = errors.New("model not cached")

const (
	modelfileDir = "modelfile"
	modelinfoDir = "modelinfo"
	modelfileExt = ".Modelfile"
)

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the per-model document caches. All writes are
// atomic; a crash never leaves a partially written document.
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// =============================================================================
// MODELFILE CACHE
// =============================================================================

// ModelfilePath returns the cache path for a model's Modelfile document.
func (s *Store) ModelfilePath(name string) string {
	return filepath.Join(s.dataDir, modelfileDir, sanitizeName(name)+modelfileExt)
}

// SaveModelfile caches the Modelfile text for a model.
func (s *Store) SaveModelfile(name, text string) error {
	if err := util.AtomicWriteFile(s.ModelfilePath(name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to cache modelfile for %s: %w", name, err)
	}
	return nil
}

// LoadModelfile returns the cached Modelfile text for a model.
func (s *Store) LoadModelfile(name string) (string, error) {
	data, err := os.ReadFile(s.ModelfilePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotCached
		}
		return "", fmt.Errorf("failed to read cached modelfile for %s: %w", name, err)
	}
	return string(data), nil
}

// ListModelfiles returns the model names with a cached Modelfile.
func (s *Store) ListModelfiles() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, modelfileDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), modelfileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), modelfileExt))
	}
	return names, nil
}

// =============================================================================
// MODEL INFO CACHE
// =============================================================================

// ModelInfoPath returns the cache path for a model's info document.
func (s *Store) ModelInfoPath(name string) string {
	return filepath.Join(s.dataDir, modelinfoDir, sanitizeName(name)+".json")
}

// SaveModelInfo caches a show response for a model.
func (s *Store) SaveModelInfo(name string, info *api.ShowResponse) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model info for %s: %w", name, err)
	}
	if err := util.AtomicWriteFile(s.ModelInfoPath(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to cache model info for %s: %w", name, err)
	}
	return nil
}

// LoadModelInfo returns the cached show response for a model.
func (s *Store) LoadModelInfo(name string) (*api.ShowResponse, error) {
	data, err := os.ReadFile(s.ModelInfoPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("failed to read cached model info for %s: %w", name, err)
	}

	var info api.ShowResponse
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode cached model info for %s: %w", name, err)
	}
	return &info, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// sanitizeName maps a model reference onto a safe file name. Registry
// separators and tag colons become dashes ("library/mistral:7b" →
// "library-mistral-7b").
func sanitizeName(name string) string {
	r := strings.NewReplacer("/", "-", ":", "-", "\\", "-", "..", "-")
	return r.Replace(name)
}
