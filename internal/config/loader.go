// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is the process-wide configuration singleton, populated by
	// Load.
	Global Config
	once   sync.Once
	loadErr error
)

// Load ensures the config is loaded into Global, reading
// ~/.codecanvas/config.yaml and creating it with defaults on first run.
// Safe to call repeatedly; only the first call does I/O.
func Load() error {
	once.Do(func() {
		loadErr = loadInternal()
	})
	return loadErr
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".codecanvas", "config.yaml"), nil
}

func loadInternal() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applyEnvOverrides(&Global)
	return nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: failed to create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("config: failed to marshal defaults: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets a small set of environment variables override
// file-sourced config, the way the teacher's CLI layers env on top of
// aleutian.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODECANVAS_ARTIFACT_DIR"); v != "" {
		cfg.ArtifactDir = v
	}
	if v := os.Getenv("CODECANVAS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// ArtifactDir resolves the snapshot artifact root for a workspace,
// following §6's precedence: explicit env var, then config-file
// setting, then a workspace-hash subdirectory under ~/.codecanvas/.
func ArtifactDir(workspaceHash string) (string, error) {
	if v := os.Getenv("CODECANVAS_ARTIFACT_DIR"); v != "" {
		return v, nil
	}
	if Global.ArtifactDir != "" {
		return Global.ArtifactDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".codecanvas", workspaceHash), nil
}
