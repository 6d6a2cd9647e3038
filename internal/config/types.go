// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package config provides configuration types and loading for CodeCanvas.

# Overview

This package defines the configuration schema for CodeCanvas: where
snapshot artifacts are written, how the Language Session Manager starts
and retires language servers, and the default budgets the Call-Graph
Resolver applies when none are supplied by the caller.

# Configuration File

The configuration is stored at ~/.codecanvas/config.yaml and is created
automatically on first run with sensible defaults.
*/
package config

import "time"

// CurrentConfigVersion is the current configuration schema version.
const CurrentConfigVersion = "1.0.0"

// Config is the root configuration structure for CodeCanvas.
type Config struct {
	// Meta contains versioning and audit information.
	Meta ConfigMeta `yaml:"meta"`

	// ArtifactDir overrides the snapshot artifact directory. Empty means
	// derive ~/.codecanvas/<workspace-hash>/ at call time.
	ArtifactDir string `yaml:"artifact_dir,omitempty"`

	// LSP configures the Language Session Manager.
	LSP LSPConfig `yaml:"lsp"`

	// Resolver configures the Call-Graph Resolver's default budgets and
	// concurrency.
	Resolver ResolverConfig `yaml:"resolver"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// ConfigMeta contains metadata for configuration versioning and auditing.
type ConfigMeta struct {
	// Version is the configuration schema version, used for migration
	// when the schema changes.
	Version string `yaml:"version"`

	// CreatedAt is the Unix millisecond timestamp when config was created.
	CreatedAt int64 `yaml:"created_at"`

	// ModifiedAt is the Unix millisecond timestamp when config was last
	// modified.
	ModifiedAt int64 `yaml:"modified_at"`
}

// CreatedAtTime returns CreatedAt as a time.Time.
func (m *ConfigMeta) CreatedAtTime() time.Time { return time.UnixMilli(m.CreatedAt) }

// LSPConfig configures language server lifecycle.
type LSPConfig struct {
	// IdleTimeout is how long a server may sit idle before Manager shuts
	// it down. 0 disables idle shutdown.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// StartupTimeout bounds how long Manager waits for a server to
	// complete the initialize handshake.
	StartupTimeout time.Duration `yaml:"startup_timeout"`

	// RequestTimeout is the default per-request timeout applied when a
	// caller doesn't supply its own context deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Disabled lists language identifiers for which CodeCanvas should
	// never spawn a server, even if one is configured and installed.
	Disabled []string `yaml:"disabled,omitempty"`
}

// ResolverConfig configures the Call-Graph Resolver's defaults.
type ResolverConfig struct {
	// ForegroundBudget bounds a synchronous resolve_call_edges call made
	// on the foreground (interactive) path.
	ForegroundBudget time.Duration `yaml:"foreground_budget"`

	// BackgroundBudget bounds a resolve_call_edges call made on the
	// background (best-effort warm-up) path.
	BackgroundBudget time.Duration `yaml:"background_budget"`

	// Workers is the size of the concurrent definition-lookup worker
	// pool. Spec.md requires at least 16.
	Workers int `yaml:"workers"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// JSON selects JSON-formatted output (production) over human-
	// readable text output (development).
	JSON bool `yaml:"json"`

	// File, if set, additionally writes JSON logs to this path.
	File string `yaml:"file,omitempty"`
}

// DefaultConfig returns the default CodeCanvas configuration.
func DefaultConfig() Config {
	now := time.Now().UnixMilli()
	return Config{
		Meta: ConfigMeta{
			Version:    CurrentConfigVersion,
			CreatedAt:  now,
			ModifiedAt: now,
		},
		LSP: LSPConfig{
			IdleTimeout:    10 * time.Minute,
			StartupTimeout: 30 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Resolver: ResolverConfig{
			ForegroundBudget: 500 * time.Millisecond,
			BackgroundBudget: 30 * time.Second,
			Workers:          16,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
