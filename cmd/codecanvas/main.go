// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command codecanvas drives the six Core API operations -- init,
// ensure-loaded, refresh, resolve-call-edges, mark-dirty, and snapshot --
// against a workspace's code graph.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianFOSS/coordinate"
	"github.com/AleutianAI/AleutianFOSS/internal/config"
	"github.com/AleutianAI/AleutianFOSS/lsp"
	"github.com/AleutianAI/AleutianFOSS/pkg/logging"
	"github.com/AleutianAI/AleutianFOSS/resolver"
)

var (
	workspaceFlag string
	jsonOutput    bool

	coord *coordinate.Coordinator
	mgr   *lsp.Manager

	rootCmd = &cobra.Command{
		Use:   "codecanvas",
		Short: "Build and query a code-analysis graph for a workspace",
		Long: `codecanvas parses a workspace into MODULE/CLASS/FUNC nodes with
CONTAINS/IMPORT/CALL edges, keeps that graph in sync with the filesystem,
and publishes it as a versioned snapshot other tools can read.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupCoordinator()
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Parse the workspace and build an initial graph snapshot",
		RunE:  runInit,
	}

	ensureLoadedCmd = &cobra.Command{
		Use:   "ensure-loaded",
		Short: "Load the graph from an existing snapshot, initializing if needed",
		RunE:  runEnsureLoaded,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Apply the dirty queue's pending changes to the graph",
		RunE:  runRefresh,
	}

	resolveCmd = &cobra.Command{
		Use:   "resolve-call-edges",
		Short: "Run one Call-Graph Resolver pass and publish CALL edges",
		RunE:  runResolve,
	}

	markDirtyCmd = &cobra.Command{
		Use:   "mark-dirty [path...]",
		Short: "Enqueue one or more files for the next refresh pass",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMarkDirty,
	}

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Print the current graph's node/edge census",
		RunE:  runSnapshot,
	}

	markDirtyReason string
	foregroundFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("codecanvas: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", ".", "workspace root to analyze")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	resolveCmd.Flags().BoolVar(&foregroundFlag, "foreground", true, "use the interactive (short) budget instead of the background one")
	markDirtyCmd.Flags().StringVar(&markDirtyReason, "reason", "manual", "reason recorded against the dirty-queue entry")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ensureLoadedCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(markDirtyCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// setupCoordinator loads configuration, derives the artifact directory,
// optionally spawns a Language Session Manager, and constructs the
// Coordinator every subcommand shares.
func setupCoordinator() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	root, err := filepath.Abs(workspaceFlag)
	if err != nil {
		return fmt.Errorf("resolve workspace path: %w", err)
	}

	artifactDir, err := config.ArtifactDir(coordinate.WorkspaceHash(root))
	if err != nil {
		return fmt.Errorf("resolve artifact dir: %w", err)
	}

	logger := newLogger(config.Global.Logging)

	opts := []coordinate.Option{coordinate.WithLogger(logger)}

	if !containsString(config.Global.LSP.Disabled, "go") {
		mgr = lsp.NewManager(root, lsp.ManagerConfig{
			IdleTimeout:    config.Global.LSP.IdleTimeout,
			StartupTimeout: config.Global.LSP.StartupTimeout,
			RequestTimeout: config.Global.LSP.RequestTimeout,
		})
		mgr.StartIdleMonitor()
		opts = append(opts, coordinate.WithDefinitionResolver(lsp.NewOperations(mgr)))
	}

	coord = coordinate.New(root, artifactDir, opts...)
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root, _ := filepath.Abs(workspaceFlag)
	summary, err := coord.Init(ctx, root)
	if err != nil {
		return err
	}
	printResult(summary)
	return nil
}

func runEnsureLoaded(cmd *cobra.Command, args []string) error {
	if err := coord.EnsureLoaded(cmd.Context()); err != nil {
		return err
	}
	g, digest := coord.GraphSnapshot()
	printResult(map[string]interface{}{"digest": digest, "node_count": g.NodeCount(), "edge_count": g.EdgeCount()})
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	summary, err := coord.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	printResult(summary)
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	budget := resolver.DefaultBudget()
	d := budget.Background
	if foregroundFlag {
		d = budget.Foreground
	}
	summary, err := coord.ResolveCallEdges(cmd.Context(), d, foregroundFlag)
	if err != nil {
		return err
	}
	printResult(summary)
	return nil
}

func runMarkDirty(cmd *cobra.Command, args []string) error {
	abs := make([]string, 0, len(args))
	for _, p := range args {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", p, err)
		}
		abs = append(abs, a)
	}
	if err := coord.MarkDirty(abs, markDirtyReason); err != nil {
		return err
	}
	printResult(map[string]interface{}{"marked": len(abs)})
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	if err := coord.EnsureLoaded(cmd.Context()); err != nil {
		return err
	}
	g, digest := coord.GraphSnapshot()
	stats := g.Stats()
	printResult(map[string]interface{}{
		"digest":        digest,
		"node_count":    stats.NodeCount,
		"edge_count":    stats.EdgeCount,
		"edges_by_type": stats.EdgesByType,
		"nodes_by_kind": stats.NodesByKind,
	})
	return nil
}

func printResult(v interface{}) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Printf("%+v\n", v)
}

// newLogger builds the shared structured logger from codecanvas's config,
// via pkg/logging rather than wiring slog handlers by hand.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := logging.LevelInfo
	switch cfg.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	logDir := ""
	if cfg.File != "" {
		logDir = filepath.Dir(cfg.File)
	}

	return logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.JSON,
		Service: "codecanvas",
		LogDir:  logDir,
	}).Slog()
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
