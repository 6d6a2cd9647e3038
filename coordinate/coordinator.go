// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coordinate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianFOSS/ast"
	"github.com/AleutianAI/AleutianFOSS/cache"
	"github.com/AleutianAI/AleutianFOSS/graph"
	"github.com/AleutianAI/AleutianFOSS/index"
	"github.com/AleutianAI/AleutianFOSS/lock"
	"github.com/AleutianAI/AleutianFOSS/manifest"
	"github.com/AleutianAI/AleutianFOSS/resolver"
)

// instanceID identifies this coordinator process in persisted artifacts
// (call_edges.json's instance_id field), generated once per process.
var instanceID = uuid.NewString()

// parseWorkers bounds the concurrent file-parse fan-out during Init,
// mirroring the resolver's worker-pool concurrency contract but sized for
// CPU-bound tree-sitter parsing rather than I/O-bound LSP round trips.
const parseWorkers = 8

// skippedDirs are directory basenames Init's walk never descends into.
var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	".hg": true, ".svn": true, "dist": true, "build": true,
}

// Coordinator is the Snapshot & Refresh Coordinator: it owns the graph,
// the dirty queue, and the on-disk artifact directory, and exposes the six
// Core API operations every other CodeCanvas surface is built on.
//
// Thread Safety: safe for concurrent use. Reads (GraphSnapshot) never
// take fileLock; they take mu's read side, so they wait while an
// in-process writer holds mu (Refresh holds it while it re-parses and
// merges the claimed files). Artifact writes (publishing a fresh Init,
// persisting call edges) serialize via fileLock, a cross-process lock,
// so two coordinator processes sharing an artifact_dir never race.
type Coordinator struct {
	mu sync.RWMutex

	workspaceRoot string
	paths         artifactPaths

	parsers  *ast.ParserRegistry
	builder  *graph.Builder
	holder   *graph.GraphHolder
	funcIdx  *index.FuncRangeIndex
	resolver *resolver.Resolver
	defs     resolver.DefinitionResolver // nil disables call-edge resolution

	graphCache *cache.GraphCache
	hasher     manifest.ContentHasher
	fileLock   *lock.FileLock
	dirty      *DirtyQueue

	callSites  map[string][]ast.CallSite // file path -> call sites, refreshed by Init/Refresh
	digest     string                    // current snapshot digest, "" before Init
	generation uint64                    // bumped on every structural graph change, invalidates graphCache entries
	stripPfx   string

	logger *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDefinitionResolver wires a Language Session Manager (normally
// lsp.NewOperations(mgr)) into the coordinator's call-graph resolver. Omit
// it to run CodeCanvas with call-edge resolution disabled.
func WithDefinitionResolver(defs resolver.DefinitionResolver) Option {
	return func(c *Coordinator) { c.defs = defs }
}

// WithLabelStripPrefix sets the module-label strip prefix (spec §4.C).
func WithLabelStripPrefix(prefix string) Option {
	return func(c *Coordinator) { c.stripPfx = prefix }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// New creates a Coordinator rooted at workspaceRoot, persisting artifacts
// under artifactDir (spec §6's layout).
func New(workspaceRoot, artifactDir string, opts ...Option) *Coordinator {
	c := &Coordinator{
		workspaceRoot: workspaceRoot,
		paths:         newArtifactPaths(artifactDir),
		parsers:       ast.NewDefaultParserRegistry(),
		holder:        graph.NewGraphHolder(nil),
		funcIdx:       index.NewFuncRangeIndex(),
		graphCache:    cache.NewGraphCache(),
		hasher:        manifest.NewSHA256Hasher(manifest.DefaultMaxFileSize),
		fileLock:      lock.New(filepath.Join(artifactDir, lockFileName), instanceID),
		dirty:         NewDirtyQueue(filepath.Join(artifactDir, dirtyFileName)),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = resolver.New(c.defs, resolver.DefaultWorkers)
	c.builder = graph.NewBuilder(graph.WithProjectRoot(workspaceRoot), graph.WithLabelStripPrefix(c.stripPfx))
	return c
}

// Init performs a full workspace parse and graph build: the first Core
// API operation any CodeCanvas session runs.
func (c *Coordinator) Init(ctx context.Context, workspaceRoot string) (ParseSummary, error) {
	start := time.Now()
	c.mu.Lock()
	c.workspaceRoot = workspaceRoot
	c.mu.Unlock()

	if err := c.dirty.Load(); err != nil {
		c.logger.Warn("failed to load dirty queue", slog.String("error", err.Error()))
	}

	paths, skipped := c.walkWorkspace(workspaceRoot)
	results, parseSummary := c.parseFiles(ctx, paths)
	parseSummary.SkippedFiles = skipped

	buildResult, err := c.builder.Build(ctx, results)
	if err != nil {
		return ParseSummary{}, fmt.Errorf("coordinate: build graph: %w", err)
	}

	c.mu.Lock()
	c.holder.Set(buildResult.Graph)
	c.callSites = callSitesByFile(results)
	c.generation++
	if err := c.funcIdx.Build(buildResult.Graph); err != nil {
		c.mu.Unlock()
		return ParseSummary{}, fmt.Errorf("coordinate: build func range index: %w", err)
	}
	c.mu.Unlock()

	if err := c.publishEmpty(ctx, buildResult.Graph, parseSummary); err != nil {
		return ParseSummary{}, err
	}

	parseSummary.Digest = c.digest
	parseSummary.DurationMillis = time.Since(start).Milliseconds()
	return parseSummary, nil
}

// EnsureLoaded guarantees the in-memory graph is populated, calling Init
// if it is not. Cheap to call on every request path.
func (c *Coordinator) EnsureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.holder.Get() != nil
	root := c.workspaceRoot
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := c.Init(ctx, root)
	return err
}

// MarkDirty enqueues paths for the next Refresh pass.
func (c *Coordinator) MarkDirty(paths []string, reason string) error {
	return c.dirty.Mark(paths, reason)
}

// GraphSnapshot returns the current in-memory graph and its snapshot
// digest. Never waits on fileLock; waits only while a writer holds the
// coordinator's mutex.
func (c *Coordinator) GraphSnapshot() (*graph.Graph, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holder.Get(), c.digest
}

// Refresh claims a batch from the dirty queue, re-parses the affected
// files, swaps the updated graph in, and runs a resolver pass bounded by
// the background budget. That pass covers every file's recorded call
// sites, not only the changed files or their callers.
func (c *Coordinator) Refresh(ctx context.Context) (RefreshSummary, error) {
	start := time.Now()
	claimID, claimed := c.dirty.Claim(DefaultRefreshBatchSize)
	if len(claimed) == 0 {
		c.mu.RLock()
		digest := c.digest
		c.mu.RUnlock()
		return RefreshSummary{Digest: digest, DurationMillis: time.Since(start).Milliseconds()}, nil
	}

	failedPaths := make(map[string]string)
	var touchedPaths []string
	for _, e := range claimed {
		touchedPaths = append(touchedPaths, e.Path)
	}

	c.mu.Lock()
	g := c.holder.Get()
	if g == nil {
		c.mu.Unlock()
		return RefreshSummary{}, fmt.Errorf("coordinate: Refresh called before Init")
	}
	clone := g.Clone()

	var nodesRemoved, nodesAdded int
	newResults := make([]*ast.ParseResult, 0, len(claimed))
	for _, e := range claimed {
		removed, err := clone.RemoveFile(e.Path)
		if err != nil {
			c.logger.Warn("refresh: remove file failed", slog.String("path", e.Path), slog.String("error", err.Error()))
		}
		nodesRemoved += removed
		delete(c.callSites, e.Path)

		if _, statErr := os.Stat(e.Path); statErr != nil {
			continue // deleted file: removal above is the whole job
		}
		pr, err := c.parseOne(ctx, e.Path)
		if err != nil {
			failedPaths[e.Path] = err.Error()
			continue
		}
		newResults = append(newResults, pr)
		c.callSites[e.Path] = pr.CallSites
	}

	for _, pr := range newResults {
		added, err := c.builder.MergeFile(ctx, clone, pr)
		if err != nil {
			failedPaths[pr.FilePath] = err.Error()
			continue
		}
		nodesAdded += added
	}
	clone.Freeze()

	if err := c.funcIdx.Build(clone); err != nil {
		c.mu.Unlock()
		return RefreshSummary{}, fmt.Errorf("coordinate: rebuild func range index: %w", err)
	}
	c.holder.Set(clone)
	c.generation++
	c.mu.Unlock()

	resolveSummary, err := c.ResolveCallEdges(ctx, resolver.DefaultBudget().Background, false)
	if err != nil {
		c.logger.Warn("refresh: bounded resolver pass failed", slog.String("error", err.Error()))
	}

	if err := c.dirty.Ack(claimID, failedPaths); err != nil {
		c.logger.Warn("refresh: ack failed", slog.String("error", err.Error()))
	}

	c.mu.RLock()
	digest := c.digest
	c.mu.RUnlock()

	return RefreshSummary{
		FilesRefreshed: len(touchedPaths) - len(failedPaths),
		NodesRemoved:   nodesRemoved,
		NodesAdded:     nodesAdded,
		EdgesResolved:  resolveSummary.EdgesResolved,
		Digest:         digest,
		Partial:        resolveSummary.Partial,
		DurationMillis: time.Since(start).Milliseconds(),
	}, nil
}

// DefaultRefreshBatchSize bounds how many dirty files a single Refresh
// call claims, keeping one incremental pass inside the background budget.
const DefaultRefreshBatchSize = 50

// ResolveCallEdges runs one Call-Graph Resolver pass bounded by budget,
// merges the resulting CALL edges into the graph, and republishes
// call_edges.<D>.json. The deadline is budget either way; foreground only
// keeps foreground and background passes in separate cache entries.
//
// Concurrent callers racing against the same snapshot generation share a
// single underlying pass through graphCache: a resolve triggered by one
// interactive request and one triggered by a background catch-up timer
// for the same unchanged graph coalesce into one resolver.Resolve call
// instead of each re-walking every call site.
func (c *Coordinator) ResolveCallEdges(ctx context.Context, budget time.Duration, foreground bool) (ResolveSummary, error) {
	if c.defs == nil {
		return ResolveSummary{}, nil
	}

	c.mu.RLock()
	digest := c.digest
	generation := c.generation
	c.mu.RUnlock()

	key := fmt.Sprintf("resolve:%s:%v", digest, foreground)
	v, err := c.graphCache.GetOrCompute(ctx, key, generation, func(fnCtx context.Context, _ string, _ uint64) (interface{}, error) {
		return c.resolveCallEdgesOnce(fnCtx, budget)
	})
	if err != nil {
		return ResolveSummary{}, err
	}
	return v.(ResolveSummary), nil
}

// resolveCallEdgesOnce performs one uncached Call-Graph Resolver pass.
func (c *Coordinator) resolveCallEdgesOnce(ctx context.Context, budget time.Duration) (ResolveSummary, error) {
	start := time.Now()

	c.mu.RLock()
	g := c.holder.Get()
	callSites := c.callSites
	c.mu.RUnlock()
	if g == nil {
		return ResolveSummary{}, fmt.Errorf("coordinate: ResolveCallEdges called before Init")
	}

	rctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	result, err := c.resolver.Resolve(rctx, c.funcIdx, callSites)
	if err != nil {
		return ResolveSummary{}, err
	}

	c.mu.Lock()
	clone := c.holder.Get().Clone()
	existing := make(map[resolver.Edge]struct{})
	for _, e := range clone.GetEdgesByType(graph.EdgeTypeCall) {
		existing[resolver.Edge{FromID: e.FromID, ToID: e.ToID}] = struct{}{}
	}
	added := 0
	for _, e := range result.Edges {
		if _, dup := existing[e]; dup {
			continue
		}
		if err := clone.AddEdge(e.FromID, e.ToID, graph.EdgeTypeCall, ast.Location{}); err == nil {
			added++
		}
	}
	clone.Freeze()
	c.holder.Set(clone)
	digest := c.digest
	c.mu.Unlock()

	if digest != "" {
		if err := c.persistCallEdges(clone, digest, result.Partial); err != nil {
			c.logger.Warn("resolve_call_edges: persist failed", slog.String("error", err.Error()))
		}
	}

	return ResolveSummary{
		CallSitesExamined: result.CallSitesExamined,
		EdgesResolved:     added,
		Skipped:           result.Skipped,
		Failed:            result.Failed,
		Partial:           result.Partial,
		Digest:            digest,
		DurationMillis:    time.Since(start).Milliseconds(),
	}, nil
}

// persistCallEdges writes call_edges.<digest>.json and swaps the latest
// pointer under the cross-process file lock, the write half of the
// two-phase publish protocol for a resolver-only update (the graph's node
// set, and therefore its digest, is unchanged by resolving call edges).
func (c *Coordinator) persistCallEdges(g *graph.Graph, digest string, partial bool) error {
	acquireCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.fileLock.Acquire(acquireCtx, 5*time.Second); err != nil {
		return fmt.Errorf("coordinate: acquire lock: %w", err)
	}
	defer c.fileLock.Release()

	records := make([]CallEdgeRecord, 0, len(g.GetEdgesByType(graph.EdgeTypeCall)))
	for _, e := range g.GetEdgesByType(graph.EdgeTypeCall) {
		records = append(records, CallEdgeRecord{From: e.FromID, To: e.ToID})
	}

	cef := CallEdgesFile{
		Version:     CallEdgesSchemaVersion,
		GraphDigest: digest,
		GeneratedAt: time.Now().UnixMilli(),
		Edges:       records,
		InstanceID:  instanceID,
		Partial:     partial,
	}
	if err := writeJSONAtomic(c.paths.callEdgesDigest(digest), cef); err != nil {
		return err
	}
	if err := copyFile(c.paths.callEdgesDigest(digest), c.paths.callEdgesLatest()); err != nil {
		return err
	}

	meta, err := loadGraphMeta(c.paths)
	if err == nil && meta != nil {
		meta.Graph.Stats.CallEdges = len(records)
		meta.UpdatedBy = UpdatedByMeta{PID: os.Getpid(), Action: "resolve_call_edges"}
		_ = writeJSONAtomic(c.paths.graphMetaDigest(digest), meta)
		_ = copyFile(c.paths.graphMetaDigest(digest), c.paths.graphMetaLatest())
	}
	return nil
}

// publishEmpty runs the two-phase compute-then-commit publish protocol for
// a freshly built graph with no resolved call edges yet (spec §4.E):
// compute phase derives the snapshot digest without holding the lock,
// commit phase re-stats every module file under the lock and aborts as
// "stale compute" if anything changed since the compute phase ran.
func (c *Coordinator) publishEmpty(ctx context.Context, g *graph.Graph, ps ParseSummary) error {
	inputs := moduleLeafInputs(g)
	cfg := manifest.SnapshotConfig{
		Version: GraphMetaSchemaVersion,
		UseLSP:  c.defs != nil,
		LangSet: c.parsers.Languages(),
	}
	if c.stripPfx != "" {
		cfg.LabelStripPrefix = &c.stripPfx
	}

	digestResult, err := manifest.ComputeDigest(inputs, cfg, c.hasher)
	if err != nil {
		return fmt.Errorf("coordinate: compute digest: %w", err)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.fileLock.Acquire(acquireCtx, 5*time.Second); err != nil {
		return fmt.Errorf("coordinate: acquire lock: %w", err)
	}
	defer c.fileLock.Release()

	for _, leaf := range digestResult.Leaves {
		if leaf.Missing {
			continue
		}
		info, err := os.Stat(leaf.FSPath)
		if err != nil || info.ModTime().UnixNano() != leaf.MtimeNs || info.Size() != leaf.Size {
			return fmt.Errorf("coordinate: stale compute: %s changed during publish", leaf.FSPath)
		}
	}

	stats := g.Stats()
	meta := GraphMeta{
		Version:     GraphMetaSchemaVersion,
		ProjectPath: c.workspaceRoot,
		GeneratedAt: time.Now().UnixMilli(),
		Parser:      ParserMeta{UseLSP: cfg.UseLSP, LSPLangs: cfg.LangSet, LabelStripPrefix: c.stripPfx},
		Merkle: MerkleMeta{
			Algo:       "sha256",
			Root:       digestResult.Root,
			LeafCount:  len(digestResult.Leaves),
			Leaves:     merkleLeavesMeta(digestResult.Leaves),
			ConfigLeaf: digestResult.ConfigLeaf,
		},
		Graph: GraphStatsMeta{
			Digest: digestResult.Root,
			Stats: NodeEdgeStats{
				Modules:      stats.NodesByKind[ast.SymbolKindPackage],
				Funcs:        stats.NodesByKind[ast.SymbolKindFunction] + stats.NodesByKind[ast.SymbolKindMethod],
				ImportEdges:  stats.EdgesByType[graph.EdgeTypeImport],
				CallEdges:    stats.EdgesByType[graph.EdgeTypeCall],
				ContainEdges: stats.EdgesByType[graph.EdgeTypeContains],
			},
			ParseSummary: ParseSummaryMeta{
				ParsedFiles:     ps.ParsedFiles,
				SkippedFiles:    ps.SkippedFiles,
				LSPFiles:        ps.LSPFiles,
				TreeSitterFiles: ps.TreeSitterFiles,
				LSPFailures:     ps.LSPFailures,
			},
			SymbolFiles: len(digestResult.Leaves),
		},
		UpdatedBy: UpdatedByMeta{PID: os.Getpid(), Action: "init"},
	}

	cef := CallEdgesFile{
		Version:     CallEdgesSchemaVersion,
		GraphDigest: digestResult.Root,
		GeneratedAt: time.Now().UnixMilli(),
		Edges:       []CallEdgeRecord{},
		InstanceID:  instanceID,
	}

	snap := snapshot{g: g, digest: digestResult.Root, meta: meta, callEdges: cef, computedAt: time.Now()}
	if err := publishSnapshot(c.paths, snap); err != nil {
		return err
	}

	c.mu.Lock()
	c.digest = digestResult.Root
	c.mu.Unlock()
	return nil
}

func merkleLeavesMeta(leaves []manifest.ModuleLeaf) map[string]MerkleLeaf {
	out := make(map[string]MerkleLeaf, len(leaves))
	for _, l := range leaves {
		out[l.Label] = MerkleLeaf{FSPath: l.FSPath, MtimeNs: l.MtimeNs, Size: l.Size, Leaf: l.Leaf, Missing: l.Missing}
	}
	return out
}

func moduleLeafInputs(g *graph.Graph) []manifest.ModuleLeafInput {
	inputs := make([]manifest.ModuleLeafInput, 0, g.NodeCount())
	seen := make(map[string]bool)
	for _, node := range g.GetNodesByKind(ast.SymbolKindPackage) {
		if node.Symbol == nil || node.Symbol.Language == "external" || seen[node.Symbol.FilePath] {
			continue
		}
		seen[node.Symbol.FilePath] = true
		inputs = append(inputs, manifest.ModuleLeafInput{Label: node.Label, FSPath: node.Symbol.FilePath})
	}
	return inputs
}

// walkWorkspace returns every file whose extension a registered parser
// claims, skipping directories conventionally excluded from source
// analysis.
func (c *Coordinator) walkWorkspace(root string) (paths []string, skipped int) {
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if skippedDirs[info.Name()] && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(p)
		if _, ok := c.parsers.GetByExtension(ext); ok {
			paths = append(paths, p)
		} else {
			skipped++
		}
		return nil
	})
	return paths, skipped
}

// parseFiles parses paths across a bounded worker pool, the same
// concurrency contract the resolver applies to definition lookups: an
// I/O- or CPU-bound per-file operation must not serialize across a large
// workspace.
func (c *Coordinator) parseFiles(ctx context.Context, paths []string) ([]*ast.ParseResult, ParseSummary) {
	results := make([]*ast.ParseResult, len(paths))
	var mu sync.Mutex
	var summary ParseSummary

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			pr, err := c.parseOne(gctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.SkippedFiles++
				return nil
			}
			results[i] = pr
			summary.ParsedFiles++
			summary.TreeSitterFiles++
			return nil
		})
	}
	_ = g.Wait()

	compacted := make([]*ast.ParseResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			compacted = append(compacted, r)
		}
	}
	return compacted, summary
}

func (c *Coordinator) parseOne(ctx context.Context, path string) (*ast.ParseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parser, ok := c.parsers.GetByExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("coordinate: no parser for %s", path)
	}
	return parser.Parse(ctx, content, path)
}

func callSitesByFile(results []*ast.ParseResult) map[string][]ast.CallSite {
	out := make(map[string][]ast.CallSite, len(results))
	for _, r := range results {
		if r == nil || len(r.CallSites) == 0 {
			continue
		}
		out[r.FilePath] = r.CallSites
	}
	return out
}

// WorkspaceHash derives the directory-name component config.ArtifactDir
// uses when no artifact_dir override is configured, so two different
// workspaces never collide on ~/.codecanvas/<hash>/.
func WorkspaceHash(workspaceRoot string) string {
	abs, err := filepath.Abs(workspaceRoot)
	if err != nil {
		abs = workspaceRoot
	}
	abs = strings.TrimSuffix(abs, string(filepath.Separator))
	return fmt.Sprintf("%x", uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)))
}
