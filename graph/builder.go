// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianFOSS/ast"
)

// ProgressPhase indicates which phase of building is in progress.
type ProgressPhase int

const (
	// ProgressPhaseCollecting indicates MODULE/CLASS/FUNC nodes are being created.
	ProgressPhaseCollecting ProgressPhase = iota

	// ProgressPhaseExtractingEdges indicates CONTAINS/IMPORT edges are being created.
	ProgressPhaseExtractingEdges

	// ProgressPhaseFinalizing indicates the graph is being finalized.
	ProgressPhaseFinalizing
)

// String returns the string representation of the ProgressPhase.
func (p ProgressPhase) String() string {
	switch p {
	case ProgressPhaseCollecting:
		return "collecting"
	case ProgressPhaseExtractingEdges:
		return "extracting_edges"
	case ProgressPhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// BuildProgress contains progress information during a build.
type BuildProgress struct {
	Phase          ProgressPhase
	FilesTotal     int
	FilesProcessed int
	NodesCreated   int
	EdgesCreated   int
}

// ProgressFunc is a callback function for build progress updates.
type ProgressFunc func(progress BuildProgress)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// ProjectRoot is the absolute path to the workspace root directory.
	ProjectRoot string

	// LabelStripPrefix is stripped from a file's workspace-relative path
	// before it becomes a module label, when the workspace contains
	// exactly one project-root subtree (see spec §4.C). Empty means no
	// additional stripping beyond the workspace root itself.
	LabelStripPrefix string

	// ProgressCallback is called periodically with build progress. May be nil.
	ProgressCallback ProgressFunc

	// MaxNodes is the maximum number of nodes (passed to Graph).
	MaxNodes int

	// MaxEdges is the maximum number of edges (passed to Graph).
	MaxEdges int
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithProjectRoot sets the workspace root path.
func WithProjectRoot(root string) BuilderOption {
	return func(o *BuilderOptions) {
		o.ProjectRoot = root
	}
}

// WithLabelStripPrefix sets the single-project-root-subtree label prefix.
func WithLabelStripPrefix(prefix string) BuilderOption {
	return func(o *BuilderOptions) {
		o.LabelStripPrefix = prefix
	}
}

// WithProgressCallback sets the progress callback function.
func WithProgressCallback(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) {
		o.ProgressCallback = fn
	}
}

// WithBuilderMaxNodes sets the maximum number of nodes.
func WithBuilderMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxNodes = n
	}
}

// WithBuilderMaxEdges sets the maximum number of edges.
func WithBuilderMaxEdges(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.MaxEdges = n
	}
}

// Builder constructs code graphs from parsed AST results.
//
// The builder is stateless and can be reused across multiple builds.
// Each Build() call creates a new graph; MergeFile() merges a single
// file's parse result into an existing, still-building graph (used by
// the refresher for incremental updates).
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build()/MergeFile() call
//	operates on its own buildState.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a new Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Builder{options: options}
}

// containEdge is a queued CONTAINS edge, applied during the edge phase
// once all of a file's nodes exist (a child can be collected before the
// enclosing class finishes registering its own node, for deeply nested
// symbol trees).
type containEdge struct {
	parentID string
	childID  string
	loc      ast.Location
}

// buildState holds mutable state during a single build or merge operation.
type buildState struct {
	graph             *Graph
	result            *BuildResult
	moduleLabelByPath map[string]string   // file path -> module label
	moduleIDByPackage map[string][]string // label's directory base name -> module IDs
	pendingContains   []containEdge
	mu                sync.Mutex // protects placeholder creation races
	startTime         time.Time
}

// Build constructs a fresh graph from the given parse results.
//
// Build Phases:
//
//  1. COLLECT: one MODULE node per file, plus CLASS/FUNC nodes for
//     non-noise symbols.
//  2. EXTRACT EDGES: CONTAINS edges from definition nesting, IMPORT
//     edges from each file's import statements.
//  3. FINALIZE: freeze the graph.
func (b *Builder) Build(ctx context.Context, results []*ast.ParseResult) (*BuildResult, error) {
	ctx, span := startBuildSpan(ctx, len(results))
	defer span.End()

	state := &buildState{
		graph: NewGraph(b.options.ProjectRoot,
			WithMaxNodes(b.options.MaxNodes),
			WithMaxEdges(b.options.MaxEdges),
		),
		result: &BuildResult{
			FileErrors: make([]FileError, 0),
			EdgeErrors: make([]EdgeError, 0),
		},
		moduleLabelByPath: make(map[string]string),
		moduleIDByPackage: make(map[string][]string),
		startTime:         time.Now(),
	}
	state.result.Graph = state.graph

	collectErr := b.collectPhase(ctx, state, results)
	var extractErr error
	if collectErr == nil {
		extractErr = b.extractEdgesPhase(ctx, state, results)
	}

	if collectErr != nil || extractErr != nil {
		state.result.Incomplete = true
		state.result.Stats.DurationMilli = time.Since(state.startTime).Milliseconds()
		setBuildSpanResult(span, state.result.Stats.NodesCreated, state.result.Stats.EdgesCreated, true)
		recordBuildMetrics(ctx, time.Since(state.startTime), state.result.Stats.NodesCreated, state.result.Stats.EdgesCreated, false)
		return state.result, nil
	}

	state.graph.Freeze()
	state.result.Stats.DurationMilli = time.Since(state.startTime).Milliseconds()
	b.reportProgress(state, ProgressPhaseFinalizing, len(results), len(results))

	setBuildSpanResult(span, state.result.Stats.NodesCreated, state.result.Stats.EdgesCreated, false)
	recordBuildMetrics(ctx, time.Since(state.startTime), state.result.Stats.NodesCreated, state.result.Stats.EdgesCreated, true)

	return state.result, nil
}

// MergeFile parses a single file's result into an already-building graph,
// adding its MODULE/CLASS/FUNC nodes and CONTAINS/IMPORT edges. The graph
// must not be frozen. Used by the refresher for incremental updates: the
// caller first removes the file's prior contribution via Graph.RemoveFile.
func (b *Builder) MergeFile(ctx context.Context, g *Graph, r *ast.ParseResult) (int, error) {
	if g.IsFrozen() {
		return 0, ErrGraphFrozen
	}
	if err := b.validateParseResult(r); err != nil {
		return 0, err
	}

	state := &buildState{
		graph:             g,
		result:            &BuildResult{FileErrors: make([]FileError, 0), EdgeErrors: make([]EdgeError, 0)},
		moduleLabelByPath: make(map[string]string),
		moduleIDByPackage: b.rebuildPackageIndex(g),
		startTime:         time.Now(),
	}

	b.collectFile(state, r)
	b.extractFileEdges(state, r)

	return state.result.Stats.NodesCreated, nil
}

// rebuildPackageIndex reconstructs the package-name -> module-ID index
// from a graph's existing MODULE nodes, for import resolution during an
// incremental single-file merge.
func (b *Builder) rebuildPackageIndex(g *Graph) map[string][]string {
	idx := make(map[string][]string)
	for _, node := range g.GetNodesByKind(ast.SymbolKindPackage) {
		if node.Symbol == nil {
			continue
		}
		pkg := packageNameForLabel(node.Label)
		if pkg != "" {
			idx[pkg] = append(idx[pkg], node.ID)
		}
	}
	return idx
}

// packageNameForLabel derives a coarse "package name" from a module label
// (its containing directory's base name), used only as a best-effort
// import-resolution key, mirroring the teacher's name-based
// resolveSymbolByName/samePackage heuristics.
func packageNameForLabel(label string) string {
	dir := filepath.Dir(label)
	if dir == "." || dir == "/" {
		return ""
	}
	return filepath.Base(dir)
}

// collectPhase validates parse results and adds MODULE/CLASS/FUNC nodes.
func (b *Builder) collectPhase(ctx context.Context, state *buildState, results []*ast.ParseResult) error {
	for i, r := range results {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.validateParseResult(r); err != nil {
			filePath := fmt.Sprintf("result[%d]", i)
			if r != nil {
				filePath = r.FilePath
			}
			state.result.FileErrors = append(state.result.FileErrors, FileError{FilePath: filePath, Err: err})
			state.result.Stats.FilesFailed++
			continue
		}

		b.collectFile(state, r)
		state.result.Stats.FilesProcessed++
		b.reportProgress(state, ProgressPhaseCollecting, len(results), i+1)
	}

	return nil
}

// collectFile creates the MODULE node for one parsed file and its
// CLASS/FUNC descendants, queuing CONTAINS edges for the edge phase.
func (b *Builder) collectFile(state *buildState, r *ast.ParseResult) {
	label := ModuleLabel(b.options.ProjectRoot, b.options.LabelStripPrefix, r.FilePath)
	moduleID := ModuleID(label)

	moduleSym := &ast.Symbol{
		ID:        moduleID,
		Name:      filepath.Base(label),
		Kind:      ast.SymbolKindPackage,
		FilePath:  r.FilePath,
		Language:  r.Language,
		Package:   r.Package,
		StartLine: 1,
		EndLine:   1,
	}

	if _, err := state.graph.AddNode(moduleID, label, moduleSym); err != nil {
		// Already present (duplicate parse of the same file) - reuse it.
		if _, exists := state.graph.GetNode(moduleID); !exists {
			state.result.FileErrors = append(state.result.FileErrors, FileError{FilePath: r.FilePath, Err: err})
			return
		}
	} else {
		state.result.Stats.NodesCreated++
	}

	state.moduleLabelByPath[r.FilePath] = label
	if r.Package != "" {
		pkg := packageNameForLabel(label)
		state.moduleIDByPackage[pkg] = appendUnique(state.moduleIDByPackage[pkg], moduleID)
	}

	b.collectSymbols(state, label, moduleID, r.Symbols, "")
}

// collectSymbols recursively adds CLASS/FUNC nodes for a file's symbol
// tree, applying the default noise filter (constants, variables, enum
// members, and similar declarations are discarded; class-owned
// function-like members are kept).
func (b *Builder) collectSymbols(state *buildState, moduleLabel, parentID string, symbols []*ast.Symbol, qualPrefix string) {
	for _, sym := range symbols {
		if sym == nil {
			continue
		}

		qualname := sym.Name
		if sym.Kind == ast.SymbolKindMethod && sym.Receiver != "" {
			qualname = strings.TrimPrefix(sym.Receiver, "*") + "." + sym.Name
		} else if qualPrefix != "" {
			qualname = qualPrefix + "." + sym.Name
		}

		nextParent := parentID
		nextPrefix := qualPrefix

		switch graphKindFor(sym.Kind) {
		case nodeKindClass:
			id := ClassID(moduleLabel, qualname)
			if _, err := state.graph.AddNode(id, moduleLabel+":"+qualname, sym); err == nil {
				state.result.Stats.NodesCreated++
				state.pendingContains = append(state.pendingContains, containEdge{parentID: parentID, childID: id, loc: sym.Location()})
			}
			nextParent = id
			nextPrefix = qualname

		case nodeKindFunc:
			id := FuncID(moduleLabel, qualname)
			if _, err := state.graph.AddNode(id, moduleLabel+":"+qualname, sym); err == nil {
				state.result.Stats.NodesCreated++
				state.pendingContains = append(state.pendingContains, containEdge{parentID: parentID, childID: id, loc: sym.Location()})
			}
			// FUNC nodes do not contain further FUNC/CLASS children in
			// spec's model; still recurse so nested locals aren't lost
			// silently, but keep them attached to the enclosing func's
			// parent rather than manufacturing FUNC-under-FUNC CONTAINS.
		}

		if len(sym.Children) > 0 {
			b.collectSymbols(state, moduleLabel, nextParent, sym.Children, nextPrefix)
		}
	}
}

// node kind classification used only internally by the builder to decide
// CLASS vs FUNC vs noise; the graph itself has no separate "kind" field
// beyond the Symbol it wraps and the id prefix assigned by identity.go.
type nodeKind int

const (
	nodeKindNone nodeKind = iota
	nodeKindClass
	nodeKindFunc
)

func graphKindFor(kind ast.SymbolKind) nodeKind {
	switch kind {
	case ast.SymbolKindStruct, ast.SymbolKindClass, ast.SymbolKindInterface, ast.SymbolKindEnum:
		return nodeKindClass
	case ast.SymbolKindFunction, ast.SymbolKindMethod, ast.SymbolKindProperty:
		return nodeKindFunc
	default:
		return nodeKindNone
	}
}

// extractEdgesPhase creates CONTAINS and IMPORT edges for all files.
func (b *Builder) extractEdgesPhase(ctx context.Context, state *buildState, results []*ast.ParseResult) error {
	for i, r := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r == nil {
			continue
		}

		b.extractFileEdges(state, r)
		b.reportProgress(state, ProgressPhaseExtractingEdges, len(results), i+1)
	}

	return nil
}

// extractFileEdges creates IMPORT edges for one file. CONTAINS edges are
// queued during collection and flushed once per Build()/MergeFile() call
// via flushContainsEdges, after every node they might reference exists.
func (b *Builder) extractFileEdges(state *buildState, r *ast.ParseResult) {
	b.extractImportEdges(state, r)
	b.flushContainsEdges(state)
}

// flushContainsEdges drains any queued CONTAINS edges, skipping ones
// whose endpoints didn't survive collection (e.g. a duplicate add).
func (b *Builder) flushContainsEdges(state *buildState) {
	if len(state.pendingContains) == 0 {
		return
	}

	created := 0
	for _, ce := range state.pendingContains {
		if err := state.graph.AddEdge(ce.parentID, ce.childID, EdgeTypeContains, ce.loc); err != nil {
			state.result.EdgeErrors = append(state.result.EdgeErrors, EdgeError{
				FromID: ce.parentID, ToID: ce.childID, EdgeType: EdgeTypeContains, Err: err,
			})
			continue
		}
		state.result.Stats.EdgesCreated++
		created++
	}
	recordContainsEdgeMetrics(context.Background(), created)
	state.pendingContains = state.pendingContains[:0]
}

// extractImportEdges creates IMPORT edges from a file's MODULE node to
// every module it imports, resolving to an existing local module by
// its label's directory base name where possible and otherwise creating (or
// reusing) a synthetic external-module placeholder.
func (b *Builder) extractImportEdges(state *buildState, r *ast.ParseResult) {
	fromLabel, ok := state.moduleLabelByPath[r.FilePath]
	if !ok {
		return
	}
	fromID := ModuleID(fromLabel)

	created, failed := 0, 0
	for _, imp := range r.Imports {
		toID := b.resolveImportTarget(state, imp.Path)

		if err := state.graph.AddEdge(fromID, toID, EdgeTypeImport, imp.Location); err != nil {
			state.result.EdgeErrors = append(state.result.EdgeErrors, EdgeError{
				FromID: fromID, ToID: toID, EdgeType: EdgeTypeImport, Err: err,
			})
			failed++
			continue
		}
		state.result.Stats.EdgesCreated++
		created++
	}
	recordImportEdgeMetrics(context.Background(), created, failed)
}

// resolveImportTarget maps an import specifier to a MODULE node id,
// preferring an already-collected local module whose label's directory
// base name matches the import's last path segment, and otherwise creating a
// synthetic external-module placeholder (spec §3: "unresolved targets
// point to a synthetic external module id derived from the import
// specifier").
func (b *Builder) resolveImportTarget(state *buildState, importPath string) string {
	pkgName := lastPathSegment(importPath)
	if ids, ok := state.moduleIDByPackage[pkgName]; ok && len(ids) > 0 {
		return ids[0]
	}
	return b.getOrCreateExternalModule(state, importPath)
}

// getOrCreateExternalModule returns the placeholder MODULE node id for an
// unresolved import specifier, creating it if this is the first reference.
func (b *Builder) getOrCreateExternalModule(state *buildState, importPath string) string {
	label := "external:" + importPath
	id := ModuleID(label)

	state.mu.Lock()
	defer state.mu.Unlock()

	if _, exists := state.graph.GetNode(id); exists {
		return id
	}

	placeholder := &ast.Symbol{
		ID:        id,
		Name:      importPath,
		Kind:      ast.SymbolKindPackage,
		FilePath:  label,
		Language:  "external",
		StartLine: 1,
		EndLine:   1,
	}

	if _, err := state.graph.AddNode(id, label, placeholder); err != nil {
		// Lost a creation race against a concurrent caller - fine, the
		// node already exists under this id.
		return id
	}

	state.result.Stats.PlaceholderNodes++
	recordPlaceholderMetrics(context.Background(), 1)
	return id
}

// lastPathSegment returns the final "/"-delimited component of an import
// specifier, used as a best-effort package-name match.
func lastPathSegment(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// ModuleLabel computes the stable identity label for a file: its path
// relative to projectRoot, with stripPrefix additionally trimmed (used
// when the workspace contains exactly one project-root subtree per spec
// §4.C), separators normalized to "/".
func ModuleLabel(projectRoot, stripPrefix, filePath string) string {
	rel := filePath
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, filePath); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if stripPrefix != "" {
		rel = strings.TrimPrefix(rel, stripPrefix)
		rel = strings.TrimPrefix(rel, "/")
	}
	return rel
}

// validateParseResult checks if a ParseResult is valid for building.
// Nil symbols are allowed and skipped during processing.
func (b *Builder) validateParseResult(r *ast.ParseResult) error {
	if r == nil {
		return fmt.Errorf("nil ParseResult")
	}
	if r.FilePath == "" {
		return fmt.Errorf("empty FilePath")
	}
	if strings.Contains(r.FilePath, "..") {
		return fmt.Errorf("FilePath contains path traversal")
	}

	for i, sym := range r.Symbols {
		if sym == nil {
			continue
		}
		if err := sym.Validate(); err != nil {
			return fmt.Errorf("symbol[%d] (%s): %w", i, sym.Name, err)
		}
	}

	return nil
}

// reportProgress calls the progress callback if configured.
func (b *Builder) reportProgress(state *buildState, phase ProgressPhase, total, processed int) {
	if b.options.ProgressCallback == nil {
		return
	}

	b.options.ProgressCallback(BuildProgress{
		Phase:          phase,
		FilesTotal:     total,
		FilesProcessed: processed,
		NodesCreated:   state.result.Stats.NodesCreated,
		EdgesCreated:   state.result.Stats.EdgesCreated,
	})
}
