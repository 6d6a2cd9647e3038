// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianFOSS/ast"
	"github.com/AleutianAI/AleutianFOSS/graph"
	"github.com/AleutianAI/AleutianFOSS/lsp"
)

// DefaultWorkers is the minimum concurrent definition-lookup pool size
// spec.md §4.D and §5 mandate; serializing these calls is a correctness
// bug, not just a slowdown, because it makes the foreground budget
// expire before the first file completes.
const DefaultWorkers = 16

// FuncLocator maps a file and source line to the enclosing FUNC/METHOD
// node, implemented by index.FuncRangeIndex. Declared as an interface here
// so tests can substitute a trivial stub without constructing a real
// graph.
type FuncLocator interface {
	EnclosingFunc(file string, line int) (*graph.Node, bool)
}

// DefinitionResolver looks up the definition location(s) of the symbol at
// a file position, implemented by *lsp.Operations in production and by a
// fake with injected per-call latency in tests (spec.md §8).
type DefinitionResolver interface {
	Definition(ctx context.Context, path string, line, char int) ([]lsp.Location, error)
}

// Resolver computes CALL edges by dispatching concurrent definition
// lookups over a bounded worker pool.
//
// Thread Safety: Resolve is safe to call concurrently with itself, though
// callers normally serialize passes per workspace via the coordinator.
type Resolver struct {
	defs    DefinitionResolver
	workers int
}

// New creates a Resolver. workers <= 0 is clamped to DefaultWorkers.
func New(defs DefinitionResolver, workers int) *Resolver {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Resolver{defs: defs, workers: workers}
}

// job is one call site paired with its resolved caller FUNC, the unit of
// work dispatched to the worker pool.
type job struct {
	file     string
	site     ast.CallSite
	callerID string
}

// Resolve runs one resolver pass bounded by ctx's deadline (the caller is
// responsible for deriving ctx from a Budget via context.WithTimeout).
// callSites maps each MODULE file path to the call sites §4.B extracted
// from it.
//
// Step 2 of the algorithm (definition lookup) is dispatched across a
// worker pool of r.workers goroutines via errgroup.SetLimit so that
// independent call sites and files overlap in wall-clock time instead of
// serializing, per the mandatory concurrency contract.
func (r *Resolver) Resolve(ctx context.Context, fr FuncLocator, callSites map[string][]ast.CallSite) (Result, error) {
	start := time.Now()

	var jobs []job
	skipped := 0
	for file, sites := range callSites {
		for _, site := range sites {
			callerNode, ok := fr.EnclosingFunc(file, site.Location.StartLine)
			if !ok {
				skipped++
				continue
			}
			jobs = append(jobs, job{file: file, site: site, callerID: callerNode.ID})
		}
	}

	var (
		mu      sync.Mutex
		seen    = make(map[Edge]struct{})
		edges   []Edge
		failed  int
		partial bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			locs, err := r.defs.Definition(gctx, j.file, j.site.Location.StartLine, j.site.Location.StartCol)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return nil // a single failed lookup never aborts the pass
			}
			for _, loc := range locs {
				path := uriToPath(loc.URI)
				calleeNode, ok := fr.EnclosingFunc(path, loc.Range.Start.Line+1)
				if !ok {
					continue
				}
				e := Edge{FromID: j.callerID, ToID: calleeNode.ID}
				mu.Lock()
				if _, dup := seen[e]; !dup {
					seen[e] = struct{}{}
					edges = append(edges, e)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	// Every function passed to errgroup.Go above returns nil (failures are
	// recorded, not propagated), so Wait returns nil; a budget deadline or
	// cancellation is detected through ctx.Err below.
	if err := g.Wait(); err != nil {
		partial = true
	}
	if ctx.Err() != nil {
		partial = true
	}

	return Result{
		Edges:             edges,
		CallSitesExamined: len(jobs),
		Skipped:           skipped,
		Failed:            failed,
		Partial:           partial,
		DurationMillis:    time.Since(start).Milliseconds(),
	}, nil
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
