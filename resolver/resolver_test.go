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
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianFOSS/ast"
	"github.com/AleutianAI/AleutianFOSS/graph"
	"github.com/AleutianAI/AleutianFOSS/lsp"
)

// fakeDefinitionResolver simulates a blocking LSP definitions call with a
// fixed per-call latency, the harness spec.md §8 property 8 requires:
// wall time must stay proportional to ceil(N/W), not N, once calls are
// properly pooled.
type fakeDefinitionResolver struct {
	latency time.Duration
	target  lsp.Location
	calls   int64
}

func (f *fakeDefinitionResolver) Definition(ctx context.Context, path string, line, char int) ([]lsp.Location, error) {
	atomic.AddInt64(&f.calls, 1)
	select {
	case <-time.After(f.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []lsp.Location{f.target}, nil
}

// staticLocator maps every (file, line) lookup to the same FUNC node,
// enough to exercise dispatch without constructing a real graph.
type staticLocator struct {
	node *graph.Node
}

func (s *staticLocator) EnclosingFunc(file string, line int) (*graph.Node, bool) {
	if s.node == nil {
		return nil, false
	}
	return s.node, true
}

func fnNode(id string, file string, line int) *graph.Node {
	return &graph.Node{
		ID: id,
		Symbol: &ast.Symbol{
			ID: id, Name: id, Kind: ast.SymbolKindFunction,
			FilePath: file, StartLine: line, EndLine: line + 2, Language: "go",
		},
	}
}

func TestResolver_ConcurrentDispatchMeetsBudget(t *testing.T) {
	caller := fnNode("fn_caller", "b.go", 1)
	callee := fnNode("fn_callee", "a.go", 1)

	fake := &fakeDefinitionResolver{
		latency: 100 * time.Millisecond,
		target:  lsp.Location{URI: "file://a.go", Range: lsp.Range{Start: lsp.Position{Line: 0}}},
	}

	callSites := map[string][]ast.CallSite{}
	const n = 100
	for i := 0; i < n; i++ {
		callSites["b.go"] = append(callSites["b.go"], ast.CallSite{
			Callee: fmt.Sprintf("target%d", i),
			Location: ast.Location{
				FilePath: "b.go", StartLine: 1, EndLine: 1,
			},
		})
	}

	r := New(fake, 16)
	locator := &staticLocator{node: caller}
	// calleeNode is resolved on the second EnclosingFunc lookup (by the
	// location the fake definition returns), which staticLocator always
	// satisfies with the same node regardless of which one is asked.
	_ = callee

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	result, err := r.Resolve(ctx, locator, callSites)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, result.Partial, "100 calls at 100ms over a 16-worker pool must finish inside a 1s budget")
	assert.Equal(t, n, result.CallSitesExamined)
	assert.Less(t, elapsed, 800*time.Millisecond, "dispatch must overlap, not serialize: ceil(100/16)*100ms ~= 700ms")
	assert.Equal(t, int64(n), atomic.LoadInt64(&fake.calls))
}

func TestResolver_SkipsCallSiteWithNoEnclosingFunc(t *testing.T) {
	fake := &fakeDefinitionResolver{latency: time.Millisecond}
	locator := &staticLocator{node: nil} // every lookup misses

	callSites := map[string][]ast.CallSite{
		"b.go": {{Callee: "foo", Location: ast.Location{FilePath: "b.go", StartLine: 1, EndLine: 1}}},
	}

	r := New(fake, 4)
	result, err := r.Resolve(context.Background(), locator, callSites)

	require.NoError(t, err)
	assert.Equal(t, 0, result.CallSitesExamined)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Edges)
}

func TestResolver_DeduplicatesRepeatedEdges(t *testing.T) {
	caller := fnNode("fn_caller", "b.go", 1)
	fake := &fakeDefinitionResolver{
		latency: time.Millisecond,
		target:  lsp.Location{URI: "file://a.go", Range: lsp.Range{Start: lsp.Position{Line: 0}}},
	}
	locator := &staticLocator{node: caller}

	callSites := map[string][]ast.CallSite{
		"b.go": {
			{Callee: "foo", Location: ast.Location{FilePath: "b.go", StartLine: 1, EndLine: 1}},
			{Callee: "foo", Location: ast.Location{FilePath: "b.go", StartLine: 2, EndLine: 2}},
		},
	}

	r := New(fake, 4)
	result, err := r.Resolve(context.Background(), locator, callSites)

	require.NoError(t, err)
	require.Len(t, result.Edges, 1, "two call sites resolving to the same (caller,callee) pair coalesce into one edge")
	assert.Equal(t, caller.ID, result.Edges[0].FromID)
}

func TestResolver_ZeroWorkersClampsToDefault(t *testing.T) {
	r := New(&fakeDefinitionResolver{}, 0)
	assert.Equal(t, DefaultWorkers, r.workers)
}
