// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package index

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianFOSS/ast"
	"github.com/AleutianAI/AleutianFOSS/graph"
)

// funcRange is one FUNC node's line span within its file, sorted by
// StartLine so the enclosing function for a call site can be found with
// a binary search instead of a linear scan of every FUNC in the file.
type funcRange struct {
	startLine int
	endLine   int
	node      *graph.Node
}

// FuncRangeIndex answers "which FUNC node contains this source position"
// for every file in a graph, the lookup the call-graph resolver performs
// once per ast.CallSite to find the edge's FromID. It is adapted from
// SymbolIndex's per-file bucketing (services/code_buddy/index/symbol_index.go):
// the same byFile-map-plus-mutex shape, repurposed from "list symbols in
// this file" to "binary search the sorted ranges in this file".
//
// Thread Safety: safe for concurrent reads after Build; Build itself is
// not safe to call concurrently with reads.
type FuncRangeIndex struct {
	mu     sync.RWMutex
	byFile map[string][]funcRange
}

// NewFuncRangeIndex creates an empty index.
func NewFuncRangeIndex() *FuncRangeIndex {
	return &FuncRangeIndex{byFile: make(map[string][]funcRange)}
}

// Build populates the index from every FUNC node in g. Safe to call again
// on a rebuilt graph; replaces prior contents.
func (idx *FuncRangeIndex) Build(g *graph.Graph) error {
	if g == nil {
		return fmt.Errorf("index: Build requires a non-nil graph")
	}

	byFile := make(map[string][]funcRange)
	for _, node := range g.GetNodesByKind(ast.SymbolKindFunction) {
		addFuncRange(byFile, node)
	}
	for _, node := range g.GetNodesByKind(ast.SymbolKindMethod) {
		addFuncRange(byFile, node)
	}

	for file, ranges := range byFile {
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].startLine < ranges[j].startLine })
		byFile[file] = ranges
	}

	idx.mu.Lock()
	idx.byFile = byFile
	idx.mu.Unlock()
	return nil
}

func addFuncRange(byFile map[string][]funcRange, node *graph.Node) {
	if node.Symbol == nil {
		return
	}
	file := node.Symbol.FilePath
	byFile[file] = append(byFile[file], funcRange{
		startLine: node.Symbol.StartLine,
		endLine:   node.Symbol.EndLine,
		node:      node,
	})
}

// EnclosingFunc returns the innermost FUNC/METHOD node in file whose range
// contains line, or (nil, false) if none does (e.g. a call site inside a
// package-level var initializer with no enclosing function).
//
// Uses sort.Search to find the last range starting at or before line, then
// scans backwards from there checking containment; the scan visits every
// earlier range in the file, so the worst case is O(symbols in file).
// When ranges overlap (a method and a closure sharing lines, which this
// line-granularity index cannot tell apart) the narrowest match wins.
func (idx *FuncRangeIndex) EnclosingFunc(file string, line int) (*graph.Node, bool) {
	idx.mu.RLock()
	ranges := idx.byFile[file]
	idx.mu.RUnlock()
	if len(ranges) == 0 {
		return nil, false
	}

	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].startLine > line })

	var best *funcRange
	for j := i - 1; j >= 0; j-- {
		r := ranges[j]
		if r.endLine < line {
			continue
		}
		if r.startLine <= line && line <= r.endLine {
			if best == nil || (r.endLine-r.startLine) < (best.endLine-best.startLine) {
				best = &ranges[j]
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best.node, true
}

// FileCount returns the number of distinct files indexed.
func (idx *FuncRangeIndex) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byFile)
}
