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
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianFOSS/ast"
)

func makeSymbol(id, name string, kind ast.SymbolKind, filePath string) *ast.Symbol {
	return &ast.Symbol{
		ID:        id,
		Name:      name,
		Kind:      kind,
		FilePath:  filePath,
		StartLine: 1,
		EndLine:   10,
		StartCol:  0,
		EndCol:    50,
		Language:  "go",
	}
}

func makeLocation(filePath string, line int) ast.Location {
	return ast.Location{
		FilePath:  filePath,
		StartLine: line,
		EndLine:   line,
		StartCol:  0,
		EndCol:    50,
	}
}

func TestGraphState_String(t *testing.T) {
	tests := []struct {
		state    GraphState
		expected string
	}{
		{GraphStateBuilding, "building"},
		{GraphStateReadOnly, "readonly"},
		{GraphState(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.expected {
			t.Errorf("GraphState(%d).String() = %q, want %q", tc.state, got, tc.expected)
		}
	}
}

func TestEdgeType_String(t *testing.T) {
	tests := []struct {
		edgeType EdgeType
		expected string
	}{
		{EdgeTypeContains, "contains"},
		{EdgeTypeImport, "import"},
		{EdgeTypeCall, "call"},
		{EdgeType(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.edgeType.String(); got != tc.expected {
			t.Errorf("EdgeType(%d).String() = %q, want %q", tc.edgeType, got, tc.expected)
		}
	}
}

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph("/test")
	sym := makeSymbol("fn_1", "Handle", ast.SymbolKindFunction, "a.go")

	node, err := g.AddNode("fn_1", "a.go:Handle", sym)
	if err != nil {
		t.Fatalf("AddNode returned error: %v", err)
	}
	if node.ID != "fn_1" || node.Label != "a.go:Handle" {
		t.Errorf("unexpected node: %+v", node)
	}

	if _, err := g.AddNode("fn_1", "a.go:Handle", sym); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}

	if _, err := g.AddNode("fn_2", "a.go:Other", nil); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}

func TestGraph_AddNode_FrozenRejected(t *testing.T) {
	g := NewGraph("/test")
	g.Freeze()

	sym := makeSymbol("fn_1", "Handle", ast.SymbolKindFunction, "a.go")
	if _, err := g.AddNode("fn_1", "a.go:Handle", sym); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("expected ErrGraphFrozen, got %v", err)
	}
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph("/test")
	modSym := makeSymbol("mod_1", "a.go", ast.SymbolKindPackage, "a.go")
	fnSym := makeSymbol("fn_1", "Handle", ast.SymbolKindFunction, "a.go")

	if _, err := g.AddNode("mod_1", "a.go", modSym); err != nil {
		t.Fatalf("AddNode(module) error: %v", err)
	}
	if _, err := g.AddNode("fn_1", "a.go:Handle", fnSym); err != nil {
		t.Fatalf("AddNode(func) error: %v", err)
	}

	loc := makeLocation("a.go", 10)
	if err := g.AddEdge("mod_1", "fn_1", EdgeTypeContains, loc); err != nil {
		t.Fatalf("AddEdge error: %v", err)
	}

	if err := g.AddEdge("missing", "fn_1", EdgeTypeContains, loc); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for missing source, got %v", err)
	}

	modNode, _ := g.GetNode("mod_1")
	if len(modNode.Outgoing) != 1 {
		t.Errorf("expected 1 outgoing edge on module node, got %d", len(modNode.Outgoing))
	}
	fnNode, _ := g.GetNode("fn_1")
	if len(fnNode.Incoming) != 1 {
		t.Errorf("expected 1 incoming edge on func node, got %d", len(fnNode.Incoming))
	}

	byType := g.GetEdgesByType(EdgeTypeContains)
	if len(byType) != 1 {
		t.Errorf("expected 1 CONTAINS edge, got %d", len(byType))
	}
}

func TestGraph_Clone_IsIndependent(t *testing.T) {
	g := NewGraph("/test")
	sym := makeSymbol("mod_1", "a.go", ast.SymbolKindPackage, "a.go")
	if _, err := g.AddNode("mod_1", "a.go", sym); err != nil {
		t.Fatalf("AddNode error: %v", err)
	}
	g.Freeze()

	clone := g.Clone()
	if clone.IsFrozen() {
		t.Error("Clone() should reset state to building")
	}

	fnSym := makeSymbol("fn_1", "Handle", ast.SymbolKindFunction, "a.go")
	if _, err := clone.AddNode("fn_1", "a.go:Handle", fnSym); err != nil {
		t.Fatalf("AddNode on clone error: %v", err)
	}

	if g.NodeCount() != 1 {
		t.Errorf("original graph should be unaffected by clone mutation, got %d nodes", g.NodeCount())
	}
	if clone.NodeCount() != 2 {
		t.Errorf("expected 2 nodes in clone, got %d", clone.NodeCount())
	}
}

func TestGraph_RemoveFile(t *testing.T) {
	g := NewGraph("/test")
	modSym := makeSymbol("mod_1", "a.go", ast.SymbolKindPackage, "a.go")
	fnSym := makeSymbol("fn_1", "Handle", ast.SymbolKindFunction, "a.go")
	otherModSym := makeSymbol("mod_2", "b.go", ast.SymbolKindPackage, "b.go")

	if _, err := g.AddNode("mod_1", "a.go", modSym); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode("fn_1", "a.go:Handle", fnSym); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode("mod_2", "b.go", otherModSym); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("mod_1", "fn_1", EdgeTypeContains, makeLocation("a.go", 1)); err != nil {
		t.Fatal(err)
	}

	removed, err := g.RemoveFile("a.go")
	if err != nil {
		t.Fatalf("RemoveFile error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 nodes removed, got %d", removed)
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 remaining node, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected 0 remaining edges, got %d", g.EdgeCount())
	}
	if _, ok := g.GetNode("mod_2"); !ok {
		t.Error("expected unrelated module to survive RemoveFile")
	}
}

func TestGraph_MaxNodesExceeded(t *testing.T) {
	g := NewGraph("/test", WithMaxNodes(1))
	sym1 := makeSymbol("mod_1", "a.go", ast.SymbolKindPackage, "a.go")
	sym2 := makeSymbol("mod_2", "b.go", ast.SymbolKindPackage, "b.go")

	if _, err := g.AddNode("mod_1", "a.go", sym1); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode("mod_2", "b.go", sym2); !errors.Is(err, ErrMaxNodesExceeded) {
		t.Errorf("expected ErrMaxNodesExceeded, got %v", err)
	}
}
