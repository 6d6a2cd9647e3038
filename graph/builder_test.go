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
	"testing"

	"github.com/AleutianAI/AleutianFOSS/ast"
)

func testSymbol(name string, kind ast.SymbolKind, filePath string, line int) *ast.Symbol {
	return &ast.Symbol{
		ID:        ast.GenerateID(filePath, line, name),
		Name:      name,
		Kind:      kind,
		FilePath:  filePath,
		StartLine: line,
		EndLine:   line + 10,
		StartCol:  0,
		EndCol:    50,
		Language:  "go",
	}
}

func testParseResult(filePath string, symbols []*ast.Symbol, imports []ast.Import) *ast.ParseResult {
	return &ast.ParseResult{
		FilePath: filePath,
		Language: "go",
		Symbols:  symbols,
		Imports:  imports,
		Package:  "test",
	}
}

func TestBuilder_NewBuilder(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		builder := NewBuilder()
		if builder == nil {
			t.Fatal("NewBuilder returned nil")
		}
		if builder.options.MaxNodes != DefaultMaxNodes {
			t.Errorf("expected MaxNodes=%d, got %d", DefaultMaxNodes, builder.options.MaxNodes)
		}
	})

	t.Run("custom options", func(t *testing.T) {
		builder := NewBuilder(
			WithProjectRoot("/test/project"),
			WithBuilderMaxNodes(100),
		)
		if builder.options.ProjectRoot != "/test/project" {
			t.Errorf("expected ProjectRoot=%q, got %q", "/test/project", builder.options.ProjectRoot)
		}
		if builder.options.MaxNodes != 100 {
			t.Errorf("expected MaxNodes=100, got %d", builder.options.MaxNodes)
		}
	})
}

func TestBuilder_Build_EmptyResults(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))
	result, err := builder.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if result.Graph.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", result.Graph.NodeCount())
	}
	if !result.Success() {
		t.Error("expected Success() on empty build")
	}
}

func TestBuilder_Build_CreatesModuleAndFuncNodes(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))

	fn := testSymbol("DoThing", ast.SymbolKindFunction, "/test/pkg/a.go", 10)
	results := []*ast.ParseResult{
		testParseResult("/test/pkg/a.go", []*ast.Symbol{fn}, nil),
	}

	result, err := builder.Build(context.Background(), results)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("build had errors: %+v / %+v", result.FileErrors, result.EdgeErrors)
	}

	label := ModuleLabel("/test", "", "/test/pkg/a.go")
	moduleID := ModuleID(label)
	funcID := FuncID(label, "DoThing")

	if _, ok := result.Graph.GetNode(moduleID); !ok {
		t.Fatalf("expected MODULE node %s", moduleID)
	}
	if _, ok := result.Graph.GetNode(funcID); !ok {
		t.Fatalf("expected FUNC node %s", funcID)
	}

	contains := result.Graph.GetEdgesByType(EdgeTypeContains)
	found := false
	for _, e := range contains {
		if e.FromID == moduleID && e.ToID == funcID {
			found = true
		}
	}
	if !found {
		t.Error("expected CONTAINS edge from module to func")
	}
}

func TestBuilder_Build_NoiseSymbolsAreFiltered(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))

	constant := testSymbol("MaxRetries", ast.SymbolKindConstant, "/test/pkg/a.go", 3)
	results := []*ast.ParseResult{
		testParseResult("/test/pkg/a.go", []*ast.Symbol{constant}, nil),
	}

	result, err := builder.Build(context.Background(), results)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	label := ModuleLabel("/test", "", "/test/pkg/a.go")
	moduleID := ModuleID(label)
	if _, ok := result.Graph.GetNode(moduleID); !ok {
		t.Fatal("expected MODULE node even with only noise symbols")
	}
	// Only the module node should exist; the constant is discarded.
	if result.Graph.NodeCount() != 1 {
		t.Errorf("expected 1 node (module only), got %d", result.Graph.NodeCount())
	}
}

func TestBuilder_Build_MethodQualnameUsesReceiver(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))

	method := testSymbol("Save", ast.SymbolKindMethod, "/test/pkg/a.go", 20)
	method.Receiver = "*Store"
	results := []*ast.ParseResult{
		testParseResult("/test/pkg/a.go", []*ast.Symbol{method}, nil),
	}

	result, err := builder.Build(context.Background(), results)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	label := ModuleLabel("/test", "", "/test/pkg/a.go")
	methodID := FuncID(label, "Store.Save")
	if _, ok := result.Graph.GetNode(methodID); !ok {
		t.Fatalf("expected FUNC node keyed by receiver-qualified name %s", methodID)
	}
}

func TestBuilder_Build_UnresolvedImportCreatesExternalModule(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))

	imports := []ast.Import{{Path: "github.com/pkg/errors"}}
	results := []*ast.ParseResult{
		testParseResult("/test/pkg/a.go", nil, imports),
	}

	result, err := builder.Build(context.Background(), results)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	externalID := ModuleID("external:github.com/pkg/errors")
	if _, ok := result.Graph.GetNode(externalID); !ok {
		t.Fatal("expected synthetic external MODULE node for unresolved import")
	}
	if result.Stats.PlaceholderNodes != 1 {
		t.Errorf("expected 1 placeholder node, got %d", result.Stats.PlaceholderNodes)
	}

	importEdges := result.Graph.GetEdgesByType(EdgeTypeImport)
	if len(importEdges) != 1 || importEdges[0].ToID != externalID {
		t.Errorf("expected one IMPORT edge to %s, got %+v", externalID, importEdges)
	}
}

func TestBuilder_Build_StableIDAcrossRebuild(t *testing.T) {
	builder := NewBuilder(WithProjectRoot("/test"))
	fn := testSymbol("Handle", ast.SymbolKindFunction, "/test/pkg/a.go", 5)
	results := []*ast.ParseResult{testParseResult("/test/pkg/a.go", []*ast.Symbol{fn}, nil)}

	first, err := builder.Build(context.Background(), results)
	if err != nil {
		t.Fatalf("first build error: %v", err)
	}

	// A line-number-only edit must not change the id.
	fn2 := testSymbol("Handle", ast.SymbolKindFunction, "/test/pkg/a.go", 40)
	second, err := builder.Build(context.Background(), []*ast.ParseResult{
		testParseResult("/test/pkg/a.go", []*ast.Symbol{fn2}, nil),
	})
	if err != nil {
		t.Fatalf("second build error: %v", err)
	}

	label := ModuleLabel("/test", "", "/test/pkg/a.go")
	id := FuncID(label, "Handle")

	if _, ok := first.Graph.GetNode(id); !ok {
		t.Fatal("expected stable id in first build")
	}
	if _, ok := second.Graph.GetNode(id); !ok {
		t.Fatal("expected same stable id after body-only edit")
	}
}
