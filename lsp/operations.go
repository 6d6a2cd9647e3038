// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Operations implements the symbol/definition query surface the Graph
// Builder and Call-Graph Resolver consume, routed through a Manager's
// per-language Server pool.
//
// Thread Safety: safe for concurrent use; the underlying Manager
// serializes server startup.
type Operations struct {
	mgr *Manager
}

// NewOperations wraps a Manager with the typed LSP operation surface.
func NewOperations(mgr *Manager) *Operations {
	return &Operations{mgr: mgr}
}

// Manager returns the wrapped Manager.
func (o *Operations) Manager() *Manager { return o.mgr }

// languageFromPath maps a file path to a language identifier via the
// manager's registered extensions, or "" if unrecognized.
func (o *Operations) languageFromPath(path string) string {
	ext := filepath.Ext(path)
	lang, _ := o.mgr.Configs().LanguageForExtension(ext)
	return lang
}

// IsAvailable reports whether a language server could serve the given
// file path (language recognized and server binary on PATH).
func (o *Operations) IsAvailable(path string) bool {
	lang := o.languageFromPath(path)
	if lang == "" {
		return false
	}
	return o.mgr.IsAvailable(lang)
}

// PathToURI converts a filesystem path to a file:// URI.
func (o *Operations) PathToURI(path string) string { return pathToURI(path) }

// URIToPath converts a file:// URI back to a filesystem path.
func (o *Operations) URIToPath(uri string) string { return uriToPath(uri) }

func pathToURI(path string) string {
	return "file://" + path
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func (o *Operations) serverFor(ctx context.Context, path string) (*Server, string, error) {
	lang := o.languageFromPath(path)
	if lang == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filepath.Ext(path))
	}
	srv, err := o.mgr.GetOrSpawn(ctx, lang)
	if err != nil {
		return nil, lang, err
	}
	return srv, lang, nil
}

// OpenDocument notifies the server backing path's language that the
// document is open with the given content, required before most LSP
// operations will return useful results.
func (o *Operations) OpenDocument(ctx context.Context, path, content string) error {
	if ctx == nil {
		return fmt.Errorf("lsp: OpenDocument requires a non-nil context")
	}
	srv, lang, err := o.serverFor(ctx, path)
	if err != nil {
		return err
	}
	return srv.Notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        pathToURI(path),
			LanguageID: lang,
			Version:    1,
			Text:       content,
		},
	})
}

// CloseDocument notifies the server backing path's language that the
// document is no longer open.
func (o *Operations) CloseDocument(ctx context.Context, path string) error {
	if ctx == nil {
		return fmt.Errorf("lsp: CloseDocument requires a non-nil context")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return err
	}
	return srv.Notify("textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
	})
}

// Definition resolves the symbol at (line, char) (one-indexed line, to
// match ast.Location's convention; converted to zero-indexed on the
// wire) to its defining location(s).
func (o *Operations) Definition(ctx context.Context, path string, line, char int) ([]Location, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: Definition requires a non-nil context")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "textDocument/definition", TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
		Position:     Position{Line: line - 1, Character: char},
	})
	if err != nil {
		return nil, err
	}
	return parseLocationResponse(raw)
}

// References finds all references to the symbol at (line, char).
func (o *Operations) References(ctx context.Context, path string, line, char int, includeDeclaration bool) ([]Location, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: References requires a non-nil context")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "textDocument/references", ReferenceParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
			Position:     Position{Line: line - 1, Character: char},
		},
		Context: ReferenceContext{IncludeDeclaration: includeDeclaration},
	})
	if err != nil {
		return nil, err
	}
	return parseLocationResponse(raw)
}

// Hover returns hover information (typically a signature and doc
// comment) for the symbol at (line, char).
func (o *Operations) Hover(ctx context.Context, path string, line, char int) (*HoverResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: Hover requires a non-nil context")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "textDocument/hover", TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
		Position:     Position{Line: line - 1, Character: char},
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrLspEmpty
	}
	var result HoverResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("lsp: decode hover result: %w", err)
	}
	return &result, nil
}

// Rename requests a workspace-wide rename of the symbol at (line, char).
func (o *Operations) Rename(ctx context.Context, path string, line, char int, newName string) (*WorkspaceEdit, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: Rename requires a non-nil context")
	}
	if newName == "" {
		return nil, fmt.Errorf("lsp: Rename requires a non-empty newName")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "textDocument/rename", RenameParams{
		TextDocumentPositionParams: TextDocumentPositionParams{
			TextDocument: TextDocumentIdentifier{URI: pathToURI(path)},
			Position:     Position{Line: line - 1, Character: char},
		},
		NewName: newName,
	})
	if err != nil {
		return nil, err
	}
	var edit WorkspaceEdit
	if err := json.Unmarshal(raw, &edit); err != nil {
		return nil, fmt.Errorf("lsp: decode rename result: %w", err)
	}
	return &edit, nil
}

// DocumentSymbols returns the flattened symbol table for a single file,
// implementing spec.md's document_symbols operation.
func (o *Operations) DocumentSymbols(ctx context.Context, path string) ([]SymbolInformation, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: DocumentSymbols requires a non-nil context")
	}
	srv, _, err := o.serverFor(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "textDocument/documentSymbol", struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}{TextDocument: TextDocumentIdentifier{URI: pathToURI(path)}})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var syms []SymbolInformation
	if err := json.Unmarshal(raw, &syms); err != nil {
		return nil, fmt.Errorf("lsp: decode documentSymbol result: %w", err)
	}
	return syms, nil
}

// WorkspaceSymbol searches the whole workspace for symbols matching
// query, for the given language's server.
func (o *Operations) WorkspaceSymbol(ctx context.Context, language, query string) ([]SymbolInformation, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: WorkspaceSymbol requires a non-nil context")
	}
	srv, err := o.mgr.GetOrSpawn(ctx, language)
	if err != nil {
		return nil, err
	}
	raw, err := srv.Request(ctx, "workspace/symbol", struct {
		Query string `json:"query"`
	}{Query: query})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var syms []SymbolInformation
	if err := json.Unmarshal(raw, &syms); err != nil {
		return nil, fmt.Errorf("lsp: decode workspace/symbol result: %w", err)
	}
	return syms, nil
}

// parseLocationResponse decodes a textDocument/definition or
// textDocument/references response, which per the LSP spec may be
// null, a single Location, an array of Location, or an array of
// LocationLink depending on server and capability negotiation.
func parseLocationResponse(raw json.RawMessage) ([]Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var single Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []Location{single}, nil
	}

	var locs []Location
	if err := json.Unmarshal(raw, &locs); err == nil {
		if len(locs) > 0 && locs[0].URI != "" {
			return locs, nil
		}
	}

	var links []LocationLink
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("lsp: decode location response: %w", err)
	}
	result := make([]Location, 0, len(links))
	for _, l := range links {
		result = append(result, Location{URI: l.TargetURI, Range: l.TargetSelectionRange})
	}
	return result, nil
}
