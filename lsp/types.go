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

// Wire types implement the subset of the Language Server Protocol the
// Language Session Manager needs: document lifecycle, definition,
// references, hover and rename. Field names and JSON tags follow the
// LSP specification (camelCase on the wire, zero-indexed positions).

// Position is a zero-indexed line/character offset within a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end Position pair. The end position is exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pairs a document URI with a Range inside it.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// LocationLink is the richer alternative to Location some servers
// (gopls included) return from textDocument/definition.
type LocationLink struct {
	OriginSelectionRange *Range `json:"originSelectionRange,omitempty"`
	TargetURI            string `json:"targetUri"`
	TargetRange          Range  `json:"targetRange"`
	TargetSelectionRange Range  `json:"targetSelectionRange"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentItem is the full document payload sent on didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// TextDocumentPositionParams is the common params shape for
// position-addressed requests (definition, hover, references, rename).
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// ReferenceContext controls whether the declaration itself is included
// in a textDocument/references response.
type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferenceParams is the params shape for textDocument/references.
type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

// RenameParams is the params shape for textDocument/rename.
type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

// DidOpenTextDocumentParams is the params shape for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseTextDocumentParams is the params shape for textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// MarkupContent is a hover/signature payload with a content kind.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// HoverResult is the response shape for textDocument/hover.
type HoverResult struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// TextEdit is a single replacement within a document, used inside a
// WorkspaceEdit.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// WorkspaceEdit is the response shape for textDocument/rename: a set of
// per-file edits keyed by document URI.
type WorkspaceEdit struct {
	Changes map[string][]TextEdit `json:"changes"`
}

// SymbolKind mirrors the LSP SymbolKind enumeration (a small, fixed
// subset is named here; unused values still round-trip as integers).
type SymbolKind int

const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindPackage       SymbolKind = 4
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindEnum          SymbolKind = 10
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindStruct        SymbolKind = 23
	SymbolKindEnumMember    SymbolKind = 22
	SymbolKindTypeParameter SymbolKind = 26
)

// SymbolInformation is one entry in a textDocument/documentSymbol or
// workspace/symbol response (the flat, non-hierarchical shape).
type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}

// DefinitionCapabilities advertises textDocument/definition support.
type DefinitionCapabilities struct {
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
	LinkSupport         bool `json:"linkSupport,omitempty"`
}

// HoverCapabilities advertises textDocument/hover support.
type HoverCapabilities struct {
	DynamicRegistration bool     `json:"dynamicRegistration,omitempty"`
	ContentFormat       []string `json:"contentFormat,omitempty"`
}

// TextDocumentClientCapabilities is the subset of client capabilities
// CodeCanvas advertises during initialize.
type TextDocumentClientCapabilities struct {
	Definition *DefinitionCapabilities `json:"definition,omitempty"`
	Hover      *HoverCapabilities      `json:"hover,omitempty"`
}

// ClientCapabilities is the top-level capabilities object sent in
// InitializeParams.
type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
}

// InitializeParams is the params shape for the initialize request.
type InitializeParams struct {
	ProcessID             int                    `json:"processId"`
	RootURI               string                 `json:"rootUri"`
	Capabilities          ClientCapabilities     `json:"capabilities"`
	InitializationOptions interface{}            `json:"initializationOptions,omitempty"`
}

// ServerCapabilities is the subset of the initialize response CodeCanvas
// inspects to decide which operations a server actually supports. LSP
// servers may advertise a provider as a bare bool or as an options
// object; both are accepted.
type ServerCapabilities struct {
	DefinitionProvider interface{} `json:"definitionProvider,omitempty"`
	ReferencesProvider interface{} `json:"referencesProvider,omitempty"`
	HoverProvider      interface{} `json:"hoverProvider,omitempty"`
	RenameProvider     interface{} `json:"renameProvider,omitempty"`
}

func hasProvider(v interface{}) bool {
	switch p := v.(type) {
	case nil:
		return false
	case bool:
		return p
	default:
		return true
	}
}

// HasDefinitionProvider reports whether the server advertised
// textDocument/definition support.
func (c ServerCapabilities) HasDefinitionProvider() bool { return hasProvider(c.DefinitionProvider) }

// HasReferencesProvider reports whether the server advertised
// textDocument/references support.
func (c ServerCapabilities) HasReferencesProvider() bool { return hasProvider(c.ReferencesProvider) }

// HasHoverProvider reports whether the server advertised
// textDocument/hover support.
func (c ServerCapabilities) HasHoverProvider() bool { return hasProvider(c.HoverProvider) }

// HasRenameProvider reports whether the server advertised
// textDocument/rename support.
func (c ServerCapabilities) HasRenameProvider() bool { return hasProvider(c.RenameProvider) }

// InitializeResult is the response shape for the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerState tracks a Server's lifecycle.
type ServerState int

const (
	ServerStateUninitialized ServerState = iota
	ServerStateStarting
	ServerStateReady
	ServerStateStopping
	ServerStateStopped
)

// String implements fmt.Stringer.
func (s ServerState) String() string {
	switch s {
	case ServerStateUninitialized:
		return "uninitialized"
	case ServerStateStarting:
		return "starting"
	case ServerStateReady:
		return "ready"
	case ServerStateStopping:
		return "stopping"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
