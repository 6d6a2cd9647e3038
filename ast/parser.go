// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
)

// Parser defines the contract for language-specific AST parsing. Each
// implementation extracts structured symbol information from source code
// for one language and produces output in the common ParseResult format.
//
// Thread Safety: implementations must be safe for concurrent use; the
// Syntactic Extractor dispatches Parse calls for independent files from a
// worker pool.
type Parser interface {
	// Parse extracts symbols, imports, and call sites from content.
	// Syntax errors are reported in ParseResult.Errors rather than as a
	// returned error; a non-nil error means the parse produced nothing
	// usable at all (e.g. content is not valid UTF-8).
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical lowercase language identifier this
	// parser handles, e.g. "go", "python", "typescript", "bash".
	Language() string

	// Extensions returns the file extensions (including the leading dot)
	// this parser claims, used by ParserRegistry.GetByExtension.
	Extensions() []string
}

// ParserRegistry maps a language name or file extension to the Parser
// that handles it, the Syntactic Extractor's entrypoint for selecting a
// Tier 1/2 parser per file during Init/Refresh.
//
// Thread Safety: fully thread-safe; registration uses write locks, lookup
// uses read locks.
type ParserRegistry struct {
	mu sync.RWMutex

	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewParserRegistry creates an empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// NewDefaultParserRegistry returns a ParserRegistry pre-populated with
// every syntax-tree parser CodeCanvas ships (Go, Python, TypeScript,
// Bash), the set whose tree-sitter grammars are vendored via
// smacker/go-tree-sitter.
func NewDefaultParserRegistry() *ParserRegistry {
	r := NewParserRegistry()
	r.Register(NewGoParser())
	r.Register(NewPythonParser())
	r.Register(NewTypeScriptParser())
	r.Register(NewBashParser())
	return r
}

// Register adds a parser under its Language() name and all of its
// Extensions(). A later registration for the same language or extension
// overwrites an earlier one.
func (r *ParserRegistry) Register(parser Parser) {
	if parser == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser
	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser registered for language, if any.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byLanguage[language]
	return p, ok
}

// GetByExtension returns the parser registered for ext (including the
// leading dot), if any.
func (r *ParserRegistry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExtension[ext]
	return p, ok
}

// Languages returns every registered language name.
func (r *ParserRegistry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	return out
}

// Extensions returns every registered file extension.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		out = append(out, ext)
	}
	return out
}
