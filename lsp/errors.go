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

import "errors"

// Sentinel errors for LSP session and request handling.
var (
	// ErrServerAlreadyStarted is returned when Start is called on a server
	// that already attempted startup (successfully or not).
	ErrServerAlreadyStarted = errors.New("lsp: server already started")

	// ErrServerNotRunning is returned when a request or notification is
	// sent to a server that is not in the ready state.
	ErrServerNotRunning = errors.New("lsp: server not running")

	// ErrUnsupportedLanguage is returned when no LanguageConfig is
	// registered for the requested language or file extension.
	ErrUnsupportedLanguage = errors.New("lsp: unsupported language")

	// ErrLspUnavailable is returned when a language is supported in
	// principle but the backing server binary cannot be located or
	// failed to initialize for this workspace.
	ErrLspUnavailable = errors.New("lsp: server unavailable")

	// ErrLspTimeout is returned when a request exceeds its deadline
	// before the server responds.
	ErrLspTimeout = errors.New("lsp: request timed out")

	// ErrLspEmpty is returned when a request succeeds but the server
	// returned no usable result (e.g. an empty definition list).
	ErrLspEmpty = errors.New("lsp: empty result")
)
