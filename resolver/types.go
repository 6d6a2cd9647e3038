// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolver implements the Call-Graph Resolver: it turns the
// per-file call sites produced by the Syntactic Extractor into CALL edges
// between FUNC nodes, by asking a Language Session Manager for each call
// target's definition and mapping both ends back to an enclosing FUNC via
// a per-file range index.
package resolver

import "time"

// Edge is one resolved (caller, callee) FUNC pair, ready to become a
// graph.EdgeTypeCall edge or a call_edges.<D>.json record.
type Edge struct {
	FromID string
	ToID   string
}

// Budget bounds a single Resolve pass. Exactly one of Foreground/Background
// applies to a given call: the foreground budget governs an interactive
// resolve_call_edges invocation, the background budget governs the
// best-effort catch-up pass that follows it.
type Budget struct {
	Foreground time.Duration
	Background time.Duration
}

// DefaultBudget matches spec.md §4.D's suggested defaults.
func DefaultBudget() Budget {
	return Budget{
		Foreground: 500 * time.Millisecond,
		Background: 30 * time.Second,
	}
}

// Result summarizes one Resolve pass.
type Result struct {
	// Edges are the resolved, deduplicated CALL edges.
	Edges []Edge

	// CallSitesExamined is the number of call sites a definition lookup
	// was attempted for.
	CallSitesExamined int

	// Skipped counts call sites dropped because no enclosing FUNC could
	// be found for the caller. A returned definition location with no
	// enclosing FUNC adds no edge and is not counted here.
	Skipped int

	// Failed counts call sites whose definition lookup returned an error
	// (timeout, server unavailable, etc.), as opposed to a clean "no
	// enclosing FUNC" skip.
	Failed int

	// Partial is true when the budget's context deadline was reached
	// before every call site was examined.
	Partial bool

	// DurationMillis is the wall-clock time the pass took.
	DurationMillis int64
}
