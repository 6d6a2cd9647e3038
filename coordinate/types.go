// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coordinate implements the Snapshot & Refresh Coordinator: it
// owns the on-disk artifact directory, runs the two-phase
// compute-then-commit publish protocol that keeps graph_meta.json and
// call_edges.json consistent with the workspace on disk, and exposes the
// six Core API operations (init, ensure_loaded, refresh, resolve_call_edges,
// mark_dirty, graph_snapshot) every other entrypoint is built on.
package coordinate

import (
	"time"

	"github.com/AleutianAI/AleutianFOSS/graph"
)

// ParseSummary is the result of Init: a full workspace parse and graph
// build.
type ParseSummary struct {
	ParsedFiles     int
	SkippedFiles    int
	LSPFiles        int
	TreeSitterFiles int
	LSPFailures     int
	Digest          string
	DurationMillis  int64
}

// RefreshSummary is the result of Refresh: an incremental update driven by
// the dirty queue.
type RefreshSummary struct {
	FilesRefreshed int
	NodesRemoved   int
	NodesAdded     int
	EdgesResolved  int
	Digest         string
	Partial        bool
	DurationMillis int64
}

// ResolveSummary is the result of ResolveCallEdges.
type ResolveSummary struct {
	CallSitesExamined int
	EdgesResolved     int
	Skipped           int
	Failed            int
	Partial           bool
	Digest            string
	DurationMillis    int64
}

// GraphMeta is the exact on-disk schema for graph_meta.json and
// graph_meta.<D>.json (spec §6). Field names and nesting are load-bearing:
// other tools read this file directly.
type GraphMeta struct {
	Version     int              `json:"version"`
	ProjectPath string           `json:"project_path"`
	GeneratedAt int64            `json:"generated_at"`
	Parser      ParserMeta       `json:"parser"`
	Merkle      MerkleMeta       `json:"merkle"`
	Graph       GraphStatsMeta   `json:"graph"`
	Architecture ArchitectureMeta `json:"architecture"`
	UpdatedBy   UpdatedByMeta    `json:"updated_by"`
}

// ParserMeta records the parser configuration in effect when the snapshot
// was produced, folded into the Merkle config leaf so a config change
// forces a new digest even with unchanged file contents.
type ParserMeta struct {
	UseLSP           bool     `json:"use_lsp"`
	LSPLangs         []string `json:"lsp_langs"`
	LabelStripPrefix string   `json:"label_strip_prefix,omitempty"`
}

// MerkleMeta records the snapshot's Merkle identity.
type MerkleMeta struct {
	Algo       string                `json:"algo"`
	Root       string                `json:"root"`
	LeafCount  int                   `json:"leaf_count"`
	Leaves     map[string]MerkleLeaf `json:"leaves"`
	ConfigLeaf string                `json:"config_leaf"`
}

// MerkleLeaf is one module's entry in MerkleMeta.Leaves.
type MerkleLeaf struct {
	FSPath  string `json:"fs_path"`
	MtimeNs int64  `json:"mtime_ns"`
	Size    int64  `json:"size"`
	Leaf    string `json:"leaf"`
	Missing bool   `json:"missing,omitempty"`
}

// GraphStatsMeta records the built graph's shape and the parse pass that
// produced it.
type GraphStatsMeta struct {
	Digest       string           `json:"digest"`
	Stats        NodeEdgeStats    `json:"stats"`
	ParseSummary ParseSummaryMeta `json:"parse_summary"`
	SymbolFiles  int              `json:"symbol_files"`
}

// NodeEdgeStats is the node/edge census persisted into graph_meta.
type NodeEdgeStats struct {
	Modules      int `json:"modules"`
	Classes      int `json:"classes"`
	Funcs        int `json:"funcs"`
	ImportEdges  int `json:"import_edges"`
	CallEdges    int `json:"call_edges"`
	ContainEdges int `json:"contains_edges"`
}

// ParseSummaryMeta is the parse-pass census persisted into graph_meta.
type ParseSummaryMeta struct {
	ParsedFiles     int `json:"parsed_files"`
	SkippedFiles    int `json:"skipped_files"`
	LSPFiles        int `json:"lsp_files"`
	TreeSitterFiles int `json:"tree_sitter_files"`
	LSPFailures     int `json:"lsp_failures"`
}

// ArchitectureMeta records the rendered architecture diagram's identity,
// if one has been produced for this snapshot.
type ArchitectureMeta struct {
	LatestPNG string `json:"latest_png,omitempty"`
	DigestPNG string `json:"digest_png,omitempty"`
	Digest    string `json:"digest,omitempty"`
	RenderedAt int64 `json:"rendered_at,omitempty"`
}

// UpdatedByMeta attributes the snapshot to the process that wrote it.
type UpdatedByMeta struct {
	PID    int    `json:"pid"`
	Action string `json:"action"`
}

// CallEdgesFile is the exact on-disk schema for call_edges.<D>.json
// (spec §6). A loader must reject any file whose GraphDigest doesn't
// match the current graph_meta digest: a call_edges file is only valid
// paired with the snapshot it was computed against.
type CallEdgesFile struct {
	Version     int              `json:"version"`
	GraphDigest string           `json:"graph_digest"`
	GeneratedAt int64            `json:"generated_at"`
	Edges       []CallEdgeRecord `json:"edges"`
	InstanceID  string           `json:"instance_id"`
	Partial     bool             `json:"partial"`
}

// CallEdgesSchemaVersion is the current call_edges.<D>.json schema version.
const CallEdgesSchemaVersion = 3

// CallEdgeRecord is one serialized CALL edge.
type CallEdgeRecord struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphMetaSchemaVersion is the current graph_meta.json schema version.
const GraphMetaSchemaVersion = 1

// snapshot bundles the in-memory state a published snapshot needs, kept
// together so the compute phase and commit phase of Publish agree on
// exactly what they are publishing.
type snapshot struct {
	g           *graph.Graph
	digest      string
	meta        GraphMeta
	callEdges   CallEdgesFile
	computedAt  time.Time
}
