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
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianFOSS/ast"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges is the default maximum number of edges a graph can hold.
	DefaultMaxEdges = 10_000_000
)

// GraphState represents the lifecycle state of the graph.
type GraphState int

const (
	// GraphStateBuilding indicates the graph is accepting AddNode/AddEdge calls.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly indicates the graph is frozen and read-only.
	GraphStateReadOnly
)

// String returns the string representation of the GraphState.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// EdgeType defines the type of relationship between nodes. CodeCanvas
// carries only the three relationships spec.md's graph model names;
// unlike a general code-relationship graph it does not track implements,
// embeds, returns, receives, or parameter-type edges.
type EdgeType int

const (
	// EdgeTypeUnknown indicates an unrecognized relationship type.
	EdgeTypeUnknown EdgeType = iota

	// EdgeTypeContains indicates a MODULE contains a CLASS/FUNC, or a
	// CLASS contains a method FUNC.
	EdgeTypeContains

	// EdgeTypeImport indicates a MODULE imports another MODULE.
	EdgeTypeImport

	// EdgeTypeCall indicates a FUNC calls another FUNC (resolved by the
	// call-graph resolver, not the graph builder).
	EdgeTypeCall

	// NumEdgeTypes is the total number of edge types (for array sizing).
	NumEdgeTypes
)

var edgeTypeNames = map[EdgeType]string{
	EdgeTypeUnknown:  "unknown",
	EdgeTypeContains: "contains",
	EdgeTypeImport:   "import",
	EdgeTypeCall:     "call",
}

// String returns the string representation of the EdgeType.
func (t EdgeType) String() string {
	if name, ok := edgeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Edge represents a directed relationship between two nodes.
//
// The Graph does not deduplicate edges, so several edges of the same type
// between the same nodes are possible. CALL edges merged in by the
// coordinator are deduplicated per (caller, callee) pair and carry an
// empty Location.
type Edge struct {
	// FromID is the ID of the source node.
	FromID string

	// ToID is the ID of the target node.
	ToID string

	// Type is the relationship type (contains, import, call).
	Type EdgeType

	// Location is where the relationship is expressed in code.
	Location ast.Location
}

// Node represents a MODULE, CLASS, or FUNC in the code graph.
//
// The Symbol pointer is NOT owned by the Node. The referenced Symbol
// MUST NOT be mutated after the Node is added to a Graph.
type Node struct {
	// ID is the stable graph identity assigned by identity.go
	// (mod_<h>, cls_<h>, fn_<h>), same as Symbol.ID.
	ID string

	// Label is the module-relative qualified name this node's identity
	// was derived from: the module label for a MODULE node, or
	// "<label>:<qualname>" for a CLASS/FUNC node.
	Label string

	// Symbol is the underlying symbol from AST parsing.
	// This pointer is NOT owned by the Node.
	Symbol *ast.Symbol

	// Outgoing contains edges where this node is the source.
	Outgoing []*Edge

	// Incoming contains edges where this node is the target.
	Incoming []*Edge
}

// GraphOptions configures Graph behavior and limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	MaxEdges int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// GraphOption is a functional option for configuring Graph.
type GraphOption func(*GraphOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) GraphOption {
	return func(o *GraphOptions) {
		o.MaxEdges = n
	}
}

// Graph represents the snapshot-scoped code graph for a workspace.
//
// Thread Safety:
//
//	Graph is NOT safe for concurrent use during building. It is designed
//	for single-writer access during Build()/Refresh(), then read-only
//	after Freeze(). After Freeze() is called, the graph can be safely
//	read from multiple goroutines, but no further modifications are
//	allowed.
//
// Lifecycle:
//
//  1. Create with NewGraph(workspaceRoot)
//  2. Build with AddNode() and AddEdge() calls
//  3. Call Freeze() to finalize
//  4. Query with GetNode(), GetNodesByKind(), etc.
type Graph struct {
	// ProjectRoot is the absolute path to the workspace root directory.
	ProjectRoot string

	nodes map[string]*Node

	edges []*Edge

	nodesByName map[string][]*Node

	nodesByKind map[ast.SymbolKind][]*Node

	edgesByType [NumEdgeTypes][]*Edge

	edgesByFile map[string][]*Edge

	state GraphState

	options GraphOptions

	// BuiltAtMilli is the Unix timestamp in milliseconds when Freeze() was
	// called. Zero if the graph has not been frozen.
	BuiltAtMilli int64
}

// NewGraph creates a new empty graph for the given workspace root.
func NewGraph(projectRoot string, opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Graph{
		ProjectRoot: projectRoot,
		nodes:       make(map[string]*Node),
		edges:       make([]*Edge, 0),
		nodesByName: make(map[string][]*Node),
		nodesByKind: make(map[ast.SymbolKind][]*Node),
		edgesByFile: make(map[string][]*Edge),
		state:       GraphStateBuilding,
		options:     options,
	}
}

// State returns the current lifecycle state of the graph.
func (g *Graph) State() GraphState {
	return g.state
}

// IsFrozen returns true if the graph is in read-only mode.
func (g *Graph) IsFrozen() bool {
	return g.state == GraphStateReadOnly
}

// Freeze transitions the graph to read-only mode. Irreversible.
func (g *Graph) Freeze() {
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// AddNode adds a symbol as a node in the graph, keyed by the stable ID
// assigned to the symbol (see identity.go). Returns ErrDuplicateNode if
// a node with that ID already exists — callers merging overlapping
// parses should check GetNode first when duplication is expected.
func (g *Graph) AddNode(id, label string, symbol *ast.Symbol) (*Node, error) {
	if g.state == GraphStateReadOnly {
		return nil, ErrGraphFrozen
	}

	if symbol == nil {
		return nil, fmt.Errorf("%w: symbol is nil", ErrInvalidNode)
	}

	if len(g.nodes) >= g.options.MaxNodes {
		return nil, ErrMaxNodesExceeded
	}

	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	node := &Node{
		ID:       id,
		Label:    label,
		Symbol:   symbol,
		Outgoing: make([]*Edge, 0),
		Incoming: make([]*Edge, 0),
	}

	g.nodes[id] = node

	if symbol.Name != "" {
		g.nodesByName[symbol.Name] = append(g.nodesByName[symbol.Name], node)
	}
	g.nodesByKind[symbol.Kind] = append(g.nodesByKind[symbol.Kind], node)

	return node, nil
}

// GetNode retrieves a node by its stable ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// AddEdge creates a directed edge between two existing nodes.
func (g *Graph) AddEdge(fromID, toID string, edgeType EdgeType, loc ast.Location) error {
	if g.state == GraphStateReadOnly {
		return ErrGraphFrozen
	}

	if len(g.edges) >= g.options.MaxEdges {
		return ErrMaxEdgesExceeded
	}

	fromNode, fromOK := g.nodes[fromID]
	if !fromOK {
		return fmt.Errorf("%w: source %s", ErrNodeNotFound, fromID)
	}

	toNode, toOK := g.nodes[toID]
	if !toOK {
		return fmt.Errorf("%w: target %s", ErrNodeNotFound, toID)
	}

	edge := &Edge{
		FromID:   fromID,
		ToID:     toID,
		Type:     edgeType,
		Location: loc,
	}

	g.edges = append(g.edges, edge)
	fromNode.Outgoing = append(fromNode.Outgoing, edge)
	toNode.Incoming = append(toNode.Incoming, edge)

	if edgeType >= 0 && edgeType < NumEdgeTypes {
		g.edgesByType[edgeType] = append(g.edgesByType[edgeType], edge)
	}

	if loc.FilePath != "" {
		g.edgesByFile[loc.FilePath] = append(g.edgesByFile[loc.FilePath], edge)
	}

	return nil
}

// Nodes returns an iterator function over all nodes in the graph.
func (g *Graph) Nodes() func(yield func(string, *Node) bool) {
	return func(yield func(string, *Node) bool) {
		for id, node := range g.nodes {
			if !yield(id, node) {
				return
			}
		}
	}
}

// Edges returns the internal edge slice. Callers must not modify it.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// GraphStats contains statistics about the graph.
type GraphStats struct {
	NodeCount    int
	EdgeCount    int
	EdgesByType  map[EdgeType]int
	NodesByKind  map[ast.SymbolKind]int
	MaxNodes     int
	MaxEdges     int
	State        GraphState
	BuiltAtMilli int64
}

// Stats returns statistics about the graph, using the secondary indexes
// for O(types + kinds) rather than O(V+E) iteration.
func (g *Graph) Stats() GraphStats {
	edgesByType := make(map[EdgeType]int)
	for i := 0; i < int(NumEdgeTypes); i++ {
		if count := len(g.edgesByType[i]); count > 0 {
			edgesByType[EdgeType(i)] = count
		}
	}

	nodesByKind := make(map[ast.SymbolKind]int)
	for kind, nodes := range g.nodesByKind {
		if len(nodes) > 0 {
			nodesByKind[kind] = len(nodes)
		}
	}

	return GraphStats{
		NodeCount:    len(g.nodes),
		EdgeCount:    len(g.edges),
		EdgesByType:  edgesByType,
		NodesByKind:  nodesByKind,
		MaxNodes:     g.options.MaxNodes,
		MaxEdges:     g.options.MaxEdges,
		State:        g.state,
		BuiltAtMilli: g.BuiltAtMilli,
	}
}

// Clone creates a deep copy of the graph, always in GraphStateBuilding
// state regardless of the source graph's state. Used by the refresher
// for copy-on-write incremental updates: the caller mutates the clone,
// then atomically swaps it in for readers.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		ProjectRoot:  g.ProjectRoot,
		nodes:        make(map[string]*Node, len(g.nodes)),
		edges:        make([]*Edge, 0, len(g.edges)),
		nodesByName:  make(map[string][]*Node, len(g.nodesByName)),
		nodesByKind:  make(map[ast.SymbolKind][]*Node, len(g.nodesByKind)),
		edgesByFile:  make(map[string][]*Edge, len(g.edgesByFile)),
		state:        GraphStateBuilding,
		options:      g.options,
		BuiltAtMilli: g.BuiltAtMilli,
	}

	for id, node := range g.nodes {
		clonedNode := &Node{
			ID:       node.ID,
			Label:    node.Label,
			Symbol:   node.Symbol,
			Outgoing: make([]*Edge, 0, len(node.Outgoing)),
			Incoming: make([]*Edge, 0, len(node.Incoming)),
		}
		clone.nodes[id] = clonedNode

		if node.Symbol != nil && node.Symbol.Name != "" {
			clone.nodesByName[node.Symbol.Name] = append(clone.nodesByName[node.Symbol.Name], clonedNode)
		}
		if node.Symbol != nil {
			clone.nodesByKind[node.Symbol.Kind] = append(clone.nodesByKind[node.Symbol.Kind], clonedNode)
		}
	}

	for _, edge := range g.edges {
		clonedEdge := &Edge{
			FromID:   edge.FromID,
			ToID:     edge.ToID,
			Type:     edge.Type,
			Location: edge.Location,
		}
		clone.edges = append(clone.edges, clonedEdge)

		if fromNode, ok := clone.nodes[edge.FromID]; ok {
			fromNode.Outgoing = append(fromNode.Outgoing, clonedEdge)
		}
		if toNode, ok := clone.nodes[edge.ToID]; ok {
			toNode.Incoming = append(toNode.Incoming, clonedEdge)
		}

		if edge.Type >= 0 && edge.Type < NumEdgeTypes {
			clone.edgesByType[edge.Type] = append(clone.edgesByType[edge.Type], clonedEdge)
		}
		if edge.Location.FilePath != "" {
			clone.edgesByFile[edge.Location.FilePath] = append(clone.edgesByFile[edge.Location.FilePath], clonedEdge)
		}
	}

	return clone
}

// RemoveFile removes all nodes and edges associated with a file. Used by
// the refresher when a dirty file is re-parsed or deleted.
func (g *Graph) RemoveFile(filePath string) (int, error) {
	if g.state == GraphStateReadOnly {
		return 0, ErrGraphFrozen
	}

	toRemove := make(map[string]bool)
	removedNames := make(map[string]bool)
	removedKinds := make(map[ast.SymbolKind]bool)

	for id, node := range g.nodes {
		if node.Symbol != nil && node.Symbol.FilePath == filePath {
			toRemove[id] = true
			if node.Symbol.Name != "" {
				removedNames[node.Symbol.Name] = true
			}
			removedKinds[node.Symbol.Kind] = true
		}
	}

	if len(toRemove) == 0 {
		return 0, nil
	}

	for id := range toRemove {
		delete(g.nodes, id)
	}

	for name := range removedNames {
		nodes := g.nodesByName[name]
		filtered := make([]*Node, 0, len(nodes))
		for _, n := range nodes {
			if !toRemove[n.ID] {
				filtered = append(filtered, n)
			}
		}
		if len(filtered) == 0 {
			delete(g.nodesByName, name)
		} else {
			g.nodesByName[name] = filtered
		}
	}

	for kind := range removedKinds {
		nodes := g.nodesByKind[kind]
		filtered := make([]*Node, 0, len(nodes))
		for _, n := range nodes {
			if !toRemove[n.ID] {
				filtered = append(filtered, n)
			}
		}
		if len(filtered) == 0 {
			delete(g.nodesByKind, kind)
		} else {
			g.nodesByKind[kind] = filtered
		}
	}

	newEdges := make([]*Edge, 0, len(g.edges))
	removedEdgeTypes := make(map[EdgeType]bool)
	removedEdgeFiles := make(map[string]bool)

	for _, edge := range g.edges {
		if toRemove[edge.FromID] || toRemove[edge.ToID] {
			removedEdgeTypes[edge.Type] = true
			if edge.Location.FilePath != "" {
				removedEdgeFiles[edge.Location.FilePath] = true
			}
			continue
		}
		newEdges = append(newEdges, edge)
	}
	g.edges = newEdges

	for edgeType := range removedEdgeTypes {
		if edgeType >= 0 && edgeType < NumEdgeTypes {
			edges := g.edgesByType[edgeType]
			filtered := make([]*Edge, 0, len(edges))
			for _, e := range edges {
				if !toRemove[e.FromID] && !toRemove[e.ToID] {
					filtered = append(filtered, e)
				}
			}
			g.edgesByType[edgeType] = filtered
		}
	}

	for filePath := range removedEdgeFiles {
		edges := g.edgesByFile[filePath]
		filtered := make([]*Edge, 0, len(edges))
		for _, e := range edges {
			if !toRemove[e.FromID] && !toRemove[e.ToID] {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(g.edgesByFile, filePath)
		} else {
			g.edgesByFile[filePath] = filtered
		}
	}

	for _, node := range g.nodes {
		node.Outgoing = filterEdges(node.Outgoing, toRemove)
		node.Incoming = filterEdges(node.Incoming, toRemove)
	}

	return len(toRemove), nil
}

func filterEdges(edges []*Edge, removed map[string]bool) []*Edge {
	result := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if !removed[e.FromID] && !removed[e.ToID] {
			result = append(result, e)
		}
	}
	return result
}

// GetNodesByFile returns all nodes defined in the given file.
func (g *Graph) GetNodesByFile(filePath string) []*Node {
	result := make([]*Node, 0)
	for _, node := range g.nodes {
		if node.Symbol != nil && node.Symbol.FilePath == filePath {
			result = append(result, node)
		}
	}
	return result
}

// GetNodesByName returns a defensive copy of all nodes with the given
// symbol name.
func (g *Graph) GetNodesByName(name string) []*Node {
	nodes := g.nodesByName[name]
	if len(nodes) == 0 {
		return []*Node{}
	}
	result := make([]*Node, len(nodes))
	copy(result, nodes)
	return result
}

// GetNodesByKind returns a defensive copy of all nodes of the given kind.
func (g *Graph) GetNodesByKind(kind ast.SymbolKind) []*Node {
	nodes := g.nodesByKind[kind]
	if len(nodes) == 0 {
		return []*Node{}
	}
	result := make([]*Node, len(nodes))
	copy(result, nodes)
	return result
}

// GetEdgesByType returns a defensive copy of all edges of the given type.
func (g *Graph) GetEdgesByType(edgeType EdgeType) []*Edge {
	if edgeType < 0 || edgeType >= NumEdgeTypes {
		return []*Edge{}
	}
	edges := g.edgesByType[edgeType]
	if len(edges) == 0 {
		return []*Edge{}
	}
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}

// GetEdgesByFile returns a defensive copy of all edges whose Location
// falls within the given file.
func (g *Graph) GetEdgesByFile(filePath string) []*Edge {
	edges := g.edgesByFile[filePath]
	if len(edges) == 0 {
		return []*Edge{}
	}
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}
