// Package maxflow is the external max-flow min-cut collaborator spec §1
// treats as a black box with a published interface: "the underlying
// max-flow min-cut solver (treated as a black-box with a published
// interface)" is explicitly out of scope for the partitioning core. This
// package is that published interface and one concrete implementation of
// it (Dinic, with Edmonds-Karp kept as an alternate), adapted from the
// teacher's unit-capacity road-network max-flow solver
// (pkg/partitioner/dinic.go, edmonds_karp.go, partition_graph.go) to run
// over an arbitrary-capacity flow network built from a flow-hypergraph
// (pkg/refinement/flow) instead of a geographic road graph.
package maxflow

import "sort"

// Edge is a directed arc with residual capacity, stored in from/to pairs
// so every edge's reverse arc sits at index (id XOR 1), exactly like the
// teacher's MaxFlowEdge/PartitionGraph pairing.
type Edge struct {
	id       int
	u, v     int
	capacity int64
	flow     int64
}

func (e *Edge) From() int        { return e.u }
func (e *Edge) To() int          { return e.v }
func (e *Edge) Capacity() int64  { return e.capacity }
func (e *Edge) Flow() int64      { return e.flow }
func (e *Edge) Residual() int64  { return e.capacity - e.flow }
func (e *Edge) addFlow(f int64) { e.flow += f }

// Network is a generic directed flow graph over dense integer node ids.
type Network struct {
	adjacency [][]int
	edges     []*Edge
	level     []int
	cursor    []int
}

func NewNetwork(numNodes int) *Network {
	return &Network{
		adjacency: make([][]int, numNodes),
		level:     make([]int, numNodes),
		cursor:    make([]int, numNodes),
	}
}

func (n *Network) NumNodes() int { return len(n.adjacency) }

// AddEdge adds a forward arc of the given capacity and a zero-capacity
// reverse arc, as required for residual-graph augmenting-path search.
func (n *Network) AddEdge(u, v int, capacity int64) *Edge {
	fwd := &Edge{id: len(n.edges), u: u, v: v, capacity: capacity}
	n.edges = append(n.edges, fwd)
	n.adjacency[u] = append(n.adjacency[u], fwd.id)

	rev := &Edge{id: len(n.edges), u: v, v: u, capacity: 0}
	n.edges = append(n.edges, rev)
	n.adjacency[v] = append(n.adjacency[v], rev.id)
	return fwd
}

func (n *Network) ForEachEdgeOf(u int, fn func(e *Edge)) {
	for _, idx := range n.adjacency[u] {
		fn(n.edges[idx])
	}
}

// SetDistanceHint installs a piercing heuristic: every node's outgoing
// adjacency is reordered so arcs leading to nodes closer to the original
// cut (smaller |hint|) are visited first during augmenting-path search.
// This shortens the paths Dinic/Edmonds-Karp tend to find first without
// changing correctness -- search order only, not which paths are legal.
// hint must be indexed by node id and is typically
// flow.Hypergraph.NetworkDistanceHint()'s output.
func (n *Network) SetDistanceHint(hint []int) {
	if hint == nil {
		return
	}
	weight := func(nodeID int) int {
		if nodeID < 0 || nodeID >= len(hint) {
			return 0
		}
		h := hint[nodeID]
		if h < 0 {
			return -h
		}
		return h
	}
	for _, adj := range n.adjacency {
		sort.SliceStable(adj, func(i, j int) bool {
			return weight(n.edges[adj[i]].To()) < weight(n.edges[adj[j]].To())
		})
	}
}

func (n *Network) reverseOf(e *Edge) *Edge {
	return n.edges[e.id^1]
}

func (n *Network) resetLevels() {
	for i := range n.level {
		n.level[i] = invalidLevel
	}
}

func (n *Network) resetCursors() {
	for i := range n.cursor {
		n.cursor[i] = 0
	}
}

const invalidLevel = -1
