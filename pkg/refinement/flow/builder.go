// Package flow implements the flow-hypergraph builder of spec §4.H: given
// a subhypergraph S straddling two blocks, it produces the flow-hypergraph
// the (external, black-box) max-flow min-cut solver in pkg/maxflow
// consumes. The hyperedge-expansion technique used when a flow-hyperedge
// is finally handed to a solver (pkg/maxflow) is the builder's own
// concern, not the solver's -- the solver only ever sees a plain directed
// network.
//
// Grounded on the teacher's pkg/partitioner/dinic.go border-node /
// level-graph construction (container/list BFS), generalized from a
// geographic road graph to an abstract hyperedge-incidence BFS.
package flow

import (
	"container/list"
	"sort"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/maxflow"
)

const (
	sourceNode = 0
	sinkNode   = 1
	firstPin   = 2
)

// FlowHyperedge is one hyperedge of the built flow-hypergraph: a pin set
// (flow node ids, which may include SourceNode/SinkNode) plus a capacity
// that is the sum of every original hyperedge's weight that collapsed
// into it during identical-net dedup (property P6).
type FlowHyperedge struct {
	Pins     []int
	Capacity int64

	// OriginallyCut records whether the original hyperedge(s) this
	// flow-hyperedge summarizes were cut between block0/block1 before
	// this flow problem ran -- independent of which flow nodes
	// (source/sink included) ended up in Pins. Seeds LabelCutDistance's
	// BFS.
	OriginallyCut bool
}

// Hypergraph is the flow problem the builder produces.
type Hypergraph struct {
	NumNodes        int
	SourceNode      int
	SinkNode        int
	SourceWeight    hgtype.Weight
	SinkWeight      hgtype.Weight
	Hyperedges      []FlowHyperedge
	TotalCut        int64
	NonRemovableCut int64

	nodeOfVertex map[hgtype.ID]int
	vertexOfNode map[int]hgtype.ID
	sideOfNode   []int8 // 0 = block-0 side, 1 = block-1 side; undefined for source/sink

	// Distance is the BFS cut-distance label of step 5, nil until
	// LabelCutDistance is called.
	Distance []int
}

// VertexNode returns the flow node id for an original hypergraph vertex
// that is part of S, or (0, false) if it was not included.
func (fh *Hypergraph) VertexNode(u hgtype.ID) (int, bool) {
	n, ok := fh.nodeOfVertex[u]
	return n, ok
}

// vertexOf is VertexNode's inverse, used by ApplyMinCut to map a flow
// node back to the original vertex it represents.
func (fh *Hypergraph) vertexOf(n int) (hgtype.ID, bool) {
	u, ok := fh.vertexOfNode[n]
	return u, ok
}

type bucketEntry struct {
	index int
}

// Build constructs the flow-hypergraph for subhypergraph S = (n0, n1)
// straddling block0/block1. hyperedges is the candidate set to consider
// (spec: "hyperedges = union of incident(u) for u in N0 union N1" --
// callers pass exactly that union, deduplicated).
func Build(hg *hypergraph.Hypergraph, block0, block1 hgtype.BlockID, n0, n1 []hgtype.ID, hyperedges []hgtype.ID) *Hypergraph {
	fh := &Hypergraph{
		SourceNode:   sourceNode,
		SinkNode:     sinkNode,
		nodeOfVertex: make(map[hgtype.ID]int, len(n0)+len(n1)),
		vertexOfNode: make(map[int]hgtype.ID, len(n0)+len(n1)),
	}

	inS := make(map[hgtype.ID]int8, len(n0)+len(n1)) // 0 -> side0, 1 -> side1
	next := firstPin
	for _, u := range n0 {
		inS[u] = 0
		fh.nodeOfVertex[u] = next
		fh.vertexOfNode[next] = u
		next++
	}
	for _, u := range n1 {
		inS[u] = 1
		fh.nodeOfVertex[u] = next
		fh.vertexOfNode[next] = u
		next++
	}
	fh.NumNodes = next
	fh.sideOfNode = make([]int8, fh.NumNodes)
	for u, side := range inS {
		fh.sideOfNode[fh.nodeOfVertex[u]] = side
	}

	var c0, c1 hgtype.Weight
	for _, u := range n0 {
		c0 += hg.VertexWeight(u)
	}
	for _, u := range n1 {
		c1 += hg.VertexWeight(u)
	}
	fh.SourceWeight = nonNegative(hg.BlockWeight(block0) - c0)
	fh.SinkWeight = nonNegative(hg.BlockWeight(block1) - c1)

	buckets := make(map[uint64][]bucketEntry)

	for _, e := range hyperedges {
		if !hg.IsEdgeEnabled(e) {
			continue
		}

		var innerPins []int
		hasInnerBlock0, hasInnerBlock1 := false, false
		hasOutsideBlock0, hasOutsideBlock1 := false, false
		for _, p := range hg.Pins(e) {
			if side, in := inS[p]; in {
				innerPins = append(innerPins, fh.nodeOfVertex[p])
				if side == 0 {
					hasInnerBlock0 = true
				} else {
					hasInnerBlock1 = true
				}
				continue
			}
			switch hg.PartID(p) {
			case block0:
				hasOutsideBlock0 = true
			case block1:
				hasOutsideBlock1 = true
			}
		}

		// e is currently cut between block0 and block1 -- whether or not
		// this particular flow problem can resolve it -- iff it has some
		// representation (inner or outside) on each side.
		originallyCut := (hasInnerBlock0 || hasOutsideBlock0) && (hasInnerBlock1 || hasOutsideBlock1)
		if originallyCut {
			fh.TotalCut += int64(hg.EdgeWeight(e))
		}

		if hasOutsideBlock0 && hasOutsideBlock1 {
			// anchored outside S on both sides: no matter how the flow
			// problem resolves N0/N1, e stays cut. Not representable as a
			// flow-hyperedge -- it would force both source and sink into
			// the same pin set.
			fh.NonRemovableCut += int64(hg.EdgeWeight(e))
			continue
		}

		sort.Ints(innerPins)
		pins := append([]int(nil), innerPins...)
		hasSource := hasOutsideBlock0
		hasSink := hasOutsideBlock1
		if hasSource {
			pins = append(pins, sourceNode)
		}
		if hasSink {
			pins = append(pins, sinkNode)
		}

		if len(pins) < 2 {
			// a single pin (or none) can never be split by a cut: the
			// flow problem can't affect whether e is cut, so it carries
			// no information for the solver.
			continue
		}

		key := hashPinSet(innerPins, hasSource, hasSink)
		merged := false
		for _, cand := range buckets[key] {
			he := &fh.Hyperedges[cand.index]
			if samePinSet(he.Pins, pins) {
				he.Capacity += int64(hg.EdgeWeight(e))
				he.OriginallyCut = he.OriginallyCut || originallyCut
				merged = true
				break
			}
		}
		if !merged {
			idx := len(fh.Hyperedges)
			fh.Hyperedges = append(fh.Hyperedges, FlowHyperedge{
				Pins:          pins,
				Capacity:      int64(hg.EdgeWeight(e)),
				OriginallyCut: originallyCut,
			})
			buckets[key] = append(buckets[key], bucketEntry{index: idx})
		}
	}

	return fh
}

func nonNegative(w hgtype.Weight) hgtype.Weight {
	if w < 0 {
		return 0
	}
	return w
}

// hashPinSet is a commutative hash over the sorted inner pin ids plus the
// source/sink flags -- order-independent so two hyperedges with the same
// pin set always land in the same bucket regardless of original pin
// order (property P6: identical nets collapse regardless of insertion
// order).
func hashPinSet(sortedPins []int, hasSource, hasSink bool) uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	for _, p := range sortedPins {
		h ^= uint64(p)
		h *= 1099511628211
	}
	if hasSource {
		h ^= 0xA5
		h *= 1099511628211
	}
	if hasSink {
		h ^= 0x5A
		h *= 1099511628211
	}
	return h
}

func samePinSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LabelCutDistance runs the BFS cut-distance labeling of spec §4.H step 5.
// It seeds from every pin of a flow-hyperedge whose underlying original
// hyperedge(s) were already cut between block0/block1 (FlowHyperedge.
// OriginallyCut -- this is not the same thing as having both SourceNode
// and SinkNode as pins, which Build never produces), assigns hop-distance
// levels by walking the pin-hyperedge-pin bipartite adjacency, and
// finally signs them negative on the block-0 side and positive on the
// block-1 side. SourceNode and SinkNode receive one more than the
// largest magnitude seen on their respective side, seeding the piercing
// heuristic for the solver.
func (fh *Hypergraph) LabelCutDistance() {
	dist := make([]int, fh.NumNodes)
	for i := range dist {
		dist[i] = -1
	}

	incidentOf := make(map[int][]int) // node -> hyperedge indices
	for idx, he := range fh.Hyperedges {
		for _, p := range he.Pins {
			if p == sourceNode || p == sinkNode {
				continue
			}
			incidentOf[p] = append(incidentOf[p], idx)
		}
	}

	q := list.New()
	for _, he := range fh.Hyperedges {
		if !isOriginallyCut(he) {
			continue
		}
		for _, p := range he.Pins {
			if p == sourceNode || p == sinkNode {
				continue
			}
			if dist[p] == -1 {
				dist[p] = 0
				q.PushBack(p)
			}
		}
	}

	for q.Len() > 0 {
		u := q.Remove(q.Front()).(int)
		level := dist[u] + 1
		for _, idx := range incidentOf[u] {
			for _, v := range fh.Hyperedges[idx].Pins {
				if v == sourceNode || v == sinkNode {
					continue
				}
				if dist[v] == -1 {
					dist[v] = level
					q.PushBack(v)
				}
			}
		}
	}

	max0, max1 := 0, 0
	signed := make([]int, fh.NumNodes)
	for n := firstPin; n < fh.NumNodes; n++ {
		if dist[n] < 0 {
			continue
		}
		if fh.sideOfNode[n] == 0 {
			signed[n] = -dist[n]
			if dist[n] > max0 {
				max0 = dist[n]
			}
		} else {
			signed[n] = dist[n]
			if dist[n] > max1 {
				max1 = dist[n]
			}
		}
	}
	signed[sourceNode] = -(max0 + 1)
	signed[sinkNode] = max1 + 1
	fh.Distance = signed
}

// NetworkDistanceHint extends Distance to cover every node ToNetwork's
// node-splitting expansion produces, for handing to
// maxflow.Solver.SetDistanceHint. The extra in/out nodes ToNetwork
// introduces per flow-hyperedge have no side of their own, so they get
// the neutral hint value 0. LabelCutDistance must have been called
// first; NetworkDistanceHint returns nil otherwise.
func (fh *Hypergraph) NetworkDistanceHint() []int {
	if fh.Distance == nil {
		return nil
	}
	hint := make([]int, fh.NumNodes+2*len(fh.Hyperedges))
	copy(hint, fh.Distance)
	return hint
}

// isOriginallyCut reports whether he summarizes original hyperedge(s)
// that were cut between block0/block1 before this flow problem ran.
// This is independent of he.Pins' own source/sink membership: Build
// never produces a flow-hyperedge with both source and sink as pins
// (that case is folded into NonRemovableCut and never reaches
// fh.Hyperedges), so testing Pins directly would always be false.
func isOriginallyCut(he FlowHyperedge) bool {
	return he.OriginallyCut
}

// ToNetwork expands the flow-hypergraph into a plain flow network the
// solver in pkg/maxflow can run. Each flow-hyperedge is expanded with the
// standard node-splitting construction: an in-node and out-node joined by
// an arc of the hyperedge's capacity, with every pin wired in via an
// infinite-capacity arc and out via an infinite-capacity arc, so the min
// cut pays the hyperedge's capacity at most once no matter how many pins
// it has on each side.
func (fh *Hypergraph) ToNetwork() (*maxflow.Network, map[int]int) {
	total := fh.NumNodes + 2*len(fh.Hyperedges)
	net := maxflow.NewNetwork(total)
	nodeRemap := make(map[int]int, fh.NumNodes)
	for n := 0; n < fh.NumNodes; n++ {
		nodeRemap[n] = n
	}
	const inf = int64(1) << 40
	for i, he := range fh.Hyperedges {
		in := fh.NumNodes + 2*i
		out := in + 1
		net.AddEdge(in, out, he.Capacity)
		for _, p := range he.Pins {
			net.AddEdge(nodeRemap[p], in, inf)
			net.AddEdge(out, nodeRemap[p], inf)
		}
	}
	return net, nodeRemap
}
