// Package hypergraph implements the mutable incidence-storage hypergraph
// (spec §3 / §4.A) together with its partition overlay. Both live on the
// same struct because the spec's ownership model is explicit about it:
// "the Hypergraph owns its incidence storage and partition overlay;
// refiners borrow a mutable reference but mutate only the overlay".
//
// The teacher repo stores its road-network graph as flat CSR
// (firstOut/firstIn pointers into flattened edge arrays) because that
// graph's topology never changes after the OSM import. A hypergraph under
// contraction needs per-vertex/per-hyperedge slices that grow and shrink,
// so incidence here is slice-of-slices rather than flat CSR -- Design
// Note 9.4 treats a NUMA-aware flat-CSR split as an optional storage
// optimization layered on top of this same contract, not a requirement.
package hypergraph

import (
	"sync/atomic"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
)

const noCommunity int32 = -1

// Hypergraph is H=(V,E,ω,c) plus the partition overlay Π layered on it.
type Hypergraph struct {
	width hgtype.IDWidth

	// --- vertex topology ---
	vWeight    []hgtype.Weight
	vEnabled   []bool
	vCommunity []int32 // noCommunity if communities are not in use
	incident   [][]hgtype.ID
	numVActive int

	// --- hyperedge topology ---
	eWeight    []hgtype.Weight
	eEnabled   []bool
	pins       [][]hgtype.ID
	numEActive int

	// --- partition overlay (spec §3 "Partition overlay Π") ---
	k               int
	partID          []hgtype.BlockID
	blockWeight     []int64 // atomically mutated, c(V_i)
	blockSize       []int64 // atomically mutated, |V_i|
	pinCount        []int32 // flattened [e*k+i], atomically mutated, p(e,i)
	connectivity    []int32 // atomically mutated, |Λ(e)|
	gainInitialized bool
	moveFromBenefit []hgtype.Weight   // per vertex
	moveToPenalty   [][]hgtype.Weight // per vertex, per block
}

// New builds an empty (uncontracted, unpartitioned) hypergraph with the
// given per-vertex weights, per-hyperedge weights and pin lists. width
// selects the id-width instantiation (Design Note 9.1); most callers pass
// hgtype.Small32.
func New(width hgtype.IDWidth, vertexWeights []hgtype.Weight, edgeWeights []hgtype.Weight, pinLists [][]hgtype.ID) *Hypergraph {
	nv := len(vertexWeights)
	ne := len(edgeWeights)

	h := &Hypergraph{
		width:      width,
		vWeight:    append([]hgtype.Weight(nil), vertexWeights...),
		vEnabled:   make([]bool, nv),
		vCommunity: make([]int32, nv),
		incident:   make([][]hgtype.ID, nv),
		numVActive: nv,
		eWeight:    append([]hgtype.Weight(nil), edgeWeights...),
		eEnabled:   make([]bool, ne),
		pins:       make([][]hgtype.ID, ne),
		numEActive: ne,
	}
	for i := range h.vEnabled {
		h.vEnabled[i] = true
		h.vCommunity[i] = noCommunity
	}
	for e := range h.eEnabled {
		h.eEnabled[e] = true
		h.pins[e] = append([]hgtype.ID(nil), pinLists[e]...)
		for _, u := range h.pins[e] {
			h.incident[u] = append(h.incident[u], hgtype.ID(e))
		}
	}
	return h
}

// Clone deep-copies the hypergraph, including its partition overlay and
// gain cache if present. Spec §5's "deep-multilevel parallel sub-calls
// are embarrassingly parallel and commute (each operates on a private
// hypergraph copy)" is exactly what this exists for: the driver forks
// onto private copies before recursing, rather than sharing mutable
// state across the fork.
func (h *Hypergraph) Clone() *Hypergraph {
	c := &Hypergraph{
		width:           h.width,
		vWeight:         append([]hgtype.Weight(nil), h.vWeight...),
		vEnabled:        append([]bool(nil), h.vEnabled...),
		vCommunity:      append([]int32(nil), h.vCommunity...),
		incident:        make([][]hgtype.ID, len(h.incident)),
		numVActive:      h.numVActive,
		eWeight:         append([]hgtype.Weight(nil), h.eWeight...),
		eEnabled:        append([]bool(nil), h.eEnabled...),
		pins:            make([][]hgtype.ID, len(h.pins)),
		numEActive:      h.numEActive,
		k:               h.k,
		partID:          append([]hgtype.BlockID(nil), h.partID...),
		blockWeight:     append([]int64(nil), h.blockWeight...),
		blockSize:       append([]int64(nil), h.blockSize...),
		pinCount:        append([]int32(nil), h.pinCount...),
		connectivity:    append([]int32(nil), h.connectivity...),
		gainInitialized: h.gainInitialized,
	}
	for i, e := range h.incident {
		c.incident[i] = append([]hgtype.ID(nil), e...)
	}
	for i, p := range h.pins {
		c.pins[i] = append([]hgtype.ID(nil), p...)
	}
	if h.moveFromBenefit != nil {
		c.moveFromBenefit = append([]hgtype.Weight(nil), h.moveFromBenefit...)
		c.moveToPenalty = make([][]hgtype.Weight, len(h.moveToPenalty))
		for i, row := range h.moveToPenalty {
			c.moveToPenalty[i] = append([]hgtype.Weight(nil), row...)
		}
	}
	return c
}

func (h *Hypergraph) NumVertices() int       { return len(h.vWeight) }
func (h *Hypergraph) NumHyperedges() int     { return len(h.eWeight) }
func (h *Hypergraph) NumActiveVertices() int { return h.numVActive }
func (h *Hypergraph) NumActiveEdges() int    { return h.numEActive }

func (h *Hypergraph) VertexWeight(u hgtype.ID) hgtype.Weight { return h.vWeight[u] }
func (h *Hypergraph) EdgeWeight(e hgtype.ID) hgtype.Weight   { return h.eWeight[e] }
func (h *Hypergraph) IsVertexEnabled(u hgtype.ID) bool       { return h.vEnabled[u] }
func (h *Hypergraph) IsEdgeEnabled(e hgtype.ID) bool         { return h.eEnabled[e] }
func (h *Hypergraph) EdgeSize(e hgtype.ID) int               { return len(h.pins[e]) }
func (h *Hypergraph) Pins(e hgtype.ID) []hgtype.ID           { return h.pins[e] }
func (h *Hypergraph) IncidentEdges(u hgtype.ID) []hgtype.ID  { return h.incident[u] }
func (h *Hypergraph) Degree(u hgtype.ID) int                 { return len(h.incident[u]) }

// EnableCommunities tags each vertex with a community id. Contraction is
// then only permitted between vertices sharing a community.
func (h *Hypergraph) EnableCommunities(community []int32) {
	copy(h.vCommunity, community)
}

func (h *Hypergraph) Community(u hgtype.ID) int32 { return h.vCommunity[u] }

// ForEachActiveVertex iterates enabled vertices in id order.
func (h *Hypergraph) ForEachActiveVertex(fn func(u hgtype.ID)) {
	for i, on := range h.vEnabled {
		if on {
			fn(hgtype.ID(i))
		}
	}
}

// ForEachActiveEdge iterates enabled hyperedges in id order.
func (h *Hypergraph) ForEachActiveEdge(fn func(e hgtype.ID)) {
	for i, on := range h.eEnabled {
		if on {
			fn(hgtype.ID(i))
		}
	}
}

// TotalWeight is Σ_{u enabled} c(u), the right-hand side of invariant I1.
func (h *Hypergraph) TotalWeight() hgtype.Weight {
	var total hgtype.Weight
	h.ForEachActiveVertex(func(u hgtype.ID) { total += h.vWeight[u] })
	return total
}

// --- contraction / uncontraction (spec §4.A) ---

// Contract merges v into u. Both must currently be enabled and, if
// communities are in use, share a community. Concurrency: only safe when
// the caller (the coarsener) has exclusive ownership of both u and v --
// see the CAS matching protocol in pkg/coarsening.
func (h *Hypergraph) Contract(u, v hgtype.ID) Memento {
	if !h.vEnabled[u] || !h.vEnabled[v] {
		panic("hypergraph: contract requires both endpoints enabled")
	}
	if h.vCommunity[u] != noCommunity && h.vCommunity[u] != h.vCommunity[v] {
		panic("hypergraph: contract requires matching communities")
	}

	m := Memento{u: u, v: v, uWeight: h.vWeight[u]}
	h.vWeight[u] += h.vWeight[v]

	for _, e := range h.incident[v] {
		if !h.eEnabled[e] {
			continue
		}
		pos, hasU := indexAndContains(h.pins[e], u, v)
		if hasU {
			// u is already a pin of e: drop v's occurrence (parallel-net
			// dedup per invariant I5, no duplicate pins survive).
			h.pins[e] = removeAt(h.pins[e], pos)
			m.rewrites = append(m.rewrites, pinRewrite{edge: e, dedup: true, pos: pos})
		} else {
			// rewrite the slot that held v to hold u instead.
			h.pins[e][pos] = u
			h.incident[u] = append(h.incident[u], e)
			m.rewrites = append(m.rewrites, pinRewrite{edge: e, dedup: false, pos: pos})
		}
	}

	h.vEnabled[v] = false
	h.numVActive--
	return m
}

// indexAndContains returns the index of v in pins, and whether u is also
// present in pins.
func indexAndContains(pins []hgtype.ID, u, v hgtype.ID) (pos int, hasU bool) {
	pos = -1
	for i, p := range pins {
		if p == v {
			pos = i
		}
		if p == u {
			hasU = true
		}
	}
	return pos, hasU
}

func removeAt(s []hgtype.ID, i int) []hgtype.ID {
	return append(s[:i], s[i+1:]...)
}

// Uncontract is the exact inverse of the Contract that produced m. It must
// be applied in LIFO order against the memento stack (property P3).
func (h *Hypergraph) Uncontract(m Memento) {
	// replay rewrites in reverse so insertion positions line up exactly.
	for i := len(m.rewrites) - 1; i >= 0; i-- {
		rw := m.rewrites[i]
		if rw.dedup {
			h.pins[rw.edge] = insertAt(h.pins[rw.edge], rw.pos, m.v)
		} else {
			h.pins[rw.edge][rw.pos] = m.v
			h.incident[m.u] = popLast(h.incident[m.u], rw.edge)
		}
	}
	h.vWeight[m.u] = m.uWeight
	h.vEnabled[m.v] = true
	h.numVActive++

	if h.k > 0 {
		// spec §4.A: "Restores partId(v) <- partId(u) (both blocks share
		// the representative's block at contraction time)."
		b := h.partID[m.u]
		h.setPartIDRaw(m.v, b)
		atomic.AddInt64(&h.blockSize[b], 1)

		// A dedup rewrite means contraction dropped v's pin of e, so
		// pins(e) held u alone and p(e,b) counted one pin for the pair;
		// v re-entering pins(e) makes a second pin of e in block b, so
		// p(e,b) grows by one. A non-dedup rewrite only renames the pin slot from u
		// back to v -- same block, same occupancy, nothing to update.
		for _, rw := range m.rewrites {
			if rw.dedup {
				h.bumpPinCount(rw.edge, b, 1)
			}
		}
	}
}

func insertAt(s []hgtype.ID, i int, v hgtype.ID) []hgtype.ID {
	s = append(s, hgtype.NoID)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// popLast removes the most recently appended occurrence of e from s. The
// rewrite that added e to incident(u) during Contract is always the last
// append for that edge at this position in the log, since rewrites for a
// single Uncontract are replayed in exact reverse order.
func popLast(s []hgtype.ID, e hgtype.ID) []hgtype.ID {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == e {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// RemoveEdge disables e and unlinks it from the incident list of every one
// of its current pins.
func (h *Hypergraph) RemoveEdge(e hgtype.ID) {
	if !h.eEnabled[e] {
		return
	}
	for _, u := range h.pins[e] {
		h.incident[u] = popLast(h.incident[u], e)
	}
	h.eEnabled[e] = false
	h.numEActive--
	if h.k > 0 {
		base := int(e) * h.k
		for i := 0; i < h.k; i++ {
			atomic.StoreInt32(&h.pinCount[base+i], 0)
		}
		atomic.StoreInt32(&h.connectivity[e], 0)
	}
}

// RestoreEdge re-enables e with the given pin list and re-links it into
// every pin's incident list. Per spec §9's resolution of the open
// question about restoreEdge: this does not recompute p(e,i) or Λ(e) --
// the caller must follow every RestoreEdge with a pin-count
// reinitialization for e (ReinitializePinCounts) before any subsequent
// partition query touches e.
func (h *Hypergraph) RestoreEdge(e hgtype.ID, pinList []hgtype.ID) {
	h.pins[e] = append([]hgtype.ID(nil), pinList...)
	for _, u := range h.pins[e] {
		h.incident[u] = append(h.incident[u], e)
	}
	h.eEnabled[e] = true
	h.numEActive++
}
