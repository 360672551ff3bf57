package hypergraph

import (
	"sync/atomic"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
)

// InitPartition allocates the partition overlay for k blocks. It must be
// called once, before the initial partitioner assigns any block; every
// vertex starts at hgtype.UnassignedBlock.
func (h *Hypergraph) InitPartition(k int) {
	n := h.NumVertices()
	ne := h.NumHyperedges()
	h.k = k
	h.partID = make([]hgtype.BlockID, n)
	for i := range h.partID {
		h.partID[i] = hgtype.UnassignedBlock
	}
	h.blockWeight = make([]int64, k)
	h.blockSize = make([]int64, k)
	h.pinCount = make([]int32, ne*k)
	h.connectivity = make([]int32, ne)
	h.gainInitialized = false
}

func (h *Hypergraph) K() int { return h.k }

func (h *Hypergraph) PartID(u hgtype.ID) hgtype.BlockID { return h.partID[u] }

func (h *Hypergraph) BlockWeight(i hgtype.BlockID) hgtype.Weight {
	return hgtype.Weight(atomic.LoadInt64(&h.blockWeight[i]))
}

func (h *Hypergraph) BlockSize(i hgtype.BlockID) int64 {
	return atomic.LoadInt64(&h.blockSize[i])
}

// PinCountInPart is p(e,i).
func (h *Hypergraph) PinCountInPart(e hgtype.ID, i hgtype.BlockID) int32 {
	return atomic.LoadInt32(&h.pinCount[int(e)*h.k+int(i)])
}

// Connectivity is |Λ(e)|.
func (h *Hypergraph) Connectivity(e hgtype.ID) int32 {
	return atomic.LoadInt32(&h.connectivity[e])
}

// ConnectivitySet returns Λ(e) = { i : p(e,i) > 0 }.
func (h *Hypergraph) ConnectivitySet(e hgtype.ID) []hgtype.BlockID {
	base := int(e) * h.k
	set := make([]hgtype.BlockID, 0, h.connectivity[e])
	for i := 0; i < h.k; i++ {
		if atomic.LoadInt32(&h.pinCount[base+i]) > 0 {
			set = append(set, hgtype.BlockID(i))
		}
	}
	return set
}

// AssignInitial is used only by the initial partitioner: it sets partID(u)
// for a vertex that currently has no block, updating the overlay exactly
// like ChangeNodePart but without a "from" block to decrement.
func (h *Hypergraph) AssignInitial(u hgtype.ID, to hgtype.BlockID) {
	if h.partID[u] != hgtype.UnassignedBlock {
		panic("hypergraph: AssignInitial called on an already-assigned vertex")
	}
	h.setPartIDRaw(u, to)
	w := int64(h.vWeight[u])
	atomic.AddInt64(&h.blockWeight[to], w)
	atomic.AddInt64(&h.blockSize[to], 1)
	for _, e := range h.incident[u] {
		if !h.eEnabled[e] {
			continue
		}
		h.bumpPinCount(e, to, 1)
	}
}

func (h *Hypergraph) setPartIDRaw(u hgtype.ID, to hgtype.BlockID) {
	h.partID[u] = to
}

func (h *Hypergraph) bumpPinCount(e hgtype.ID, block hgtype.BlockID, delta int32) {
	idx := int(e)*h.k + int(block)
	newVal := atomic.AddInt32(&h.pinCount[idx], delta)
	switch {
	case delta > 0 && newVal == delta:
		atomic.AddInt32(&h.connectivity[e], 1)
	case delta < 0 && newVal == 0:
		atomic.AddInt32(&h.connectivity[e], -1)
	}
}

// ChangeNodePart moves u from block `from` to block `to`, updating every
// overlay counter touched by the move: partID(u), block weights/sizes,
// p(e,·) for every e incident to u, and Λ(e). The hot path is O(deg(u));
// contention is localized to the (e,from) and (e,to) cells only (spec
// §4.A, §5).
func (h *Hypergraph) ChangeNodePart(u hgtype.ID, from, to hgtype.BlockID) {
	h.setPartIDRaw(u, to)
	w := int64(h.vWeight[u])
	atomic.AddInt64(&h.blockWeight[from], -w)
	atomic.AddInt64(&h.blockWeight[to], w)
	atomic.AddInt64(&h.blockSize[from], -1)
	atomic.AddInt64(&h.blockSize[to], 1)

	for _, e := range h.incident[u] {
		if !h.eEnabled[e] {
			continue
		}
		h.bumpPinCount(e, from, -1)
		h.bumpPinCount(e, to, 1)
	}

	if h.gainInitialized {
		h.recomputeGain(u)
	}
}

// ChangeNodePartWithBalanceCheck behaves like ChangeNodePart but atomically
// rejects the move iff c(V_to) + c(u) > maxWeight. The check-then-act is
// linearizable via a CAS loop on blockWeight[to]: no two concurrent
// successful moves can jointly violate the cap (spec §4.A, §5).
func (h *Hypergraph) ChangeNodePartWithBalanceCheck(u hgtype.ID, from, to hgtype.BlockID, maxWeight hgtype.Weight) bool {
	w := int64(h.vWeight[u])
	for {
		old := atomic.LoadInt64(&h.blockWeight[to])
		if old+w > int64(maxWeight) {
			return false
		}
		if atomic.CompareAndSwapInt64(&h.blockWeight[to], old, old+w) {
			break
		}
	}
	atomic.AddInt64(&h.blockWeight[from], -w)
	atomic.AddInt64(&h.blockSize[from], -1)
	atomic.AddInt64(&h.blockSize[to], 1)
	h.setPartIDRaw(u, to)

	for _, e := range h.incident[u] {
		if !h.eEnabled[e] {
			continue
		}
		h.bumpPinCount(e, from, -1)
		h.bumpPinCount(e, to, 1)
	}

	if h.gainInitialized {
		h.recomputeGain(u)
	}
	return true
}

// --- gain cache (spec §3: "sufficient to compute the change in objective
// for a single move in O(deg(u))") ---

// InitializeGainCache allocates and fills moveFromBenefit/moveToPenalty
// for every vertex. Must be called after the initial partition is
// complete and before any refiner consults MoveFromBenefit/MoveToPenalty.
func (h *Hypergraph) InitializeGainCache() {
	n := h.NumVertices()
	h.moveFromBenefit = make([]hgtype.Weight, n)
	h.moveToPenalty = make([][]hgtype.Weight, n)
	for i := range h.moveToPenalty {
		h.moveToPenalty[i] = make([]hgtype.Weight, h.k)
	}
	h.gainInitialized = true
	h.ForEachActiveVertex(func(u hgtype.ID) { h.recomputeGain(u) })
}

// MoveFromBenefit(u) is the reduction in objective obtained by moving u
// out of its current block (ignoring the destination).
func (h *Hypergraph) MoveFromBenefit(u hgtype.ID) hgtype.Weight { return h.moveFromBenefit[u] }

// MoveToPenalty(u,i) is the increase in objective incurred by moving u
// into block i.
func (h *Hypergraph) MoveToPenalty(u hgtype.ID, i hgtype.BlockID) hgtype.Weight {
	return h.moveToPenalty[u][i]
}

// Gain(u,to) = MoveFromBenefit(u) - MoveToPenalty(u,to), the net objective
// improvement of moving u to block `to` right now.
func (h *Hypergraph) Gain(u hgtype.ID, to hgtype.BlockID) hgtype.Weight {
	return h.moveFromBenefit[u] - h.moveToPenalty[u][to]
}

// recomputeGain recomputes moveFromBenefit/moveToPenalty for u from
// scratch over its incident nets -- O(deg(u)), matching the spec's hot
// path requirement. It uses the connectivity (km1-flavored) formulation:
// for an edge e with connectivity λ(e), moving u out of its block earns a
// benefit of ω(e) if u is the only pin of e left in that block (removing
// the block from Λ(e) would reduce λ(e) by one); moving u into a block
// not yet represented in Λ(e) costs ω(e) (λ(e) would grow by one).
func (h *Hypergraph) recomputeGain(u hgtype.ID) {
	benefit := h.moveFromBenefit
	penalty := h.moveToPenalty
	for i := range penalty[u] {
		penalty[u][i] = 0
	}
	benefit[u] = 0
	from := h.partID[u]
	if from == hgtype.UnassignedBlock {
		return
	}
	for _, e := range h.incident[u] {
		if !h.eEnabled[e] {
			continue
		}
		w := h.eWeight[e]
		if h.PinCountInPart(e, from) == 1 {
			benefit[u] += w
		}
		base := int(e) * h.k
		for i := 0; i < h.k; i++ {
			if hgtype.BlockID(i) == from {
				continue
			}
			if atomic.LoadInt32(&h.pinCount[base+i]) == 0 {
				penalty[u][i] += w
			}
		}
	}
}
