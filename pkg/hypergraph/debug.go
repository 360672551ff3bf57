package hypergraph

import "github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"

// RecountPinsInPart recomputes p(e,i) for e directly from pins(e) and
// partID, ignoring the incrementally maintained overlay. Used by property
// tests (spec §8, P1) and by ReinitializePinCounts below; never on a hot
// path.
func (h *Hypergraph) RecountPinsInPart(e hgtype.ID) []int32 {
	counts := make([]int32, h.k)
	for _, u := range h.pins[e] {
		if !h.vEnabled[u] {
			continue
		}
		if p := h.partID[u]; p != hgtype.UnassignedBlock {
			counts[p]++
		}
	}
	return counts
}

// ReinitializePinCounts recomputes and republishes p(e,i) and Λ(e) for e
// from the ground truth. This is the caller-side remedy for the open
// question in spec §9: RestoreEdge leaves e's counters stale, so every
// RestoreEdge must be followed by a call to this before e is queried.
func (h *Hypergraph) ReinitializePinCounts(e hgtype.ID) {
	counts := h.RecountPinsInPart(e)
	base := int(e) * h.k
	conn := int32(0)
	for i, c := range counts {
		h.pinCount[base+i] = c
		if c > 0 {
			conn++
		}
	}
	h.connectivity[e] = conn
}

// AssertInvariants runs the debug-only checks of spec §3 (I1-I5). It is a
// no-op in normal operation and is only ever called from tests: spec §7
// treats invariant violations as an assertion surface that never
// propagates, so production code paths never call this.
func (h *Hypergraph) AssertInvariants() []string {
	var violations []string

	if h.k > 0 {
		var total int64
		h.ForEachActiveVertex(func(u hgtype.ID) { total += int64(h.vWeight[u]) })
		var sum int64
		for i := 0; i < h.k; i++ {
			sum += h.blockWeight[i]
		}
		if sum != total {
			violations = append(violations, "I1: sum of block weights != total enabled vertex weight")
		}
	}

	h.ForEachActiveEdge(func(e hgtype.ID) {
		if h.k == 0 {
			return
		}
		truth := h.RecountPinsInPart(e)
		connTruth := int32(0)
		for i, c := range truth {
			if h.PinCountInPart(e, hgtype.BlockID(i)) != c {
				violations = append(violations, "I2: pin count mismatch")
			}
			if c > 0 {
				connTruth++
			}
		}
		if h.Connectivity(e) != connTruth {
			violations = append(violations, "I3: connectivity mismatch")
		}

		seen := make(map[hgtype.ID]bool, len(h.pins[e]))
		for _, p := range h.pins[e] {
			if !h.vEnabled[p] {
				violations = append(violations, "I5: disabled vertex found as pin")
			}
			if seen[p] {
				violations = append(violations, "I5: duplicate pin found")
			}
			seen[p] = true
		}
	})

	return violations
}
