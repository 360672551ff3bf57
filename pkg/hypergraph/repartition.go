package hypergraph

import "github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"

// Repartition grows the partition overlay to newK blocks, remapping
// every active vertex's block via remap(u, oldBlock). This is the
// "rewrite partIds of its vertices to the two new block ids" step of
// spec §4.E step 3: the deep-multilevel driver calls this once per
// bipartitionEachBlock round, after it has locally bipartitioned
// every currently-splittable block's subhypergraph. The overlay is
// rebuilt from scratch (InitPartition + AssignInitial), since growing
// k changes the shape of every flattened pinCount row.
func (h *Hypergraph) Repartition(newK int, remap func(u hgtype.ID, oldBlock hgtype.BlockID) hgtype.BlockID) {
	old := append([]hgtype.BlockID(nil), h.partID...)
	h.InitPartition(newK)
	h.ForEachActiveVertex(func(u hgtype.ID) {
		h.AssignInitial(u, remap(u, old[u]))
	})
	h.InitializeGainCache()
}

// AdoptPartition copies another hypergraph's entire partition overlay
// (block count, partID, block weights/sizes, pin counts, connectivity
// and gain cache) onto h. The two hypergraphs must have identical
// topology (same active vertex and hyperedge sets, same ids) -- the
// deep-multilevel driver's only caller for this is the fork step of
// spec §4.E step 1, where `other` is a Clone of h that was coarsened
// and fully uncoarsened again by an independent recursive call, so by
// the time AdoptPartition runs its topology is guaranteed identical
// to h's, just carrying the winning recursive attempt's partition.
func (h *Hypergraph) AdoptPartition(other *Hypergraph) {
	h.k = other.k
	h.partID = append([]hgtype.BlockID(nil), other.partID...)
	h.blockWeight = append([]int64(nil), other.blockWeight...)
	h.blockSize = append([]int64(nil), other.blockSize...)
	h.pinCount = append([]int32(nil), other.pinCount...)
	h.connectivity = append([]int32(nil), other.connectivity...)
	h.gainInitialized = false
	if other.gainInitialized {
		h.InitializeGainCache()
	}
}
