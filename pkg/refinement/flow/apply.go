package flow

import (
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/maxflow"
)

// ApplyMinCut reads a solved min cut back against the flow-hypergraph
// that produced it and moves every vertex the cut disagrees with the
// current partition about: a block0-side vertex left on the sink side
// of the cut belongs in block1, and symmetrically for block1-side
// vertices stranded on the source side. Moves are applied through
// pkg/hypergraph's balance-checked API, so a move the cut wants but
// the balance cap forbids is simply skipped -- spec §4.H builds the
// flow problem to respect the caps via SourceWeight/SinkWeight, but
// nothing stops the solver from proposing an infeasible cut when the
// caps are tight, and this is the one place that gets the final say.
func ApplyMinCut(hg *hypergraph.Hypergraph, block0, block1 hgtype.BlockID, fh *Hypergraph, mc *maxflow.MinCut, maxWeight0, maxWeight1 hgtype.Weight) int {
	moved := 0
	for n := firstPin; n < fh.NumNodes; n++ {
		u, ok := fh.vertexOf(n)
		if !ok {
			continue
		}
		onSourceSide := mc.SourceSide(n)
		switch fh.sideOfNode[n] {
		case 0:
			if !onSourceSide {
				if hg.ChangeNodePartWithBalanceCheck(u, block0, block1, maxWeight1) {
					moved++
				}
			}
		case 1:
			if onSourceSide {
				if hg.ChangeNodePartWithBalanceCheck(u, block1, block0, maxWeight0) {
					moved++
				}
			}
		}
	}
	return moved
}
