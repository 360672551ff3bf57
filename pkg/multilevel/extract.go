package multilevel

import (
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// blockSubhypergraph is one block's induced subhypergraph, built for
// the recursive-bipartitioning step of spec §4.E step 3
// ("bipartitionEachBlock ... extract its subhypergraph"). vertexOf
// maps a local vertex id back to the original hg vertex it stands in
// for.
type blockSubhypergraph struct {
	hg       *hypergraph.Hypergraph
	vertexOf []hgtype.ID
}

// extractBlockSubhypergraph builds the induced subhypergraph of every
// currently active vertex of `block`. A hyperedge with pins outside
// the block is "cut" from the block's point of view: under the km1
// objective it survives with only its in-block pins (spec: "splitting
// cut nets"), since the sub-bipartition's own connectivity still
// matters to the final km1 total; under plain cut it is dropped
// entirely, since a hyperedge already cut by an outside pin stays cut
// no matter how its in-block pins are further split, and carries no
// signal for this subproblem. A hyperedge left with fewer than two
// in-block pins cannot be split by any further bipartition and is
// dropped either way.
func extractBlockSubhypergraph(hg *hypergraph.Hypergraph, block hgtype.BlockID, objective metrics.Objective) blockSubhypergraph {
	var vertexOf []hgtype.ID
	localOf := make(map[hgtype.ID]hgtype.ID)
	hg.ForEachActiveVertex(func(u hgtype.ID) {
		if hg.PartID(u) != block {
			return
		}
		localOf[u] = hgtype.ID(len(vertexOf))
		vertexOf = append(vertexOf, u)
	})

	vw := make([]hgtype.Weight, len(vertexOf))
	for i, u := range vertexOf {
		vw[i] = hg.VertexWeight(u)
	}

	var ew []hgtype.Weight
	var pinLists [][]hgtype.ID
	seen := make(map[hgtype.ID]bool)
	for _, u := range vertexOf {
		for _, e := range hg.IncidentEdges(u) {
			if !hg.IsEdgeEnabled(e) || seen[e] {
				continue
			}
			seen[e] = true

			var inner []hgtype.ID
			hasOutside := false
			for _, p := range hg.Pins(e) {
				if local, ok := localOf[p]; ok {
					inner = append(inner, local)
				} else {
					hasOutside = true
				}
			}
			if len(inner) < 2 {
				continue
			}
			if hasOutside && objective == metrics.Cut {
				continue
			}
			ew = append(ew, hg.EdgeWeight(e))
			pinLists = append(pinLists, inner)
		}
	}

	return blockSubhypergraph{
		hg:       hypergraph.New(hgtype.Small32, vw, ew, pinLists),
		vertexOf: vertexOf,
	}
}
