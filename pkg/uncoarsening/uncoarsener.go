// Package uncoarsening implements Component D of spec.md §4 (the
// "Uncoarsener" row of §2's component table): replay a coarsening
// hierarchy's contraction mementos in LIFO batches, one hypergraph
// level at a time, running the refinement chain (Label-Propagation,
// FM, Flow) between each projection the way spec.md §2's control-flow
// paragraph describes ("Uncoarsener (D) projects upward, invoking
// refiners F/G/H between projections").
//
// Grounded on pkg/hypergraph.MementoStack, the explicit LIFO the
// teacher's own Design Note 9.3 calls out as the non-RAII replacement
// for the source's stack-allocated contraction objects, combined with
// the refinement packages already built on this hypergraph (F:
// pkg/refinement/labelpropagation, G: pkg/refinement/fm, H:
// pkg/refinement/flow + pkg/maxflow).
package uncoarsening

import (
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/maxflow"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/refinement/fm"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/refinement/flow"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/refinement/labelpropagation"
)

// Config bundles the per-level refinement chain's tunables. Any
// refiner left at its zero Config still runs with that refiner's own
// defaults; set the corresponding Run* flag to false to skip a stage
// entirely.
type Config struct {
	MaxPartWeight []hgtype.Weight // cap per block, len k

	RunLabelPropagation bool
	LabelPropagation    labelpropagation.Config

	RunFM bool
	FM    fm.Config

	RunFlow              bool
	FlowSolverKind       string // "dinic" or "edmonds-karp", see pkg/maxflow.NewSolver
	FlowNetSizeThreshold int    // hyperedges larger than this are excluded from a flow subhypergraph

	// OnLevel, if set, is invoked after each level finishes projecting
	// and refining, with a pointer to this same Config so the
	// deep-multilevel driver (pkg/multilevel) can grow k mid-run via
	// hg.Repartition and update MaxPartWeight to match, implementing
	// spec §4.E step 3's "whenever node count >= nextK*contraction_limit,
	// call bipartitionEachBlock" check in between projections.
	OnLevel func(cfg *Config, hg *hypergraph.Hypergraph)
}

// LevelStats reports what happened while projecting one hypergraph
// level back up and re-refining it.
type LevelStats struct {
	MementosReplayed int
	LPMoves          int
	FMMoves          int
	FMGain           hgtype.Weight
	FlowMoves        int
}

// Run replays `levels` (as returned by pkg/coarsening.Coarsener.Run,
// coarsest pass last) in reverse, one level per projection step:
// uncontract every memento of the level, refresh the gain cache for
// the newly reactivated vertices, then run whichever of
// Label-Propagation / FM / Flow refinement cfg enables.
func Run(hg *hypergraph.Hypergraph, levels [][]hypergraph.Memento, cfg *Config, rng *rand.Rand) []LevelStats {
	stats := make([]LevelStats, 0, len(levels))
	for li := len(levels) - 1; li >= 0; li-- {
		stats = append(stats, projectLevel(hg, levels[li], cfg, rng))
		if cfg.OnLevel != nil {
			cfg.OnLevel(cfg, hg)
		}
	}
	return stats
}

func projectLevel(hg *hypergraph.Hypergraph, batch []hypergraph.Memento, cfg *Config, rng *rand.Rand) LevelStats {
	stack := hypergraph.NewMementoStack()
	for _, m := range batch {
		stack.Push(m)
	}
	for stack.Len() > 0 {
		hg.Uncontract(stack.Pop())
	}

	if hg.K() > 0 {
		hg.InitializeGainCache()
	}

	var s LevelStats
	s.MementosReplayed = len(batch)

	if cfg.RunLabelPropagation {
		lpCfg := cfg.LabelPropagation
		if lpCfg.MaxPartWeight == nil {
			lpCfg.MaxPartWeight = cfg.MaxPartWeight
		}
		s.LPMoves = labelpropagation.Run(hg, lpCfg, rng)
	}

	if cfg.RunFM {
		fmCfg := cfg.FM
		if fmCfg.MaxPartWeight == nil {
			fmCfg.MaxPartWeight = cfg.MaxPartWeight
		}
		res := fm.Run(hg, fmCfg, rng)
		s.FMMoves = res.TotalMoves
		s.FMGain = res.TotalGain
	}

	if cfg.RunFlow {
		s.FlowMoves = runFlowRefinement(hg, cfg)
	}

	return s
}

// runFlowRefinement applies Component H between every pair of blocks
// that both have active vertices, using each block's full active vertex
// set as the subhypergraph S -- a simplification of spec.md §4.H's
// "subhypergraph S" (which leaves the exact neighborhood radius
// open) that still produces a correct, if not maximally localized,
// flow problem: SourceWeight/SinkWeight collapse to zero since
// c(N0)=partWeight(block0) and c(N1)=partWeight(block1) exactly, so
// the solver sees the whole of each block's slack accounted for
// inside the flow problem itself rather than folded into source/sink
// weights.
func runFlowRefinement(hg *hypergraph.Hypergraph, cfg *Config) int {
	k := hg.K()
	if k < 2 {
		return 0
	}

	byBlock := make([][]hgtype.ID, k)
	hg.ForEachActiveVertex(func(u hgtype.ID) {
		b := hg.PartID(u)
		if b != hgtype.UnassignedBlock {
			byBlock[b] = append(byBlock[b], u)
		}
	})

	threshold := cfg.FlowNetSizeThreshold
	if threshold <= 0 {
		threshold = 1 << 30
	}

	moved := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			n0, n1 := byBlock[i], byBlock[j]
			if len(n0) == 0 || len(n1) == 0 {
				continue
			}
			hyperedges := incidentUnion(hg, n0, n1, threshold)
			if len(hyperedges) == 0 {
				continue
			}
			fh := flow.Build(hg, hgtype.BlockID(i), hgtype.BlockID(j), n0, n1, hyperedges)
			if len(fh.Hyperedges) == 0 {
				continue
			}
			fh.LabelCutDistance()

			net, _ := fh.ToNetwork()
			kind := cfg.FlowSolverKind
			solver := maxflow.NewSolver(kind, net)
			solver.SetDistanceHint(fh.NetworkDistanceHint())
			solver.MaxFlow(fh.SourceNode, fh.SinkNode)
			mc := solver.ExtractMinCut(fh.SourceNode)

			maxWeight0 := unboundedWeight(cfg.MaxPartWeight, i)
			maxWeight1 := unboundedWeight(cfg.MaxPartWeight, j)
			moved += flow.ApplyMinCut(hg, hgtype.BlockID(i), hgtype.BlockID(j), fh, mc, maxWeight0, maxWeight1)
		}
	}
	return moved
}

func unboundedWeight(caps []hgtype.Weight, i int) hgtype.Weight {
	if i < len(caps) {
		return caps[i]
	}
	return hgtype.Weight(1) << 62
}

func incidentUnion(hg *hypergraph.Hypergraph, n0, n1 []hgtype.ID, netSizeThreshold int) []hgtype.ID {
	seen := make(map[hgtype.ID]bool)
	var out []hgtype.ID
	add := func(vs []hgtype.ID) {
		for _, u := range vs {
			for _, e := range hg.IncidentEdges(u) {
				if seen[e] || !hg.IsEdgeEnabled(e) || hg.EdgeSize(e) > netSizeThreshold {
					continue
				}
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	add(n0)
	add(n1)
	return out
}
