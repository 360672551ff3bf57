package multilevel

import (
	"math"
	"sort"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// rebalance implements spec §4's final rebalancing pass. The caps
// bipartitionEachBlock rounds use are loosened by rbtree.AdaptiveEpsilon
// to let early splits run ahead of the final balance target, so a
// block can finish the recursive split legitimately over the uniform
// cap spec.md §1 demands for the final k-way result. This pass
// greedily moves vertices out of every overweight block into
// whichever underweight block gives the move the best gain, stopping
// once either every block is within cap or a full pass finds no legal
// move left.
//
// Grounded on the teacher's RecursiveBisection.applyBisection swap
// loop (pkg/partitioner/recursiveBisection.go): rank candidate moves
// by gain, apply the best first, recheck balance. Generalized from a
// two-way swap into an any-to-any move against the gain cache
// Component D already maintains (hg.Gain, hg.ChangeNodePartWithBalanceCheck).
func rebalance(hg *hypergraph.Hypergraph, p *problem) {
	cfg := p.cfg
	k := hg.K()
	if k < 2 {
		return
	}
	hg.InitializeGainCache()
	cap := metrics.MaxPartWeight(p.origWeight, cfg.K, cfg.Epsilon)

	type candidate struct {
		u     hgtype.ID
		from  hgtype.BlockID
		to    hgtype.BlockID
		gain  hgtype.Weight
		fromZ float64
	}

	const maxPasses = 64
	for pass := 0; pass < maxPasses; pass++ {
		anyOverweight := false
		for b := 0; b < k; b++ {
			if hg.BlockWeight(hgtype.BlockID(b)) > cap {
				anyOverweight = true
				break
			}
		}
		if !anyOverweight {
			return
		}

		mean, variance := metrics.BlockWeightStats(hg)
		std := math.Sqrt(variance)
		zscore := func(b hgtype.BlockID) float64 {
			if std == 0 {
				return 0
			}
			return (float64(hg.BlockWeight(b)) - mean) / std
		}

		var candidates []candidate
		hg.ForEachActiveVertex(func(u hgtype.ID) {
			from := hg.PartID(u)
			if from == hgtype.UnassignedBlock || hg.BlockWeight(from) <= cap {
				return
			}
			for to := hgtype.BlockID(0); to < hgtype.BlockID(k); to++ {
				if to == from || hg.BlockWeight(to) >= cap {
					continue
				}
				candidates = append(candidates, candidate{u: u, from: from, to: to, gain: hg.Gain(u, to), fromZ: zscore(from)})
			}
		})
		if len(candidates) == 0 {
			return
		}
		// Drain the block furthest above the mean (in standard
		// deviations) first; within the same source block, best gain
		// first.
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].fromZ != candidates[j].fromZ {
				return candidates[i].fromZ > candidates[j].fromZ
			}
			return candidates[i].gain > candidates[j].gain
		})

		moved := false
		for _, c := range candidates {
			if hg.PartID(c.u) != c.from || hg.BlockWeight(c.from) <= cap {
				continue
			}
			if hg.ChangeNodePartWithBalanceCheck(c.u, c.from, c.to, cap) {
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}
