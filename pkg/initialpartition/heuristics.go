package initialpartition

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

func runHeuristic(h Heuristic, hg *hypergraph.Hypergraph, active []hgtype.ID, rng *rand.Rand) (assignment, error) {
	switch h {
	case BFSGrowing:
		return bfsGrowing(hg, active, rng)
	case RandomGreedy:
		return randomGreedy(hg, active, rng)
	case GreedyLoad:
		return greedyLoad(hg, active)
	case LabelPropagationBootstrap:
		return labelPropagationBootstrap(hg, active, rng)
	default:
		return assignment{}, fmt.Errorf("unknown heuristic %v", h)
	}
}

func newAssignment(hg *hypergraph.Hypergraph) assignment {
	return assignment{block: make([]hgtype.BlockID, hg.NumVertices())}
}

// bfsGrowing grows block 0 from a random seed by following incident
// hyperedges, stopping once block 0's weight reaches half the total
// active weight (the last vertex added may carry it past half);
// everything left over goes to block 1. This is
// the "BFS growing" entry of spec.md §4.C's portfolio.
func bfsGrowing(hg *hypergraph.Hypergraph, active []hgtype.ID, rng *rand.Rand) (assignment, error) {
	asn := newAssignment(hg)
	var total hgtype.Weight
	for _, u := range active {
		total += hg.VertexWeight(u)
	}
	target := total / 2

	placed := make(map[hgtype.ID]bool, len(active))
	assignTo := func(u hgtype.ID, b hgtype.BlockID) {
		asn.block[u] = b
		asn.weight[b] += hg.VertexWeight(u)
		placed[u] = true
	}

	seed := active[rng.Intn(len(active))]
	discovered := make(map[hgtype.ID]bool, len(active))
	queue := []hgtype.ID{seed}
	discovered[seed] = true

	for len(queue) > 0 && asn.weight[0] < target {
		u := queue[0]
		queue = queue[1:]
		assignTo(u, 0)
		for _, e := range hg.IncidentEdges(u) {
			if !hg.IsEdgeEnabled(e) {
				continue
			}
			for _, v := range hg.Pins(e) {
				if !discovered[v] {
					discovered[v] = true
					queue = append(queue, v)
				}
			}
		}
	}

	// everything not placed in block 0 (queue remnants, unreached
	// components) goes to block 1.
	for _, u := range active {
		if !placed[u] {
			assignTo(u, 1)
		}
	}
	return asn, nil
}

// randomGreedy assigns each active vertex, in random order, to
// whichever block currently weighs less -- ignores cut quality
// entirely, giving the portfolio a purely-balance-driven baseline.
func randomGreedy(hg *hypergraph.Hypergraph, active []hgtype.ID, rng *rand.Rand) (assignment, error) {
	asn := newAssignment(hg)
	order := append([]hgtype.ID(nil), active...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, u := range order {
		b := hgtype.BlockID(0)
		if asn.weight[0] > asn.weight[1] {
			b = 1
		}
		asn.block[u] = b
		asn.weight[b] += hg.VertexWeight(u)
	}
	return asn, nil
}

// greedyLoad is randomGreedy's deterministic sibling: it walks active
// vertices in id order instead of a random shuffle, so the portfolio
// always has one fully reproducible entry independent of seed.
func greedyLoad(hg *hypergraph.Hypergraph, active []hgtype.ID) (assignment, error) {
	asn := newAssignment(hg)
	for _, u := range active {
		b := hgtype.BlockID(0)
		if asn.weight[0] > asn.weight[1] {
			b = 1
		}
		asn.block[u] = b
		asn.weight[b] += hg.VertexWeight(u)
	}
	return asn, nil
}

// labelPropagationBootstrap seeds from randomGreedy, then runs a
// bounded number of sweeps flipping each vertex to the block that
// most reduces the local cut, subject to not making the destination
// block heavier than the source was. This is a standalone bootstrap
// heuristic for the portfolio -- distinct from, and much simpler
// than, the shared Label-Propagation Refiner (Component F) that later
// runs during uncoarsening across the full partition.
func labelPropagationBootstrap(hg *hypergraph.Hypergraph, active []hgtype.ID, rng *rand.Rand) (assignment, error) {
	asn, err := randomGreedy(hg, active, rng)
	if err != nil {
		return asn, err
	}

	const sweeps = 3
	order := append([]hgtype.ID(nil), active...)
	for s := 0; s < sweeps; s++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		moved := false
		for _, u := range order {
			from := asn.block[u]
			to := 1 - from
			gain := localGain(hg, u, asn.block, from, to)
			if gain <= 0 {
				continue
			}
			w := hg.VertexWeight(u)
			if asn.weight[to]+w > asn.weight[from] {
				continue
			}
			asn.weight[from] -= w
			asn.weight[to] += w
			asn.block[u] = to
			moved = true
		}
		if !moved {
			break
		}
	}
	return asn, nil
}

// localGain estimates the connectivity-minus-one change from moving u
// out of `from` into `to`, scanning only u's incident hyperedges
// (O(deg(u)) per vertex, matching the hot-path shape spec.md §3
// requires of the real gain cache).
func localGain(hg *hypergraph.Hypergraph, u hgtype.ID, block []hgtype.BlockID, from, to hgtype.BlockID) hgtype.Weight {
	var gain hgtype.Weight
	for _, e := range hg.IncidentEdges(u) {
		if !hg.IsEdgeEnabled(e) {
			continue
		}
		var countFrom, countTo int
		for _, v := range hg.Pins(e) {
			if v == u {
				continue
			}
			switch block[v] {
			case from:
				countFrom++
			case to:
				countTo++
			}
		}
		w := hg.EdgeWeight(e)
		if countFrom == 0 {
			// u was the only pin left in `from`; leaving removes the
			// block from this edge's connectivity set.
			gain += w
		}
		if countTo == 0 {
			// u would be the first pin in `to`; moving adds a block.
			gain -= w
		}
	}
	return gain
}
