package multilevel

import (
	"sync"

	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// forkAndSelect implements spec §4.E step 1: once the hypergraph has
// shrunk enough that `threads` independent attempts would each still
// clear the contraction limit, run `threads` full recursive
// deep-multilevel attempts in parallel on independent clones of hg and
// keep the best one, by (balanced first, then lowest objective).
//
// Grounded on the teacher's own parallel-attempt idiom in
// pkg/partitioner/recursiveBisection.go (goroutine-per-candidate with
// a WaitGroup, picking the best cut after all finish) -- here
// generalized from "best of several 2-way cuts" to "best of several
// full recursive partitioning attempts".
func forkAndSelect(hgIn *hypergraph.Hypergraph, p *problem, threads int, rng *rand.Rand) *Result {
	results := make([]*Result, threads)
	var wg sync.WaitGroup
	for t := 0; t < threads; t++ {
		clone := hgIn.Clone()
		seed := rng.Uint64()
		wg.Add(1)
		go func(t int, clone *hypergraph.Hypergraph, seed uint64) {
			defer wg.Done()
			childRng := rand.New(rand.NewSource(seed))
			results[t] = run(clone, p, 1, childRng, false)
		}(t, clone, seed)
	}
	wg.Wait()

	best := selectBestAttempt(results)
	hgIn.AdoptPartition(best.Hypergraph)
	best.Hypergraph = hgIn
	return best
}

func selectBestAttempt(results []*Result) *Result {
	best := results[0]
	for _, r := range results[1:] {
		if betterAttempt(r, best) {
			best = r
		}
	}
	return best
}

// betterAttempt prefers a balanced result over an unbalanced one;
// among balanced results, the lower objective value; among unbalanced
// results, the smaller imbalance, then the lower objective value --
// spec.md §8's own tie-break for the initial partitioner's portfolio
// selection, reused here unchanged.
func betterAttempt(a, b *Result) bool {
	if a.Balanced != b.Balanced {
		return a.Balanced
	}
	if a.Balanced {
		return a.Objective < b.Objective
	}
	if a.Imbalance != b.Imbalance {
		return a.Imbalance < b.Imbalance
	}
	return a.Objective < b.Objective
}
