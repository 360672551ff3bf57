// Package labelpropagation implements Component F of spec.md §4.F:
// for each enabled vertex, in randomized order, move it to the block
// that maximizes its gain subject to the balance cap. Runs in
// parallel with a per-vertex lock guarding each vertex's move
// decision, converging over a bounded number of sweeps.
//
// Grounded on the teacher's parallel-worker idiom (goroutines over
// index ranges of a shuffled permutation, the same shape
// pkg/coarsening uses for its matching pass) applied to
// pkg/hypergraph's gain cache instead of the coarsener's rating
// scores.
package labelpropagation

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// Config bundles the refiner's tunables.
type Config struct {
	MaxPartWeight []hgtype.Weight // cap per block, len k
	MaxSweeps     int
	Workers       int
	AllowZeroGain bool // spec.md §4.F: "(or >=0 under a tie-breaking rule)"
}

// Run moves vertices until a sweep makes no moves or MaxSweeps is
// reached, returning the total number of moves applied. hg must
// already have its gain cache initialized
// (hypergraph.InitializeGainCache).
func Run(hg *hypergraph.Hypergraph, cfg Config, rng *rand.Rand) int {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSweeps <= 0 {
		cfg.MaxSweeps = 4
	}

	var active []hgtype.ID
	hg.ForEachActiveVertex(func(u hgtype.ID) { active = append(active, u) })
	if len(active) == 0 {
		return 0
	}

	locks := make([]sync.Mutex, hg.NumVertices())
	totalMoves := 0

	for sweep := 0; sweep < cfg.MaxSweeps; sweep++ {
		order := append([]hgtype.ID(nil), active...)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var movesThisSweep int64
		var wg sync.WaitGroup
		chunk := (len(order) + cfg.Workers - 1) / cfg.Workers
		if chunk == 0 {
			chunk = 1
		}
		for w := 0; w < cfg.Workers; w++ {
			lo := w * chunk
			hi := lo + chunk
			if lo >= len(order) {
				break
			}
			if hi > len(order) {
				hi = len(order)
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					u := order[i]
					if tryMove(hg, u, cfg, &locks[u]) {
						atomic.AddInt64(&movesThisSweep, 1)
					}
				}
			}(lo, hi)
		}
		wg.Wait()

		totalMoves += int(movesThisSweep)
		if movesThisSweep == 0 {
			break
		}
	}
	return totalMoves
}

// tryMove evaluates every candidate destination block for u and
// applies the best one if it clears the gain threshold and the
// balance cap.
func tryMove(hg *hypergraph.Hypergraph, u hgtype.ID, cfg Config, lock *sync.Mutex) bool {
	lock.Lock()
	defer lock.Unlock()

	from := hg.PartID(u)
	if from == hgtype.UnassignedBlock {
		return false
	}

	bestTo := from
	bestGain := hgtype.Weight(0)
	found := false
	for t := 0; t < hg.K(); t++ {
		to := hgtype.BlockID(t)
		if to == from {
			continue
		}
		g := hg.Gain(u, to)
		if g > bestGain || (!found && cfg.AllowZeroGain && g == 0) {
			bestGain = g
			bestTo = to
			found = true
		}
	}
	if !found {
		return false
	}

	cap := hgtype.Weight(1) << 62 // effectively unbounded if caller omitted a cap
	if int(bestTo) < len(cfg.MaxPartWeight) {
		cap = cfg.MaxPartWeight[bestTo]
	}
	return hg.ChangeNodePartWithBalanceCheck(u, from, bestTo, cap)
}
