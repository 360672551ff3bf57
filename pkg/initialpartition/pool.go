// Package initialpartition implements Component C of spec.md §4.C: a
// small portfolio of bipartitioning heuristics run in parallel over
// the coarsest hypergraph, with the best feasible result committed to
// the partition overlay.
//
// Each heuristic computes its candidate assignment independently, over
// a private []hgtype.BlockID slice rather than the hypergraph's shared
// overlay -- the overlay belongs to exactly one committed partition at
// a time, so letting four heuristics fight over it concurrently would
// mean locking it into a meaningless intermediate state. Only the
// selected winner is written into the hypergraph via InitPartition +
// AssignInitial.
//
// Grounded on the teacher's pkg/concurrent.WorkerPool for the portfolio
// fan-out, and on go.uber.org/multierr (already a teacher dependency)
// for aggregating per-heuristic failures without losing any of them.
package initialpartition

import (
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/concurrent"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// Heuristic names the portfolio entries of spec.md §4.C ("BFS growing,
// random, label propagation, greedy").
type Heuristic int

const (
	BFSGrowing Heuristic = iota
	RandomGreedy
	GreedyLoad
	LabelPropagationBootstrap
)

func (h Heuristic) String() string {
	switch h {
	case BFSGrowing:
		return "bfs-growing"
	case RandomGreedy:
		return "random-greedy"
	case GreedyLoad:
		return "greedy-load"
	case LabelPropagationBootstrap:
		return "label-propagation-bootstrap"
	default:
		return "unknown"
	}
}

// Config bundles the one instance this package bipartitions for: a
// weight cap per block (len 2) and the objective to minimize.
type Config struct {
	MaxPartWeight [2]hgtype.Weight
	Objective     metrics.Objective
	Portfolio     []Heuristic
	Seed          uint64
}

func DefaultPortfolio() []Heuristic {
	return []Heuristic{BFSGrowing, RandomGreedy, GreedyLoad, LabelPropagationBootstrap}
}

// assignment is one heuristic's candidate bipartition, indexed by
// vertex id (only entries for currently-active vertices are
// meaningful).
type assignment struct {
	block  []hgtype.BlockID
	weight [2]hgtype.Weight
}

type candidate struct {
	name       Heuristic
	assignment assignment
	objective  hgtype.Weight
	balanced   bool
	imbalance  hgtype.Weight
}

// Run executes every heuristic in cfg.Portfolio in parallel, selects
// the best result (balanced first, minimizing the objective; if none
// is balanced, minimum imbalance breaking ties by objective per
// spec.md §4.C), and commits it into hg's partition overlay.
func Run(hg *hypergraph.Hypergraph, cfg Config) error {
	if len(cfg.Portfolio) == 0 {
		cfg.Portfolio = DefaultPortfolio()
	}

	var active []hgtype.ID
	hg.ForEachActiveVertex(func(u hgtype.ID) { active = append(active, u) })
	if len(active) == 0 {
		return fmt.Errorf("initialpartition: no active vertices to partition")
	}

	type job struct {
		name Heuristic
		rng  *rand.Rand
	}
	jobs := make([]job, len(cfg.Portfolio))
	for i, h := range cfg.Portfolio {
		jobs[i] = job{name: h, rng: rand.New(rand.NewSource(cfg.Seed + uint64(i)*1_000_003))}
	}

	pool := concurrent.NewWorkerPool[job, either](len(jobs), len(jobs))
	pool.Start(func(j job) either {
		asn, err := runHeuristic(j.name, hg, active, j.rng)
		if err != nil {
			return either{err: fmt.Errorf("initialpartition: %s: %w", j.name, err)}
		}
		obj := evaluate(hg, asn.block, cfg.Objective)
		balanced, imbalance := checkBalance(asn.weight, cfg.MaxPartWeight)
		return either{cand: &candidate{name: j.name, assignment: asn, objective: obj, balanced: balanced, imbalance: imbalance}}
	})
	for _, j := range jobs {
		pool.AddJob(j)
	}
	pool.Close()
	go pool.Wait()

	var errs error
	var candidates []*candidate
	for r := range pool.CollectResults() {
		if r.err != nil {
			errs = multierr.Append(errs, r.err)
			continue
		}
		candidates = append(candidates, r.cand)
	}
	if len(candidates) == 0 {
		return multierr.Append(errs, fmt.Errorf("initialpartition: every heuristic in the portfolio failed"))
	}

	best := selectBest(candidates)
	commit(hg, active, best.assignment.block)
	return errs
}

type either struct {
	cand *candidate
	err  error
}

// selectBest implements spec.md §4.C's selection rule exactly:
// balanced results win outright, ranked by objective; if none are
// balanced, the least-imbalanced wins, ties broken by objective.
func selectBest(cands []*candidate) *candidate {
	var best *candidate
	for _, c := range cands {
		if best == nil {
			best = c
			continue
		}
		if better(c, best) {
			best = c
		}
	}
	return best
}

func better(a, b *candidate) bool {
	if a.balanced != b.balanced {
		return a.balanced
	}
	if a.balanced {
		return a.objective < b.objective
	}
	if a.imbalance != b.imbalance {
		return a.imbalance < b.imbalance
	}
	return a.objective < b.objective
}

func checkBalance(weight, cap [2]hgtype.Weight) (bool, hgtype.Weight) {
	var worst hgtype.Weight
	balanced := true
	for i := 0; i < 2; i++ {
		if over := weight[i] - cap[i]; over > 0 {
			balanced = false
			if over > worst {
				worst = over
			}
		}
	}
	return balanced, worst
}

// commit writes the winning assignment into hg's partition overlay --
// the only point in this package where the real overlay is touched.
func commit(hg *hypergraph.Hypergraph, active []hgtype.ID, block []hgtype.BlockID) {
	hg.InitPartition(2)
	for _, u := range active {
		hg.AssignInitial(u, block[u])
	}
	hg.InitializeGainCache()
}

// evaluate computes the objective of a candidate assignment without
// touching hg's real overlay: it scans each active hyperedge's live
// pins directly.
func evaluate(hg *hypergraph.Hypergraph, block []hgtype.BlockID, obj metrics.Objective) hgtype.Weight {
	var total hgtype.Weight
	hg.ForEachActiveEdge(func(e hgtype.ID) {
		var p0, p1 int
		for _, v := range hg.Pins(e) {
			if block[v] == 0 {
				p0++
			} else {
				p1++
			}
		}
		lambda := 0
		if p0 > 0 {
			lambda++
		}
		if p1 > 0 {
			lambda++
		}
		if lambda <= 1 {
			return
		}
		if obj == metrics.Cut {
			total += hg.EdgeWeight(e)
		} else {
			total += hg.EdgeWeight(e) * hgtype.Weight(lambda-1)
		}
	})
	return total
}
