// Package coarsening implements the parallel clustering coarsener of
// spec.md §4.B: repeated passes of randomized, weight-capped matching
// followed by parallel contraction, until the hypergraph has shrunk
// past a contraction limit or a pass fails to shrink enough to be
// worth continuing.
//
// Grounded on the teacher's concurrency idiom throughout: CAS-guarded
// state transitions the way pkg/partitioner/dinic.go guards its level
// array during parallel BFS, and the generic
// pkg/concurrent.WorkerPool for the parallel contraction phase.
package coarsening

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/concurrent"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// vertex matching state, spec.md §4.B's UNMATCHED/MATCHING/MATCHED
// protocol.
const (
	unmatched int32 = iota
	matching
	matched
)

// Config bundles the coarsener's tunables. MaxClusterWeight is W_max
// in spec.md's matching rule; NetSizeThreshold skips hyperedges larger
// than this when rating candidates (a single huge net contributes
// little signal and is expensive to scan repeatedly); ContractionLimit
// and MinShrinkFactor are the two termination conditions of §4.B.
type Config struct {
	MaxClusterWeight hgtype.Weight
	NetSizeThreshold int
	ContractionLimit int
	MinShrinkFactor  float64
	Rating           RatingVariant
	Workers          int
}

type Coarsener struct {
	hg  *hypergraph.Hypergraph
	cfg Config
}

func New(hg *hypergraph.Hypergraph, cfg Config) *Coarsener {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.NetSizeThreshold <= 0 {
		cfg.NetSizeThreshold = 1 << 30
	}
	return &Coarsener{hg: hg, cfg: cfg}
}

// Run executes coarsening passes until termination, returning the
// memento batches produced (one batch per pass, in pass order -- this
// is exactly the per-level batch the Uncoarsener walks in reverse).
func (c *Coarsener) Run(rng *rand.Rand) [][]hypergraph.Memento {
	var levels [][]hypergraph.Memento
	for {
		before := c.hg.NumActiveVertices()
		if before <= c.cfg.ContractionLimit {
			break
		}
		mementos := c.Pass(rng)
		after := c.hg.NumActiveVertices()
		if len(mementos) > 0 {
			levels = append(levels, mementos)
		}
		if after == 0 {
			break
		}
		shrink := float64(before) / float64(after)
		if shrink < c.cfg.MinShrinkFactor {
			break
		}
	}
	return levels
}

// clusterState is the per-pass working set: cluster[u] is the current
// best-known representative, clusterWeight[r] the aggregate weight of
// everything currently pointing at r, partner[u] the vertex u most
// recently tried to match with (used to detect matching cycles).
type clusterState struct {
	cluster       []hgtype.ID
	state         []int32
	clusterWeight []int64 // atomic cells, indexed by representative id
	partner       []hgtype.ID
	partnerMu     []sync.Mutex // guards partner[] reads/writes during cycle detection
}

// Pass runs exactly one coarsening pass (spec.md §4.B "Algorithm (one
// pass)") and returns the mementos produced by contracting every
// resulting non-singleton cluster.
func (c *Coarsener) Pass(rng *rand.Rand) []hypergraph.Memento {
	hg := c.hg
	n := hg.NumVertices()

	cs := &clusterState{
		cluster:       make([]hgtype.ID, n),
		state:         make([]int32, n),
		clusterWeight: make([]int64, n),
		partner:       make([]hgtype.ID, n),
		partnerMu:     make([]sync.Mutex, n),
	}
	hg.ForEachActiveVertex(func(u hgtype.ID) {
		cs.cluster[u] = u
		cs.clusterWeight[u] = int64(hg.VertexWeight(u))
		cs.partner[u] = u
	})

	perm := rng.Perm(n)

	var wg sync.WaitGroup
	workers := c.cfg.Workers
	chunkSize := (len(perm) + workers - 1) / workers
	if chunkSize == 0 {
		chunkSize = 1
	}
	for w := 0; w < workers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if lo >= len(perm) {
			break
		}
		if hi > len(perm) {
			hi = len(perm)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				u := hgtype.ID(perm[i])
				if !hg.IsVertexEnabled(u) {
					continue
				}
				c.tryMatch(u, cs)
			}
		}(lo, hi)
	}
	wg.Wait()

	return c.contractClusters(cs)
}

// tryMatch implements steps 3.b-3.c of spec.md §4.B: pick the
// best-rated candidate for u within the weight cap, then run it
// through the CAS matching protocol.
func (c *Coarsener) tryMatch(u hgtype.ID, cs *clusterState) {
	hg := c.hg

	best := hgtype.ID(0)
	found := false
	bestScore := -1.0
	scores := make(map[hgtype.ID]float64)

	for _, e := range hg.IncidentEdges(u) {
		if !hg.IsEdgeEnabled(e) {
			continue
		}
		size := hg.EdgeSize(e)
		if size > c.cfg.NetSizeThreshold || size < 2 {
			continue
		}
		w := hg.EdgeWeight(e)
		perPin := c.cfg.Rating.edgeScore(w, size)
		for _, v := range hg.Pins(e) {
			if v == u || !hg.IsVertexEnabled(v) {
				continue
			}
			if hg.Community(u) != -1 && hg.Community(u) != hg.Community(v) {
				continue
			}
			scores[v] += perPin
		}
	}

	for v, score := range scores {
		rep := cs.cluster[v]
		merged := hg.VertexWeight(u) + hgtype.Weight(atomic.LoadInt64(&cs.clusterWeight[rep]))
		if merged > c.cfg.MaxClusterWeight {
			continue
		}
		weighted := score * heavyNodePenalty(merged, c.cfg.MaxClusterWeight)
		if weighted > bestScore || (weighted == bestScore && found && atomic.LoadInt32(&cs.state[v]) == unmatched && atomic.LoadInt32(&cs.state[best]) != unmatched) {
			bestScore = weighted
			best = v
			found = true
		}
	}

	if !found {
		return
	}

	c.match(u, best, cs)
}

// match runs the CAS-based matching protocol of spec.md §4.B against
// candidate v on behalf of u.
func (c *Coarsener) match(u, v hgtype.ID, cs *clusterState) {
	if !atomic.CompareAndSwapInt32(&cs.state[u], unmatched, matching) {
		return
	}
	cs.partnerMu[u].Lock()
	cs.partner[u] = v
	cs.partnerMu[u].Unlock()

	for {
		switch atomic.LoadInt32(&cs.state[v]) {
		case matched:
			r := cs.cluster[v]
			merged := c.hg.VertexWeight(u) + hgtype.Weight(atomic.LoadInt64(&cs.clusterWeight[r]))
			if merged > c.cfg.MaxClusterWeight {
				atomic.StoreInt32(&cs.state[u], unmatched)
				return
			}
			atomic.AddInt64(&cs.clusterWeight[r], int64(c.hg.VertexWeight(u)))
			cs.cluster[u] = r
			atomic.StoreInt32(&cs.state[u], matched)
			return
		default:
			if atomic.CompareAndSwapInt32(&cs.state[v], unmatched, matching) {
				cs.cluster[u] = v
				atomic.AddInt64(&cs.clusterWeight[v], int64(c.hg.VertexWeight(u)))
				atomic.StoreInt32(&cs.state[v], matched)
				atomic.StoreInt32(&cs.state[u], matched)
				return
			}
			if atomic.LoadInt32(&cs.state[v]) == matched {
				continue
			}
			// v is MATCHING (someone else claimed it): detect a
			// matching cycle by walking the partner chain from u.
			if c.cycleBack(u, v, cs) {
				// u is the smallest id in the cycle: break it by
				// forcing the edge u->v directly.
				atomic.AddInt64(&cs.clusterWeight[v], int64(c.hg.VertexWeight(u)))
				cs.cluster[u] = v
				atomic.StoreInt32(&cs.state[v], matched)
				atomic.StoreInt32(&cs.state[u], matched)
				return
			}
			// not a cycle (or not ours to break): spin until v settles.
		}
	}
}

// cycleBack walks the partner chain starting at v; if it returns to u
// and u has the smallest id on the cycle, u is responsible for
// breaking it (spec.md §4.B: "the vertex with the smallest id in the
// cycle breaks it").
func (c *Coarsener) cycleBack(u, v hgtype.ID, cs *clusterState) bool {
	cur := v
	minID := u
	for steps := 0; steps < len(cs.partner); steps++ {
		cs.partnerMu[cur].Lock()
		next := cs.partner[cur]
		cs.partnerMu[cur].Unlock()
		if cur < minID {
			minID = cur
		}
		if next == u {
			return minID == u
		}
		if next == cur {
			return false
		}
		cur = next
	}
	return false
}

// clusterGroup is one unit of parallel contraction work: a
// representative and the members that must be folded into it, in a
// fixed order so contraction is deterministic given a fixed matching
// outcome.
type clusterGroup struct {
	rep     hgtype.ID
	members []hgtype.ID
}

// contractClusters performs step 4 of spec.md §4.B: "Contract all
// matched pairs in parallel (disjoint representatives -> safe)".
// Members of the same cluster are contracted serially into their
// representative (Contract is single-writer); distinct representatives
// are contracted concurrently via the shared worker pool.
func (c *Coarsener) contractClusters(cs *clusterState) []hypergraph.Memento {
	groups := make(map[hgtype.ID][]hgtype.ID)
	c.hg.ForEachActiveVertex(func(u hgtype.ID) {
		r := cs.cluster[u]
		if r != u {
			groups[r] = append(groups[r], u)
		}
	})
	if len(groups) == 0 {
		return nil
	}

	jobs := make([]clusterGroup, 0, len(groups))
	for r, members := range groups {
		jobs = append(jobs, clusterGroup{rep: r, members: members})
	}

	pool := concurrent.NewWorkerPool[clusterGroup, []hypergraph.Memento](c.cfg.Workers, len(jobs))
	pool.Start(func(g clusterGroup) []hypergraph.Memento {
		out := make([]hypergraph.Memento, 0, len(g.members))
		for _, v := range g.members {
			out = append(out, c.hg.Contract(g.rep, v))
		}
		return out
	})
	for _, j := range jobs {
		pool.AddJob(j)
	}
	pool.Close()
	go pool.Wait()

	var mementos []hypergraph.Memento
	for batch := range pool.CollectResults() {
		mementos = append(mementos, batch...)
	}
	return mementos
}
