package multilevel

import (
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/concurrent"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/initialpartition"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/rbtree"
)

// splitJob is one block's worth of work for a bipartitionEachBlock
// round: bipartition the extracted subhypergraph sub against the two
// balance caps the adaptive-epsilon formula (spec §4.E) assigns its
// two children.
type splitJob struct {
	sp       rbtree.Split
	sub      blockSubhypergraph
	leftCap  hgtype.Weight
	rightCap hgtype.Weight
	seed     uint64
}

type splitResult struct {
	sp       rbtree.Split
	vertexOf []hgtype.ID
	block    []hgtype.BlockID
}

// doSplitRound advances frontier by exactly one rbtree.Frontier.Expand
// step: every block that is not yet a leaf is bipartitioned in
// parallel against its own extracted subhypergraph, and hg's partition
// overlay is grown to the new frontier width via hg.Repartition. This
// is spec §4.E step 3's "bipartitionEachBlock(current_k)": "For each
// currently splittable block: extract its subhypergraph, bipartition
// it [...], rewrite partIds of its vertices to the two new block ids".
//
// Grounded on pkg/coarsening.Coarsener.contractClusters for the
// WorkerPool fan-out/fan-in shape (one job per independent unit of
// work, collected into a single combined mutation applied after the
// pool drains).
func doSplitRound(hg *hypergraph.Hypergraph, frontier *rbtree.Frontier, p *problem, rng *rand.Rand) {
	cfg := p.cfg
	oldK := frontier.K()
	oldNodes := make([]*rbtree.Node, oldK)
	for i := 0; i < oldK; i++ {
		oldNodes[i] = frontier.Node(i)
	}

	splits := frontier.Expand()
	newK := frontier.K()

	leafNew := make([]int, oldK)
	var jobs []splitJob
	for _, sp := range splits {
		if !sp.Split {
			leafNew[sp.OldBlock] = sp.Left
			continue
		}

		block := hgtype.BlockID(sp.OldBlock)
		sub := extractBlockSubhypergraph(hg, block, cfg.Objective)

		curWeight := hg.BlockWeight(block)
		epsCur := rbtree.AdaptiveEpsilon(p.origWeight, cfg.K, cfg.Epsilon, curWeight, oldNodes[sp.OldBlock].DesiredBlocks())
		leftCap := rbtree.MaxPartWeight(frontier.Node(sp.Left), p.origWeight, cfg.K, epsCur)
		rightCap := rbtree.MaxPartWeight(frontier.Node(sp.Right), p.origWeight, cfg.K, epsCur)

		p.splitRounds++
		seed := rng.Uint64() ^ (p.splitRounds * 0x9E3779B97F4A7C15)

		jobs = append(jobs, splitJob{sp: sp, sub: sub, leftCap: leftCap, rightCap: rightCap, seed: seed})
	}

	if len(jobs) == 0 {
		return
	}

	threads := cfg.Threads
	if threads < 1 {
		threads = 1
	}
	pool := concurrent.NewWorkerPool[splitJob, splitResult](threads, len(jobs))
	pool.Start(func(j splitJob) splitResult {
		lrng := rand.New(rand.NewSource(j.seed))
		if err := initialpartition.Run(j.sub.hg, initialpartition.Config{
			MaxPartWeight: [2]hgtype.Weight{j.leftCap, j.rightCap},
			Objective:     cfg.Objective,
			Portfolio:     cfg.Portfolio,
			Seed:          lrng.Uint64(),
		}); err != nil {
			cfg.Logger.Sugar().Warnf("bipartitionEachBlock: %v", err)
		}
		block := make([]hgtype.BlockID, len(j.sub.vertexOf))
		for i := range j.sub.vertexOf {
			block[i] = j.sub.hg.PartID(hgtype.ID(i))
		}
		return splitResult{sp: j.sp, vertexOf: j.sub.vertexOf, block: block}
	})
	for _, j := range jobs {
		pool.AddJob(j)
	}
	pool.Close()
	go pool.Wait()

	newBlockOf := make(map[hgtype.ID]hgtype.BlockID)
	for r := range pool.CollectResults() {
		for i, orig := range r.vertexOf {
			if r.block[i] == 0 {
				newBlockOf[orig] = hgtype.BlockID(r.sp.Left)
			} else {
				newBlockOf[orig] = hgtype.BlockID(r.sp.Right)
			}
		}
	}

	hg.Repartition(newK, func(u hgtype.ID, oldBlock hgtype.BlockID) hgtype.BlockID {
		if nb, ok := newBlockOf[u]; ok {
			return nb
		}
		return hgtype.BlockID(leafNew[oldBlock])
	})
}
