// Package fm implements Component G of spec.md §4.G: a parallel,
// localized k-way Fiduccia-Mattheyses refiner. Each worker claims an
// unvisited vertex as a search seed via a CAS on a shared
// searchOfNode table, then grows that search outward by activating
// the neighbors of every vertex it moves, driven by a BlockPQ/VertexPQ
// pair built on pkg/gainqueue.MinHeap -- the same generic heap the
// teacher ships for gain-ordered frontier exploration.
//
// Grounded on the teacher's parallel-worker shape (goroutines over
// chunks of a shuffled permutation, as in pkg/coarsening.Pass and
// pkg/refinement/labelpropagation.Run) combined with
// pkg/gainqueue.MinHeap for the PQ machinery and pkg/hypergraph's
// pin counts and changeNodePartWithBalanceCheck for move application.
package fm

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/gainqueue"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// Config bundles the refiner's tunables.
type Config struct {
	MaxPartWeight     []hgtype.Weight // cap per block, len k
	NetSizeThreshold  int             // hyperedges above this size do not activate neighbors
	MaxFruitlessMoves int             // consecutive non-positive moves before a search stops
	Workers           int
}

const unclaimed int64 = 0

// moveRecord is one applied, possibly later rolled-back, move inside a
// single search.
type moveRecord struct {
	vertex   hgtype.ID
	from, to hgtype.BlockID
	gain     hgtype.Weight
}

// sharedLog is the cross-search move ledger spec.md §4.G names:
// firstMoveIn/lastMoveOut record, per (hyperedge, block) cell, the
// earliest move that brought a pin of e into block i and the latest
// that took one out. Entries are published eagerly as moves commit;
// a search's own rollback (see Run) undoes the hypergraph move
// itself but intentionally leaves the ledger entry in place -- it
// remains a true historical record of "some move once did this",
// which is all any other concurrent search needs to reason about
// ordering, matching spec.md §5's "cross-cell reads are not globally
// consistent" tolerance.
type sharedLog struct {
	nextMoveID  int64
	firstMoveIn []int64
	lastMoveOut []int64
}

func newSharedLog(numEdges, k int) *sharedLog {
	l := &sharedLog{
		firstMoveIn: make([]int64, numEdges*k),
		lastMoveOut: make([]int64, numEdges*k),
	}
	for i := range l.firstMoveIn {
		l.firstMoveIn[i] = -1
		l.lastMoveOut[i] = -1
	}
	return l
}

func (l *sharedLog) nextID() int64 {
	return atomic.AddInt64(&l.nextMoveID, 1)
}

func (l *sharedLog) recordIn(idx int, moveID int64) {
	for {
		cur := atomic.LoadInt64(&l.firstMoveIn[idx])
		if cur != -1 && cur <= moveID {
			return
		}
		if atomic.CompareAndSwapInt64(&l.firstMoveIn[idx], cur, moveID) {
			return
		}
	}
}

func (l *sharedLog) recordOut(idx int, moveID int64) {
	for {
		cur := atomic.LoadInt64(&l.lastMoveOut[idx])
		if cur >= moveID {
			return
		}
		if atomic.CompareAndSwapInt64(&l.lastMoveOut[idx], cur, moveID) {
			return
		}
	}
}

// Result summarizes one invocation of Run.
type Result struct {
	TotalGain  hgtype.Weight
	TotalMoves int
	Searches   int
}

// Run grows a localized search from every active vertex not already
// claimed by another search (searches started from neighboring seeds
// commonly swallow each other's seeds via activation before they get
// their own turn), applying moves greedily by gain and rolling each
// search back to its best cumulative-gain prefix once it goes
// fruitless.
func Run(hg *hypergraph.Hypergraph, cfg Config, rng *rand.Rand) Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxFruitlessMoves <= 0 {
		cfg.MaxFruitlessMoves = 10
	}
	if cfg.NetSizeThreshold <= 0 {
		cfg.NetSizeThreshold = 1 << 30
	}

	var active []hgtype.ID
	hg.ForEachActiveVertex(func(u hgtype.ID) { active = append(active, u) })
	if len(active) == 0 {
		return Result{}
	}
	order := append([]hgtype.ID(nil), active...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	searchOfNode := make([]int64, hg.NumVertices())
	log := newSharedLog(hg.NumHyperedges(), hg.K())
	var searchCounter int64

	var totalGain int64
	var totalMoves int64
	var totalSearches int64

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
				seed := order[i]
				id := atomic.AddInt64(&searchCounter, 1)
				if !atomic.CompareAndSwapInt64(&searchOfNode[seed], unclaimed, id) {
					continue
				}
				s := &search{
					id:           id,
					hg:           hg,
					cfg:          cfg,
					log:          log,
					searchOfNode: searchOfNode,
					blockPQ:      gainqueue.NewMinHeap[hgtype.BlockID](),
					vertexPQs:    make([]*gainqueue.MinHeap[hgtype.ID], hg.K()),
					inBlockPQ:    make([]bool, hg.K()),
				}
				for b := range s.vertexPQs {
					s.vertexPQs[b] = gainqueue.NewMinHeap[hgtype.ID]()
				}
				gain, moves := s.run(seed)
				if moves > 0 {
					atomic.AddInt64(&totalGain, int64(gain))
					atomic.AddInt64(&totalMoves, int64(moves))
					atomic.AddInt64(&totalSearches, 1)
				}
			}
		}(lo, hi)
	}
	wg.Wait()

	return Result{
		TotalGain:  hgtype.Weight(totalGain),
		TotalMoves: int(totalMoves),
		Searches:   int(totalSearches),
	}
}

// search holds one localized FM search's private state: its two PQ
// layers and its move log. Vertices are only ever touched by the
// search that owns them (enforced by the CAS claim on searchOfNode
// made before each activate call), so
// none of this needs further synchronization.
type search struct {
	id           int64
	hg           *hypergraph.Hypergraph
	cfg          Config
	log          *sharedLog
	searchOfNode []int64

	blockPQ   *gainqueue.MinHeap[hgtype.BlockID]
	vertexPQs []*gainqueue.MinHeap[hgtype.ID]
	inBlockPQ []bool

	moves []moveRecord
}

func (s *search) run(seed hgtype.ID) (hgtype.Weight, int) {
	s.activate(seed)

	fruitless := 0
	for fruitless < s.cfg.MaxFruitlessMoves && s.blockPQ.Size() > 0 {
		blockNode, err := s.blockPQ.ExtractMin()
		if err != nil {
			break
		}
		b := blockNode.GetItem()
		s.inBlockPQ[b] = false

		vq := s.vertexPQs[b]
		vnode, err := vq.ExtractMin()
		if err != nil {
			continue
		}
		u := vnode.GetItem()
		s.bubbleBlock(b)

		to, gain, ok := s.bestMove(u)
		from := s.hg.PartID(u)
		if !ok || from != b {
			// stale: either u has no improving move left, or it was
			// already moved by an earlier pop in this same search
			// (possible after a lazy reinsert into a different
			// block). Drop it; activation will have re-added it
			// under its current block if still relevant.
			continue
		}
		if -vnode.GetRank() != float64(gain) {
			// lazy update: the cached key is stale, reinsert with the
			// freshly computed gain and keep going without counting
			// this as a fruitless pop.
			s.insertVertex(b, u, gain)
			continue
		}

		cap := hgtype.Weight(1) << 62
		if int(to) < len(s.cfg.MaxPartWeight) {
			cap = s.cfg.MaxPartWeight[to]
		}
		if !s.hg.ChangeNodePartWithBalanceCheck(u, from, to, cap) {
			fruitless++
			continue
		}

		s.moves = append(s.moves, moveRecord{vertex: u, from: from, to: to, gain: gain})
		s.publish(u, from, to)

		if gain > 0 {
			fruitless = 0
		} else {
			fruitless++
		}

		for _, e := range s.hg.IncidentEdges(u) {
			if !s.hg.IsEdgeEnabled(e) || s.hg.EdgeSize(e) > s.cfg.NetSizeThreshold {
				continue
			}
			for _, v := range s.hg.Pins(e) {
				if v == u {
					continue
				}
				if atomic.CompareAndSwapInt64(&s.searchOfNode[v], unclaimed, s.id) {
					s.activate(v)
				}
			}
		}
	}

	return s.rollbackToBestPrefix()
}

func (s *search) activate(u hgtype.ID) {
	_, gain, ok := s.bestMove(u)
	if !ok {
		return
	}
	from := s.hg.PartID(u)
	if from == hgtype.UnassignedBlock {
		return
	}
	s.insertVertex(from, u, gain)
}

func (s *search) insertVertex(block hgtype.BlockID, u hgtype.ID, gain hgtype.Weight) {
	vq := s.vertexPQs[block]
	node := gainqueue.NewPriorityQueueNode(-float64(gain), u)
	_ = vq.DeleteNode(node) // drop a stale copy, if any, before reinserting
	vq.Insert(node)
	s.bubbleBlock(block)
}

// bubbleBlock syncs BlockPQ's key for `block` with the current top of
// its VertexPQ.
func (s *search) bubbleBlock(block hgtype.BlockID) {
	vq := s.vertexPQs[block]
	if vq.Size() == 0 {
		return
	}
	top, err := vq.GetMin()
	if err != nil {
		return
	}
	node := gainqueue.NewPriorityQueueNode(top.GetRank(), block)
	if s.inBlockPQ[block] {
		_ = s.blockPQ.DeleteNode(node)
	}
	s.blockPQ.Insert(node)
	s.inBlockPQ[block] = true
}

// bestMove scans every destination block for u and returns the
// highest-gain one, computing each gain from the current pin counts
// in O(deg(u)) per destination block.
func (s *search) bestMove(u hgtype.ID) (hgtype.BlockID, hgtype.Weight, bool) {
	from := s.hg.PartID(u)
	if from == hgtype.UnassignedBlock {
		return 0, 0, false
	}
	bestTo := from
	bestGain := hgtype.Weight(0)
	found := false
	for t := 0; t < s.hg.K(); t++ {
		to := hgtype.BlockID(t)
		if to == from {
			continue
		}
		// computed from the live pin counts: the gain cache is only
		// refreshed for the vertex that moved, not for its neighbors.
		var g hgtype.Weight
		for _, e := range s.hg.IncidentEdges(u) {
			if !s.hg.IsEdgeEnabled(e) {
				continue
			}
			if s.hg.PinCountInPart(e, from) == 1 {
				g += s.hg.EdgeWeight(e)
			}
			if s.hg.PinCountInPart(e, to) == 0 {
				g -= s.hg.EdgeWeight(e)
			}
		}
		if !found || g > bestGain {
			bestGain = g
			bestTo = to
			found = true
		}
	}
	return bestTo, bestGain, found
}

func (s *search) publish(u hgtype.ID, from, to hgtype.BlockID) {
	moveID := s.log.nextID()
	k := s.hg.K()
	for _, e := range s.hg.IncidentEdges(u) {
		s.log.recordIn(int(e)*k+int(to), moveID)
		s.log.recordOut(int(e)*k+int(from), moveID)
	}
}

// rollbackToBestPrefix finds the prefix of this search's move log with
// the best cumulative gain and undoes every move after it, in reverse
// (LIFO) order, via plain changeNodePart -- safe because every vertex
// touched by this search is exclusively owned by it.
func (s *search) rollbackToBestPrefix() (hgtype.Weight, int) {
	if len(s.moves) == 0 {
		return 0, 0
	}

	best := hgtype.Weight(0)
	bestIdx := -1
	running := hgtype.Weight(0)
	for i, m := range s.moves {
		running += m.gain
		if running > best {
			best = running
			bestIdx = i
		}
	}

	for i := len(s.moves) - 1; i > bestIdx; i-- {
		m := s.moves[i]
		s.hg.ChangeNodePart(m.vertex, m.to, m.from)
	}

	return best, bestIdx + 1
}
