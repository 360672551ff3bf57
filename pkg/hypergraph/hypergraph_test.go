package hypergraph

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
)

func smallExample() *Hypergraph {
	// |V|=10, E={(0,1,3),(1,2,3),(4,5,6),(4,6,7),(1,3,4,6),(0,1,4,5),(3,8),(6,9)}
	vw := make([]hgtype.Weight, 10)
	for i := range vw {
		vw[i] = 1
	}
	pinLists := [][]hgtype.ID{
		{0, 1, 3},
		{1, 2, 3},
		{4, 5, 6},
		{4, 6, 7},
		{1, 3, 4, 6},
		{0, 1, 4, 5},
		{3, 8},
		{6, 9},
	}
	ew := make([]hgtype.Weight, len(pinLists))
	for i := range ew {
		ew[i] = 1
	}
	return New(hgtype.Small32, vw, ew, pinLists)
}

func TestContractUncontractRoundTrip(t *testing.T) {
	h := smallExample()
	rng := rand.New(rand.NewSource(1))

	stack := NewMementoStack()

	for i := 0; i < 1000; i++ {
		// find a pair of enabled vertices sharing at least one net.
		u, v, ok := pickContractiblePair(h, rng)
		if !ok {
			break
		}
		m := h.Contract(u, v)
		stack.Push(m)
		h.Uncontract(stack.Pop())
	}

	assert.Equal(t, 10, h.NumActiveVertices())
	for e := hgtype.ID(0); e < hgtype.ID(h.NumHyperedges()); e++ {
		assert.True(t, h.IsEdgeEnabled(e))
	}
	// original pin lists must be restored exactly (bit-identical topology).
	expect := smallExample()
	for e := hgtype.ID(0); e < hgtype.ID(h.NumHyperedges()); e++ {
		assert.ElementsMatch(t, expect.Pins(e), h.Pins(e))
	}
}

func TestContractUncontractSequence(t *testing.T) {
	h := smallExample()
	stack := NewMementoStack()
	rng := rand.New(rand.NewSource(42))

	var mementos []Memento
	for i := 0; i < 1000; i++ {
		u, v, ok := pickContractiblePair(h, rng)
		if !ok {
			break
		}
		mementos = append(mementos, h.Contract(u, v))
	}
	for _, m := range mementos {
		stack.Push(m)
	}
	for stack.Len() > 0 {
		h.Uncontract(stack.Pop())
	}

	require.Equal(t, 10, h.NumActiveVertices())
	expect := smallExample()
	for u := hgtype.ID(0); u < 10; u++ {
		assert.Equal(t, expect.VertexWeight(u), h.VertexWeight(u))
	}
}

func pickContractiblePair(h *Hypergraph, rng *rand.Rand) (hgtype.ID, hgtype.ID, bool) {
	var active []hgtype.ID
	h.ForEachActiveVertex(func(u hgtype.ID) { active = append(active, u) })
	if len(active) < 2 {
		return 0, 0, false
	}
	for attempts := 0; attempts < 50; attempts++ {
		u := active[rng.Intn(len(active))]
		v := active[rng.Intn(len(active))]
		if u == v {
			continue
		}
		if sharesNet(h, u, v) {
			return u, v, true
		}
	}
	return 0, 0, false
}

func sharesNet(h *Hypergraph, u, v hgtype.ID) bool {
	for _, e := range h.IncidentEdges(u) {
		for _, e2 := range h.IncidentEdges(v) {
			if e == e2 {
				return true
			}
		}
	}
	return false
}

// TestSmokeConcurrentMoves is spec §8 scenario 1: random initial
// assignment, then T threads each move random vertices to random
// different blocks 10*|V| times; P1/P2 must hold exactly afterwards.
func TestSmokeConcurrentMoves(t *testing.T) {
	for _, k := range []int{2, 4, 8} {
		for _, threads := range []int{1, 2, 4} {
			h := buildRandomHypergraph(200, 600, 7)
			h.InitPartition(k)
			rng := rand.New(rand.NewSource(int64(k*100 + threads)))
			h.ForEachActiveVertex(func(u hgtype.ID) {
				h.AssignInitial(u, hgtype.BlockID(rng.Intn(k)))
			})

			movesPerThread := 10 * h.NumVertices() / threads
			var wg sync.WaitGroup
			for t := 0; t < threads; t++ {
				wg.Add(1)
				seed := int64(t*7919 + k*13 + threads)
				go func(seed int64) {
					defer wg.Done()
					r := rand.New(rand.NewSource(seed))
					for i := 0; i < movesPerThread; i++ {
						u := hgtype.ID(r.Intn(h.NumVertices()))
						from := h.PartID(u)
						if from == hgtype.UnassignedBlock {
							continue
						}
						to := hgtype.BlockID(r.Intn(k))
						if to == from {
							to = hgtype.BlockID((int(to) + 1) % k)
						}
						h.ChangeNodePart(u, from, to)
					}
				}(seed)
			}
			wg.Wait()

			violations := h.AssertInvariants()
			assert.Empty(t, violations, "k=%d threads=%d", k, threads)
		}
	}
}

func buildRandomHypergraph(nv, ne int, seed int64) *Hypergraph {
	rng := rand.New(rand.NewSource(seed))
	vw := make([]hgtype.Weight, nv)
	for i := range vw {
		vw[i] = hgtype.Weight(1 + rng.Intn(4))
	}
	pinLists := make([][]hgtype.ID, 0, ne)
	ew := make([]hgtype.Weight, 0, ne)
	for i := 0; i < ne; i++ {
		size := 2 + rng.Intn(4)
		seen := map[hgtype.ID]bool{}
		pins := make([]hgtype.ID, 0, size)
		for len(pins) < size {
			u := hgtype.ID(rng.Intn(nv))
			if seen[u] {
				continue
			}
			seen[u] = true
			pins = append(pins, u)
		}
		pinLists = append(pinLists, pins)
		ew = append(ew, hgtype.Weight(1+rng.Intn(3)))
	}
	return New(hgtype.Small32, vw, ew, pinLists)
}

// TestChangeNodePartReversible is P7: reversing a move restores every
// overlay counter exactly.
func TestChangeNodePartReversible(t *testing.T) {
	h := buildRandomHypergraph(50, 120, 99)
	h.InitPartition(4)
	rng := rand.New(rand.NewSource(3))
	h.ForEachActiveVertex(func(u hgtype.ID) {
		h.AssignInitial(u, hgtype.BlockID(rng.Intn(4)))
	})

	before := snapshotOverlay(h)
	h.ChangeNodePart(5, h.PartID(5), (h.PartID(5)+1)%4)
	h.ChangeNodePart(5, h.PartID(5), before.partID[5])
	after := snapshotOverlay(h)

	assert.Equal(t, before, after)
}

type overlaySnapshot struct {
	partID      []hgtype.BlockID
	blockWeight []int64
	pinCount    []int32
}

func snapshotOverlay(h *Hypergraph) overlaySnapshot {
	return overlaySnapshot{
		partID:      append([]hgtype.BlockID(nil), h.partID...),
		blockWeight: append([]int64(nil), h.blockWeight...),
		pinCount:    append([]int32(nil), h.pinCount...),
	}
}

func TestBalanceCheckRejectsOverCap(t *testing.T) {
	h := buildRandomHypergraph(20, 30, 5)
	h.InitPartition(2)
	h.ForEachActiveVertex(func(u hgtype.ID) {
		block := hgtype.BlockID(0)
		if u%2 == 1 {
			block = 1
		}
		h.AssignInitial(u, block)
	})
	maxWeight := h.BlockWeight(1)
	// moving any vertex of nonzero weight into block 1 now must fail.
	var mover hgtype.ID
	h.ForEachActiveVertex(func(u hgtype.ID) {
		if h.PartID(u) == 0 {
			mover = u
		}
	})
	ok := h.ChangeNodePartWithBalanceCheck(mover, 0, 1, maxWeight)
	assert.False(t, ok)
	assert.Equal(t, maxWeight, h.BlockWeight(1))
}
