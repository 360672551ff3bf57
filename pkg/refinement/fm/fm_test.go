package fm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// twoCliquesBridge builds two tightly-connected quads joined by a
// single bridge edge: the only sensible 2-way cut is the bridge
// itself.
func twoCliquesBridge() *hypergraph.Hypergraph {
	vw := make([]hgtype.Weight, 8)
	for i := range vw {
		vw[i] = 1
	}
	pinLists := [][]hgtype.ID{
		{0, 1, 2}, {1, 2, 3}, {0, 2, 3}, {0, 1, 3},
		{4, 5, 6}, {5, 6, 7}, {4, 6, 7}, {4, 5, 7},
		{3, 4},
	}
	ew := make([]hgtype.Weight, len(pinLists))
	for i := range ew {
		ew[i] = 1
	}
	return hypergraph.New(hgtype.Small32, vw, ew, pinLists)
}

func TestRunImprovesMisplacedPartition(t *testing.T) {
	hg := twoCliquesBridge()
	hg.InitPartition(2)
	// one vertex placed on the wrong side of its clique; everything
	// else correctly placed already.
	block := map[hgtype.ID]hgtype.BlockID{
		0: 0, 1: 0, 2: 0, 3: 1,
		4: 1, 5: 1, 6: 1, 7: 1,
	}
	for u, b := range block {
		hg.AssignInitial(u, b)
	}
	hg.InitializeGainCache()

	before := metrics.Km1Value(hg)

	rng := rand.New(rand.NewSource(5))
	res := Run(hg, Config{
		MaxPartWeight:     []hgtype.Weight{8, 8},
		MaxFruitlessMoves: 4,
		Workers:           2,
	}, rng)

	after := metrics.Km1Value(hg)
	assert.LessOrEqual(t, after, before)
	assert.GreaterOrEqual(t, res.TotalGain, hgtype.Weight(0))
	assert.Equal(t, hgtype.Weight(8), hg.BlockWeight(0)+hg.BlockWeight(1))
}

func TestRunRespectsBalanceCap(t *testing.T) {
	hg := twoCliquesBridge()
	hg.InitPartition(2)
	for u := hgtype.ID(0); u < 8; u++ {
		hg.AssignInitial(u, hgtype.BlockID(u%2))
	}
	hg.InitializeGainCache()

	rng := rand.New(rand.NewSource(9))
	Run(hg, Config{
		MaxPartWeight:     []hgtype.Weight{4, 4},
		MaxFruitlessMoves: 6,
		Workers:           3,
	}, rng)

	require.LessOrEqual(t, hg.BlockWeight(0), hgtype.Weight(4))
	require.LessOrEqual(t, hg.BlockWeight(1), hgtype.Weight(4))
}

func TestRunOnEmptyHypergraphIsNoop(t *testing.T) {
	hg := hypergraph.New(hgtype.Small32, nil, nil, nil)
	hg.InitPartition(2)
	rng := rand.New(rand.NewSource(1))
	res := Run(hg, Config{MaxPartWeight: []hgtype.Weight{1, 1}}, rng)
	assert.Equal(t, 0, res.TotalMoves)
	assert.Equal(t, 0, res.Searches)
}
