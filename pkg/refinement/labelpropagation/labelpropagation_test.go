package labelpropagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

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

func TestRunReducesOrMaintainsObjective(t *testing.T) {
	hg := twoCliquesBridge()
	hg.InitPartition(2)
	// deliberately bad starting partition: alternate blocks, splitting
	// both cliques.
	for u := hgtype.ID(0); u < 8; u++ {
		hg.AssignInitial(u, hgtype.BlockID(u%2))
	}
	hg.InitializeGainCache()

	before := metrics.Km1Value(hg)

	rng := rand.New(rand.NewSource(3))
	moves := Run(hg, Config{
		MaxPartWeight: []hgtype.Weight{8, 8},
		MaxSweeps:     6,
		Workers:       2,
	}, rng)

	after := metrics.Km1Value(hg)
	assert.LessOrEqual(t, after, before)
	assert.Positive(t, moves)
	assert.Equal(t, hgtype.Weight(8), hg.BlockWeight(0)+hg.BlockWeight(1))
}

func TestRunRespectsBalanceCap(t *testing.T) {
	hg := twoCliquesBridge()
	hg.InitPartition(2)
	for u := hgtype.ID(0); u < 8; u++ {
		hg.AssignInitial(u, hgtype.BlockID(u%2))
	}
	hg.InitializeGainCache()

	rng := rand.New(rand.NewSource(11))
	Run(hg, Config{
		MaxPartWeight: []hgtype.Weight{4, 4},
		MaxSweeps:     6,
		Workers:       3,
	}, rng)

	require.LessOrEqual(t, hg.BlockWeight(0), hgtype.Weight(4))
	require.LessOrEqual(t, hg.BlockWeight(1), hgtype.Weight(4))
}
