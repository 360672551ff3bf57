package initialpartition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

func twoCliques() *hypergraph.Hypergraph {
	// two tightly-connected quads joined by a single bridge edge: any
	// good bipartition puts {0,1,2,3} on one side and {4,5,6,7} on the
	// other, cutting only the bridge.
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

func TestRunProducesBalancedLowCutPartition(t *testing.T) {
	hg := twoCliques()

	err := Run(hg, Config{
		MaxPartWeight: [2]hgtype.Weight{5, 5},
		Objective:     metrics.Km1,
		Seed:          17,
	})
	require.NoError(t, err)

	require.Equal(t, 2, hg.K())
	assert.LessOrEqual(t, hg.BlockWeight(0), hgtype.Weight(5))
	assert.LessOrEqual(t, hg.BlockWeight(1), hgtype.Weight(5))
	assert.Equal(t, hgtype.Weight(8), hg.BlockWeight(0)+hg.BlockWeight(1))

	// the only sensible cut for this graph is the single bridge edge.
	assert.Equal(t, hgtype.Weight(1), metrics.Km1Value(hg))
}

func TestRunRejectsEmptyHypergraph(t *testing.T) {
	hg := hypergraph.New(hgtype.Small32, nil, nil, nil)
	err := Run(hg, Config{MaxPartWeight: [2]hgtype.Weight{1, 1}})
	assert.Error(t, err)
}
