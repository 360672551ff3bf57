package multilevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// buildRing mirrors the ring fixture the coarsener and uncoarsener
// tests use: an n-cycle with unit vertex weights and weight-2 pairwise edges.
func buildRing(n int) *hypergraph.Hypergraph {
	vw := make([]hgtype.Weight, n)
	for i := range vw {
		vw[i] = 1
	}
	pinLists := make([][]hgtype.ID, n)
	ew := make([]hgtype.Weight, n)
	for i := 0; i < n; i++ {
		pinLists[i] = []hgtype.ID{hgtype.ID(i), hgtype.ID((i + 1) % n)}
		ew[i] = 2
	}
	return hypergraph.New(hgtype.Small32, vw, ew, pinLists)
}

func TestPartitionFourWayProducesBalancedResult(t *testing.T) {
	hg := buildRing(64)

	res, err := Partition(hg, Config{
		K:                   64 / 16,
		Epsilon:              0.1,
		Seed:                 1,
		ContractionLimit:     8,
		MinShrinkFactor:      1.05,
		NetSizeThreshold:     1 << 20,
		Objective:            metrics.Km1,
		RunLabelPropagation:  true,
		RunFM:                true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Hypergraph.K())
	assert.Empty(t, res.Hypergraph.AssertInvariants())
	assert.Equal(t, 64, res.Hypergraph.NumActiveVertices())
	assert.True(t, res.Balanced, "imbalance=%d", res.Imbalance)
}

func TestPartitionKEqualsOneAssignsEverythingToSingleBlock(t *testing.T) {
	hg := buildRing(10)

	res, err := Partition(hg, Config{K: 1, Epsilon: 0.1, Seed: 5})
	require.NoError(t, err)
	assert.True(t, res.Balanced)
	assert.Equal(t, 1, res.Hypergraph.K())
	res.Hypergraph.ForEachActiveVertex(func(u hgtype.ID) {
		assert.Equal(t, hgtype.BlockID(0), res.Hypergraph.PartID(u))
	})
}

func TestPartitionRejectsInvalidEpsilon(t *testing.T) {
	hg := buildRing(10)
	_, err := Partition(hg, Config{K: 2, Epsilon: 0})
	assert.Error(t, err)
}

func TestPartitionRejectsInvalidK(t *testing.T) {
	hg := buildRing(10)
	_, err := Partition(hg, Config{K: 0, Epsilon: 0.1})
	assert.Error(t, err)
}
