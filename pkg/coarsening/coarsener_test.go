package coarsening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

func buildRing(n int) *hypergraph.Hypergraph {
	vw := make([]hgtype.Weight, n)
	for i := range vw {
		vw[i] = 1
	}
	var pinLists [][]hgtype.ID
	for i := 0; i < n; i++ {
		pinLists = append(pinLists, []hgtype.ID{hgtype.ID(i), hgtype.ID((i + 1) % n)})
	}
	ew := make([]hgtype.Weight, len(pinLists))
	for i := range ew {
		ew[i] = 2
	}
	return hypergraph.New(hgtype.Small32, vw, ew, pinLists)
}

func TestPassPreservesTotalWeight(t *testing.T) {
	hg := buildRing(40)
	before := hg.TotalWeight()

	c := New(hg, Config{
		MaxClusterWeight: 4,
		ContractionLimit: 5,
		MinShrinkFactor:  1.1,
		Rating:           HeavyEdgeRating,
		Workers:          4,
	})
	rng := rand.New(rand.NewSource(7))

	mementos := c.Pass(rng)

	assert.Equal(t, before, hg.TotalWeight(), "contraction must conserve total vertex weight (I1)")
	assert.Equal(t, 40-len(mementos), hg.NumActiveVertices())
}

func TestPassRoundTripsViaMementoStack(t *testing.T) {
	hg := buildRing(30)
	originalVertices := hg.NumActiveVertices()

	c := New(hg, Config{
		MaxClusterWeight: 3,
		ContractionLimit: 4,
		MinShrinkFactor:  1.1,
		Rating:           AverageRating,
		Workers:          2,
	})
	rng := rand.New(rand.NewSource(99))

	mementos := c.Pass(rng)
	require.NotEmpty(t, mementos, "a 30-cycle with weight-1 vertices should find at least one match")

	for i := len(mementos) - 1; i >= 0; i-- {
		hg.Uncontract(mementos[i])
	}

	assert.Equal(t, originalVertices, hg.NumActiveVertices())
	for e := hgtype.ID(0); e < hgtype.ID(hg.NumHyperedges()); e++ {
		assert.True(t, hg.IsEdgeEnabled(e))
		assert.Len(t, hg.Pins(e), 2)
	}
}

func TestRunTerminatesWithNonEmptyLevels(t *testing.T) {
	hg := buildRing(64)
	c := New(hg, Config{
		MaxClusterWeight: 8,
		ContractionLimit: 10,
		MinShrinkFactor:  1.05,
		Rating:           HeavyEdgeRating,
		Workers:          3,
	})
	rng := rand.New(rand.NewSource(1))

	levels := c.Run(rng)

	assert.LessOrEqual(t, hg.NumActiveVertices(), 64)
	assert.NotEmpty(t, levels)
	for _, level := range levels {
		assert.NotEmpty(t, level)
	}
}
