package uncoarsening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/coarsening"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/initialpartition"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// buildRing mirrors the coarsener's own ring fixture: an n-cycle with
// unit vertex weights and weight-2 pairwise edges.
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

func TestRunRestoresInvariantsAfterFullProjection(t *testing.T) {
	hg := buildRing(32)
	rng := rand.New(rand.NewSource(42))

	cs := coarsening.New(hg, coarsening.Config{
		MaxClusterWeight: 4,
		ContractionLimit: 6,
		MinShrinkFactor:  1.1,
		Workers:          2,
	})
	levels := cs.Run(rng)
	require.NotEmpty(t, levels)

	coarseTotal := hg.TotalWeight()
	require.NoError(t, initialpartition.Run(hg, initialpartition.Config{
		MaxPartWeight: [2]hgtype.Weight{coarseTotal, coarseTotal},
		Objective:     metrics.Km1,
		Seed:          7,
	}))

	stats := Run(hg, levels, &Config{
		MaxPartWeight:       []hgtype.Weight{32, 32},
		RunLabelPropagation: true,
		RunFM:               true,
		RunFlow:             true,
	}, rng)

	assert.Len(t, stats, len(levels))
	assert.Equal(t, 32, hg.NumActiveVertices())
	assert.Equal(t, hgtype.Weight(32), hg.BlockWeight(0)+hg.BlockWeight(1))
	assert.Empty(t, hg.AssertInvariants())
}

func TestRunWithAllRefinersDisabledStillProjects(t *testing.T) {
	hg := buildRing(20)
	rng := rand.New(rand.NewSource(3))

	cs := coarsening.New(hg, coarsening.Config{
		MaxClusterWeight: 3,
		ContractionLimit: 5,
		MinShrinkFactor:  1.05,
		Workers:          1,
	})
	levels := cs.Run(rng)
	require.NotEmpty(t, levels)

	require.NoError(t, initialpartition.Run(hg, initialpartition.Config{
		MaxPartWeight: [2]hgtype.Weight{20, 20},
		Objective:     metrics.Cut,
		Seed:          1,
	}))

	Run(hg, levels, &Config{MaxPartWeight: []hgtype.Weight{20, 20}}, rng)

	assert.Equal(t, 20, hg.NumActiveVertices())
	assert.Empty(t, hg.AssertInvariants())
}
