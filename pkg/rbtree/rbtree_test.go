package rbtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBipartitionTreeShape reproduces spec.md §8 scenario 3 exactly:
// k=7 -> root=7; children 4,3; 4->(2,2); 3->(2,1). Block index 2 at
// level k'=4 targets final range [4,6).
func TestBipartitionTreeShape(t *testing.T) {
	tree := New(7)
	root := tree.Root()
	require.Equal(t, 7, root.DesiredBlocks())

	left, right := root.Left(), root.Right()
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, 4, left.DesiredBlocks())
	assert.Equal(t, 3, right.DesiredBlocks())

	ll, lr := left.Left(), left.Right()
	assert.Equal(t, 2, ll.DesiredBlocks())
	assert.Equal(t, 2, lr.DesiredBlocks())

	rl, rr := right.Left(), right.Right()
	assert.Equal(t, 2, rl.DesiredBlocks())
	assert.Equal(t, 1, rr.DesiredBlocks())
	assert.True(t, rr.IsLeaf())

	// Walk the frontier: k'=1 -> 2 -> 4, and at k'=4 the third block
	// (index 2, 0-based) must be rl, covering final range [4, 6).
	frontier := tree.InitialFrontier()
	assert.Equal(t, 1, frontier.K())
	assert.Equal(t, 2, frontier.NextK())
	frontier.Expand()
	assert.Equal(t, 2, frontier.K())
	assert.Equal(t, 4, frontier.NextK())
	frontier.Expand()
	require.Equal(t, 4, frontier.K())

	lo, hi := frontier.Node(2).TargetBlocksInFinalPartition()
	assert.Equal(t, 4, lo)
	assert.Equal(t, 6, hi)
}

func TestFrontierConvergesToFinalBlockIDs(t *testing.T) {
	tree := New(7)
	frontier := tree.InitialFrontier()
	for frontier.K() < tree.K() {
		frontier.Expand()
	}
	require.Equal(t, 7, frontier.K())
	for i := 0; i < 7; i++ {
		n := frontier.Node(i)
		assert.True(t, n.IsLeaf())
		lo, hi := n.TargetBlocksInFinalPartition()
		assert.Equal(t, i, lo)
		assert.Equal(t, i+1, hi)
	}
}

func TestAdaptiveEpsilonZeroWeightIsZero(t *testing.T) {
	assert.Equal(t, 0.0, AdaptiveEpsilon(100, 7, 0.03, 0, 4))
}

func TestAdaptiveEpsilonBounded(t *testing.T) {
	eps := AdaptiveEpsilon(100, 7, 0.03, 50, 4)
	assert.GreaterOrEqual(t, eps, 0.0)
	assert.LessOrEqual(t, eps, 0.99)
}

func TestPerfectlyBalancedWeightAggregatesOverRange(t *testing.T) {
	tree := New(7)
	root := tree.Root()
	// ceil(100/7) = 15, aggregated over 7 final blocks = 105.
	assert.EqualValues(t, 105, PerfectlyBalancedWeight(root, 100, 7))
	leaf := root.Right().Right() // the single-block leaf, value 1
	assert.EqualValues(t, 15, PerfectlyBalancedWeight(leaf, 100, 7))
}
