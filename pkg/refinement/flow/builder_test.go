package flow

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// bisectedExample builds the 10-vertex example hypergraph partitioned as
// {0,1,2,3 | 4,5,6,7 | 8,9}, k=3, matching the scenario used throughout
// these tests.
func bisectedExample() *hypergraph.Hypergraph {
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
	hg := hypergraph.New(hgtype.Small32, vw, ew, pinLists)
	hg.InitPartition(3)
	blocks := []hgtype.BlockID{0, 0, 0, 0, 1, 1, 1, 1, 2, 2}
	for u, b := range blocks {
		hg.AssignInitial(hgtype.ID(u), b)
	}
	return hg
}

func incidentUnion(hg *hypergraph.Hypergraph, vertices ...hgtype.ID) []hgtype.ID {
	seen := make(map[hgtype.ID]bool)
	var out []hgtype.ID
	for _, u := range vertices {
		for _, e := range hg.IncidentEdges(u) {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func TestBuildSubhypergraphCutAccounting(t *testing.T) {
	hg := bisectedExample()
	n0 := []hgtype.ID{1, 3}
	n1 := []hgtype.ID{4, 6}
	edges := incidentUnion(hg, append(append([]hgtype.ID{}, n0...), n1...)...)

	fh := Build(hg, 0, 1, n0, n1, edges)

	require.Equal(t, 6, fh.NumNodes)
	assert.EqualValues(t, 2, fh.TotalCut)
	assert.EqualValues(t, 1, fh.NonRemovableCut)

	require.Len(t, fh.Hyperedges, 3)

	node1, ok := fh.VertexNode(1)
	require.True(t, ok)
	node3, ok := fh.VertexNode(3)
	require.True(t, ok)
	node4, ok := fh.VertexNode(4)
	require.True(t, ok)
	node6, ok := fh.VertexNode(6)
	require.True(t, ok)

	var sourcePair, sinkPair, innerQuad *FlowHyperedge
	for i := range fh.Hyperedges {
		he := &fh.Hyperedges[i]
		switch {
		case samePinSet(sortedCopy(he.Pins), sortedCopy([]int{node1, node3, sourceNode})):
			sourcePair = he
		case samePinSet(sortedCopy(he.Pins), sortedCopy([]int{node4, node6, sinkNode})):
			sinkPair = he
		case samePinSet(sortedCopy(he.Pins), sortedCopy([]int{node1, node3, node4, node6})):
			innerQuad = he
		}
	}

	require.NotNil(t, sourcePair, "expected a {source,1,3} flow hyperedge")
	require.NotNil(t, sinkPair, "expected a {sink,4,6} flow hyperedge")
	require.NotNil(t, innerQuad, "expected a {1,3,4,6} flow hyperedge")

	assert.EqualValues(t, 2, sourcePair.Capacity, "(0,1,3) and (1,2,3) both collapse onto {S*,1,3}")
	assert.EqualValues(t, 2, sinkPair.Capacity, "(4,5,6) and (4,6,7) both collapse onto {T*,4,6}")
	assert.EqualValues(t, 1, innerQuad.Capacity)
}

func sortedCopy(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	return out
}

func TestBuildDedupsIdenticalPinSets(t *testing.T) {
	vw := []hgtype.Weight{1, 1, 1, 1}
	pinLists := [][]hgtype.ID{
		{0, 1, 2},
		{0, 1, 2},
	}
	ew := []hgtype.Weight{3, 5}
	hg := hypergraph.New(hgtype.Small32, vw, ew, pinLists)
	hg.InitPartition(2)
	hg.AssignInitial(0, 0)
	hg.AssignInitial(1, 0)
	hg.AssignInitial(2, 1)
	hg.AssignInitial(3, 1)

	n0 := []hgtype.ID{0, 1}
	n1 := []hgtype.ID{2}
	edges := incidentUnion(hg, 0, 1, 2)

	fh := Build(hg, 0, 1, n0, n1, edges)

	require.Len(t, fh.Hyperedges, 1, "identical pin sets must collapse into a single flow hyperedge")
	assert.EqualValues(t, 8, fh.Hyperedges[0].Capacity, "weight 3 + weight 5 = capacity 8")
}

func TestLabelCutDistanceSignsSourceNegativeSinkPositive(t *testing.T) {
	hg := bisectedExample()
	n0 := []hgtype.ID{1, 3}
	n1 := []hgtype.ID{4, 6}
	edges := incidentUnion(hg, 1, 3, 4, 6)

	fh := Build(hg, 0, 1, n0, n1, edges)
	fh.LabelCutDistance()

	require.Len(t, fh.Distance, fh.NumNodes)
	assert.Less(t, fh.Distance[sourceNode], 0)
	assert.Greater(t, fh.Distance[sinkNode], 0)
}

func TestBuildToNetworkPreservesHyperedgeCount(t *testing.T) {
	hg := bisectedExample()
	n0 := []hgtype.ID{1, 3}
	n1 := []hgtype.ID{4, 6}
	edges := incidentUnion(hg, 1, 3, 4, 6)

	fh := Build(hg, 0, 1, n0, n1, edges)
	net, remap := fh.ToNetwork()

	assert.Equal(t, fh.NumNodes+2*len(fh.Hyperedges), net.NumNodes())
	assert.Len(t, remap, fh.NumNodes)
}
