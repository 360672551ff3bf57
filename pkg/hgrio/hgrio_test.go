package hgrio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
)

func TestReadUnweightedHypergraph(t *testing.T) {
	src := strings.NewReader("3 5 0\n1 2 3\n2 3 4\n4 5\n")
	hg, err := Read(src, hgtype.Small32)
	require.NoError(t, err)

	assert.Equal(t, 5, hg.NumVertices())
	assert.Equal(t, 3, hg.NumHyperedges())
	assert.Equal(t, hgtype.Weight(1), hg.EdgeWeight(0))
	assert.Equal(t, hgtype.Weight(1), hg.VertexWeight(0))
	assert.ElementsMatch(t, []hgtype.ID{0, 1, 2}, hg.Pins(0))
}

func TestReadEdgeAndVertexWeighted(t *testing.T) {
	src := strings.NewReader("2 3 11\n5 1 2\n7 2 3\n10\n20\n30\n")
	hg, err := Read(src, hgtype.Small32)
	require.NoError(t, err)

	assert.Equal(t, hgtype.Weight(5), hg.EdgeWeight(0))
	assert.Equal(t, hgtype.Weight(7), hg.EdgeWeight(1))
	assert.Equal(t, hgtype.Weight(10), hg.VertexWeight(0))
	assert.Equal(t, hgtype.Weight(30), hg.VertexWeight(2))
}

func TestReadRejectsPinOutOfRange(t *testing.T) {
	src := strings.NewReader("1 2 0\n1 2 3\n")
	_, err := Read(src, hgtype.Small32)
	assert.Error(t, err)
}

func TestReadRejectsSingletonHyperedge(t *testing.T) {
	src := strings.NewReader("1 2 0\n1\n")
	_, err := Read(src, hgtype.Small32)
	assert.Error(t, err)
}

func TestWritePartitionRoundTrips(t *testing.T) {
	hg, err := Read(strings.NewReader("1 3 0\n1 2 3\n"), hgtype.Small32)
	require.NoError(t, err)
	hg.InitPartition(2)
	hg.AssignInitial(0, 0)
	hg.AssignInitial(1, 1)
	hg.AssignInitial(2, 0)

	var buf bytes.Buffer
	require.NoError(t, WritePartition(&buf, hg))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2", lines[0])
	assert.Equal(t, "0", lines[1])
	assert.Equal(t, "1", lines[2])
	assert.Equal(t, "0", lines[3])
}
