package maxflow

// MinCut is the result of a max-flow computation: which side of the cut
// every node landed on. Adapted from the teacher's
// pkg/partitioner/min_cut.go, generalized from a fixed "partition one vs
// partition two" vertex split to the arbitrary flow-network node ids the
// flow-hypergraph builder assigns.
type MinCut struct {
	flags         []bool // true = reachable from source (source side)
	sinkSideCount int
}

func (mc *MinCut) SourceSide(node int) bool { return mc.flags[node] }
func (mc *MinCut) SinkSideCount() int       { return mc.sinkSideCount }
func (mc *MinCut) NumNodes() int            { return len(mc.flags) }
