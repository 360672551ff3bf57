package maxflow

import "container/list"

// EdmondsKarp is an alternate solver implementing the same published
// interface as Dinic, adapted from the teacher's
// pkg/partitioner/edmonds_karp.go. It is selectable through
// NewSolver("edmonds-karp") (the uncoarsener's FlowSolverKind) as a
// policy variation point (Design Note 9.2): BFS
// augmenting paths rather than Dinic's blocking-flow phases. Slower on
// large flow-hypergraphs, kept because small flow problems (a handful of
// boundary vertices) do not benefit from Dinic's phase structure and the
// simpler augmenting-path loop is easier to validate independently.
type EdmondsKarp struct {
	net  *Network
	prev []*Edge
}

func NewEdmondsKarp(net *Network) *EdmondsKarp {
	return &EdmondsKarp{net: net, prev: make([]*Edge, net.NumNodes())}
}

// SetDistanceHint installs the piercing heuristic on the underlying
// Network; see Network.SetDistanceHint.
func (ek *EdmondsKarp) SetDistanceHint(dist []int) {
	ek.net.SetDistanceHint(dist)
}

func (ek *EdmondsKarp) bfsAugmentingPath(source, sink int) int64 {
	for i := range ek.prev {
		ek.prev[i] = nil
	}
	visited := make([]bool, len(ek.prev))
	visited[source] = true
	q := list.New()
	q.PushBack(source)
	for q.Len() > 0 {
		u := q.Remove(q.Front()).(int)
		if u == sink {
			break
		}
		ek.net.ForEachEdgeOf(u, func(e *Edge) {
			if !visited[e.To()] && e.Residual() > 0 {
				visited[e.To()] = true
				ek.prev[e.To()] = e
				q.PushBack(e.To())
			}
		})
	}
	if ek.prev[sink] == nil && source != sink {
		return 0
	}

	bottleneck := maxInt64
	for e := ek.prev[sink]; e != nil; e = ek.prev[e.From()] {
		if r := e.Residual(); r < bottleneck {
			bottleneck = r
		}
	}
	if bottleneck == maxInt64 {
		return 0
	}
	for e := ek.prev[sink]; e != nil; e = ek.prev[e.From()] {
		e.addFlow(bottleneck)
		ek.net.reverseOf(e).addFlow(-bottleneck)
	}
	return bottleneck
}

func (ek *EdmondsKarp) MaxFlow(source, sink int) int64 {
	var total int64
	for {
		flow := ek.bfsAugmentingPath(source, sink)
		if flow == 0 {
			return total
		}
		total += flow
	}
}

func (ek *EdmondsKarp) ExtractMinCut(source int) *MinCut {
	return NewDinic(ek.net).ExtractMinCut(source)
}
