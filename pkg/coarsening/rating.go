package coarsening

import "github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"

// RatingVariant selects the scoring function the coarsener uses to rank
// candidate merge partners (spec.md Design Note 9.2: "policy variation
// points ... tagged variants chosen by config" rather than a generic
// type parameter). Two concrete variants, matching the spread the
// teacher keeps between its Dinic and Edmonds-Karp flow solvers: one
// default, one simpler fallback.
type RatingVariant int

const (
	// HeavyEdgeRating scores a candidate v by the sum, over hyperedges
	// shared with u, of ω(e)/(|e|-1) -- the standard heavy-edge rating:
	// small, heavy hyperedges contribute the most, since contracting
	// across them removes the most potential cut.
	HeavyEdgeRating RatingVariant = iota
	// AverageRating scores by ω(e)/|e| instead, spreading a hyperedge's
	// weight evenly across all its pins rather than its pin gaps. Used
	// when nets are large and heavy-edge rating over-rewards vertices
	// that merely share one huge net.
	AverageRating
)

func (v RatingVariant) edgeScore(weight hgtype.Weight, size int) float64 {
	if size <= 1 {
		return 0
	}
	switch v {
	case AverageRating:
		return float64(weight) / float64(size)
	default:
		return float64(weight) / float64(size-1)
	}
}

// heavyNodePenalty discounts a candidate whose merged cluster weight
// would approach the weight cap, steering matches toward keeping
// clusters small and leaving room for later merges. Not specified
// exactly by spec.md (Open Question, resolved here): penalty = 1 /
// (1 + mergedWeight/maxClusterWeight), so a merge using up all
// remaining headroom scores at half strength.
func heavyNodePenalty(mergedWeight, maxClusterWeight hgtype.Weight) float64 {
	if maxClusterWeight <= 0 {
		return 1
	}
	return 1.0 / (1.0 + float64(mergedWeight)/float64(maxClusterWeight))
}
