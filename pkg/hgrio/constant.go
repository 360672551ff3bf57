package hgrio

// WeightType is the header's `type` field of spec.md §6's hypergraph
// text format: a 2-bit flag set, bit0 = edge-weighted, bit1 =
// vertex-weighted. Split out into its own named constants the way the
// teacher's pkg/osmparser/constant.go keeps its own small header-field
// enums (NodeType, TurnRestriction) in a dedicated file separate from
// the parser logic itself.
type WeightType int

const (
	Unweighted            WeightType = 0
	EdgeWeighted          WeightType = 1
	VertexWeighted        WeightType = 10
	EdgeAndVertexWeighted WeightType = 11
)

func (t WeightType) hasEdgeWeights() bool   { return t == EdgeWeighted || t == EdgeAndVertexWeighted }
func (t WeightType) hasVertexWeights() bool { return t == VertexWeighted || t == EdgeAndVertexWeighted }
