// Package rbtree implements the precomputed bipartition tree of spec
// §4.E: for a target block count k it encodes, for every intermediate
// current block count k', which final blocks [lo, hi) each current
// block must eventually split into. Component E (pkg/multilevel)
// walks this tree one "doubling" step at a time during uncoarsening.
//
// Grounded on spec §4.E's own description ("Root = {k}. Each node
// with value m>1 has children ceil(m/2) and floor(m/2)") -- there is
// no teacher analog (the teacher's RecursiveBisection recurses
// directly on geometry instead of a precomputed tree), so this
// package is built from the spec text and checked against scenario 3
// of spec §8 (k=7 -> root 7, children 4,3; 4->(2,2); 3->(2,1)).
package rbtree

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
)

// Node is one node of the bipartition tree. A leaf has Value() == 1 and
// represents exactly one final block; an internal node's two children
// always sum to its own value.
type Node struct {
	value  int
	lo, hi int // final block range [lo, hi), fixed at construction time
	left   *Node
	right  *Node
}

func (n *Node) IsLeaf() bool { return n.left == nil }

// DesiredBlocks is spec §4.E's desiredBlocks(k', block): the number of
// final blocks still to be produced below this node (1 for a leaf --
// no further splits required).
func (n *Node) DesiredBlocks() int { return n.value }

// TargetBlocksInFinalPartition is spec §4.E's
// targetBlocksInFinalPartition(k', block): the contiguous
// [lo, hi) range of final block ids this node's subtree covers.
func (n *Node) TargetBlocksInFinalPartition() (lo, hi int) { return n.lo, n.hi }

// Left and Right expose the two children of an internal node (nil for
// a leaf). Left always gets ceil(value/2), Right floor(value/2), per
// spec §4.E.
func (n *Node) Left() *Node  { return n.left }
func (n *Node) Right() *Node { return n.right }

// PerfectlyBalancedWeight is spec §4.E's perfectlyBalancedWeight(k',
// block): the final-block-range-aggregated ⌈W_orig/k⌉, i.e. the
// number of final blocks under this node times the per-final-block
// perfectly balanced share. Uses gonum/floats/scalar.Round for the
// float-to-integer rounding spec.md leaves as an implementation
// choice, matching the rest of this package's float arithmetic.
func PerfectlyBalancedWeight(n *Node, totalWeight hgtype.Weight, kFinal int) hgtype.Weight {
	perFinalBlock := math.Ceil(float64(totalWeight) / float64(kFinal))
	return hgtype.Weight(scalar.Round(perFinalBlock*float64(n.value), 0))
}

// MaxPartWeight is spec §4.E's maxPartWeight(k', block): the balance
// cap for the vertices that currently sit under this node, i.e.
// (1+epsilon) times PerfectlyBalancedWeight.
func MaxPartWeight(n *Node, totalWeight hgtype.Weight, kFinal int, epsilon float64) hgtype.Weight {
	perfect := float64(PerfectlyBalancedWeight(n, totalWeight, kFinal))
	return hgtype.Weight(scalar.Round(perfect*(1+epsilon), 0))
}

// Tree is the root of a bipartition tree built for a final block
// count k.
type Tree struct {
	root *Node
	k    int
}

// New builds the bipartition tree for k final blocks (spec §4.E:
// "Root = {k}").
func New(k int) *Tree {
	if k < 1 {
		panic("rbtree: k must be >= 1")
	}
	return &Tree{root: build(0, k), k: k}
}

func build(lo, hi int) *Node {
	m := hi - lo
	n := &Node{value: m, lo: lo, hi: hi}
	if m <= 1 {
		return n
	}
	leftSize := (m + 1) / 2 // ceil(m/2)
	n.left = build(lo, lo+leftSize)
	n.right = build(lo+leftSize, hi)
	return n
}

func (t *Tree) Root() *Node { return t.root }
func (t *Tree) K() int      { return t.k }

// Split describes, after one call to Frontier.Expand, what happened
// to a single block of the previous frontier: either it stayed a
// single block (already a leaf) or it split into two new blocks at
// the given frontier indices.
type Split struct {
	OldBlock    int
	Split       bool
	Left, Right int // new frontier indices; Right is only meaningful if Split
}

// Frontier tracks the current-k' -> tree-node mapping spec §4.E's
// driver loop needs: nodes[i] is the tree node current block i
// currently corresponds to. Expanding the frontier is exactly
// "bipartitionEachBlock(current_k)" followed by the block-id rewrite
// spec §4.E step 3 describes.
type Frontier struct {
	nodes []*Node
}

// InitialFrontier starts the walk at the tree's root: one current
// block (k'=1) covering every final block.
func (t *Tree) InitialFrontier() *Frontier {
	return &Frontier{nodes: []*Node{t.root}}
}

func (f *Frontier) K() int        { return len(f.nodes) }
func (f *Frontier) Node(i int) *Node { return f.nodes[i] }

// NextK is spec §4.E's nextK(k'): the frontier size after one more
// expansion (each non-leaf block turns into two, each leaf stays one).
func (f *Frontier) NextK() int {
	n := 0
	for _, node := range f.nodes {
		if node.IsLeaf() {
			n++
		} else {
			n += 2
		}
	}
	return n
}

// Expand advances the frontier by one doubling step and reports, for
// every block of the previous frontier, whether and how it split.
// Frontier order is preserved as an in-order traversal of the tree,
// so once every node is a leaf the frontier indices coincide exactly
// with final block ids (lo == index for every leaf) -- the same
// ordering targetBlocksInFinalPartition promises.
func (f *Frontier) Expand() []Split {
	newNodes := make([]*Node, 0, f.NextK())
	splits := make([]Split, 0, len(f.nodes))
	for i, node := range f.nodes {
		if node.IsLeaf() {
			splits = append(splits, Split{OldBlock: i, Left: len(newNodes)})
			newNodes = append(newNodes, node)
			continue
		}
		left := len(newNodes)
		newNodes = append(newNodes, node.left)
		right := len(newNodes)
		newNodes = append(newNodes, node.right)
		splits = append(splits, Split{OldBlock: i, Split: true, Left: left, Right: right})
	}
	f.nodes = newNodes
	return splits
}

// AdaptiveEpsilon implements spec §4.E's adaptive-imbalance formula
// for a sub-bipartition that must eventually produce kCur final
// blocks out of a current sub-hypergraph of weight curWeight, given
// the top-level problem's original weight/block-count/epsilon:
//
//	base = ceil(origWeight/kOrig) / ceil(curWeight/kCur) * (1+epsilonOrig)
//	epsilonCur = min(0.99, max(base^(1/ceil(log2 kCur)) - 1, 0))
//
// curWeight == 0 returns 0 (spec: "If W_cur=0, ε=0 (empty block is
// permitted and rebalanced later)").
func AdaptiveEpsilon(origWeight hgtype.Weight, kOrig int, epsilonOrig float64, curWeight hgtype.Weight, kCur int) float64 {
	if curWeight <= 0 {
		return 0
	}
	if kCur <= 1 {
		return epsilonOrig
	}
	perfectOrig := math.Ceil(float64(origWeight) / float64(kOrig))
	perfectCur := math.Ceil(float64(curWeight) / float64(kCur))
	base := perfectOrig / perfectCur * (1 + epsilonOrig)
	exponent := 1.0 / math.Ceil(math.Log2(float64(kCur)))
	adjusted := math.Pow(base, exponent) - 1
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > 0.99 {
		adjusted = 0.99
	}
	return adjusted
}
