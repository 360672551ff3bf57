package hypergraph

import "github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"

// pinRewrite records, for a single hyperedge touched by a contraction, how
// to invert that hyperedge's pin-list edit during uncontract. It plays the
// role the source's RAII contraction objects play -- one entry per
// incident net of the contracted-away vertex.
type pinRewrite struct {
	edge hgtype.ID
	// dedup is true when v's occurrence was simply dropped from pins(e)
	// because u was already a pin of e (a parallel net was formed).
	// false means the slot that held v was rewritten in place to hold u.
	dedup bool
	// pos is the index within pins(e) that v occupied before the edit.
	pos int
}

// Memento is the LIFO stack entry described in spec §3 ("Contraction
// memento"): {u, v, restored-state-of-incident-nets}. The only valid
// inverse operation is uncontract(top).
type Memento struct {
	u, v     hgtype.ID
	uWeight  hgtype.Weight // u's weight before the contraction
	rewrites []pinRewrite
}

// MementoStack is the explicit LIFO the uncoarsener owns, replacing the
// source's RAII contraction-object pattern (Design Note 9.3).
type MementoStack struct {
	entries []Memento
}

func NewMementoStack() *MementoStack {
	return &MementoStack{}
}

func (s *MementoStack) Push(m Memento) {
	s.entries = append(s.entries, m)
}

func (s *MementoStack) Len() int {
	return len(s.entries)
}

// Pop removes and returns the top entry. Panics if the stack is empty --
// popping an empty memento stack is a programmer error, not a recoverable
// condition (spec §7: "Internal invariant violation").
func (s *MementoStack) Pop() Memento {
	n := len(s.entries)
	m := s.entries[n-1]
	s.entries = s.entries[:n-1]
	return m
}

// PopBatch pops the top batchSize entries (all of them when batchSize
// is <= 0 or larger than the stack), returning them oldest-first. The
// stack holds no level-boundary markers.
func (s *MementoStack) PopBatch(batchSize int) []Memento {
	if batchSize <= 0 || batchSize > len(s.entries) {
		batchSize = len(s.entries)
	}
	n := len(s.entries)
	batch := make([]Memento, batchSize)
	for i := 0; i < batchSize; i++ {
		batch[batchSize-1-i] = s.entries[n-1-i]
	}
	s.entries = s.entries[:n-batchSize]
	return batch
}
