// Package gainqueue holds small generic containers shared by the
// refiners: the gain priority queues of the FM refiner (pkg/refinement/fm)
// are built directly on MinHeap below.
//
// Adapted from the teacher's pkg/datastructure/binary_heap.go (the same
// array-backed binary heap with a position index for O(log N)
// DecreaseKey/DeleteNode), generalized from the teacher's CRP
// query-key-specific instantiation to an arbitrary comparable item type
// and dropping CRPQueryKey, which has no gain-queue analog.
package gainqueue

import "errors"

type PriorityQueueNode[T comparable] struct {
	rank float64
	item T
}

func (p *PriorityQueueNode[T]) GetItem() T {
	return p.item
}

func (p *PriorityQueueNode[T]) GetRank() float64 {
	return p.rank
}

func NewPriorityQueueNode[T comparable](rank float64, item T) PriorityQueueNode[T] {
	return PriorityQueueNode[T]{rank: rank, item: item}
}

// MinHeap is an array-backed binary min-heap keyed by rank, with a
// position index so an arbitrary item can be located and re-keyed or
// removed in O(log N) instead of a linear scan.
type MinHeap[T comparable] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T comparable]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

// heapifyUp restores the heap property after an insert or a rank
// decrease: swap index up against its parent while it ranks lower,
// O(log N) tree height.
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].rank < h.heap[h.parent(index)].rank {
		h.heap[index], h.heap[h.parent(index)] = h.heap[h.parent(index)], h.heap[index]

		h.pos[h.heap[index].item] = index
		h.pos[h.heap[h.parent(index)].item] = h.parent(index)
		index = h.parent(index)
	}
}

// heapifyDown restores the heap property after a removal: swap index
// down against whichever child ranks lower, O(log N) tree height.
func (h *MinHeap[T]) heapifyDown(index int) {
	smallest := index
	left := h.leftChild(index)
	right := h.rightChild(index)

	if left < len(h.heap) && h.heap[left].rank < h.heap[smallest].rank {
		smallest = left
	}
	if right < len(h.heap) && h.heap[right].rank < h.heap[smallest].rank {
		smallest = right
	}
	if smallest != index {
		h.heap[index], h.heap[smallest] = h.heap[smallest], h.heap[index]
		h.pos[h.heap[index].item] = index
		h.pos[h.heap[smallest].item] = smallest

		h.heapifyDown(smallest)
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Clear() {
	h.heap = make([]PriorityQueueNode[T], 0)
	h.pos = make(map[T]int)
}

// GetMin returns the minimum-rank node without removing it.
func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, errors.New("heap is empty")
	}
	return h.heap[0], nil
}

func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.item] = index
	h.heapifyUp(index)
}

// ExtractMin removes and returns the minimum-rank node. O(log N).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, errors.New("heap is empty")
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	h.pos[root.item] = -1
	if last > 0 {
		h.pos[h.heap[0].item] = 0
		h.heapifyDown(0)
	}
	return root, nil
}

// DeleteNode removes a specific item's node via the position index,
// O(log N) -- not the linear scan its name might suggest.
func (h *MinHeap[T]) DeleteNode(item PriorityQueueNode[T]) error {
	index, ok := h.pos[item.item]
	if !ok || index < 0 || index >= h.Size() {
		return errors.New("key not found in the heap")
	}
	last := h.Size() - 1
	h.pos[item.item] = -1
	if index != last {
		h.heap[index] = h.heap[last]
		h.pos[h.heap[index].item] = index
	}
	h.heap = h.heap[:last]
	if index < len(h.heap) {
		h.heapifyUp(index)
		h.heapifyDown(index)
	}
	return nil
}

// DecreaseKey lowers an item's rank in place. O(log N).
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	if h.pos[item.item] < 0 || h.pos[item.item] >= h.Size() || item.rank > h.heap[h.pos[item.item]].rank {
		return errors.New("invalid index or new value")
	}
	h.heap[h.pos[item.item]] = item
	h.heapifyUp(h.pos[item.item])
	return nil
}
