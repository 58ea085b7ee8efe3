package page

import "container/heap"

// gap is a contiguous tombstoned region awaiting reclamation by defrag.
type gap struct {
	offset uint64
	length uint64
}

// gapHeap is a min-heap of gaps ordered by ascending offset. Smallest
// offset first is essential for defrag correctness: popping the smallest
// gap guarantees every entry moved by that step lands at a strictly
// smaller offset than before, so the re-index walk starting at the gap's
// offset covers exactly the entries the move affected.
type gapHeap []gap

func (h gapHeap) Len() int           { return len(h) }
func (h gapHeap) Less(i, j int) bool { return h[i].offset < h[j].offset }
func (h gapHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *gapHeap) Push(x any)        { *h = append(*h, x.(gap)) }

func (h *gapHeap) Pop() any {
	old := *h
	n := len(old)
	g := old[n-1]
	*h = old[:n-1]
	return g
}

// pushGap queues a gap for reclamation.
func (h *gapHeap) pushGap(g gap) {
	heap.Push(h, g)
}

// popGap removes and returns the smallest-offset gap, or false if the heap
// is empty.
func (h *gapHeap) popGap() (gap, bool) {
	if h.Len() == 0 {
		return gap{}, false
	}
	return heap.Pop(h).(gap), true
}
