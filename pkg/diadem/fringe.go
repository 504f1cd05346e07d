package diadem

import "container/heap"

// Fringe is the open list of a best-first search: pending sub-problems
// ordered by decreasing promise (upper bound first, state ranking as
// tie-break). Pop returns the most promising entry; an empty fringe is the
// search's natural termination.
//
// Fringe implementations are not safe for concurrent use by themselves;
// the parallel engine serializes access under its own monitor.
type Fringe[T comparable] interface {
	// Push adds a sub-problem to the fringe.
	Push(sub *SubProblem[T])
	// Pop removes and returns the most promising sub-problem, or false
	// when the fringe is empty.
	Pop() (*SubProblem[T], bool)
	// Len returns the number of pending sub-problems.
	Len() int
	// Peek returns the most promising sub-problem without removing it.
	Peek() (*SubProblem[T], bool)
	// Clear discards all pending sub-problems.
	Clear()
}

// subHeap is a max-heap of sub-problems under the maxUB ordering. When
// track is non-nil it maintains the position of each root state inside the
// heap, which is what NoDupFringe needs to replace entries in place.
type subHeap[T comparable] struct {
	items []*SubProblem[T]
	order maxUB[T]
	track map[T]int
}

func (h *subHeap[T]) Len() int { return len(h.items) }

func (h *subHeap[T]) Less(i, j int) bool {
	return h.order.compare(h.items[i], h.items[j]) > 0
}

func (h *subHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	if h.track != nil {
		h.track[h.items[i].State] = i
		h.track[h.items[j].State] = j
	}
}

func (h *subHeap[T]) Push(x any) {
	sub := x.(*SubProblem[T])
	if h.track != nil {
		h.track[sub.State] = len(h.items)
	}
	h.items = append(h.items, sub)
}

func (h *subHeap[T]) Pop() any {
	n := len(h.items)
	sub := h.items[n-1]
	h.items[n-1] = nil
	h.items = h.items[:n-1]
	if h.track != nil {
		delete(h.track, sub.State)
	}
	return sub
}

// SimpleFringe is the plain fringe: duplicate root states are allowed and
// each pushed sub-problem is explored (or pruned) independently.
type SimpleFringe[T comparable] struct {
	heap subHeap[T]
}

// NewSimpleFringe creates an empty plain fringe ordered by upper bound
// with ranking as tie-break.
func NewSimpleFringe[T comparable](ranking StateRanking[T]) *SimpleFringe[T] {
	return &SimpleFringe[T]{heap: subHeap[T]{order: maxUB[T]{ranking: ranking}}}
}

// Push adds a sub-problem to the fringe.
func (f *SimpleFringe[T]) Push(sub *SubProblem[T]) {
	heap.Push(&f.heap, sub)
}

// Pop removes and returns the most promising sub-problem.
func (f *SimpleFringe[T]) Pop() (*SubProblem[T], bool) {
	if len(f.heap.items) == 0 {
		return nil, false
	}
	return heap.Pop(&f.heap).(*SubProblem[T]), true
}

// Len returns the number of pending sub-problems.
func (f *SimpleFringe[T]) Len() int { return len(f.heap.items) }

// Peek returns the most promising sub-problem without removing it.
func (f *SimpleFringe[T]) Peek() (*SubProblem[T], bool) {
	if len(f.heap.items) == 0 {
		return nil, false
	}
	return f.heap.items[0], true
}

// Clear discards all pending sub-problems.
func (f *SimpleFringe[T]) Clear() { f.heap.items = f.heap.items[:0] }

// NoDupFringe deduplicates sub-problems by root state: when a pushed
// sub-problem's state is already pending, only one of the two is kept.
// Entries sharing a root state reach the same completions, so the one with
// the larger accumulated value dominates the other pointwise and survives;
// bounds only break ties. Deduplication never changes the reported
// optimum, only the number of sub-problems explored.
type NoDupFringe[T comparable] struct {
	heap subHeap[T]
}

// NewNoDupFringe creates an empty deduplicating fringe ordered by upper
// bound with ranking as tie-break.
func NewNoDupFringe[T comparable](ranking StateRanking[T]) *NoDupFringe[T] {
	return &NoDupFringe[T]{heap: subHeap[T]{
		order: maxUB[T]{ranking: ranking},
		track: make(map[T]int),
	}}
}

// Push adds a sub-problem, collapsing it with any pending entry rooted at
// the same state. The entry with the larger accumulated value is kept (on
// equal value, the larger bound); comparing bounds alone would be unsound,
// since per-diagram clamping can hand the dominated entry the larger
// bound. The survivor carries the larger of the two bounds.
func (f *NoDupFringe[T]) Push(sub *SubProblem[T]) {
	if i, ok := f.heap.track[sub.State]; ok {
		cur := f.heap.items[i]
		keep := cur
		if sub.Value > cur.Value || (sub.Value == cur.Value && sub.UpperBound > cur.UpperBound) {
			keep = sub
		}
		ub := cur.UpperBound
		if sub.UpperBound > ub {
			ub = sub.UpperBound
		}
		if keep == cur && ub == cur.UpperBound {
			return
		}
		keep.UpperBound = ub
		f.heap.items[i] = keep
		heap.Fix(&f.heap, i)
		return
	}
	heap.Push(&f.heap, sub)
}

// Pop removes and returns the most promising sub-problem.
func (f *NoDupFringe[T]) Pop() (*SubProblem[T], bool) {
	if len(f.heap.items) == 0 {
		return nil, false
	}
	return heap.Pop(&f.heap).(*SubProblem[T]), true
}

// Len returns the number of pending sub-problems.
func (f *NoDupFringe[T]) Len() int { return len(f.heap.items) }

// Peek returns the most promising sub-problem without removing it.
func (f *NoDupFringe[T]) Peek() (*SubProblem[T], bool) {
	if len(f.heap.items) == 0 {
		return nil, false
	}
	return f.heap.items[0], true
}

// Clear discards all pending sub-problems.
func (f *NoDupFringe[T]) Clear() {
	f.heap.items = f.heap.items[:0]
	f.heap.track = make(map[T]int)
}
