package diadem

// WidthHeuristic decides the maximum number of distinct states a diagram
// layer may retain before the compiler is forced to narrow it (dropping in
// restricted mode, merging in relaxed mode). The returned width must be
// strictly positive.
type WidthHeuristic interface {
	// MaxWidth returns the layer width budget given the number of
	// variables still unassigned at that layer.
	MaxWidth(unassigned int) int
}

// FixedWidth is a WidthHeuristic that always allows the same number of
// states per layer, regardless of depth.
type FixedWidth int

// MaxWidth returns the fixed budget (at least 1).
func (w FixedWidth) MaxWidth(unassigned int) int {
	if int(w) < 1 {
		return 1
	}
	return int(w)
}

// NbUnassignedWidth is a WidthHeuristic that allows as many states per
// layer as there are unassigned variables: a wide budget near the root
// where diversity pays off, narrowing toward the leaves.
type NbUnassignedWidth struct{}

// MaxWidth returns the number of unassigned variables (at least 1).
func (NbUnassignedWidth) MaxWidth(unassigned int) int {
	if unassigned < 1 {
		return 1
	}
	return unassigned
}

// maxUB orders sub-problems by decreasing promise: first by upper bound,
// then by accumulated value, with the state ranking as final tie-break.
// It is the ordering of both fringe implementations.
type maxUB[T comparable] struct {
	ranking StateRanking[T]
}

// compare returns a positive value when a should be popped before b.
func (m maxUB[T]) compare(a, b *SubProblem[T]) int {
	if a.UpperBound != b.UpperBound {
		if a.UpperBound > b.UpperBound {
			return 1
		}
		return -1
	}
	if a.Value != b.Value {
		if a.Value > b.Value {
			return 1
		}
		return -1
	}
	return m.ranking.Compare(a.State, b.State)
}
