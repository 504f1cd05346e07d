package diadem

// SubProblem is the unit of work held in the fringe: an unexplored portion
// of the search space rooted at State, together with the value accumulated
// along Path to reach it and a valid upper bound on the best objective
// attainable through it.
//
// Invariant: UpperBound >= the true optimum reachable from State with Value
// already added. Fringe-based pruning against the incumbent is sound
// exactly because of this invariant.
type SubProblem[T comparable] struct {
	// State is the root state of the sub-problem.
	State T
	// Value is the objective accumulated from the problem root down to
	// State (InitialValue included).
	Value int
	// UpperBound bounds the best objective of any completion of Path.
	UpperBound int
	// Path holds the decisions taken from the problem root to State. It is
	// the prefix prepended to any solution found below State.
	Path []Decision
	// Depth is the number of variables assigned along Path.
	Depth int
}
