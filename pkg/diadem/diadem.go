// Package diadem provides an exact discrete maximization engine driven by
// decision diagrams. It implements branch-and-bound search in which the
// bounding and branching machinery is obtained by compiling layered decision
// diagrams: width-bounded *restricted* diagrams yield feasible solutions
// (lower bounds) while width-bounded *relaxed* diagrams yield valid upper
// bounds and a cutset of sub-problems still to explore.
//
// A problem is expressed as a sequential decision process: a fixed number of
// variables assigned one at a time, each assignment incurring an integer
// cost, the objective being the sum of the costs. The caller supplies three
// collaborators:
//   - Problem: the transition system (states, domains, costs)
//   - Relaxation: how to merge states into an over-approximation and how to
//     bound a state from above
//   - StateRanking: which states look most promising
//
// and calls Maximize. The search is anytime: it can be cut off by a time
// budget or a context and still returns the best incumbent together with
// the residual optimality gap. When the search runs to completion the
// returned solution is proven optimal (IsExact is true, Gap is zero).
//
// This implementation is designed for production use with:
//   - A single engine parameterized by interchangeable cutset and
//     synchronization policies
//   - Optional multi-worker solving sharing one fringe and one incumbent
//   - Context-based cancellation polled between search steps
//   - Type-safe generic interfaces leveraging Go's type system
package diadem

import (
	"fmt"
	"math"
)

// NoUpperBound is the sentinel returned by Relaxation.FastUpperBound when a
// relaxation declines to bound a state. The engine treats it as "no extra
// pruning available"; it never blocks the search. It is an explicit exported
// value rather than a silent default so that overflow bugs in user bounds
// cannot masquerade as a missing bound.
const NoUpperBound = math.MaxInt

// Variable identifies one decision variable of a problem. Variables are
// dense identifiers in [0, NbVariables).
type Variable int

// Decision is the assignment of a value to one variable. The transition
// cost of a decision is contextual: it depends on the state the decision is
// taken from and is queried through Problem.TransitionCost.
type Decision struct {
	Variable Variable
	Value    int
}

// String returns a human-readable representation of the decision.
func (d Decision) String() string {
	return fmt.Sprintf("x%d=%d", d.Variable, d.Value)
}

// Problem is the transition system of a sequential decision process. It is
// the first of the three collaborator roles supplied to Maximize.
//
// Contract:
//   - All methods must be pure and deterministic: same inputs, same
//     outputs, no side effects. The engine may evaluate them from several
//     goroutines concurrently.
//   - State values must have value semantics: two states that represent the
//     same partial-assignment equivalence class must compare equal with ==.
//     Violating this invalidates every deduplication the engine performs
//     (layer dedup, fringe dedup).
//   - A collaborator that cannot satisfy a call must panic. Modeling faults
//     are fatal: the engine performs no recovery and lets the panic unwind
//     out of Maximize to the caller.
type Problem[T comparable] interface {
	// NbVariables returns the number of decision variables. It is queried
	// once at the start of a search and must not change.
	NbVariables() int

	// InitialState returns the root state of the transition system.
	InitialState() T

	// InitialValue returns the objective value of the empty assignment.
	InitialValue() int

	// Transition returns the state reached from state by taking decision d.
	Transition(state T, d Decision) T

	// TransitionCost returns the objective contribution of taking decision
	// d from state.
	TransitionCost(state T, d Decision) int

	// NextVariable selects the variable to branch on for the layer whose
	// states are next. depth is the number of variables already assigned
	// along the paths reaching that layer. Returning false signals a
	// terminal layer: no more branching for any state in it.
	NextVariable(depth int, next []T) (Variable, bool)

	// Domain returns the admissible values of v in the given state. An
	// empty domain means the state cannot progress on v and the branch
	// dies. The returned slice is consumed eagerly and never retained.
	Domain(v Variable, state T) []int
}

// Relaxation over-approximates the reachable state space so that a
// width-bounded relaxed diagram yields a valid upper bound. Correctness of
// the bound is a modeling obligation of the implementation: the engine
// guarantees soundness of the search given a correct relaxation, not
// correctness of the relaxation itself.
//
// Contract:
//   - Merge must return a state from which every path reachable from any of
//     the input states remains reachable (in the relaxed sense).
//   - Relax is called once per original edge absorbed into a merged node
//     and returns the cost the relaxed diagram should attribute to that
//     edge; it must be >= cost for the bound to remain valid.
//   - FastUpperBound returns a cheap upper bound on the value attainable
//     from state (not counting the value already accumulated to reach it),
//     or NoUpperBound to decline. It is used both for pruning and for
//     ordering the search fringe.
//   - Purity and panic-on-fault rules are the same as for Problem.
type Relaxation[T comparable] interface {
	Merge(states []T) T
	Relax(source, dest, merged T, d Decision, cost int) int
	FastUpperBound(state T) int
}

// StateRanking is a total preorder over states: a positive result means a
// is more promising than b, negative the opposite, zero a tie. It decides
// which states survive exactly when a diagram layer must be narrowed (the
// lowest ranked beyond the width budget are dropped or merged) and breaks
// ties in the fringe ordering.
type StateRanking[T comparable] interface {
	Compare(a, b T) int
}
