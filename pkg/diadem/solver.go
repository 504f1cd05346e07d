package diadem

import (
	"context"
	"math"
	"sort"
)

// CutsetPolicy selects which exact nodes of a relaxed diagram become new
// sub-problems.
type CutsetPolicy int

const (
	// LastExactLayer takes every node of the deepest diagram layer built
	// before any merge occurred.
	LastExactLayer CutsetPolicy = iota
	// Frontier takes every exact node with an arc into an inexact node,
	// wherever in the diagram the frontier between exact information and
	// relaxation runs.
	Frontier
)

// SyncPolicy governs when the sub-problems spawned by one relaxed
// compilation become visible to other workers. Under Barrier they are all
// published to the shared fringe in one critical section, so no worker can
// race ahead of a partially expanded layer; under NoBarrier they are
// published one at a time for higher throughput. Single-threaded the two
// are observationally identical.
type SyncPolicy int

const (
	Barrier SyncPolicy = iota
	NoBarrier
)

// Completion is the terminal outcome of a search. IsExact is true iff the
// fringe was exhausted before any cutoff fired, which is a proof of
// optimality. BestValue is only meaningful when Feasible is true.
type Completion struct {
	IsExact   bool
	Feasible  bool
	BestValue int
}

// solver is the sequential best-first engine. It owns the fringe, the
// incumbent and the global bounds for the duration of one maximize call.
type solver[T comparable] struct {
	ctx     context.Context
	problem Problem[T]
	relax   Relaxation[T]
	ranking StateRanking[T]
	width   WidthHeuristic
	cutoff  Cutoff
	fringe  Fringe[T]
	cutset  CutsetPolicy

	// Incumbent and global bounds. The incumbent value only ever
	// increases, the global upper bound only ever decreases.
	incumbent []Decision
	feasible  bool
	bestLB    int
	bestUB    int

	explored int
}

func newSolver[T comparable](ctx context.Context, cfg *config[T]) *solver[T] {
	return &solver[T]{
		ctx:     ctx,
		problem: cfg.problem,
		relax:   cfg.relax,
		ranking: cfg.ranking,
		width:   cfg.width,
		cutoff:  cfg.cutoff,
		fringe:  cfg.newFringe(),
		cutset:  cfg.cutset,
		bestLB:  math.MinInt,
		bestUB:  NoUpperBound,
	}
}

// maximize runs the best-first loop until the fringe empties (proof of
// optimality) or the cutoff fires.
func (s *solver[T]) maximize() Completion {
	s.fringe.Push(s.rootSubProblem())

	for {
		if s.mustStop() {
			return Completion{IsExact: false, Feasible: s.feasible, BestValue: s.bestLB}
		}
		sub, ok := s.fringe.Pop()
		if !ok {
			break
		}
		// Best-first order makes the popped bound the max over all open
		// work, so it refines the global upper bound.
		s.tightenUB(sub.UpperBound)
		if s.feasible && sub.UpperBound <= s.bestLB {
			// Nothing left in the fringe can beat the incumbent.
			s.fringe.Clear()
			break
		}
		s.explored++
		s.process(sub)
	}

	// Exhausted: the incumbent is optimal and the bounds meet.
	s.bestUB = s.bestLB
	return Completion{IsExact: true, Feasible: s.feasible, BestValue: s.bestLB}
}

// process explores one sub-problem: a restricted compilation to improve
// the incumbent, then (unless the restriction was already exact) a relaxed
// compilation to refine the bound and spawn new sub-problems.
func (s *solver[T]) process(sub *SubProblem[T]) {
	in := compileInput[T]{
		compType: restricted,
		cutset:   s.cutset,
		problem:  s.problem,
		relax:    s.relax,
		ranking:  s.ranking,
		width:    s.width,
		root:     sub,
	}
	res := compile(in)
	if res.feasible {
		s.maybeImprove(res.bestValue, pathTo(sub.Path, res.bestNode))
	}
	if res.exact {
		// The restriction covered the whole sub-problem: a relaxed
		// compilation could not add information.
		return
	}

	in.compType = relaxed
	rel := compile(in)
	if rel.bestExact != nil {
		// The best fully-exact terminal path of a relaxed diagram is a
		// feasible solution in its own right.
		s.maybeImprove(rel.bestExact.value, pathTo(sub.Path, rel.bestExact))
	}
	s.publish(rel.cutset)
}

// publish enqueues the sub-problems spawned by one relaxed compilation,
// pruning those that cannot beat the incumbent. Sequentially Barrier and
// NoBarrier coincide; the distinction matters to the parallel engine.
func (s *solver[T]) publish(subs []*SubProblem[T]) {
	for _, sub := range subs {
		if s.feasible && sub.UpperBound <= s.bestLB {
			continue
		}
		s.fringe.Push(sub)
	}
}

// maybeImprove replaces the incumbent when value beats it. This is the
// only place the incumbent is mutated.
func (s *solver[T]) maybeImprove(value int, path []Decision) {
	if !s.feasible || value > s.bestLB {
		s.feasible = true
		s.bestLB = value
		s.incumbent = path
	}
}

// tightenUB lowers the global upper bound to ub, clamped below by the
// incumbent value.
func (s *solver[T]) tightenUB(ub int) {
	if s.feasible && ub < s.bestLB {
		ub = s.bestLB
	}
	if ub < s.bestUB {
		s.bestUB = ub
	}
}

func (s *solver[T]) rootSubProblem() *SubProblem[T] {
	state := s.problem.InitialState()
	value := s.problem.InitialValue()
	ub := NoUpperBound
	if fub := s.relax.FastUpperBound(state); fub != NoUpperBound {
		ub = value + fub
	}
	return &SubProblem[T]{State: state, Value: value, UpperBound: ub}
}

func (s *solver[T]) mustStop() bool {
	return s.ctx.Err() != nil || s.cutoff.MustStop()
}

// gap quantifies the remaining optimality uncertainty: zero once the
// bounds meet, the bound spread normalized by the incumbent otherwise,
// and a unit sentinel while no meaningful normalization exists.
func gap(feasible bool, lb, ub int) float64 {
	if lb >= ub {
		return 0
	}
	if !feasible || lb == 0 {
		return 1
	}
	return float64(ub-lb) / math.Abs(float64(lb))
}

// bestAssignment returns the incumbent's decisions sorted by variable id,
// or nil when no feasible solution was found.
func bestAssignment(feasible bool, incumbent []Decision) []Decision {
	if !feasible {
		return nil
	}
	out := make([]Decision, len(incumbent))
	copy(out, incumbent)
	sort.Slice(out, func(i, j int) bool { return out[i].Variable < out[j].Variable })
	return out
}
