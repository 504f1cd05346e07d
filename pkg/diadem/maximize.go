package diadem

import (
	"context"
	"time"
)

// Option configures a Maximize call. Use helpers like WithFixedWidth,
// WithTimeLimit, WithDedup, WithCutset, WithSync and WithParallelWorkers
// to customize the search. Every option is consumed at start-of-search and
// never re-read afterwards.
type Option func(*options)

type options struct {
	width     WidthHeuristic
	cutoff    Cutoff
	timeLimit time.Duration
	cutset    CutsetPolicy
	sync      SyncPolicy
	dedup     bool
	workers   int
}

// WithFixedWidth bounds every diagram layer to the same number of states.
func WithFixedWidth(w int) Option {
	return func(o *options) { o.width = FixedWidth(w) }
}

// WithWidthHeuristic installs a custom layer width policy. The default
// allows as many states per layer as there are unassigned variables.
func WithWidthHeuristic(h WidthHeuristic) Option {
	return func(o *options) { o.width = h }
}

// WithTimeLimit sets a wall-clock budget for the search. When it elapses,
// the best incumbent found so far is returned with IsExact=false. The
// clock starts when Maximize is called.
func WithTimeLimit(d time.Duration) Option {
	return func(o *options) { o.timeLimit = d }
}

// WithCutoff installs a custom cutoff predicate, polled once per search
// step. The default never stops the search.
func WithCutoff(c Cutoff) Option {
	return func(o *options) { o.cutoff = c }
}

// WithDedup enables fringe deduplication: pending sub-problems with the
// same root state are collapsed, keeping the one with the larger
// accumulated value. It never changes the reported optimum, only the
// number of sub-problems explored.
func WithDedup() Option {
	return func(o *options) { o.dedup = true }
}

// WithCutset selects how relaxed diagrams spawn sub-problems. The default
// is LastExactLayer.
func WithCutset(p CutsetPolicy) Option {
	return func(o *options) { o.cutset = p }
}

// WithSync selects the synchronization discipline for publishing the
// sub-problems of one relaxed compilation. The default is Barrier.
func WithSync(p SyncPolicy) Option {
	return func(o *options) { o.sync = p }
}

// WithParallelWorkers runs the search on the given number of workers
// sharing one fringe and one incumbent. Values <= 1 select the sequential
// engine.
func WithParallelWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Solution is the outcome of a Maximize call. Optimality is only proven
// when IsExact is true (equivalently, Gap is zero): callers must inspect
// the flag before treating Objective as optimal.
type Solution struct {
	// IsExact is true iff the search space was exhausted before any
	// cutoff fired.
	IsExact bool
	// Feasible reports whether any feasible solution was found. When it
	// is false, Objective and Assignment are meaningless.
	Feasible bool
	// Objective is the value of the best solution found.
	Objective int
	// Assignment holds the decisions of the best solution, sorted by
	// variable id. Nil when no solution was found.
	Assignment []Decision
	// LowerBound and UpperBound are the best proven bounds on the
	// optimum. They meet exactly when IsExact is true.
	LowerBound int
	UpperBound int
	// Gap is the normalized distance between the bounds; zero signifies
	// proven optimality.
	Gap float64
	// Explored counts the sub-problems actually expanded.
	Explored int
	// Duration is the wall-clock time the search took.
	Duration time.Duration
}

// config is the resolved, immutable configuration of one search.
type config[T comparable] struct {
	problem Problem[T]
	relax   Relaxation[T]
	ranking StateRanking[T]
	width   WidthHeuristic
	cutoff  Cutoff
	cutset  CutsetPolicy
	sync    SyncPolicy
	dedup   bool
	workers int
}

func (c *config[T]) newFringe() Fringe[T] {
	if c.dedup {
		return NewNoDupFringe[T](c.ranking)
	}
	return NewSimpleFringe[T](c.ranking)
}

// Maximize searches for an assignment of problem's variables maximizing
// the summed transition costs, using relaxation for bounding and ranking
// for tie-breaking. It blocks until the search completes, the cutoff
// fires, or ctx is cancelled; in the latter two cases the best incumbent
// found so far is still returned, with IsExact=false.
//
// Modeling faults (a collaborator panicking or returning inconsistent
// values) abort the search: the engine performs no recovery.
func Maximize[T comparable](
	ctx context.Context,
	problem Problem[T],
	relax Relaxation[T],
	ranking StateRanking[T],
	opts ...Option,
) Solution {
	o := &options{
		width:  NbUnassignedWidth{},
		cutoff: NoCutoff{},
		cutset: LastExactLayer,
		sync:   Barrier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.timeLimit > 0 {
		o.cutoff = NewTimeBudget(o.timeLimit)
	}

	cfg := &config[T]{
		problem: problem,
		relax:   relax,
		ranking: ranking,
		width:   o.width,
		cutoff:  o.cutoff,
		cutset:  o.cutset,
		sync:    o.sync,
		dedup:   o.dedup,
		workers: o.workers,
	}

	start := time.Now()
	var (
		comp      Completion
		lb, ub    int
		incumbent []Decision
		explored  int
	)
	if cfg.workers > 1 {
		p := newParallelSolver(ctx, cfg)
		comp = p.maximize()
		lb, ub = p.bestLB, p.bestUB
		incumbent = p.incumbent
		explored = p.explored
	} else {
		s := newSolver(ctx, cfg)
		comp = s.maximize()
		lb, ub = s.bestLB, s.bestUB
		incumbent = s.incumbent
		explored = s.explored
	}

	return Solution{
		IsExact:    comp.IsExact,
		Feasible:   comp.Feasible,
		Objective:  comp.BestValue,
		Assignment: bestAssignment(comp.Feasible, incumbent),
		LowerBound: lb,
		UpperBound: ub,
		Gap:        gap(comp.Feasible, lb, ub),
		Explored:   explored,
		Duration:   time.Since(start),
	}
}
