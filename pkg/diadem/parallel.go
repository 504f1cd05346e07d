package diadem

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

// parallelSolver runs the best-first loop on several workers sharing one
// fringe and one incumbent. Both live behind a single monitor: workers
// take the lock to pop, to publish sub-problems and to improve the
// incumbent, and compile diagrams outside of it. The incumbent value only
// ever increases and the global upper bound only ever decreases, same as
// in the sequential engine.
type parallelSolver[T comparable] struct {
	ctx     context.Context
	problem Problem[T]
	relax   Relaxation[T]
	ranking StateRanking[T]
	width   WidthHeuristic
	cutoff  Cutoff
	cutset  CutsetPolicy
	sync    SyncPolicy
	workers int

	mu   sync.Mutex
	cond *sync.Cond

	fringe    Fringe[T]
	incumbent []Decision
	feasible  bool
	bestLB    int
	bestUB    int
	explored  int

	// ongoing counts popped sub-problems still being processed; the
	// search is over only when the fringe is empty and nothing is in
	// flight. inFlight keeps each worker's current bound so the global
	// upper bound accounts for work not in the fringe.
	ongoing  int
	inFlight map[int]int
	stopped  bool
}

func newParallelSolver[T comparable](ctx context.Context, cfg *config[T]) *parallelSolver[T] {
	p := &parallelSolver[T]{
		ctx:      ctx,
		problem:  cfg.problem,
		relax:    cfg.relax,
		ranking:  cfg.ranking,
		width:    cfg.width,
		cutoff:   cfg.cutoff,
		cutset:   cfg.cutset,
		sync:     cfg.sync,
		workers:  cfg.workers,
		fringe:   cfg.newFringe(),
		bestLB:   math.MinInt,
		bestUB:   NoUpperBound,
		inFlight: make(map[int]int),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *parallelSolver[T]) maximize() Completion {
	state := p.problem.InitialState()
	value := p.problem.InitialValue()
	ub := NoUpperBound
	if fub := p.relax.FastUpperBound(state); fub != NoUpperBound {
		ub = value + fub
	}
	p.fringe.Push(&SubProblem[T]{State: state, Value: value, UpperBound: ub})

	g := new(errgroup.Group)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			p.worker(id)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return Completion{IsExact: false, Feasible: p.feasible, BestValue: p.bestLB}
	}
	p.bestUB = p.bestLB
	return Completion{IsExact: true, Feasible: p.feasible, BestValue: p.bestLB}
}

func (p *parallelSolver[T]) worker(id int) {
	for {
		sub, ok := p.next(id)
		if !ok {
			return
		}
		p.process(id, sub)
	}
}

// next blocks until there is a sub-problem to explore, the search is
// proven over, or a cutoff fires. The cutoff is polled here, once per
// iteration per worker; a compilation in flight is never interrupted.
func (p *parallelSolver[T]) next(id int) (*SubProblem[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if p.stopped {
			return nil, false
		}
		if p.ctx.Err() != nil || p.cutoff.MustStop() {
			p.stopped = true
			p.cond.Broadcast()
			return nil, false
		}

		sub, ok := p.fringe.Pop()
		if !ok {
			if p.ongoing == 0 {
				p.cond.Broadcast()
				return nil, false
			}
			p.cond.Wait()
			continue
		}
		if p.feasible && sub.UpperBound <= p.bestLB {
			// Best-first order: everything left is at least as hopeless.
			p.fringe.Clear()
			continue
		}

		p.tightenUBLocked(sub.UpperBound)
		p.inFlight[id] = sub.UpperBound
		p.ongoing++
		p.explored++
		return sub, true
	}
}

// process explores one sub-problem outside the lock, then publishes its
// results under it.
func (p *parallelSolver[T]) process(id int, sub *SubProblem[T]) {
	in := compileInput[T]{
		compType: restricted,
		cutset:   p.cutset,
		problem:  p.problem,
		relax:    p.relax,
		ranking:  p.ranking,
		width:    p.width,
		root:     sub,
	}
	res := compile(in)

	var rel compileOutput[T]
	if !res.exact {
		in.compType = relaxed
		rel = compile(in)
	}

	p.mu.Lock()
	if res.feasible {
		p.improveLocked(res.bestValue, pathTo(sub.Path, res.bestNode))
	}
	if rel.bestExact != nil {
		p.improveLocked(rel.bestExact.value, pathTo(sub.Path, rel.bestExact))
	}
	if p.sync == Barrier {
		// All sub-problems of this compilation land before anyone pops.
		p.publishLocked(rel.cutset)
		p.finishLocked(id)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// NoBarrier: publish one at a time, letting other workers interleave.
	for _, child := range rel.cutset {
		p.mu.Lock()
		p.publishLocked([]*SubProblem[T]{child})
		p.mu.Unlock()
	}
	p.mu.Lock()
	p.finishLocked(id)
	p.mu.Unlock()
}

func (p *parallelSolver[T]) publishLocked(subs []*SubProblem[T]) {
	for _, sub := range subs {
		if p.feasible && sub.UpperBound <= p.bestLB {
			continue
		}
		p.fringe.Push(sub)
		p.cond.Signal()
	}
}

func (p *parallelSolver[T]) finishLocked(id int) {
	delete(p.inFlight, id)
	p.ongoing--
	p.cond.Broadcast()
}

func (p *parallelSolver[T]) improveLocked(value int, path []Decision) {
	if !p.feasible || value > p.bestLB {
		p.feasible = true
		p.bestLB = value
		p.incumbent = path
	}
}

// tightenUBLocked refines the global upper bound: all open work is either
// in the fringe (bounded by the entry just popped, thanks to best-first
// order) or in flight, so the max over those bounds is a valid global
// bound.
func (p *parallelSolver[T]) tightenUBLocked(popped int) {
	ub := popped
	for _, b := range p.inFlight {
		if b > ub {
			ub = b
		}
	}
	if p.feasible && ub < p.bestLB {
		ub = p.bestLB
	}
	if ub < p.bestUB {
		p.bestUB = ub
	}
}
