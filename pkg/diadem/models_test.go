package diadem

// Test models used across the suite. They are deliberately small enough
// for brute-force enumeration so every engine configuration can be checked
// against the true optimum.

// tableProblem assigns one value per variable out of a fixed table of
// per-variable domains and costs; the state only tracks how many variables
// were assigned. Its spread of costs makes restricted diagrams with tight
// widths genuinely suboptimal, which is what the bounding machinery is
// exercised against.
type tableProblem struct {
	domains [][]int
	costs   [][]int // costs[v][i] is the cost of picking domains[v][i]
}

func (p *tableProblem) NbVariables() int  { return len(p.domains) }
func (p *tableProblem) InitialState() int { return 0 }
func (p *tableProblem) InitialValue() int { return 0 }

func (p *tableProblem) Transition(state int, d Decision) int { return state + 1 }

func (p *tableProblem) TransitionCost(state int, d Decision) int {
	for i, v := range p.domains[d.Variable] {
		if v == d.Value {
			return p.costs[d.Variable][i]
		}
	}
	panic("value outside domain")
}

func (p *tableProblem) NextVariable(depth int, next []int) (Variable, bool) {
	if depth >= len(p.domains) {
		return 0, false
	}
	return Variable(depth), true
}

func (p *tableProblem) Domain(v Variable, state int) []int { return p.domains[v] }

// tableRelax merges table states trivially (they are all the same depth
// marker) and can optionally provide a fast bound from the sum of the best
// remaining costs.
type tableRelax struct {
	problem   *tableProblem
	withBound bool
}

func (r *tableRelax) Merge(states []int) int { return states[0] }

func (r *tableRelax) Relax(source, dest, merged int, d Decision, cost int) int { return cost }

func (r *tableRelax) FastUpperBound(state int) int {
	if !r.withBound {
		return NoUpperBound
	}
	ub := 0
	for v := state; v < len(r.problem.costs); v++ {
		best := r.problem.costs[v][0]
		for _, c := range r.problem.costs[v][1:] {
			if c > best {
				best = c
			}
		}
		ub += best
	}
	return ub
}

// intRanking ranks larger states as more promising.
type intRanking struct{}

func (intRanking) Compare(a, b int) int { return a - b }

// ksState is a knapsack search state: how many items were decided and how
// much capacity remains. Depth belongs in the state so that two states
// compare equal only when they root the same sub-problem, which is what
// fringe deduplication relies on.
type ksState struct {
	depth    int
	capacity int
}

// knapsack is the classic 0/1 knapsack as a sequential decision process:
// one variable per item, value 1 takes it.
type knapsack struct {
	capacity int
	weights  []int
	profits  []int
}

func (p *knapsack) NbVariables() int      { return len(p.weights) }
func (p *knapsack) InitialState() ksState { return ksState{capacity: p.capacity} }
func (p *knapsack) InitialValue() int     { return 0 }

func (p *knapsack) Transition(s ksState, d Decision) ksState {
	return ksState{depth: s.depth + 1, capacity: s.capacity - d.Value*p.weights[d.Variable]}
}

func (p *knapsack) TransitionCost(s ksState, d Decision) int {
	return d.Value * p.profits[d.Variable]
}

func (p *knapsack) NextVariable(depth int, next []ksState) (Variable, bool) {
	if depth >= len(p.weights) {
		return 0, false
	}
	return Variable(depth), true
}

func (p *knapsack) Domain(v Variable, s ksState) []int {
	if s.capacity >= p.weights[v] {
		return []int{1, 0}
	}
	return []int{0}
}

// knapsackRelax merges states by keeping the largest remaining capacity,
// which makes every completion of the merged branches still reachable.
// The fast bound is the sum of the profits of the items still undecided.
type knapsackRelax struct {
	problem *knapsack
}

func (r *knapsackRelax) Merge(states []ksState) ksState {
	best := states[0]
	for _, s := range states[1:] {
		if s.capacity > best.capacity {
			best.capacity = s.capacity
		}
	}
	return best
}

func (r *knapsackRelax) Relax(source, dest, merged ksState, d Decision, cost int) int { return cost }

func (r *knapsackRelax) FastUpperBound(s ksState) int {
	ub := 0
	for v := s.depth; v < len(r.problem.profits); v++ {
		if r.problem.weights[v] <= s.capacity {
			ub += r.problem.profits[v]
		}
	}
	return ub
}

// ksRanking prefers states with more remaining capacity.
type ksRanking struct{}

func (ksRanking) Compare(a, b ksState) int { return a.capacity - b.capacity }

// infeasibleProblem has a variable with an empty domain everywhere: no
// assignment can complete, so no feasible solution exists.
type infeasibleProblem struct{}

func (infeasibleProblem) NbVariables() int                         { return 2 }
func (infeasibleProblem) InitialState() int                        { return 0 }
func (infeasibleProblem) InitialValue() int                        { return 0 }
func (infeasibleProblem) Transition(state int, d Decision) int     { return state + 1 }
func (infeasibleProblem) TransitionCost(state int, d Decision) int { return 0 }

func (infeasibleProblem) Domain(v Variable, state int) []int {
	if v == 1 {
		return nil
	}
	return []int{0}
}
func (infeasibleProblem) NextVariable(depth int, next []int) (Variable, bool) {
	if depth >= 2 {
		return 0, false
	}
	return Variable(depth), true
}

// bruteForce enumerates every complete assignment through the Problem
// contract itself and returns the true optimum. It doubles as the replay
// oracle: the best value it finds is exactly the summed transition costs
// of the best assignment.
func bruteForce[T comparable](p Problem[T]) (best int, feasible bool) {
	return bruteForceFrom(p, p.InitialState(), 0, p.InitialValue())
}

// bruteForceFrom enumerates every completion of an arbitrary mid-search
// root, which is what sub-problem bounds must dominate.
func bruteForceFrom[T comparable](p Problem[T], state T, depth, value int) (best int, feasible bool) {
	var rec func(depth int, state T, value int)
	rec = func(depth int, state T, value int) {
		v, ok := p.NextVariable(depth, []T{state})
		if !ok {
			if !feasible || value > best {
				best, feasible = value, true
			}
			return
		}
		for _, val := range p.Domain(v, state) {
			d := Decision{Variable: v, Value: val}
			rec(depth+1, p.Transition(state, d), value+p.TransitionCost(state, d))
		}
	}
	rec(depth, state, value)
	return best, feasible
}

// replay runs an assignment back through the problem's transition system
// and returns the summed cost.
func replay[T comparable](p Problem[T], assignment []Decision) int {
	state := p.InitialState()
	value := p.InitialValue()
	for _, d := range assignment {
		value += p.TransitionCost(state, d)
		state = p.Transition(state, d)
	}
	return value
}
