package diadem

import (
	"math"
	"sort"
)

// compilationType selects what a diagram compilation produces: a feasible
// solution (restricted) or a valid upper bound plus a cutset (relaxed).
type compilationType int

const (
	restricted compilationType = iota
	relaxed
)

// arc is one labeled edge of a diagram: the decision d taken from node
// from, at the (possibly relaxed) cost recorded when the arc was laid down.
type arc[T comparable] struct {
	from *node[T]
	d    Decision
	cost int
}

// node is one state of one diagram layer. Within a layer node states are
// pairwise distinct. value is the best objective accumulated from the
// problem root (not the diagram root) over all incoming paths, and best is
// the arc achieving it. A node is inexact when it results from a merge or
// when any incoming arc originates from an inexact node; the value of an
// exact node is the true best-path value to its state.
type node[T comparable] struct {
	state    T
	depth    int
	value    int
	best     *arc[T]
	arcs     []arc[T]
	inexact  bool
	inCutset bool

	// suffix is the best value attainable from this node down to the
	// terminal layer, computed bottom-up once a relaxed diagram is
	// complete. math.MinInt marks a node with no surviving completion.
	suffix int
}

// compileInput bundles what one diagram compilation needs. root is the
// sub-problem the diagram explores; its Value and Path seed the diagram
// root so node values and reconstructed solutions are global, not local.
type compileInput[T comparable] struct {
	compType compilationType
	cutset   CutsetPolicy
	problem  Problem[T]
	relax    Relaxation[T]
	ranking  StateRanking[T]
	width    WidthHeuristic
	root     *SubProblem[T]
}

// compileOutput is what one compilation yields. For a restricted diagram
// bestValue/bestNode describe the best feasible completion found (a lower
// bound for the sub-problem); for a relaxed diagram they describe the best
// terminal path, feasible only if that path is exact, and localBound is a
// valid upper bound for the sub-problem. cutset holds the unexplored
// sub-problems a relaxed compilation spawns; it is empty when the diagram
// is exact.
type compileOutput[T comparable] struct {
	exact      bool
	feasible   bool
	bestValue  int
	bestNode   *node[T]
	bestExact  *node[T]
	localBound int
	cutset     []*SubProblem[T]
}

// compile builds one layered diagram from the root sub-problem, variable
// by variable, narrowing every layer that exceeds its width budget:
// dropping the lowest-ranked excess nodes in restricted mode, merging them
// through the relaxation in relaxed mode.
func compile[T comparable](in compileInput[T]) compileOutput[T] {
	pb := in.problem
	nbVars := pb.NbVariables()

	root := &node[T]{state: in.root.State, depth: in.root.Depth, value: in.root.Value}
	layer := []*node[T]{root}
	lel := layer
	exact := true
	terminal := false
	var frontier []*node[T]

	// Relaxed compilations keep every layer alive so that per-node local
	// bounds can be computed bottom-up once the diagram is complete.
	var layers [][]*node[T]
	if in.compType == relaxed {
		layers = append(layers, layer)
	}

	depth := in.root.Depth
	for {
		states := make([]T, len(layer))
		for i, n := range layer {
			states[i] = n.state
		}
		v, ok := pb.NextVariable(depth, states)
		if !ok {
			terminal = true
			break
		}

		// The index only deduplicates; the slice keeps insertion order so
		// compilations are reproducible.
		index := make(map[T]*node[T])
		var next []*node[T]
		for _, n := range layer {
			for _, val := range pb.Domain(v, n.state) {
				d := Decision{Variable: v, Value: val}
				cost := pb.TransitionCost(n.state, d)
				succ := pb.Transition(n.state, d)
				value := n.value + cost

				child, seen := index[succ]
				if !seen {
					child = &node[T]{state: succ, depth: depth + 1, value: value}
					index[succ] = child
					next = append(next, child)
				}
				child.arcs = append(child.arcs, arc[T]{from: n, d: d, cost: cost})
				if !seen || value > child.value {
					child.value = value
					child.best = &child.arcs[len(child.arcs)-1]
				}
				if n.inexact {
					child.inexact = true
				}
			}
		}
		if len(next) == 0 {
			// Every branch died on an empty domain.
			break
		}

		layer = next
		depth++

		w := in.width.MaxWidth(nbVars - depth)
		if w < 1 {
			w = 1
		}
		if len(layer) > w {
			if in.compType == restricted {
				sortByRank(layer, in.ranking)
				layer = layer[:w]
				exact = false
			} else if depth > in.root.Depth+1 {
				// The first layer below the root is never merged, so a
				// last exact layer deeper than the root always exists and
				// every spawned sub-problem makes strict progress.
				sortByRank(layer, in.ranking)
				layer = mergeExcess(layer, w, in.relax)
				exact = false
			}
		}
		if in.compType == relaxed {
			layers = append(layers, layer)
		}

		allExact := true
		for _, n := range layer {
			if n.inexact {
				allExact = false
				break
			}
		}
		if allExact {
			lel = layer
		} else if in.compType == relaxed && in.cutset == Frontier {
			// The frontier grows wherever exact information ends: every
			// exact node with an arc into an inexact node.
			for _, n := range layer {
				if !n.inexact {
					continue
				}
				for i := range n.arcs {
					p := n.arcs[i].from
					if !p.inexact && !p.inCutset {
						p.inCutset = true
						frontier = append(frontier, p)
					}
				}
			}
		}
	}

	out := compileOutput[T]{exact: exact}
	if !terminal {
		// No feasible completion exists below the root: the relaxed
		// diagram over-approximates the reachable space, so an empty one
		// proves the sub-problem infeasible.
		return out
	}

	for _, n := range layer {
		if out.bestNode == nil || n.value > out.bestNode.value {
			out.bestNode = n
		}
		if !n.inexact && (out.bestExact == nil || n.value > out.bestExact.value) {
			out.bestExact = n
		}
	}
	out.bestValue = out.bestNode.value
	out.localBound = out.bestValue
	if in.compType == restricted || out.bestNode == out.bestExact {
		out.feasible = true
	}

	if in.compType == relaxed && !exact {
		var nodes []*node[T]
		if in.cutset == Frontier {
			nodes = frontier
		} else {
			nodes = lel
		}
		suffixBounds(layers)
		bound := out.localBound
		if in.root.UpperBound < bound {
			bound = in.root.UpperBound
		}
		out.cutset = make([]*SubProblem[T], 0, len(nodes))
		for _, n := range nodes {
			if n.suffix == math.MinInt {
				// No completion survives below this node, even relaxed:
				// the sub-problem is infeasible and spawning it would
				// only burn an iteration.
				continue
			}
			nb := bound
			if local := n.value + n.suffix; local < nb {
				nb = local
			}
			out.cutset = append(out.cutset, cutsetSubProblem(in, n, nb))
		}
	}
	return out
}

// suffixBounds runs the bottom-up local-bound pass over a completed
// relaxed diagram: each node's suffix becomes the best value from it to
// the terminal layer. For an exact node, value+suffix then bounds every
// true completion through it at least as tightly as the diagram-wide
// bound does.
func suffixBounds[T comparable](layers [][]*node[T]) {
	for _, l := range layers {
		for _, n := range l {
			n.suffix = math.MinInt
		}
	}
	for _, n := range layers[len(layers)-1] {
		n.suffix = 0
	}
	for i := len(layers) - 1; i >= 1; i-- {
		for _, n := range layers[i] {
			if n.suffix == math.MinInt {
				continue
			}
			for j := range n.arcs {
				a := &n.arcs[j]
				if s := a.cost + n.suffix; s > a.from.suffix {
					a.from.suffix = s
				}
			}
		}
	}
}

// sortByRank orders nodes from most to least promising: state ranking
// first, accumulated value as tie-break. The nodes beyond the width budget
// after this sort are the ones sacrificed.
func sortByRank[T comparable](layer []*node[T], ranking StateRanking[T]) {
	sort.SliceStable(layer, func(i, j int) bool {
		if c := ranking.Compare(layer[i].state, layer[j].state); c != 0 {
			return c > 0
		}
		return layer[i].value > layer[j].value
	})
}

// mergeExcess narrows a sorted layer to width w by merging the excess
// nodes into a single relaxed node. Each absorbed arc's cost is replaced
// by the relaxation's adjusted cost. The merged node joins an existing
// node when the merged state collides with a kept state.
func mergeExcess[T comparable](layer []*node[T], w int, relax Relaxation[T]) []*node[T] {
	keep, excess := layer[:w-1], layer[w-1:]

	states := make([]T, len(excess))
	for i, n := range excess {
		states[i] = n.state
	}
	merged := relax.Merge(states)

	var target *node[T]
	for _, n := range keep {
		if n.state == merged {
			target = n
			break
		}
	}
	fresh := target == nil
	if fresh {
		target = &node[T]{state: merged, depth: excess[0].depth}
	}
	target.inexact = true

	for _, victim := range excess {
		for i := range victim.arcs {
			a := victim.arcs[i]
			cost := relax.Relax(a.from.state, victim.state, merged, a.d, a.cost)
			value := a.from.value + cost
			target.arcs = append(target.arcs, arc[T]{from: a.from, d: a.d, cost: cost})
			if target.best == nil || value > target.value {
				target.value = value
				target.best = &target.arcs[len(target.arcs)-1]
			}
		}
	}

	if fresh {
		return append(keep, target)
	}
	return keep
}

// cutsetSubProblem turns an exact diagram node into a pending sub-problem.
// bound already folds the inherited bound, the diagram's local bound and
// the node's suffix bound; the relaxation's fast bound tightens it once
// more. Bounds only ever tighten as the search descends.
func cutsetSubProblem[T comparable](in compileInput[T], n *node[T], bound int) *SubProblem[T] {
	ub := bound
	if fub := in.relax.FastUpperBound(n.state); fub != NoUpperBound {
		if rough := n.value + fub; rough < ub {
			ub = rough
		}
	}
	return &SubProblem[T]{
		State:      n.state,
		Value:      n.value,
		UpperBound: ub,
		Path:       pathTo(in.root.Path, n),
		Depth:      n.depth,
	}
}

// pathTo reconstructs the decisions leading to n by walking its best-arc
// chain back to the diagram root, then prepends the root sub-problem's own
// path. For an exact node the best-arc chain is the true optimal path to
// its state.
func pathTo[T comparable](prefix []Decision, n *node[T]) []Decision {
	var suffix []Decision
	for a := n.best; a != nil; a = a.from.best {
		suffix = append(suffix, a.d)
	}
	path := make([]Decision, 0, len(prefix)+len(suffix))
	path = append(path, prefix...)
	for i := len(suffix) - 1; i >= 0; i-- {
		path = append(path, suffix[i])
	}
	return path
}
