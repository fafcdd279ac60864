// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mip wraps the LP solvers in a branch-and-bound tree search
// over the integer-constrained columns.
package mip

import (
	"container/heap"
	"math"

	"github.com/curioloop/linopt/lp"
	"github.com/curioloop/linopt/simplex"
)

// node is one subproblem: a single bound tightening relative to its
// parent, plus the parent's final basis for warm-starting. Nodes live
// in an arena and refer to each other by index, so pruning a subtree
// is dropping handles, never a traversal.
type node struct {
	parent int
	col    int     // branched column, -1 at the root
	lower  float64 // tightened bounds for col
	upper  float64
	bound  float64 // parent relaxation objective
	basis  *simplex.Basis
}

// frontier is a best-first heap over node handles: lowest relaxation
// bound first, lowest handle on ties for determinism.
type frontier struct {
	ids   []int
	nodes *[]node
}

func (f *frontier) Len() int { return len(f.ids) }
func (f *frontier) Less(a, b int) bool {
	na, nb := (*f.nodes)[f.ids[a]], (*f.nodes)[f.ids[b]]
	if na.bound != nb.bound {
		return na.bound < nb.bound
	}
	return f.ids[a] < f.ids[b]
}
func (f *frontier) Swap(a, b int) { f.ids[a], f.ids[b] = f.ids[b], f.ids[a] }
func (f *frontier) Push(x any)    { f.ids = append(f.ids, x.(int)) }
func (f *frontier) Pop() any {
	n := len(f.ids) - 1
	id := f.ids[n]
	f.ids = f.ids[:n]
	return id
}

// Result is the outcome of a branch-and-bound search.
type Result struct {
	Status lp.Status

	// LP holds the incumbent's LP solution, when an incumbent exists.
	LP *simplex.Result

	Objective float64
	// Gap is |incumbent − best frontier bound| / max(1, |incumbent|);
	// zero when optimality is proven.
	Gap   float64
	Nodes int
}

// Solve explores the branch-and-bound tree of a minimization problem
// with integrality flags. LP relaxations are warm-started from the
// parent's basis; nodes are pruned on infeasibility, on the incumbent
// bound, or on integral relaxation solutions.
func Solve(p *lp.Problem, opt *lp.Options, lim *lp.Limits) (*Result, error) {
	p.Matrix() // assemble once; node copies share it

	nodes := []node{{parent: -1, col: -1, bound: math.Inf(-1)}}
	f := &frontier{nodes: &nodes}
	heap.Push(f, 0)

	var incumbent *simplex.Result
	incObj := math.Inf(1)

	lower := make([]float64, p.NumCol)
	upper := make([]float64, p.NumCol)

	finish := func(status lp.Status) *Result {
		r := &Result{Status: status, LP: incumbent, Nodes: lim.Nodes}
		if incumbent != nil {
			r.Objective = incObj
			if status != lp.Optimal && f.Len() > 0 {
				best := nodes[f.ids[0]].bound
				r.Gap = math.Abs(incObj-best) / math.Max(1, math.Abs(incObj))
			}
		}
		return r
	}

	for f.Len() > 0 {
		if lim.TimedOut() {
			return finish(lp.TimeLimit), nil
		}
		if lim.NextNode() {
			return finish(lp.NodeLimit), nil
		}

		id := heap.Pop(f).(int)
		nd := &nodes[id]

		cutoff := math.Inf(1)
		if incumbent != nil {
			cutoff = incObj - 1e-9*(1+math.Abs(incObj))
		}
		if nd.bound >= cutoff {
			// Best-first order: every remaining bound is no better.
			return finish(lp.Optimal), nil
		}

		// Materialize the node's bounds by replaying its ancestry.
		copy(lower, p.ColLower)
		copy(upper, p.ColUpper)
		seen := make(map[int]bool)
		for at := id; at >= 0; at = nodes[at].parent {
			if c := nodes[at].col; c >= 0 && !seen[c] {
				// Nearer tightenings shadow ancestral ones.
				seen[c] = true
				lower[c] = math.Max(lower[c], nodes[at].lower)
				upper[c] = math.Min(upper[c], nodes[at].upper)
			}
		}

		sub := *p
		sub.ColLower, sub.ColUpper = lower, upper
		res, err := simplex.Solve(&sub, opt, lim, nd.basis)
		if err != nil {
			return nil, err
		}
		unbounded := false
		switch res.Status {
		case lp.Infeasible:
			continue
		case lp.Unbounded:
			// An unbounded relaxation proves nothing on its own: the
			// subtree may hold no integer point at all. The iterate is
			// primal feasible, so branch on its fractional columns and
			// declare only once an integral point certifies the ray.
			unbounded = true
		case lp.TimeLimit, lp.IterationLimit:
			st := lp.TimeLimit
			if res.Status == lp.IterationLimit {
				st = lp.IterationLimit
			}
			return finish(st), nil
		}
		if !unbounded && res.Objective >= cutoff {
			continue
		}

		// Select the most fractional integer column; lowest index on
		// ties. An integral relaxation becomes the new incumbent.
		branch := -1
		bestFrac := opt.IntegerTol
		for j := 0; j < p.NumCol; j++ {
			if p.Integrality == nil || !p.Integrality[j] {
				continue
			}
			x := res.ColValue[j]
			if frac := math.Min(x-math.Floor(x), math.Ceil(x)-x); frac > bestFrac {
				bestFrac = frac
				branch = j
			}
		}
		if branch < 0 {
			if unbounded {
				// Integer-feasible point plus an unbounded relaxation:
				// the integer program itself is unbounded.
				return finish(lp.Unbounded), nil
			}
			for j := 0; j < p.NumCol; j++ {
				if p.Integrality != nil && p.Integrality[j] {
					res.ColValue[j] = math.Round(res.ColValue[j])
				}
			}
			incumbent = res
			incObj = res.Objective
			opt.Log.Printf(lp.LogIteration, "mip node %d new incumbent %.8g\n", lim.Nodes, incObj)
			continue
		}

		childBound := res.Objective
		if unbounded {
			childBound = math.Inf(-1)
		}
		x := res.ColValue[branch]
		down, up := math.Floor(x), math.Ceil(x)
		if down >= lower[branch]-opt.IntegerTol {
			nodes = append(nodes, node{
				parent: id, col: branch,
				lower: lower[branch], upper: down,
				bound: childBound, basis: res.Basis,
			})
			heap.Push(f, len(nodes)-1)
		}
		if up <= upper[branch]+opt.IntegerTol {
			nodes = append(nodes, node{
				parent: id, col: branch,
				lower: up, upper: upper[branch],
				bound: childBound, basis: res.Basis,
			})
			heap.Push(f, len(nodes)-1)
		}
	}

	if incumbent == nil {
		return finish(lp.Infeasible), nil
	}
	return finish(lp.Optimal), nil
}
