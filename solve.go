// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linopt solves linear and mixed-integer linear programs with
// a revised simplex engine: presolve reductions, a dual simplex method
// with a primal fallback over an incrementally updated sparse LU
// factorization, and best-first branch-and-bound for integrality.
package linopt

import (
	"github.com/curioloop/linopt/lp"
	"github.com/curioloop/linopt/mip"
	"github.com/curioloop/linopt/presolve"
	"github.com/curioloop/linopt/simplex"
)

// Solve solves the problem with default options.
func Solve(p *lp.Problem) (*lp.Solution, error) {
	return SolveWith(p, lp.DefaultOptions())
}

// SolveWith solves the problem under the given options. The problem
// and options are not mutated; all work happens on internal copies.
// Proven infeasibility and unboundedness come back as statuses, not
// errors; an error means the input was malformed or the engine failed
// numerically.
func SolveWith(p *lp.Problem, opt *lp.Options) (*lp.Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := *opt
	o.Normalize()
	lim := lp.NewLimits(&o)

	// The engine minimizes. A maximization problem is solved with
	// negated costs and its duals and objective restored at the end.
	work := p
	if p.Maximize {
		work = p.Clone()
		work.Maximize = false
		work.Offset = -work.Offset
		for j := range work.Cost {
			work.Cost[j] = -work.Cost[j]
		}
	}

	var red *presolve.Reduced
	if o.Presolve {
		red = presolve.Reduce(work, &o)
		if red.Status == lp.Infeasible {
			return &lp.Solution{Status: lp.Infeasible}, nil
		}
		work = red.Problem
	}

	sol := &lp.Solution{}
	var lpRes *simplex.Result
	if work.HasIntegers() {
		res, err := mip.Solve(work, &o, lim)
		if err != nil {
			return nil, err
		}
		sol.Status = res.Status
		sol.Gap = res.Gap
		lpRes = res.LP
	} else {
		res, err := simplex.Solve(work, &o, lim, nil)
		if err != nil {
			return nil, err
		}
		sol.Status = res.Status
		if res.Status == lp.Optimal || !res.Status.Proven() {
			lpRes = res
		}
	}
	sol.Iterations = lim.Iterations
	sol.Nodes = lim.Nodes

	if lpRes == nil {
		return sol, nil
	}

	x, d, y := lpRes.ColValue, lpRes.ColDual, lpRes.RowDual
	if red != nil {
		var err error
		x, d, y, err = red.Postsolve(x, d, y)
		// An audit failure on a proven-optimal point is an engine
		// defect; on a limit-status iterate it is expected slack.
		if err != nil && sol.Status == lp.Optimal {
			return nil, err
		}
	}

	sol.ColValue, sol.ColDual, sol.RowDual = x, d, y
	sol.RowValue = make([]float64, p.NumRow)
	a := p.Matrix()
	for j := 0; j < p.NumCol; j++ {
		a.ColAxpy(j, x[j], sol.RowValue)
	}
	sol.Objective = p.Offset
	for j := 0; j < p.NumCol; j++ {
		sol.Objective += p.Cost[j] * x[j]
	}
	if p.Maximize {
		for j := range sol.ColDual {
			sol.ColDual[j] = -sol.ColDual[j]
		}
		for i := range sol.RowDual {
			sol.RowDual[i] = -sol.RowDual[i]
		}
	}

	if o.Log.Enabled(lp.LogSummary) {
		f := sol.Check(p)
		o.Log.Printf(lp.LogSummary, "solve %s obj %.8g viol bound %.3g row %.3g int %.3g\n",
			sol.Status, sol.Objective, f.MaxBoundViolation, f.MaxRowViolation, f.MaxIntegerViolation)
	}
	return sol, nil
}
