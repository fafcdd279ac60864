// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linopt

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/linopt/lp"
)

func optWith(presolve bool) *lp.Options {
	o := lp.DefaultOptions()
	o.Presolve = presolve
	return o
}

// boundedLP is max 2x+3y s.t. x+y ≤ 4, x ≤ 3, 0 ≤ x, 0 ≤ y ≤ 2,
// with optimum 10 at (2,2).
func boundedLP() *lp.Problem {
	p := &lp.Problem{Maximize: true}
	p.AddCols(2, 3)
	p.SetColBounds(1, 0, 2)
	p.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, 1}, 4)
	p.AddRow(lp.NegInf(), []int{0}, []float64{1}, 3)
	return p
}

func TestMaximizeLP(t *testing.T) {

	for _, pre := range []bool{true, false} {
		sol, err := SolveWith(boundedLP(), optWith(pre))
		if err != nil {
			t.Fatal(err)
		}
		if sol.Status != lp.Optimal {
			t.Fatalf("presolve %v: status %v", pre, sol.Status)
		}
		if math.Abs(sol.Objective-10) > 1e-8 {
			t.Fatalf("presolve %v: objective %g, want 10", pre, sol.Objective)
		}
		if !floats.EqualApprox(sol.ColValue, []float64{2, 2}, 1e-8) {
			t.Fatalf("presolve %v: point %v, want (2,2)", pre, sol.ColValue)
		}
		// The binding packing row must carry a nonnegative dual in the
		// maximization sense.
		if sol.RowDual[0] < -1e-9 {
			t.Fatalf("presolve %v: row dual %v", pre, sol.RowDual)
		}
	}
}

func TestInfeasibleLP(t *testing.T) {

	// min x s.t. x ≥ 1 and x ≤ 0 over a free variable.
	build := func() *lp.Problem {
		p := &lp.Problem{}
		p.AddCols(1)
		p.SetColBounds(0, lp.NegInf(), lp.Inf())
		p.AddRow(1, []int{0}, []float64{1}, lp.Inf())
		p.AddRow(lp.NegInf(), []int{0}, []float64{1}, 0)
		return p
	}
	for _, pre := range []bool{true, false} {
		sol, err := SolveWith(build(), optWith(pre))
		if err != nil {
			t.Fatal(err)
		}
		if sol.Status != lp.Infeasible {
			t.Fatalf("presolve %v: status %v, want infeasible", pre, sol.Status)
		}
	}
}

func TestUnboundedLP(t *testing.T) {

	p := &lp.Problem{Maximize: true}
	p.AddCols(1)
	sol, err := Solve(p)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != lp.Unbounded {
		t.Fatalf("status %v, want unbounded", sol.Status)
	}
	if sol.HasValues() {
		t.Fatal("unbounded result carries values")
	}
}

func TestMIPRounding(t *testing.T) {

	for _, pre := range []bool{true, false} {
		p := &lp.Problem{Maximize: true}
		p.AddCols(1)
		p.SetColBounds(0, 0, 2.5)
		p.SetInteger(0)

		sol, err := SolveWith(p, optWith(pre))
		if err != nil {
			t.Fatal(err)
		}
		if sol.Status != lp.Optimal {
			t.Fatalf("presolve %v: status %v", pre, sol.Status)
		}
		if math.Abs(sol.Objective-2) > 1e-8 || math.Abs(sol.ColValue[0]-2) > 1e-8 {
			t.Fatalf("presolve %v: objective %g at %v", pre, sol.Objective, sol.ColValue)
		}
	}
}

func TestMIPInfeasibleWithUnboundedRelaxation(t *testing.T) {

	// The relaxation is unbounded in the continuous column, but the
	// integer columns cannot meet the equality: infeasible, not
	// unbounded.
	for _, pre := range []bool{true, false} {
		p := &lp.Problem{}
		p.AddCols(-1, 0, 0)
		p.SetInteger(1)
		p.SetInteger(2)
		p.AddRow(1, []int{1, 2}, []float64{2, 2}, 1)

		sol, err := SolveWith(p, optWith(pre))
		if err != nil {
			t.Fatal(err)
		}
		if sol.Status != lp.Infeasible {
			t.Fatalf("presolve %v: status %v, want infeasible", pre, sol.Status)
		}
	}
}

func TestPresolveRoundTrip(t *testing.T) {

	problems := []func() *lp.Problem{
		boundedLP,
		func() *lp.Problem {
			p := &lp.Problem{}
			p.AddCols(1, 2, -1)
			for j := 0; j < 3; j++ {
				p.SetColBounds(j, 0, 10)
			}
			p.AddRow(2, []int{0, 1, 2}, []float64{1, 1, 1}, 8)
			p.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, -1}, 3)
			p.AddRow(1, []int{1, 2}, []float64{1, 1}, lp.Inf())
			return p
		},
		func() *lp.Problem {
			// Fixed column, duplicate rows and a singleton row at once.
			p := &lp.Problem{}
			p.AddCols(3, 1, 2)
			p.SetColBounds(0, 1, 1)
			p.SetColBounds(1, 0, 6)
			p.SetColBounds(2, 0, 6)
			p.AddRow(2, []int{0, 1, 2}, []float64{1, 1, 1}, 5)
			p.AddRow(4, []int{0, 1, 2}, []float64{2, 2, 2}, 10)
			p.AddRow(lp.NegInf(), []int{1}, []float64{1}, 4)
			return p
		},
	}

	for i, build := range problems {
		on, err := SolveWith(build(), optWith(true))
		if err != nil {
			t.Fatalf("problem %d: %v", i, err)
		}
		off, err := SolveWith(build(), optWith(false))
		if err != nil {
			t.Fatalf("problem %d: %v", i, err)
		}
		if on.Status != off.Status {
			t.Fatalf("problem %d: status %v vs %v", i, on.Status, off.Status)
		}
		if math.Abs(on.Objective-off.Objective) > 1e-6*(1+math.Abs(off.Objective)) {
			t.Fatalf("problem %d: objective %g vs %g", i, on.Objective, off.Objective)
		}
		f := on.Check(build())
		if f.MaxBoundViolation > 1e-6 || f.MaxRowViolation > 1e-6 {
			t.Fatalf("problem %d: postsolved point violates by %v", i, f)
		}
	}
}

func TestComplementarySlackness(t *testing.T) {

	p := boundedLP()
	sol, err := Solve(p)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != lp.Optimal {
		t.Fatalf("status %v", sol.Status)
	}

	const tol = 1e-6
	for j, x := range sol.ColValue {
		interior := x > p.ColLower[j]+tol && x < p.ColUpper[j]-tol
		if interior && math.Abs(sol.ColDual[j]) > tol {
			t.Fatalf("column %d interior with reduced cost %g", j, sol.ColDual[j])
		}
	}
	for i, v := range sol.RowValue {
		interior := v > p.RowLower[i]+tol && v < p.RowUpper[i]-tol
		if interior && math.Abs(sol.RowDual[i]) > tol {
			t.Fatalf("row %d slack with dual %g", i, sol.RowDual[i])
		}
	}

	// Strong duality at the optimum: the dual objective matches.
	dual := 0.0
	for i, y := range sol.RowDual {
		if y > 0 {
			dual += y * p.RowUpper[i]
		} else if y < 0 {
			dual += y * p.RowLower[i]
		}
	}
	for j, d := range sol.ColDual {
		if d > 0 {
			dual += d * p.ColUpper[j]
		} else if d < 0 {
			dual += d * p.ColLower[j]
		}
	}
	if math.Abs(dual-sol.Objective) > 1e-6 {
		t.Fatalf("dual objective %g vs primal %g", dual, sol.Objective)
	}
}

func TestValidateRejects(t *testing.T) {

	p := &lp.Problem{}
	p.AddCols(1)
	p.SetColBounds(0, 2, 1) // crossed
	if _, err := Solve(p); err == nil {
		t.Fatal("crossed bounds accepted")
	}
}

func TestTimeLimit(t *testing.T) {

	opt := lp.DefaultOptions()
	opt.TimeLimit = time.Nanosecond
	sol, err := SolveWith(boundedLP(), opt)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Status != lp.TimeLimit {
		t.Fatalf("status %v, want time limit", sol.Status)
	}
}
