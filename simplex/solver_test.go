// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplex

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
	glp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/curioloop/linopt/lp"
)

func solve(t *testing.T, p *lp.Problem, strategy lp.Strategy) *Result {
	t.Helper()
	opt := lp.DefaultOptions()
	opt.Strategy = strategy
	res, err := Solve(p, opt, lp.NewLimits(opt), nil)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	return res
}

func TestBoundedOptimal(t *testing.T) {

	// max 2x+3y s.t. x+y ≤ 4, x ≤ 3, 0 ≤ x, 0 ≤ y ≤ 2,
	// minimized with negated costs. Optimum 10 at (2,2).
	p := &lp.Problem{}
	p.AddCols(-2, -3)
	p.SetColBounds(1, 0, 2)
	p.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, 1}, 4)
	p.AddRow(lp.NegInf(), []int{0}, []float64{1}, 3)

	for _, st := range []lp.Strategy{lp.StrategyDual, lp.StrategyPrimal} {
		res := solve(t, p, st)
		if res.Status != lp.Optimal {
			t.Fatalf("strategy %v: status %v", st, res.Status)
		}
		if math.Abs(res.Objective+10) > 1e-8 {
			t.Fatalf("strategy %v: objective %g, want -10", st, res.Objective)
		}
		if math.Abs(res.ColValue[0]-2) > 1e-8 || math.Abs(res.ColValue[1]-2) > 1e-8 {
			t.Fatalf("strategy %v: point %v, want (2,2)", st, res.ColValue)
		}
	}
}

func TestInfeasible(t *testing.T) {

	// min x s.t. x ≥ 1 and x ≤ 0 as rows over a free column.
	p := &lp.Problem{}
	p.AddCols(1)
	p.SetColBounds(0, lp.NegInf(), lp.Inf())
	p.AddRow(1, []int{0}, []float64{1}, lp.Inf())
	p.AddRow(lp.NegInf(), []int{0}, []float64{1}, 0)

	res := solve(t, p, lp.StrategyDual)
	if res.Status != lp.Infeasible {
		t.Fatalf("status %v, want infeasible", res.Status)
	}
}

func TestUnbounded(t *testing.T) {

	// min -x, x ≥ 0, with only a vacuous row.
	p := &lp.Problem{}
	p.AddCols(-1)
	p.AddRow(lp.NegInf(), []int{0}, []float64{-1}, 1)

	res := solve(t, p, lp.StrategyDual)
	if res.Status != lp.Unbounded {
		t.Fatalf("status %v, want unbounded", res.Status)
	}

	// Same without any row at all.
	p2 := &lp.Problem{}
	p2.AddCols(-1)
	res = solve(t, p2, lp.StrategyDual)
	if res.Status != lp.Unbounded {
		t.Fatalf("rowless: status %v, want unbounded", res.Status)
	}
}

func TestDualEqualsPrimal(t *testing.T) {

	build := func() []*lp.Problem {
		p1 := &lp.Problem{}
		p1.AddCols(1, 2, -1)
		for j := 0; j < 3; j++ {
			p1.SetColBounds(j, 0, 10)
		}
		p1.AddRow(2, []int{0, 1, 2}, []float64{1, 1, 1}, 8)
		p1.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, -1}, 3)
		p1.AddRow(1, []int{1, 2}, []float64{1, 1}, lp.Inf())

		p2 := &lp.Problem{}
		p2.AddCols(-1, -1)
		p2.SetColBounds(0, 0, 5)
		p2.SetColBounds(1, 0, 5)
		p2.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, 2}, 8)
		p2.AddRow(lp.NegInf(), []int{0, 1}, []float64{2, 1}, 8)
		return []*lp.Problem{p1, p2}
	}

	for i, p := range build() {
		d := solve(t, p, lp.StrategyDual)
		q := solve(t, p, lp.StrategyPrimal)
		if d.Status != lp.Optimal || q.Status != lp.Optimal {
			t.Fatalf("problem %d: statuses %v/%v", i, d.Status, q.Status)
		}
		if math.Abs(d.Objective-q.Objective) > 1e-6 {
			t.Fatalf("problem %d: dual %g vs primal %g", i, d.Objective, q.Objective)
		}
	}

	// Known optimum of the symmetric problem: x=y=8/3.
	res := solve(t, build()[1], lp.StrategyDual)
	if math.Abs(res.Objective+16.0/3) > 1e-8 {
		t.Fatalf("objective %g, want %g", res.Objective, -16.0/3)
	}
}

func TestBealeCycling(t *testing.T) {

	// Beale's classic cycling example; the optimum is -1/20 at
	// x = (1/25, 0, 1, 0). The degeneracy guards must terminate it
	// within a modest pivot count.
	p := &lp.Problem{}
	p.AddCols(-0.75, 150, -0.02, 6)
	p.AddRow(lp.NegInf(), []int{0, 1, 2, 3}, []float64{0.25, -60, -0.04, 9}, 0)
	p.AddRow(lp.NegInf(), []int{0, 1, 2, 3}, []float64{0.5, -90, -0.02, 3}, 0)
	p.AddRow(lp.NegInf(), []int{2}, []float64{1}, 1)

	for _, st := range []lp.Strategy{lp.StrategyDual, lp.StrategyPrimal} {
		res := solve(t, p, st)
		if res.Status != lp.Optimal {
			t.Fatalf("strategy %v: status %v", st, res.Status)
		}
		if math.Abs(res.Objective+0.05) > 1e-8 {
			t.Fatalf("strategy %v: objective %g, want -0.05", st, res.Objective)
		}
		if res.Iterations > 100 {
			t.Fatalf("strategy %v: %d iterations", st, res.Iterations)
		}
	}
}

func TestWarmStart(t *testing.T) {

	p := &lp.Problem{}
	p.AddCols(-1, -1)
	p.SetColBounds(0, 0, 5)
	p.SetColBounds(1, 0, 5)
	p.AddRow(lp.NegInf(), []int{0, 1}, []float64{1, 2}, 8)
	p.AddRow(lp.NegInf(), []int{0, 1}, []float64{2, 1}, 8)

	opt := lp.DefaultOptions()
	res, err := Solve(p, opt, lp.NewLimits(opt), nil)
	if err != nil || res.Status != lp.Optimal {
		t.Fatalf("cold solve: %v %v", res.Status, err)
	}

	// Relax one row and re-solve from the final basis.
	p.RowUpper[0] = 9
	p.A = nil
	warm, err := Solve(p, opt, lp.NewLimits(opt), res.Basis)
	if err != nil || warm.Status != lp.Optimal {
		t.Fatalf("warm solve: %v %v", warm.Status, err)
	}
	if math.Abs(warm.Objective+17.0/3) > 1e-8 {
		t.Fatalf("warm objective %g, want %g", warm.Objective, -17.0/3)
	}
}

func TestIterationLimit(t *testing.T) {

	p := &lp.Problem{}
	p.AddCols(-1, -1, -1)
	for j := 0; j < 3; j++ {
		p.SetColBounds(j, 0, 10)
	}
	p.AddRow(lp.NegInf(), []int{0, 1, 2}, []float64{1, 1, 1}, 5)

	opt := lp.DefaultOptions()
	opt.IterationLimit = 1
	res, err := Solve(p, opt, lp.NewLimits(opt), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != lp.IterationLimit {
		t.Fatalf("status %v, want iteration limit", res.Status)
	}
}

// TestAgainstGonum cross-checks optimal objectives on random feasible
// bounded standard-form programs against gonum's simplex.
func TestAgainstGonum(t *testing.T) {

	rnd := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		m := 3 + rnd.Intn(3)
		n := m + 2 + rnd.Intn(4)

		a := mat.NewDense(m, n, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				a.Set(i, j, rnd.NormFloat64())
			}
		}
		// b = A·x0 for a strictly positive x0 keeps the program feasible;
		// nonnegative costs over x ≥ 0 keep it bounded.
		x0 := make([]float64, n)
		c := make([]float64, n)
		for j := 0; j < n; j++ {
			x0[j] = 0.1 + rnd.Float64()
			c[j] = rnd.Float64()
		}
		b := make([]float64, m)
		bv := mat.NewVecDense(m, b)
		bv.MulVec(a, mat.NewVecDense(n, x0))

		want, _, err := glp.Simplex(c, a, b, 0, nil)
		if err != nil {
			continue // oracle gave up; nothing to compare
		}

		p := &lp.Problem{}
		p.AddCols(c...)
		for i := 0; i < m; i++ {
			coeffs := make([]float64, n)
			cols := make([]int, n)
			for j := 0; j < n; j++ {
				cols[j] = j
				coeffs[j] = a.At(i, j)
			}
			p.AddRow(b[i], cols, coeffs, b[i])
		}

		res := solve(t, p, lp.StrategyDual)
		if res.Status != lp.Optimal {
			t.Fatalf("trial %d: status %v", trial, res.Status)
		}
		if math.Abs(res.Objective-want) > 1e-6*(1+math.Abs(want)) {
			t.Fatalf("trial %d: objective %g, oracle %g", trial, res.Objective, want)
		}
	}
}
