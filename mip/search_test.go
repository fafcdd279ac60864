// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mip

import (
	"math"
	"testing"

	"github.com/curioloop/linopt/lp"
)

func solve(t *testing.T, p *lp.Problem, opt *lp.Options) *Result {
	t.Helper()
	res, err := Solve(p, opt, lp.NewLimits(opt))
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	return res
}

func TestRoundsByBounding(t *testing.T) {

	// max x, x ≤ 2.5, x integer, minimized with a negated cost. The
	// relaxation lands on 2.5 and the bounding step must settle on 2,
	// not truncate.
	p := &lp.Problem{}
	p.AddCols(-1)
	p.SetColBounds(0, 0, 2.5)
	p.SetInteger(0)

	res := solve(t, p, lp.DefaultOptions())
	if res.Status != lp.Optimal {
		t.Fatalf("status %v", res.Status)
	}
	if math.Abs(res.Objective+2) > 1e-8 || math.Abs(res.LP.ColValue[0]-2) > 1e-8 {
		t.Fatalf("objective %g at %v, want -2 at 2", res.Objective, res.LP.ColValue)
	}
}

func knapsack() *lp.Problem {
	// max 5a+4b+3c s.t. 2a+3b+c ≤ 5, binary. Optimum 9 at (1,1,0).
	p := &lp.Problem{}
	p.AddCols(-5, -4, -3)
	for j := 0; j < 3; j++ {
		p.SetColBounds(j, 0, 1)
		p.SetInteger(j)
	}
	p.AddRow(lp.NegInf(), []int{0, 1, 2}, []float64{2, 3, 1}, 5)
	return p
}

func TestKnapsack(t *testing.T) {

	res := solve(t, knapsack(), lp.DefaultOptions())
	if res.Status != lp.Optimal {
		t.Fatalf("status %v", res.Status)
	}
	if math.Abs(res.Objective+9) > 1e-8 {
		t.Fatalf("objective %g, want -9", res.Objective)
	}
	for j, x := range res.LP.ColValue {
		if math.Abs(x-math.Round(x)) > 1e-9 {
			t.Fatalf("column %d fractional: %g", j, x)
		}
	}
	if res.Gap != 0 {
		t.Fatalf("gap %g on a proven optimum", res.Gap)
	}
}

func TestIntegralityInfeasible(t *testing.T) {

	// The only integers near [0.4, 0.6] are cut off by both branches.
	p := &lp.Problem{}
	p.AddCols(1)
	p.SetColBounds(0, 0.4, 0.6)
	p.SetInteger(0)

	res := solve(t, p, lp.DefaultOptions())
	if res.Status != lp.Infeasible {
		t.Fatalf("status %v, want infeasible", res.Status)
	}
}

func TestUnboundedRelaxationInfeasible(t *testing.T) {

	// min -x s.t. 2y+2z = 1 with y,z integer: every relaxation is
	// unbounded in x, yet no integer point satisfies the row. The
	// search must branch through the fractional relaxations and prove
	// infeasibility instead of reporting the ray.
	p := &lp.Problem{}
	p.AddCols(-1, 0, 0)
	p.SetInteger(1)
	p.SetInteger(2)
	p.AddRow(1, []int{1, 2}, []float64{2, 2}, 1)

	res := solve(t, p, lp.DefaultOptions())
	if res.Status != lp.Infeasible {
		t.Fatalf("status %v, want infeasible", res.Status)
	}
}

func TestUnboundedWithIntegerPoint(t *testing.T) {

	// Same shape with an attainable integer point (y = 1): once one is
	// in hand, the unbounded relaxation ray carries over to the
	// integer program.
	p := &lp.Problem{}
	p.AddCols(-1, 0)
	p.SetColBounds(1, 0, 3)
	p.SetInteger(1)
	p.AddRow(1, []int{1}, []float64{2}, lp.Inf())

	res := solve(t, p, lp.DefaultOptions())
	if res.Status != lp.Unbounded {
		t.Fatalf("status %v, want unbounded", res.Status)
	}
}

func TestNodeLimit(t *testing.T) {

	opt := lp.DefaultOptions()
	opt.NodeLimit = 1
	res := solve(t, knapsack(), opt)
	if res.Status != lp.NodeLimit {
		t.Fatalf("status %v, want node limit", res.Status)
	}
	if res.Nodes > 2 {
		t.Fatalf("explored %d nodes under a limit of 1", res.Nodes)
	}
}
