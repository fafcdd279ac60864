// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplex

import (
	"errors"
	"math"

	"github.com/curioloop/linopt/lp"
	"github.com/curioloop/linopt/lu"
	"github.com/curioloop/linopt/sparse"
)

// ErrNumerical reports that the crash/restart policy exhausted its
// retries without restoring a workable basis.
var ErrNumerical = errors.New("simplex: numerical failure after restarts")

const (
	// dseMin floors the steepest-edge reference weights.
	dseMin = 1e-4
	// degenStep is the pivot step below which an iteration counts as
	// degenerate for the cycling guard.
	degenStep = 1e-12
	// maxCrashes bounds slack-basis restarts per solve.
	maxCrashes = 3
)

// Result is the outcome of one LP solve on the given problem.
type Result struct {
	Status lp.Status

	ColValue []float64
	ColDual  []float64
	RowValue []float64
	RowDual  []float64

	Objective  float64
	Iterations int

	// Basis is the final snapshot, suitable for warm-starting a
	// related problem. Nil unless the solve reached a basis at all.
	Basis *Basis
}

// solver owns the Basis and Factorization for the duration of one
// solve. Nothing here is shared across invocations.
type solver struct {
	p   *lp.Problem
	opt *lp.Options
	lim *lp.Limits

	n, m, total int
	a           *sparse.Matrix

	// Augmented arrays over structural then logical variables.
	cost, lower, upper []float64

	status   []VarStatus
	basicIdx []int

	x []float64 // primal values of all variables
	d []float64 // reduced costs, zero on basics
	y []float64 // row duals from the last computeDuals

	dse []float64 // dual steepest-edge weights per basis position

	f       *lu.Factor
	crashes int

	// dense scratch, length m
	rho, tau, colv, rhs []float64
}

// Solve runs the configured simplex strategy on a minimization
// problem, warm-starting from warm when it is a valid snapshot.
func Solve(p *lp.Problem, opt *lp.Options, lim *lp.Limits, warm *Basis) (*Result, error) {
	n, m := p.NumCol, p.NumRow
	s := &solver{
		p: p, opt: opt, lim: lim,
		n: n, m: m, total: n + m,
		a:    p.Matrix(),
		cost: make([]float64, n+m),
		lower: append(append(make([]float64, 0, n+m), p.ColLower...), p.RowLower...),
		upper: append(append(make([]float64, 0, n+m), p.ColUpper...), p.RowUpper...),
		x:    make([]float64, n+m),
		d:    make([]float64, n+m),
		y:    make([]float64, m),
		dse:  make([]float64, m),
		rho:  make([]float64, m),
		tau:  make([]float64, m),
		colv: make([]float64, m),
		rhs:  make([]float64, m),
		f:    lu.New(m, opt.PivotTol),
	}
	copy(s.cost, p.Cost)

	s.initBasis(warm)
	if err := s.factorize(); err != nil {
		s.crashSlack()
	}

	var status lp.Status
	var err error
	if opt.Strategy == lp.StrategyPrimal {
		status, err = s.runPrimal()
	} else {
		needPrimal := false
		status, needPrimal = s.runDual()
		if needPrimal {
			opt.Log.Printf(lp.LogSummary, "dual simplex handed off to primal\n")
			status, err = s.runPrimal()
		}
	}
	if err != nil {
		return nil, err
	}
	return s.result(status), nil
}

// augColAxpy accumulates x += alpha·column(j) of the augmented
// [A | −I] matrix into a dense row-space target.
func (s *solver) augColAxpy(j int, alpha float64, x []float64) {
	if j < s.n {
		s.a.ColAxpy(j, alpha, x)
	} else {
		x[j-s.n] -= alpha
	}
}

// augColDot computes column(j)·y over the augmented matrix.
func (s *solver) augColDot(j int, y []float64) float64 {
	if j < s.n {
		return s.a.ColDot(j, y)
	}
	return -y[j-s.n]
}

// boxed reports whether variable j has two finite bounds.
func (s *solver) boxed(j int) bool {
	return !math.IsInf(s.lower[j], -1) && !math.IsInf(s.upper[j], 1)
}

// fixed reports whether variable j is pinned by equal bounds.
func (s *solver) fixed(j int) bool { return s.lower[j] == s.upper[j] }

// initBasis adopts a warm snapshot when valid, otherwise builds the
// slack basis: every logical basic, every structural at its natural
// bound (lower when finite, else upper, else free at zero).
func (s *solver) initBasis(warm *Basis) {
	if warm.valid(s.total, s.m) {
		s.status = append([]VarStatus(nil), warm.Status...)
		s.basicIdx = s.basicIdx[:0]
		for j, st := range s.status {
			switch st {
			case Basic:
				s.basicIdx = append(s.basicIdx, j)
			default:
				s.placeNonbasic(j)
			}
		}
		s.resetWeights()
		return
	}
	s.slackBasis()
}

func (s *solver) slackBasis() {
	s.status = make([]VarStatus, s.total)
	s.basicIdx = s.basicIdx[:0]
	for j := 0; j < s.n; j++ {
		s.placeNonbasic(j)
	}
	for i := 0; i < s.m; i++ {
		s.status[s.n+i] = Basic
		s.basicIdx = append(s.basicIdx, s.n+i)
	}
	s.resetWeights()
}

// placeNonbasic assigns a nonbasic status consistent with the bounds
// of variable j and sets its primal value.
func (s *solver) placeNonbasic(j int) {
	st := s.status[j]
	switch {
	case st == NonbasicUpper && !math.IsInf(s.upper[j], 1):
	case st == NonbasicFree && math.IsInf(s.lower[j], -1) && math.IsInf(s.upper[j], 1):
	case !math.IsInf(s.lower[j], -1):
		st = NonbasicLower
	case !math.IsInf(s.upper[j], 1):
		st = NonbasicUpper
	default:
		st = NonbasicFree
	}
	s.status[j] = st
	switch st {
	case NonbasicLower:
		s.x[j] = s.lower[j]
	case NonbasicUpper:
		s.x[j] = s.upper[j]
	default:
		s.x[j] = 0
	}
}

func (s *solver) resetWeights() {
	for i := range s.dse {
		s.dse[i] = 1
	}
}

// factorize rebuilds the LU factors from the current basis columns.
func (s *solver) factorize() error {
	cols := make([]lu.Column, s.m)
	for k, j := range s.basicIdx {
		if j < s.n {
			idx, val := s.a.Col(j)
			cols[k] = lu.Column{Index: idx, Value: val}
		} else {
			cols[k] = lu.Column{Index: []int{j - s.n}, Value: []float64{-1}}
		}
	}
	return s.f.Factorize(cols)
}

// crashSlack is the recovery policy for a singular basis or a cycling
// guard: rebuild a fresh slack basis and restart. The slack basis is
// ±identity, so its factorization cannot fail.
func (s *solver) crashSlack() {
	s.crashes++
	s.slackBasis()
	if err := s.factorize(); err != nil {
		panic("simplex: slack basis factorization failed")
	}
}

// refactorIfNeeded performs the periodic full refactorization demanded
// by the engine and reports whether the basis survived it.
func (s *solver) refactorIfNeeded() bool {
	if !s.f.NeedRefactor() {
		return true
	}
	if err := s.factorize(); err != nil {
		s.crashSlack()
		return false
	}
	return true
}

// computeBasics solves for the primal values of the basic variables
// from the nonbasic values: B·x_B = −N·x_N.
func (s *solver) computeBasics() {
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	for j := 0; j < s.total; j++ {
		if s.status[j] != Basic && s.x[j] != 0 {
			s.augColAxpy(j, -s.x[j], s.rhs)
		}
	}
	s.f.Ftran(s.rhs)
	for k, j := range s.basicIdx {
		s.x[j] = s.rhs[k]
	}
}

// computeDuals computes the row duals y = B⁻ᵀ·c_B and the reduced
// costs of all nonbasic variables against the given cost vector.
func (s *solver) computeDuals(cost []float64) {
	for k, j := range s.basicIdx {
		s.y[k] = cost[j]
	}
	for k := len(s.basicIdx); k < s.m; k++ {
		s.y[k] = 0
	}
	s.f.Btran(s.y)
	for j := 0; j < s.total; j++ {
		if s.status[j] == Basic {
			s.d[j] = 0
		} else {
			s.d[j] = cost[j] - s.augColDot(j, s.y)
		}
	}
}

// objective evaluates the true objective at the current point.
func (s *solver) objective() float64 {
	obj := s.p.Offset
	for j := 0; j < s.n; j++ {
		obj += s.cost[j] * s.x[j]
	}
	return obj
}

// infeasibility returns the total and maximum bound violation over the
// basic variables.
func (s *solver) infeasibility() (sum, worst float64) {
	for _, j := range s.basicIdx {
		v := math.Max(s.lower[j]-s.x[j], s.x[j]-s.upper[j])
		if v > 0 {
			sum += v
			if v > worst {
				worst = v
			}
		}
	}
	return sum, worst
}

// checkpoint consults the shared limits at the start of an iteration.
func (s *solver) checkpoint() (lp.Status, bool) {
	if s.lim.TimedOut() {
		return lp.TimeLimit, true
	}
	if s.lim.NextIteration() {
		return lp.IterationLimit, true
	}
	return lp.NotSolved, false
}

// result packages the current iterate under the given status.
func (s *solver) result(status lp.Status) *Result {
	r := &Result{
		Status:     status,
		Iterations: s.lim.Iterations,
		Basis:      &Basis{Status: append([]VarStatus(nil), s.status...)},
	}
	r.ColValue = make([]float64, s.n)
	r.RowValue = make([]float64, s.m)
	r.ColDual = make([]float64, s.n)
	r.RowDual = make([]float64, s.m)
	copy(r.ColValue, s.x[:s.n])
	copy(r.RowValue, s.x[s.n:])
	copy(r.ColDual, s.d[:s.n])
	copy(r.RowDual, s.y)
	r.Objective = s.objective()
	return r
}
