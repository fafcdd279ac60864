// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package presolve

import (
	"errors"
	"math"
)

// ErrInconsistent reports that expanding a reduced solution violated a
// bound of the original problem beyond tolerance. It indicates an
// internal contradiction between a reduction and the returned point.
var ErrInconsistent = errors.New("presolve: postsolve produced an inconsistent point")

// expand carries the solution arrays in original index space while the
// reduction stack is replayed in reverse.
type expand struct {
	x []float64 // column values
	d []float64 // column reduced costs
	y []float64 // row duals
}

// reduction is one recorded presolve step. undo restores the variables
// and duals the step eliminated; entries pushed later are undone first,
// so an undo may rely on everything removed after it being filled in.
type reduction interface {
	undo(ps *expand)
}

// emptyRowRed records a row dropped as empty or redundant. Such a row
// is never binding, so its dual is zero.
type emptyRowRed struct {
	row int
}

func (r *emptyRowRed) undo(ps *expand) { ps.y[r.row] = 0 }

// singletonRowRed records a one-entry row folded into its column's
// bounds. If the solution rests on a bound the row introduced, the
// column's remaining reduced cost is attributed to the row dual.
type singletonRowRed struct {
	row, col int
	coef     float64

	oldLower, oldUpper     float64
	newLower, newUpper     float64
	tightLower, tightUpper bool
}

func (r *singletonRowRed) undo(ps *expand) {
	ps.y[r.row] = 0
	xj := ps.x[r.col]
	const tol = 1e-7
	atNewLower := r.tightLower && math.Abs(xj-r.newLower) <= tol && xj > r.oldLower+tol
	atNewUpper := r.tightUpper && math.Abs(xj-r.newUpper) <= tol && xj < r.oldUpper-tol
	if atNewLower || atNewUpper {
		ps.y[r.row] = ps.d[r.col] / r.coef
		ps.d[r.col] = 0
	}
}

// fixedColRed records a column pinned at a single value and
// substituted out. rows/vals snapshot the live column at removal time;
// rows removed earlier carry no dual weight for this column.
type fixedColRed struct {
	col   int
	value float64
	cost  float64
	rows  []int
	vals  []float64
}

func (r *fixedColRed) undo(ps *expand) {
	ps.x[r.col] = r.value
	d := r.cost
	for k, i := range r.rows {
		d -= ps.y[i] * r.vals[k]
	}
	ps.d[r.col] = d
}

// freeColRed records a free column singleton substituted out of an
// equality row. cols/vals snapshot the row's other live columns; the
// row dual is determined exactly by the eliminated column's optimality.
type freeColRed struct {
	col, row int
	coef     float64
	cost     float64
	rhs      float64
	cols     []int
	vals     []float64
}

func (r *freeColRed) undo(ps *expand) {
	act := 0.0
	for k, j := range r.cols {
		act += r.vals[k] * ps.x[j]
	}
	ps.x[r.col] = (r.rhs - act) / r.coef
	ps.y[r.row] = r.cost / r.coef
	ps.d[r.col] = 0
}

// dupRowRed records row drop merged into row keep, with
// row(drop) = factor·row(keep). When the binding bound of the merged
// row originated from the dropped row, the dual moves with it.
type dupRowRed struct {
	keep, drop int
	factor     float64

	lowerFromDrop, upperFromDrop bool
}

func (r *dupRowRed) undo(ps *expand) {
	ps.y[r.drop] = 0
	yk := ps.y[r.keep]
	if (yk > 0 && r.lowerFromDrop) || (yk < 0 && r.upperFromDrop) {
		ps.y[r.drop] = yk / r.factor
		ps.y[r.keep] = 0
	}
}

// dupColRed records column drop merged into column keep, with
// col(drop) = factor·col(keep), factor > 0, both continuous and
// box-bounded. The merged value splits by saturating drop's lower
// bound first.
type dupColRed struct {
	keep, drop int
	factor     float64

	keepLower, keepUpper float64
	dropLower, dropUpper float64
}

func (r *dupColRed) undo(ps *expand) {
	v := ps.x[r.keep]
	xk := math.Min(v-r.factor*r.dropLower, r.keepUpper)
	xk = math.Max(xk, r.keepLower)
	ps.x[r.keep] = xk
	ps.x[r.drop] = (v - xk) / r.factor
	ps.d[r.drop] = r.factor * ps.d[r.keep]
}

// Postsolve expands a reduced-space solution back to the original
// index space, replaying the reduction stack newest-first. The inputs
// are indexed by the reduced problem; the outputs by the original.
// Row activities are left to the caller, which holds the original
// matrix anyway.
func (r *Reduced) Postsolve(colValue, colDual, rowDual []float64) (x, colD, rowD []float64, err error) {
	ps := &expand{
		x: make([]float64, r.orig.NumCol),
		d: make([]float64, r.orig.NumCol),
		y: make([]float64, r.orig.NumRow),
	}
	for k, j := range r.ColMap {
		ps.x[j] = colValue[k]
		ps.d[j] = colDual[k]
	}
	for k, i := range r.RowMap {
		ps.y[i] = rowDual[k]
	}
	for k := len(r.stack) - 1; k >= 0; k-- {
		r.stack[k].undo(ps)
	}
	// The expanded point is returned even on a failed audit: a caller
	// holding a limit-status iterate expects violations and keeps it.
	return ps.x, ps.d, ps.y, r.verify(ps)
}

// verify audits the expanded point against the original bounds. The
// tolerance is looser than the solver's feasibility tolerance because
// substitutions accumulate roundoff.
func (r *Reduced) verify(ps *expand) error {
	tol := 100 * r.tol
	p := r.orig
	for j := 0; j < p.NumCol; j++ {
		scale := tol * (1 + math.Abs(ps.x[j]))
		if ps.x[j] < p.ColLower[j]-scale || ps.x[j] > p.ColUpper[j]+scale {
			return ErrInconsistent
		}
	}
	act := make([]float64, p.NumRow)
	a := p.Matrix()
	for j := 0; j < p.NumCol; j++ {
		a.ColAxpy(j, ps.x[j], act)
	}
	for i := 0; i < p.NumRow; i++ {
		scale := tol * (1 + math.Abs(act[i]))
		if act[i] < p.RowLower[i]-scale || act[i] > p.RowUpper[i]+scale {
			return ErrInconsistent
		}
	}
	return nil
}
