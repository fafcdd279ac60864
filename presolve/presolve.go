// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package presolve shrinks a problem before simplex by a fixed set of
// size and bound-tightening reductions, recording each one on a stack
// so the reduced solution can be expanded back to full size.
package presolve

import (
	"math"

	"github.com/curioloop/linopt/lp"
	"github.com/curioloop/linopt/sparse"
)

// maxPasses caps the reduction fixpoint iteration.
const maxPasses = 16

// Reduced is the outcome of a presolve run: the compacted problem,
// index maps back to the original, and the reduction stack consumed
// by Postsolve.
type Reduced struct {
	// Problem is the reduced problem; nil when presolve already
	// proved a terminal status.
	Problem *lp.Problem
	// Status is Infeasible when a reduction derived an empty feasible
	// range, NotSolved otherwise. Unboundedness is never declared
	// here; it is deferred to simplex.
	Status lp.Status

	// ColMap and RowMap take reduced indices to original indices.
	ColMap, RowMap []int

	orig  *lp.Problem
	stack []reduction
	tol   float64
}

type nonzero struct {
	row, col int
	val      float64
	dead     bool
}

// work is the mutable mid-presolve view of the problem: adjacency
// lists over original indices with alive flags, bounds and costs that
// the rules tighten in place.
type work struct {
	n, m   int
	cost   []float64
	offset float64

	colLower, colUpper []float64
	rowLower, rowUpper []float64
	integer            []bool

	entries  []nonzero
	colList  [][]int // entry handles per column
	rowList  [][]int // entry handles per row
	colCount []int   // live nonzeros per column
	rowCount []int
	colAlive []bool
	rowAlive []bool

	tol     float64
	stack   []reduction
	changed bool
}

// Reduce applies the reduction rules to a minimization problem until
// no rule fires or the pass cap is hit. The input problem is not
// mutated.
func Reduce(p *lp.Problem, opt *lp.Options) *Reduced {
	w := newWork(p, opt.PrimalFeasTol)
	red := &Reduced{orig: p, Status: lp.NotSolved, tol: opt.PrimalFeasTol}

	for pass := 0; pass < maxPasses; pass++ {
		w.changed = false
		if !w.roundIntegerBounds() ||
			!w.reduceRows() ||
			!w.reduceCols() ||
			!w.reduceDuplicateRows() ||
			!w.reduceDuplicateCols() {
			red.Status = lp.Infeasible
			red.stack = w.stack
			return red
		}
		if !w.changed {
			break
		}
	}

	red.stack = w.stack
	red.Problem, red.ColMap, red.RowMap = w.compact(p)
	opt.Log.Printf(lp.LogSummary, "presolve: %dx%d -> %dx%d, %d reductions\n",
		p.NumRow, p.NumCol, red.Problem.NumRow, red.Problem.NumCol, len(w.stack))
	return red
}

func newWork(p *lp.Problem, tol float64) *work {
	n, m := p.NumCol, p.NumRow
	w := &work{
		n: n, m: m,
		cost:     append([]float64(nil), p.Cost...),
		offset:   p.Offset,
		colLower: append([]float64(nil), p.ColLower...),
		colUpper: append([]float64(nil), p.ColUpper...),
		rowLower: append([]float64(nil), p.RowLower...),
		rowUpper: append([]float64(nil), p.RowUpper...),
		integer:  make([]bool, n),
		colList:  make([][]int, n),
		rowList:  make([][]int, m),
		colCount: make([]int, n),
		rowCount: make([]int, m),
		colAlive: make([]bool, n),
		rowAlive: make([]bool, m),
		tol:      tol,
	}
	if p.Integrality != nil {
		copy(w.integer, p.Integrality)
	}
	for j := range w.colAlive {
		w.colAlive[j] = true
	}
	for i := range w.rowAlive {
		w.rowAlive[i] = true
	}
	a := p.Matrix()
	for j := 0; j < n; j++ {
		rows, vals := a.Col(j)
		for k, r := range rows {
			h := len(w.entries)
			w.entries = append(w.entries, nonzero{row: r, col: j, val: vals[k]})
			w.colList[j] = append(w.colList[j], h)
			w.rowList[r] = append(w.rowList[r], h)
			w.colCount[j]++
			w.rowCount[r]++
		}
	}
	return w
}

func (w *work) push(r reduction) {
	w.stack = append(w.stack, r)
	w.changed = true
}

func (w *work) killRow(i int) {
	w.rowAlive[i] = false
	for _, h := range w.rowList[i] {
		if e := &w.entries[h]; !e.dead {
			e.dead = true
			w.colCount[e.col]--
		}
	}
	w.rowCount[i] = 0
}

func (w *work) killCol(j int) {
	w.colAlive[j] = false
	for _, h := range w.colList[j] {
		if e := &w.entries[h]; !e.dead {
			e.dead = true
			w.rowCount[e.row]--
		}
	}
	w.colCount[j] = 0
}

// roundIntegerBounds tightens integer column bounds to the enclosed
// integers. A crossed pair afterwards proves infeasibility.
func (w *work) roundIntegerBounds() bool {
	for j := 0; j < w.n; j++ {
		if !w.colAlive[j] || !w.integer[j] {
			continue
		}
		lo, up := w.colLower[j], w.colUpper[j]
		nl, nu := lo, up
		if !math.IsInf(lo, -1) {
			nl = math.Ceil(lo - w.tol)
		}
		if !math.IsInf(up, 1) {
			nu = math.Floor(up + w.tol)
		}
		if nl > nu+w.tol {
			return false
		}
		if nl != lo || nu != up {
			w.colLower[j], w.colUpper[j] = nl, nu
			w.changed = true
		}
	}
	return true
}

// rowActivity returns the implied activity range of a row from the
// live column bounds.
func (w *work) rowActivity(i int) (min, max float64) {
	for _, h := range w.rowList[i] {
		e := &w.entries[h]
		if e.dead {
			continue
		}
		lo, up := w.colLower[e.col], w.colUpper[e.col]
		if e.val > 0 {
			min += e.val * lo
			max += e.val * up
		} else {
			min += e.val * up
			max += e.val * lo
		}
	}
	return min, max
}

// reduceRows applies the row rules: empty row elimination, singleton
// row conversion into column bounds, redundant (nonbinding) row
// removal and forcing row fixings.
func (w *work) reduceRows() bool {
	for i := 0; i < w.m; i++ {
		if !w.rowAlive[i] {
			continue
		}
		switch w.rowCount[i] {
		case 0:
			if w.rowLower[i] > w.tol || w.rowUpper[i] < -w.tol {
				return false
			}
			w.push(&emptyRowRed{row: i})
			w.killRow(i)
			continue
		case 1:
			if !w.singletonRow(i) {
				return false
			}
			continue
		}

		minAct, maxAct := w.rowActivity(i)
		lo, up := w.rowLower[i], w.rowUpper[i]
		scale := 1.0
		if !math.IsInf(lo, -1) {
			scale += math.Abs(lo)
		}
		if !math.IsInf(up, 1) {
			scale += math.Abs(up)
		}
		if minAct > up+w.tol*scale || maxAct < lo-w.tol*scale {
			return false
		}
		redundant := (math.IsInf(lo, -1) || minAct >= lo-w.tol*scale) &&
			(math.IsInf(up, 1) || maxAct <= up+w.tol*scale)
		if redundant {
			w.push(&emptyRowRed{row: i})
			w.killRow(i)
			continue
		}
		// Forcing rows: the extreme activity only just reaches a row
		// bound, pinning every participating column.
		if !math.IsInf(minAct, 0) && math.Abs(minAct-up) <= w.tol*scale {
			w.forceRow(i, true)
			continue
		}
		if !math.IsInf(maxAct, 0) && math.Abs(maxAct-lo) <= w.tol*scale {
			w.forceRow(i, false)
		}
	}
	return true
}

// singletonRow folds a one-entry row into the bounds of its column.
func (w *work) singletonRow(i int) bool {
	var e *nonzero
	for _, h := range w.rowList[i] {
		if !w.entries[h].dead {
			e = &w.entries[h]
			break
		}
	}
	j, a := e.col, e.val
	nl, nu := w.rowLower[i]/a, w.rowUpper[i]/a
	if a < 0 {
		nl, nu = nu, nl
	}
	if w.integer[j] {
		if !math.IsInf(nl, -1) {
			nl = math.Ceil(nl - w.tol)
		}
		if !math.IsInf(nu, 1) {
			nu = math.Floor(nu + w.tol)
		}
	}

	red := &singletonRowRed{
		row: i, col: j, coef: a,
		oldLower: w.colLower[j], oldUpper: w.colUpper[j],
		newLower: nl, newUpper: nu,
	}
	if nl > w.colLower[j]+w.tol {
		w.colLower[j] = nl
		red.tightLower = true
	}
	if nu < w.colUpper[j]-w.tol {
		w.colUpper[j] = nu
		red.tightUpper = true
	}
	if w.colLower[j] > w.colUpper[j]+w.tol {
		return false
	}
	w.push(red)
	w.killRow(i)
	return true
}

// forceRow pins every column of a forcing row at the bound realizing
// the extreme activity. atMin picks the minimum-activity bound.
func (w *work) forceRow(i int, atMin bool) {
	for _, h := range w.rowList[i] {
		e := &w.entries[h]
		if e.dead {
			continue
		}
		j := e.col
		v := w.colLower[j]
		if (e.val > 0) != atMin {
			v = w.colUpper[j]
		}
		w.colLower[j], w.colUpper[j] = v, v
		w.fixCol(j, v)
	}
	// The row is now empty and leaves through the empty-row rule on
	// the next scan.
}

// fixCol substitutes a column pinned at v out of the problem.
func (w *work) fixCol(j int, v float64) {
	red := &fixedColRed{col: j, value: v, cost: w.cost[j]}
	for _, h := range w.colList[j] {
		e := &w.entries[h]
		if e.dead {
			continue
		}
		red.rows = append(red.rows, e.row)
		red.vals = append(red.vals, e.val)
		if !math.IsInf(w.rowLower[e.row], -1) {
			w.rowLower[e.row] -= e.val * v
		}
		if !math.IsInf(w.rowUpper[e.row], 1) {
			w.rowUpper[e.row] -= e.val * v
		}
	}
	w.offset += w.cost[j] * v
	w.push(red)
	w.killCol(j)
}

// reduceCols applies the column rules: fixed and empty columns,
// dominated columns, and free column singletons in equality rows.
func (w *work) reduceCols() bool {
	for j := 0; j < w.n; j++ {
		if !w.colAlive[j] {
			continue
		}
		lo, up := w.colLower[j], w.colUpper[j]
		if lo > up+w.tol {
			return false
		}
		if up-lo <= w.tol {
			v := lo
			if w.integer[j] {
				v = math.Round(lo)
			}
			w.fixCol(j, v)
			continue
		}
		if w.colCount[j] == 0 {
			w.emptyCol(j)
			continue
		}
		if w.dominatedCol(j) {
			continue
		}
		if w.colCount[j] == 1 && !w.integer[j] &&
			math.IsInf(lo, -1) && math.IsInf(up, 1) {
			w.freeColSingleton(j)
		}
	}
	return true
}

// emptyCol fixes a column with no live rows at its cheapest bound.
// When the improving direction is unbounded the column is left alone:
// unboundedness is simplex's to prove.
func (w *work) emptyCol(j int) {
	c := w.cost[j]
	lo, up := w.colLower[j], w.colUpper[j]
	var v float64
	switch {
	case c > 0:
		if math.IsInf(lo, -1) {
			return
		}
		v = lo
	case c < 0:
		if math.IsInf(up, 1) {
			return
		}
		v = up
	default:
		v = math.Min(math.Max(0, lo), up)
	}
	w.fixCol(j, v)
}

// dominatedCol fixes a column whose movement toward one bound can
// never hurt feasibility or the (minimization) objective.
func (w *work) dominatedCol(j int) bool {
	downSafe, upSafe := true, true
	for _, h := range w.colList[j] {
		e := &w.entries[h]
		if e.dead {
			continue
		}
		if e.val > 0 {
			if !math.IsInf(w.rowLower[e.row], -1) {
				downSafe = false
			}
			if !math.IsInf(w.rowUpper[e.row], 1) {
				upSafe = false
			}
		} else {
			if !math.IsInf(w.rowUpper[e.row], 1) {
				downSafe = false
			}
			if !math.IsInf(w.rowLower[e.row], -1) {
				upSafe = false
			}
		}
		if !downSafe && !upSafe {
			return false
		}
	}
	if downSafe && w.cost[j] >= 0 && !math.IsInf(w.colLower[j], -1) {
		w.fixCol(j, w.colLower[j])
		return true
	}
	if upSafe && w.cost[j] <= 0 && !math.IsInf(w.colUpper[j], 1) {
		w.fixCol(j, w.colUpper[j])
		return true
	}
	return false
}

// freeColSingleton substitutes a free continuous column appearing in
// a single equality row out of the problem, folding its cost onto the
// row's other columns. The row dual is recovered exactly in postsolve.
func (w *work) freeColSingleton(j int) {
	var e *nonzero
	for _, h := range w.colList[j] {
		if !w.entries[h].dead {
			e = &w.entries[h]
			break
		}
	}
	i := e.row
	if math.IsInf(w.rowLower[i], 0) || w.rowLower[i] != w.rowUpper[i] {
		return
	}
	a, rhs, cj := e.val, w.rowLower[i], w.cost[j]

	red := &freeColRed{col: j, row: i, coef: a, cost: cj, rhs: rhs}
	for _, h := range w.rowList[i] {
		o := &w.entries[h]
		if o.dead || o.col == j {
			continue
		}
		red.cols = append(red.cols, o.col)
		red.vals = append(red.vals, o.val)
		w.cost[o.col] -= cj * o.val / a
	}
	w.offset += cj * rhs / a
	w.push(red)
	w.killCol(j)
	w.killRow(i)
}

// compact assembles the reduced problem from the live rows/columns.
func (w *work) compact(p *lp.Problem) (*lp.Problem, []int, []int) {
	colMap := make([]int, 0, w.n)
	rowMap := make([]int, 0, w.m)
	colAt := make([]int, w.n)
	rowAt := make([]int, w.m)
	for j := 0; j < w.n; j++ {
		colAt[j] = -1
		if w.colAlive[j] {
			colAt[j] = len(colMap)
			colMap = append(colMap, j)
		}
	}
	for i := 0; i < w.m; i++ {
		rowAt[i] = -1
		if w.rowAlive[i] {
			rowAt[i] = len(rowMap)
			rowMap = append(rowMap, i)
		}
	}

	var trips []sparse.Entry
	for _, e := range w.entries {
		if !e.dead {
			trips = append(trips, sparse.Entry{Row: rowAt[e.row], Col: colAt[e.col], Val: e.val})
		}
	}

	rp := &lp.Problem{
		NumCol: len(colMap),
		NumRow: len(rowMap),
		Offset: w.offset,
		A:      sparse.FromTriplets(len(rowMap), len(colMap), trips),
	}
	anyInt := false
	for _, j := range colMap {
		rp.Cost = append(rp.Cost, w.cost[j])
		rp.ColLower = append(rp.ColLower, w.colLower[j])
		rp.ColUpper = append(rp.ColUpper, w.colUpper[j])
		if w.integer[j] {
			anyInt = true
		}
	}
	if anyInt || p.Integrality != nil {
		rp.Integrality = make([]bool, len(colMap))
		for k, j := range colMap {
			rp.Integrality[k] = w.integer[j]
		}
	}
	for _, i := range rowMap {
		rp.RowLower = append(rp.RowLower, w.rowLower[i])
		rp.RowUpper = append(rp.RowUpper, w.rowUpper[i])
	}
	return rp, colMap, rowMap
}
