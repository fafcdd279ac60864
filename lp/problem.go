// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lp defines the canonical problem, option and solution
// records exchanged between the solver stages and their callers.
package lp

import (
	"fmt"
	"math"

	"github.com/curioloop/linopt/sparse"
)

// Inf returns positive infinity, the marker for an absent upper bound.
func Inf() float64 { return math.Inf(1) }

// NegInf returns negative infinity, the marker for an absent lower bound.
func NegInf() float64 { return math.Inf(-1) }

// Problem is the canonical in-memory form of
//
//	min (or max)  Cost·x + Offset
//	subject to    RowLower ≤ A·x ≤ RowUpper
//	              ColLower ≤  x  ≤ ColUpper
//
// with A stored column-major. The record is immutable input for the
// duration of a solve: the engine works on its own copies.
type Problem struct {
	NumCol, NumRow int

	Cost     []float64
	Offset   float64
	Maximize bool

	A *sparse.Matrix

	ColLower, ColUpper []float64
	RowLower, RowUpper []float64

	// Integrality marks columns restricted to integer values.
	// A nil slice means all columns are continuous.
	Integrality []bool

	rows []sparse.Entry
}

// AddCols appends n continuous columns with the given costs and
// default bounds [0, +inf).
func (p *Problem) AddCols(costs ...float64) {
	for _, c := range costs {
		p.Cost = append(p.Cost, c)
		p.ColLower = append(p.ColLower, 0)
		p.ColUpper = append(p.ColUpper, math.Inf(1))
		if p.Integrality != nil {
			p.Integrality = append(p.Integrality, false)
		}
	}
	p.NumCol = len(p.Cost)
}

// SetInteger marks column j as integer-constrained.
func (p *Problem) SetInteger(j int) {
	if p.Integrality == nil {
		p.Integrality = make([]bool, p.NumCol)
	}
	for len(p.Integrality) < p.NumCol {
		p.Integrality = append(p.Integrality, false)
	}
	p.Integrality[j] = true
}

// SetColBounds replaces the bounds of column j.
func (p *Problem) SetColBounds(j int, lower, upper float64) {
	p.ColLower[j] = lower
	p.ColUpper[j] = upper
}

// AddRow appends the constraint lower ≤ Σ coeffs[i]·x_cols[i] ≤ upper.
// Zero coefficients are dropped.
func (p *Problem) AddRow(lower float64, cols []int, coeffs []float64, upper float64) {
	row := len(p.RowLower)
	p.RowLower = append(p.RowLower, lower)
	p.RowUpper = append(p.RowUpper, upper)
	for i, j := range cols {
		if coeffs[i] != 0 {
			p.rows = append(p.rows, sparse.Entry{Row: row, Col: j, Val: coeffs[i]})
		}
	}
	p.NumRow = len(p.RowLower)
	p.A = nil // invalidate assembled matrix
}

// AddDenseRow appends lower ≤ coeffs·x ≤ upper from a dense row.
func (p *Problem) AddDenseRow(lower float64, coeffs []float64, upper float64) {
	cols := make([]int, len(coeffs))
	for j := range cols {
		cols[j] = j
	}
	p.AddRow(lower, cols, coeffs, upper)
}

// Matrix returns the assembled constraint matrix, building it from
// accumulated rows on first use.
func (p *Problem) Matrix() *sparse.Matrix {
	if p.A == nil {
		p.A = sparse.FromTriplets(p.NumRow, p.NumCol, p.rows)
	}
	return p.A
}

// HasIntegers reports whether any column is integer-constrained.
func (p *Problem) HasIntegers() bool {
	for _, f := range p.Integrality {
		if f {
			return true
		}
	}
	return false
}

// Validate rejects malformed problems before any solve begins:
// dimension mismatches, NaN or crossed bounds, bound pairs that are
// infinite in the same direction, and out-of-range matrix indices.
func (p *Problem) Validate() error {
	n, m := p.NumCol, p.NumRow
	if n < 0 || m < 0 {
		return fmt.Errorf("lp: negative dimension %dx%d", m, n)
	}
	if len(p.Cost) != n {
		return fmt.Errorf("lp: cost length %d, want %d", len(p.Cost), n)
	}
	if len(p.ColLower) != n || len(p.ColUpper) != n {
		return fmt.Errorf("lp: column bound length %d/%d, want %d", len(p.ColLower), len(p.ColUpper), n)
	}
	if len(p.RowLower) != m || len(p.RowUpper) != m {
		return fmt.Errorf("lp: row bound length %d/%d, want %d", len(p.RowLower), len(p.RowUpper), m)
	}
	if p.Integrality != nil && len(p.Integrality) != n {
		return fmt.Errorf("lp: integrality length %d, want %d", len(p.Integrality), n)
	}
	check := func(kind string, lo, up []float64) error {
		for i := range lo {
			l, u := lo[i], up[i]
			if math.IsNaN(l) || math.IsNaN(u) {
				return fmt.Errorf("lp: %s %d has NaN bound", kind, i)
			}
			if l > u {
				return fmt.Errorf("lp: %s %d bounds cross: %g > %g", kind, i, l, u)
			}
			if math.IsInf(l, 1) || math.IsInf(u, -1) {
				return fmt.Errorf("lp: %s %d bound infinite in the wrong direction", kind, i)
			}
		}
		return nil
	}
	if err := check("column", p.ColLower, p.ColUpper); err != nil {
		return err
	}
	if err := check("row", p.RowLower, p.RowUpper); err != nil {
		return err
	}
	for _, c := range p.Cost {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("lp: non-finite objective coefficient")
		}
	}
	a := p.Matrix()
	if a.Rows != m || a.Cols != n {
		return fmt.Errorf("lp: matrix is %dx%d, want %dx%d", a.Rows, a.Cols, m, n)
	}
	for j := 0; j < n; j++ {
		rows, vals := a.Col(j)
		for k, r := range rows {
			if r < 0 || r >= m {
				return fmt.Errorf("lp: column %d references row %d", j, r)
			}
			if math.IsNaN(vals[k]) || math.IsInf(vals[k], 0) {
				return fmt.Errorf("lp: non-finite coefficient at (%d,%d)", r, j)
			}
		}
	}
	return nil
}

// Clone deep-copies the problem, sharing nothing with the receiver.
func (p *Problem) Clone() *Problem {
	c := &Problem{
		NumCol:   p.NumCol,
		NumRow:   p.NumRow,
		Offset:   p.Offset,
		Maximize: p.Maximize,
		A:        p.Matrix().Clone(),
	}
	c.Cost = append([]float64(nil), p.Cost...)
	c.ColLower = append([]float64(nil), p.ColLower...)
	c.ColUpper = append([]float64(nil), p.ColUpper...)
	c.RowLower = append([]float64(nil), p.RowLower...)
	c.RowUpper = append([]float64(nil), p.RowUpper...)
	if p.Integrality != nil {
		c.Integrality = append([]bool(nil), p.Integrality...)
	}
	return c
}
