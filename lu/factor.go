// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lu maintains an invertible factorization of a simplex basis
// matrix: a full sparse LU with row pivoting plus a bounded file of
// product-form rank-1 updates applied since the last refactorization.
package lu

import (
	"errors"
	"math"

	"github.com/curioloop/linopt/sparse"
)

// ErrSingular reports that a candidate basis matrix is numerically
// singular: some elimination step found no pivot above tolerance.
// It is a recoverable condition handled by the caller's crash policy.
var ErrSingular = errors.New("lu: singular basis")

const (
	// maxUpdates bounds the eta file length before a refactorization
	// is demanded.
	maxUpdates = 64
	// fillGrowthLimit bounds eta fill relative to the base factors.
	fillGrowthLimit = 4.0
)

// Column is one basis column in compact sparse form.
type Column struct {
	Index []int
	Value []float64
}

type eta struct {
	pos   int // basis position replaced by the spike
	pivot float64
	idx   []int
	val   []float64
}

// Factor holds LU factors of an m×m basis matrix B with row pivoting,
// such that the permuted product of L and U reproduces B, plus the
// eta file of updates. L is unit lower triangular stored by columns
// in original row indices; U is stored by columns with entries keyed
// by elimination step.
type Factor struct {
	m        int
	pivotTol float64

	lstart []int
	lrow   []int
	lval   []float64

	ustart []int
	ustep  []int
	uval   []float64
	udiag  []float64

	perm   []int // elimination step -> pivot row
	etas   []eta
	baseNz int
	etaNz  int

	work *sparse.Vector
	pos  []float64 // scratch in basis-position space
}

// New allocates a factorization engine for m×m bases. Pivots with
// magnitude at or below pivotTol are rejected as singular.
func New(m int, pivotTol float64) *Factor {
	return &Factor{
		m:        m,
		pivotTol: pivotTol,
		work:     sparse.NewVector(m),
		pos:      make([]float64, m),
	}
}

// Updates returns the number of rank-1 updates since the last
// full factorization.
func (f *Factor) Updates() int { return len(f.etas) }

// NeedRefactor signals that the update history or its fill growth has
// crossed the configured thresholds and the caller must factorize
// fresh from the full basis before further updates.
func (f *Factor) NeedRefactor() bool {
	if len(f.etas) >= maxUpdates {
		return true
	}
	return f.baseNz > 0 && float64(f.etaNz) > fillGrowthLimit*float64(f.baseNz)
}

// Factorize computes fresh LU factors of the basis given by cols,
// discarding any accumulated updates. Columns are eliminated in their
// given order; the pivot row of each step is the eligible row of
// largest magnitude, lowest index on ties. Returns ErrSingular when a
// step has no pivot above tolerance.
func (f *Factor) Factorize(cols []Column) error {
	m := f.m
	if len(cols) != m {
		return errors.New("lu: basis column count mismatch")
	}

	f.lstart = append(f.lstart[:0], 0)
	f.lrow = f.lrow[:0]
	f.lval = f.lval[:0]
	f.ustart = append(f.ustart[:0], 0)
	f.ustep = f.ustep[:0]
	f.uval = f.uval[:0]
	f.udiag = f.udiag[:0]
	f.perm = f.perm[:0]
	f.etas = f.etas[:0]
	f.etaNz = 0

	// rowStep[r] = elimination step that pivoted row r, or -1.
	rowStep := make([]int, m)
	for i := range rowStep {
		rowStep[i] = -1
	}

	w := f.work
	w.Clear()

	for k := 0; k < m; k++ {
		// Scatter column k and apply the elimination of all earlier
		// steps (left-looking solve with the partial L).
		for t, r := range cols[k].Index {
			w.Set(r, cols[k].Value[t])
		}
		for j := 0; j < k; j++ {
			t := w.At(f.perm[j])
			if t == 0 {
				continue
			}
			for q := f.lstart[j]; q < f.lstart[j+1]; q++ {
				w.Add(f.lrow[q], -t*f.lval[q])
			}
		}

		idx, val := w.Gather(0)
		w.Clear()

		// Pick the pivot among rows not yet eliminated: largest
		// magnitude, lowest row index on exact ties.
		pivotRow, pivotAt, pivotMag := -1, -1, f.pivotTol
		for q, r := range idx {
			if rowStep[r] >= 0 {
				continue
			}
			mag := math.Abs(val[q])
			if mag > pivotMag || (mag == pivotMag && pivotRow >= 0 && r < pivotRow) {
				pivotRow, pivotAt, pivotMag = r, q, mag
			}
		}
		if pivotRow < 0 {
			return ErrSingular
		}

		pivot := val[pivotAt]
		for q, r := range idx {
			if r == pivotRow {
				continue
			}
			if j := rowStep[r]; j >= 0 {
				f.ustep = append(f.ustep, j)
				f.uval = append(f.uval, val[q])
			} else {
				f.lrow = append(f.lrow, r)
				f.lval = append(f.lval, val[q]/pivot)
			}
		}

		f.udiag = append(f.udiag, pivot)
		f.perm = append(f.perm, pivotRow)
		rowStep[pivotRow] = k
		f.lstart = append(f.lstart, len(f.lrow))
		f.ustart = append(f.ustart, len(f.ustep))
	}

	f.baseNz = len(f.lrow) + len(f.ustep) + m
	return nil
}
