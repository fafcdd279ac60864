// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lu

// Ftran solves B·v = x in place. On entry x is indexed by row; on
// return it holds v indexed by basis position.
func (f *Factor) Ftran(x []float64) {
	m := f.m

	// Forward solve with L (row space).
	for k := 0; k < m; k++ {
		t := x[f.perm[k]]
		if t == 0 {
			continue
		}
		for q := f.lstart[k]; q < f.lstart[k+1]; q++ {
			x[f.lrow[q]] -= t * f.lval[q]
		}
	}

	// Back substitution with U, gathering into position space.
	v := f.pos
	for k := m - 1; k >= 0; k-- {
		t := x[f.perm[k]] / f.udiag[k]
		v[k] = t
		if t == 0 {
			continue
		}
		for q := f.ustart[k]; q < f.ustart[k+1]; q++ {
			x[f.perm[f.ustep[q]]] -= t * f.uval[q]
		}
	}
	copy(x, v)

	// Apply the update file: B = B₀·E₁⋯Eₖ, so each eta is solved in
	// the order it was recorded.
	for i := range f.etas {
		e := &f.etas[i]
		t := x[e.pos] / e.pivot
		x[e.pos] = t
		if t == 0 {
			continue
		}
		for q, r := range e.idx {
			x[r] -= t * e.val[q]
		}
	}
}

// Btran solves Bᵀ·v = x in place. On entry x is indexed by basis
// position; on return it holds v indexed by row.
func (f *Factor) Btran(x []float64) {
	m := f.m

	// Transposed eta solves, newest first.
	for i := len(f.etas) - 1; i >= 0; i-- {
		e := &f.etas[i]
		s := x[e.pos]
		for q, r := range e.idx {
			s -= e.val[q] * x[r]
		}
		x[e.pos] = s / e.pivot
	}

	// Forward solve with Uᵀ (position space).
	v := f.pos
	for k := 0; k < m; k++ {
		v[k] = 0
	}
	for k := 0; k < m; k++ {
		s := x[k]
		for q := f.ustart[k]; q < f.ustart[k+1]; q++ {
			s -= f.uval[q] * v[f.ustep[q]]
		}
		v[k] = s / f.udiag[k]
	}

	// Back solve with Lᵀ, scattering into row space.
	for i := range x {
		x[i] = 0
	}
	for k := m - 1; k >= 0; k-- {
		s := v[k]
		for q := f.lstart[k]; q < f.lstart[k+1]; q++ {
			s -= f.lval[q] * x[f.lrow[q]]
		}
		x[f.perm[k]] = s
	}
}
