// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import "math"

// Vector is an indexed work vector: a dense value array plus the list
// of positions known to hold nonzeros. Scatter/gather against it is
// O(nnz) while random access stays O(1).
type Vector struct {
	Dim int
	nz  []int
	val []float64
	has []bool
}

// NewVector allocates a zero work vector of the given dimension.
func NewVector(dim int) *Vector {
	return &Vector{
		Dim: dim,
		val: make([]float64, dim),
		has: make([]bool, dim),
	}
}

// Clear resets the vector to zero in O(nnz).
func (v *Vector) Clear() {
	for _, i := range v.nz {
		v.val[i] = 0
		v.has[i] = false
	}
	v.nz = v.nz[:0]
}

// At returns element i.
func (v *Vector) At(i int) float64 { return v.val[i] }

// Set assigns element i.
func (v *Vector) Set(i int, x float64) {
	if !v.has[i] {
		v.has[i] = true
		v.nz = append(v.nz, i)
	}
	v.val[i] = x
}

// Add accumulates into element i.
func (v *Vector) Add(i int, x float64) {
	if !v.has[i] {
		v.has[i] = true
		v.nz = append(v.nz, i)
	}
	v.val[i] += x
}

// Gather returns compact (index, value) slices of the entries whose
// magnitude exceeds dropTol. The result does not alias the vector.
func (v *Vector) Gather(dropTol float64) (idx []int, val []float64) {
	for _, i := range v.nz {
		if x := v.val[i]; math.Abs(x) > dropTol {
			idx = append(idx, i)
			val = append(val, x)
		}
	}
	return idx, val
}
