// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lu

import "math"

// Update adjusts the factorization in place for a single basis
// exchange: the basic variable at position pos leaves and the column
// whose Ftran image is spike (dense, position-indexed) enters. The
// cost is one product-form eta, far below a full refactorization.
//
// Returns ErrSingular when the spike's pivot element is below
// tolerance; the factors are left unchanged in that case.
func (f *Factor) Update(pos int, spike []float64) error {
	pivot := spike[pos]
	if math.Abs(pivot) <= f.pivotTol {
		return ErrSingular
	}
	e := eta{pos: pos, pivot: pivot}
	for r, v := range spike {
		if r != pos && v != 0 {
			e.idx = append(e.idx, r)
			e.val = append(e.val, v)
		}
	}
	f.etas = append(f.etas, e)
	f.etaNz += len(e.idx) + 1
	return nil
}
