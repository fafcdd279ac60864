// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simplex implements the revised dual and primal simplex
// methods for linear programs with general bounds, over the augmented
// [A | −I] system in which every row carries a logical variable
// holding the row activity.
package simplex

// VarStatus places one variable (structural or logical) relative to
// the current basis.
type VarStatus uint8

const (
	// NonbasicLower holds the variable at its lower bound.
	NonbasicLower VarStatus = iota
	// NonbasicUpper holds the variable at its upper bound.
	NonbasicUpper
	// NonbasicFree holds an unbounded nonbasic variable at zero.
	NonbasicFree
	// Basic marks the variable as part of the basis.
	Basic
)

// Basis is a snapshot of the basic/nonbasic partition over all n
// structural plus m logical variables. Exactly m entries are Basic in
// a valid snapshot. It is the unit of warm-starting: branch-and-bound
// hands a parent's final Basis to the child's LP solve.
type Basis struct {
	Status []VarStatus
}

// Clone deep-copies the snapshot.
func (b *Basis) Clone() *Basis {
	return &Basis{Status: append([]VarStatus(nil), b.Status...)}
}

// valid reports whether the snapshot partitions total variables with
// exactly m basic ones.
func (b *Basis) valid(total, m int) bool {
	if b == nil || len(b.Status) != total {
		return false
	}
	basic := 0
	for _, st := range b.Status {
		if st == Basic {
			basic++
		}
	}
	return basic == m
}
