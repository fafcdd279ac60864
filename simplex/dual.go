// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplex

import (
	"math"
	"sort"

	"github.com/curioloop/linopt/lp"
)

// dualCand is one entering candidate of the dual ratio test. alpha is
// the sign-adjusted pivot row entry, ratio the dual step at which the
// candidate's reduced cost changes sign.
type dualCand struct {
	j     int
	ratio float64
	alpha float64
}

// runDual iterates the dual simplex method: dual feasibility is held
// at every step while the primal bound violations of the basic
// variables are driven to zero. It reports needPrimal instead of a
// status when no dual-feasible start exists or the recovery policy
// gives up, handing the solve to the primal method.
func (s *solver) runDual() (status lp.Status, needPrimal bool) {
	ptol, dtol := s.opt.PrimalFeasTol, s.opt.DualFeasTol
	tolPiv := math.Max(1e-9, s.opt.PivotTol)
	degen := 0
	degenLimit := 100 + s.total
	var cands []dualCand

	for {
		if st, stop := s.checkpoint(); stop {
			return st, false
		}
		s.refactorIfNeeded()
		s.computeBasics()
		s.computeDuals(s.cost)

		// Repair dual infeasibility where a bound flip can: a boxed
		// nonbasic with a wrong-sign reduced cost moves to its other
		// bound at no dual cost. Anything else is a genuine dual
		// infeasibility and the primal method takes over.
		ok, flipped := s.repairDualByFlips(dtol)
		if !ok {
			return lp.NotSolved, true
		}
		if flipped {
			s.computeBasics()
		}

		// Pricing: the basic variable most violating its bounds,
		// weighted by the steepest-edge estimate. Lowest position
		// wins ties for determinism.
		r := -1
		below := false
		best := 0.0
		for k, j := range s.basicIdx {
			v := s.lower[j] - s.x[j]
			bl := true
			if v <= ptol {
				v = s.x[j] - s.upper[j]
				bl = false
			}
			if v <= ptol {
				continue
			}
			if merit := v * v / s.dse[k]; merit > best {
				best, r, below = merit, k, bl
			}
		}
		if r < 0 {
			return lp.Optimal, false
		}
		leave := s.basicIdx[r]

		// Row r of the tableau: ρ = B⁻ᵀe_r, α_j = ρ·a_j.
		for i := range s.rho {
			s.rho[i] = 0
		}
		s.rho[r] = 1
		s.f.Btran(s.rho)

		sigma := 1.0
		if below {
			sigma = -1
		}
		cands = cands[:0]
		for j := 0; j < s.total; j++ {
			st := s.status[j]
			if st == Basic || s.fixed(j) {
				continue
			}
			ah := sigma * s.augColDot(j, s.rho)
			switch st {
			case NonbasicLower:
				if ah > tolPiv {
					cands = append(cands, dualCand{j, math.Max(s.d[j], 0) / ah, ah})
				}
			case NonbasicUpper:
				if ah < -tolPiv {
					cands = append(cands, dualCand{j, math.Min(s.d[j], 0) / ah, ah})
				}
			case NonbasicFree:
				if math.Abs(ah) > tolPiv {
					cands = append(cands, dualCand{j, 0, ah})
				}
			}
		}
		if len(cands) == 0 {
			// Dual unboundedness certificate: the violated bound has
			// no entering variable, so the primal is infeasible.
			return lp.Infeasible, false
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].ratio != cands[b].ratio {
				return cands[a].ratio < cands[b].ratio
			}
			return cands[a].j < cands[b].j
		})

		// Bound-flipping walk: while the cheapest candidate is boxed
		// and flipping it cannot absorb the whole violation, flip it
		// and move to the next ratio.
		rem := s.lower[leave] - s.x[leave]
		if !below {
			rem = s.x[leave] - s.upper[leave]
		}
		chosen := -1
		var flips []int
		for i, c := range cands {
			if s.status[c.j] != NonbasicFree && s.boxed(c.j) {
				reduce := math.Abs(c.alpha) * (s.upper[c.j] - s.lower[c.j])
				if rem-reduce > ptol {
					flips = append(flips, c.j)
					rem -= reduce
					continue
				}
			}
			chosen = i
			break
		}
		for _, j := range flips {
			s.flipBound(j)
		}
		if chosen < 0 {
			// Every candidate flipped with violation remaining.
			return lp.Infeasible, false
		}

		// Harris second pass: among near-tied ratios take the pivot
		// of largest magnitude for numerical stability.
		q := chosen
		for i := chosen + 1; i < len(cands); i++ {
			if cands[i].ratio > cands[chosen].ratio+dtol/math.Abs(cands[i].alpha) {
				break
			}
			if math.Abs(cands[i].alpha) > math.Abs(cands[q].alpha) {
				q = i
			}
		}
		enter := cands[q].j
		thetaDual := cands[q].ratio

		// Entering column through the factorization.
		for i := range s.colv {
			s.colv[i] = 0
		}
		s.augColAxpy(enter, 1, s.colv)
		s.f.Ftran(s.colv)
		pivot := s.colv[r]
		if math.Abs(pivot) <= tolPiv {
			// The priced row and the solved column disagree: stale
			// factors. Refactorize and retry; crash if it recurs.
			s.crashes++
			if s.crashes > maxCrashes {
				return lp.NotSolved, true
			}
			if err := s.factorize(); err != nil {
				s.crashSlack()
			}
			continue
		}

		s.updateWeights(r, pivot)

		// Exchange: the leaving variable settles on its violated
		// bound, the entering variable joins the basis.
		if below {
			s.status[leave] = NonbasicLower
			s.x[leave] = s.lower[leave]
		} else {
			s.status[leave] = NonbasicUpper
			s.x[leave] = s.upper[leave]
		}
		s.status[enter] = Basic
		s.basicIdx[r] = enter
		if err := s.f.Update(r, s.colv); err != nil {
			if err := s.factorize(); err != nil {
				s.crashSlack()
			}
		}

		// Cycling guard: bounded run of pivots without dual objective
		// improvement triggers the crash/handoff policy.
		if thetaDual*rem <= degenStep {
			degen++
		} else {
			degen = 0
		}
		if degen > degenLimit {
			s.crashSlack()
			return lp.NotSolved, true
		}

		s.opt.Log.Printf(lp.LogIteration, "dual it %d obj %.8g infeas %.3g\n",
			s.lim.Iterations, s.objective(), rem)
	}
}

// repairDualByFlips flips boxed nonbasic variables whose reduced cost
// has the wrong sign for their bound. ok is false when a wrong-sign
// variable has no opposite bound to flip to.
func (s *solver) repairDualByFlips(dtol float64) (ok, flipped bool) {
	ok = true
	for j := 0; j < s.total; j++ {
		if s.fixed(j) {
			continue
		}
		switch s.status[j] {
		case NonbasicLower:
			if s.d[j] < -dtol {
				if math.IsInf(s.upper[j], 1) {
					ok = false
					continue
				}
				s.flipBound(j)
				flipped = true
			}
		case NonbasicUpper:
			if s.d[j] > dtol {
				if math.IsInf(s.lower[j], -1) {
					ok = false
					continue
				}
				s.flipBound(j)
				flipped = true
			}
		case NonbasicFree:
			if math.Abs(s.d[j]) > dtol {
				ok = false
			}
		}
	}
	return ok, flipped
}

// flipBound moves a boxed nonbasic variable to its other bound.
func (s *solver) flipBound(j int) {
	if s.status[j] == NonbasicLower {
		s.status[j] = NonbasicUpper
		s.x[j] = s.upper[j]
	} else {
		s.status[j] = NonbasicLower
		s.x[j] = s.lower[j]
	}
}

// updateWeights applies the Forrest–Goldfarb recurrence to the dual
// steepest-edge weights after a pivot on position r, using
// τ = B⁻¹ρ_r and the entering column already held in colv.
func (s *solver) updateWeights(r int, pivot float64) {
	copy(s.tau, s.rho)
	s.f.Ftran(s.tau)
	wr := math.Max(s.dse[r], dseMin)
	for k := range s.dse {
		if k == r {
			continue
		}
		aq := s.colv[k]
		if aq == 0 {
			continue
		}
		t := aq / pivot
		w := s.dse[k] - 2*t*s.tau[k] + t*t*wr
		s.dse[k] = math.Max(w, dseMin)
	}
	s.dse[r] = math.Max(wr/(pivot*pivot), dseMin)
}
