// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simplex

import (
	"math"

	"github.com/curioloop/linopt/lp"
)

const blandAfter = 50

// runPrimal iterates the primal simplex method: primal feasibility is
// restored in phase 1 by a composite infeasibility objective and held
// afterwards while reduced costs are driven to the correct sign.
// It is the fallback whenever the dual method cannot establish a
// dual-feasible basis or trips its degeneracy guard.
func (s *solver) runPrimal() (lp.Status, error) {
	ptol, dtol := s.opt.PrimalFeasTol, s.opt.DualFeasTol
	tolPiv := math.Max(1e-9, s.opt.PivotTol)
	bland := false
	degen := 0
	aux := make([]float64, s.total)

	for {
		if st, stop := s.checkpoint(); stop {
			return st, nil
		}
		s.refactorIfNeeded()
		s.computeBasics()

		// Phase 1 minimizes the sum of bound violations of the basic
		// variables under a piecewise-linear composite cost,
		// re-linearized every iteration.
		_, worst := s.infeasibility()
		phase1 := worst > ptol
		costv := s.cost
		if phase1 {
			for j := range aux {
				aux[j] = 0
			}
			for _, j := range s.basicIdx {
				if s.x[j] < s.lower[j]-ptol {
					aux[j] = -1
				} else if s.x[j] > s.upper[j]+ptol {
					aux[j] = 1
				}
			}
			costv = aux
		}
		s.computeDuals(costv)

		// Pricing: Dantzig rule on the active cost, switching to
		// Bland's lowest-index rule once the cycling guard fires.
		enter := -1
		dir := 0.0
		score := dtol
		for j := 0; j < s.total; j++ {
			if s.status[j] == Basic || s.fixed(j) {
				continue
			}
			d := s.d[j]
			var dj float64
			switch s.status[j] {
			case NonbasicLower:
				if d < -dtol {
					dj = 1
				}
			case NonbasicUpper:
				if d > dtol {
					dj = -1
				}
			case NonbasicFree:
				if d < -dtol {
					dj = 1
				} else if d > dtol {
					dj = -1
				}
			}
			if dj == 0 {
				continue
			}
			if bland {
				enter, dir = j, dj
				break
			}
			if math.Abs(d) > score {
				score, enter, dir = math.Abs(d), j, dj
			}
		}
		if enter < 0 {
			if phase1 {
				// The auxiliary objective is optimal but positive:
				// no feasible point exists.
				return lp.Infeasible, nil
			}
			return lp.Optimal, nil
		}

		// Entering column and ratio test. The entering variable moves
		// by dir·t, each basic at position k at rate −dir·colv[k].
		for i := range s.colv {
			s.colv[i] = 0
		}
		s.augColAxpy(enter, 1, s.colv)
		s.f.Ftran(s.colv)

		tBound := math.Inf(1)
		if s.status[enter] != NonbasicFree && s.boxed(enter) {
			tBound = s.upper[enter] - s.lower[enter]
		}

		type blocker struct {
			k      int
			ratio  float64
			rate   float64
			target float64
		}
		var blockers []blocker
		tMax := tBound
		for k, j := range s.basicIdx {
			rate := -dir * s.colv[k]
			if math.Abs(rate) <= tolPiv {
				continue
			}
			x, lo, up := s.x[j], s.lower[j], s.upper[j]
			var target float64
			if rate < 0 {
				switch {
				case x > up+ptol:
					// Infeasible above and improving: block at the
					// violated bound to re-linearize the phase-1 cost.
					target = up
				case x < lo-ptol:
					// Infeasible below and worsening: no block, the
					// composite cost accounts for it.
					continue
				case !math.IsInf(lo, -1):
					target = lo
				default:
					continue
				}
			} else {
				switch {
				case x < lo-ptol:
					target = lo
				case x > up+ptol:
					continue
				case !math.IsInf(up, 1):
					target = up
				default:
					continue
				}
			}
			ratio := math.Max((target-x)/rate, 0)
			blockers = append(blockers, blocker{k, ratio, rate, target})
			if relaxed := ratio + ptol/math.Abs(rate); relaxed < tMax {
				tMax = relaxed
			}
		}

		if math.IsInf(tMax, 1) && len(blockers) == 0 {
			if phase1 {
				// An unbounded auxiliary ray cannot occur with intact
				// factors; rebuild once, then give up.
				if s.crashes < maxCrashes {
					s.crashSlack()
					bland = false
					continue
				}
				return lp.NotSolved, ErrNumerical
			}
			return lp.Unbounded, nil
		}

		// Harris second pass: among blockers within the relaxed step
		// take the largest pivot magnitude; Bland mode takes the
		// strictly smallest ratio instead.
		leaveIdx := -1
		for i, b := range blockers {
			if b.ratio > tMax {
				continue
			}
			if leaveIdx < 0 {
				leaveIdx = i
				continue
			}
			l := blockers[leaveIdx]
			if bland {
				if b.ratio < l.ratio || (b.ratio == l.ratio && s.basicIdx[b.k] < s.basicIdx[l.k]) {
					leaveIdx = i
				}
			} else if math.Abs(b.rate) > math.Abs(l.rate) {
				leaveIdx = i
			}
		}

		if leaveIdx < 0 || tBound <= blockers[leaveIdx].ratio {
			// The entering variable reaches its opposite bound before
			// any basic blocks: a bound flip, no pivot needed.
			s.flipBound(enter)
			continue
		}

		b := blockers[leaveIdx]
		leave := s.basicIdx[b.k]
		if b.target == s.lower[leave] {
			s.status[leave] = NonbasicLower
		} else {
			s.status[leave] = NonbasicUpper
		}
		s.x[leave] = b.target
		s.x[enter] += dir * b.ratio
		s.status[enter] = Basic
		s.basicIdx[b.k] = enter
		if err := s.f.Update(b.k, s.colv); err != nil {
			if err := s.factorize(); err != nil {
				s.crashSlack()
			}
		}

		if b.ratio <= degenStep {
			if degen++; degen > blandAfter {
				bland = true
			}
		} else {
			degen = 0
			bland = false
		}

		s.opt.Log.Printf(lp.LogIteration, "primal it %d obj %.8g phase1 %v\n",
			s.lim.Iterations, s.objective(), phase1)
	}
}
