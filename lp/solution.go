// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lp

import "math"

// Status classifies the outcome of a solve. Proven infeasibility and
// unboundedness are first-class results, not errors; the limit
// statuses mark best-effort results that are not proven optimal.
type Status int

const (
	// NotSolved means no solve has produced a result yet.
	NotSolved Status = iota
	// Optimal means primal and dual feasibility hold within tolerance.
	Optimal
	// Infeasible means the problem is proven to have no feasible point.
	Infeasible
	// Unbounded means a feasible improving ray is proven to exist.
	Unbounded
	// TimeLimit means the wall-time budget expired first.
	TimeLimit
	// IterationLimit means the simplex iteration budget expired first.
	IterationLimit
	// NodeLimit means the branch-and-bound node budget expired first.
	NodeLimit
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case NotSolved:
		return "not solved"
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case TimeLimit:
		return "time limit exceeded"
	case IterationLimit:
		return "iteration limit exceeded"
	case NodeLimit:
		return "node limit exceeded"
	}
	return "unknown"
}

// Proven reports whether the status is a proven terminal outcome
// rather than a resource-limit stop.
func (s Status) Proven() bool {
	return s == Optimal || s == Infeasible || s == Unbounded
}

// Solution is the full-size result record returned to the caller.
type Solution struct {
	Status Status

	// ColValue holds primal values for all original columns and
	// ColDual their reduced costs. Values are present whenever an
	// incumbent exists, even under a limit status.
	ColValue []float64
	ColDual  []float64

	// RowValue holds the constraint activities A·x and RowDual the
	// constraint multipliers.
	RowValue []float64
	RowDual  []float64

	// Objective is the objective value at the reported point, in the
	// problem's own sense.
	Objective float64

	// Gap is the MIP integrality gap |incumbent − bound| /
	// max(1, |incumbent|). Zero for pure LPs and proven optima.
	Gap float64

	Iterations int
	Nodes      int
}

// HasValues reports whether primal values are populated.
func (s *Solution) HasValues() bool { return len(s.ColValue) > 0 }

// Feasibility summarises how well a solution satisfies its problem.
type Feasibility struct {
	MaxBoundViolation   float64
	MaxRowViolation     float64
	MaxIntegerViolation float64
}

// Check audits a solution against the problem it came from.
func (s *Solution) Check(p *Problem) Feasibility {
	var f Feasibility
	if !s.HasValues() {
		return f
	}
	viol := func(x, lo, up float64) float64 {
		return math.Max(lo-x, x-up)
	}
	for j, x := range s.ColValue {
		if v := viol(x, p.ColLower[j], p.ColUpper[j]); v > f.MaxBoundViolation {
			f.MaxBoundViolation = v
		}
		if p.Integrality != nil && p.Integrality[j] {
			if v := math.Abs(x - math.Round(x)); v > f.MaxIntegerViolation {
				f.MaxIntegerViolation = v
			}
		}
	}
	at := p.Matrix().Transpose()
	for i := 0; i < p.NumRow; i++ {
		v := at.ColDot(i, s.ColValue)
		if w := viol(v, p.RowLower[i], p.RowUpper[i]); w > f.MaxRowViolation {
			f.MaxRowViolation = w
		}
	}
	return f
}
