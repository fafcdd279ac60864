// Copyright ©2026 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lp

import (
	"fmt"
	"io"
	"time"
)

// Strategy selects the simplex variant driving the solve.
type Strategy int

const (
	// StrategyDual runs the dual simplex method, falling back to the
	// primal method when no dual-feasible start exists.
	StrategyDual Strategy = iota
	// StrategyPrimal runs the primal simplex method directly.
	StrategyPrimal
)

// LogLevel controls solver progress output.
type LogLevel int

const (
	// LogNone produces no output.
	LogNone LogLevel = iota
	// LogSummary prints one line per solve stage.
	LogSummary
	// LogIteration prints periodic iteration and node progress.
	LogIteration
)

// Logger writes solver progress. The zero value is silent.
type Logger struct {
	Level LogLevel
	Out   io.Writer
}

// Enabled reports whether the given level produces output.
func (l *Logger) Enabled(level LogLevel) bool {
	return l != nil && l.Out != nil && l.Level >= level
}

// Printf writes a progress line when the level is enabled.
func (l *Logger) Printf(level LogLevel, format string, a ...any) {
	if l.Enabled(level) {
		_, _ = fmt.Fprintf(l.Out, format, a...)
	}
}

// Options carries the numeric tolerances and resource limits threaded
// through every component call. Solves sharing an Options value never
// mutate it, so independent instances stay reproducible.
type Options struct {
	// PrimalFeasTol bounds the accepted violation of primal bounds.
	PrimalFeasTol float64
	// DualFeasTol bounds the accepted violation of reduced-cost signs.
	DualFeasTol float64
	// PivotTol is the smallest pivot magnitude accepted by the
	// factorization and the ratio tests.
	PivotTol float64
	// IntegerTol is the distance from an integer within which a value
	// counts as integral.
	IntegerTol float64

	// TimeLimit caps wall time for the whole solve. Zero means none.
	TimeLimit time.Duration
	// IterationLimit caps total simplex iterations. Zero means none.
	IterationLimit int
	// NodeLimit caps explored branch-and-bound nodes. Zero means none.
	NodeLimit int

	// Presolve enables the reduction pass before simplex.
	Presolve bool
	// Strategy selects the simplex variant.
	Strategy Strategy

	// Log receives progress output.
	Log Logger
}

// DefaultOptions returns the standard tolerances and limits.
func DefaultOptions() *Options {
	return &Options{
		PrimalFeasTol: 1e-7,
		DualFeasTol:   1e-7,
		PivotTol:      1e-10,
		IntegerTol:    1e-6,
		Presolve:      true,
		Strategy:      StrategyDual,
	}
}

// Normalize fills zero tolerance fields with defaults and
// returns the receiver for chaining.
func (o *Options) Normalize() *Options {
	d := DefaultOptions()
	if o.PrimalFeasTol <= 0 {
		o.PrimalFeasTol = d.PrimalFeasTol
	}
	if o.DualFeasTol <= 0 {
		o.DualFeasTol = d.DualFeasTol
	}
	if o.PivotTol <= 0 {
		o.PivotTol = d.PivotTol
	}
	if o.IntegerTol <= 0 {
		o.IntegerTol = d.IntegerTol
	}
	return o
}

// Limits tracks the shared cancellation state of one solve invocation.
// It is consulted only at well-defined checkpoints: the start of a
// simplex iteration or of a branch-and-bound node.
type Limits struct {
	deadline   time.Time
	iterations int
	nodes      int
	Iterations int // total simplex iterations consumed
	Nodes      int // total nodes explored
}

// NewLimits starts the clocks for one solve using the option limits.
func NewLimits(o *Options) *Limits {
	l := &Limits{iterations: o.IterationLimit, nodes: o.NodeLimit}
	if o.TimeLimit > 0 {
		l.deadline = time.Now().Add(o.TimeLimit)
	}
	return l
}

// TimedOut reports whether the wall-time budget is exhausted.
func (l *Limits) TimedOut() bool {
	return !l.deadline.IsZero() && time.Now().After(l.deadline)
}

// NextIteration consumes one simplex iteration and reports whether the
// iteration budget is exhausted.
func (l *Limits) NextIteration() (exhausted bool) {
	l.Iterations++
	return l.iterations > 0 && l.Iterations > l.iterations
}

// NextNode consumes one branch-and-bound node and reports whether the
// node budget is exhausted.
func (l *Limits) NextNode() (exhausted bool) {
	l.Nodes++
	return l.nodes > 0 && l.Nodes > l.nodes
}
