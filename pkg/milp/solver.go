package milp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusUnknown means the limit was hit before any solution was found.
	StatusUnknown Status = iota
	// StatusOptimal means the search finished and the solution is optimal.
	StatusOptimal
	// StatusFeasible means a solution was found but optimality is unproven.
	StatusFeasible
	// StatusInfeasible means the search finished without any solution.
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name written by MarshalText.
func (s *Status) UnmarshalText(b []byte) error {
	for _, st := range []Status{StatusUnknown, StatusOptimal, StatusFeasible, StatusInfeasible} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("milp: unknown status %q", b)
}

// HasSolution reports whether a solution came with this status.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

const (
	// DefaultMaxTime caps a solve when Options.MaxTime is zero.
	DefaultMaxTime = 500 * time.Second

	// DefaultNumWorkers is used when Options.NumWorkers is zero.
	DefaultNumWorkers = 8

	// DefaultMaxDenseEntries bounds rows×columns of the relaxation matrix.
	DefaultMaxDenseEntries = 4_000_000
)

// Options controls a solve.
type Options struct {
	MaxTime         time.Duration
	NumWorkers      int
	MaxDenseEntries int
	Logger          *log.Logger
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.MaxTime <= 0 {
		o.MaxTime = DefaultMaxTime
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = DefaultNumWorkers
	}
	if o.MaxDenseEntries <= 0 {
		o.MaxDenseEntries = DefaultMaxDenseEntries
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Solution is what a solver found. Values is nil unless Status.HasSolution.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int64
	Elapsed   time.Duration
}

// Value returns the value of v, or 0 without a solution.
func (s *Solution) Value(v Var) float64 {
	if s.Values == nil {
		return 0
	}
	return s.Values[v]
}

// Solver solves a Model. Non-convergence is reported through the status;
// errors are reserved for malformed models.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts Options) (*Solution, error)
}
