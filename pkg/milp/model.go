package milp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownVar is returned when a term references a variable that was
	// not created by the same model.
	ErrUnknownVar = errors.New("milp: unknown variable")

	// ErrInvalidBounds is returned by [Model.AddVar] when lower > upper or
	// the lower bound is not finite.
	ErrInvalidBounds = errors.New("milp: invalid variable bounds")

	// ErrViolated is returned by [Model.Check] for an assignment that breaks
	// a bound, a constraint or integrality.
	ErrViolated = errors.New("milp: assignment violates the model")

	// ErrModelTooLarge is returned when the dense LP relaxation would exceed
	// [Options.MaxDenseEntries].
	ErrModelTooLarge = errors.New("milp: model too large for the dense simplex")
)

// Kind is the domain of a variable.
type Kind int

const (
	Continuous Kind = iota
	Integer
	Binary
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sense is the relation of a constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	}
	return fmt.Sprintf("Sense(%d)", int(s))
}

// Var is a handle to a model variable.
type Var int

// Term is a coefficient times a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Constraint is a linear row: sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a minimization problem over bounded variables. Build it with the
// Add methods; solvers treat it as read-only.
type Model struct {
	names     []string
	kinds     []Kind
	lower     []float64
	upper     []float64
	cons      []Constraint
	objective []Term
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// AddVar adds a variable with bounds [lo, hi]. hi may be +Inf. Binary
// variables are clamped to [0, 1].
func (m *Model) AddVar(name string, kind Kind, lo, hi float64) (Var, error) {
	if kind == Binary {
		lo, hi = max(lo, 0), min(hi, 1)
	}
	if math.IsInf(lo, 0) || math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return -1, fmt.Errorf("%w: %s in [%g, %g]", ErrInvalidBounds, name, lo, hi)
	}
	m.names = append(m.names, name)
	m.kinds = append(m.kinds, kind)
	m.lower = append(m.lower, lo)
	m.upper = append(m.upper, hi)
	return Var(len(m.names) - 1), nil
}

// AddBinary adds a 0/1 variable.
func (m *Model) AddBinary(name string) Var {
	v, _ := m.AddVar(name, Binary, 0, 1)
	return v
}

// AddContinuous adds a continuous variable in [lo, +Inf).
func (m *Model) AddContinuous(name string, lo float64) (Var, error) {
	return m.AddVar(name, Continuous, lo, math.Inf(1))
}

// AddConstraint appends a row. Terms naming the same variable are summed.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) error {
	if err := m.checkTerms(terms); err != nil {
		return fmt.Errorf("constraint %s: %w", name, err)
	}
	m.cons = append(m.cons, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return nil
}

// Minimize sets the objective.
func (m *Model) Minimize(terms []Term) error {
	if err := m.checkTerms(terms); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = terms
	return nil
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.names) }

// NumConstraints returns the number of rows, excluding variable bounds.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Name returns the name a variable was created with.
func (m *Model) Name(v Var) string { return m.names[v] }

// Kind returns the domain of a variable.
func (m *Model) Kind(v Var) Kind { return m.kinds[v] }

// Constraints returns the rows in insertion order.
func (m *Model) Constraints() []Constraint { return m.cons }

// Evaluate returns the objective value of an assignment.
func (m *Model) Evaluate(values []float64) float64 {
	total := 0.0
	for _, t := range m.objective {
		total += t.Coef * values[t.Var]
	}
	return total
}

// Check reports whether values satisfies every bound, row and integrality
// requirement within tol.
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.names) {
		return fmt.Errorf("%w: %d values for %d variables", ErrViolated, len(values), len(m.names))
	}
	for i, x := range values {
		if x < m.lower[i]-tol || x > m.upper[i]+tol {
			return fmt.Errorf("%w: %s = %g outside [%g, %g]", ErrViolated, m.names[i], x, m.lower[i], m.upper[i])
		}
		if m.kinds[i] != Continuous && math.Abs(x-math.Round(x)) > tol {
			return fmt.Errorf("%w: %s = %g is not integral", ErrViolated, m.names[i], x)
		}
	}
	for _, c := range m.cons {
		lhs := 0.0
		for _, t := range c.Terms {
			lhs += t.Coef * values[t.Var]
		}
		ok := true
		switch c.Sense {
		case LessEq:
			ok = lhs <= c.RHS+tol
		case GreaterEq:
			ok = lhs >= c.RHS-tol
		case Equal:
			ok = math.Abs(lhs-c.RHS) <= tol
		}
		if !ok {
			return fmt.Errorf("%w: %s: %g %v %g", ErrViolated, c.Name, lhs, c.Sense, c.RHS)
		}
	}
	return nil
}

func (m *Model) checkTerms(terms []Term) error {
	for _, t := range terms {
		if t.Var < 0 || int(t.Var) >= len(m.names) {
			return fmt.Errorf("%w: %d", ErrUnknownVar, t.Var)
		}
	}
	return nil
}
