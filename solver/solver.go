// Package solver turns the equations of a step into velocity corrections.
//
// Equations are solved with SPOOK-stabilized projected Gauss-Seidel: each equation is
// relaxed in turn using the lambda velocities left by the others, and its accumulated
// multiplier is clamped to the force bounds of the equation.
//
// References:
//   - Lacoursière: "Ghosts and Machines: Regularized Variational Methods for
//     Interactive Simulations of Multibodies with Dry Frictional Contacts" (2007)
//   - Catto: "Iterative Dynamics with Temporal Coherence" (2005)
package solver

import (
	"io"
	"log/slog"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

const (
	DefaultIterations = 10
	DefaultTolerance  = 1e-7
)

// Solver solves a set of equations over a set of bodies.
// Solve returns the number of iterations (GSSolver) or islands (SplitSolver).
type Solver interface {
	AddEquation(eq constraint.Equation)
	RemoveEquation(eq constraint.Equation)
	RemoveAllEquations()
	Equations() []constraint.Equation
	Solve(dt float64, bodies []*actor.RigidBody) int
}

// equationList is shared by the solvers
type equationList struct {
	equations []constraint.Equation
}

// AddEquation appends eq, disabled equations are ignored
func (l *equationList) AddEquation(eq constraint.Equation) {
	if eq.Base().Enabled {
		l.equations = append(l.equations, eq)
	}
}

func (l *equationList) RemoveEquation(eq constraint.Equation) {
	if i := slices.Index(l.equations, eq); i >= 0 {
		l.equations = slices.Delete(l.equations, i, i+1)
	}
}

func (l *equationList) RemoveAllEquations() {
	clear(l.equations)
	l.equations = l.equations[:0]
}

func (l *equationList) Equations() []constraint.Equation {
	return l.equations
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discardLogger
	}
	return logger
}
