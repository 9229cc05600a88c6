package solver

import (
	"log/slog"
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// GSSolver is a projected Gauss-Seidel solver.
// It stops after Iterations passes, or earlier once the total change of the
// multipliers during a pass falls under Tolerance.
type GSSolver struct {
	equationList

	Iterations int
	Tolerance  float64
	Logger     *slog.Logger

	lambda []float64
	bs     []float64
	invCs  []float64
	active []bool
}

func NewGSSolver() *GSSolver {
	return &GSSolver{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// Lambda returns the multiplier accumulated by the last solve for equation i
func (s *GSSolver) Lambda(i int) float64 {
	return s.lambda[i]
}

// Solve relaxes the equations over the bodies for a step dt, then adds the resulting
// lambda velocities to the body velocities. It returns the number of iterations run.
func (s *GSSolver) Solve(dt float64, bodies []*actor.RigidBody) int {
	equations := s.equations
	count := len(equations)
	if count == 0 {
		return 0
	}

	logger := loggerOrDiscard(s.Logger)
	h := dt
	tolSquared := s.Tolerance * s.Tolerance

	for _, body := range bodies {
		body.UpdateSolveMassProperties()
	}

	s.lambda = resize(s.lambda, count)
	s.bs = resize(s.bs, count)
	s.invCs = resize(s.invCs, count)
	s.active = resize(s.active, count)

	// ========== PRÉCALCUL ==========
	// B construit le jacobien, il doit précéder C
	for i, eq := range equations {
		s.lambda[i] = 0
		s.bs[i] = eq.ComputeB(h)
		s.invCs[i] = 1.0 / eq.ComputeC()

		s.active[i] = isFinite(s.bs[i]) && isFinite(s.invCs[i])
		if !s.active[i] {
			logger.Debug("equation skipped for this step",
				slog.Int("index", i),
				slog.Float64("B", s.bs[i]),
				slog.Float64("invC", s.invCs[i]),
			)
		}
	}

	for _, body := range bodies {
		body.VLambda = mgl64.Vec3{}
		body.WLambda = mgl64.Vec3{}
	}

	// ========== ITÉRATIONS ==========
	iter := 0
	for iter = 0; iter < s.Iterations; iter++ {
		deltaLambdaTot := 0.0

		for j, eq := range equations {
			if !s.active[j] {
				continue
			}
			base := eq.Base()

			lambdaj := s.lambda[j]
			GWlambda := eq.ComputeGWlambda()
			deltaLambda := s.invCs[j] * (s.bs[j] - GWlambda - base.Eps*lambdaj)

			// Projection sur [minForce, maxForce]
			deltaLambda = actor.Clamp(lambdaj+deltaLambda, base.MinForce, base.MaxForce) - lambdaj

			s.lambda[j] += deltaLambda
			deltaLambdaTot += math.Abs(deltaLambda)

			eq.AddToWlambda(deltaLambda)
		}

		if deltaLambdaTot*deltaLambdaTot < tolSquared {
			break
		}
	}

	// ========== APPLICATION ==========
	for _, body := range bodies {
		body.VLambda = mulComponents(body.VLambda, body.LinearFactor)
		body.Velocity = body.Velocity.Add(body.VLambda)

		body.WLambda = mulComponents(body.WLambda, body.AngularFactor)
		body.AngularVelocity = body.AngularVelocity.Add(body.WLambda)
	}

	invDt := 1.0 / h
	for i, eq := range equations {
		eq.Base().Multiplier = s.lambda[i] * invDt
	}

	return iter
}

func mulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
