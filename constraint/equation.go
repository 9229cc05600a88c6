package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultMaxForce bounds the force any equation may apply, in both directions
	DefaultMaxForce = 1e6

	// SPOOK defaults, for a 60Hz step
	DefaultStiffness  = 1e7
	DefaultRelaxation = 4
	DefaultTimeStep   = 1.0 / 60.0
)

// JacobianElement is the part of a constraint Jacobian acting on one body:
// a linear row and an angular row.
type JacobianElement struct {
	Spatial    mgl64.Vec3
	Rotational mgl64.Vec3
}

// MultiplyElement returns the dot product with another element
func (j JacobianElement) MultiplyElement(other JacobianElement) float64 {
	return j.Spatial.Dot(other.Spatial) + j.Rotational.Dot(other.Rotational)
}

// MultiplyVectors returns Spatial·spatial + Rotational·rotational
func (j JacobianElement) MultiplyVectors(spatial, rotational mgl64.Vec3) float64 {
	return j.Spatial.Dot(spatial) + j.Rotational.Dot(rotational)
}

// Equation is one scalar row of the constraint system solved by the solver.
//
// ComputeB must run before ComputeC: it is where the Jacobian of the current
// configuration is built.
type Equation interface {
	Base() *BaseEquation
	ComputeB(h float64) float64
	ComputeC() float64
	ComputeGWlambda() float64
	AddToWlambda(deltaLambda float64)
}

// BaseEquation holds the state shared by every equation, and the generic
// G·q, G·W and G·M⁻¹·f products over the Jacobian.
type BaseEquation struct {
	MinForce float64
	MaxForce float64

	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	// SPOOK parameters
	A   float64
	B   float64
	Eps float64

	JacobianA JacobianElement
	JacobianB JacobianElement

	Enabled bool

	// Multiplier is the force applied by the last solve (λ/h)
	Multiplier float64
}

// NewBaseEquation returns an enabled equation with the default SPOOK parameters
func NewBaseEquation(bodyA, bodyB *actor.RigidBody, minForce, maxForce float64) BaseEquation {
	e := BaseEquation{
		MinForce: minForce,
		MaxForce: maxForce,
		BodyA:    bodyA,
		BodyB:    bodyB,
		Enabled:  true,
	}
	e.SetSpookParams(DefaultStiffness, DefaultRelaxation, DefaultTimeStep)

	return e
}

func (e *BaseEquation) Base() *BaseEquation {
	return e
}

// SetSpookParams derives a, b and eps from the stiffness k, the relaxation d
// (number of steps to stabilize) and the step h.
func (e *BaseEquation) SetSpookParams(stiffness, relaxation, timeStep float64) {
	d := relaxation
	k := stiffness
	h := timeStep

	e.A = 4.0 / (h * (1 + 4*d))
	e.B = (4.0 * d) / (1 + 4*d)
	e.Eps = 4.0 / (h * h * k * (1 + 4*d))
}

// ComputeB is the generic right hand side: B = -G·q·a - G·W·b - h·G·M⁻¹·f
func (e *BaseEquation) ComputeB(h float64) float64 {
	return -e.ComputeGq()*e.A - e.ComputeGW()*e.B - h*e.ComputeGiMf()
}

// ComputeGq is the constraint violation measured through the Jacobian
func (e *BaseEquation) ComputeGq() float64 {
	return e.JacobianA.Spatial.Dot(e.BodyA.Transform.Position) + e.JacobianB.Spatial.Dot(e.BodyB.Transform.Position)
}

// ComputeGW is the relative velocity along the constraint
func (e *BaseEquation) ComputeGW() float64 {
	return e.JacobianA.MultiplyVectors(e.BodyA.Velocity, e.BodyA.AngularVelocity) +
		e.JacobianB.MultiplyVectors(e.BodyB.Velocity, e.BodyB.AngularVelocity)
}

// ComputeGWlambda is the relative lambda velocity along the constraint
func (e *BaseEquation) ComputeGWlambda() float64 {
	return e.JacobianA.MultiplyVectors(e.BodyA.VLambda, e.BodyA.WLambda) +
		e.JacobianB.MultiplyVectors(e.BodyB.VLambda, e.BodyB.WLambda)
}

// ComputeGiMf projects the external forces of both bodies through M⁻¹ and the Jacobian
func (e *BaseEquation) ComputeGiMf() float64 {
	bi, bj := e.BodyA, e.BodyB

	iMfi := bi.Force().Mul(bi.InvMassSolve)
	iMfj := bj.Force().Mul(bj.InvMassSolve)
	invIiTaui := bi.InvInertiaWorldSolve.Mul3x1(bi.Torque())
	invIjTauj := bj.InvInertiaWorldSolve.Mul3x1(bj.Torque())

	return e.JacobianA.MultiplyVectors(iMfi, invIiTaui) + e.JacobianB.MultiplyVectors(iMfj, invIjTauj)
}

// ComputeGiMGt is the effective inverse mass G·M⁻¹·Gᵀ
func (e *BaseEquation) ComputeGiMGt() float64 {
	bi, bj := e.BodyA, e.BodyB
	GA, GB := e.JacobianA, e.JacobianB

	result := bi.InvMassSolve + bj.InvMassSolve
	result += bi.InvInertiaWorldSolve.Mul3x1(GA.Rotational).Dot(GA.Rotational)
	result += bj.InvInertiaWorldSolve.Mul3x1(GB.Rotational).Dot(GB.Rotational)

	return result
}

// ComputeC is G·M⁻¹·Gᵀ + eps
func (e *BaseEquation) ComputeC() float64 {
	return e.ComputeGiMGt() + e.Eps
}

// AddToWlambda adds the velocity change caused by deltaLambda to the lambda velocities of both bodies
func (e *BaseEquation) AddToWlambda(deltaLambda float64) {
	bi, bj := e.BodyA, e.BodyB
	GA, GB := e.JacobianA, e.JacobianB

	bi.VLambda = bi.VLambda.Add(GA.Spatial.Mul(bi.InvMassSolve * deltaLambda))
	bj.VLambda = bj.VLambda.Add(GB.Spatial.Mul(bj.InvMassSolve * deltaLambda))

	bi.WLambda = bi.WLambda.Add(bi.InvInertiaWorldSolve.Mul3x1(GA.Rotational).Mul(deltaLambda))
	bj.WLambda = bj.WLambda.Add(bj.InvInertiaWorldSolve.Mul3x1(GB.Rotational).Mul(deltaLambda))
}
