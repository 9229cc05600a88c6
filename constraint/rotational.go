package constraint

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RotationalEquation keeps the angle between a world axis of A and a world axis of B under MaxAngle.
// With the default MaxAngle of π/2 it keeps the two axes perpendicular.
type RotationalEquation struct {
	BaseEquation

	AxisA    mgl64.Vec3
	AxisB    mgl64.Vec3
	MaxAngle float64
}

func NewRotationalEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *RotationalEquation {
	return &RotationalEquation{
		BaseEquation: NewBaseEquation(bodyA, bodyB, -maxForce, maxForce),
		AxisA:        mgl64.Vec3{1, 0, 0},
		AxisB:        mgl64.Vec3{0, 1, 0},
		MaxAngle:     math.Pi / 2,
	}
}

// ComputeB builds G = [0, nj×ni, 0, ni×nj], g = cos(MaxAngle) - ni·nj
func (r *RotationalEquation) ComputeB(h float64) float64 {
	return angularB(&r.BaseEquation, r.AxisA, r.AxisB, r.MaxAngle, h)
}

// ConeEquation keeps axis B inside a cone of half angle Angle around axis A.
type ConeEquation struct {
	BaseEquation

	AxisA mgl64.Vec3
	AxisB mgl64.Vec3
	Angle float64
}

func NewConeEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *ConeEquation {
	return &ConeEquation{
		BaseEquation: NewBaseEquation(bodyA, bodyB, -maxForce, maxForce),
		AxisA:        mgl64.Vec3{1, 0, 0},
		AxisB:        mgl64.Vec3{0, 1, 0},
	}
}

func (c *ConeEquation) ComputeB(h float64) float64 {
	return angularB(&c.BaseEquation, c.AxisA, c.AxisB, c.Angle, h)
}

func angularB(e *BaseEquation, ni, nj mgl64.Vec3, angle, h float64) float64 {
	e.JacobianA = JacobianElement{Rotational: nj.Cross(ni)}
	e.JacobianB = JacobianElement{Rotational: ni.Cross(nj)}

	g := math.Cos(angle) - ni.Dot(nj)
	GW := e.ComputeGW()
	GiMf := e.ComputeGiMf()

	return -g*e.A - GW*e.B - h*GiMf
}

// RotationalMotorEquation drives the relative angular velocity around two world axes
// towards TargetVelocity.
type RotationalMotorEquation struct {
	BaseEquation

	AxisA          mgl64.Vec3
	AxisB          mgl64.Vec3
	TargetVelocity float64
}

func NewRotationalMotorEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *RotationalMotorEquation {
	return &RotationalMotorEquation{
		BaseEquation: NewBaseEquation(bodyA, bodyB, -maxForce, maxForce),
	}
}

// ComputeB builds G = [0, axisA, 0, -axisB]. There is no position error.
func (m *RotationalMotorEquation) ComputeB(h float64) float64 {
	m.JacobianA = JacobianElement{Rotational: m.AxisA}
	m.JacobianB = JacobianElement{Rotational: m.AxisB.Mul(-1)}

	GW := m.ComputeGW() - m.TargetVelocity
	GiMf := m.ComputeGiMf()

	return -GW*m.B - h*GiMf
}
