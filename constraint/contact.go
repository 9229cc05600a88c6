package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactEquation keeps two bodies from interpenetrating at one contact point.
type ContactEquation struct {
	BaseEquation

	// Restitution is the bounciness: the separating velocity is -Restitution times the approach velocity
	Restitution float64

	// Ri goes from the center of body A to the contact point, world oriented
	Ri mgl64.Vec3
	// Rj goes from the center of body B to the contact point, world oriented
	Rj mgl64.Vec3
	// Ni is the contact normal, pointing out of body A
	Ni mgl64.Vec3

	// Leaf shapes in contact
	ShapeA actor.ShapeInterface
	ShapeB actor.ShapeInterface
}

// NewContactEquation returns a one sided equation bounded by [0, maxForce]
func NewContactEquation(bodyA, bodyB *actor.RigidBody, maxForce float64) *ContactEquation {
	c := &ContactEquation{}
	c.Reset(bodyA, bodyB, maxForce)

	return c
}

// Reset reinitializes a pooled equation
func (c *ContactEquation) Reset(bodyA, bodyB *actor.RigidBody, maxForce float64) {
	*c = ContactEquation{
		BaseEquation: NewBaseEquation(bodyA, bodyB, 0, maxForce),
	}
}

// ComputeB builds the Jacobian G = [-n, -(ri×n), n, rj×n] and returns the SPOOK right hand side,
// where the violation g is the signed gap along the normal and the velocity term includes restitution.
func (c *ContactEquation) ComputeB(h float64) float64 {
	bi, bj := c.BodyA, c.BodyB
	n := c.Ni

	rixn := c.Ri.Cross(n)
	rjxn := c.Rj.Cross(n)

	c.JacobianA = JacobianElement{Spatial: n.Mul(-1), Rotational: rixn.Mul(-1)}
	c.JacobianB = JacobianElement{Spatial: n, Rotational: rjxn}

	// g = xj+rj -(xi+ri)
	penetration := bj.Transform.Position.Add(c.Rj).Sub(bi.Transform.Position).Sub(c.Ri)
	g := n.Dot(penetration)

	ePlusOne := c.Restitution + 1
	GW := ePlusOne*bj.Velocity.Dot(n) - ePlusOne*bi.Velocity.Dot(n) + bj.AngularVelocity.Dot(rjxn) - bi.AngularVelocity.Dot(rixn)
	GiMf := c.ComputeGiMf()

	return -g*c.A - GW*c.B - h*GiMf
}

// ImpactVelocityAlongNormal is the relative velocity of the contact points, along the normal.
// It is positive when the bodies approach each other.
func (c *ContactEquation) ImpactVelocityAlongNormal() float64 {
	xi := c.BodyA.Transform.Position.Add(c.Ri)
	xj := c.BodyB.Transform.Position.Add(c.Rj)

	vi := c.BodyA.VelocityAtWorldPoint(xi)
	vj := c.BodyB.VelocityAtWorldPoint(xj)

	return c.Ni.Dot(vi.Sub(vj))
}

// FrictionEquation limits the relative tangential velocity at a contact point.
type FrictionEquation struct {
	BaseEquation

	Ri mgl64.Vec3
	Rj mgl64.Vec3
	// T is the tangent direction
	T mgl64.Vec3

	ShapeA actor.ShapeInterface
	ShapeB actor.ShapeInterface
}

// NewFrictionEquation returns an equation bounded by [-slipForce, slipForce]
func NewFrictionEquation(bodyA, bodyB *actor.RigidBody, slipForce float64) *FrictionEquation {
	f := &FrictionEquation{}
	f.Reset(bodyA, bodyB, slipForce)

	return f
}

// Reset reinitializes a pooled equation
func (f *FrictionEquation) Reset(bodyA, bodyB *actor.RigidBody, slipForce float64) {
	*f = FrictionEquation{
		BaseEquation: NewBaseEquation(bodyA, bodyB, -slipForce, slipForce),
	}
}

// ComputeB builds G = [-t, -(ri×t), t, rj×t]. Friction has no position error to correct.
func (f *FrictionEquation) ComputeB(h float64) float64 {
	rixt := f.Ri.Cross(f.T)
	rjxt := f.Rj.Cross(f.T)

	f.JacobianA = JacobianElement{Spatial: f.T.Mul(-1), Rotational: rixt.Mul(-1)}
	f.JacobianB = JacobianElement{Spatial: f.T, Rotational: rjxt}

	GW := f.ComputeGW()
	GiMf := f.ComputeGiMf()

	return -GW*f.B - h*GiMf
}
