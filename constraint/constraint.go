package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is a user joint between two bodies, expressed as a set of equations.
// Update refreshes the equations from the current body poses, before each solve.
type Constraint interface {
	Equations() []Equation
	Update()
	Enable()
	Disable()
	Bodies() (*actor.RigidBody, *actor.RigidBody)
	// CollideConnected reports whether the two bodies still collide with each other
	CollideConnected() bool
}

type baseConstraint struct {
	bodyA            *actor.RigidBody
	bodyB            *actor.RigidBody
	equations        []Equation
	collideConnected bool
}

func newBaseConstraint(bodyA, bodyB *actor.RigidBody) baseConstraint {
	bodyA.Awake()
	bodyB.Awake()

	return baseConstraint{
		bodyA:            bodyA,
		bodyB:            bodyB,
		collideConnected: true,
	}
}

func (c *baseConstraint) Equations() []Equation {
	return c.equations
}

func (c *baseConstraint) Enable() {
	for _, eq := range c.equations {
		eq.Base().Enabled = true
	}
}

func (c *baseConstraint) Disable() {
	for _, eq := range c.equations {
		eq.Base().Enabled = false
	}
}

func (c *baseConstraint) Bodies() (*actor.RigidBody, *actor.RigidBody) {
	return c.bodyA, c.bodyB
}

func (c *baseConstraint) CollideConnected() bool {
	return c.collideConnected
}

// SetCollideConnected toggles collisions between the two constrained bodies
func (c *baseConstraint) SetCollideConnected(collide bool) {
	c.collideConnected = collide
}

// DistanceConstraint keeps the centers of two bodies at a fixed distance
type DistanceConstraint struct {
	baseConstraint
	Distance float64

	equation *ContactEquation
}

// NewDistanceConstraint constrains the bodies at distance. A negative distance
// keeps the current distance between the bodies.
func NewDistanceConstraint(bodyA, bodyB *actor.RigidBody, distance, maxForce float64) *DistanceConstraint {
	if distance < 0 {
		distance = bodyB.Transform.Position.Sub(bodyA.Transform.Position).Len()
	}

	c := &DistanceConstraint{
		baseConstraint: newBaseConstraint(bodyA, bodyB),
		Distance:       distance,
	}

	c.equation = NewContactEquation(bodyA, bodyB, maxForce)
	c.equation.MinForce = -maxForce
	c.equations = append(c.equations, c.equation)

	return c
}

func (c *DistanceConstraint) Update() {
	halfDist := c.Distance * 0.5

	normal := c.bodyB.Transform.Position.Sub(c.bodyA.Transform.Position)
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}

	c.equation.Ni = normal
	c.equation.Ri = normal.Mul(halfDist)
	c.equation.Rj = normal.Mul(-halfDist)
}

// PointToPointConstraint pins a local point of A onto a local point of B
type PointToPointConstraint struct {
	baseConstraint
	PivotA mgl64.Vec3
	PivotB mgl64.Vec3

	equationX *ContactEquation
	equationY *ContactEquation
	equationZ *ContactEquation
}

func NewPointToPointConstraint(bodyA *actor.RigidBody, pivotA mgl64.Vec3, bodyB *actor.RigidBody, pivotB mgl64.Vec3, maxForce float64) *PointToPointConstraint {
	c := &PointToPointConstraint{
		baseConstraint: newBaseConstraint(bodyA, bodyB),
		PivotA:         pivotA,
		PivotB:         pivotB,
	}
	c.init(maxForce)

	return c
}

func (c *PointToPointConstraint) init(maxForce float64) {
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	equations := [3]*ContactEquation{}

	for i := range equations {
		equations[i] = NewContactEquation(c.bodyA, c.bodyB, maxForce)
		equations[i].MinForce = -maxForce
		equations[i].Ni = axes[i]
		c.equations = append(c.equations, equations[i])
	}

	c.equationX, c.equationY, c.equationZ = equations[0], equations[1], equations[2]
}

func (c *PointToPointConstraint) Update() {
	ri := c.bodyA.Transform.Rotation.Rotate(c.PivotA)
	rj := c.bodyB.Transform.Rotation.Rotate(c.PivotB)

	for _, eq := range []*ContactEquation{c.equationX, c.equationY, c.equationZ} {
		eq.Ri = ri
		eq.Rj = rj
	}
}

// HingeConstraint lets B rotate around a single axis relative to A, like a door.
// The motor is disabled until EnableMotor.
type HingeConstraint struct {
	PointToPointConstraint
	AxisA mgl64.Vec3
	AxisB mgl64.Vec3

	rotational1 *RotationalEquation
	rotational2 *RotationalEquation
	motor       *RotationalMotorEquation
}

// NewHingeConstraint hinges the bodies at the local pivots, around the local axes
func NewHingeConstraint(bodyA *actor.RigidBody, pivotA, axisA mgl64.Vec3, bodyB *actor.RigidBody, pivotB, axisB mgl64.Vec3, maxForce float64) *HingeConstraint {
	c := &HingeConstraint{
		PointToPointConstraint: PointToPointConstraint{
			baseConstraint: newBaseConstraint(bodyA, bodyB),
			PivotA:         pivotA,
			PivotB:         pivotB,
		},
		AxisA: axisA.Normalize(),
		AxisB: axisB.Normalize(),
	}
	c.init(maxForce)

	c.rotational1 = NewRotationalEquation(bodyA, bodyB, maxForce)
	c.rotational2 = NewRotationalEquation(bodyA, bodyB, maxForce)
	c.motor = NewRotationalMotorEquation(bodyA, bodyB, maxForce)
	c.motor.Enabled = false

	c.equations = append(c.equations, c.rotational1, c.rotational2, c.motor)

	return c
}

func (c *HingeConstraint) EnableMotor() {
	c.motor.Enabled = true
}

func (c *HingeConstraint) DisableMotor() {
	c.motor.Enabled = false
}

// SetMotorSpeed sets the target relative angular velocity, in rad/s
func (c *HingeConstraint) SetMotorSpeed(speed float64) {
	c.motor.TargetVelocity = speed
}

func (c *HingeConstraint) SetMotorMaxForce(maxForce float64) {
	c.motor.MinForce = -maxForce
	c.motor.MaxForce = maxForce
}

// Motor exposes the motor equation
func (c *HingeConstraint) Motor() *RotationalMotorEquation {
	return c.motor
}

func (c *HingeConstraint) Update() {
	c.PointToPointConstraint.Update()

	worldAxisA := c.bodyA.Transform.Rotation.Rotate(c.AxisA)
	worldAxisB := c.bodyB.Transform.Rotation.Rotate(c.AxisB)

	// Les deux tangentes de A doivent rester orthogonales à l'axe de B
	t1, t2 := actor.TangentBasis(worldAxisA)
	c.rotational1.AxisA = t1
	c.rotational2.AxisA = t2
	c.rotational1.AxisB = worldAxisB
	c.rotational2.AxisB = worldAxisB

	if c.motor.Enabled {
		c.motor.AxisA = worldAxisA
		c.motor.AxisB = worldAxisB
	}
}

// LockConstraint removes every degree of freedom between two bodies
type LockConstraint struct {
	PointToPointConstraint

	localAxesA  [3]mgl64.Vec3
	localAxesB  [3]mgl64.Vec3
	rotationals [3]*RotationalEquation
}

// NewLockConstraint locks the bodies in their current relative pose
func NewLockConstraint(bodyA, bodyB *actor.RigidBody, maxForce float64) *LockConstraint {
	halfWay := bodyA.Transform.Position.Add(bodyB.Transform.Position).Mul(0.5)

	c := &LockConstraint{
		PointToPointConstraint: PointToPointConstraint{
			baseConstraint: newBaseConstraint(bodyA, bodyB),
			PivotA:         bodyA.Transform.PointToLocal(halfWay),
			PivotB:         bodyB.Transform.PointToLocal(halfWay),
		},
	}
	c.init(maxForce)

	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, axis := range axes {
		c.localAxesA[i] = bodyA.Transform.VectorToLocal(axis)
		c.localAxesB[i] = bodyB.Transform.VectorToLocal(axis)
		c.rotationals[i] = NewRotationalEquation(bodyA, bodyB, maxForce)
		c.equations = append(c.equations, c.rotationals[i])
	}

	return c
}

func (c *LockConstraint) Update() {
	c.PointToPointConstraint.Update()

	// x de A ⟂ y de B, y de A ⟂ z de B, z de A ⟂ x de B
	for i, r := range c.rotationals {
		r.AxisA = c.bodyA.Transform.VectorToWorld(c.localAxesA[i])
		r.AxisB = c.bodyB.Transform.VectorToWorld(c.localAxesB[(i+1)%3])
	}
}

// ConeTwistConstraint is a ball joint whose axis B stays within Angle of axis A,
// and whose twist around that axis is bounded by TwistAngle.
type ConeTwistConstraint struct {
	PointToPointConstraint
	AxisA      mgl64.Vec3
	AxisB      mgl64.Vec3
	Angle      float64
	TwistAngle float64

	cone  *ConeEquation
	twist *RotationalEquation
}

func NewConeTwistConstraint(bodyA *actor.RigidBody, pivotA, axisA mgl64.Vec3, bodyB *actor.RigidBody, pivotB, axisB mgl64.Vec3, angle, twistAngle, maxForce float64) *ConeTwistConstraint {
	c := &ConeTwistConstraint{
		PointToPointConstraint: PointToPointConstraint{
			baseConstraint: newBaseConstraint(bodyA, bodyB),
			PivotA:         pivotA,
			PivotB:         pivotB,
		},
		AxisA:      axisA,
		AxisB:      axisB,
		Angle:      angle,
		TwistAngle: twistAngle,
	}
	c.collideConnected = false
	c.init(maxForce)

	c.cone = NewConeEquation(bodyA, bodyB, maxForce)
	c.cone.MaxForce = 0
	c.twist = NewRotationalEquation(bodyA, bodyB, maxForce)
	c.twist.MaxForce = 0

	c.equations = append(c.equations, c.cone, c.twist)

	return c
}

func (c *ConeTwistConstraint) Update() {
	c.PointToPointConstraint.Update()

	c.cone.AxisA = c.bodyA.Transform.VectorToWorld(c.AxisA)
	c.cone.AxisB = c.bodyB.Transform.VectorToWorld(c.AxisB)
	c.cone.Angle = c.Angle

	tangentA, _ := actor.TangentBasis(c.AxisA)
	tangentB, _ := actor.TangentBasis(c.AxisB)
	c.twist.AxisA = c.bodyA.Transform.VectorToWorld(tangentA)
	c.twist.AxisB = c.bodyB.Transform.VectorToWorld(tangentB)
	c.twist.MaxAngle = c.TwistAngle
}
