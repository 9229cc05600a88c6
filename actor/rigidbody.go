package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic

	// BodyTypeKinematic bodies move with their velocity only
	// Collisions and forces never change that velocity
	BodyTypeKinematic
)

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	Id any

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	Velocity mgl64.Vec3 // Linear velocity (m/s)
	// Angular motion
	AngularVelocity mgl64.Vec3 // Vitesse de rotation (rad/s)

	// Mass properties, the inertia tensor is diagonal in the local frame
	InvMass         float64
	InertiaLocal    mgl64.Vec3
	InvInertiaLocal mgl64.Vec3

	// Solver scratch: mass as seen by the current solve, and the
	// velocity corrections under construction
	InvMassSolve         float64
	InvInertiaWorldSolve mgl64.Mat3
	VLambda              mgl64.Vec3
	WLambda              mgl64.Vec3

	// LinearFactor and AngularFactor scale the motion per axis, zero locks an axis
	LinearFactor  mgl64.Vec3
	AngularFactor mgl64.Vec3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64
	// IsTrigger bodies report overlaps but never push other bodies
	IsTrigger bool

	// Physical properties
	Material *Material
	BodyType BodyType // Dynamic, Static or Kinematic

	// Collision shape
	Shape ShapeInterface // The collision shape

	mass float64
}

// NewRigidBody creates a new rigid body with the given properties
// mass is ignored for static and kinematic bodies
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, mass float64) *RigidBody {
	if transform.Rotation.Len() == 0 {
		transform.Rotation = mgl64.QuatIdent()
	}
	transform = NewTransformAt(transform.Position, transform.Rotation)

	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		Shape:             shape,
		BodyType:          bodyType,
		LinearFactor:      mgl64.Vec3{1, 1, 1},
		AngularFactor:     mgl64.Vec3{1, 1, 1},
	}
	rb.SetMass(mass)
	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

// SetMass updates the mass and the inertia derived from the shape
func (rb *RigidBody) SetMass(mass float64) {
	if rb.BodyType != BodyTypeDynamic || mass <= 0 || math.IsInf(mass, 1) {
		rb.mass = 0
		rb.InvMass = 0
		rb.InertiaLocal = mgl64.Vec3{}
		rb.InvInertiaLocal = mgl64.Vec3{}
		return
	}

	rb.mass = mass
	rb.InvMass = 1.0 / mass
	rb.InertiaLocal = rb.Shape.ComputeInertia(mass)
	for i := 0; i < 3; i++ {
		if rb.InertiaLocal[i] > 0 {
			rb.InvInertiaLocal[i] = 1.0 / rb.InertiaLocal[i]
		} else {
			rb.InvInertiaLocal[i] = 0
		}
	}
}

// GetMass returns the mass, 0 for immovable bodies
func (rb *RigidBody) GetMass() float64 {
	return rb.mass
}

// Force returns the force accumulated since the last ClearForces
func (rb *RigidBody) Force() mgl64.Vec3 {
	return rb.accumulatedForce
}

// Torque returns the torque accumulated since the last ClearForces
func (rb *RigidBody) Torque() mgl64.Vec3 {
	return rb.accumulatedTorque
}

// UpdateSolveMassProperties refreshes the mass seen by the solver.
// Sleeping and kinematic bodies behave as if their mass was infinite.
func (rb *RigidBody) UpdateSolveMassProperties() {
	if rb.IsSleeping || rb.BodyType == BodyTypeKinematic || rb.BodyType == BodyTypeStatic {
		rb.InvMassSolve = 0
		rb.InvInertiaWorldSolve = mgl64.Mat3{}
		return
	}

	rb.InvMassSolve = rb.InvMass
	rb.InvInertiaWorldSolve = rb.GetInverseInertiaWorld()
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt // Incrémente le timer
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate advances the body by dt with semi-implicit Euler: velocities first,
// from the accumulated force and torque, then the pose.
func (rb *RigidBody) Integrate(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	// Stockage état précédent
	rb.PreviousTransform = rb.Transform

	if rb.BodyType == BodyTypeDynamic {
		// ========== INTÉGRATION LINÉAIRE ==========
		linearAccel := rb.accumulatedForce.Mul(rb.InvMass * dt)
		rb.Velocity = rb.Velocity.Add(mulComponents(linearAccel, rb.LinearFactor))

		// ========== INTÉGRATION ANGULAIRE ==========
		angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque).Mul(dt)
		rb.AngularVelocity = rb.AngularVelocity.Add(mulComponents(angularAccel, rb.AngularFactor))

		// ========== DAMPING ==========
		if rb.Material != nil {
			rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
			rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))
		}
	}

	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// ========== UPDATE QUATERNION ==========
	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
}

// AddForce applies a force at the center of mass
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque applies a torque around the center of mass
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

// AddForceAtPoint applies a force at a world point, producing a torque
func (rb *RigidBody) AddForceAtPoint(force, worldPoint mgl64.Vec3) {
	rb.AddForce(force)
	rb.AddTorque(worldPoint.Sub(rb.Transform.Position).Cross(force))
}

// ApplyImpulse changes the velocities immediately, the impulse acts at a world point
func (rb *RigidBody) ApplyImpulse(impulse, worldPoint mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	rb.Awake()
	rb.Velocity = rb.Velocity.Add(mulComponents(impulse.Mul(rb.InvMass), rb.LinearFactor))

	r := worldPoint.Sub(rb.Transform.Position)
	angular := rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse))
	rb.AngularVelocity = rb.AngularVelocity.Add(mulComponents(angular, rb.AngularFactor))
}

// Méthodes optionnelles pour reset
func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// VelocityAtWorldPoint returns v + ω × r for a world point
func (rb *RigidBody) VelocityAtWorldPoint(worldPoint mgl64.Vec3) mgl64.Vec3 {
	r := worldPoint.Sub(rb.Transform.Position)

	return rb.Velocity.Add(rb.AngularVelocity.Cross(r))
}

// Inverse de l'inertie en espace monde
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType != BodyTypeDynamic {
		return mgl64.Mat3{}
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(mgl64.Diag3(rb.InvInertiaLocal)).Mul3(R.Transpose())
}

func mulComponents(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
