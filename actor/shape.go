package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape.
// The order matters: the narrowphase always handles a pair with the lower type first.
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypePlane
	ShapeTypeBox
	ShapeTypeCompound
	ShapeTypeConvexPolyhedron
	ShapeTypeHeightfield
	ShapeTypeParticle
	ShapeTypeCylinder
	ShapeTypeTrimesh

	// NumShapeTypes is the size of a table indexed by ShapeType
	NumShapeTypes
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeBox:
		return "box"
	case ShapeTypeCompound:
		return "compound"
	case ShapeTypeConvexPolyhedron:
		return "convex"
	case ShapeTypeHeightfield:
		return "heightfield"
	case ShapeTypeParticle:
		return "particle"
	case ShapeTypeCylinder:
		return "cylinder"
	case ShapeTypeTrimesh:
		return "trimesh"
	}
	return "unknown"
}

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	Type() ShapeType
	// Base gives access to the fields shared by every shape
	Base() *ShapeBase
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// BoundingSphereRadius is the radius of a sphere centered on the shape origin
	// that contains the whole shape
	BoundingSphereRadius() float64
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	// ComputeInertia returns the diagonal of the local inertia tensor
	ComputeInertia(mass float64) mgl64.Vec3
}

// Convex is implemented by the shapes the SAT engine can work on directly
type Convex interface {
	ShapeInterface
	ConvexRepresentation() *ConvexPolyhedron
}

// ShapeBase holds the fields hoisted out of every concrete shape.
// A zero CollisionFilterGroup means group 1, a zero CollisionFilterMask means all groups.
type ShapeBase struct {
	Material             *Material
	CollisionFilterGroup int
	CollisionFilterMask  int

	aabb AABB
}

func (s *ShapeBase) Base() *ShapeBase {
	return s
}

func (s *ShapeBase) GetAABB() AABB {
	return s.aabb
}

// FilterGroup returns the effective collision group
func (s *ShapeBase) FilterGroup() int {
	if s.CollisionFilterGroup == 0 {
		return 1
	}
	return s.CollisionFilterGroup
}

// FilterMask returns the effective collision mask
func (s *ShapeBase) FilterMask() int {
	if s.CollisionFilterMask == 0 {
		return -1
	}
	return s.CollisionFilterMask
}

// CanCollide reports whether the group/mask filters of both shapes accept each other
func (s *ShapeBase) CanCollide(other *ShapeBase) bool {
	return s.FilterGroup()&other.FilterMask() != 0 && other.FilterGroup()&s.FilterMask() != 0
}

// Unbounded reports whether the shape extends to infinity (planes)
func Unbounded(shape ShapeInterface) bool {
	return shape.BoundingSphereRadius() == math.MaxFloat64
}

// Sphere represents a spherical collision shape
type Sphere struct {
	ShapeBase
	Radius float64
}

func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

func (s *Sphere) Type() ShapeType {
	return ShapeTypeSphere
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) BoundingSphereRadius() float64 {
	return s.Radius
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Vec3 {
	// Pour une sphère : I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Vec3{i, i, i}
}

// Plane represents an infinite plane collision shape
// The plane is defined in the body frame by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal.
// Everything behind the plane is solid.
type Plane struct {
	ShapeBase
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
}

func NewPlane(normal mgl64.Vec3, distance float64) *Plane {
	return &Plane{Normal: normal.Normalize(), Distance: distance}
}

func (p *Plane) Type() ShapeType {
	return ShapeTypePlane
}

// ComputeAABB spans the whole space, the broadphase pairs planes with everything
func (p *Plane) ComputeAABB(transform Transform) {
	p.aabb = AABB{
		Min: mgl64.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
		Max: mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
	}
}

func (p *Plane) BoundingSphereRadius() float64 {
	return math.MaxFloat64
}

// ComputeMass calculates mass data for the plane
// Planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// WorldNormal returns the plane normal for a given orientation
func (p *Plane) WorldNormal(rotation mgl64.Quat) mgl64.Vec3 {
	return rotation.Rotate(p.Normal)
}

// WorldPoint returns a point lying on the plane for a given pose
func (p *Plane) WorldPoint(position mgl64.Vec3, rotation mgl64.Quat) mgl64.Vec3 {
	return position.Add(rotation.Rotate(p.Normal.Mul(-p.Distance)))
}

// Particle is a point shape, it has no extent
type Particle struct {
	ShapeBase
}

func NewParticle() *Particle {
	return &Particle{}
}

func (p *Particle) Type() ShapeType {
	return ShapeTypeParticle
}

func (p *Particle) ComputeAABB(transform Transform) {
	p.aabb = AABB{Min: transform.Position, Max: transform.Position}
}

func (p *Particle) BoundingSphereRadius() float64 {
	return 0
}

// ComputeMass of a point is zero, particles get their mass explicitly
func (p *Particle) ComputeMass(density float64) float64 {
	return 0
}

func (p *Particle) ComputeInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// boxInertia is the inertia of a solid box with the given half extents
func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Vec3 {
	// Dimensions complètes
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	// Formule pour une boîte : I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	}
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other:
// t1 = n × X, or n × Y when n is close to X, and t2 = n × t1.
// A zero normal yields the X and Y axes.
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	length := normal.Len()
	if length == 0 {
		return mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	}
	n := normal.Mul(1 / length)

	var tangent1 mgl64.Vec3
	if math.Abs(n.X()) < 0.9 {
		tangent1 = n.Cross(mgl64.Vec3{1, 0, 0})
	} else {
		tangent1 = n.Cross(mgl64.Vec3{0, 1, 0})
	}
	tangent1 = tangent1.Normalize()

	return tangent1, n.Cross(tangent1)
}
