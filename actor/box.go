package actor

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	ShapeBase
	HalfExtents mgl64.Vec3

	hull        *ConvexPolyhedron
	hullExtents mgl64.Vec3
}

func NewBox(halfExtents mgl64.Vec3) *Box {
	b := &Box{HalfExtents: halfExtents}
	b.ConvexRepresentation()

	return b
}

func (b *Box) Type() ShapeType {
	return ShapeTypeBox
}

func (b *Box) ComputeAABB(transform Transform) {
	// Les 8 coins de la boîte en espace local
	corners := localBoxCorners(b.HalfExtents.Mul(-1), b.HalfExtents)

	b.aabb = aabbFromPoints(corners[:], transform)
}

func (b *Box) BoundingSphereRadius() float64 {
	return b.HalfExtents.Len()
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Vec3 {
	return boxInertia(b.HalfExtents, mass)
}

// ConvexRepresentation returns the 8 vertices / 6 faces hull of the box.
// It is rebuilt whenever HalfExtents changed since the last call.
func (b *Box) ConvexRepresentation() *ConvexPolyhedron {
	if b.hull != nil && b.hullExtents == b.HalfExtents {
		return b.hull
	}

	sx, sy, sz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	vertices := []mgl64.Vec3{
		{-sx, -sy, -sz},
		{sx, -sy, -sz},
		{sx, sy, -sz},
		{-sx, sy, -sz},
		{-sx, -sy, sz},
		{sx, -sy, sz},
		{sx, sy, sz},
		{-sx, sy, sz},
	}
	faces := [][]int{
		{3, 2, 1, 0}, // -z
		{4, 5, 6, 7}, // +z
		{5, 4, 0, 1}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	}

	b.hull = mustConvexPolyhedron(vertices, faces, nil)
	b.hullExtents = b.HalfExtents

	return b.hull
}

// SideNormals returns the world +x, +y and +z face normals scaled by the matching half extent
func (b *Box) SideNormals(rotation mgl64.Quat) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		rotation.Rotate(mgl64.Vec3{b.HalfExtents.X(), 0, 0}),
		rotation.Rotate(mgl64.Vec3{0, b.HalfExtents.Y(), 0}),
		rotation.Rotate(mgl64.Vec3{0, 0, b.HalfExtents.Z()}),
	}
}
