package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cylinder is a prism with NumSegments sides approximating a (possibly tapered) cylinder.
// Its axis is the local Z axis.
type Cylinder struct {
	ShapeBase
	RadiusTop    float64
	RadiusBottom float64
	Height       float64
	NumSegments  int

	hull *ConvexPolyhedron
}

func NewCylinder(radiusTop, radiusBottom, height float64, numSegments int) *Cylinder {
	numSegments = max(3, numSegments)

	var vertices, axes []mgl64.Vec3
	var faces [][]int
	var bottomFace, topFace []int

	vertices = append(vertices,
		mgl64.Vec3{radiusBottom, 0, -height * 0.5},
		mgl64.Vec3{radiusTop, 0, height * 0.5},
	)
	bottomFace = append(bottomFace, 0)
	topFace = append(topFace, 1)

	for i := 0; i < numSegments; i++ {
		theta := 2 * math.Pi / float64(numSegments) * float64(i+1)
		thetaN := 2 * math.Pi / float64(numSegments) * (float64(i) + 0.5)

		if i < numSegments-1 {
			vertices = append(vertices,
				mgl64.Vec3{radiusBottom * math.Cos(theta), radiusBottom * math.Sin(theta), -height * 0.5},
				mgl64.Vec3{radiusTop * math.Cos(theta), radiusTop * math.Sin(theta), height * 0.5},
			)
			bottomFace = append(bottomFace, 2*i+2)
			topFace = append(topFace, 2*i+3)
			faces = append(faces, []int{2*i + 2, 2*i + 3, 2*i + 1, 2 * i})
		} else {
			// Ferme le tour
			faces = append(faces, []int{0, 1, 2*i + 1, 2 * i})
		}

		// With an even count, opposite sides share their axis
		if numSegments%2 == 1 || i < numSegments/2 {
			axes = append(axes, mgl64.Vec3{math.Cos(thetaN), math.Sin(thetaN), 0})
		}
	}
	axes = append(axes, mgl64.Vec3{0, 0, 1})

	faces = append(faces, topFace)
	reversed := make([]int, len(bottomFace))
	for i, index := range bottomFace {
		reversed[len(bottomFace)-1-i] = index
	}
	faces = append(faces, reversed)

	return &Cylinder{
		RadiusTop:    radiusTop,
		RadiusBottom: radiusBottom,
		Height:       height,
		NumSegments:  numSegments,
		hull:         mustConvexPolyhedron(vertices, faces, axes),
	}
}

func (c *Cylinder) Type() ShapeType {
	return ShapeTypeCylinder
}

func (c *Cylinder) ConvexRepresentation() *ConvexPolyhedron {
	return c.hull
}

func (c *Cylinder) ComputeAABB(transform Transform) {
	c.aabb = aabbFromPoints(c.hull.Vertices, transform)
}

func (c *Cylinder) BoundingSphereRadius() float64 {
	return c.hull.BoundingSphereRadius()
}

func (c *Cylinder) ComputeMass(density float64) float64 {
	// Tronc de cône : V = π h (r1² + r1 r2 + r2²) / 3
	r1, r2 := c.RadiusBottom, c.RadiusTop
	volume := math.Pi * c.Height * (r1*r1 + r1*r2 + r2*r2) / 3.0

	return density * volume
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Vec3 {
	return c.hull.ComputeInertia(mass)
}
