package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrVertexIndex    = errors.New("face references a vertex out of range")
	ErrDegenerateFace = errors.New("face is degenerate")
	ErrInwardNormal   = errors.New("face normal points into the hull")
)

const (
	// edgeParallelTolerance is how close |dot| must be to 1 for two edges to be merged
	edgeParallelTolerance = 1e-6
	// windingTolerance absorbs rounding when a face plane passes through the hull origin
	windingTolerance = 1e-9
)

// ConvexPolyhedron is a convex hull given by its vertices and faces.
// Faces list vertex indices counter-clockwise when seen from outside, so that
// (v1-v0)×(v2-v1) is the outward normal.
type ConvexPolyhedron struct {
	ShapeBase
	Vertices    []mgl64.Vec3
	Faces       [][]int
	FaceNormals []mgl64.Vec3
	// UniqueEdges are the normalized edge directions, without parallel duplicates
	UniqueEdges []mgl64.Vec3
	// UniqueAxes, when set, replace the face normals as SAT candidate axes
	UniqueAxes []mgl64.Vec3

	connectedFaces [][]int
	localAABB      AABB
	boundingRadius float64
}

// NewConvexPolyhedron builds a hull and checks it: every face index must be valid,
// every face must span a plane, and every normal must point away from the hull origin.
func NewConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int, uniqueAxes []mgl64.Vec3) (*ConvexPolyhedron, error) {
	hull, err := buildConvexPolyhedron(vertices, faces, uniqueAxes)
	if err != nil {
		return nil, err
	}

	// The origin is expected inside the hull: an outward normal sees every face vertex in front
	tolerance := windingTolerance * math.Max(1, hull.boundingRadius)
	for i, face := range hull.Faces {
		if hull.FaceNormals[i].Dot(hull.Vertices[face[0]]) < -tolerance {
			return nil, fmt.Errorf("face %d: %w", i, ErrInwardNormal)
		}
	}

	return hull, nil
}

// buildConvexPolyhedron derives normals, edges and adjacency without the winding check
func buildConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int, uniqueAxes []mgl64.Vec3) (*ConvexPolyhedron, error) {
	hull := &ConvexPolyhedron{
		Vertices:   vertices,
		Faces:      faces,
		UniqueAxes: uniqueAxes,
	}

	if err := hull.computeNormals(); err != nil {
		return nil, err
	}
	hull.computeEdges()
	hull.computeConnectedFaces()
	hull.computeLocalBounds()

	return hull, nil
}

// mustConvexPolyhedron is used for the hulls generated by the package itself
func mustConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int, uniqueAxes []mgl64.Vec3) *ConvexPolyhedron {
	hull, err := buildConvexPolyhedron(vertices, faces, uniqueAxes)
	if err != nil {
		panic(err)
	}
	return hull
}

func (c *ConvexPolyhedron) computeNormals() error {
	c.FaceNormals = make([]mgl64.Vec3, len(c.Faces))

	for i, face := range c.Faces {
		if len(face) < 3 {
			return fmt.Errorf("face %d has %d vertices: %w", i, len(face), ErrDegenerateFace)
		}
		for _, index := range face {
			if index < 0 || index >= len(c.Vertices) {
				return fmt.Errorf("face %d, vertex %d: %w", i, index, ErrVertexIndex)
			}
		}

		normal, ok := computeNormal(c.Vertices[face[0]], c.Vertices[face[1]], c.Vertices[face[2]])
		if !ok {
			return fmt.Errorf("face %d: %w", i, ErrDegenerateFace)
		}
		c.FaceNormals[i] = normal
	}

	return nil
}

// computeNormal returns the normal of the triangle (va, vb, vc), counter-clockwise winding
func computeNormal(va, vb, vc mgl64.Vec3) (mgl64.Vec3, bool) {
	normal := vb.Sub(va).Cross(vc.Sub(vb))
	length := normal.Len()
	if length < 1e-12 {
		return mgl64.Vec3{}, false
	}

	return normal.Mul(1.0 / length), true
}

func (c *ConvexPolyhedron) computeEdges() {
	c.UniqueEdges = c.UniqueEdges[:0]

	for _, face := range c.Faces {
		for j := range face {
			edge := c.Vertices[face[(j+1)%len(face)]].Sub(c.Vertices[face[j]])
			if edge.Len() < 1e-12 {
				continue
			}
			edge = edge.Normalize()

			// Une arête partagée apparaît dans les deux sens
			duplicate := false
			for _, existing := range c.UniqueEdges {
				if math.Abs(existing.Dot(edge)) > 1-edgeParallelTolerance {
					duplicate = true
					break
				}
			}
			if !duplicate {
				c.UniqueEdges = append(c.UniqueEdges, edge)
			}
		}
	}
}

// computeConnectedFaces lists, for each face, the other faces sharing at least one vertex
func (c *ConvexPolyhedron) computeConnectedFaces() {
	vertexFaces := make([][]int, len(c.Vertices))
	for i, face := range c.Faces {
		for _, index := range face {
			vertexFaces[index] = append(vertexFaces[index], i)
		}
	}

	c.connectedFaces = make([][]int, len(c.Faces))
	for i, face := range c.Faces {
		seen := map[int]bool{i: true}
		for _, index := range face {
			for _, other := range vertexFaces[index] {
				if !seen[other] {
					seen[other] = true
					c.connectedFaces[i] = append(c.connectedFaces[i], other)
				}
			}
		}
	}
}

func (c *ConvexPolyhedron) computeLocalBounds() {
	c.boundingRadius = 0
	if len(c.Vertices) == 0 {
		c.localAABB = AABB{}
		return
	}

	c.localAABB = AABB{Min: c.Vertices[0], Max: c.Vertices[0]}
	for _, v := range c.Vertices {
		c.localAABB = c.localAABB.Extend(v)
		c.boundingRadius = math.Max(c.boundingRadius, v.Len())
	}
}

func (c *ConvexPolyhedron) Type() ShapeType {
	return ShapeTypeConvexPolyhedron
}

func (c *ConvexPolyhedron) ConvexRepresentation() *ConvexPolyhedron {
	return c
}

func (c *ConvexPolyhedron) ComputeAABB(transform Transform) {
	c.aabb = aabbFromPoints(c.Vertices, transform)
}

func (c *ConvexPolyhedron) BoundingSphereRadius() float64 {
	return c.boundingRadius
}

// ComputeMass approximates the hull volume by its local bounding box
func (c *ConvexPolyhedron) ComputeMass(density float64) float64 {
	size := c.localAABB.Max.Sub(c.localAABB.Min)

	return density * size.X() * size.Y() * size.Z()
}

// ComputeInertia approximates the hull by its local bounding box
func (c *ConvexPolyhedron) ComputeInertia(mass float64) mgl64.Vec3 {
	halfExtents := c.localAABB.Max.Sub(c.localAABB.Min).Mul(0.5)

	return boxInertia(halfExtents, mass)
}

// ConnectedFaces returns the faces sharing a vertex with face i
func (c *ConvexPolyhedron) ConnectedFaces(i int) []int {
	return c.connectedFaces[i]
}

// PlaneConstantOfFace returns d such that n·p + d = 0 for every point p of face i
func (c *ConvexPolyhedron) PlaneConstantOfFace(i int) float64 {
	return -c.FaceNormals[i].Dot(c.Vertices[c.Faces[i][0]])
}

// AveragePoint is the mean of the vertices, in the local frame
func (c *ConvexPolyhedron) AveragePoint() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range c.Vertices {
		sum = sum.Add(v)
	}
	if len(c.Vertices) == 0 {
		return sum
	}

	return sum.Mul(1.0 / float64(len(c.Vertices)))
}

// LocalAABB is the bounding box of the vertices in the local frame
func (c *ConvexPolyhedron) LocalAABB() AABB {
	return c.localAABB
}
