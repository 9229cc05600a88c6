package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrTriangleIndices = errors.New("trimesh indices must come in triples")

// Trimesh is an arbitrary (possibly concave) triangle mesh.
// Triangle i uses the vertices Indices[3i], Indices[3i+1] and Indices[3i+2].
type Trimesh struct {
	ShapeBase
	Vertices []mgl64.Vec3
	Indices  []int
	// Normals holds one outward normal per triangle
	Normals []mgl64.Vec3
	// Edges holds each edge once, as a pair of vertex indices
	Edges [][2]int

	triangleAABBs  []AABB
	localAABB      AABB
	boundingRadius float64
}

func NewTrimesh(vertices []mgl64.Vec3, indices []int) (*Trimesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%d indices: %w", len(indices), ErrTriangleIndices)
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("vertex %d: %w", index, ErrVertexIndex)
		}
	}

	t := &Trimesh{Vertices: vertices, Indices: indices}
	t.Update()

	return t, nil
}

// Update recomputes normals, edges and bounds after Vertices or Indices changed
func (t *Trimesh) Update() {
	count := t.TriangleCount()
	t.Normals = make([]mgl64.Vec3, count)
	t.triangleAABBs = make([]AABB, count)
	t.Edges = t.Edges[:0]

	seen := make(map[[2]int]bool)
	for i := 0; i < count; i++ {
		a, b, c := t.Triangle(i)
		if normal, ok := computeNormal(a, b, c); ok {
			t.Normals[i] = normal
		}
		t.triangleAABBs[i] = AABB{Min: a, Max: a}.Extend(b).Extend(c)

		for j := 0; j < 3; j++ {
			v0, v1 := t.Indices[3*i+j], t.Indices[3*i+(j+1)%3]
			key := [2]int{min(v0, v1), max(v0, v1)}
			if !seen[key] {
				seen[key] = true
				t.Edges = append(t.Edges, key)
			}
		}
	}

	t.boundingRadius = 0
	if len(t.Vertices) > 0 {
		t.localAABB = AABB{Min: t.Vertices[0], Max: t.Vertices[0]}
	}
	for _, v := range t.Vertices {
		t.localAABB = t.localAABB.Extend(v)
		t.boundingRadius = math.Max(t.boundingRadius, v.Len())
	}
}

func (t *Trimesh) Type() ShapeType {
	return ShapeTypeTrimesh
}

// TriangleCount returns the number of triangles
func (t *Trimesh) TriangleCount() int {
	return len(t.Indices) / 3
}

// Triangle returns the local vertices of triangle i
func (t *Trimesh) Triangle(i int) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	return t.Vertices[t.Indices[3*i]], t.Vertices[t.Indices[3*i+1]], t.Vertices[t.Indices[3*i+2]]
}

// TrianglesInAABB appends to result the triangles whose bounds overlap the local box
func (t *Trimesh) TrianglesInAABB(box AABB, result []int) []int {
	for i, triangleBox := range t.triangleAABBs {
		if triangleBox.Overlaps(box) {
			result = append(result, i)
		}
	}

	return result
}

func (t *Trimesh) ComputeAABB(transform Transform) {
	corners := localBoxCorners(t.localAABB.Min, t.localAABB.Max)
	t.aabb = aabbFromPoints(corners[:], transform)
}

func (t *Trimesh) BoundingSphereRadius() float64 {
	return t.boundingRadius
}

// ComputeMass approximates the mesh volume by its local bounding box
func (t *Trimesh) ComputeMass(density float64) float64 {
	size := t.localAABB.Max.Sub(t.localAABB.Min)

	return density * size.X() * size.Y() * size.Z()
}

func (t *Trimesh) ComputeInertia(mass float64) mgl64.Vec3 {
	return boxInertia(t.localAABB.Max.Sub(t.localAABB.Min).Mul(0.5), mass)
}
