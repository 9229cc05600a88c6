// Package sat implements the Separating Axis Test between posed convex hulls and the
// polygon clipping that turns an overlap into a contact manifold.
//
// Two convex shapes are disjoint if and only if some axis exists onto which their
// projections do not overlap. For polyhedra it is enough to test the face normals of
// both hulls and the cross products of every pair of edge directions.
//
// Once the axis of minimum overlap is known, the face of B most facing A (incident face)
// is clipped against the side planes of the face of A most facing B (reference face),
// Sutherland-Hodgman style. Surviving points below the reference face are contacts.
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2004), chapter 5
//   - Gregorius: "The Separating Axis Test between Convex Polyhedra" (GDC 2013)
package sat

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// EdgeCrossEpsilon is the length under which an edge cross product is
// considered degenerate (parallel edges) and skipped.
const EdgeCrossEpsilon = 1e-6

// Project returns the interval covered by the hull posed at (pos, quat) along a world axis
func Project(hull *actor.ConvexPolyhedron, axis, pos mgl64.Vec3, quat mgl64.Quat) (min, max float64) {
	if len(hull.Vertices) == 0 {
		offset := pos.Dot(axis)
		return offset, offset
	}

	localAxis := quat.Conjugate().Rotate(axis)
	offset := pos.Dot(axis)

	min = hull.Vertices[0].Dot(localAxis)
	max = min
	for i := 1; i < len(hull.Vertices); i++ {
		value := hull.Vertices[i].Dot(localAxis)
		if value > max {
			max = value
		}
		if value < min {
			min = value
		}
	}

	return min + offset, max + offset
}

// TestSepAxis projects both hulls on axis. It returns false when the intervals
// are disjoint, otherwise the overlap depth along the axis.
func TestSepAxis(axis mgl64.Vec3, hullA *actor.ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, hullB *actor.ConvexPolyhedron, posB mgl64.Vec3, quatB mgl64.Quat) (float64, bool) {
	minA, maxA := Project(hullA, axis, posA, quatA)
	minB, maxB := Project(hullB, axis, posB, quatB)

	if maxA < minB || maxB < minA {
		return 0, false // Séparés
	}

	return math.Min(maxA-minB, maxB-minA), true
}

// FindSeparatingAxis looks for the axis of minimum overlap between hull A and hull B.
//
// Candidates are the world face normals of A (or its unique axes), those of B, and the
// cross products of their unique edges. faceListA and faceListB, when not nil, restrict
// the face normals tested. found is false as soon as one candidate separates the hulls,
// and also when no candidate could be tested at all.
// The returned axis points from A towards B.
func FindSeparatingAxis(hullA *actor.ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, hullB *actor.ConvexPolyhedron, posB mgl64.Vec3, quatB mgl64.Quat, faceListA, faceListB []int) (axis mgl64.Vec3, found bool) {
	dmin := math.MaxFloat64
	tested := false

	test := func(candidate mgl64.Vec3) bool {
		depth, overlap := TestSepAxis(candidate, hullA, posA, quatA, hullB, posB, quatB)
		if !overlap {
			return false
		}
		tested = true
		if depth < dmin {
			dmin = depth
			axis = candidate
		}
		return true
	}

	for _, candidate := range candidateAxes(hullA, quatA, faceListA) {
		if !test(candidate) {
			return mgl64.Vec3{}, false
		}
	}
	for _, candidate := range candidateAxes(hullB, quatB, faceListB) {
		if !test(candidate) {
			return mgl64.Vec3{}, false
		}
	}

	// ========== ARÊTES ==========
	for _, edgeA := range hullA.UniqueEdges {
		worldEdgeA := quatA.Rotate(edgeA)
		for _, edgeB := range hullB.UniqueEdges {
			cross := worldEdgeA.Cross(quatB.Rotate(edgeB))
			if cross.Len() < EdgeCrossEpsilon {
				continue
			}
			if !test(cross.Normalize()) {
				return mgl64.Vec3{}, false
			}
		}
	}

	if !tested {
		return mgl64.Vec3{}, false
	}

	if posB.Sub(posA).Dot(axis) < 0 {
		axis = axis.Mul(-1)
	}

	return axis, true
}

// candidateAxes returns the world face normals of a hull, or its unique axes
func candidateAxes(hull *actor.ConvexPolyhedron, quat mgl64.Quat, faceList []int) []mgl64.Vec3 {
	if hull.UniqueAxes != nil {
		axes := make([]mgl64.Vec3, len(hull.UniqueAxes))
		for i, a := range hull.UniqueAxes {
			axes[i] = quat.Rotate(a)
		}
		return axes
	}

	if faceList == nil {
		axes := make([]mgl64.Vec3, len(hull.FaceNormals))
		for i, n := range hull.FaceNormals {
			axes[i] = quat.Rotate(n)
		}
		return axes
	}

	axes := make([]mgl64.Vec3, 0, len(faceList))
	for _, face := range faceList {
		axes = append(axes, quat.Rotate(hull.FaceNormals[face]))
	}
	return axes
}

// PointIsInside reports whether a world point lies inside the hull posed at (pos, quat)
func PointIsInside(hull *actor.ConvexPolyhedron, point, pos mgl64.Vec3, quat mgl64.Quat) bool {
	local := quat.Conjugate().Rotate(point.Sub(pos))
	inside := hull.AveragePoint()

	for i, face := range hull.Faces {
		normal := hull.FaceNormals[i]
		v := hull.Vertices[face[0]]

		r1 := normal.Dot(local.Sub(v))
		r2 := normal.Dot(inside.Sub(v))
		if (r1 < 0 && r2 > 0) || (r1 > 0 && r2 < 0) {
			return false
		}
	}

	return true
}
