package sat

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is a clipped point of the incident face, in world space.
// Normal is the world normal of the reference face of hull A, Depth is the signed
// distance of Point to that face (negative when penetrating).
type ContactPoint struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// Clipper owns the scratch polygons of the clipping routines, so that repeated
// calls do not allocate. The zero value is ready to use; a Clipper is not safe
// for concurrent use.
type Clipper struct {
	incident []mgl64.Vec3
	polyA    []mgl64.Vec3
	polyB    []mgl64.Vec3
}

// ClipAgainstHull is a convenience wrapper around a temporary Clipper
func ClipAgainstHull(hullA *actor.ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, hullB *actor.ConvexPolyhedron, posB mgl64.Vec3, quatB mgl64.Quat, separatingNormal mgl64.Vec3, minDist, maxDist float64) []ContactPoint {
	var c Clipper
	return c.ClipAgainstHull(hullA, posA, quatA, hullB, posB, quatB, separatingNormal, minDist, maxDist, nil)
}

// ClipAgainstHull finds the face of B closest to the separating normal (which points
// from B towards A), transforms it to world space and clips it against hull A.
// Contact points are appended to result.
func (c *Clipper) ClipAgainstHull(hullA *actor.ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, hullB *actor.ConvexPolyhedron, posB mgl64.Vec3, quatB mgl64.Quat, separatingNormal mgl64.Vec3, minDist, maxDist float64, result []ContactPoint) []ContactPoint {
	closestFace := -1
	dmax := -math.MaxFloat64
	for i, normal := range hullB.FaceNormals {
		d := quatB.Rotate(normal).Dot(separatingNormal)
		if d > dmax {
			dmax = d
			closestFace = i
		}
	}
	if closestFace < 0 {
		return result
	}

	c.incident = c.incident[:0]
	for _, index := range hullB.Faces[closestFace] {
		c.incident = append(c.incident, quatB.Rotate(hullB.Vertices[index]).Add(posB))
	}

	return c.ClipFaceAgainstHull(separatingNormal, hullA, posA, quatA, c.incident, minDist, maxDist, result)
}

// ClipFaceAgainstHull clips a world polygon of B against hull A.
//
// The reference face of A is the one most opposed to the separating normal. The polygon
// is clipped against the planes of every face connected to it, then each remaining point
// is measured against the reference plane: depths under minDist are raised to minDist,
// points deeper than maxDist or in front of the reference face are dropped.
func (c *Clipper) ClipFaceAgainstHull(separatingNormal mgl64.Vec3, hullA *actor.ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, worldVertsB []mgl64.Vec3, minDist, maxDist float64, result []ContactPoint) []ContactPoint {
	closestFace := -1
	dmin := math.MaxFloat64
	for i, normal := range hullA.FaceNormals {
		d := quatA.Rotate(normal).Dot(separatingNormal)
		if d < dmin {
			dmin = d
			closestFace = i
		}
	}
	if closestFace < 0 || len(worldVertsB) == 0 {
		return result
	}

	c.polyA = append(c.polyA[:0], worldVertsB...)
	for _, face := range hullA.ConnectedFaces(closestFace) {
		normal := quatA.Rotate(hullA.FaceNormals[face])
		constant := hullA.PlaneConstantOfFace(face) - normal.Dot(posA)

		c.polyB = ClipFaceAgainstPlane(c.polyA, c.polyB[:0], normal, constant)
		c.polyA, c.polyB = c.polyB, c.polyA
		if len(c.polyA) == 0 {
			return result
		}
	}

	refNormal := quatA.Rotate(hullA.FaceNormals[closestFace])
	refConstant := hullA.PlaneConstantOfFace(closestFace) - refNormal.Dot(posA)

	for _, point := range c.polyA {
		depth := refNormal.Dot(point) + refConstant
		if depth <= minDist {
			depth = minDist
		}
		if depth <= maxDist && depth <= 0 {
			result = append(result, ContactPoint{
				Point:  point,
				Normal: refNormal,
				Depth:  depth,
			})
		}
	}

	return result
}

// ClipFaceAgainstPlane keeps the part of the polygon in where n·p + constant < 0.
// The clipped polygon is appended to out, which is returned.
func ClipFaceAgainstPlane(in, out []mgl64.Vec3, planeNormal mgl64.Vec3, planeConstant float64) []mgl64.Vec3 {
	if len(in) < 2 {
		return out
	}

	first := in[len(in)-1]
	nDotFirst := planeNormal.Dot(first) + planeConstant

	for _, last := range in {
		nDotLast := planeNormal.Dot(last) + planeConstant

		if nDotFirst < 0 {
			if nDotLast < 0 {
				out = append(out, last)
			} else {
				// Sortie du demi-espace
				out = append(out, lerp(first, last, nDotFirst/(nDotFirst-nDotLast)))
			}
		} else if nDotLast < 0 {
			// Entrée dans le demi-espace
			out = append(out, lerp(first, last, nDotFirst/(nDotFirst-nDotLast)), last)
		}

		first = last
		nDotFirst = nDotLast
	}

	return out
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
