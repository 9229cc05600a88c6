package impulse

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/sat"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// clipMinDist and clipMaxDist bound the depth of the clipped contact points
	clipMinDist = -100.0
	clipMaxDist = 100.0
)

// pillarFaces are the faces of a heightfield pillar used as separating axes.
// The bottom face (1) is left out: a body is never pushed down through the ground.
var pillarFaces = []int{0, 2, 3, 4}

// hullOf returns the convex hull of a box, cylinder or convex polyhedron
func hullOf(shape actor.ShapeInterface) *actor.ConvexPolyhedron {
	return shape.(actor.Convex).ConvexRepresentation()
}

// ========== CONVEXE - CONVEXE ==========

func (n *Narrowphase) convexConvex(a, b posedShape, justTest bool) bool {
	return n.convexHulls(a, hullOf(a.shape), b, hullOf(b.shape), nil, nil, justTest)
}

// convexHulls finds the axis of minimum overlap, then clips the incident face of b against a.
// Each clipped point gives a contact whose normal is the axis, from a towards b.
func (n *Narrowphase) convexHulls(a posedShape, hullA *actor.ConvexPolyhedron, b posedShape, hullB *actor.ConvexPolyhedron, faceListA, faceListB []int, justTest bool) bool {
	axis, found := sat.FindSeparatingAxis(hullA, a.position, a.rotation, hullB, b.position, b.rotation, faceListA, faceListB)
	if !found {
		return false
	}

	n.clipPoints = n.clipper.ClipAgainstHull(hullA, a.position, a.rotation, hullB, b.position, b.rotation, axis.Mul(-1), clipMinDist, clipMaxDist, n.clipPoints[:0])
	if len(n.clipPoints) == 0 {
		return false
	}
	if justTest {
		return true
	}

	for _, point := range n.clipPoints {
		c := n.createContact(a, b)
		c.Ni = axis
		// Le point de B est ramené sur la face de référence de A
		c.Ri = a.offset(point.Point.Sub(point.Normal.Mul(point.Depth)))
		c.Rj = b.offset(point.Point)
		n.addContact(c)
	}

	return true
}

// ========== HEIGHTFIELD ==========

// heightfieldRange returns the grid squares a sphere of the given world center and radius
// can touch. ok is false when the sphere is off the grid, or above or below every sample.
func (n *Narrowphase) heightfieldRange(hf *actor.Heightfield, center mgl64.Vec3, radius float64, field posedShape) (iMinX, iMinY, iMaxX, iMaxY int, ok bool) {
	sizeX, sizeY := hf.SizeX(), hf.SizeY()
	if sizeX < 2 || sizeY < 2 {
		return 0, 0, 0, 0, false
	}

	local := field.rotation.Conjugate().Rotate(center.Sub(field.position))
	w := hf.ElementSize

	iMinX = int(math.Floor((local.X()-radius)/w)) - 1
	iMaxX = int(math.Ceil((local.X()+radius)/w)) + 1
	iMinY = int(math.Floor((local.Y()-radius)/w)) - 1
	iMaxY = int(math.Ceil((local.Y()+radius)/w)) + 1

	if iMaxX < 0 || iMaxY < 0 || iMinX > sizeX || iMinY > sizeY {
		loggerOrDiscard(n.Logger).Debug("body outside heightfield",
			"x", local.X(),
			"y", local.Y(),
			"body", field.body.Id,
		)
		return 0, 0, 0, 0, false
	}

	iMinX = actor.Clamp(iMinX, 0, sizeX-1)
	iMaxX = actor.Clamp(iMaxX, 0, sizeX-1)
	iMinY = actor.Clamp(iMinY, 0, sizeY-1)
	iMaxY = actor.Clamp(iMaxY, 0, sizeY-1)

	lowest, highest := hf.RectMinMax(iMinX, iMinY, iMaxX, iMaxY)
	if local.Z()-radius > highest || local.Z()+radius < lowest {
		return 0, 0, 0, 0, false
	}

	return iMinX, iMinY, iMaxX, iMaxY, true
}

// pillarPose places a pillar of the heightfield in world space
func pillarPose(field posedShape, pillar actor.HeightfieldPillar) posedShape {
	return posedShape{
		shape:    field.shape,
		position: field.position.Add(field.rotation.Rotate(pillar.Offset)),
		rotation: field.rotation,
		body:     field.body,
	}
}

// convexHeightfield collides a convex shape with the pillars of the squares under it
func (n *Narrowphase) convexHeightfield(a, b posedShape, justTest bool) bool {
	hf := b.shape.(*actor.Heightfield)
	hull := hullOf(a.shape)
	radius := a.shape.BoundingSphereRadius()

	iMinX, iMinY, iMaxX, iMaxY, ok := n.heightfieldRange(hf, a.position, radius, b)
	if !ok {
		return false
	}

	found := false
	for i := iMinX; i < iMaxX; i++ {
		for j := iMinY; j < iMaxY; j++ {
			for _, upper := range [2]bool{false, true} {
				pillar := hf.ConvexTrianglePillar(i, j, upper)
				pose := pillarPose(b, pillar)
				if a.position.Sub(pose.position).Len() >= pillar.Hull.BoundingSphereRadius()+radius {
					continue
				}

				if n.convexHulls(a, hull, pose, pillar.Hull, nil, pillarFaces, justTest) {
					if justTest {
						return true
					}
					found = true
				}
			}
		}
	}

	return found
}

// heightfieldConvex serves the shapes sorting after the heightfield
func (n *Narrowphase) heightfieldConvex(a, b posedShape, justTest bool) bool {
	first := len(n.Contacts)
	hit := n.convexHeightfield(b, a, justTest)
	if !justTest {
		for _, c := range n.Contacts[first:] {
			mirrorContact(c)
		}
	}

	return hit
}

// ========== PARTICULE ==========

// convexParticle pushes a particle inside the hull out through the nearest face
func (n *Narrowphase) convexParticle(a, b posedShape, justTest bool) bool {
	hull := hullOf(a.shape)
	if !sat.PointIsInside(hull, b.position, a.position, a.rotation) {
		return false
	}
	if justTest {
		return true
	}

	face := -1
	minPenetration := math.Inf(1)
	var normal mgl64.Vec3
	for i, indices := range hull.Faces {
		worldNormal := a.rotation.Rotate(hull.FaceNormals[i])
		worldVertex := a.rotation.Rotate(hull.Vertices[indices[0]]).Add(a.position)

		penetration := -worldNormal.Dot(b.position.Sub(worldVertex))
		if math.Abs(penetration) < math.Abs(minPenetration) {
			minPenetration = penetration
			normal = worldNormal
			face = i
		}
	}

	if face < 0 {
		loggerOrDiscard(n.Logger).Warn("particle inside a hull without faces", "body", a.body.Id)
		return false
	}

	c := n.createContact(a, b)
	c.Ni = normal
	c.Ri = a.offset(b.position.Add(normal.Mul(minPenetration)))
	c.Rj = b.offset(b.position)
	n.addContact(c)

	return true
}

// particleConvex serves the shapes sorting after the particle
func (n *Narrowphase) particleConvex(a, b posedShape, justTest bool) bool {
	first := len(n.Contacts)
	hit := n.convexParticle(b, a, justTest)
	if !justTest {
		for _, c := range n.Contacts[first:] {
			mirrorContact(c)
		}
	}

	return hit
}
