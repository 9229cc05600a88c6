package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ========== PLAN ==========

func (n *Narrowphase) planeConvex(a, b posedShape, justTest bool) bool {
	return n.planeVertices(a, b, hullOf(b.shape).Vertices, justTest)
}

func (n *Narrowphase) planeTrimesh(a, b posedShape, justTest bool) bool {
	return n.planeVertices(a, b, b.shape.(*actor.Trimesh).Vertices, justTest)
}

// planeVertices emits one contact per vertex of b lying behind the plane a.
// The plane side of the contact is the projection of the vertex onto the plane.
func (n *Narrowphase) planeVertices(a, b posedShape, vertices []mgl64.Vec3, justTest bool) bool {
	plane := a.shape.(*actor.Plane)
	normal := plane.WorldNormal(a.rotation)
	planePoint := plane.WorldPoint(a.position, a.rotation)

	found := false
	for _, v := range vertices {
		worldVertex := b.rotation.Rotate(v).Add(b.position)

		depth := normal.Dot(worldVertex.Sub(planePoint))
		if depth > 0 {
			continue
		}
		if justTest {
			return true
		}

		c := n.createContact(a, b)
		c.Ni = normal
		c.Ri = a.offset(worldVertex.Sub(normal.Mul(depth)))
		c.Rj = b.offset(worldVertex)
		n.addContact(c)
		found = true
	}

	return found
}

// planeParticle emits a contact when the particle is behind the plane
func (n *Narrowphase) planeParticle(a, b posedShape, justTest bool) bool {
	plane := a.shape.(*actor.Plane)
	normal := plane.WorldNormal(a.rotation)

	depth := normal.Dot(b.position.Sub(plane.WorldPoint(a.position, a.rotation)))
	if depth > 0 {
		return false
	}
	if justTest {
		return true
	}

	c := n.createContact(a, b)
	c.Ni = normal
	c.Ri = a.offset(b.position.Sub(normal.Mul(depth)))
	c.Rj = b.offset(b.position)
	n.addContact(c)

	return true
}
