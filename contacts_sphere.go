package impulse

import (
	"math"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ========== SPHERE ==========

func (n *Narrowphase) sphereSphere(a, b posedShape, justTest bool) bool {
	radiusA := a.shape.(*actor.Sphere).Radius
	radiusB := b.shape.(*actor.Sphere).Radius

	if justTest {
		return a.position.Sub(b.position).LenSqr() < (radiusA+radiusB)*(radiusA+radiusB)
	}

	c := n.createContact(a, b)
	c.Ni = unitOr(b.position.Sub(a.position), mgl64.Vec3{1, 0, 0})
	c.Ri = a.offset(a.position.Add(c.Ni.Mul(radiusA)))
	c.Rj = b.offset(b.position.Sub(c.Ni.Mul(radiusB)))
	n.addContact(c)

	return true
}

// spherePlane emits at most one contact, the sphere point deepest behind the plane
func (n *Narrowphase) spherePlane(a, b posedShape, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	plane := b.shape.(*actor.Plane)

	// La normale sort de la sphère, vers le plan
	normal := plane.WorldNormal(b.rotation).Mul(-1)
	planePoint := plane.WorldPoint(b.position, b.rotation)

	planeToSphere := a.position.Sub(planePoint)
	if -planeToSphere.Dot(normal) > radius {
		return false
	}
	if justTest {
		return true
	}

	projected := planeToSphere.Sub(normal.Mul(normal.Dot(planeToSphere)))

	c := n.createContact(a, b)
	c.Ni = normal
	c.Ri = a.offset(a.position.Add(normal.Mul(radius)))
	c.Rj = b.offset(planePoint.Add(projected))
	n.addContact(c)

	return true
}

// sphereBox tests the box faces, then its corners, then its edges, and stops at the first hit
func (n *Narrowphase) sphereBox(a, b posedShape, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	half := b.shape.(*actor.Box).SideNormals(b.rotation)
	sides := [6]mgl64.Vec3{half[0], half[1], half[2], half[0].Mul(-1), half[1].Mul(-1), half[2].Mul(-1)}

	boxToSphere := a.position.Sub(b.position)

	// ========== FACES ==========
	found := false
	var sideNormal, sideNormal1, sideNormal2 mgl64.Vec3
	var sideH, sideDot1, sideDot2 float64
	sideDistance := math.Inf(1)

	for idx := range sides {
		h := sides[idx].Len()
		ns := sides[idx].Mul(1 / h)
		dot := boxToSphere.Dot(ns)
		if dot >= h+radius || dot <= 0 {
			continue
		}

		h1 := sides[(idx+1)%3].Len()
		h2 := sides[(idx+2)%3].Len()
		ns1 := sides[(idx+1)%3].Mul(1 / h1)
		ns2 := sides[(idx+2)%3].Mul(1 / h2)
		dot1 := boxToSphere.Dot(ns1)
		dot2 := boxToSphere.Dot(ns2)
		if math.Abs(dot1) >= h1 || math.Abs(dot2) >= h2 {
			continue
		}

		if justTest {
			return true
		}

		distance := math.Abs(dot - h - radius)
		if distance < sideDistance {
			sideDistance = distance
			sideNormal, sideNormal1, sideNormal2 = ns, ns1, ns2
			sideH, sideDot1, sideDot2 = h, dot1, dot2
			found = true
		}
	}

	if found {
		c := n.createContact(a, b)
		c.Ni = sideNormal.Mul(-1)
		c.Ri = a.offset(a.position.Sub(sideNormal.Mul(radius)))
		boxPoint := sideNormal.Mul(sideH).Add(sideNormal1.Mul(sideDot1)).Add(sideNormal2.Mul(sideDot2))
		c.Rj = b.offset(b.position.Add(boxPoint))
		n.addContact(c)

		return true
	}

	// ========== COINS ==========
	for j := 0; j < 2; j++ {
		for k := 0; k < 2; k++ {
			for l := 0; l < 2; l++ {
				corner := sides[3*j].Add(sides[1+3*k]).Add(sides[2+3*l])
				sphereToCorner := b.position.Add(corner).Sub(a.position)
				if sphereToCorner.LenSqr() >= radius*radius {
					continue
				}
				if justTest {
					return true
				}

				c := n.createContact(a, b)
				c.Ni = unitOr(sphereToCorner, boxToSphere.Mul(-1).Normalize())
				c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
				c.Rj = b.offset(b.position.Add(corner))
				n.addContact(c)

				return true
			}
		}
	}

	// ========== ARÊTES ==========
	for j := range sides {
		for k := range sides {
			if j%3 == k%3 {
				continue
			}

			edgeTangent := sides[k].Cross(sides[j]).Normalize()
			edgeCenter := sides[j].Add(sides[k])
			centerToSphere := a.position.Sub(edgeCenter).Sub(b.position)
			alongEdge := centerToSphere.Dot(edgeTangent)
			orthogonal := edgeTangent.Mul(alongEdge)

			// Troisième axe, celui de l'arête
			l := 0
			for l == j%3 || l == k%3 {
				l++
			}

			distance := centerToSphere.Sub(orthogonal)
			if math.Abs(alongEdge) >= sides[l].Len() || distance.Len() >= radius {
				continue
			}
			if justTest {
				return true
			}

			boxPoint := edgeCenter.Add(orthogonal)

			c := n.createContact(a, b)
			c.Ni = unitOr(distance.Mul(-1), boxToSphere.Mul(-1).Normalize())
			c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
			c.Rj = b.offset(b.position.Add(boxPoint))
			n.addContact(c)

			return true
		}
	}

	return false
}

// sphereConvex works on the convex representation of b. Corners come first, then faces,
// then the edges of the faces the sphere is in front of. The first hit wins.
func (n *Narrowphase) sphereConvex(a, b posedShape, justTest bool) bool {
	hull := b.shape.(actor.Convex).ConvexRepresentation()
	return n.sphereHull(a, b, hull, justTest)
}

func (n *Narrowphase) sphereHull(a, b posedShape, hull *actor.ConvexPolyhedron, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius

	// ========== COINS ==========
	for _, v := range hull.Vertices {
		worldCorner := b.rotation.Rotate(v).Add(b.position)
		sphereToCorner := worldCorner.Sub(a.position)
		if sphereToCorner.LenSqr() >= radius*radius {
			continue
		}
		if justTest {
			return true
		}

		c := n.createContact(a, b)
		c.Ni = unitOr(sphereToCorner, b.position.Sub(a.position).Normalize())
		c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
		c.Rj = b.offset(worldCorner)
		n.addContact(c)

		return true
	}

	// ========== FACES ==========
	for i, face := range hull.Faces {
		worldNormal := b.rotation.Rotate(hull.FaceNormals[i])
		worldPoint := b.rotation.Rotate(hull.Vertices[face[0]]).Add(b.position)

		// Point de la sphère le plus proche du plan de la face
		closest := a.position.Sub(worldNormal.Mul(radius))
		penetration := closest.Sub(worldPoint).Dot(worldNormal)
		if penetration >= 0 || a.position.Sub(worldPoint).Dot(worldNormal) <= 0 {
			continue
		}

		n.faceVerts = n.faceVerts[:0]
		for _, index := range face {
			n.faceVerts = append(n.faceVerts, b.rotation.Rotate(hull.Vertices[index]).Add(b.position))
		}

		if pointInPolygon(n.faceVerts, worldNormal, a.position) {
			if justTest {
				return true
			}

			c := n.createContact(a, b)
			c.Ni = worldNormal.Mul(-1)
			c.Ri = a.offset(a.position.Sub(worldNormal.Mul(radius)))
			c.Rj = b.offset(closest.Sub(worldNormal.Mul(penetration)))
			n.addContact(c)

			return true
		}

		// Arêtes de la face
		for j := range n.faceVerts {
			v1 := n.faceVerts[(j+1)%len(n.faceVerts)]
			v2 := n.faceVerts[(j+2)%len(n.faceVerts)]
			edge := v2.Sub(v1)
			edgeUnit := edge.Normalize()

			dot := a.position.Sub(v1).Dot(edgeUnit)
			onEdge := v1.Add(edgeUnit.Mul(dot))
			sphereToEdge := onEdge.Sub(a.position)
			if dot <= 0 || dot*dot >= edge.LenSqr() || sphereToEdge.LenSqr() >= radius*radius {
				continue
			}
			if justTest {
				return true
			}

			c := n.createContact(a, b)
			c.Ni = unitOr(sphereToEdge, worldNormal.Mul(-1))
			c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
			c.Rj = b.offset(onEdge)
			n.addContact(c)

			return true
		}
	}

	return false
}

// sphereParticle emits a contact when the particle is inside the sphere
func (n *Narrowphase) sphereParticle(a, b posedShape, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius

	toParticle := b.position.Sub(a.position)
	if toParticle.LenSqr() > radius*radius {
		return false
	}
	if justTest {
		return true
	}

	c := n.createContact(a, b)
	c.Ni = unitOr(toParticle, mgl64.Vec3{1, 0, 0})
	c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
	c.Rj = b.offset(b.position)
	n.addContact(c)

	return true
}

// sphereHeightfield collides the sphere with the pillars of the cells under it.
// It gives up after a cell producing more than two contacts.
func (n *Narrowphase) sphereHeightfield(a, b posedShape, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	hf := b.shape.(*actor.Heightfield)

	iMinX, iMinY, iMaxX, iMaxY, ok := n.heightfieldRange(hf, a.position, radius, b)
	if !ok {
		return false
	}

	found := false
	for i := iMinX; i < iMaxX; i++ {
		for j := iMinY; j < iMaxY; j++ {
			before := len(n.Contacts)

			for _, upper := range [2]bool{false, true} {
				pillar := hf.ConvexTrianglePillar(i, j, upper)
				pose := pillarPose(b, pillar)
				if a.position.Sub(pose.position).Len() >= pillar.Hull.BoundingSphereRadius()+radius {
					continue
				}

				if n.sphereHull(a, pose, pillar.Hull, justTest) {
					if justTest {
						return true
					}
					found = true
				}
			}

			if len(n.Contacts)-before > 2 {
				return found
			}
		}
	}

	return found
}

// sphereTrimesh tests the triangles whose bounds meet the sphere: their vertices,
// then their edges, then their faces. Shared vertices and edges are tested once.
func (n *Narrowphase) sphereTrimesh(a, b posedShape, justTest bool) bool {
	radius := a.shape.(*actor.Sphere).Radius
	mesh := b.shape.(*actor.Trimesh)
	transform := actor.NewTransformAt(b.position, b.rotation)

	localCenter := transform.PointToLocal(a.position)
	extent := mgl64.Vec3{radius, radius, radius}
	n.triangles = mesh.TrianglesInAABB(actor.AABB{Min: localCenter.Sub(extent), Max: localCenter.Add(extent)}, n.triangles[:0])

	found := false
	clear(n.seenKeys)

	// ========== SOMMETS ==========
	for _, triangle := range n.triangles {
		for j := 0; j < 3; j++ {
			index := mesh.Indices[3*triangle+j]
			if _, seen := n.seenKeys[[2]int{index, index}]; seen {
				continue
			}
			n.seenKeys[[2]int{index, index}] = struct{}{}

			v := mesh.Vertices[index]
			if v.Sub(localCenter).LenSqr() > radius*radius {
				continue
			}
			if justTest {
				return true
			}

			worldVertex := transform.PointToWorld(v)

			c := n.createContact(a, b)
			c.Ni = unitOr(worldVertex.Sub(a.position), b.rotation.Rotate(mesh.Normals[triangle]).Mul(-1))
			c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
			c.Rj = b.offset(worldVertex)
			n.addContact(c)
			found = true
		}
	}

	// ========== ARÊTES ==========
	for _, triangle := range n.triangles {
		for j := 0; j < 3; j++ {
			i0, i1 := mesh.Indices[3*triangle+j], mesh.Indices[3*triangle+(j+1)%3]
			key := [2]int{min(i0, i1), max(i0, i1)}
			if _, seen := n.seenKeys[key]; seen {
				continue
			}
			n.seenKeys[key] = struct{}{}

			edgeA, edgeB := mesh.Vertices[i0], mesh.Vertices[i1]
			edge := edgeB.Sub(edgeA)
			if localCenter.Sub(edgeA).Dot(edge) <= 0 || localCenter.Sub(edgeB).Dot(edge) >= 0 {
				continue
			}

			edgeUnit := edge.Normalize()
			onEdge := edgeA.Add(edgeUnit.Mul(localCenter.Sub(edgeA).Dot(edgeUnit)))
			if onEdge.Sub(localCenter).Len() >= radius {
				continue
			}
			if justTest {
				return true
			}

			localNormal := unitOr(onEdge.Sub(localCenter), mesh.Normals[triangle].Mul(-1))

			c := n.createContact(a, b)
			c.Ni = transform.VectorToWorld(localNormal)
			c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
			c.Rj = b.offset(transform.PointToWorld(onEdge))
			n.addContact(c)
			found = true
		}
	}

	// ========== FACES ==========
	for _, triangle := range n.triangles {
		va, vb, vc := mesh.Triangle(triangle)
		normal := mesh.Normals[triangle]

		distance := localCenter.Sub(va).Dot(normal)
		projected := localCenter.Sub(normal.Mul(distance))
		if math.Abs(distance) >= radius || !triangleContains(va, vb, vc, projected) {
			continue
		}
		if justTest {
			return true
		}

		localNormal := unitOr(projected.Sub(localCenter), normal.Mul(-1))

		c := n.createContact(a, b)
		c.Ni = transform.VectorToWorld(localNormal)
		c.Ri = a.offset(a.position.Add(c.Ni.Mul(radius)))
		c.Rj = b.offset(transform.PointToWorld(projected))
		n.addContact(c)
		found = true
	}

	return found
}

// pointInPolygon reports whether p, projected along normal, lies inside the convex polygon.
// Every edge must see p on the same side.
func pointInPolygon(vertices []mgl64.Vec3, normal, p mgl64.Vec3) bool {
	positive, decided := false, false
	for i, v := range vertices {
		edge := vertices[(i+1)%len(vertices)].Sub(v)
		side := edge.Cross(normal).Dot(p.Sub(v))

		if !decided {
			positive, decided = side > 0, true
			continue
		}
		if (side > 0) != positive {
			return false
		}
	}

	return true
}

// triangleContains reports whether p, assumed in the plane of the triangle, lies inside it
func triangleContains(a, b, c, p mgl64.Vec3) bool {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return false
	}

	u := (dot11*dot02 - dot01*dot12) / denom
	v := (dot00*dot12 - dot01*dot02) / denom

	return u >= 0 && v >= 0 && u+v <= 1
}
