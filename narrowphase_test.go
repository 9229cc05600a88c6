package impulse

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const tolerance = 1e-9

func vec3Near(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() < 1e-6
}

func newBody(shape actor.ShapeInterface, position mgl64.Vec3, bodyType actor.BodyType) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
		shape,
		bodyType,
		1.0,
	)
}

// contactValues copies what a test needs out of pooled equations
type contactValues struct {
	bodyA, bodyB *actor.RigidBody
	ni, ri, rj   mgl64.Vec3
}

func collect(n *Narrowphase) []contactValues {
	values := make([]contactValues, 0, len(n.Contacts))
	for _, c := range n.Contacts {
		values = append(values, contactValues{bodyA: c.BodyA, bodyB: c.BodyB, ni: c.Ni, ri: c.Ri, rj: c.Rj})
	}
	return values
}

func contactsOf(bodyA, bodyB *actor.RigidBody) []contactValues {
	n := NewNarrowphase(nil)
	n.GetContacts([]Pair{{BodyA: bodyA, BodyB: bodyB}})
	return collect(n)
}

// gap is the signed distance between the two contact points along the normal
func gap(c contactValues) float64 {
	pointA := c.bodyA.Transform.Position.Add(c.ri)
	pointB := c.bodyB.Transform.Position.Add(c.rj)
	return c.ni.Dot(pointB.Sub(pointA))
}

func TestSupports(t *testing.T) {
	n := NewNarrowphase(nil)

	tests := []struct {
		a, b actor.ShapeType
		want bool
	}{
		{actor.ShapeTypeSphere, actor.ShapeTypeSphere, true},
		{actor.ShapeTypeBox, actor.ShapeTypeSphere, true},
		{actor.ShapeTypeCylinder, actor.ShapeTypeBox, true},
		{actor.ShapeTypeCylinder, actor.ShapeTypeHeightfield, true},
		{actor.ShapeTypeCylinder, actor.ShapeTypeParticle, true},
		{actor.ShapeTypeTrimesh, actor.ShapeTypePlane, true},
		{actor.ShapeTypePlane, actor.ShapeTypePlane, false},
		{actor.ShapeTypeHeightfield, actor.ShapeTypeTrimesh, false},
		{actor.ShapeTypeParticle, actor.ShapeTypeParticle, false},
		{actor.ShapeTypeBox, actor.ShapeTypeTrimesh, false},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"/"+tt.b.String(), func(t *testing.T) {
			if got := n.Supports(tt.a, tt.b); got != tt.want {
				t.Errorf("Supports(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSphereSphere(t *testing.T) {
	bodyA := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	bodyB := newBody(actor.NewSphere(1), mgl64.Vec3{1.5, 0, 0}, actor.BodyTypeDynamic)

	contacts := contactsOf(bodyA, bodyB)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}

	c := contacts[0]
	if c.bodyA != bodyA || c.bodyB != bodyB {
		t.Error("BodyA should be the first body of the pair")
	}
	if !vec3Near(c.ni, mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Ni = %v, want {1 0 0}", c.ni)
	}
	if !vec3Near(c.ri, mgl64.Vec3{1, 0, 0}) || !vec3Near(c.rj, mgl64.Vec3{-1, 0, 0}) {
		t.Errorf("Ri = %v, Rj = %v, want {1 0 0} and {-1 0 0}", c.ri, c.rj)
	}
	if g := gap(c); math.Abs(g+0.5) > tolerance {
		t.Errorf("gap = %v, want -0.5", g)
	}
}

func TestSphereSphereCoincident(t *testing.T) {
	bodyA := newBody(actor.NewSphere(1), mgl64.Vec3{2, 2, 2}, actor.BodyTypeDynamic)
	bodyB := newBody(actor.NewSphere(1), mgl64.Vec3{2, 2, 2}, actor.BodyTypeDynamic)

	contacts := contactsOf(bodyA, bodyB)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	if !vec3Near(contacts[0].ni, mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Ni = %v, want the X fallback", contacts[0].ni)
	}
}

func TestSeparatedShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape actor.ShapeInterface
	}{
		{"sphere", actor.NewSphere(0.5)},
		{"box", actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5})},
		{"cylinder", actor.NewCylinder(0.5, 0.5, 1, 8)},
		{"particle", actor.NewParticle()},
	}

	for _, a := range tests {
		for _, b := range tests {
			t.Run(a.name+"/"+b.name, func(t *testing.T) {
				bodyA := newBody(a.shape, mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
				bodyB := newBody(b.shape, mgl64.Vec3{3, 0.2, 0}, actor.BodyTypeDynamic)

				if contacts := contactsOf(bodyA, bodyB); len(contacts) != 0 {
					t.Errorf("got %d contacts between separated shapes", len(contacts))
				}
			})
		}
	}
}

func TestSphereBox(t *testing.T) {
	tests := []struct {
		name     string
		position mgl64.Vec3
		wantNi   mgl64.Vec3
		wantRj   mgl64.Vec3
	}{
		{"face", mgl64.Vec3{0, 1.4, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}},
		{"face offset", mgl64.Vec3{0.3, 0, -1.2}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0.3, 0, -1}},
		{"corner", mgl64.Vec3{1.2, 1.2, 1.2}, mgl64.Vec3{-1, -1, -1}.Normalize(), mgl64.Vec3{1, 1, 1}},
		{"edge", mgl64.Vec3{1.2, 1.2, 0}, mgl64.Vec3{-1, -1, 0}.Normalize(), mgl64.Vec3{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphere := newBody(actor.NewSphere(0.5), tt.position, actor.BodyTypeDynamic)
			box := newBody(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

			contacts := contactsOf(sphere, box)
			if len(contacts) != 1 {
				t.Fatalf("got %d contacts, want 1", len(contacts))
			}

			c := contacts[0]
			if !vec3Near(c.ni, tt.wantNi) {
				t.Errorf("Ni = %v, want %v", c.ni, tt.wantNi)
			}
			if !vec3Near(c.rj, tt.wantRj) {
				t.Errorf("Rj = %v, want %v", c.rj, tt.wantRj)
			}
			if !vec3Near(c.ri, tt.wantNi.Mul(0.5)) {
				t.Errorf("Ri = %v, want %v", c.ri, tt.wantNi.Mul(0.5))
			}
			if gap(c) >= 0 {
				t.Errorf("gap = %v, want a penetration", gap(c))
			}
		})
	}
}

func TestSphereConvex(t *testing.T) {
	hull := actor.NewBox(mgl64.Vec3{1, 1, 1}).ConvexRepresentation()
	convex, err := actor.NewConvexPolyhedron(hull.Vertices, hull.Faces, nil)
	if err != nil {
		t.Fatal(err)
	}

	sphere := newBody(actor.NewSphere(0.5), mgl64.Vec3{0.2, 1.4, 0}, actor.BodyTypeDynamic)
	body := newBody(convex, mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

	contacts := contactsOf(sphere, body)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}

	c := contacts[0]
	if !vec3Near(c.ni, mgl64.Vec3{0, -1, 0}) {
		t.Errorf("Ni = %v, want {0 -1 0}", c.ni)
	}
	if !vec3Near(c.rj, mgl64.Vec3{0.2, 1, 0}) {
		t.Errorf("Rj = %v, want the face point {0.2 1 0}", c.rj)
	}
	if math.Abs(gap(c)+0.1) > 1e-6 {
		t.Errorf("gap = %v, want -0.1", gap(c))
	}
}

func TestSpherePlane(t *testing.T) {
	sphere := newBody(actor.NewSphere(1), mgl64.Vec3{3, 0.5, -2}, actor.BodyTypeDynamic)
	plane := newBody(actor.NewPlane(mgl64.Vec3{0, 1, 0}, 0), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

	contacts := contactsOf(sphere, plane)
	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}

	c := contacts[0]
	if !vec3Near(c.ni, mgl64.Vec3{0, -1, 0}) {
		t.Errorf("Ni = %v, want {0 -1 0}", c.ni)
	}
	if !vec3Near(c.ri, mgl64.Vec3{0, -1, 0}) || !vec3Near(c.rj, mgl64.Vec3{3, 0, -2}) {
		t.Errorf("Ri = %v, Rj = %v", c.ri, c.rj)
	}

	sphere.Transform.Position = mgl64.Vec3{0, 1.5, 0}
	if contacts := contactsOf(sphere, plane); len(contacts) != 0 {
		t.Errorf("got %d contacts above the plane", len(contacts))
	}
}

func TestPlaneBox(t *testing.T) {
	plane := newBody(actor.NewPlane(mgl64.Vec3{0, 1, 0}, 0), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	box := newBody(actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), mgl64.Vec3{0, 0.4, 0}, actor.BodyTypeDynamic)

	contacts := contactsOf(plane, box)
	if len(contacts) != 4 {
		t.Fatalf("got %d contacts, want the 4 bottom corners", len(contacts))
	}

	for _, c := range contacts {
		if c.bodyA != plane {
			t.Fatal("BodyA should be the plane")
		}
		if !vec3Near(c.ni, mgl64.Vec3{0, 1, 0}) {
			t.Errorf("Ni = %v, want {0 1 0}", c.ni)
		}
		if math.Abs(c.ri.Y()) > tolerance || math.Abs(c.rj.Y()+0.5) > tolerance {
			t.Errorf("Ri = %v, Rj = %v, want the corner and its projection", c.ri, c.rj)
		}
		if math.Abs(gap(c)+0.1) > 1e-9 {
			t.Errorf("gap = %v, want -0.1", gap(c))
		}
	}
}

func TestBoxBox(t *testing.T) {
	boxA := newBody(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	boxB := newBody(actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), mgl64.Vec3{1.4, 0, 0}, actor.BodyTypeDynamic)

	contacts := contactsOf(boxA, boxB)
	if len(contacts) != 4 {
		t.Fatalf("got %d contacts, want 4", len(contacts))
	}

	for _, c := range contacts {
		if !vec3Near(c.ni, mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Ni = %v, want {1 0 0}", c.ni)
		}
		if math.Abs(c.ri.X()-1) > 1e-9 || math.Abs(c.rj.X()+0.5) > 1e-9 {
			t.Errorf("Ri = %v, Rj = %v", c.ri, c.rj)
		}
		if g := gap(c); g > 0 || math.Abs(g+0.1) > 1e-9 {
			t.Errorf("gap = %v, want -0.1", g)
		}
	}
}

// Swapping two bodies mirrors every contact
func TestSwappedPairsMirror(t *testing.T) {
	shapes := map[string]func() actor.ShapeInterface{
		"sphere":   func() actor.ShapeInterface { return actor.NewSphere(0.6) },
		"box":      func() actor.ShapeInterface { return actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}) },
		"cylinder": func() actor.ShapeInterface { return actor.NewCylinder(0.5, 0.5, 1, 12) },
	}
	position := mgl64.Vec3{0.9, 0.3, 0.1}

	for nameA, shapeA := range shapes {
		for nameB, shapeB := range shapes {
			t.Run(nameA+"/"+nameB, func(t *testing.T) {
				bodyA := newBody(shapeA(), mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
				bodyB := newBody(shapeB(), position, actor.BodyTypeDynamic)

				forward := contactsOf(bodyA, bodyB)
				backward := contactsOf(bodyB, bodyA)

				if len(forward) == 0 || len(forward) != len(backward) {
					t.Fatalf("got %d and %d contacts", len(forward), len(backward))
				}
				for i := range forward {
					f, b := forward[i], backward[i]
					if f.bodyA != bodyA || b.bodyA != bodyB {
						t.Fatal("BodyA should follow the pair order")
					}
					if !vec3Near(f.ni, b.ni.Mul(-1)) || !vec3Near(f.ri, b.rj) || !vec3Near(f.rj, b.ri) {
						t.Errorf("contact %d: %+v is not the mirror of %+v", i, f, b)
					}
				}
			})
		}
	}
}

// Two shapes of the same type run in one order whatever the order of the pair
func TestSwappedSameTypeMirror(t *testing.T) {
	tilt := mgl64.QuatRotate(0.5, mgl64.Vec3{1, 1, 0}.Normalize())

	tests := []struct {
		name      string
		shapeA    actor.ShapeInterface
		shapeB    actor.ShapeInterface
		positionB mgl64.Vec3
		rotationB mgl64.Quat
	}{
		{"box/tilted box", actor.NewBox(mgl64.Vec3{1, 1, 1}), actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), mgl64.Vec3{1.3, 0.2, 0}, tilt},
		{"cylinder/tilted cylinder", actor.NewCylinder(0.5, 0.5, 1, 12), actor.NewCylinder(0.5, 0.5, 1, 12), mgl64.Vec3{0.7, 0.1, 0}, mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodyA := newBody(tt.shapeA, mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
			bodyB := actor.NewRigidBody(actor.NewTransformAt(tt.positionB, tt.rotationB), tt.shapeB, actor.BodyTypeDynamic, 1.0)

			forward := contactsOf(bodyA, bodyB)
			backward := contactsOf(bodyB, bodyA)

			if len(forward) == 0 || len(forward) != len(backward) {
				t.Fatalf("got %d and %d contacts", len(forward), len(backward))
			}
			for i := range forward {
				f, b := forward[i], backward[i]
				if f.bodyA != bodyA || b.bodyA != bodyB {
					t.Fatal("BodyA should follow the pair order")
				}
				if !vec3Near(f.ni, b.ni.Mul(-1)) || !vec3Near(f.ri, b.rj) || !vec3Near(f.rj, b.ri) {
					t.Errorf("contact %d: %+v is not the mirror of %+v", i, f, b)
				}
			}
		})
	}
}

func TestCompound(t *testing.T) {
	compound := actor.NewCompound()
	compound.AddChild(actor.NewSphere(0.5), mgl64.Vec3{-1, 0, 0}, mgl64.QuatIdent())
	compound.AddChild(actor.NewSphere(0.5), mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())

	body := newBody(compound, mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	sphere := newBody(actor.NewSphere(0.5), mgl64.Vec3{1, 0.8, 0}, actor.BodyTypeDynamic)

	for _, order := range []string{"compound first", "compound second"} {
		t.Run(order, func(t *testing.T) {
			var contacts []contactValues
			if order == "compound first" {
				contacts = contactsOf(body, sphere)
			} else {
				contacts = contactsOf(sphere, body)
				for i, c := range contacts {
					contacts[i] = contactValues{bodyA: c.bodyB, bodyB: c.bodyA, ni: c.ni.Mul(-1), ri: c.rj, rj: c.ri}
				}
			}

			if len(contacts) != 1 {
				t.Fatalf("got %d contacts, want 1 from the right child", len(contacts))
			}
			c := contacts[0]
			if c.bodyA != body {
				t.Fatal("the compound body should own the contact")
			}
			if !vec3Near(c.ni, mgl64.Vec3{0, 1, 0}) {
				t.Errorf("Ni = %v, want {0 1 0}", c.ni)
			}
			if !vec3Near(c.ri, mgl64.Vec3{1, 0.5, 0}) || !vec3Near(c.rj, mgl64.Vec3{0, -0.5, 0}) {
				t.Errorf("Ri = %v, Rj = %v", c.ri, c.rj)
			}
		})
	}
}

func TestHeightfield(t *testing.T) {
	flat := [][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	field := newBody(actor.NewHeightfield(flat, 1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

	t.Run("sphere", func(t *testing.T) {
		sphere := newBody(actor.NewSphere(0.5), mgl64.Vec3{0.3, 0.3, 0.3}, actor.BodyTypeDynamic)

		contacts := contactsOf(sphere, field)
		if len(contacts) == 0 {
			t.Fatal("sphere resting on the field should touch it")
		}
		if !vec3Near(contacts[0].ni, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("Ni = %v, want {0 0 -1}", contacts[0].ni)
		}
		for _, c := range contacts {
			if c.bodyB != field {
				t.Error("BodyB should be the heightfield")
			}
		}
	})

	t.Run("box", func(t *testing.T) {
		box := newBody(actor.NewBox(mgl64.Vec3{0.25, 0.25, 0.25}), mgl64.Vec3{0.3, 0.3, 0.2}, actor.BodyTypeDynamic)

		contacts := contactsOf(box, field)
		if len(contacts) == 0 {
			t.Fatal("box sunk in the field should touch it")
		}
		for _, c := range contacts {
			if c.ni.Z() >= 0 {
				t.Errorf("Ni = %v should push the box up", c.ni)
			}
		}
	})

	t.Run("off the grid", func(t *testing.T) {
		sphere := newBody(actor.NewSphere(0.5), mgl64.Vec3{10, 10, 0}, actor.BodyTypeDynamic)

		if contacts := contactsOf(sphere, field); len(contacts) != 0 {
			t.Errorf("got %d contacts off the grid", len(contacts))
		}
	})
}

func TestSphereTrimesh(t *testing.T) {
	mesh, err := actor.NewTrimesh([]mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}, []int{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	body := newBody(mesh, mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

	tests := []struct {
		name     string
		position mgl64.Vec3
		count    int
		wantNi   mgl64.Vec3
	}{
		{"face", mgl64.Vec3{0.5, 0.5, 0.3}, 1, mgl64.Vec3{0, 0, -1}},
		{"vertex", mgl64.Vec3{-0.2, -0.2, 0}, 1, mgl64.Vec3{1, 1, 0}.Normalize()},
		{"edge", mgl64.Vec3{1, -0.3, 0}, 1, mgl64.Vec3{0, 1, 0}},
		{"far", mgl64.Vec3{5, 5, 5}, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphere := newBody(actor.NewSphere(0.5), tt.position, actor.BodyTypeDynamic)

			contacts := contactsOf(sphere, body)
			if len(contacts) != tt.count {
				t.Fatalf("got %d contacts, want %d", len(contacts), tt.count)
			}
			if tt.count > 0 && !vec3Near(contacts[0].ni, tt.wantNi) {
				t.Errorf("Ni = %v, want %v", contacts[0].ni, tt.wantNi)
			}
		})
	}
}

func TestParticle(t *testing.T) {
	box := newBody(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	plane := newBody(actor.NewPlane(mgl64.Vec3{0, 1, 0}, 0), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
	sphere := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)

	tests := []struct {
		name     string
		other    *actor.RigidBody
		position mgl64.Vec3
		wantNi   mgl64.Vec3
		wantRj   mgl64.Vec3
	}{
		{"box", box, mgl64.Vec3{0.2, 0.9, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0.2, 1, 0}},
		{"plane", plane, mgl64.Vec3{1, -0.2, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, 0, 0}},
		{"sphere", sphere, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			particle := newBody(actor.NewParticle(), tt.position, actor.BodyTypeDynamic)

			contacts := contactsOf(particle, tt.other)
			if len(contacts) != 1 {
				t.Fatalf("got %d contacts, want 1", len(contacts))
			}

			c := contacts[0]
			if c.bodyA != particle {
				t.Fatal("BodyA should be the particle")
			}
			if !vec3Near(c.ni, tt.wantNi) {
				t.Errorf("Ni = %v, want %v", c.ni, tt.wantNi)
			}
			if !vec3Near(c.ri, mgl64.Vec3{}) || !vec3Near(c.rj, tt.wantRj) {
				t.Errorf("Ri = %v, Rj = %v, want {0 0 0} and %v", c.ri, c.rj, tt.wantRj)
			}
		})
	}

	t.Run("outside", func(t *testing.T) {
		particle := newBody(actor.NewParticle(), mgl64.Vec3{0, 1.5, 0}, actor.BodyTypeDynamic)
		if contacts := contactsOf(particle, box); len(contacts) != 0 {
			t.Errorf("got %d contacts outside the box", len(contacts))
		}
	})
}

func TestFriction(t *testing.T) {
	newPair := func() (*actor.RigidBody, *actor.RigidBody) {
		plane := newBody(actor.NewPlane(mgl64.Vec3{0, 1, 0}, 0), mgl64.Vec3{0, 0, 0}, actor.BodyTypeStatic)
		box := newBody(actor.NewBox(mgl64.Vec3{0.5, 0.5, 0.5}), mgl64.Vec3{0, 0.4, 0}, actor.BodyTypeDynamic)
		return plane, box
	}

	t.Run("per contact", func(t *testing.T) {
		plane, box := newPair()
		n := NewNarrowphase(nil)
		n.Gravity = mgl64.Vec3{0, -10, 0}
		n.GetContacts([]Pair{{BodyA: plane, BodyB: box}})

		if len(n.Frictions) != 2*len(n.Contacts) {
			t.Fatalf("got %d frictions for %d contacts", len(n.Frictions), len(n.Contacts))
		}

		// μ·g·m = 0.3 * 10 * 1
		for i, f := range n.Frictions {
			if math.Abs(f.MaxForce-3) > tolerance || math.Abs(f.MinForce+3) > tolerance {
				t.Errorf("friction %d bounds = [%v, %v], want [-3, 3]", i, f.MinForce, f.MaxForce)
			}
			if math.Abs(f.T.Dot(mgl64.Vec3{0, 1, 0})) > tolerance || math.Abs(f.T.Len()-1) > tolerance {
				t.Errorf("friction %d tangent = %v, want a unit vector in the plane", i, f.T)
			}
		}
	})

	t.Run("averaged", func(t *testing.T) {
		plane, box := newPair()
		n := NewNarrowphase(nil)
		n.EnableFrictionReduction = true
		n.GetContacts([]Pair{{BodyA: plane, BodyB: box}})

		if len(n.Contacts) != 4 || len(n.Frictions) != 2 {
			t.Fatalf("got %d contacts and %d frictions, want 4 and 2", len(n.Contacts), len(n.Frictions))
		}
		for _, f := range n.Frictions {
			if !vec3Near(f.Ri, mgl64.Vec3{}) || !vec3Near(f.Rj, mgl64.Vec3{0, -0.5, 0}) {
				t.Errorf("Ri = %v, Rj = %v, want the average of the corners", f.Ri, f.Rj)
			}
		}
		if math.Abs(n.Frictions[0].T.Dot(n.Frictions[1].T)) > tolerance {
			t.Error("friction tangents should be orthogonal")
		}
	})

	t.Run("frictionless", func(t *testing.T) {
		plane, box := newPair()
		materials := actor.NewContactMaterialTable()
		materials.Default.Friction = 0

		n := NewNarrowphase(materials)
		n.GetContacts([]Pair{{BodyA: plane, BodyB: box}})

		if len(n.Contacts) != 4 || len(n.Frictions) != 0 {
			t.Errorf("got %d contacts and %d frictions, want 4 and 0", len(n.Contacts), len(n.Frictions))
		}
	})
}

func TestContactMaterials(t *testing.T) {
	ice := actor.NewMaterial("ice")
	rubber := actor.NewMaterial("rubber")
	steel := actor.NewMaterial("steel")

	materials := actor.NewContactMaterialTable()
	iceRubber := actor.NewContactMaterial(ice, rubber)
	iceRubber.Friction = 0.05
	iceRubber.Restitution = 0.7
	materials.Add(iceRubber)
	steelRubber := actor.NewContactMaterial(steel, rubber)
	steelRubber.Friction = 0.9
	materials.Add(steelRubber)

	tests := []struct {
		name            string
		bodyA, bodyB    *actor.Material
		shapeA, shapeB  *actor.Material
		wantFriction    float64
		wantRestitution float64
	}{
		{"default", nil, nil, nil, nil, actor.DefaultFriction, actor.DefaultRestitution},
		{"body materials", ice, rubber, nil, nil, 0.05, 0.7},
		{"one shape material", ice, rubber, steel, nil, 0.05, 0.7},
		{"shape materials first", ice, rubber, steel, rubber, 0.9, actor.DefaultRestitution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sphereA, sphereB := actor.NewSphere(1), actor.NewSphere(1)
			sphereA.Material, sphereB.Material = tt.shapeA, tt.shapeB
			bodyA := newBody(sphereA, mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
			bodyB := newBody(sphereB, mgl64.Vec3{1.5, 0, 0}, actor.BodyTypeDynamic)
			bodyA.Material, bodyB.Material = tt.bodyA, tt.bodyB

			n := NewNarrowphase(materials)
			n.Gravity = mgl64.Vec3{0, -10, 0}
			n.GetContacts([]Pair{{BodyA: bodyA, BodyB: bodyB}})

			if len(n.Contacts) != 1 || len(n.Frictions) != 2 {
				t.Fatalf("got %d contacts and %d frictions", len(n.Contacts), len(n.Frictions))
			}
			if got := n.Contacts[0].Restitution; math.Abs(got-tt.wantRestitution) > tolerance {
				t.Errorf("Restitution = %v, want %v", got, tt.wantRestitution)
			}
			// Masse réduite 0.5
			if got := n.Frictions[0].MaxForce; math.Abs(got-tt.wantFriction*10*0.5) > tolerance {
				t.Errorf("slip force = %v, want %v", got, tt.wantFriction*10*0.5)
			}
		})
	}
}

func TestFiltersAndTriggers(t *testing.T) {
	t.Run("filtered", func(t *testing.T) {
		sphereA := actor.NewSphere(1)
		sphereA.CollisionFilterGroup = 2
		sphereB := actor.NewSphere(1)
		sphereB.CollisionFilterMask = 1

		bodyA := newBody(sphereA, mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
		bodyB := newBody(sphereB, mgl64.Vec3{1, 0, 0}, actor.BodyTypeDynamic)

		if contacts := contactsOf(bodyA, bodyB); len(contacts) != 0 {
			t.Errorf("got %d contacts between filtered shapes", len(contacts))
		}
	})

	t.Run("trigger", func(t *testing.T) {
		bodyA := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
		bodyB := newBody(actor.NewSphere(1), mgl64.Vec3{1, 0, 0}, actor.BodyTypeDynamic)
		bodyB.IsTrigger = true

		n := NewNarrowphase(nil)
		n.GetContacts([]Pair{{BodyA: bodyA, BodyB: bodyB}})

		if len(n.Contacts) != 1 {
			t.Fatalf("got %d contacts, want 1", len(n.Contacts))
		}
		if n.Contacts[0].Enabled {
			t.Error("trigger contacts should be disabled")
		}
		for _, f := range n.Frictions {
			if f.Enabled {
				t.Error("trigger frictions should be disabled")
			}
		}
	})
}

func TestOverlapsWithoutEquations(t *testing.T) {
	kinematic := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeKinematic)
	static := newBody(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{1.5, 0, 0}, actor.BodyTypeStatic)
	far := newBody(actor.NewBox(mgl64.Vec3{1, 1, 1}), mgl64.Vec3{8, 0, 0}, actor.BodyTypeStatic)

	n := NewNarrowphase(nil)
	n.GetContacts([]Pair{{BodyA: kinematic, BodyB: static}, {BodyA: kinematic, BodyB: far}})

	if len(n.Contacts) != 0 || len(n.Frictions) != 0 {
		t.Errorf("got %d contacts and %d frictions, want none", len(n.Contacts), len(n.Frictions))
	}
	if len(n.Overlaps) != 1 || n.Overlaps[0].BodyB != static {
		t.Errorf("Overlaps = %v, want the touching pair only", n.Overlaps)
	}
	if !n.Overlap(kinematic, static) || n.Overlap(kinematic, far) {
		t.Error("Overlap() disagrees with GetContacts")
	}
}

func TestEquationsRecycled(t *testing.T) {
	bodyA := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	bodyB := newBody(actor.NewSphere(1), mgl64.Vec3{1.5, 0, 0}, actor.BodyTypeDynamic)
	pairs := []Pair{{BodyA: bodyA, BodyB: bodyB}}

	n := NewNarrowphase(nil)
	n.GetContacts(pairs)
	first := n.Contacts[0]

	n.GetContacts(pairs)
	if n.Contacts[0] != first {
		t.Error("the contact of the previous call should be reused")
	}

	n.GetContacts(nil)
	if len(n.Contacts) != 0 || len(n.Frictions) != 0 {
		t.Error("an empty call should release every equation")
	}
}

// SPOOK parameters follow the contact material and the time step
func TestContactSpook(t *testing.T) {
	bodyA := newBody(actor.NewSphere(1), mgl64.Vec3{0, 0, 0}, actor.BodyTypeDynamic)
	bodyB := newBody(actor.NewSphere(1), mgl64.Vec3{1.5, 0, 0}, actor.BodyTypeDynamic)

	n := NewNarrowphase(nil)
	n.Dt = 1.0 / 120.0
	n.GetContacts([]Pair{{BodyA: bodyA, BodyB: bodyB}})

	var want constraint.BaseEquation
	want.SetSpookParams(actor.DefaultEquationStiffness, actor.DefaultEquationRelaxation, n.Dt)

	got := n.Contacts[0].BaseEquation
	if got.A != want.A || got.B != want.B || got.Eps != want.Eps {
		t.Errorf("SPOOK = (%v, %v, %v), want (%v, %v, %v)", got.A, got.B, got.Eps, want.A, want.B, want.Eps)
	}
}
