package impulse

import (
	"io"
	"log/slog"
	"unsafe"

	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
	"github.com/akmonengine/impulse/sat"
	"github.com/go-gl/mathgl/mgl64"
)

// posedShape is a leaf shape at its world pose, with the body owning it.
// For heightfield pillars the pose is the one of the pillar while shape stays the heightfield.
type posedShape struct {
	shape    actor.ShapeInterface
	position mgl64.Vec3
	rotation mgl64.Quat
	body     *actor.RigidBody
}

func bodyPose(body *actor.RigidBody) posedShape {
	return posedShape{
		shape:    body.Shape,
		position: body.Transform.Position,
		rotation: body.Transform.Rotation,
		body:     body,
	}
}

// offset converts a world point into an offset from the body center
func (p posedShape) offset(worldPoint mgl64.Vec3) mgl64.Vec3 {
	return worldPoint.Sub(p.body.Transform.Position)
}

// pairFunc generates the contacts of a and b, a having the lower shape type.
// Equations are appended to the narrowphase with BodyA = a.body and a normal pointing out of a.
// With justTest, nothing is appended and the result tells whether the shapes overlap.
type pairFunc func(n *Narrowphase, a, b posedShape, justTest bool) bool

// Narrowphase turns broadphase pairs into contact and friction equations.
// Equations are pooled: the ones returned by a GetContacts call are recycled by the next one.
// A Narrowphase is not safe for concurrent use.
type Narrowphase struct {
	Materials               *actor.ContactMaterialTable
	EnableFrictionReduction bool
	// Gravity scales the friction slip force
	Gravity mgl64.Vec3
	// Dt is the time step used for the SPOOK parameters of the equations
	Dt     float64
	Logger *slog.Logger

	Contacts  []*constraint.ContactEquation
	Frictions []*constraint.FrictionEquation
	// Overlaps lists the pairs tested without generating equations, when neither body is dynamic
	Overlaps []Pair

	contactPool  *constraint.Pool[constraint.ContactEquation]
	frictionPool *constraint.Pool[constraint.FrictionEquation]

	// current is the contact material of the shape pair being processed
	current *actor.ContactMaterial
	table   [actor.NumShapeTypes][actor.NumShapeTypes]pairFunc

	clipper    sat.Clipper
	clipPoints []sat.ContactPoint
	triangles  []int
	faceVerts  []mgl64.Vec3
	seenKeys   map[[2]int]struct{}
}

func NewNarrowphase(materials *actor.ContactMaterialTable) *Narrowphase {
	if materials == nil {
		materials = actor.NewContactMaterialTable()
	}

	n := &Narrowphase{
		Materials: materials,
		Dt:        constraint.DefaultTimeStep,
		contactPool: constraint.NewPool(func() *constraint.ContactEquation {
			return &constraint.ContactEquation{}
		}),
		frictionPool: constraint.NewPool(func() *constraint.FrictionEquation {
			return &constraint.FrictionEquation{}
		}),
		seenKeys: make(map[[2]int]struct{}),
	}
	n.registerPairs()

	return n
}

func (n *Narrowphase) register(typeA, typeB actor.ShapeType, fn pairFunc) {
	if typeA > typeB {
		panic("narrowphase: pair routines take the lower shape type first")
	}
	n.table[typeA][typeB] = fn
}

// registerPairs fills the dispatch table. Compounds never reach it, they are split beforehand.
func (n *Narrowphase) registerPairs() {
	const (
		sphere      = actor.ShapeTypeSphere
		plane       = actor.ShapeTypePlane
		box         = actor.ShapeTypeBox
		convex      = actor.ShapeTypeConvexPolyhedron
		heightfield = actor.ShapeTypeHeightfield
		particle    = actor.ShapeTypeParticle
		cylinder    = actor.ShapeTypeCylinder
		trimesh     = actor.ShapeTypeTrimesh
	)

	n.register(sphere, sphere, (*Narrowphase).sphereSphere)
	n.register(sphere, plane, (*Narrowphase).spherePlane)
	n.register(sphere, box, (*Narrowphase).sphereBox)
	n.register(sphere, convex, (*Narrowphase).sphereConvex)
	n.register(sphere, cylinder, (*Narrowphase).sphereConvex)
	n.register(sphere, heightfield, (*Narrowphase).sphereHeightfield)
	n.register(sphere, particle, (*Narrowphase).sphereParticle)
	n.register(sphere, trimesh, (*Narrowphase).sphereTrimesh)

	n.register(plane, box, (*Narrowphase).planeConvex)
	n.register(plane, convex, (*Narrowphase).planeConvex)
	n.register(plane, cylinder, (*Narrowphase).planeConvex)
	n.register(plane, particle, (*Narrowphase).planeParticle)
	n.register(plane, trimesh, (*Narrowphase).planeTrimesh)

	for _, typeA := range []actor.ShapeType{box, convex, cylinder} {
		for _, typeB := range []actor.ShapeType{box, convex, cylinder} {
			if typeA <= typeB {
				n.register(typeA, typeB, (*Narrowphase).convexConvex)
			}
		}
	}

	n.register(box, heightfield, (*Narrowphase).convexHeightfield)
	n.register(convex, heightfield, (*Narrowphase).convexHeightfield)
	n.register(heightfield, cylinder, (*Narrowphase).heightfieldConvex)

	n.register(box, particle, (*Narrowphase).convexParticle)
	n.register(convex, particle, (*Narrowphase).convexParticle)
	n.register(particle, cylinder, (*Narrowphase).particleConvex)
}

// Supports reports whether a routine exists for the two leaf shape types, in either order
func (n *Narrowphase) Supports(typeA, typeB actor.ShapeType) bool {
	if typeA > typeB {
		typeA, typeB = typeB, typeA
	}
	return n.table[typeA][typeB] != nil
}

// release hands the equations of the previous call back to the pools
func (n *Narrowphase) release() {
	n.contactPool.Put(n.Contacts...)
	n.frictionPool.Put(n.Frictions...)
	clear(n.Contacts)
	clear(n.Frictions)
	n.Contacts = n.Contacts[:0]
	n.Frictions = n.Frictions[:0]
	n.Overlaps = n.Overlaps[:0]
}

// GetContacts replaces Contacts, Frictions and Overlaps with the result of the pairs.
// Pairs where neither body is dynamic are only tested for overlap.
func (n *Narrowphase) GetContacts(pairs []Pair) {
	n.release()

	for _, pair := range pairs {
		justTest := pair.BodyA.BodyType != actor.BodyTypeDynamic && pair.BodyB.BodyType != actor.BodyTypeDynamic

		hit := n.collide(bodyPose(pair.BodyA), bodyPose(pair.BodyB), justTest)
		if justTest && hit {
			n.Overlaps = append(n.Overlaps, pair)
		}
	}
}

// Overlap tests two bodies without generating any equation
func (n *Narrowphase) Overlap(bodyA, bodyB *actor.RigidBody) bool {
	return n.collide(bodyPose(bodyA), bodyPose(bodyB), true)
}

// collide splits compounds, filters and prechecks leaf pairs, then runs the routine
// of the pair in canonical order. Contacts of a swapped call are mirrored back so that
// BodyA is always a.body.
func (n *Narrowphase) collide(a, b posedShape, justTest bool) bool {
	if a.position.Sub(b.position).Len() > a.shape.BoundingSphereRadius()+b.shape.BoundingSphereRadius() {
		return false
	}

	if compound, ok := a.shape.(*actor.Compound); ok {
		return n.collideCompound(compound, a, b, justTest, false)
	}
	if compound, ok := b.shape.(*actor.Compound); ok {
		return n.collideCompound(compound, b, a, justTest, true)
	}

	if !a.shape.Base().CanCollide(b.shape.Base()) {
		return false
	}

	typeA, typeB := a.shape.Type(), b.shape.Type()
	swapped := typeA > typeB || (typeA == typeB && poseBefore(b, a))
	if swapped {
		a, b = b, a
		typeA, typeB = typeB, typeA
	}

	routine := n.table[typeA][typeB]
	if routine == nil {
		return false
	}

	n.current = n.resolveContactMaterial(a, b)

	if justTest {
		return routine(n, a, b, true)
	}

	first := len(n.Contacts)
	routine(n, a, b, false)
	added := n.Contacts[first:]
	if len(added) == 0 {
		return false
	}

	if swapped {
		for _, c := range added {
			mirrorContact(c)
		}
	}

	if n.EnableFrictionReduction {
		n.createFrictionFromAverage(added)
	} else {
		for _, c := range added {
			n.createFrictionEquations(c)
		}
	}

	return true
}

// poseBefore orders two shapes of the same type by position, then rotation, then
// body address, so that (a, b) and (b, a) run the routine in the same order
func poseBefore(p, q posedShape) bool {
	keysP := [7]float64{p.position[0], p.position[1], p.position[2], p.rotation.W, p.rotation.V[0], p.rotation.V[1], p.rotation.V[2]}
	keysQ := [7]float64{q.position[0], q.position[1], q.position[2], q.rotation.W, q.rotation.V[0], q.rotation.V[1], q.rotation.V[2]}
	for i := range keysP {
		if keysP[i] != keysQ[i] {
			return keysP[i] < keysQ[i]
		}
	}

	return uintptr(unsafe.Pointer(p.body)) < uintptr(unsafe.Pointer(q.body))
}

// collideCompound runs collide for every child of the compound side.
// With flipped, the compound is the second shape of the original call.
func (n *Narrowphase) collideCompound(compound *actor.Compound, whole, other posedShape, justTest, flipped bool) bool {
	hit := false
	for i, child := range compound.Children {
		position, rotation := compound.ChildPose(i, whole.position, whole.rotation)
		part := posedShape{shape: child.Shape, position: position, rotation: rotation, body: whole.body}

		var childHit bool
		if flipped {
			childHit = n.collide(other, part, justTest)
		} else {
			childHit = n.collide(part, other, justTest)
		}

		if childHit {
			if justTest {
				return true
			}
			hit = true
		}
	}

	return hit
}

// resolveContactMaterial prefers the contact material of the shape materials,
// then the one of the body materials, then the default
func (n *Narrowphase) resolveContactMaterial(a, b posedShape) *actor.ContactMaterial {
	if cm := n.Materials.Get(a.shape.Base().Material, b.shape.Base().Material); cm != nil {
		return cm
	}
	if cm := n.Materials.Get(a.body.Material, b.body.Material); cm != nil {
		return cm
	}
	return n.Materials.Default
}

// createContact takes an equation from the pool, initialized for the pair.
// The caller fills Ni, Ri and Rj, then calls addContact.
func (n *Narrowphase) createContact(a, b posedShape) *constraint.ContactEquation {
	cm := n.current

	c := n.contactPool.Get()
	c.Reset(a.body, b.body, constraint.DefaultMaxForce)
	c.Restitution = cm.CombinedRestitution(contactMaterialOf(a.shape, a.body), contactMaterialOf(b.shape, b.body))
	c.SetSpookParams(cm.ContactEquationStiffness, cm.ContactEquationRelaxation, n.Dt)
	c.Enabled = !a.body.IsTrigger && !b.body.IsTrigger
	c.ShapeA = a.shape
	c.ShapeB = b.shape

	return c
}

func (n *Narrowphase) addContact(c *constraint.ContactEquation) {
	n.Contacts = append(n.Contacts, c)
}

// createFrictionEquations adds the two tangent equations of a contact.
// It returns false when the pair has no friction, or when neither body can move.
func (n *Narrowphase) createFrictionEquations(c *constraint.ContactEquation) bool {
	cm := n.current
	friction := cm.CombinedFriction(contactMaterialOf(c.ShapeA, c.BodyA), contactMaterialOf(c.ShapeB, c.BodyB))
	if friction <= 0 {
		return false
	}

	reducedMass := c.BodyA.InvMass + c.BodyB.InvMass
	if reducedMass <= 0 {
		return false
	}
	reducedMass = 1 / reducedMass
	slipForce := friction * n.Gravity.Len() * reducedMass

	t1, t2 := actor.TangentBasis(c.Ni)
	for _, tangent := range [2]mgl64.Vec3{t1, t2} {
		f := n.frictionPool.Get()
		f.Reset(c.BodyA, c.BodyB, slipForce)
		f.Ri = c.Ri
		f.Rj = c.Rj
		f.T = tangent
		f.ShapeA = c.ShapeA
		f.ShapeB = c.ShapeB
		f.SetSpookParams(cm.FrictionEquationStiffness, cm.FrictionEquationRelaxation, n.Dt)
		f.Enabled = c.Enabled

		n.Frictions = append(n.Frictions, f)
	}

	return true
}

// createFrictionFromAverage adds one pair of friction equations for several contacts,
// at their average offsets and around their average normal
func (n *Narrowphase) createFrictionFromAverage(contacts []*constraint.ContactEquation) {
	last := contacts[len(contacts)-1]
	if !n.createFrictionEquations(last) || len(contacts) == 1 {
		return
	}

	var normal, ri, rj mgl64.Vec3
	for _, c := range contacts {
		if c.BodyA == last.BodyA {
			normal = normal.Add(c.Ni)
			ri = ri.Add(c.Ri)
			rj = rj.Add(c.Rj)
		} else {
			normal = normal.Sub(c.Ni)
			ri = ri.Add(c.Rj)
			rj = rj.Add(c.Ri)
		}
	}

	inv := 1 / float64(len(contacts))
	t1, t2 := actor.TangentBasis(normal)

	f1 := n.Frictions[len(n.Frictions)-2]
	f2 := n.Frictions[len(n.Frictions)-1]
	f1.Ri, f1.Rj, f1.T = ri.Mul(inv), rj.Mul(inv), t1
	f2.Ri, f2.Rj, f2.T = f1.Ri, f1.Rj, t2
}

// contactMaterialOf returns the shape material, or the body material when the shape has none
func contactMaterialOf(shape actor.ShapeInterface, body *actor.RigidBody) *actor.Material {
	if shape != nil {
		if m := shape.Base().Material; m != nil {
			return m
		}
	}
	return body.Material
}

// mirrorContact swaps the roles of the two bodies of a contact
func mirrorContact(c *constraint.ContactEquation) {
	c.BodyA, c.BodyB = c.BodyB, c.BodyA
	c.ShapeA, c.ShapeB = c.ShapeB, c.ShapeA
	c.Ri, c.Rj = c.Rj, c.Ri
	c.Ni = c.Ni.Mul(-1)
}

// unitOr normalizes v, or returns fallback when v has no length
func unitOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length < 1e-12 {
		return fallback
	}
	return v.Mul(1 / length)
}

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discardLogger
	}
	return logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
