package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CompoundChild is a shape placed inside a compound, relative to the compound origin
type CompoundChild struct {
	Shape       ShapeInterface
	Offset      mgl64.Vec3
	Orientation mgl64.Quat
}

// Compound groups several shapes into one rigid shape.
// Children may be compounds themselves.
type Compound struct {
	ShapeBase
	Children []CompoundChild
}

func NewCompound() *Compound {
	return &Compound{}
}

func (c *Compound) Type() ShapeType {
	return ShapeTypeCompound
}

// AddChild appends a shape at offset/orientation in the compound frame.
// A zero orientation is read as the identity.
func (c *Compound) AddChild(shape ShapeInterface, offset mgl64.Vec3, orientation mgl64.Quat) {
	c.Children = append(c.Children, CompoundChild{
		Shape:       shape,
		Offset:      offset,
		Orientation: normalizedOrIdent(orientation),
	})
}

// ChildPose composes the pose of child i with the pose of the compound
func (c *Compound) ChildPose(i int, position mgl64.Vec3, rotation mgl64.Quat) (mgl64.Vec3, mgl64.Quat) {
	child := c.Children[i]

	return position.Add(rotation.Rotate(child.Offset)), rotation.Mul(normalizedOrIdent(child.Orientation))
}

func (c *Compound) ComputeAABB(transform Transform) {
	if len(c.Children) == 0 {
		c.aabb = AABB{Min: transform.Position, Max: transform.Position}
		return
	}

	for i, child := range c.Children {
		position, rotation := c.ChildPose(i, transform.Position, transform.Rotation)
		child.Shape.ComputeAABB(NewTransformAt(position, rotation))

		if i == 0 {
			c.aabb = child.Shape.GetAABB()
		} else {
			c.aabb = c.aabb.Merge(child.Shape.GetAABB())
		}
	}
}

func (c *Compound) BoundingSphereRadius() float64 {
	radius := 0.0
	for _, child := range c.Children {
		childRadius := child.Shape.BoundingSphereRadius()
		if childRadius == math.MaxFloat64 {
			return math.MaxFloat64
		}
		radius = math.Max(radius, child.Offset.Len()+childRadius)
	}

	return radius
}

func (c *Compound) ComputeMass(density float64) float64 {
	mass := 0.0
	for _, child := range c.Children {
		mass += child.Shape.ComputeMass(density)
	}

	return mass
}

// ComputeInertia approximates the compound by its bounding box in the compound frame
func (c *Compound) ComputeInertia(mass float64) mgl64.Vec3 {
	if len(c.Children) == 0 {
		return mgl64.Vec3{}
	}

	c.ComputeAABB(NewTransform())
	local := c.aabb

	// Centre l'approximation sur l'origine du compound
	halfExtents := mgl64.Vec3{
		math.Max(math.Abs(local.Min.X()), math.Abs(local.Max.X())),
		math.Max(math.Abs(local.Min.Y()), math.Abs(local.Max.Y())),
		math.Max(math.Abs(local.Min.Z()), math.Abs(local.Max.Z())),
	}

	return boxInertia(halfExtents, mass)
}

func normalizedOrIdent(q mgl64.Quat) mgl64.Quat {
	if q.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
