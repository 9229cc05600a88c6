package actor

import "unsafe"

// Material describes the surface of a body or a shape.
// A negative Friction or Restitution defers to the ContactMaterial of the pair.
type Material struct {
	Name        string
	Friction    float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	LinearDamping  float64 // 0.0 - 1.0, typique : 0.01
	AngularDamping float64 // 0.0 - 1.0, typique : 0.01
}

// NewMaterial creates a material that takes friction and restitution from contact materials
func NewMaterial(name string) *Material {
	return &Material{
		Name:           name,
		Friction:       -1,
		Restitution:    -1,
		LinearDamping:  0.01,
		AngularDamping: 0.01,
	}
}

const (
	DefaultFriction           = 0.3
	DefaultRestitution        = 0.3
	DefaultEquationStiffness  = 1e7
	DefaultEquationRelaxation = 3
	DefaultFrictionStiffness  = 1e7
	DefaultFrictionRelaxation = 3
)

// ContactMaterial defines what happens when two materials meet
type ContactMaterial struct {
	MaterialA *Material
	MaterialB *Material

	Friction    float64
	Restitution float64

	// SPOOK parameters of the contact equations
	ContactEquationStiffness  float64
	ContactEquationRelaxation float64
	// SPOOK parameters of the friction equations
	FrictionEquationStiffness  float64
	FrictionEquationRelaxation float64
}

func NewContactMaterial(materialA, materialB *Material) *ContactMaterial {
	return &ContactMaterial{
		MaterialA:                  materialA,
		MaterialB:                  materialB,
		Friction:                   DefaultFriction,
		Restitution:                DefaultRestitution,
		ContactEquationStiffness:   DefaultEquationStiffness,
		ContactEquationRelaxation:  DefaultEquationRelaxation,
		FrictionEquationStiffness:  DefaultFrictionStiffness,
		FrictionEquationRelaxation: DefaultFrictionRelaxation,
	}
}

// CombinedFriction returns matA.Friction * matB.Friction when both are set,
// the contact material friction otherwise
func (cm *ContactMaterial) CombinedFriction(matA, matB *Material) float64 {
	if matA != nil && matB != nil && matA.Friction >= 0 && matB.Friction >= 0 {
		return matA.Friction * matB.Friction
	}
	return cm.Friction
}

// CombinedRestitution returns matA.Restitution * matB.Restitution when both are set,
// the contact material restitution otherwise
func (cm *ContactMaterial) CombinedRestitution(matA, matB *Material) float64 {
	if matA != nil && matB != nil && matA.Restitution >= 0 && matB.Restitution >= 0 {
		return matA.Restitution * matB.Restitution
	}
	return cm.Restitution
}

type materialPair struct {
	a, b *Material
}

// makeMaterialPair normalizes the pair so that (A,B) and (B,A) share a key
func makeMaterialPair(a, b *Material) materialPair {
	if uintptr(unsafe.Pointer(b)) < uintptr(unsafe.Pointer(a)) {
		a, b = b, a
	}
	return materialPair{a: a, b: b}
}

// ContactMaterialTable finds the contact material of a pair of materials
type ContactMaterialTable struct {
	Default *ContactMaterial
	entries map[materialPair]*ContactMaterial
}

func NewContactMaterialTable() *ContactMaterialTable {
	return &ContactMaterialTable{
		Default: NewContactMaterial(nil, nil),
		entries: make(map[materialPair]*ContactMaterial),
	}
}

// Add registers cm for its two materials, replacing any previous entry
func (t *ContactMaterialTable) Add(cm *ContactMaterial) {
	t.entries[makeMaterialPair(cm.MaterialA, cm.MaterialB)] = cm
}

// Get returns the registered contact material, or nil
func (t *ContactMaterialTable) Get(a, b *Material) *ContactMaterial {
	if a == nil || b == nil {
		return nil
	}
	return t.entries[makeMaterialPair(a, b)]
}

// Resolve returns the registered contact material, falling back to Default
func (t *ContactMaterialTable) Resolve(a, b *Material) *ContactMaterial {
	if cm := t.Get(a, b); cm != nil {
		return cm
	}
	return t.Default
}

// Len is the number of registered pairs
func (t *ContactMaterialTable) Len() int {
	return len(t.entries)
}
