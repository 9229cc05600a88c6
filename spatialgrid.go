package impulse

import (
	"math"
	"slices"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey - Coordonnées d'une cellule dans l'espace 3D
type CellKey struct {
	X, Y, Z int
}

// Cell - Conteneur d'indices de bodies dans une cellule
type Cell struct {
	bodyIndices []int
}

// Pair is a pair of bodies whose bounds overlap. BodyA always comes first in the world.
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// SpatialGrid is a uniform hashed grid. Bounded bodies are inserted in every cell their
// AABB covers; unbounded ones (planes) are kept aside and paired with every body.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	unbounded []int
	// stamps[i] holds the last body that reached body i, one pair per body
	stamps []int
}

// ============================================================================
// Constructeur
// ============================================================================

// NewSpatialGrid - Crée une nouvelle grille spatiale
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

// nextPowerOfTwo - Arrondit à la puissance de 2 supérieure
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Build clears the grid and inserts every body, in order
func (sg *SpatialGrid) Build(bodies []*actor.RigidBody) {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}
	sg.SortCells()
}

// Insert - Insère un body dans toutes les cellules qu'il occupe
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	if actor.Unbounded(body.Shape) {
		sg.unbounded = append(sg.unbounded, bodyIndex)
		return
	}

	sg.forEachCell(body.Shape.GetAABB(), func(cellIdx int) {
		sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.unbounded = sg.unbounded[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			slices.Sort(sg.cells[i].bodyIndices)
		}
	}
}

// FindPairs returns each candidate pair once, grouped by the index of BodyA.
// Static-static and sleeping-sleeping pairs are skipped.
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)

	sg.stamps = resize(sg.stamps, len(bodies))
	for i := range sg.stamps {
		sg.stamps[i] = -1
	}

	accept := func(bodyIdx, otherIdx int) {
		// ========== ORDRE DÉTERMINISTE ==========
		if otherIdx <= bodyIdx || sg.stamps[otherIdx] == bodyIdx {
			return
		}
		sg.stamps[otherIdx] = bodyIdx

		bodyA, bodyB := bodies[bodyIdx], bodies[otherIdx]
		if skipPair(bodyA, bodyB) {
			return
		}

		if actor.Unbounded(bodyA.Shape) || actor.Unbounded(bodyB.Shape) ||
			bodyA.Shape.GetAABB().Overlaps(bodyB.Shape.GetAABB()) {
			pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB})
		}
	}

	// ========== BOUCLE SUR BODIES ==========
	for bodyIdx, bodyA := range bodies {
		if actor.Unbounded(bodyA.Shape) {
			for otherIdx := range bodies {
				accept(bodyIdx, otherIdx)
			}
			continue
		}

		for _, otherIdx := range sg.unbounded {
			accept(bodyIdx, otherIdx)
		}
		sg.forEachCell(bodyA.Shape.GetAABB(), func(cellIdx int) {
			for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
				accept(bodyIdx, otherIdx)
			}
		})
	}

	return pairs
}

// skipPair drops static-static and sleeping-sleeping pairs. A sleeping body keeps
// its pair with a static one, so that its contact stays known while it sleeps.
func skipPair(bodyA, bodyB *actor.RigidBody) bool {
	if bodyA.BodyType == actor.BodyTypeStatic && bodyB.BodyType == actor.BodyTypeStatic {
		return true
	}
	return bodyA.IsSleeping && bodyB.IsSleeping
}

func (sg *SpatialGrid) forEachCell(aabb actor.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

// worldToCell - Convertit une position monde en coordonnées de cellule
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell - Hash une cellule vers un index dans l'array
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
