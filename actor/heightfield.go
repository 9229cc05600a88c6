package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Heightfield is a grid of heights. Data[xi][yi] is the height (local Z) at
// (xi*ElementSize, yi*ElementSize) in the local XY plane.
// Each grid square is split into a lower and an upper triangle; both are
// extruded downwards into convex pillars for collision.
type Heightfield struct {
	ShapeBase
	Data        [][]float64
	ElementSize float64
	MinValue    float64
	MaxValue    float64

	pillars map[pillarKey]HeightfieldPillar
}

type pillarKey struct {
	xi, yi int
	upper  bool
}

// HeightfieldPillar is the convex extrusion of one heightfield triangle.
// Hull vertices are relative to Offset, which is expressed in the heightfield frame.
type HeightfieldPillar struct {
	Hull   *ConvexPolyhedron
	Offset mgl64.Vec3
}

func NewHeightfield(data [][]float64, elementSize float64) *Heightfield {
	h := &Heightfield{
		Data:        data,
		ElementSize: elementSize,
	}
	h.Update()

	return h
}

// Update must be called whenever Data changes
func (h *Heightfield) Update() {
	h.MinValue, h.MaxValue = math.Inf(1), math.Inf(-1)
	for _, row := range h.Data {
		for _, v := range row {
			h.MinValue = math.Min(h.MinValue, v)
			h.MaxValue = math.Max(h.MaxValue, v)
		}
	}
	if math.IsInf(h.MinValue, 1) {
		h.MinValue, h.MaxValue = 0, 0
	}

	h.pillars = make(map[pillarKey]HeightfieldPillar)
}

func (h *Heightfield) Type() ShapeType {
	return ShapeTypeHeightfield
}

// SizeX is the number of samples along local X
func (h *Heightfield) SizeX() int {
	return len(h.Data)
}

// SizeY is the number of samples along local Y
func (h *Heightfield) SizeY() int {
	if len(h.Data) == 0 {
		return 0
	}
	return len(h.Data[0])
}

func (h *Heightfield) ComputeAABB(transform Transform) {
	localMax := mgl64.Vec3{
		float64(max(0, h.SizeX()-1)) * h.ElementSize,
		float64(max(0, h.SizeY()-1)) * h.ElementSize,
		h.MaxValue,
	}
	corners := localBoxCorners(mgl64.Vec3{0, 0, h.MinValue}, localMax)

	h.aabb = aabbFromPoints(corners[:], transform)
}

func (h *Heightfield) BoundingSphereRadius() float64 {
	return mgl64.Vec3{
		float64(h.SizeX()) * h.ElementSize,
		float64(h.SizeY()) * h.ElementSize,
		math.Max(math.Abs(h.MaxValue), math.Abs(h.MinValue)),
	}.Len()
}

// ComputeMass of a terrain is infinite, heightfields are meant for static bodies
func (h *Heightfield) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (h *Heightfield) ComputeInertia(mass float64) mgl64.Vec3 {
	return mgl64.Vec3{}
}

// IndexOfPosition returns the grid square containing the local point (x, y).
// ok is false when the point lies outside the grid; with clampToEdge the
// returned indices are clamped to the last valid square anyway.
func (h *Heightfield) IndexOfPosition(x, y float64, clampToEdge bool) (xi, yi int, ok bool) {
	xi = int(math.Floor(x / h.ElementSize))
	yi = int(math.Floor(y / h.ElementSize))

	ok = xi >= 0 && yi >= 0 && xi < h.SizeX()-1 && yi < h.SizeY()-1
	if clampToEdge {
		xi = Clamp(xi, 0, h.SizeX()-2)
		yi = Clamp(yi, 0, h.SizeY()-2)
	}

	return xi, yi, ok
}

// RectMinMax returns MinValue and the highest sample in the inclusive index rectangle
func (h *Heightfield) RectMinMax(iMinX, iMinY, iMaxX, iMaxY int) (float64, float64) {
	highest := h.MinValue
	for i := iMinX; i <= iMaxX; i++ {
		for j := iMinY; j <= iMaxY; j++ {
			highest = math.Max(highest, h.Data[i][j])
		}
	}

	return h.MinValue, highest
}

// triangleAt returns the corners of the triangle under (x, y), and whether it is the upper one
func (h *Heightfield) triangleAt(x, y float64, xi, yi int) (a, b, c mgl64.Vec3, upper bool) {
	s := h.ElementSize
	fx, fy := x/s, y/s
	lowerDist2 := math.Pow(fx-float64(xi), 2) + math.Pow(fy-float64(yi), 2)
	upperDist2 := math.Pow(fx-float64(xi+1), 2) + math.Pow(fy-float64(yi+1), 2)
	upper = lowerDist2 > upperDist2

	point := func(i, j int) mgl64.Vec3 {
		return mgl64.Vec3{float64(i) * s, float64(j) * s, h.Data[i][j]}
	}
	if upper {
		return point(xi+1, yi+1), point(xi, yi+1), point(xi+1, yi), true
	}
	return point(xi, yi), point(xi+1, yi), point(xi, yi+1), false
}

// HeightAt interpolates the surface height at the local point (x, y).
// Outside the grid, ok is false unless clampToEdge is set.
func (h *Heightfield) HeightAt(x, y float64, clampToEdge bool) (height float64, ok bool) {
	if h.SizeX() < 2 || h.SizeY() < 2 {
		return 0, false
	}

	xi, yi, inside := h.IndexOfPosition(x, y, clampToEdge)
	if !inside && !clampToEdge {
		return 0, false
	}

	a, b, c, _ := h.triangleAt(x, y, xi, yi)
	wa, wb, wc := barycentricWeights(x, y, a, b, c)

	return a.Z()*wa + b.Z()*wb + c.Z()*wc, true
}

func barycentricWeights(x, y float64, a, b, c mgl64.Vec3) (float64, float64, float64) {
	det := (b.Y()-c.Y())*(a.X()-c.X()) + (c.X()-b.X())*(a.Y()-c.Y())
	wa := ((b.Y()-c.Y())*(x-c.X()) + (c.X()-b.X())*(y-c.Y())) / det
	wb := ((c.Y()-a.Y())*(x-c.X()) + (a.X()-c.X())*(y-c.Y())) / det

	return wa, wb, 1 - wa - wb
}

// ConvexTrianglePillar returns the pillar of the lower or upper triangle of
// square (xi, yi). Pillars are cached until the next Update.
func (h *Heightfield) ConvexTrianglePillar(xi, yi int, upper bool) HeightfieldPillar {
	key := pillarKey{xi: xi, yi: yi, upper: upper}
	if pillar, ok := h.pillars[key]; ok {
		return pillar
	}

	data := h.Data
	s := h.ElementSize

	// Centre vertical du pilier
	lowest := math.Min(math.Min(data[xi][yi], data[xi+1][yi]), math.Min(data[xi][yi+1], data[xi+1][yi+1]))
	center := (lowest-h.MinValue)/2 + h.MinValue
	bottom := h.MinValue - 1 - center

	var offset mgl64.Vec3
	var vertices []mgl64.Vec3
	var faces [][]int

	if !upper {
		offset = mgl64.Vec3{(float64(xi) + 0.25) * s, (float64(yi) + 0.25) * s, center}
		vertices = []mgl64.Vec3{
			{-0.25 * s, -0.25 * s, data[xi][yi] - center},
			{0.75 * s, -0.25 * s, data[xi+1][yi] - center},
			{-0.25 * s, 0.75 * s, data[xi][yi+1] - center},
			{-0.25 * s, -0.25 * s, bottom},
			{0.75 * s, -0.25 * s, bottom},
			{-0.25 * s, 0.75 * s, bottom},
		}
		faces = [][]int{
			{0, 1, 2},    // top
			{5, 4, 3},    // bottom
			{0, 2, 5, 3}, // -x
			{1, 0, 3, 4}, // -y
			{4, 5, 2, 1}, // +xy
		}
	} else {
		offset = mgl64.Vec3{(float64(xi) + 0.75) * s, (float64(yi) + 0.75) * s, center}
		vertices = []mgl64.Vec3{
			{0.25 * s, 0.25 * s, data[xi+1][yi+1] - center},
			{-0.75 * s, 0.25 * s, data[xi][yi+1] - center},
			{0.25 * s, -0.75 * s, data[xi+1][yi] - center},
			{0.25 * s, 0.25 * s, bottom},
			{-0.75 * s, 0.25 * s, bottom},
			{0.25 * s, -0.75 * s, bottom},
		}
		faces = [][]int{
			{0, 1, 2},    // top
			{5, 4, 3},    // bottom
			{2, 5, 3, 0}, // +x
			{3, 4, 1, 0}, // +y
			{1, 4, 5, 2}, // -xy
		}
	}

	pillar := HeightfieldPillar{
		Hull:   mustConvexPolyhedron(vertices, faces, nil),
		Offset: offset,
	}
	h.pillars[key] = pillar

	return pillar
}

// Clamp bounds v to [lo, hi]
func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
