package sat

import (
	"math"
	"testing"

	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

func boxHull(halfExtents mgl64.Vec3) *actor.ConvexPolyhedron {
	return actor.NewBox(halfExtents).ConvexRepresentation()
}

func vecAlmostEqual(a, b mgl64.Vec3) bool {
	return a.Sub(b).Len() < 1e-9
}

func TestProject(t *testing.T) {
	tests := []struct {
		name        string
		halfExtents mgl64.Vec3
		position    mgl64.Vec3
		rotation    mgl64.Quat
		axis        mgl64.Vec3
		wantMin     float64
		wantMax     float64
	}{
		{
			name:        "unit cube offset along x",
			halfExtents: mgl64.Vec3{1, 1, 1},
			position:    mgl64.Vec3{2, 0, 0},
			rotation:    mgl64.QuatIdent(),
			axis:        mgl64.Vec3{1, 0, 0},
			wantMin:     1,
			wantMax:     3,
		},
		{
			name:        "box rotated a quarter turn around z",
			halfExtents: mgl64.Vec3{1, 2, 3},
			position:    mgl64.Vec3{2, 0, 0},
			rotation:    mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
			axis:        mgl64.Vec3{1, 0, 0},
			wantMin:     0,
			wantMax:     4,
		},
		{
			name:        "negative axis flips the interval",
			halfExtents: mgl64.Vec3{1, 1, 1},
			position:    mgl64.Vec3{0, 0, 5},
			rotation:    mgl64.QuatIdent(),
			axis:        mgl64.Vec3{0, 0, -1},
			wantMin:     -6,
			wantMax:     -4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := Project(boxHull(tt.halfExtents), tt.axis, tt.position, tt.rotation)
			if math.Abs(min-tt.wantMin) > epsilon || math.Abs(max-tt.wantMax) > epsilon {
				t.Errorf("Project() = [%v, %v], want [%v, %v]", min, max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestTestSepAxis(t *testing.T) {
	hull := boxHull(mgl64.Vec3{1, 1, 1})
	ident := mgl64.QuatIdent()

	t.Run("separated along x", func(t *testing.T) {
		_, overlap := TestSepAxis(mgl64.Vec3{1, 0, 0}, hull, mgl64.Vec3{}, ident, hull, mgl64.Vec3{3, 0, 0}, ident)
		if overlap {
			t.Error("Expected the boxes to be separated along x")
		}
	})

	t.Run("overlapping along x", func(t *testing.T) {
		depth, overlap := TestSepAxis(mgl64.Vec3{1, 0, 0}, hull, mgl64.Vec3{}, ident, hull, mgl64.Vec3{1.5, 0, 0}, ident)
		if !overlap {
			t.Fatal("Expected an overlap along x")
		}
		if math.Abs(depth-0.5) > epsilon {
			t.Errorf("Expected depth 0.5, got %v", depth)
		}
	})

	t.Run("touching counts as overlap", func(t *testing.T) {
		depth, overlap := TestSepAxis(mgl64.Vec3{1, 0, 0}, hull, mgl64.Vec3{}, ident, hull, mgl64.Vec3{2, 0, 0}, ident)
		if !overlap {
			t.Fatal("Expected touching intervals to overlap")
		}
		if math.Abs(depth) > epsilon {
			t.Errorf("Expected depth 0, got %v", depth)
		}
	})
}

func TestFindSeparatingAxis(t *testing.T) {
	hull := boxHull(mgl64.Vec3{1, 1, 1})
	ident := mgl64.QuatIdent()

	tests := []struct {
		name      string
		posA      mgl64.Vec3
		posB      mgl64.Vec3
		wantFound bool
		wantAxis  mgl64.Vec3
	}{
		{"separated boxes", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{3, 0, 0}, false, mgl64.Vec3{}},
		{"overlap with B on +x", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1.5, 0, 0}, true, mgl64.Vec3{1, 0, 0}},
		{"overlap with B on -x", mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{0, 0, 0}, true, mgl64.Vec3{-1, 0, 0}},
		{"overlap with B on +y", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.2, 1.8, 0}, true, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, found := FindSeparatingAxis(hull, tt.posA, ident, hull, tt.posB, ident, nil, nil)
			if found != tt.wantFound {
				t.Fatalf("FindSeparatingAxis() found = %v, want %v", found, tt.wantFound)
			}
			if found && !vecAlmostEqual(axis, tt.wantAxis) {
				t.Errorf("FindSeparatingAxis() axis = %v, want %v", axis, tt.wantAxis)
			}
		})
	}

	t.Run("axis always points from A to B", func(t *testing.T) {
		rotation := mgl64.QuatRotate(0.3, mgl64.Vec3{1, 1, 0}.Normalize())
		posB := mgl64.Vec3{1.2, -0.7, 0.9}

		axis, found := FindSeparatingAxis(hull, mgl64.Vec3{}, ident, hull, posB, rotation, nil, nil)
		if !found {
			t.Fatal("Expected overlapping boxes")
		}
		if axis.Dot(posB) < 0 {
			t.Errorf("Expected axis %v to point towards B", axis)
		}
		if math.Abs(axis.Len()-1) > epsilon {
			t.Errorf("Expected a unit axis, got length %v", axis.Len())
		}
	})

	t.Run("empty hulls give no axis", func(t *testing.T) {
		empty := &actor.ConvexPolyhedron{}
		if _, found := FindSeparatingAxis(empty, mgl64.Vec3{}, ident, empty, mgl64.Vec3{}, ident, nil, nil); found {
			t.Error("Expected no axis without candidates")
		}
	})

	t.Run("face list restricts the candidates", func(t *testing.T) {
		// only the +z faces of both boxes: depth along z is 1.8
		axis, found := FindSeparatingAxis(hull, mgl64.Vec3{}, ident, hull, mgl64.Vec3{1.5, 0, 0.2}, ident, []int{1}, []int{1})
		if !found {
			t.Fatal("Expected an axis")
		}
		// the edge cross products still include x, which overlaps less
		if !vecAlmostEqual(axis, mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Expected axis (1,0,0), got %v", axis)
		}
	})
}

func TestClipAgainstHull(t *testing.T) {
	hull := boxHull(mgl64.Vec3{1, 1, 1})
	ident := mgl64.QuatIdent()
	posB := mgl64.Vec3{1.5, 0, 0}

	axis, found := FindSeparatingAxis(hull, mgl64.Vec3{}, ident, hull, posB, ident, nil, nil)
	if !found {
		t.Fatal("Expected overlapping boxes")
	}

	points := ClipAgainstHull(hull, mgl64.Vec3{}, ident, hull, posB, ident, axis.Mul(-1), -100, 100)
	if len(points) != 4 {
		t.Fatalf("Expected 4 contact points, got %d", len(points))
	}

	for i, p := range points {
		if !vecAlmostEqual(p.Normal, mgl64.Vec3{1, 0, 0}) {
			t.Errorf("point %d: expected normal (1,0,0), got %v", i, p.Normal)
		}
		if math.Abs(p.Depth+0.5) > epsilon {
			t.Errorf("point %d: expected depth -0.5, got %v", i, p.Depth)
		}
		if math.Abs(p.Point.X()-0.5) > epsilon {
			t.Errorf("point %d: expected x = 0.5, got %v", i, p.Point.X())
		}
		if math.Abs(p.Point.Y()) > 1+epsilon || math.Abs(p.Point.Z()) > 1+epsilon {
			t.Errorf("point %d: %v lies outside the reference face", i, p.Point)
		}
	}
}

func TestClipDepthLimits(t *testing.T) {
	hull := boxHull(mgl64.Vec3{1, 1, 1})
	ident := mgl64.QuatIdent()
	posB := mgl64.Vec3{1.5, 0, 0}

	// Les quatre sommets incidents sont à -0.5 de la face de référence
	tests := []struct {
		name       string
		minDist    float64
		maxDist    float64
		wantPoints int
		wantDepth  float64
	}{
		{"no limit", -100, 100, 4, -0.5},
		{"clamped to minDist", -0.2, 100, 4, -0.2},
		{"under maxDist", -100, -0.4, 4, -0.5},
		{"beyond maxDist", -100, -0.6, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := ClipAgainstHull(hull, mgl64.Vec3{}, ident, hull, posB, ident, mgl64.Vec3{-1, 0, 0}, tt.minDist, tt.maxDist)
			if len(points) != tt.wantPoints {
				t.Fatalf("got %d points, want %d", len(points), tt.wantPoints)
			}
			for i, p := range points {
				if math.Abs(p.Depth-tt.wantDepth) > epsilon {
					t.Errorf("point %d: depth %v, want %v", i, p.Depth, tt.wantDepth)
				}
				if math.Abs(p.Point.X()-0.5) > epsilon {
					t.Errorf("point %d: clamping should not move the point, got %v", i, p.Point)
				}
			}
		})
	}
}

func TestClipperTiltedBox(t *testing.T) {
	hullA := boxHull(mgl64.Vec3{2, 2, 0.5})
	hullB := boxHull(mgl64.Vec3{0.5, 0.5, 0.5})
	ident := mgl64.QuatIdent()
	rotB := mgl64.QuatRotate(0.2, mgl64.Vec3{1, 0, 0})
	posB := mgl64.Vec3{0.3, 0.1, 0.9}

	axis, found := FindSeparatingAxis(hullA, mgl64.Vec3{}, ident, hullB, posB, rotB, nil, nil)
	if !found {
		t.Fatal("Expected overlapping boxes")
	}

	var clipper Clipper
	points := clipper.ClipAgainstHull(hullA, mgl64.Vec3{}, ident, hullB, posB, rotB, axis.Mul(-1), -100, 100, nil)
	if len(points) == 0 {
		t.Fatal("Expected contact points")
	}
	for i, p := range points {
		if p.Depth > 0 {
			t.Errorf("point %d: expected a penetrating depth, got %v", i, p.Depth)
		}
		if !vecAlmostEqual(p.Normal, mgl64.Vec3{0, 0, 1}) {
			t.Errorf("point %d: expected the top face of A as reference, got %v", i, p.Normal)
		}
		if math.Abs(p.Depth-(p.Point.Z()-0.5)) > epsilon {
			t.Errorf("point %d: depth %v does not match height %v", i, p.Depth, p.Point.Z())
		}
	}

	// the clipper reuses its buffers across calls
	again := clipper.ClipAgainstHull(hullA, mgl64.Vec3{}, ident, hullB, posB, rotB, axis.Mul(-1), -100, 100, nil)
	if len(again) != len(points) {
		t.Errorf("Expected %d points on the second call, got %d", len(points), len(again))
	}
}

func TestClipFaceAgainstPlane(t *testing.T) {
	square := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

	tests := []struct {
		name     string
		normal   mgl64.Vec3
		constant float64
		want     []mgl64.Vec3
	}{
		{
			name:     "plane through the middle",
			normal:   mgl64.Vec3{1, 0, 0},
			constant: -0.5,
			want:     []mgl64.Vec3{{0, 0, 0}, {0.5, 0, 0}, {0.5, 1, 0}, {0, 1, 0}},
		},
		{
			name:     "polygon fully behind the plane",
			normal:   mgl64.Vec3{1, 0, 0},
			constant: -2,
			want:     square,
		},
		{
			name:     "polygon fully in front of the plane",
			normal:   mgl64.Vec3{1, 0, 0},
			constant: 1,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClipFaceAgainstPlane(square, nil, tt.normal, tt.constant)
			if len(got) != len(tt.want) {
				t.Fatalf("ClipFaceAgainstPlane() returned %d vertices, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if !vecAlmostEqual(got[i], tt.want[i]) {
					t.Errorf("vertex %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	t.Run("degenerate input", func(t *testing.T) {
		if got := ClipFaceAgainstPlane(square[:1], nil, mgl64.Vec3{1, 0, 0}, 0); len(got) != 0 {
			t.Errorf("Expected no vertices, got %v", got)
		}
	})
}

func TestPointIsInside(t *testing.T) {
	hull := boxHull(mgl64.Vec3{1, 1, 1})
	rotation := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	position := mgl64.Vec3{5, 0, 0}

	tests := []struct {
		name  string
		point mgl64.Vec3
		want  bool
	}{
		{"center", mgl64.Vec3{5, 0, 0}, true},
		{"inside the rotated corner", mgl64.Vec3{6.3, 0, 0}, true},
		{"outside", mgl64.Vec3{7, 0, 0}, false},
		{"above", mgl64.Vec3{5, 0, 1.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointIsInside(hull, tt.point, position, rotation); got != tt.want {
				t.Errorf("PointIsInside(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}
}
