package geom

import (
	"math"
	"testing"
)

// circle builds a CCW regular polygon approximating a circle.
func circle(r float64, n int) []Vec2 {
	pts := make([]Vec2, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Vec2{r * math.Cos(a), r * math.Sin(a)}
	}
	return pts
}

func TestSignedArea(t *testing.T) {
	square := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := SignedArea(square); math.Abs(got-100) > 1e-9 {
		t.Errorf("SignedArea(ccw square) = %v, want 100", got)
	}
	// Reversed winding flips the sign.
	reversed := []Vec2{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	if got := SignedArea(reversed); math.Abs(got+100) > 1e-9 {
		t.Errorf("SignedArea(cw square) = %v, want -100", got)
	}
}

func TestPerimeterLength(t *testing.T) {
	square := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := PerimeterLength(square); math.Abs(got-40) > 1e-9 {
		t.Errorf("PerimeterLength(square) = %v, want 40", got)
	}

	c := circle(20, 512)
	want := 2 * math.Pi * 20
	if got := PerimeterLength(c); math.Abs(got-want) > 0.01 {
		t.Errorf("PerimeterLength(circle) = %v, want ~%v", got, want)
	}
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 Vec2
		want           bool
	}{
		{"crossing", Vec2{0, 0}, Vec2{10, 10}, Vec2{0, 10}, Vec2{10, 0}, true},
		{"parallel", Vec2{0, 0}, Vec2{10, 0}, Vec2{0, 5}, Vec2{10, 5}, false},
		{"disjoint", Vec2{0, 0}, Vec2{1, 1}, Vec2{5, 5}, Vec2{6, 6}, false},
		{"touching endpoint", Vec2{0, 0}, Vec2{5, 5}, Vec2{5, 5}, Vec2{10, 0}, true},
		{"collinear overlap", Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 0}, Vec2{15, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentsIntersect(tt.a1, tt.a2, tt.b1, tt.b2); got != tt.want {
				t.Errorf("SegmentsIntersect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSimple(t *testing.T) {
	t.Run("convex polygon", func(t *testing.T) {
		if !IsSimple(circle(10, 64)) {
			t.Error("IsSimple(circle) = false, want true")
		}
	})
	t.Run("bowtie", func(t *testing.T) {
		bowtie := []Vec2{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
		if IsSimple(bowtie) {
			t.Error("IsSimple(bowtie) = true, want false")
		}
	})
	t.Run("degenerate", func(t *testing.T) {
		if IsSimple([]Vec2{{0, 0}, {1, 1}}) {
			t.Error("IsSimple(two points) = true, want false")
		}
	})
}

func TestOffsetClosed(t *testing.T) {
	c := circle(10, 256)

	t.Run("grow", func(t *testing.T) {
		grown := OffsetClosed(c, 2)
		for i, p := range grown {
			if r := p.Length(); math.Abs(r-12) > 0.05 {
				t.Fatalf("vertex %d radius = %v, want ~12", i, r)
			}
		}
		if !IsSimple(grown) {
			t.Error("grown circle is not simple")
		}
	})

	t.Run("shrink", func(t *testing.T) {
		shrunk := OffsetClosed(c, -3)
		for i, p := range shrunk {
			if r := p.Length(); math.Abs(r-7) > 0.05 {
				t.Fatalf("vertex %d radius = %v, want ~7", i, r)
			}
		}
	})

	t.Run("over-shrink folds", func(t *testing.T) {
		// Shrinking a 2mm-wide strip by 2mm per side turns it inside out.
		strip := []Vec2{{0, 0}, {10, 0}, {10, 2}, {0, 2}}
		folded := OffsetClosed(strip, -2)
		if area := SignedArea(folded); area > 0 {
			t.Errorf("over-shrunk area = %v, want negative (folded)", area)
		}
	})
}

func TestOffsetFolds(t *testing.T) {
	c := circle(2, 64)
	t.Run("within curvature radius", func(t *testing.T) {
		if OffsetFolds(c, OffsetClosed(c, -1)) {
			t.Error("OffsetFolds = true for a safe inward offset")
		}
	})
	t.Run("past curvature radius", func(t *testing.T) {
		// Offsetting a 2mm-radius loop inward by 3mm reverses every segment.
		if !OffsetFolds(c, OffsetClosed(c, -3)) {
			t.Error("OffsetFolds = false for an inverted offset")
		}
	})
	t.Run("mismatched lengths", func(t *testing.T) {
		if !OffsetFolds(c, c[:10]) {
			t.Error("OffsetFolds = false for mismatched vertex counts")
		}
	})
}

func TestCentroid(t *testing.T) {
	square := []Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	c := Centroid(square)
	if math.Abs(c.X-5) > 1e-9 || math.Abs(c.Y-5) > 1e-9 {
		t.Errorf("Centroid = %+v, want (5,5)", c)
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %+v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := (Vec3{3, 4, 0}).Length(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := a.XY(); got != (Vec2{1, 2}) {
		t.Errorf("XY = %+v", got)
	}
}
