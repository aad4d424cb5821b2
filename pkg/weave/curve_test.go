package weave

import (
	"errors"
	"math"
	"testing"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel/kerneltest"
)

// circleLoop builds a CCW regular polygon of radius r.
func circleLoop(r float64, n int) []geom.Vec2 {
	pts := make([]geom.Vec2, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.Vec2{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

// peanutLoop builds a pinched two-lobe outline with a narrow waist.
// The waist half-width is neckR; the lobes reach lobeR.
func peanutLoop(lobeR, neckR float64, n int) []geom.Vec2 {
	pts := make([]geom.Vec2, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		c := math.Cos(a)
		r := neckR + (lobeR-neckR)*c*c
		pts[i] = geom.Vec2{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

func TestReferenceCurveClosure(t *testing.T) {
	curve, err := newReferenceCurve(circleLoop(20, 256), 5)
	if err != nil {
		t.Fatalf("newReferenceCurve failed: %v", err)
	}

	L := curve.Length()
	want := 2 * math.Pi * 20
	if math.Abs(L-want) > 0.1 {
		t.Errorf("Length() = %v, want ~%v", L, want)
	}

	p0 := curve.PointAt(0)
	pL := curve.PointAt(L)
	if p0.Distance(pL) > 1e-9 {
		t.Errorf("PointAt(0) = %+v != PointAt(L) = %+v", p0, pL)
	}
}

func TestReferenceCurvePointAtWraps(t *testing.T) {
	curve, err := newReferenceCurve(circleLoop(10, 128), 0)
	if err != nil {
		t.Fatal(err)
	}
	L := curve.Length()
	a := curve.PointAt(L / 3)
	b := curve.PointAt(L/3 + L)
	c := curve.PointAt(L/3 - L)
	if a.Distance(b) > 1e-9 || a.Distance(c) > 1e-9 {
		t.Errorf("PointAt does not wrap: %+v, %+v, %+v", a, b, c)
	}
}

func TestReferenceCurveNormalOutward(t *testing.T) {
	// Regardless of input winding, normals must point away from the
	// circle center.
	t.Run("ccw input", func(t *testing.T) {
		checkOutwardNormals(t, circleLoop(15, 128))
	})
	t.Run("cw input", func(t *testing.T) {
		loop := circleLoop(15, 128)
		for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
			loop[i], loop[j] = loop[j], loop[i]
		}
		checkOutwardNormals(t, loop)
	})
}

func checkOutwardNormals(t *testing.T, loop []geom.Vec2) {
	t.Helper()
	curve, err := newReferenceCurve(loop, 0)
	if err != nil {
		t.Fatal(err)
	}
	L := curve.Length()
	for i := 0; i < 16; i++ {
		s := L * float64(i) / 16
		p := curve.PointAt(s)
		n := curve.NormalAt(s)
		if math.Abs(n.Length()-1) > 1e-9 {
			t.Fatalf("NormalAt(%v) not unit length: %v", s, n.Length())
		}
		// Outward means aligned with the radial direction.
		if p.Normalize().Dot(n) < 0.99 {
			t.Fatalf("NormalAt(%v) = %+v not outward at %+v", s, n, p)
		}
	}
}

func TestNewReferenceCurveRejects(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		_, err := newReferenceCurve(circleLoop(10, 4), 0)
		var gerr *GeometryExtractionError
		if !errors.As(err, &gerr) {
			t.Fatalf("err = %v, want *GeometryExtractionError", err)
		}
	})
	t.Run("self-intersecting", func(t *testing.T) {
		bowtie := []geom.Vec2{
			{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}, {X: 10, Y: 5}, {X: 10, Y: 0}, {X: 5, Y: 5.01}, {X: 0, Y: 10}, {X: 0, Y: 5},
		}
		_, err := newReferenceCurve(bowtie, 0)
		var gerr *GeometryExtractionError
		if !errors.As(err, &gerr) {
			t.Fatalf("err = %v, want *GeometryExtractionError", err)
		}
	})
}

func TestExtractReferenceCurve(t *testing.T) {
	k := kerneltest.New()

	t.Run("cylinder", func(t *testing.T) {
		body := k.Cylinder(30, 20, 0)
		curve, err := ExtractReferenceCurve(k, body, kernel.SlicePlane{Z: 10})
		if err != nil {
			t.Fatalf("ExtractReferenceCurve failed: %v", err)
		}
		if curve.Z() != 10 {
			t.Errorf("Z() = %v, want 10", curve.Z())
		}
		want := 2 * math.Pi * 20
		if math.Abs(curve.Length()-want) > 0.2 {
			t.Errorf("Length() = %v, want ~%v", curve.Length(), want)
		}
	})

	t.Run("plane misses body", func(t *testing.T) {
		body := k.Cylinder(30, 20, 0)
		_, err := ExtractReferenceCurve(k, body, kernel.SlicePlane{Z: 99})
		var gerr *GeometryExtractionError
		if !errors.As(err, &gerr) {
			t.Fatalf("err = %v, want *GeometryExtractionError", err)
		}
	})
}
