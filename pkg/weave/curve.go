package weave

import (
	"fmt"
	"math"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
)

// minCurvePoints is the smallest boundary loop that still defines a
// usable closed cross-section.
const minCurvePoints = 8

// ReferenceCurve is the closed boundary loop of the body cross-section,
// parameterized by arc length s ∈ [0, L). It is built once per run and
// read-only afterwards; every accessor wraps s around the perimeter so
// PointAt(0) and PointAt(L) coincide.
type ReferenceCurve struct {
	pts    []geom.Vec2 // CCW, no duplicate closing vertex
	cum    []float64   // cum[i] = arc length from pts[0] to pts[i]
	z      float64
	length float64
}

// ExtractReferenceCurve derives the reference curve from a body at the
// given slice plane. The body is never modified. Extraction failures
// and self-intersecting sections surface as *GeometryExtractionError.
func ExtractReferenceCurve(k kernel.Kernel, body kernel.Solid, plane kernel.SlicePlane) (*ReferenceCurve, error) {
	raw, err := k.ExtractBoundaryCurve(body, plane)
	if err != nil {
		return nil, &GeometryExtractionError{Reason: "no closed cross-section", Err: err}
	}
	loop := make([]geom.Vec2, len(raw))
	for i, p := range raw {
		loop[i] = p.XY()
	}
	return newReferenceCurve(loop, plane.Z)
}

// newReferenceCurve validates and parameterizes a closed boundary loop.
// The loop is normalized to counter-clockwise winding so that outward
// normals are consistent regardless of extraction direction.
func newReferenceCurve(loop []geom.Vec2, z float64) (*ReferenceCurve, error) {
	if len(loop) < minCurvePoints {
		return nil, &GeometryExtractionError{
			Reason: fmt.Sprintf("boundary loop has %d points, need at least %d", len(loop), minCurvePoints),
		}
	}
	if !geom.IsSimple(loop) {
		return nil, &GeometryExtractionError{Reason: "boundary loop self-intersects"}
	}
	pts := make([]geom.Vec2, len(loop))
	copy(pts, loop)
	if geom.SignedArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	cum := make([]float64, len(pts))
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i].Distance(pts[i-1])
		cum[i] = total
	}
	total += pts[len(pts)-1].Distance(pts[0])
	if total <= 0 {
		return nil, &GeometryExtractionError{Reason: "boundary loop has zero length"}
	}

	return &ReferenceCurve{pts: pts, cum: cum, z: z, length: total}, nil
}

// Length returns the total perimeter length L.
func (c *ReferenceCurve) Length() float64 {
	return c.length
}

// Z returns the slice plane height the curve was extracted at.
func (c *ReferenceCurve) Z() float64 {
	return c.z
}

// Points returns the underlying loop vertices. Callers must not
// mutate the returned slice.
func (c *ReferenceCurve) Points() []geom.Vec2 {
	return c.pts
}

// locate maps an arc length parameter to a segment index and the
// fraction along it. s is wrapped into [0, L).
func (c *ReferenceCurve) locate(s float64) (int, float64) {
	s = math.Mod(s, c.length)
	if s < 0 {
		s += c.length
	}
	// Binary search over cumulative lengths for the containing segment.
	lo, hi := 0, len(c.cum)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.cum[mid] <= s {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	segLen := c.segmentLength(lo)
	if segLen == 0 {
		return lo, 0
	}
	return lo, (s - c.cum[lo]) / segLen
}

func (c *ReferenceCurve) segmentLength(i int) float64 {
	next := (i + 1) % len(c.pts)
	return c.pts[i].Distance(c.pts[next])
}

// PointAt returns the curve point at arc length s.
func (c *ReferenceCurve) PointAt(s float64) geom.Vec2 {
	i, t := c.locate(s)
	a := c.pts[i]
	b := c.pts[(i+1)%len(c.pts)]
	return a.Add(b.Sub(a).Scale(t))
}

// NormalAt returns the unit outward radial normal at arc length s.
// With counter-clockwise winding the outward normal is the traversal
// tangent rotated -90°. Vertex normals are interpolated along each
// segment so the field is continuous in s.
func (c *ReferenceCurve) NormalAt(s float64) geom.Vec2 {
	i, t := c.locate(s)
	a := c.vertexNormal(i)
	b := c.vertexNormal((i + 1) % len(c.pts))
	return a.Add(b.Sub(a).Scale(t)).Normalize()
}

func (c *ReferenceCurve) vertexNormal(i int) geom.Vec2 {
	n := len(c.pts)
	prev := c.pts[(i+n-1)%n]
	next := c.pts[(i+1)%n]
	t := next.Sub(prev).Normalize()
	return geom.Vec2{X: t.Y, Y: -t.X}
}
