package geom

import "math"

// Closed polylines are stored without a duplicate closing vertex;
// the segment from the last vertex back to the first is implied.

// PerimeterLength returns the total length of a closed polyline,
// including the implied closing segment.
func PerimeterLength(pts []Vec2) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := range pts {
		total += pts[i].Distance(pts[(i+1)%len(pts)])
	}
	return total
}

// SignedArea returns the shoelace area of a closed polyline.
// Positive means counter-clockwise winding.
func SignedArea(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].Cross(pts[j])
	}
	return sum / 2
}

// Centroid returns the vertex average of a closed polyline.
func Centroid(pts []Vec2) Vec2 {
	var c Vec2
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(pts)))
}

// IsSimple reports whether a closed polyline is free of
// self-intersections. Adjacent segments sharing a vertex are not
// counted as intersecting. The check is O(n²); reference curves and
// rope paths are small enough that this is not a bottleneck.
func IsSimple(pts []Vec2) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1 := pts[i]
		a2 := pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip the shared-vertex neighbors, including the
			// first/last pair that closes the loop.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := pts[j]
			b2 := pts[(j+1)%n]
			if SegmentsIntersect(a1, a2, b1, b2) {
				return false
			}
		}
	}
	return true
}

// SegmentsIntersect reports whether the closed segments a1a2 and b1b2
// intersect, using orientation tests with collinear special cases.
func SegmentsIntersect(a1, a2, b1, b2 Vec2) bool {
	d1 := direction(b1, b2, a1)
	d2 := direction(b1, b2, a2)
	d3 := direction(a1, a2, b1)
	d4 := direction(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	return false
}

func direction(p, q, r Vec2) float64 {
	return q.Sub(p).Cross(r.Sub(p))
}

func onSegment(p, q, r Vec2) bool {
	return math.Min(p.X, q.X) <= r.X && r.X <= math.Max(p.X, q.X) &&
		math.Min(p.Y, q.Y) <= r.Y && r.Y <= math.Max(p.Y, q.Y)
}

// OffsetFolds reports whether an offset copy of a closed polyline has
// folded back on itself: any segment whose direction reverses relative
// to the corresponding original segment means the offset distance
// exceeded the local curvature radius there.
func OffsetFolds(orig, off []Vec2) bool {
	if len(orig) != len(off) {
		return true
	}
	n := len(orig)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a := orig[j].Sub(orig[i])
		b := off[j].Sub(off[i])
		if a.Dot(b) <= 0 {
			return true
		}
	}
	return false
}

// OffsetClosed displaces every vertex of a closed polyline along its
// outward vertex normal by d. The polyline must wind counter-clockwise
// for positive d to grow the shape. The result keeps the vertex count;
// callers are expected to re-check simplicity because large offsets on
// concave regions can fold the polyline onto itself.
func OffsetClosed(pts []Vec2, d float64) []Vec2 {
	n := len(pts)
	out := make([]Vec2, n)
	for i := range pts {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		// Outward normal of a CCW loop: rotate the local tangent -90°.
		t := next.Sub(prev).Normalize()
		normal := Vec2{t.Y, -t.X}
		out[i] = pts[i].Add(normal.Scale(d))
	}
	return out
}
