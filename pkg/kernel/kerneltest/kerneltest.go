// Package kerneltest provides a pure-Go kernel.Kernel implementation
// for tests. Bodies carry an analytic cross-section outline, so
// boundary extraction is exact and fast, and sweeps perform the same
// offset validity checks a real backend does without building any
// geometry. Failure injection hooks let tests script transient sweep
// errors deterministically.
package kerneltest

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// defaultBoundarySamples is the outline resolution handed to callers
// of ExtractBoundaryCurve.
const defaultBoundarySamples = 256

// Solid is a fake solid: a bounding box plus the cross-section outline
// every horizontal slice of it shares.
type Solid struct {
	min, max [3]float64
	outline  []geom.Vec2
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	return s.min, s.max
}

// Kernel implements kernel.Kernel without any geometry backend.
type Kernel struct {
	// SweepErr, when set, is consulted before every sweep; a non-nil
	// return is surfaced as the sweep failure. Called concurrently.
	SweepErr func(profile kernel.Profile, path []geom.Vec3) error

	// BoundarySamples overrides the outline resolution when positive.
	BoundarySamples int

	extractCalls atomic.Int64
	sweepCalls   atomic.Int64
}

// New returns a fake kernel.
func New() *Kernel {
	return &Kernel{}
}

// ExtractCalls reports how many boundary extractions have run.
func (k *Kernel) ExtractCalls() int {
	return int(k.extractCalls.Load())
}

// SweepCalls reports how many sweep attempts have run.
func (k *Kernel) SweepCalls() int {
	return int(k.sweepCalls.Load())
}

// Box creates a box centered on the Z axis with its base at z=0.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	outline := []geom.Vec2{
		{X: -x / 2, Y: -y / 2},
		{X: x / 2, Y: -y / 2},
		{X: x / 2, Y: y / 2},
		{X: -x / 2, Y: y / 2},
	}
	return &Solid{
		min:     [3]float64{-x / 2, -y / 2, 0},
		max:     [3]float64{x / 2, y / 2, z},
		outline: outline,
	}
}

// Cylinder creates a cylinder centered on the Z axis with its base at
// z=0. The outline resolution follows BoundarySamples.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	n := k.samples()
	outline := make([]geom.Vec2, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		outline[i] = geom.Vec2{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return &Solid{
		min:     [3]float64{-radius, -radius, 0},
		max:     [3]float64{radius, radius, height},
		outline: outline,
	}
}

// Prism creates a body with an arbitrary cross-section outline, for
// fixtures like necked or lobed shapes that the primitive constructors
// cannot express.
func (k *Kernel) Prism(outline []geom.Vec2, height float64) kernel.Solid {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range outline {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	pts := make([]geom.Vec2, len(outline))
	copy(pts, outline)
	return &Solid{
		min:     [3]float64{minX, minY, 0},
		max:     [3]float64{maxX, maxY, height},
		outline: pts,
	}
}

// Union returns a fake solid covering both bounding boxes. The outline
// of a is kept; unions are only used downstream of weaving.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	fa, fb := a.(*Solid), b.(*Solid)
	var out Solid
	out.outline = fa.outline
	for i := 0; i < 3; i++ {
		out.min[i] = math.Min(fa.min[i], fb.min[i])
		out.max[i] = math.Max(fa.max[i], fb.max[i])
	}
	return &out
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	f := s.(*Solid)
	out := Solid{outline: make([]geom.Vec2, len(f.outline))}
	for i, p := range f.outline {
		out.outline[i] = geom.Vec2{X: p.X + x, Y: p.Y + y}
	}
	d := [3]float64{x, y, z}
	for i := 0; i < 3; i++ {
		out.min[i] = f.min[i] + d[i]
		out.max[i] = f.max[i] + d[i]
	}
	return &out
}

// ExtractBoundaryCurve returns the solid's outline at the plane height.
func (k *Kernel) ExtractBoundaryCurve(body kernel.Solid, plane kernel.SlicePlane) ([]geom.Vec3, error) {
	k.extractCalls.Add(1)
	f := body.(*Solid)
	if plane.Z <= f.min[2] || plane.Z >= f.max[2] {
		return nil, fmt.Errorf("slice plane z=%.3f outside body z range [%.3f, %.3f]",
			plane.Z, f.min[2], f.max[2])
	}
	out := make([]geom.Vec3, len(f.outline))
	for i, p := range f.outline {
		out[i] = geom.Vec3{X: p.X, Y: p.Y, Z: plane.Z}
	}
	return out, nil
}

// Sweep validates the path and offsets the way a real backend does,
// then returns a fake solid spanning the path's extent. Injected
// failures take precedence.
func (k *Kernel) Sweep(profile kernel.Profile, path []geom.Vec3) (kernel.Solid, error) {
	k.sweepCalls.Add(1)
	if k.SweepErr != nil {
		if err := k.SweepErr(profile, path); err != nil {
			return nil, err
		}
	}
	if len(path) < 8 {
		return nil, fmt.Errorf("sweep path has %d points, need at least 8", len(path))
	}
	thickness := profile.Thickness.Millimeters()
	height := profile.Height.Millimeters()
	if thickness <= 0 || height <= 0 {
		return nil, fmt.Errorf("sweep profile %s × %s is degenerate", profile.Thickness, profile.Height)
	}

	z := path[0].Z
	loop := make([]geom.Vec2, len(path))
	for i, p := range path {
		loop[i] = p.XY()
	}
	if geom.SignedArea(loop) < 0 {
		for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
			loop[i], loop[j] = loop[j], loop[i]
		}
	}
	if !geom.IsSimple(loop) {
		return nil, fmt.Errorf("sweep path self-intersects")
	}
	half := thickness / 2
	outer := geom.OffsetClosed(loop, half)
	inner := geom.OffsetClosed(loop, -half)
	if geom.OffsetFolds(loop, outer) || !geom.IsSimple(outer) {
		return nil, fmt.Errorf("outer offset at half-thickness %.3fmm self-intersects", half)
	}
	if geom.OffsetFolds(loop, inner) || !geom.IsSimple(inner) {
		return nil, fmt.Errorf("inner offset at half-thickness %.3fmm collapses", half)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range outer {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return &Solid{
		min:     [3]float64{minX, minY, z},
		max:     [3]float64{maxX, maxY, z + height},
		outline: loop,
	}, nil
}

// ToMesh returns a tiny placeholder mesh; fake solids carry no real
// surface.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	f := s.(*Solid)
	return &kernel.Mesh{
		Vertices: []float32{
			float32(f.min[0]), float32(f.min[1]), float32(f.min[2]),
			float32(f.max[0]), float32(f.min[1]), float32(f.min[2]),
			float32(f.max[0]), float32(f.max[1]), float32(f.max[2]),
		},
		Normals: []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices: []uint32{0, 1, 2},
	}, nil
}

func (k *Kernel) samples() int {
	if k.BoundarySamples > 0 {
		return k.BoundarySamples
	}
	return defaultBoundarySamples
}
