// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Boundary curves are traced by bisecting the signed distance field
// along radial rays from the section's interior. Sweeps are realized as
// a ring between the inner and outer offsets of the path polygon,
// extruded to the rope height, which is the same inner/outer offset
// construction a sketch-based CAD kernel performs.
package sdfx

import (
	"fmt"
	"math"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200

	// defaultBoundarySamples is the angular resolution of boundary
	// tracing. Fixed so repeated extractions of the same body are
	// identical; the reference curve re-parameterizes by arc length.
	defaultBoundarySamples = 512

	// surfaceTolerance bounds the bisection error when locating the
	// zero crossing of the distance field, in mm.
	surfaceTolerance = 1e-6

	// microVolume is the floor below which a swept solid is considered
	// a degenerate sliver and rejected, in mm³.
	microVolume = 1.0
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct {
	boundarySamples int
	meshCells       int
}

// New returns a new sdfx-backed kernel with default resolutions.
func New() *Kernel {
	return &Kernel{
		boundarySamples: defaultBoundarySamples,
		meshCells:       defaultMeshCells,
	}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions, centered on the Z axis
// with its base at z=0 so that slice planes count up from zero.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a cylinder with the given height and radius, centered
// on the Z axis with its base at z=0. The segments parameter is ignored
// since SDF represents smooth surfaces.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ExtractBoundaryCurve traces the outer boundary of the solid's
// cross-section at the given plane. Rays are cast from the section
// interior outward; the surface radius along each ray is located by
// bisecting the signed distance field. The trace requires the section
// to be star-shaped about the bounding box center; sections that are
// not produce a self-intersecting loop, which the caller's curve
// validation rejects.
func (k *Kernel) ExtractBoundaryCurve(body kernel.Solid, plane kernel.SlicePlane) ([]geom.Vec3, error) {
	s := unwrap(body)
	bb := s.BoundingBox()

	if plane.Z <= bb.Min.Z || plane.Z >= bb.Max.Z {
		return nil, fmt.Errorf("slice plane z=%.3f outside body z range [%.3f, %.3f]",
			plane.Z, bb.Min.Z, bb.Max.Z)
	}

	cx := (bb.Min.X + bb.Max.X) / 2
	cy := (bb.Min.Y + bb.Max.Y) / 2
	if d := s.Evaluate(v3.Vec{X: cx, Y: cy, Z: plane.Z}); d >= 0 {
		return nil, fmt.Errorf("no interior at slice plane z=%.3f (distance %.3f)", plane.Z, d)
	}

	// A ray of this length always exits the bounding box.
	rMax := math.Hypot(bb.Max.X-bb.Min.X, bb.Max.Y-bb.Min.Y)

	pts := make([]geom.Vec3, k.boundarySamples)
	for i := 0; i < k.boundarySamples; i++ {
		theta := 2 * math.Pi * float64(i) / float64(k.boundarySamples)
		dx, dy := math.Cos(theta), math.Sin(theta)

		eval := func(r float64) float64 {
			return s.Evaluate(v3.Vec{X: cx + r*dx, Y: cy + r*dy, Z: plane.Z})
		}
		if eval(rMax) <= 0 {
			return nil, fmt.Errorf("boundary ray %d does not exit the solid", i)
		}

		lo, hi := 0.0, rMax
		for hi-lo > surfaceTolerance {
			mid := (lo + hi) / 2
			if eval(mid) < 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
		r := (lo + hi) / 2
		pts[i] = geom.Vec3{X: cx + r*dx, Y: cy + r*dy, Z: plane.Z}
	}
	return pts, nil
}

// Sweep realizes a rope solid from a closed planar path and a
// thickness × height profile. The wall is the region between the path
// polygon offset outward and inward by half the thickness, extruded to
// the profile height with its base at the path plane.
//
// Failures are transient in the sense of the builder retry policy:
// a smaller or larger thickness may offset cleanly where this one
// did not.
func (k *Kernel) Sweep(profile kernel.Profile, path []geom.Vec3) (kernel.Solid, error) {
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
		if math.Abs(p.Z-z) > surfaceTolerance {
			return nil, fmt.Errorf("sweep path is not planar: point %d at z=%.3f, plane z=%.3f", i, p.Z, z)
		}
		loop[i] = p.XY()
	}

	// Canonical CCW winding so offsets grow outward for positive d.
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
	if geom.OffsetFolds(loop, inner) || !geom.IsSimple(inner) || geom.SignedArea(inner) <= 0 {
		return nil, fmt.Errorf("inner offset at half-thickness %.3fmm collapses", half)
	}

	ringArea := geom.SignedArea(outer) - geom.SignedArea(inner)
	if ringArea*height < microVolume {
		return nil, fmt.Errorf("swept volume %.4fmm³ below floor", ringArea*height)
	}

	center, err := sdf.Polygon2D(toV2(loop))
	if err != nil {
		return nil, fmt.Errorf("sweep path polygon: %w", err)
	}

	ring := sdf.Difference2D(
		sdf.Offset2D(center, half),
		sdf.Offset2D(center, -half),
	)
	solid := sdf.Extrude3D(ring, height)
	m := sdf.Translate3d(v3.Vec{Z: z + height/2})
	return wrap(sdf.Transform3D(solid, m)), nil
}

func toV2(pts []geom.Vec2) []v2.Vec {
	out := make([]v2.Vec, len(pts))
	for i, p := range pts {
		out[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(k.meshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
