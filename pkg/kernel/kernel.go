// Package kernel defines the abstract geometry capability interface the
// weave engine builds on. Implementations (sdfx, test fakes) provide the
// host-CAD style operations (boundary curve extraction, profile sweeps)
// behind this interface, so the engine never depends on a concrete
// geometry representation.
package kernel

import (
	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/units"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// SlicePlane selects a horizontal cross-section of a solid. The up axis
// is fixed to Z; all lengths are millimeters.
type SlicePlane struct {
	Z float64
}

// Profile is the 2-D cross-section swept along a rope path: Thickness
// wide in the slice plane, Height tall along Z.
type Profile struct {
	Thickness units.Length
	Height    units.Length
}

// Kernel is the abstract geometry capability interface.
//
// ExtractBoundaryCurve and Sweep are the two host capabilities the weave
// engine requires. The primitive constructors exist so callers can build
// input bodies without reaching past the abstraction, and Union/Translate
// let them assemble outputs.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Assembly
	Union(a, b Solid) Solid
	Translate(s Solid, x, y, z float64) Solid

	// ExtractBoundaryCurve returns the outer boundary of the solid's
	// cross-section at the given plane as an ordered closed loop of
	// points (no duplicate closing point). It fails when the plane
	// misses the solid or no closed section exists there.
	ExtractBoundaryCurve(body Solid, plane SlicePlane) ([]geom.Vec3, error)

	// Sweep realizes a solid by sweeping profile along a closed planar
	// path. It fails when the geometry cannot be realized for the given
	// profile, e.g. a self-intersecting offset or a degenerate path.
	Sweep(profile Profile, path []geom.Vec3) (Solid, error)

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
