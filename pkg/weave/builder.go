package weave

import (
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/units"
)

// RopeStatus classifies the outcome of building one rope.
type RopeStatus int

const (
	RopeSucceeded RopeStatus = iota
	RopeAdjustedThickness
	RopeFailed
)

func (s RopeStatus) String() string {
	switch s {
	case RopeSucceeded:
		return "succeeded"
	case RopeAdjustedThickness:
		return "succeeded with adjusted thickness"
	case RopeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RopeBody is the fabricated solid for one rope path, tagged with the
// thickness actually used and the build outcome. Body is nil when the
// rope failed.
type RopeBody struct {
	Index           int
	Body            kernel.Solid
	ActualThickness units.Length
	Status          RopeStatus
	Attempts        int
	Err             error
}

// thicknessFactors is the deterministic perturbation sequence the
// builder walks on transient sweep failures: requested thickness first,
// then shrink, then expand, then shrink further. The sequence bounds
// ActualThickness to [0.8, 1.1] × requested.
var thicknessFactors = []float64{1.0, 0.9, 1.1, 0.8}

// Builder converts rope paths into solids through the kernel's sweep
// capability, retrying with perturbed thickness when the kernel cannot
// realize the geometry.
type Builder struct {
	kernel kernel.Kernel
}

// NewBuilder returns a Builder on the given kernel.
func NewBuilder(k kernel.Kernel) *Builder {
	return &Builder{kernel: k}
}

// MaxAttempts is the retry budget per rope.
func (b *Builder) MaxAttempts() int {
	return len(thicknessFactors)
}

// Build sweeps the rope profile along path, walking the thickness
// perturbation sequence until the kernel accepts the geometry or the
// attempt budget is spent. A failed rope is recorded, never raised:
// one bad rope must not abort the batch.
func (b *Builder) Build(path *RopePath, thickness, height units.Length) RopeBody {
	result := RopeBody{Index: path.Index, Status: RopeFailed}

	var lastErr error
	for attempt, factor := range thicknessFactors {
		t := units.Length(thickness.Millimeters() * factor)
		result.Attempts = attempt + 1

		solid, err := b.kernel.Sweep(kernel.Profile{Thickness: t, Height: height}, path.Points)
		if err != nil {
			lastErr = err
			continue
		}

		result.Body = solid
		result.ActualThickness = t
		if factor == 1.0 {
			result.Status = RopeSucceeded
		} else {
			result.Status = RopeAdjustedThickness
		}
		return result
	}

	result.ActualThickness = units.Length(thickness.Millimeters() * thicknessFactors[len(thicknessFactors)-1])
	result.Err = &SweepConstructionError{
		RopeIndex: path.Index,
		Attempts:  result.Attempts,
		Thickness: result.ActualThickness,
		Err:       lastErr,
	}
	return result
}
