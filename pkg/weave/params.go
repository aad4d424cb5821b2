package weave

import (
	"fmt"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/units"
)

// Parameters describes a single weave generation run. The struct is
// immutable input: validated once at entry, read-only afterwards.
type Parameters struct {
	// WaveCount is the number of full sinusoidal periods along the
	// perimeter. Counts above HighWaveCountWarning are expensive.
	WaveCount int

	// Amplitude is the maximum radial wave displacement. The effective
	// amplitude may be clamped locally near pinch points.
	Amplitude units.Length

	// PhaseOffset is the per-rope phase shift: rope i waves at phase
	// i·PhaseOffset. 0 aligns all ropes, 180 alternates them.
	PhaseOffset units.Angle

	// Offset biases all ropes radially: negative inward, positive
	// outward of the body surface.
	Offset units.Length

	// Thickness and Height set the rope cross-section.
	Thickness units.Length
	Height    units.Length

	// PatternOnly generates a small representative subset of ropes
	// instead of full body coverage, for fast previewing.
	PatternOnly bool
}

// Documented slider ranges for the command surface. Validation only
// enforces hard geometric constraints; the ranges are advisory.
const (
	MinThickness units.Length = 0.2
	MaxThickness units.Length = 3.2
	MinAmplitude units.Length = 0.1
	MaxAmplitude units.Length = 5.0
	MinOffset    units.Length = -2.0
	MaxOffset    units.Length = 2.0

	// HighWaveCountWarning is the wave count above which generation
	// time grows noticeably; callers may warn the user.
	HighWaveCountWarning = 70
)

// Validate checks the hard constraints. It returns a *ValidationError
// naming the offending field, or nil.
func (p Parameters) Validate() error {
	if p.WaveCount <= 0 {
		return &ValidationError{Field: "waveCount", Reason: fmt.Sprintf("must be positive, got %d", p.WaveCount)}
	}
	if p.Amplitude <= 0 {
		return &ValidationError{Field: "amplitude", Reason: fmt.Sprintf("must be positive, got %s", p.Amplitude)}
	}
	if p.Thickness <= 0 {
		return &ValidationError{Field: "thickness", Reason: fmt.Sprintf("must be positive, got %s", p.Thickness)}
	}
	if p.Height <= 0 {
		return &ValidationError{Field: "height", Reason: fmt.Sprintf("must be positive, got %s", p.Height)}
	}
	if p.PhaseOffset < 0 || p.PhaseOffset >= 360 {
		return &ValidationError{Field: "phaseOffsetDeg", Reason: fmt.Sprintf("must be in [0,360), got %s", p.PhaseOffset)}
	}
	return nil
}

// SelectBody enforces the single-body selection rule: exactly one solid
// must be selected for a run.
func SelectBody(bodies ...kernel.Solid) (kernel.Solid, error) {
	switch len(bodies) {
	case 1:
		if bodies[0] == nil {
			return nil, &ValidationError{Field: "body", Reason: "selected body is nil"}
		}
		return bodies[0], nil
	case 0:
		return nil, &ValidationError{Field: "body", Reason: "exactly one body required, none selected"}
	default:
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("exactly one body required, %d selected", len(bodies))}
	}
}
