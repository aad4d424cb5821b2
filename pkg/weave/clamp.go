package weave

import (
	"math"
)

// Clamper limits the requested wave amplitude per sample so rope paths
// stay clear of pinch points and never cross themselves. Budgets are
// precomputed at the curve vertices from two local estimates:
//
//   - the neck budget: half the distance to the nearest opposite-side
//     curve point, less the rope thickness (half for the wall itself,
//     half as safety margin, mirroring the wavelength rule), and
//   - the wavelength cap: a crest and the following trough must fit
//     inside half a wavelength with the rope wall between them.
//
// Raw budgets are noisy where the boundary is faceted, so they are
// smoothed by a windowed minimum (erosion) followed by a moving
// average. The erosion window is at least as wide as the averaging
// window, which guarantees the smoothed budget never exceeds the raw
// budget at any vertex: clamping errs low, never high.
type Clamper struct {
	curve   *ReferenceCurve
	budgets []float64 // smoothed budget per curve vertex
}

const (
	// neckSeparationFraction is the minimum arc-length separation, as
	// a fraction of the perimeter, for a curve point to count as
	// "opposite side" rather than a neighbor along the same stretch.
	neckSeparationFraction = 0.125

	// smoothingWindow is the half-width, in curve vertices, of the
	// erosion and averaging passes.
	smoothingWindow = 4

	// minClampedAmplitude is the floor a degenerate region clamps to.
	// The rope is still attempted at this amplitude; if the sweep also
	// fails it resolves to the standard per-rope failure.
	minClampedAmplitude = 0.05

	// wavelengthSafety leaves margin inside the half-wavelength rule.
	wavelengthSafety = 0.75
)

// NewClamper precomputes amplitude budgets for a curve and run
// parameters. The curve is read-only.
func NewClamper(curve *ReferenceCurve, params Parameters) *Clamper {
	pts := curve.Points()
	n := len(pts)
	thickness := params.Thickness.Millimeters()

	// Global cap from the wavelength rule.
	wavelength := curve.Length() / float64(params.WaveCount)
	ceiling := (wavelength/2 - thickness) * wavelengthSafety
	if ceiling < minClampedAmplitude {
		ceiling = minClampedAmplitude
	}

	minSep := curve.Length() * neckSeparationFraction

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		neck := math.Inf(1)
		for j := 0; j < n; j++ {
			if arcDistance(curve, i, j) < minSep {
				continue
			}
			if d := pts[i].Distance(pts[j]); d < neck {
				neck = d
			}
		}
		b := ceiling
		if !math.IsInf(neck, 1) {
			if nb := neck/2 - thickness; nb < b {
				b = nb
			}
		}
		if b < minClampedAmplitude {
			b = minClampedAmplitude
		}
		raw[i] = b
	}

	return &Clamper{curve: curve, budgets: smooth(raw, smoothingWindow)}
}

// arcDistance returns the circular arc-length distance between curve
// vertices i and j.
func arcDistance(c *ReferenceCurve, i, j int) float64 {
	d := math.Abs(c.cum[i] - c.cum[j])
	if half := c.length / 2; d > half {
		d = c.length - d
	}
	return d
}

// smooth applies a windowed minimum then a moving average, both
// circular with half-width w. Because every averaged value is an
// erosion over a window containing the center vertex, the result is
// pointwise ≤ the raw input.
func smooth(raw []float64, w int) []float64 {
	n := len(raw)
	eroded := make([]float64, n)
	for i := 0; i < n; i++ {
		m := raw[i]
		for k := -w; k <= w; k++ {
			if v := raw[((i+k)%n+n)%n]; v < m {
				m = v
			}
		}
		eroded[i] = m
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for k := -w; k <= w; k++ {
			sum += eroded[((i+k)%n+n)%n]
		}
		out[i] = sum / float64(2*w+1)
	}
	return out
}

// ClampedAmplitude returns min(requested, local budget at s). The
// budget is linearly interpolated between vertices so the clamp is
// continuous in s.
func (cl *Clamper) ClampedAmplitude(s, requested float64) float64 {
	if requested <= 0 {
		return 0
	}
	i, t := cl.curve.locate(s)
	a := cl.budgets[i]
	b := cl.budgets[(i+1)%len(cl.budgets)]
	budget := a + (b-a)*t
	return math.Min(requested, budget)
}

// MinBudget returns the smallest smoothed budget on the curve. The
// orchestrator reports ropes whose entire path sits at the degenerate
// floor.
func (cl *Clamper) MinBudget() float64 {
	m := math.Inf(1)
	for _, b := range cl.budgets {
		if b < m {
			m = b
		}
	}
	return m
}
