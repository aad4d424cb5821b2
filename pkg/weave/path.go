package weave

import (
	"math"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
)

// RopePath is one rope centerline: the reference curve displaced by a
// phase-shifted sinusoid along the outward normal. Paths are consumed
// by the solid builder and discarded.
type RopePath struct {
	Index  int
	Points []geom.Vec3

	// MinAmplitude and MaxAmplitude record the effective (clamped)
	// amplitude range applied along the path.
	MinAmplitude float64
	MaxAmplitude float64
}

// Clamped reports whether any sample was clamped below the requested
// amplitude.
func (p *RopePath) Clamped(requested float64) bool {
	return p.MinAmplitude < requested-1e-9
}

// Default sampling tunables. Resolution is a function of both wave
// count and perimeter length: enough samples per period to keep each
// sinusoid smooth, and a spacing floor so large bodies with few waves
// still follow the boundary.
const (
	// DefaultSamplesPerPeriod is the minimum number of path samples
	// per sinusoid period.
	DefaultSamplesPerPeriod = 16

	// DefaultMaxSampleSpacing is the largest arc-length gap between
	// consecutive samples, in mm.
	DefaultMaxSampleSpacing = 2.0

	// waveSharpness shapes the sinusoid through tanh; 1 keeps the
	// classic rounded crest.
	waveSharpness = 1.0
)

// PathGenerator produces rope centerlines from a reference curve. It
// never mutates the curve; one generator serves all ropes of a run.
type PathGenerator struct {
	SamplesPerPeriod int
	MaxSampleSpacing float64

	// HugSurface biases each sample inward by half the thickness plus
	// the local amplitude, so the outer wave crest grazes the original
	// body surface instead of straddling it.
	HugSurface bool

	curve   *ReferenceCurve
	params  Parameters
	clamper *Clamper
}

// NewPathGenerator builds a generator with default sampling tunables.
func NewPathGenerator(curve *ReferenceCurve, params Parameters) *PathGenerator {
	return &PathGenerator{
		SamplesPerPeriod: DefaultSamplesPerPeriod,
		MaxSampleSpacing: DefaultMaxSampleSpacing,
		curve:            curve,
		params:           params,
		clamper:          NewClamper(curve, params),
	}
}

// Clamper exposes the generator's amplitude clamper.
func (g *PathGenerator) Clamper() *Clamper {
	return g.clamper
}

// SampleCount returns the number of path samples for this curve and
// wave count.
func (g *PathGenerator) SampleCount() int {
	perPeriod := g.SamplesPerPeriod
	if perPeriod < 4 {
		perPeriod = 4
	}
	n := perPeriod * g.params.WaveCount
	if g.MaxSampleSpacing > 0 {
		if bySpacing := int(math.Ceil(g.curve.Length() / g.MaxSampleSpacing)); bySpacing > n {
			n = bySpacing
		}
	}
	return n
}

// Generate produces the rope path for ropeIndex at plane height z.
// Phase is assigned per rope index as index·PhaseOffset, so generation
// order is deterministic and reproducible.
func (g *PathGenerator) Generate(ropeIndex int, z float64) *RopePath {
	n := g.SampleCount()
	L := g.curve.Length()
	freq := float64(g.params.WaveCount)
	phase := float64(ropeIndex) * g.params.PhaseOffset.Radians()
	requested := g.params.Amplitude.Millimeters()
	offset := g.params.Offset.Millimeters()
	halfThickness := g.params.Thickness.Millimeters() / 2

	path := &RopePath{
		Index:        ropeIndex,
		Points:       make([]geom.Vec3, n),
		MinAmplitude: math.Inf(1),
		MaxAmplitude: math.Inf(-1),
	}

	for i := 0; i < n; i++ {
		s := L * float64(i) / float64(n)
		amp := g.clamper.ClampedAmplitude(s, requested)
		if amp < path.MinAmplitude {
			path.MinAmplitude = amp
		}
		if amp > path.MaxAmplitude {
			path.MaxAmplitude = amp
		}

		wave := amp * math.Tanh(waveSharpness*math.Sin(2*math.Pi*freq*s/L+phase))
		radial := offset + wave
		if g.HugSurface {
			radial -= halfThickness + amp
		}

		p := g.curve.PointAt(s)
		nrm := g.curve.NormalAt(s)
		q := p.Add(nrm.Scale(radial))
		path.Points[i] = geom.Vec3{X: q.X, Y: q.Y, Z: z}
	}
	return path
}
