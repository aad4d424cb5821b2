package weave

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
)

// Summary counts per-rope outcomes of a run.
type Summary struct {
	Succeeded int
	Adjusted  int
	Failed    int
}

// Total returns the number of ropes attempted or skipped.
func (s Summary) Total() int {
	return s.Succeeded + s.Adjusted + s.Failed
}

// WeaveResult is the terminal artifact of a run: one RopeBody per rope
// index, in index order, plus the outcome summary. It is not mutated
// after the run ends.
type WeaveResult struct {
	Ropes   []RopeBody
	Summary Summary

	// FullRopeCount is the rope count full coverage would have used;
	// equals len(Ropes) unless PatternOnly trimmed the run.
	FullRopeCount int
}

// ProgressFunc is called after each completed rope with the number of
// ropes finished so far and the total. Calls may arrive from worker
// goroutines but never concurrently.
type ProgressFunc func(done, total int)

// Orchestrator drives a full weave run: one reference curve extraction,
// then per-rope path generation and solid building across a bounded
// worker pool.
type Orchestrator struct {
	Kernel kernel.Kernel

	// Workers bounds the parallel build phase. Zero means GOMAXPROCS.
	Workers int

	// Progress, when set, receives per-rope completion callbacks.
	Progress ProgressFunc

	// Logger, when set, receives run diagnostics. Nil disables logging.
	Logger *log.Logger

	// SamplesPerPeriod and MaxSampleSpacing override the path sampling
	// tunables when positive.
	SamplesPerPeriod int
	MaxSampleSpacing float64

	// HugSurface biases ropes inward so wave crests graze the original
	// surface.
	HugSurface bool
}

// NewOrchestrator returns an Orchestrator on the given kernel with
// default tunables.
func NewOrchestrator(k kernel.Kernel) *Orchestrator {
	return &Orchestrator{Kernel: k}
}

// Run executes the full pipeline for one body and parameter set.
//
// Fatal errors (invalid parameters, failed extraction) return before
// any rope is attempted. Per-rope failures are collected into the
// result and never abort the batch. Cancelling ctx stops launching
// further ropes; ropes already built are still reported.
func (o *Orchestrator) Run(ctx context.Context, body kernel.Solid, params Parameters) (*WeaveResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &ValidationError{Field: "body", Reason: "no body selected"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	min, max := body.BoundingBox()
	height := params.Height.Millimeters()
	full := int(math.Floor((max[2] - min[2]) / height))
	if full < 1 {
		return nil, &ValidationError{Field: "height", Reason: "rope height exceeds body height, no layers fit"}
	}

	count := ropeCountForMode(params, full)
	if params.WaveCount > HighWaveCountWarning {
		o.logf("wave count %d above %d: generation will be slow", params.WaveCount, HighWaveCountWarning)
	}

	// The single serialized step: one extraction per run, at the mid
	// height of the first layer where the section is well defined.
	plane := kernel.SlicePlane{Z: min[2] + height/2}
	curve, err := ExtractReferenceCurve(o.Kernel, body, plane)
	if err != nil {
		return nil, err
	}

	gen := NewPathGenerator(curve, params)
	if o.SamplesPerPeriod > 0 {
		gen.SamplesPerPeriod = o.SamplesPerPeriod
	}
	if o.MaxSampleSpacing > 0 {
		gen.MaxSampleSpacing = o.MaxSampleSpacing
	}
	gen.HugSurface = o.HugSurface

	if mb := gen.Clamper().MinBudget(); mb <= minClampedAmplitude {
		o.logf("clearance collapses to the clamp floor on this body; ropes are attempted at minimal amplitude")
	}

	// Paths are cheap: generate them all up front, in index order, so
	// phase assignment never depends on scheduling.
	paths := make([]*RopePath, count)
	for i := 0; i < count; i++ {
		paths[i] = gen.Generate(i, min[2]+float64(i)*height)
	}

	builder := NewBuilder(o.Kernel)
	ropes := make([]RopeBody, count)

	var (
		done       int
		progressMu sync.Mutex
	)
	reportDone := func() {
		progressMu.Lock()
		done++
		if o.Progress != nil {
			o.Progress(done, count)
		}
		progressMu.Unlock()
	}

	workers := newPool(o.Workers)
	launched := 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		launched++
		workers.submit(func() {
			ropes[i] = builder.Build(paths[i], params.Thickness, params.Height)
			reportDone()
		})
	}
	workers.stop()

	// Ropes never launched due to cancellation are reported as failed
	// so the summary still covers every index.
	for i := launched; i < count; i++ {
		ropes[i] = RopeBody{Index: i, Status: RopeFailed, Err: ctx.Err()}
	}

	result := &WeaveResult{Ropes: ropes, FullRopeCount: full}
	for _, r := range ropes {
		switch r.Status {
		case RopeSucceeded:
			result.Summary.Succeeded++
		case RopeAdjustedThickness:
			result.Summary.Adjusted++
		default:
			result.Summary.Failed++
		}
	}

	o.logf("weave complete: %d succeeded, %d adjusted, %d failed (of %d ropes)",
		result.Summary.Succeeded, result.Summary.Adjusted, result.Summary.Failed, count)
	return result, nil
}

// ropeCountForMode computes how many ropes to generate. Full coverage
// tiles the body height with rope layers; pattern-only generates just
// enough ropes to show one full phase cycle.
func ropeCountForMode(params Parameters, full int) int {
	if !params.PatternOnly {
		return full
	}
	deg := params.PhaseOffset.Normalized().Degrees()
	if deg == 0 {
		return 1
	}
	cycle := int(360 / deg)
	if cycle < 1 {
		cycle = 1
	}
	if cycle > full {
		cycle = full
	}
	return cycle
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
