package weave

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Boceto3D/Weave-B3D/pkg/geom"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel/kerneltest"
)

func runParams() Parameters {
	return Parameters{
		WaveCount:   6,
		Amplitude:   1.5,
		PhaseOffset: 120,
		Offset:      0,
		Thickness:   0.8,
		Height:      0.8,
	}
}

func TestRunFullCoverage(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(8, 20, 0) // 8mm tall: 10 layers of 0.8
	o := NewOrchestrator(k)

	res, err := o.Run(context.Background(), body, runParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Ropes) != 10 {
		t.Fatalf("got %d ropes, want 10", len(res.Ropes))
	}
	if res.FullRopeCount != 10 {
		t.Errorf("FullRopeCount = %d, want 10", res.FullRopeCount)
	}
	if res.Summary.Succeeded != 10 || res.Summary.Total() != 10 {
		t.Errorf("Summary = %+v, want 10 succeeded", res.Summary)
	}
	if k.ExtractCalls() != 1 {
		t.Errorf("ExtractCalls = %d, want exactly 1", k.ExtractCalls())
	}
	for i, r := range res.Ropes {
		if r.Index != i {
			t.Errorf("rope %d has Index %d", i, r.Index)
		}
		if r.Body == nil {
			t.Errorf("rope %d has nil Body", i)
		}
	}
}

func TestRunPatternOnly(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(20, 20, 0) // 25 full layers

	t.Run("phase cycle bounds count", func(t *testing.T) {
		params := runParams()
		params.PatternOnly = true
		params.PhaseOffset = 120 // 3 ropes show the full cycle

		res, err := NewOrchestrator(k).Run(context.Background(), body, params)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Ropes) != 3 {
			t.Errorf("got %d ropes, want 3", len(res.Ropes))
		}
		if res.FullRopeCount != 25 {
			t.Errorf("FullRopeCount = %d, want 25", res.FullRopeCount)
		}
	})

	t.Run("zero phase collapses to one rope", func(t *testing.T) {
		params := runParams()
		params.PatternOnly = true
		params.PhaseOffset = 0

		res, err := NewOrchestrator(k).Run(context.Background(), body, params)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Ropes) != 1 {
			t.Errorf("got %d ropes, want 1", len(res.Ropes))
		}
	})

	t.Run("never exceeds full coverage", func(t *testing.T) {
		short := k.Cylinder(1.6, 20, 0) // only 2 layers fit
		params := runParams()
		params.PatternOnly = true
		params.PhaseOffset = 10 // cycle of 36 ropes, capped at 2

		res, err := NewOrchestrator(k).Run(context.Background(), short, params)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Ropes) != 2 {
			t.Errorf("got %d ropes, want 2", len(res.Ropes))
		}
	})
}

func TestRunValidatesBeforeTouchingKernel(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(8, 20, 0)

	tests := []struct {
		name   string
		mutate func(*Parameters)
		field  string
	}{
		{"zero waves", func(p *Parameters) { p.WaveCount = 0 }, "waveCount"},
		{"negative amplitude", func(p *Parameters) { p.Amplitude = -1 }, "amplitude"},
		{"zero thickness", func(p *Parameters) { p.Thickness = 0 }, "thickness"},
		{"zero height", func(p *Parameters) { p.Height = 0 }, "height"},
		{"phase out of range", func(p *Parameters) { p.PhaseOffset = 360 }, "phaseOffsetDeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := runParams()
			tt.mutate(&params)
			_, err := NewOrchestrator(k).Run(context.Background(), body, params)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
	if k.ExtractCalls() != 0 {
		t.Errorf("ExtractCalls = %d, want 0: validation must run before extraction", k.ExtractCalls())
	}
	if k.SweepCalls() != 0 {
		t.Errorf("SweepCalls = %d, want 0", k.SweepCalls())
	}
}

func TestRunRejectsOversizedRopeHeight(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(0.5, 20, 0)
	params := runParams() // height 0.8 > body 0.5

	_, err := NewOrchestrator(k).Run(context.Background(), body, params)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Field != "height" {
		t.Errorf("Field = %q, want \"height\"", verr.Field)
	}
}

func TestRunNilBody(t *testing.T) {
	_, err := NewOrchestrator(kerneltest.New()).Run(context.Background(), nil, runParams())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestRunIsolatesRopeFailures(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(8, 20, 0)

	// Every sweep for the third layer fails regardless of thickness.
	k.SweepErr = func(profile kernel.Profile, path []geom.Vec3) error {
		if len(path) > 0 && path[0].Z == 0.8*2 {
			return errors.New("injected failure")
		}
		return nil
	}

	res, err := NewOrchestrator(k).Run(context.Background(), body, runParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Summary.Failed != 1 || res.Summary.Succeeded != 9 {
		t.Fatalf("Summary = %+v, want 9 succeeded / 1 failed", res.Summary)
	}

	bad := res.Ropes[2]
	if bad.Status != RopeFailed {
		t.Errorf("rope 2 status = %v, want %v", bad.Status, RopeFailed)
	}
	var serr *SweepConstructionError
	if !errors.As(bad.Err, &serr) {
		t.Errorf("rope 2 err = %v, want *SweepConstructionError", bad.Err)
	}
	for i, r := range res.Ropes {
		if i != 2 && r.Status != RopeSucceeded {
			t.Errorf("rope %d status = %v, want %v", i, r.Status, RopeSucceeded)
		}
	}
}

func TestRunProgressReporting(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(8, 20, 0)

	var calls atomic.Int64
	var lastDone atomic.Int64
	o := NewOrchestrator(k)
	o.Progress = func(done, total int) {
		calls.Add(1)
		lastDone.Store(int64(done))
		if total != 10 {
			t.Errorf("total = %d, want 10", total)
		}
	}

	if _, err := o.Run(context.Background(), body, runParams()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 10 {
		t.Errorf("progress called %d times, want 10", calls.Load())
	}
	if lastDone.Load() != 10 {
		t.Errorf("final done = %d, want 10", lastDone.Load())
	}
}

func TestRunCancellation(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(80, 20, 0) // 100 layers

	ctx, cancel := context.WithCancel(context.Background())
	o := NewOrchestrator(k)
	o.Workers = 1
	var seen int
	o.Progress = func(done, total int) {
		seen = done
		if done == 3 {
			cancel()
		}
	}

	res, err := o.Run(ctx, body, runParams())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if seen < 3 {
		t.Fatalf("progress stopped at %d before cancellation point", seen)
	}
	if len(res.Ropes) != 100 {
		t.Fatalf("got %d rope slots, want 100", len(res.Ropes))
	}
	if res.Summary.Failed == 0 {
		t.Error("cancellation produced no failed ropes")
	}
	// Every index is accounted for and unlaunched ropes carry the
	// cancellation cause.
	var cancelled int
	for _, r := range res.Ropes {
		if r.Status == RopeFailed && errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("no rope reports context.Canceled")
	}
	if res.Summary.Total() != 100 {
		t.Errorf("Summary.Total() = %d, want 100", res.Summary.Total())
	}
}

func TestRunAdjustedThicknessSummary(t *testing.T) {
	k := kerneltest.New()
	body := k.Cylinder(8, 20, 0)

	// The requested thickness always fails; the first perturbation
	// succeeds. Every rope should report an adjusted build.
	k.SweepErr = func(profile kernel.Profile, path []geom.Vec3) error {
		if profile.Thickness == 0.8 {
			return errors.New("transient")
		}
		return nil
	}

	res, err := NewOrchestrator(k).Run(context.Background(), body, runParams())
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Adjusted != 10 || res.Summary.Succeeded != 0 {
		t.Fatalf("Summary = %+v, want 10 adjusted", res.Summary)
	}
	for _, r := range res.Ropes {
		if got := r.ActualThickness.Millimeters(); got < 0.71 || got > 0.73 {
			t.Errorf("rope %d ActualThickness = %v, want ~0.72", r.Index, got)
		}
	}
}

func TestRunNeckClampedBody(t *testing.T) {
	// A pinched body: ropes still build, but amplitudes are clamped
	// near the waist and the wave never collides across it.
	k := kerneltest.New()
	body := k.Prism(peanutLoop(20, 1.6, 512), 8)

	params := runParams()
	params.WaveCount = 4
	params.Amplitude = 5

	res, err := NewOrchestrator(k).Run(context.Background(), body, params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Summary.Failed == res.Summary.Total() {
		t.Fatalf("every rope failed on the pinched body: %+v", res.Summary)
	}
}

func TestSelectBody(t *testing.T) {
	k := kerneltest.New()
	a := k.Cylinder(8, 20, 0)
	b := k.Box(10, 10, 10)

	if got, err := SelectBody(a); err != nil || got != a {
		t.Errorf("SelectBody(a) = %v, %v", got, err)
	}
	if _, err := SelectBody(); err == nil {
		t.Error("SelectBody() with no bodies succeeded")
	}
	if _, err := SelectBody(a, b); err == nil {
		t.Error("SelectBody(a, b) succeeded")
	}
	if _, err := SelectBody(nil); err == nil {
		t.Error("SelectBody(nil) succeeded")
	}
}
