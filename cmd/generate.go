package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel/sdfx"
	"github.com/Boceto3D/Weave-B3D/pkg/logging"
	"github.com/Boceto3D/Weave-B3D/pkg/stl"
	"github.com/Boceto3D/Weave-B3D/pkg/units"
	"github.com/Boceto3D/Weave-B3D/pkg/weave"
)

// generateFlags holds the raw flag values for the generate command.
type generateFlags struct {
	shape      string
	radius     float64
	sizeX      float64
	sizeY      float64
	bodyHeight float64

	waveCount   int
	amplitude   float64
	phase       float64
	offset      float64
	thickness   float64
	ropeHeight  float64
	patternOnly bool
	hugSurface  bool
	workers     int
	output      string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a weave over a primitive body and export STL",
	Long: `Generate builds a primitive input body (cylinder or box), wraps it in
woven rope geometry, and writes the result as binary STL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, genFlags)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.shape, "shape", "cylinder", "input body shape: cylinder or box")
	f.Float64Var(&genFlags.radius, "radius", 20, "cylinder radius in mm")
	f.Float64Var(&genFlags.sizeX, "size-x", 40, "box X size in mm")
	f.Float64Var(&genFlags.sizeY, "size-y", 40, "box Y size in mm")
	f.Float64Var(&genFlags.bodyHeight, "body-height", 30, "input body height in mm")

	f.IntVar(&genFlags.waveCount, "wave-count", 6, "sinusoid periods per rope")
	f.Float64Var(&genFlags.amplitude, "amplitude", 1.5, "wave amplitude in mm")
	f.Float64Var(&genFlags.phase, "phase", 120, "per-rope phase offset in degrees")
	f.Float64Var(&genFlags.offset, "offset", 0, "radial bias in mm, negative is inward")
	f.Float64Var(&genFlags.thickness, "thickness", 0.8, "rope thickness in mm")
	f.Float64Var(&genFlags.ropeHeight, "height", 0.8, "rope height in mm")
	f.BoolVar(&genFlags.patternOnly, "pattern-only", false, "generate one phase cycle instead of full coverage")
	f.BoolVar(&genFlags.hugSurface, "hug-surface", false, "bias ropes inward so crests graze the body surface")
	f.IntVar(&genFlags.workers, "workers", 0, "parallel rope builds, 0 means all CPUs")
	f.StringVarP(&genFlags.output, "output", "o", "weave.stl", "output STL path")
}

// parametersFromFlags maps the generate flags onto run parameters.
func parametersFromFlags(fl generateFlags) weave.Parameters {
	return weave.Parameters{
		WaveCount:   fl.waveCount,
		Amplitude:   units.Length(fl.amplitude),
		PhaseOffset: units.Angle(fl.phase),
		Offset:      units.Length(fl.offset),
		Thickness:   units.Length(fl.thickness),
		Height:      units.Length(fl.ropeHeight),
		PatternOnly: fl.patternOnly,
	}
}

// inputBody constructs the primitive body the flags describe.
func inputBody(k kernel.Kernel, fl generateFlags) (kernel.Solid, error) {
	switch fl.shape {
	case "cylinder":
		return k.Cylinder(fl.bodyHeight, fl.radius, 0), nil
	case "box":
		return k.Box(fl.sizeX, fl.sizeY, fl.bodyHeight), nil
	}
	return nil, fmt.Errorf("unknown shape %q, expected cylinder or box", fl.shape)
}

func runGenerate(cmd *cobra.Command, fl generateFlags) error {
	logger := logging.GetLogger()
	k := sdfx.New()

	shape, err := inputBody(k, fl)
	if err != nil {
		return err
	}
	body, err := weave.SelectBody(shape)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := weave.NewOrchestrator(k)
	o.Workers = fl.workers
	o.HugSurface = fl.hugSurface
	o.Logger = logger.Std()
	o.Progress = func(done, total int) {
		fmt.Fprintf(cmd.OutOrStdout(), "\rrope %d/%d", done, total)
		if done == total {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	result, err := o.Run(ctx, body, parametersFromFlags(fl))
	if err != nil {
		logger.LogError(err)
		return err
	}

	var meshes stl.Meshes
	for _, rope := range result.Ropes {
		if rope.Body == nil {
			logger.Logf("rope %d skipped: %v", rope.Index, rope.Err)
			continue
		}
		m, err := k.ToMesh(rope.Body)
		if err != nil {
			return fmt.Errorf("meshing rope %d: %w", rope.Index, err)
		}
		meshes = append(meshes, m)
	}
	if err := stl.WriteFile(fl.output, meshes); err != nil {
		return err
	}

	s := result.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d ropes (%d ok, %d adjusted, %d failed)\n",
		fl.output, s.Total(), s.Succeeded, s.Adjusted, s.Failed)
	return nil
}
