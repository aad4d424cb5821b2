package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Boceto3D/Weave-B3D/pkg/engine"
	"github.com/Boceto3D/Weave-B3D/pkg/kernel/sdfx"
	"github.com/Boceto3D/Weave-B3D/pkg/logging"
)

var scriptCmd = &cobra.Command{
	Use:   "script FILE",
	Short: "Evaluate a Lisp weave script",
	Long: `Script evaluates a sandboxed Lisp program that builds bodies and runs
weaves against them. Example:

  (def body (cylinder :height 30 :radius 20))
  (def result (weave body :waves 6 :amplitude 1.5 :phase 120
                          :thickness 0.8 :height 0.8))
  (export-stl result "out.stl")`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, args[0])
	},
}

func runScript(cmd *cobra.Command, path string) error {
	logger := logging.GetLogger()

	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := engine.NewEngine(sdfx.New())
	result, evalErrs, err := e.Evaluate(ctx, string(source))
	if err != nil {
		logger.LogError(err)
		return err
	}
	if len(evalErrs) > 0 {
		for _, ee := range evalErrs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, ee.Error())
		}
		return fmt.Errorf("script failed with %d error(s)", len(evalErrs))
	}

	for _, w := range result.Weaves {
		s := w.Summary
		fmt.Fprintf(cmd.OutOrStdout(), "weave: %d ropes (%d ok, %d adjusted, %d failed)\n",
			s.Total(), s.Succeeded, s.Adjusted, s.Failed)
	}
	for _, exp := range result.Exports {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exp)
	}
	return nil
}
