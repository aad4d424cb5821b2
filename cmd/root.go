// Package cmd implements the command-line surface: generate runs a
// weave directly from flags, script evaluates a Lisp weave script.
package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Woven rope geometry generator",
	Long: `Weave wraps a solid body in layers of sinusoidal rope geometry,
the way basket strands wrap a form. It derives a reference curve from
the body's cross-section, generates phase-shifted wave paths around it,
and sweeps each path into a printable solid.

Available commands:
  generate - Run a weave over a primitive body from flags
  script   - Evaluate a Lisp weave script
  version  - Print the version`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(versionCmd)
}
