package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at build time with
// -ldflags "-X github.com/Boceto3D/Weave-B3D/cmd.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "weave", version)
	},
}
