package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tibbisekreter/cli/cmd/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tibbi version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tibbi %s\n", version.FormatForDisplay(version.CurrentVersion))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
