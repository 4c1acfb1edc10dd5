package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanifm/pagedown/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pagedown %s (built %s)\n", build.FullVersion(), build.BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
