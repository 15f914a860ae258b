package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trace",
	Short: "Spatial memory for misplaced things",
	Long:  "Trace learns the zones you move through and, when something goes missing, ranks where you probably left it. Single Go binary, everything local.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(historyCmd)
}
