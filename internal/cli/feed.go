package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/trace-spatial/trace-app/internal/feed"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Relay sensing events from stdin to the daemon",
	Long:  "Reads one JSON payload from stdin and relays it to the trace daemon. Meant to be invoked by the sensing shim; degrades silently when the daemon is down.",
}

var feedEpisodeCmd = &cobra.Command{
	Use:   "episode",
	Short: "Relay a movement episode (or raw events)",
	Run: func(cmd *cobra.Command, args []string) {
		feed.Handle("episode", os.Stdin)
	},
}

var feedTransitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "Relay a zone transition",
	Run: func(cmd *cobra.Command, args []string) {
		feed.Handle("transition", os.Stdin)
	},
}

var feedZoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Relay a zone sighting",
	Run: func(cmd *cobra.Command, args []string) {
		feed.Handle("zone", os.Stdin)
	},
}

var feedQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Relay a loss query and print the ranked answer",
	Run: func(cmd *cobra.Command, args []string) {
		feed.Handle("query", os.Stdin)
	},
}

func init() {
	feedCmd.AddCommand(feedEpisodeCmd)
	feedCmd.AddCommand(feedTransitionCmd)
	feedCmd.AddCommand(feedZoneCmd)
	feedCmd.AddCommand(feedQueryCmd)
}
