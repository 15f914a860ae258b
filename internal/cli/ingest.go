package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/topology"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a recorded movement log",
	Long:  "Parse a JSONL movement log, condense it into an episode, and replay its transitions into the zone graph. Batch equivalent of the live feed, for logs recorded while the daemon was down.",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	events, err := episode.ParseFile(args[0])
	if err != nil {
		return err
	}

	ep := episode.Build(events)
	if ep.IsZero() {
		fmt.Printf("No usable events in %s.\n", args[0])
		return nil
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if err := db.SaveEpisode(ep); err != nil {
		return fmt.Errorf("save episode: %w", err)
	}

	fmt.Printf("Ingested episode %s\n", ep.ID)
	fmt.Printf("  %d steps, %d transitions, %d disruptions over %s\n",
		ep.StepCount, len(ep.Events.Transitions), len(ep.Events.Disruptions),
		(time.Duration(ep.DurationMs) * time.Millisecond).Round(time.Second))

	if len(ep.Events.Transitions) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	stored, err := db.LatestGraph()
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	g := topology.New(now)
	if stored != nil {
		g = *stored
	}
	for _, tr := range ep.Events.Transitions {
		g = g.RecordTransition(tr, now)
	}
	if err := db.SaveGraph(g); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	fmt.Printf("  graph: %d zones, %d edges (v%d)\n", g.ZoneCount(), g.EdgeCount(), g.Version)

	return nil
}
