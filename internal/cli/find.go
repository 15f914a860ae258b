package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/trace-spatial/trace-app/internal/behavior"
	"github.com/trace-spatial/trace-app/internal/insight"
)

var findWindowMin int

var findCmd = &cobra.Command{
	Use:   "find <object>",
	Short: "Rank where a lost object probably is",
	Long:  "Rank candidate zones for a lost object against the most recent movement, straight from the local database. Works with or without the daemon running.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findWindowMin, "window", "w", 30, "How many minutes back a zone visit still counts")
}

func runFind(cmd *cobra.Command, args []string) error {
	object := strings.Join(args, " ")

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	g, err := db.LatestGraph()
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	ep, err := db.LatestEpisode()
	if err != nil {
		return fmt.Errorf("load episode: %w", err)
	}
	if g == nil || ep == nil {
		return fmt.Errorf("nothing learned yet: feed some movement first (see `trace feed --help`)")
	}
	priors, err := db.Priors()
	if err != nil {
		return fmt.Errorf("load priors: %w", err)
	}

	now := time.Now().UnixMilli()
	q := behavior.LossQuery{
		ID:         uuid.NewString(),
		ObjectType: object,
		LastSeen:   now,
		TimeWindow: int64(findWindowMin) * 60 * 1000,
		CreatedAt:  now,
		Status:     behavior.StatusPending,
	}
	q.Candidates = behavior.RankCandidates(q, *ep, *g, priors, now)
	q.Status = behavior.StatusComplete

	if err := db.SaveQuery(q); err != nil {
		return fmt.Errorf("save query: %w", err)
	}

	if len(q.Candidates) == 0 {
		fmt.Printf("No likely spots for %q in the last %d minutes. Try a wider --window.\n", object, findWindowMin)
		return nil
	}

	fmt.Printf("Where your %s probably is:\n", object)
	for i, c := range q.Candidates {
		name := c.ZoneName
		if name == "" {
			name = c.ZoneID
		}
		fmt.Printf("%d. %s (%.0f%% likely, %s search)\n", i+1, name, c.Probability*100, c.SearchRadius)

		detail := c.Reasoning.RoutineMatch
		if c.Reasoning.TimeOfDay != "" {
			detail += "; last there " + c.Reasoning.TimeOfDay
		}
		if d := c.Reasoning.Disruption; d != nil {
			detail += fmt.Sprintf("; a %s pulled your attention away", d.Type)
		}
		fmt.Printf("   %s\n", detail)
	}

	scores := behavior.ComputeScores(*ep, now)
	explainer := &insight.TemplateExplainer{}
	if recap, err := explainer.Explain(context.Background(), q, scores); err == nil && recap != nil {
		fmt.Println()
		fmt.Println(recap.Summary)
	}

	return nil
}
