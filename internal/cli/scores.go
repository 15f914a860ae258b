package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show behavioral scores for the latest episode",
	RunE:  runScores,
}

func runScores(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ep, err := db.LatestEpisode()
	if err != nil {
		return fmt.Errorf("load episode: %w", err)
	}
	if ep == nil {
		fmt.Println("No episodes recorded yet.")
		return nil
	}

	now := time.Now().UnixMilli()
	s := behavior.ComputeScores(*ep, now)

	started := time.UnixMilli(ep.StartTime).Format("2006-01-02 15:04")
	fmt.Printf("Episode %s (%s, %d steps, %d disruptions)\n",
		ep.ID, started, ep.StepCount, len(ep.Events.Disruptions))
	fmt.Printf("  csi %.2f  cognitive stability\n", s.CSI)
	fmt.Printf("  bls %.2f  boundary likelihood\n", s.BLS)
	fmt.Printf("  ads %.2f  attentional disruption\n", s.ADS)

	return nil
}
