package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent loss queries",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum number of queries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	queries, err := db.RecentQueries(historyLimit)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}
	if len(queries) == 0 {
		fmt.Println("No queries yet.")
		return nil
	}

	for _, q := range queries {
		ts := time.UnixMilli(q.CreatedAt).Format("2006-01-02 15:04")
		fmt.Printf("[%s] %s (%s)\n", ts, q.ObjectType, q.Status)
		for i, c := range q.Candidates {
			if i == 3 {
				fmt.Printf("    ... %d more\n", len(q.Candidates)-3)
				break
			}
			name := c.ZoneName
			if name == "" {
				name = c.ZoneID
			}
			fmt.Printf("    %d. %s (%.0f%%)\n", i+1, name, c.Probability*100)
		}
	}

	return nil
}
