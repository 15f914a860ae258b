package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var zonesMinStability float64

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List learned zones",
	RunE:  runZones,
}

func init() {
	zonesCmd.Flags().Float64Var(&zonesMinStability, "min-stability", 0, "Hide zones below this stability")
}

func runZones(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	g, err := db.LatestGraph()
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	if g == nil || g.ZoneCount() == 0 {
		fmt.Println("No zones learned yet.")
		return nil
	}

	zones := g.Zones(zonesMinStability)
	if len(zones) == 0 {
		fmt.Printf("No zones at or above stability %.2f.\n", zonesMinStability)
		return nil
	}

	fmt.Printf("## Zones (%s home, graph v%d)\n\n", g.EstimateHomeSize(), g.Version)
	for _, z := range zones {
		label := z.Label
		if label == "" {
			label = z.ID
		}
		last := time.UnixMilli(z.LastSeen).Format("2006-01-02 15:04")
		fmt.Printf("  %-20s %3d visits  stability %.2f  last %s\n", label, z.Frequency, z.Stability, last)
		if neighbors := g.Neighbors(z.ID); len(neighbors) > 0 {
			names := make([]string, 0, len(neighbors))
			for _, id := range neighbors {
				if nz, ok := g.Zone(id); ok && nz.Label != "" {
					names = append(names, nz.Label)
					continue
				}
				names = append(names, id)
			}
			fmt.Printf("  %-20s leads to: %s\n", "", strings.Join(names, ", "))
		}
	}

	return nil
}
