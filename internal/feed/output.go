package feed

import (
	"fmt"
	"os"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

// WriteQueryResult prints ranked candidates to stdout for the shim (or
// the person holding the phone) to act on.
func WriteQueryResult(q behavior.LossQuery, recap string) {
	if len(q.Candidates) == 0 {
		fmt.Printf("No likely spots for %q in the queried window.\n", q.ObjectType)
		return
	}

	fmt.Printf("Where your %s probably is:\n", q.ObjectType)
	for i, c := range q.Candidates {
		name := c.ZoneName
		if name == "" {
			name = c.ZoneID
		}
		fmt.Printf("  %d. %s (%.0f%% likely, %s search)\n", i+1, name, c.Probability*100, c.SearchRadius)
	}
	if recap != "" {
		fmt.Println(recap)
	}
}

// WriteQueryUnavailable tells the user the daemon is not running. Only
// queries get this courtesy; sensor events stay silent.
func WriteQueryUnavailable() {
	fmt.Println("trace daemon is not running; start it with `trace serve`")
}

// ExitError logs to stderr and exits 0 (a feed invocation must never
// crash the sensing pipeline).
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "trace feed: %v\n", err)
	os.Exit(0)
}
