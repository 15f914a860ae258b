package behavior

import (
	"fmt"
	"strings"
	"time"

	"github.com/trace-spatial/trace-app/internal/topology"
)

// routineMatch renders a short human-readable account of how routine a
// zone is, from its visit count and stability.
func routineMatch(z topology.Zone) string {
	switch {
	case z.Frequency >= 20 && z.Stability >= 0.7:
		return fmt.Sprintf("strong routine match: %d visits with settled movement patterns", z.Frequency)
	case z.Frequency >= 5:
		return fmt.Sprintf("regular stop: visited %d times", z.Frequency)
	case z.Frequency > 0:
		return fmt.Sprintf("rarely visited: only %d visits so far", z.Frequency)
	default:
		return "no established routine for this zone"
	}
}

// timeOfDay renders a last-seen timestamp as a daypart plus clock time,
// e.g. "afternoon (3:42 PM)".
func timeOfDay(ts int64) string {
	t := time.UnixMilli(ts)
	return fmt.Sprintf("%s (%s)", daypart(t.Hour()), t.Format("3:04 PM"))
}

func daypart(hour int) string {
	switch {
	case hour < 5:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	case hour < 21:
		return "evening"
	default:
		return "night"
	}
}

// labelMatches compares a preferred zone label from an object prior
// against a candidate zone's label. Case-insensitive equality, with a
// bigram overlap fallback so near-identical labels ("bedroom" vs
// "bedrooms") still match.
func labelMatches(want, got string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	got = strings.ToLower(strings.TrimSpace(got))
	if want == "" || got == "" {
		return false
	}
	if want == got {
		return true
	}
	return bigramSimilarity(want, got) > 0.8
}

func bigramSimilarity(a, b string) float64 {
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	shared := 0
	for bg := range bigramsA {
		if bigramsB[bg] {
			shared++
		}
	}

	union := len(bigramsA) + len(bigramsB) - shared
	if union == 0 {
		return 1
	}
	return float64(shared) / float64(union) // Jaccard index
}

func bigrams(s string) map[string]bool {
	if len(s) < 2 {
		return nil
	}
	m := make(map[string]bool, len(s)-1)
	for i := 0; i < len(s)-1; i++ {
		m[s[i:i+2]] = true
	}
	return m
}
