package behavior

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/trace-spatial/trace-app/internal/episode"
)

// Scores is a per-episode behavioral summary, independent of any query.
// All three sub-scores live in [0,1].
type Scores struct {
	CSI       float64 `json:"csi"`
	BLS       float64 `json:"bls"`
	ADS       float64 `json:"ads"`
	Timestamp int64   `json:"timestamp"`
}

// ComputeCSI scores cognitive stability from a disruption window: 1.0
// when nothing interrupted the user, dropping toward 0 as mean severity
// rises.
func ComputeCSI(disruptions []episode.DisruptionEvent) float64 {
	if len(disruptions) == 0 {
		return 1.0
	}
	sev := make([]float64, len(disruptions))
	for i, d := range disruptions {
		sev[i] = d.Severity
	}
	return math.Max(0, 1-stat.Mean(sev, nil))
}

// ComputeBLS scores how likely the user just crossed a zone boundary:
// recency with a 60s half-life, blended with visit frequency capped at
// five visits.
func ComputeBLS(sinceLastTransitionMs int64, transitionCount int) float64 {
	recency := math.Exp(-float64(sinceLastTransitionMs) / 60000.0)
	frequency := math.Min(1, float64(transitionCount)/5.0)
	return math.Min(1, (recency+frequency)/2)
}

// ComputeADS scores attentional disruption: the event's severity, or 0
// when nothing disrupted.
func ComputeADS(d *episode.DisruptionEvent) float64 {
	if d == nil {
		return 0
	}
	return clamp01(d.Severity)
}

// ComputeScores summarizes a whole episode. CSI aggregates every
// disruption; BLS uses time elapsed since the episode ended and the
// total transition count. ADS takes only the first disruption's
// severity; later disruptions influence CSI alone.
func ComputeScores(ep episode.MovementEpisode, now int64) Scores {
	disruptions := ep.Events.Disruptions

	var first *episode.DisruptionEvent
	if len(disruptions) > 0 {
		first = &disruptions[0]
	}

	return Scores{
		CSI:       clamp01(ComputeCSI(disruptions)),
		BLS:       clamp01(ComputeBLS(now-ep.EndTime, len(ep.Events.Transitions))),
		ADS:       ComputeADS(first),
		Timestamp: now,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
