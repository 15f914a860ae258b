package behavior

import (
	"math"
	"sort"

	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/topology"
)

// QueryStatus tracks a loss query's lifecycle. The ranking pipeline
// leaves the transition to complete up to the caller.
type QueryStatus string

const (
	StatusPending  QueryStatus = "pending"
	StatusComplete QueryStatus = "complete"
)

// LossQuery asks where an object was probably left. TimeWindow bounds
// how far back (in ms, before LastSeen) a zone visit still counts.
type LossQuery struct {
	ID         string      `json:"queryId"`
	ObjectType string      `json:"objectType"`
	LastSeen   int64       `json:"lastSeen"`
	TimeWindow int64       `json:"timeWindow"`
	CreatedAt  int64       `json:"createdTime"`
	Candidates []Candidate `json:"candidates"`
	Status     QueryStatus `json:"status"`
}

// SearchRadius tells the user how tightly to search a candidate zone.
type SearchRadius string

const (
	RadiusTight    SearchRadius = "tight"
	RadiusModerate SearchRadius = "moderate"
	RadiusWide     SearchRadius = "wide"
)

// Reasoning explains why a candidate ranked where it did.
type Reasoning struct {
	Disruption   *episode.DisruptionEvent `json:"disruptionEvent,omitempty"`
	RoutineMatch string                   `json:"routineMatch"`
	TimeOfDay    string                   `json:"timeOfDay"`
}

// Candidate is one ranked guess at where the object was left. Built
// fresh per query, never persisted by the ranking pipeline itself.
type Candidate struct {
	ZoneID       string       `json:"zoneId"`
	ZoneName     string       `json:"zoneName"`
	Probability  float64      `json:"probability"`
	Confidence   float64      `json:"confidence"`
	Reasoning    Reasoning    `json:"reasoning"`
	SearchRadius SearchRadius `json:"searchRadius"`
}

// disruptionLookbackMs is how far before a zone's last visit a
// disruption still counts as having happened "there".
const disruptionLookbackMs = 10_000

// Probability weights. Disruption presence dominates, boundary proximity
// is secondary, instability tertiary; they sum to 1.0.
const (
	weightADS         = 0.4
	weightBLS         = 0.35
	weightInstability = 0.25
)

// Object-prior boost applied when the user's stated preference for an
// object type names the candidate's zone.
const (
	priorProbabilityBoost = 1.2
	priorConfidenceBoost  = 1.1
)

// RankCandidates scores every zone visited inside the query window and
// returns them ordered by probability, highest first. Degenerate input
// (empty episode, empty graph) yields an empty result, never an error.
// Tie order among equal probabilities is unspecified.
//
// now must be sampled once by the caller and threaded through so that a
// ranking is reproducible for fixed inputs.
func RankCandidates(query LossQuery, ep episode.MovementEpisode, g topology.Graph, priors map[string]string, now int64) []Candidate {
	if ep.IsZero() || g.ZoneCount() == 0 {
		return nil
	}

	cutoff := query.LastSeen - query.TimeWindow
	var out []Candidate
	for _, z := range g.Zones(0) {
		if z.LastSeen < cutoff {
			continue
		}

		window := disruptionsNear(ep.Events.Disruptions, z.LastSeen)
		csi := ComputeCSI(window)
		bls := ComputeBLS(now-z.LastSeen, z.Frequency)

		var first *episode.DisruptionEvent
		if len(window) > 0 {
			first = &window[0]
		}
		ads := ComputeADS(first)

		probability := weightADS*ads + weightBLS*bls + weightInstability*(1-csi)
		confidence := signalAgreement(csi, bls, ads)

		c := Candidate{
			ZoneID:      z.ID,
			ZoneName:    z.Label,
			Probability: clamp01(probability),
			Confidence:  confidence,
			Reasoning: Reasoning{
				Disruption:   first,
				RoutineMatch: routineMatch(z),
				TimeOfDay:    timeOfDay(z.LastSeen),
			},
			SearchRadius: radiusFor(confidence),
		}

		if label, ok := priors[query.ObjectType]; ok && labelMatches(label, z.Label) {
			c.Probability = math.Min(1, c.Probability*priorProbabilityBoost)
			c.Confidence = math.Min(1, c.Confidence*priorConfidenceBoost)
		}

		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

// disruptionsNear selects disruptions in the ten seconds leading up to
// the anchor time, inclusive on both ends.
func disruptionsNear(all []episode.DisruptionEvent, anchor int64) []episode.DisruptionEvent {
	var out []episode.DisruptionEvent
	for _, d := range all {
		if d.Timestamp >= anchor-disruptionLookbackMs && d.Timestamp <= anchor {
			out = append(out, d)
		}
	}
	return out
}

// signalAgreement counts how many sub-scores point toward "the object is
// here": low stability, high boundary likelihood, meaningful disruption.
// A discrete agreement vote, not a statistical confidence interval.
func signalAgreement(csi, bls, ads float64) float64 {
	agree := 0
	if csi < 0.5 {
		agree++
	}
	if bls > 0.5 {
		agree++
	}
	if ads > 0.3 {
		agree++
	}
	return float64(agree) / 3
}

func radiusFor(confidence float64) SearchRadius {
	switch {
	case confidence > 0.7:
		return RadiusTight
	case confidence < 0.4:
		return RadiusWide
	default:
		return RadiusModerate
	}
}
