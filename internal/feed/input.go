package feed

import (
	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/topology"
)

// FeedInput is the JSON a sensing shim pipes to `trace feed <kind>` on
// stdin. Different kinds populate different subsets.
type FeedInput struct {
	// episode: either a prebuilt episode or raw events to condense
	Episode *episode.MovementEpisode `json:"episode,omitempty"`
	Events  *episode.Events          `json:"events,omitempty"`

	// transition
	Transition *episode.ZoneTransition `json:"transition,omitempty"`

	// zone
	Zone *topology.Zone `json:"zone,omitempty"`

	// query
	Query *QueryInput `json:"query,omitempty"`
}

// QueryInput is the shim-side shape of a loss query. Zero LastSeen means
// "right now"; zero TimeWindowMs takes the daemon default.
type QueryInput struct {
	ObjectType   string `json:"objectType"`
	LastSeen     int64  `json:"lastSeen,omitempty"`
	TimeWindowMs int64  `json:"timeWindowMs,omitempty"`
}

// minFeedSeverity filters disruption noise at the bridge: the inference
// layer emits sub-threshold wobbles constantly and storing them would
// drown the signal the ranking pipeline looks for.
const minFeedSeverity = 0.05

// DropNoise removes disruptions below the feed severity threshold from
// raw events. Prebuilt episodes pass through untouched; the builder
// upstream already made its own call.
func (f *FeedInput) DropNoise() {
	if f.Events == nil {
		return
	}
	kept := f.Events.Disruptions[:0]
	for _, d := range f.Events.Disruptions {
		if d.Severity >= minFeedSeverity {
			kept = append(kept, d)
		}
	}
	f.Events.Disruptions = kept
}
