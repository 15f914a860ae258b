package topology

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/trace-spatial/trace-app/internal/episode"
)

// EntryZoneID is the synthetic origin used for transitions that have no
// recorded source zone (first movement of a session starts "from" here).
const EntryZoneID = "entry"

// initialEdgeWeight is the weight assigned to an edge the first time a
// transition is observed. Repeat observations reinforce it toward 1.0.
const initialEdgeWeight = 0.5

// HomeSize buckets how many distinct zones a graph has learned.
type HomeSize string

const (
	HomeSmall  HomeSize = "small"
	HomeMedium HomeSize = "medium"
	HomeLarge  HomeSize = "large"
)

// Zone is a recognized spatial region. Zones are replaced wholesale on
// update, never patched in place.
type Zone struct {
	ID        string    `json:"zoneId"`
	Label     string    `json:"label"`
	Embedding []float64 `json:"embedding,omitempty"`
	Stability float64   `json:"stability"`
	LastSeen  int64     `json:"lastSeenTime"`
	Frequency int       `json:"frequency"`
	Notes     string    `json:"notes,omitempty"`
}

// Signature summarizes the kinematics of walking an edge.
type Signature struct {
	MedianSteps      int     `json:"medianSteps"`
	MedianTurnAngle  float64 `json:"medianTurnAngle"`
	MedianDurationMs int64   `json:"medianTransitionDurationMs"`
}

// Edge is a directed transition between two zones. from→to and to→from are
// distinct edges; at most one edge exists per ordered pair.
type Edge struct {
	From      string    `json:"fromZoneId"`
	To        string    `json:"toZoneId"`
	Signature Signature `json:"kinematicSignature"`
	Weight    float64   `json:"weight"`
	LastUsed  int64     `json:"lastUsedTime"`
}

// EdgeKey identifies an edge by its ordered endpoints.
type EdgeKey struct {
	From string
	To   string
}

// Graph is a snapshot of the learned zone topology. Every mutating
// operation returns a new Graph and leaves the receiver untouched, so a
// held snapshot never changes under a reader.
//
// Edges are not validated against zones: an edge may reference a zone id
// the graph has never seen. Callers that care resolve ids themselves.
type Graph struct {
	ID        string
	CreatedAt int64
	UpdatedAt int64
	Version   int

	zones map[string]Zone
	edges map[EdgeKey]Edge
}

// New returns an empty graph with a fresh id.
func New(now int64) Graph {
	return Graph{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
		zones:     map[string]Zone{},
		edges:     map[EdgeKey]Edge{},
	}
}

// Restore rebuilds a graph from persisted parts.
func Restore(id string, createdAt, updatedAt int64, version int, zones []Zone, edges []Edge) Graph {
	g := Graph{
		ID:        id,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Version:   version,
		zones:     make(map[string]Zone, len(zones)),
		edges:     make(map[EdgeKey]Edge, len(edges)),
	}
	for _, z := range zones {
		g.zones[z.ID] = z
	}
	for _, e := range edges {
		g.edges[EdgeKey{From: e.From, To: e.To}] = e
	}
	return g
}

// clone copies the zone and edge maps so the returned graph can be
// modified without touching the receiver. Zone values are copied shallowly;
// embeddings are shared but never written through.
func (g Graph) clone() Graph {
	zones := make(map[string]Zone, len(g.zones)+1)
	for id, z := range g.zones {
		zones[id] = z
	}
	edges := make(map[EdgeKey]Edge, len(g.edges)+1)
	for k, e := range g.edges {
		edges[k] = e
	}
	g.zones = zones
	g.edges = edges
	return g
}

// AddZone appends a zone. If the id is already present the graph is
// returned unchanged; adding is idempotent and never fails.
func (g Graph) AddZone(z Zone, now int64) Graph {
	if _, ok := g.zones[z.ID]; ok {
		return g
	}
	out := g.clone()
	out.zones[z.ID] = z
	out.UpdatedAt = now
	out.Version++
	return out
}

// ReplaceZone swaps in a new value for an existing zone id, or adds the
// zone if it was absent. Used when upstream re-recognizes a region with
// updated stability or frequency.
func (g Graph) ReplaceZone(z Zone, now int64) Graph {
	out := g.clone()
	out.zones[z.ID] = z
	out.UpdatedAt = now
	out.Version++
	return out
}

// AddEdge records a directed transition. A first observation is appended
// as given. A repeat observation of the same (from, to) pair merges into
// the existing edge: kinematic fields average, while weight reinforces
// additively (old + 0.1*new, capped at 1.0) so repeated use saturates
// confidence instead of being diluted by one noisy sample, and
// lastUsedTime refreshes to the merge time.
func (g Graph) AddEdge(e Edge, now int64) Graph {
	out := g.clone()
	key := EdgeKey{From: e.From, To: e.To}
	if prev, ok := out.edges[key]; ok {
		e = mergeEdges(prev, e)
		e.LastUsed = now
	}
	out.edges[key] = e
	out.UpdatedAt = now
	out.Version++
	return out
}

func mergeEdges(old, next Edge) Edge {
	merged := old
	merged.Signature = Signature{
		MedianSteps:      int(math.Round(float64(old.Signature.MedianSteps+next.Signature.MedianSteps) / 2)),
		MedianTurnAngle:  (old.Signature.MedianTurnAngle + next.Signature.MedianTurnAngle) / 2,
		MedianDurationMs: int64(math.Round(float64(old.Signature.MedianDurationMs+next.Signature.MedianDurationMs) / 2)),
	}
	merged.Weight = math.Min(1.0, old.Weight+next.Weight*0.1)
	return merged
}

// RecordTransition converts a movement transition into an edge and adds
// it. Transitions with no source zone are attributed to the entry zone.
func (g Graph) RecordTransition(t episode.ZoneTransition, now int64) Graph {
	from := t.FromZoneID
	if from == "" {
		from = EntryZoneID
	}
	return g.AddEdge(Edge{
		From: from,
		To:   t.ToZoneID,
		Signature: Signature{
			MedianSteps:      t.Steps,
			MedianTurnAngle:  t.TurnAngle,
			MedianDurationMs: t.DurationMs,
		},
		Weight:   initialEdgeWeight,
		LastUsed: t.Timestamp,
	}, now)
}

// Zone returns the zone with the given id.
func (g Graph) Zone(id string) (Zone, bool) {
	z, ok := g.zones[id]
	return z, ok
}

// Zones returns zones with stability >= minStability, most frequently
// visited first. Equal frequencies order by id so repeated listings of
// the same graph are identical.
func (g Graph) Zones(minStability float64) []Zone {
	out := make([]Zone, 0, len(g.zones))
	for _, z := range g.zones {
		if z.Stability >= minStability {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Neighbors returns the ids of zones reachable by one edge out of zoneID,
// strongest edge first. Equal weights order by destination id.
func (g Graph) Neighbors(zoneID string) []string {
	var out []Edge
	for key, e := range g.edges {
		if key.From == zoneID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].To < out[j].To
	})
	ids := make([]string, len(out))
	for i, e := range out {
		ids[i] = e.To
	}
	return ids
}

// Edge returns the edge for the ordered (from, to) pair.
func (g Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[EdgeKey{From: from, To: to}]
	return e, ok
}

// Edges returns all edges ordered by (from, to) for stable iteration.
func (g Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// ZoneCount reports how many zones the graph holds.
func (g Graph) ZoneCount() int { return len(g.zones) }

// EdgeCount reports how many edges the graph holds.
func (g Graph) EdgeCount() int { return len(g.edges) }

// EstimateHomeSize buckets the graph by zone count: under 5 zones is
// small, under 15 medium, anything more large. Recomputed on demand
// with no hysteresis.
func (g Graph) EstimateHomeSize() HomeSize {
	switch n := len(g.zones); {
	case n < 5:
		return HomeSmall
	case n < 15:
		return HomeMedium
	default:
		return HomeLarge
	}
}
