package state

import (
	"errors"
	"sync"

	"github.com/trace-spatial/trace-app/internal/behavior"
	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/topology"
)

// ErrMissingContext is returned when a ranking or scoring call arrives
// before both an episode and a zone graph have been loaded.
var ErrMissingContext = errors.New("no active episode and zone graph loaded")

// Container is the single-writer holder for the live session context:
// the learned graph, the most recent movement episode, and the user's
// object priors. The values it hands out are immutable snapshots, so
// readers never observe a partial update; writes are serialized here so
// the pure packages below need no locks.
//
// Construct one per process (or per test) and inject it; nothing in this
// package is a global.
type Container struct {
	mu         sync.RWMutex
	graph      topology.Graph
	episode    episode.MovementEpisode
	priors     map[string]string
	hasGraph   bool
	hasEpisode bool
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{priors: map[string]string{}}
}

// Init loads persisted session context in one shot. A zero-value episode
// counts as absent so a fresh install starts unranked.
func (c *Container) Init(g topology.Graph, ep episode.MovementEpisode, priors map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.graph = g
	c.hasGraph = true
	c.episode = ep
	c.hasEpisode = !ep.IsZero()
	c.priors = copyPriors(priors)
}

// Reset drops all held context.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.graph = topology.Graph{}
	c.episode = episode.MovementEpisode{}
	c.priors = map[string]string{}
	c.hasGraph = false
	c.hasEpisode = false
}

// Ready reports whether both an episode and a graph are loaded.
func (c *Container) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasGraph && c.hasEpisode
}

// Graph returns the current graph snapshot.
func (c *Container) Graph() (topology.Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph, c.hasGraph
}

// SetGraph swaps in a new graph snapshot.
func (c *Container) SetGraph(g topology.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graph = g
	c.hasGraph = true
}

// Episode returns the active episode.
func (c *Container) Episode() (episode.MovementEpisode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.episode, c.hasEpisode
}

// SetEpisode swaps in the active episode.
func (c *Container) SetEpisode(ep episode.MovementEpisode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.episode = ep
	c.hasEpisode = !ep.IsZero()
}

// Priors returns a copy of the object-prior map.
func (c *Container) Priors() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyPriors(c.priors)
}

// SetPriors replaces the object-prior map.
func (c *Container) SetPriors(p map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priors = copyPriors(p)
}

// SetPrior sets one object-type preference. An empty label removes it.
func (c *Container) SetPrior(objectType, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if label == "" {
		delete(c.priors, objectType)
		return
	}
	c.priors[objectType] = label
}

// ObserveZone records a zone sighting. Unknown ids are added; known ids
// are replaced with refreshed visit bookkeeping (frequency incremented,
// last-seen set to now, non-zero payload fields adopted). Auto-creates
// an empty graph on first contact. Returns the new snapshot.
func (c *Container) ObserveZone(z topology.Zone, now int64) topology.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureGraphLocked(now)

	prev, ok := c.graph.Zone(z.ID)
	if !ok {
		if z.LastSeen == 0 {
			z.LastSeen = now
		}
		if z.Frequency == 0 {
			z.Frequency = 1
		}
		c.graph = c.graph.AddZone(z, now)
		return c.graph
	}

	next := prev
	next.Frequency = prev.Frequency + 1
	next.LastSeen = now
	if z.Label != "" {
		next.Label = z.Label
	}
	if len(z.Embedding) > 0 {
		next.Embedding = z.Embedding
	}
	if z.Stability > 0 {
		next.Stability = z.Stability
	}
	if z.Notes != "" {
		next.Notes = z.Notes
	}
	c.graph = c.graph.ReplaceZone(next, now)
	return c.graph
}

// RecordTransition feeds a transition into the graph, auto-creating an
// empty graph on first contact. Returns the new snapshot.
func (c *Container) RecordTransition(t episode.ZoneTransition, now int64) topology.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureGraphLocked(now)
	c.graph = c.graph.RecordTransition(t, now)
	return c.graph
}

// DecayStability runs the stability maintenance pass. Returns the new
// snapshot and how many zones changed.
func (c *Container) DecayStability(now, halfLifeMs int64) (topology.Graph, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasGraph {
		return topology.Graph{}, 0
	}

	before := c.graph
	c.graph = before.DecayStability(now, halfLifeMs)

	changed := 0
	for _, z := range c.graph.Zones(0) {
		if prev, ok := before.Zone(z.ID); ok && prev.Stability != z.Stability {
			changed++
		}
	}
	return c.graph, changed
}

// Rank runs the candidate pipeline against the held context and returns
// the query with candidates filled and status complete. Returns
// ErrMissingContext when no episode or graph has been loaded; an empty
// (but loaded) graph ranks to an empty candidate list without error.
func (c *Container) Rank(q behavior.LossQuery, now int64) (behavior.LossQuery, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasGraph || !c.hasEpisode {
		return q, ErrMissingContext
	}

	q.Candidates = behavior.RankCandidates(q, c.episode, c.graph, c.priors, now)
	q.Status = behavior.StatusComplete
	return q, nil
}

// Scores computes the behavioral summary of the active episode.
func (c *Container) Scores(now int64) (behavior.Scores, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasEpisode {
		return behavior.Scores{}, ErrMissingContext
	}
	return behavior.ComputeScores(c.episode, now), nil
}

func (c *Container) ensureGraphLocked(now int64) {
	if !c.hasGraph {
		c.graph = topology.New(now)
		c.hasGraph = true
	}
}

func copyPriors(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
