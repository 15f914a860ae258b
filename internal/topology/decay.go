package topology

import "math"

// Stability decay:
//   - 14-day half-life without a visit
//   - Floor: 0.1 (a learned zone is never fully forgotten)
//   - A fresh visit resets stability upstream, which restarts the clock
//   - Runs on server startup + daily via the maintenance timer

// DefaultStabilityHalfLifeMs is two weeks in milliseconds.
const DefaultStabilityHalfLifeMs int64 = 14 * 24 * 60 * 60 * 1000

const stabilityFloor = 0.1

// DecayStability returns a graph whose zone stabilities have been decayed
// by elapsed time since each zone's last visit. Stability only ever
// decreases here and never drops below the floor. Zones visited at or
// after now are left alone.
func (g Graph) DecayStability(now, halfLifeMs int64) Graph {
	if halfLifeMs <= 0 {
		halfLifeMs = DefaultStabilityHalfLifeMs
	}

	changed := false
	out := g.clone()
	for id, z := range out.zones {
		elapsed := now - z.LastSeen
		if elapsed <= 0 {
			continue
		}

		decayed := z.Stability * math.Pow(0.5, float64(elapsed)/float64(halfLifeMs))
		if decayed < stabilityFloor {
			decayed = stabilityFloor
		}
		if decayed >= z.Stability {
			continue
		}

		z.Stability = decayed
		out.zones[id] = z
		changed = true
	}

	if !changed {
		return g
	}
	out.UpdatedAt = now
	out.Version++
	return out
}
