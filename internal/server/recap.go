package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/trace-spatial/trace-app/internal/topology"
)

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	ctx := s.buildRecap(time.Now().UnixMilli())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"context": ctx,
	})
}

// buildRecap creates the where-was-I markdown for assistant injection.
// Zones are ranked by visit signal and capped so the recap stays short
// enough to inject into a prompt.
func (s *Server) buildRecap(now int64) string {
	var b strings.Builder

	b.WriteString("<context>\n## Trace — Spatial Memory\n")

	const maxRecapZones = 10

	if g, ok := s.state.Graph(); ok && g.ZoneCount() > 0 {
		zones := g.Zones(0)
		sort.Slice(zones, func(i, j int) bool {
			return zoneScore(zones[i], now) > zoneScore(zones[j], now)
		})
		if len(zones) > maxRecapZones {
			zones = zones[:maxRecapZones]
		}

		b.WriteString("\n### Familiar Zones\n")
		for _, z := range zones {
			label := z.Label
			if label == "" {
				label = z.ID
			}
			ts := time.UnixMilli(z.LastSeen).Format("2006-01-02 15:04")
			b.WriteString(fmt.Sprintf("- %s (%d visits, last %s)\n", label, z.Frequency, ts))
		}
	}

	if ep, ok := s.state.Episode(); ok && len(ep.Events.Disruptions) > 0 {
		disruptions := ep.Events.Disruptions
		if len(disruptions) > 5 {
			disruptions = disruptions[len(disruptions)-5:]
		}

		b.WriteString("\n### Recent Disruptions\n")
		for i := len(disruptions) - 1; i >= 0; i-- {
			d := disruptions[i]
			ts := time.UnixMilli(d.Timestamp).Format("15:04:05")
			line := fmt.Sprintf("- [%s] %s (severity %.1f)", ts, d.Type, d.Severity)
			if d.Description != "" {
				line += ": " + d.Description
			}
			b.WriteString(line + "\n")
		}
	}

	if queries, err := s.db.RecentQueries(3); err == nil && len(queries) > 0 {
		b.WriteString("\n### Recent Searches\n")
		for _, q := range queries {
			ts := time.UnixMilli(q.CreatedAt).Format("2006-01-02 15:04")
			top := "no candidates"
			if len(q.Candidates) > 0 {
				name := q.Candidates[0].ZoneName
				if name == "" {
					name = q.Candidates[0].ZoneID
				}
				top = "top: " + name
			}
			b.WriteString(fmt.Sprintf("- [%s] %s, %s (%s)\n", ts, q.ObjectType, q.Status, top))
		}
	}

	if scores, err := s.state.Scores(now); err == nil {
		b.WriteString(fmt.Sprintf("\n### Right Now\ncsi %.2f, bls %.2f, ads %.2f\n",
			scores.CSI, scores.BLS, scores.ADS))
	}

	b.WriteString("</context>")
	return b.String()
}

// zoneScore ranks a zone for recap priority. Higher = more worth showing.
// Visit frequency gets diminishing returns, discounted by how long ago
// the zone was last seen (one-day decay scale).
func zoneScore(z topology.Zone, now int64) float64 {
	freqBoost := 1.0
	if z.Frequency > 0 {
		freqBoost = 1.0 + math.Log2(float64(z.Frequency))
	}
	ageMs := float64(now - z.LastSeen)
	if ageMs < 0 {
		ageMs = 0
	}
	recency := math.Exp(-ageMs / float64(24*60*60*1000))
	return freqBoost * recency
}
