package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trace-spatial/trace-app/internal/behavior"
	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/state"
	"github.com/trace-spatial/trace-app/internal/topology"
)

// defaultQueryWindowMs bounds a loss query that arrives without an
// explicit window: the last half hour of zone visits.
const defaultQueryWindowMs = 30 * 60 * 1000

func (s *Server) handleIngestEpisode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Episode *episode.MovementEpisode `json:"episode"`
		Events  *episode.Events          `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	var ep episode.MovementEpisode
	switch {
	case req.Episode != nil && !req.Episode.IsZero():
		ep = episode.Normalize(*req.Episode)
		if ep.ID == "" {
			ep.ID = uuid.NewString()
		}
	case req.Events != nil:
		ep = episode.Build(*req.Events)
		if ep.IsZero() {
			http.Error(w, `{"error":"no events to build an episode from"}`, http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, `{"error":"episode or events required"}`, http.StatusBadRequest)
		return
	}

	if err := s.db.SaveEpisode(ep); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	s.state.SetEpisode(ep)

	now := time.Now().UnixMilli()
	scores, err := s.state.Scores(now)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"episode_id": ep.ID,
		"status":     "ok",
		"scores":     scores,
	})
}

func (s *Server) handleObserveZone(w http.ResponseWriter, r *http.Request) {
	var z topology.Zone
	if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if z.ID == "" {
		http.Error(w, `{"error":"zoneId required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now().UnixMilli()
	g := s.state.ObserveZone(z, now)

	if err := s.db.SaveGraph(g); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"zone_id":       z.ID,
		"zone_count":    g.ZoneCount(),
		"graph_version": g.Version,
	})
}

func (s *Server) handleRecordTransition(w http.ResponseWriter, r *http.Request) {
	var t episode.ZoneTransition
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if t.ToZoneID == "" {
		http.Error(w, `{"error":"toZoneId required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now().UnixMilli()
	if t.Timestamp == 0 {
		t.Timestamp = now
	}
	g := s.state.RecordTransition(t, now)

	if err := s.db.SaveGraph(g); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"edge_count":    g.EdgeCount(),
		"graph_version": g.Version,
	})
}

func (s *Server) handleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ObjectType string `json:"object_type"`
		LastSeen   int64  `json:"last_seen"`
		TimeWindow int64  `json:"time_window_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.ObjectType == "" {
		http.Error(w, `{"error":"object_type required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now().UnixMilli()
	if req.LastSeen == 0 {
		req.LastSeen = now
	}
	if req.TimeWindow <= 0 {
		req.TimeWindow = defaultQueryWindowMs
	}

	q := behavior.LossQuery{
		ID:         uuid.NewString(),
		ObjectType: req.ObjectType,
		LastSeen:   req.LastSeen,
		TimeWindow: req.TimeWindow,
		CreatedAt:  now,
		Status:     behavior.StatusPending,
	}

	ranked, err := s.state.Rank(q, now)
	if err != nil {
		if errors.Is(err, state.ErrMissingContext) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	if err := s.db.SaveQuery(ranked); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"query": ranked}
	if s.explainer != nil {
		scores, scoreErr := s.state.Scores(now)
		if scoreErr == nil {
			if recap, recapErr := s.explainer.Explain(r.Context(), ranked, scores); recapErr != nil {
				log.Printf("recap failed for query %s: %v", ranked.ID, recapErr)
			} else if recap != nil {
				resp["recap"] = recap.Summary
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.state.Graph()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no graph loaded"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"graph_id":   g.ID,
		"version":    g.Version,
		"created_at": g.CreatedAt,
		"updated_at": g.UpdatedAt,
		"home_size":  g.EstimateHomeSize(),
		"zone_count": g.ZoneCount(),
		"edge_count": g.EdgeCount(),
		"zones":      g.Zones(0),
		"edges":      g.Edges(),
	})
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	minStability := 0.0
	if v := r.URL.Query().Get("min_stability"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, `{"error":"min_stability must be a number"}`, http.StatusBadRequest)
			return
		}
		minStability = f
	}

	zones := []topology.Zone{}
	if g, ok := s.state.Graph(); ok {
		zones = g.Zones(minStability)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(zones),
		"zones": zones,
	})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	zoneID := chi.URLParam(r, "zoneID")

	g, ok := s.state.Graph()
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no graph loaded"})
		return
	}

	neighbors := g.Neighbors(zoneID)
	if neighbors == nil {
		neighbors = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"zone_id":   zoneID,
		"count":     len(neighbors),
		"neighbors": neighbors,
	})
}

func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UnixMilli()
	scores, err := s.state.Scores(now)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"scores": scores})
}

func (s *Server) handleRecentQueries(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	queries, err := s.db.RecentQueries(limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if queries == nil {
		queries = []behavior.LossQuery{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(queries),
		"queries": queries,
	})
}

func (s *Server) handleGetPriors(w http.ResponseWriter, r *http.Request) {
	priors, err := s.db.Priors()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"priors": priors})
}

func (s *Server) handlePutPriors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priors map[string]string `json:"priors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Priors == nil {
		http.Error(w, `{"error":"priors required"}`, http.StatusBadRequest)
		return
	}

	if err := s.db.ReplacePriors(req.Priors); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	// Re-read so the live container matches what the store kept.
	priors, err := s.db.Priors()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	s.state.SetPriors(priors)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"count":  len(priors),
	})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UnixMilli()
	g, changed := s.state.DecayStability(now, 0)
	if g.ID == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no graph loaded"})
		return
	}

	if changed > 0 {
		if err := s.db.SaveGraph(g); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"zones_decayed": changed,
		"graph_version": g.Version,
	})
}
