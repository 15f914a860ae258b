package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func postJSON(t *testing.T, srv *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

// seedContext posts one kitchen zone and an episode whose disruption
// landed a few seconds ago, so queries have something to rank.
func seedContext(t *testing.T, srv *Server) {
	t.Helper()
	now := time.Now().UnixMilli()

	w := postJSON(t, srv, "POST", "/api/zones", map[string]any{
		"zoneId": "zone-kitchen", "label": "Kitchen", "stability": 0.8,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("seed zone: status = %d; body: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, srv, "POST", "/api/episodes", map[string]any{
		"events": map[string]any{
			"steps": []map[string]any{
				{"timestamp": now - 9000, "heading": 90.0, "distanceM": 0.7},
				{"timestamp": now - 8000, "heading": 92.0, "distanceM": 0.7},
				{"timestamp": now - 7000, "heading": 180.0, "distanceM": 0.7},
			},
			"transitions": []map[string]any{
				{"timestamp": now - 6000, "fromZoneId": "zone-hall", "toZoneId": "zone-kitchen", "steps": 8, "turnAngle": 45.0, "durationMs": 4000},
			},
			"disruptions": []map[string]any{
				{"timestamp": now - 5000, "type": "call", "severity": 0.9},
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed episode: status = %d; body: %s", w.Code, w.Body.String())
	}
}

func TestObserveZone(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/zones", map[string]any{
		"zoneId": "zone-kitchen", "label": "Kitchen",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["zone_count"] != float64(1) {
		t.Errorf("zone_count = %v, want 1", resp["zone_count"])
	}

	// A repeat sighting refreshes, never duplicates.
	w = postJSON(t, srv, "POST", "/api/zones", map[string]any{
		"zoneId": "zone-kitchen", "label": "Kitchen",
	})
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["zone_count"] != float64(1) {
		t.Errorf("zone_count after repeat = %v, want 1", resp["zone_count"])
	}
}

func TestObserveZoneMissingID(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/zones", map[string]any{"label": "Kitchen"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRecordTransition(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/transitions", map[string]any{
		"fromZoneId": "zone-hall", "toZoneId": "zone-kitchen", "steps": 8,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["edge_count"] != float64(1) {
		t.Errorf("edge_count = %v, want 1", resp["edge_count"])
	}
}

func TestRecordTransitionMissingDestination(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/transitions", map[string]any{"fromZoneId": "zone-hall"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRecordTransitionNoSourceUsesEntry(t *testing.T) {
	srv := testServer(t)

	postJSON(t, srv, "POST", "/api/transitions", map[string]any{"toZoneId": "zone-kitchen"})

	w := postJSON(t, srv, "GET", "/api/zones/entry/neighbors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Neighbors []string `json:"neighbors"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Neighbors) != 1 || resp.Neighbors[0] != "zone-kitchen" {
		t.Errorf("neighbors = %v, want [zone-kitchen]", resp.Neighbors)
	}
}

func TestIngestEpisodeFromEvents(t *testing.T) {
	srv := testServer(t)
	now := time.Now().UnixMilli()

	w := postJSON(t, srv, "POST", "/api/episodes", map[string]any{
		"events": map[string]any{
			"steps": []map[string]any{
				{"timestamp": now - 2000, "heading": 90.0, "distanceM": 0.7},
				{"timestamp": now - 1000, "heading": 91.0, "distanceM": 0.7},
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["episode_id"] == "" || resp["episode_id"] == nil {
		t.Error("expected a minted episode_id")
	}
	if resp["scores"] == nil {
		t.Error("expected scores in response")
	}
}

func TestIngestEpisodeFullKeepsID(t *testing.T) {
	srv := testServer(t)
	now := time.Now().UnixMilli()

	w := postJSON(t, srv, "POST", "/api/episodes", map[string]any{
		"episode": map[string]any{
			"episodeId": "ep-42",
			"startTime": now - 60000,
			"endTime":   now,
			"events": map[string]any{
				"steps": []map[string]any{
					{"timestamp": now - 30000, "heading": 10.0, "distanceM": 0.6},
				},
			},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["episode_id"] != "ep-42" {
		t.Errorf("episode_id = %v, want ep-42", resp["episode_id"])
	}
}

func TestIngestEpisodeEmpty(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/episodes", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = postJSON(t, srv, "POST", "/api/episodes", map[string]any{
		"events": map[string]any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty events: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateQueryMissingContext(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/queries", map[string]any{"object_type": "keys"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestCreateQueryMissingObjectType(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/queries", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateQuery(t *testing.T) {
	srv := testServer(t)
	seedContext(t, srv)

	w := postJSON(t, srv, "POST", "/api/queries", map[string]any{"object_type": "keys"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		Query struct {
			ID         string `json:"queryId"`
			Status     string `json:"status"`
			Candidates []struct {
				ZoneID      string  `json:"zoneId"`
				Probability float64 `json:"probability"`
			} `json:"candidates"`
		} `json:"query"`
		Recap string `json:"recap"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if resp.Query.ID == "" {
		t.Error("expected a minted query id")
	}
	if resp.Query.Status != "complete" {
		t.Errorf("status = %q, want complete", resp.Query.Status)
	}
	if len(resp.Query.Candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if resp.Query.Candidates[0].ZoneID != "zone-kitchen" {
		t.Errorf("top candidate = %q, want zone-kitchen", resp.Query.Candidates[0].ZoneID)
	}
	if resp.Recap == "" {
		t.Error("expected a recap")
	}

	// The query lands in history.
	w = postJSON(t, srv, "GET", "/api/queries/recent", nil)
	var recent struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &recent)
	if recent.Count != 1 {
		t.Errorf("recent count = %d, want 1", recent.Count)
	}
}

func TestCreateQueryNoExplainer(t *testing.T) {
	srv := testServer(t)
	srv.explainer = nil
	seedContext(t, srv)

	w := postJSON(t, srv, "POST", "/api/queries", map[string]any{"object_type": "keys"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok := resp["recap"]; ok {
		t.Error("recap should be absent when the explainer is off")
	}
}

func TestGetGraph(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "GET", "/api/graph", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("empty server: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	postJSON(t, srv, "POST", "/api/zones", map[string]any{"zoneId": "zone-kitchen", "label": "Kitchen"})

	w = postJSON(t, srv, "GET", "/api/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["zone_count"] != float64(1) {
		t.Errorf("zone_count = %v, want 1", resp["zone_count"])
	}
	if resp["home_size"] != "small" {
		t.Errorf("home_size = %v, want small", resp["home_size"])
	}
	if resp["graph_id"] == "" {
		t.Error("expected a graph_id")
	}
}

func TestListZonesMinStability(t *testing.T) {
	srv := testServer(t)

	postJSON(t, srv, "POST", "/api/zones", map[string]any{"zoneId": "zone-a", "label": "Kitchen", "stability": 0.9})
	postJSON(t, srv, "POST", "/api/zones", map[string]any{"zoneId": "zone-b", "label": "Hall", "stability": 0.2})

	w := postJSON(t, srv, "GET", "/api/zones?min_stability=0.5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Count int `json:"count"`
		Zones []struct {
			ID string `json:"zoneId"`
		} `json:"zones"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 || len(resp.Zones) != 1 {
		t.Fatalf("count = %d, want 1; body: %s", resp.Count, w.Body.String())
	}
	if resp.Zones[0].ID != "zone-a" {
		t.Errorf("zone = %q, want zone-a", resp.Zones[0].ID)
	}
}

func TestListZonesBadMinStability(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "GET", "/api/zones?min_stability=lots", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestNeighborsOrderedByWeight(t *testing.T) {
	srv := testServer(t)

	postJSON(t, srv, "POST", "/api/transitions", map[string]any{"fromZoneId": "zone-kitchen", "toZoneId": "zone-hall"})
	postJSON(t, srv, "POST", "/api/transitions", map[string]any{"fromZoneId": "zone-kitchen", "toZoneId": "zone-hall"})
	postJSON(t, srv, "POST", "/api/transitions", map[string]any{"fromZoneId": "zone-kitchen", "toZoneId": "zone-bedroom"})

	w := postJSON(t, srv, "GET", "/api/zones/zone-kitchen/neighbors", nil)
	var resp struct {
		Neighbors []string `json:"neighbors"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	want := []string{"zone-hall", "zone-bedroom"}
	if len(resp.Neighbors) != 2 || resp.Neighbors[0] != want[0] || resp.Neighbors[1] != want[1] {
		t.Errorf("neighbors = %v, want %v", resp.Neighbors, want)
	}
}

func TestGetScores(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "GET", "/api/scores", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("no episode: status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	seedContext(t, srv)

	w = postJSON(t, srv, "GET", "/api/scores", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Scores struct {
			CSI float64 `json:"csi"`
			BLS float64 `json:"bls"`
			ADS float64 `json:"ads"`
		} `json:"scores"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Scores.ADS != 0.9 {
		t.Errorf("ads = %v, want 0.9 (first disruption severity)", resp.Scores.ADS)
	}
}

func TestRecentQueriesEmpty(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "GET", "/api/queries/recent", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["count"] != float64(0) {
		t.Errorf("count = %v, want 0", resp["count"])
	}
}

func TestPriorsRoundTrip(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "PUT", "/api/priors", map[string]any{
		"priors": map[string]string{"keys": "Entryway", "wallet": "Bedroom"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	w = postJSON(t, srv, "GET", "/api/priors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Priors map[string]string `json:"priors"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Priors["keys"] != "Entryway" {
		t.Errorf("keys prior = %q, want Entryway", resp.Priors["keys"])
	}
	if len(resp.Priors) != 2 {
		t.Errorf("got %d priors, want 2", len(resp.Priors))
	}
}

func TestPutPriorsMissingBody(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "PUT", "/api/priors", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDecayEndpoint(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "POST", "/api/graph/decay", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("no graph: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// A zone last seen four weeks ago decays; one seen at or after the
	// decay instant is left alone.
	now := time.Now().UnixMilli()
	postJSON(t, srv, "POST", "/api/zones", map[string]any{
		"zoneId": "zone-attic", "label": "Attic", "stability": 0.8, "lastSeenTime": now - 28*24*60*60*1000,
	})
	postJSON(t, srv, "POST", "/api/zones", map[string]any{
		"zoneId": "zone-kitchen", "label": "Kitchen", "stability": 0.8, "lastSeenTime": now + 60000,
	})

	w = postJSON(t, srv, "POST", "/api/graph/decay", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["zones_decayed"] != float64(1) {
		t.Errorf("zones_decayed = %v, want 1", resp["zones_decayed"])
	}
}

func TestGetContextRecap(t *testing.T) {
	srv := testServer(t)

	w := postJSON(t, srv, "GET", "/api/context", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp["context"], "Trace") {
		t.Errorf("context missing header: %s", resp["context"])
	}

	seedContext(t, srv)

	w = postJSON(t, srv, "GET", "/api/context", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp["context"], "Kitchen") {
		t.Errorf("context missing seeded zone: %s", resp["context"])
	}
	if !strings.Contains(resp["context"], "Recent Disruptions") {
		t.Errorf("context missing disruptions section: %s", resp["context"])
	}
	if !strings.Contains(resp["context"], "Right Now") {
		t.Errorf("context missing scores section: %s", resp["context"])
	}
}
