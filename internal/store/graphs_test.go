package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/topology"
)

// seedGraph builds a small learned topology for store tests.
func seedGraph(t *testing.T, now int64) topology.Graph {
	t.Helper()
	g := topology.New(now)
	g = g.AddZone(topology.Zone{
		ID:        "kitchen",
		Label:     "Kitchen",
		Embedding: []float64{0.12, -0.5, 0.88},
		Stability: 0.9,
		LastSeen:  now - 5_000,
		Frequency: 24,
		Notes:     "coffee machine corner",
	}, now)
	g = g.AddZone(topology.Zone{
		ID:        "bedroom",
		Label:     "Bedroom",
		Stability: 0.6,
		LastSeen:  now - 3_600_000,
		Frequency: 9,
	}, now)
	g = g.RecordTransition(episode.ZoneTransition{
		Timestamp:  now - 4_000,
		FromZoneID: "bedroom",
		ToZoneID:   "kitchen",
		Steps:      14,
		TurnAngle:  90,
		DurationMs: 9_000,
	}, now)
	return g
}

func TestSaveGraphRoundTrip(t *testing.T) {
	db := testDB(t)
	now := int64(1_700_000_000_000)
	g := seedGraph(t, now)

	if err := db.SaveGraph(g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	loaded, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if loaded == nil {
		t.Fatal("GetGraph returned nil for saved graph")
	}

	if diff := cmp.Diff(g.Zones(0), loaded.Zones(0)); diff != "" {
		t.Errorf("zones differ after round trip (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(g.Edges(), loaded.Edges()); diff != "" {
		t.Errorf("edges differ after round trip (-saved +loaded):\n%s", diff)
	}
	if loaded.CreatedAt != g.CreatedAt || loaded.UpdatedAt != g.UpdatedAt {
		t.Errorf("timestamps = (%d, %d), want (%d, %d)",
			loaded.CreatedAt, loaded.UpdatedAt, g.CreatedAt, g.UpdatedAt)
	}
	if loaded.Version != g.Version {
		t.Errorf("Version = %d, want %d", loaded.Version, g.Version)
	}
}

func TestSaveGraphEmbeddingBits(t *testing.T) {
	db := testDB(t)
	now := int64(1_700_000_000_000)
	g := seedGraph(t, now)

	if err := db.SaveGraph(g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	loaded, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}

	want, _ := g.Zone("kitchen")
	got, ok := loaded.Zone("kitchen")
	if !ok {
		t.Fatal("kitchen zone missing after round trip")
	}
	if len(got.Embedding) != len(want.Embedding) {
		t.Fatalf("embedding length = %d, want %d", len(got.Embedding), len(want.Embedding))
	}
	for i := range want.Embedding {
		if got.Embedding[i] != want.Embedding[i] {
			t.Errorf("embedding[%d] = %v, want %v (bit-exact)", i, got.Embedding[i], want.Embedding[i])
		}
	}

	// Zone saved without an embedding stays without one.
	bedroom, _ := loaded.Zone("bedroom")
	if bedroom.Embedding != nil {
		t.Errorf("bedroom embedding = %v, want nil", bedroom.Embedding)
	}
}

func TestSaveGraphReplacesWholesale(t *testing.T) {
	db := testDB(t)
	now := int64(1_700_000_000_000)
	g := seedGraph(t, now)

	if err := db.SaveGraph(g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}

	// Update the same graph id through the topology layer and save again.
	g2 := g.ReplaceZone(topology.Zone{
		ID: "kitchen", Label: "Kitchen", Stability: 0.95, LastSeen: now, Frequency: 25,
	}, now+1)

	if err := db.SaveGraph(g2); err != nil {
		t.Fatalf("SaveGraph update: %v", err)
	}

	loaded, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if loaded.ZoneCount() != 2 {
		t.Errorf("ZoneCount = %d, want 2 (no duplicate rows)", loaded.ZoneCount())
	}
	kitchen, _ := loaded.Zone("kitchen")
	if kitchen.Frequency != 25 {
		t.Errorf("kitchen Frequency = %d, want 25", kitchen.Frequency)
	}
	if kitchen.Embedding != nil {
		t.Error("replaced zone should have dropped its embedding")
	}
	if loaded.UpdatedAt != now+1 {
		t.Errorf("UpdatedAt = %d, want %d", loaded.UpdatedAt, now+1)
	}
}

func TestGetGraphNotFound(t *testing.T) {
	db := testDB(t)

	g, err := db.GetGraph("no-such-graph")
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if g != nil {
		t.Errorf("expected nil for missing graph, got %+v", g)
	}
}

func TestLatestGraph(t *testing.T) {
	db := testDB(t)

	// Empty store
	g, err := db.LatestGraph()
	if err != nil {
		t.Fatalf("LatestGraph: %v", err)
	}
	if g != nil {
		t.Errorf("expected nil before any save, got %+v", g)
	}

	old := seedGraph(t, 1_000_000)
	fresh := seedGraph(t, 2_000_000)

	if err := db.SaveGraph(old); err != nil {
		t.Fatalf("SaveGraph old: %v", err)
	}
	if err := db.SaveGraph(fresh); err != nil {
		t.Fatalf("SaveGraph fresh: %v", err)
	}

	g, err = db.LatestGraph()
	if err != nil {
		t.Fatalf("LatestGraph: %v", err)
	}
	if g == nil {
		t.Fatal("LatestGraph returned nil after saves")
	}
	if g.ID != fresh.ID {
		t.Errorf("LatestGraph id = %s, want %s", g.ID, fresh.ID)
	}
}

func TestDeleteGraph(t *testing.T) {
	db := testDB(t)
	g := seedGraph(t, 1_000_000)

	if err := db.SaveGraph(g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	if err := db.DeleteGraph(g.ID); err != nil {
		t.Fatalf("DeleteGraph: %v", err)
	}

	loaded, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if loaded != nil {
		t.Error("graph still present after delete")
	}

	var zones int
	if err := db.QueryRow("SELECT COUNT(*) FROM zones").Scan(&zones); err != nil {
		t.Fatalf("count zones: %v", err)
	}
	if zones != 0 {
		t.Errorf("zone rows after delete = %d, want 0", zones)
	}
}

func TestSaveEmptyGraph(t *testing.T) {
	db := testDB(t)
	g := topology.New(500)

	if err := db.SaveGraph(g); err != nil {
		t.Fatalf("SaveGraph empty: %v", err)
	}

	loaded, err := db.GetGraph(g.ID)
	if err != nil {
		t.Fatalf("GetGraph: %v", err)
	}
	if loaded == nil {
		t.Fatal("empty graph not persisted")
	}
	if loaded.ZoneCount() != 0 || loaded.EdgeCount() != 0 {
		t.Errorf("counts = (%d, %d), want (0, 0)", loaded.ZoneCount(), loaded.EdgeCount())
	}
	if loaded.EstimateHomeSize() != topology.HomeSmall {
		t.Errorf("home size = %s, want small", loaded.EstimateHomeSize())
	}
}
