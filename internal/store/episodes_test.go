package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/trace-spatial/trace-app/internal/episode"
)

// seedEpisode builds an episode with all three event streams populated.
func seedEpisode(id string, endedAt int64) episode.MovementEpisode {
	return episode.MovementEpisode{
		ID:             id,
		StartTime:      endedAt - 60_000,
		EndTime:        endedAt,
		DurationMs:     60_000,
		StepCount:      42,
		Turns:          3,
		TotalDistanceM: 29.4,
		AverageHeading: 112.5,
		Confidence:     0.85,
		Events: episode.Events{
			Steps: []episode.StepEvent{
				{Timestamp: endedAt - 60_000, Heading: 110, DistanceM: 0.7},
				{Timestamp: endedAt - 59_000, Heading: 115, DistanceM: 0.7},
			},
			Transitions: []episode.ZoneTransition{
				{Timestamp: endedAt - 30_000, FromZoneID: "hallway", ToZoneID: "kitchen", Steps: 12, TurnAngle: 85, DurationMs: 8_000},
			},
			Disruptions: []episode.DisruptionEvent{
				{Timestamp: endedAt - 29_000, Type: episode.DisruptionCall, Severity: 0.8, Description: "incoming call"},
			},
		},
	}
}

func TestSaveEpisodeRoundTrip(t *testing.T) {
	db := testDB(t)
	ep := seedEpisode("ep-001", 1_700_000_000_000)

	if err := db.SaveEpisode(ep); err != nil {
		t.Fatalf("SaveEpisode: %v", err)
	}

	loaded, err := db.GetEpisode("ep-001")
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	if loaded == nil {
		t.Fatal("GetEpisode returned nil for saved episode")
	}

	if diff := cmp.Diff(ep, *loaded); diff != "" {
		t.Errorf("episode differs after round trip (-saved +loaded):\n%s", diff)
	}
}

func TestSaveEpisodeRequiresID(t *testing.T) {
	db := testDB(t)

	if err := db.SaveEpisode(episode.MovementEpisode{}); err == nil {
		t.Error("expected error saving episode without id")
	}
}

func TestSaveEpisodeReplaces(t *testing.T) {
	db := testDB(t)
	ep := seedEpisode("ep-001", 1_700_000_000_000)

	if err := db.SaveEpisode(ep); err != nil {
		t.Fatalf("SaveEpisode: %v", err)
	}

	ep.StepCount = 100
	if err := db.SaveEpisode(ep); err != nil {
		t.Fatalf("SaveEpisode again: %v", err)
	}

	count, err := db.EpisodeCount()
	if err != nil {
		t.Fatalf("EpisodeCount: %v", err)
	}
	if count != 1 {
		t.Errorf("EpisodeCount = %d, want 1", count)
	}

	loaded, _ := db.GetEpisode("ep-001")
	if loaded.StepCount != 100 {
		t.Errorf("StepCount = %d, want 100", loaded.StepCount)
	}
}

func TestGetEpisodeNotFound(t *testing.T) {
	db := testDB(t)

	ep, err := db.GetEpisode("nope")
	if err != nil {
		t.Fatalf("GetEpisode: %v", err)
	}
	if ep != nil {
		t.Errorf("expected nil for missing episode, got %+v", ep)
	}
}

func TestLatestEpisode(t *testing.T) {
	db := testDB(t)

	ep, err := db.LatestEpisode()
	if err != nil {
		t.Fatalf("LatestEpisode: %v", err)
	}
	if ep != nil {
		t.Errorf("expected nil before any save, got %+v", ep)
	}

	db.SaveEpisode(seedEpisode("ep-old", 1_000_000))
	db.SaveEpisode(seedEpisode("ep-new", 2_000_000))

	ep, err = db.LatestEpisode()
	if err != nil {
		t.Fatalf("LatestEpisode: %v", err)
	}
	if ep == nil {
		t.Fatal("LatestEpisode returned nil after saves")
	}
	if ep.ID != "ep-new" {
		t.Errorf("LatestEpisode id = %s, want ep-new", ep.ID)
	}
}

func TestRecentEpisodes(t *testing.T) {
	db := testDB(t)

	db.SaveEpisode(seedEpisode("ep-1", 1_000_000))
	db.SaveEpisode(seedEpisode("ep-2", 2_000_000))
	db.SaveEpisode(seedEpisode("ep-3", 3_000_000))

	episodes, err := db.RecentEpisodes(2)
	if err != nil {
		t.Fatalf("RecentEpisodes: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2", len(episodes))
	}
	if episodes[0].ID != "ep-3" || episodes[1].ID != "ep-2" {
		t.Errorf("order = [%s, %s], want [ep-3, ep-2]", episodes[0].ID, episodes[1].ID)
	}
}
