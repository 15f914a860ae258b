package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trace-spatial/trace-app/internal/episode"
)

// SaveEpisode stores a condensed movement window. The event streams are
// serialized as a JSON column; the scalar aggregates get their own columns
// so recency listings don't have to parse payloads. Saving an episode id
// again replaces the previous row.
func (db *DB) SaveEpisode(ep episode.MovementEpisode) error {
	if ep.ID == "" {
		return fmt.Errorf("save episode: missing episode id")
	}

	events, err := json.Marshal(ep.Events)
	if err != nil {
		return fmt.Errorf("marshal events for %s: %w", ep.ID, err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO episodes (episode_id, started_at, ended_at, duration_ms, step_count, turns, distance_m, avg_heading, confidence, events, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(episode_id) DO UPDATE SET
			started_at = excluded.started_at, ended_at = excluded.ended_at,
			duration_ms = excluded.duration_ms, step_count = excluded.step_count,
			turns = excluded.turns, distance_m = excluded.distance_m,
			avg_heading = excluded.avg_heading, confidence = excluded.confidence,
			events = excluded.events
	`, ep.ID, ep.StartTime, ep.EndTime, ep.DurationMs, ep.StepCount, ep.Turns,
		ep.TotalDistanceM, ep.AverageHeading, ep.Confidence, string(events), now)
	if err != nil {
		return fmt.Errorf("save episode %s: %w", ep.ID, err)
	}
	return nil
}

// GetEpisode returns an episode by id, or nil if not found.
func (db *DB) GetEpisode(episodeID string) (*episode.MovementEpisode, error) {
	row := db.QueryRow(`
		SELECT episode_id, started_at, ended_at, duration_ms, step_count, turns, distance_m, avg_heading, confidence, events
		FROM episodes WHERE episode_id = ?
	`, episodeID)

	ep, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode %s: %w", episodeID, err)
	}
	return ep, nil
}

// LatestEpisode returns the episode with the most recent end time, or nil
// when no movement has been recorded yet.
func (db *DB) LatestEpisode() (*episode.MovementEpisode, error) {
	row := db.QueryRow(`
		SELECT episode_id, started_at, ended_at, duration_ms, step_count, turns, distance_m, avg_heading, confidence, events
		FROM episodes ORDER BY ended_at DESC, episode_id LIMIT 1
	`)

	ep, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest episode: %w", err)
	}
	return ep, nil
}

// RecentEpisodes returns the most recent episodes, newest first.
func (db *DB) RecentEpisodes(limit int) ([]episode.MovementEpisode, error) {
	rows, err := db.Query(`
		SELECT episode_id, started_at, ended_at, duration_ms, step_count, turns, distance_m, avg_heading, confidence, events
		FROM episodes ORDER BY ended_at DESC, episode_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent episodes: %w", err)
	}
	defer rows.Close()

	var episodes []episode.MovementEpisode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	return episodes, rows.Err()
}

// EpisodeCount returns how many episodes are stored.
func (db *DB) EpisodeCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM episodes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count episodes: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (*episode.MovementEpisode, error) {
	var ep episode.MovementEpisode
	var events string
	err := row.Scan(&ep.ID, &ep.StartTime, &ep.EndTime, &ep.DurationMs, &ep.StepCount,
		&ep.Turns, &ep.TotalDistanceM, &ep.AverageHeading, &ep.Confidence, &events)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(events), &ep.Events); err != nil {
		return nil, fmt.Errorf("unmarshal events for %s: %w", ep.ID, err)
	}
	return &ep, nil
}
