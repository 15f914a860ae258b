package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "zone graphs: learned topology snapshots",
		SQL: `
CREATE TABLE zone_graphs (
    graph_id       TEXT PRIMARY KEY,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,
    version        INTEGER NOT NULL DEFAULT 1,
    home_size      TEXT NOT NULL CHECK (home_size IN ('small', 'medium', 'large')),
    zone_count     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE zones (
    graph_id       TEXT NOT NULL,
    zone_id        TEXT NOT NULL,
    label          TEXT NOT NULL,
    embedding      BLOB,
    stability      REAL NOT NULL DEFAULT 0,
    last_seen      INTEGER NOT NULL,
    frequency      INTEGER NOT NULL DEFAULT 0,
    notes          TEXT,

    PRIMARY KEY (graph_id, zone_id),
    FOREIGN KEY (graph_id) REFERENCES zone_graphs(graph_id) ON DELETE CASCADE
);

CREATE TABLE zone_edges (
    graph_id           TEXT NOT NULL,
    from_zone          TEXT NOT NULL,
    to_zone            TEXT NOT NULL,
    median_steps       INTEGER NOT NULL DEFAULT 0,
    median_turn_deg    REAL NOT NULL DEFAULT 0,
    median_duration_ms INTEGER NOT NULL DEFAULT 0,
    weight             REAL NOT NULL DEFAULT 0,
    last_used          INTEGER NOT NULL,

    PRIMARY KEY (graph_id, from_zone, to_zone),
    FOREIGN KEY (graph_id) REFERENCES zone_graphs(graph_id) ON DELETE CASCADE
);

CREATE INDEX idx_zones_last_seen  ON zones(last_seen DESC);
CREATE INDEX idx_edges_from       ON zone_edges(graph_id, from_zone);
`,
	},
	{
		Version:     2,
		Description: "episodes: condensed movement windows",
		SQL: `
CREATE TABLE episodes (
    id             INTEGER PRIMARY KEY,
    episode_id     TEXT NOT NULL UNIQUE,
    started_at     INTEGER NOT NULL,
    ended_at       INTEGER NOT NULL,
    duration_ms    INTEGER NOT NULL DEFAULT 0,
    step_count     INTEGER NOT NULL DEFAULT 0,
    turns          INTEGER NOT NULL DEFAULT 0,
    distance_m     REAL NOT NULL DEFAULT 0,
    avg_heading    REAL NOT NULL DEFAULT 0,
    confidence     REAL NOT NULL DEFAULT 0,
    events         TEXT NOT NULL,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_episodes_ended   ON episodes(ended_at DESC);
`,
	},
	{
		Version:     3,
		Description: "loss queries: ranked search history",
		SQL: `
CREATE TABLE loss_queries (
    id             INTEGER PRIMARY KEY,
    query_id       TEXT NOT NULL UNIQUE,
    object_type    TEXT NOT NULL,
    last_seen      INTEGER NOT NULL,
    time_window_ms INTEGER NOT NULL,
    status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'complete')),
    candidates     TEXT,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_queries_created  ON loss_queries(created_at DESC);
`,
	},
	{
		Version:     4,
		Description: "object priors: preferred zone per object type",
		SQL: `
CREATE TABLE object_priors (
    object_type    TEXT PRIMARY KEY,
    zone_label     TEXT NOT NULL,
    updated_at     INTEGER NOT NULL
);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
