package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trace-spatial/trace-app/internal/behavior"
)

// maxStoredCandidates caps how many ranked candidates are kept per query.
// The tail of a long ranking is noise; history exists to answer "what did
// I search for and where did it point me".
const maxStoredCandidates = 10

// SaveQuery records a loss query and its outcome. Candidates are stored
// as a JSON column, truncated to the top results. Saving the same query
// id again replaces the row, which is how a pending query becomes
// complete.
func (db *DB) SaveQuery(q behavior.LossQuery) error {
	if q.ID == "" {
		return fmt.Errorf("save query: missing query id")
	}
	status := q.Status
	if status == "" {
		status = behavior.StatusPending
	}

	candidates := q.Candidates
	if len(candidates) > maxStoredCandidates {
		candidates = candidates[:maxStoredCandidates]
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates for %s: %w", q.ID, err)
	}

	createdAt := q.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	_, err = db.Exec(`
		INSERT INTO loss_queries (query_id, object_type, last_seen, time_window_ms, status, candidates, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_id) DO UPDATE SET
			object_type = excluded.object_type, last_seen = excluded.last_seen,
			time_window_ms = excluded.time_window_ms, status = excluded.status,
			candidates = excluded.candidates
	`, q.ID, q.ObjectType, q.LastSeen, q.TimeWindow, string(status), string(payload), createdAt)
	if err != nil {
		return fmt.Errorf("save query %s: %w", q.ID, err)
	}
	return nil
}

// GetQuery returns a stored loss query by id, or nil if not found.
func (db *DB) GetQuery(queryID string) (*behavior.LossQuery, error) {
	row := db.QueryRow(`
		SELECT query_id, object_type, last_seen, time_window_ms, status, candidates, created_at
		FROM loss_queries WHERE query_id = ?
	`, queryID)

	q, err := scanQuery(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get query %s: %w", queryID, err)
	}
	return q, nil
}

// RecentQueries returns the most recent loss queries, newest first.
func (db *DB) RecentQueries(limit int) ([]behavior.LossQuery, error) {
	rows, err := db.Query(`
		SELECT query_id, object_type, last_seen, time_window_ms, status, candidates, created_at
		FROM loss_queries ORDER BY created_at DESC, query_id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent queries: %w", err)
	}
	defer rows.Close()

	var queries []behavior.LossQuery
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		queries = append(queries, *q)
	}
	return queries, rows.Err()
}

// QueryCount returns how many loss queries are stored.
func (db *DB) QueryCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM loss_queries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count queries: %w", err)
	}
	return count, nil
}

func scanQuery(row rowScanner) (*behavior.LossQuery, error) {
	var q behavior.LossQuery
	var status string
	var candidates sql.NullString
	err := row.Scan(&q.ID, &q.ObjectType, &q.LastSeen, &q.TimeWindow, &status, &candidates, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = behavior.QueryStatus(status)
	if candidates.Valid && candidates.String != "" {
		if err := json.Unmarshal([]byte(candidates.String), &q.Candidates); err != nil {
			return nil, fmt.Errorf("unmarshal candidates for %s: %w", q.ID, err)
		}
	}
	return &q, nil
}
