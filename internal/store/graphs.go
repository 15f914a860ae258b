package store

import (
	"database/sql"
	"fmt"

	"github.com/trace-spatial/trace-app/internal/topology"
)

// SaveGraph persists a graph snapshot. The zone and edge rows for the
// graph are replaced wholesale inside one transaction — the topology layer
// mutates by replacement, so there is no partial update to express. Saving
// the same graph id again overwrites the previous snapshot.
func (db *DB) SaveGraph(g topology.Graph) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin save graph: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO zone_graphs (graph_id, created_at, updated_at, version, home_size, zone_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(graph_id) DO UPDATE SET updated_at = ?, version = ?, home_size = ?, zone_count = ?
	`, g.ID, g.CreatedAt, g.UpdatedAt, g.Version, string(g.EstimateHomeSize()), g.ZoneCount(),
		g.UpdatedAt, g.Version, string(g.EstimateHomeSize()), g.ZoneCount())
	if err != nil {
		return fmt.Errorf("upsert graph %s: %w", g.ID, err)
	}

	if _, err := tx.Exec("DELETE FROM zones WHERE graph_id = ?", g.ID); err != nil {
		return fmt.Errorf("clear zones for %s: %w", g.ID, err)
	}
	if _, err := tx.Exec("DELETE FROM zone_edges WHERE graph_id = ?", g.ID); err != nil {
		return fmt.Errorf("clear edges for %s: %w", g.ID, err)
	}

	for _, z := range g.Zones(0) {
		_, err := tx.Exec(`
			INSERT INTO zones (graph_id, zone_id, label, embedding, stability, last_seen, frequency, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		`, g.ID, z.ID, z.Label, encodeEmbedding(z.Embedding), z.Stability, z.LastSeen, z.Frequency, z.Notes)
		if err != nil {
			return fmt.Errorf("insert zone %s: %w", z.ID, err)
		}
	}

	for _, e := range g.Edges() {
		_, err := tx.Exec(`
			INSERT INTO zone_edges (graph_id, from_zone, to_zone, median_steps, median_turn_deg, median_duration_ms, weight, last_used)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, g.ID, e.From, e.To, e.Signature.MedianSteps, e.Signature.MedianTurnAngle, e.Signature.MedianDurationMs, e.Weight, e.LastUsed)
		if err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save graph: %w", err)
	}
	return nil
}

// GetGraph loads a graph snapshot by id, or nil if not found.
func (db *DB) GetGraph(graphID string) (*topology.Graph, error) {
	var createdAt, updatedAt int64
	var version int
	err := db.QueryRow(`
		SELECT created_at, updated_at, version
		FROM zone_graphs WHERE graph_id = ?
	`, graphID).Scan(&createdAt, &updatedAt, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get graph %s: %w", graphID, err)
	}

	zones, err := db.graphZones(graphID)
	if err != nil {
		return nil, err
	}
	edges, err := db.graphEdges(graphID)
	if err != nil {
		return nil, err
	}

	g := topology.Restore(graphID, createdAt, updatedAt, version, zones, edges)
	return &g, nil
}

// LatestGraph loads the most recently updated graph snapshot, or nil when
// nothing has been learned yet.
func (db *DB) LatestGraph() (*topology.Graph, error) {
	var graphID string
	err := db.QueryRow(`
		SELECT graph_id FROM zone_graphs ORDER BY updated_at DESC, graph_id LIMIT 1
	`).Scan(&graphID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest graph: %w", err)
	}
	return db.GetGraph(graphID)
}

// DeleteGraph removes a graph snapshot; zone and edge rows cascade.
func (db *DB) DeleteGraph(graphID string) error {
	_, err := db.Exec("DELETE FROM zone_graphs WHERE graph_id = ?", graphID)
	if err != nil {
		return fmt.Errorf("delete graph %s: %w", graphID, err)
	}
	return nil
}

func (db *DB) graphZones(graphID string) ([]topology.Zone, error) {
	rows, err := db.Query(`
		SELECT zone_id, label, embedding, stability, last_seen, frequency, notes
		FROM zones WHERE graph_id = ?
	`, graphID)
	if err != nil {
		return nil, fmt.Errorf("query zones for %s: %w", graphID, err)
	}
	defer rows.Close()

	var zones []topology.Zone
	for rows.Next() {
		var z topology.Zone
		var embedding []byte
		var notes sql.NullString
		if err := rows.Scan(&z.ID, &z.Label, &embedding, &z.Stability, &z.LastSeen, &z.Frequency, &notes); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Embedding = decodeEmbedding(embedding)
		z.Notes = notes.String
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (db *DB) graphEdges(graphID string) ([]topology.Edge, error) {
	rows, err := db.Query(`
		SELECT from_zone, to_zone, median_steps, median_turn_deg, median_duration_ms, weight, last_used
		FROM zone_edges WHERE graph_id = ?
	`, graphID)
	if err != nil {
		return nil, fmt.Errorf("query edges for %s: %w", graphID, err)
	}
	defer rows.Close()

	var edges []topology.Edge
	for rows.Next() {
		var e topology.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Signature.MedianSteps, &e.Signature.MedianTurnAngle, &e.Signature.MedianDurationMs, &e.Weight, &e.LastUsed); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
