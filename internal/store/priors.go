package store

import (
	"fmt"
	"strings"
	"time"
)

// textNearIdentical returns true if two strings are >95% similar by character overlap.
// Uses a simple normalized edit-distance-like metric: shared bigram ratio.
// This is intentionally cheap — no embeddings needed at the store layer.
func textNearIdentical(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}

	// Bigram overlap as a quick similarity proxy
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return a == b
	}

	shared := 0
	for bg := range bigramsA {
		if bigramsB[bg] {
			shared++
		}
	}

	union := len(bigramsA) + len(bigramsB) - shared
	if union == 0 {
		return true
	}

	similarity := float64(shared) / float64(union) // Jaccard index
	return similarity > 0.95
}

func bigrams(s string) map[string]bool {
	if len(s) < 2 {
		return nil
	}
	m := make(map[string]bool, len(s)-1)
	for i := 0; i < len(s)-1; i++ {
		m[s[i:i+2]] = true
	}
	return m
}

// SetPrior stores the preferred zone label for an object type. An empty
// label removes the prior. Writes that would only re-state a near-identical
// label are skipped so repeated syncs from the app don't churn updated_at.
func (db *DB) SetPrior(objectType, zoneLabel string) error {
	if objectType == "" {
		return fmt.Errorf("set prior: missing object type")
	}
	if zoneLabel == "" {
		_, err := db.Exec("DELETE FROM object_priors WHERE object_type = ?", objectType)
		if err != nil {
			return fmt.Errorf("delete prior %s: %w", objectType, err)
		}
		return nil
	}

	var existing string
	err := db.QueryRow("SELECT zone_label FROM object_priors WHERE object_type = ?", objectType).Scan(&existing)
	if err == nil && textNearIdentical(existing, zoneLabel) {
		return nil
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO object_priors (object_type, zone_label, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(object_type) DO UPDATE SET zone_label = ?, updated_at = ?
	`, objectType, zoneLabel, now, zoneLabel, now)
	if err != nil {
		return fmt.Errorf("set prior %s: %w", objectType, err)
	}
	return nil
}

// ReplacePriors swaps the whole prior map in one transaction.
func (db *DB) ReplacePriors(priors map[string]string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace priors: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM object_priors"); err != nil {
		return fmt.Errorf("clear priors: %w", err)
	}

	now := time.Now().UnixMilli()
	for objectType, label := range priors {
		if objectType == "" || label == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO object_priors (object_type, zone_label, updated_at) VALUES (?, ?, ?)
		`, objectType, label, now); err != nil {
			return fmt.Errorf("insert prior %s: %w", objectType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace priors: %w", err)
	}
	return nil
}

// Priors returns the full object-type → zone-label map.
func (db *DB) Priors() (map[string]string, error) {
	rows, err := db.Query("SELECT object_type, zone_label FROM object_priors")
	if err != nil {
		return nil, fmt.Errorf("query priors: %w", err)
	}
	defer rows.Close()

	priors := make(map[string]string)
	for rows.Next() {
		var objectType, label string
		if err := rows.Scan(&objectType, &label); err != nil {
			return nil, fmt.Errorf("scan prior: %w", err)
		}
		priors[objectType] = label
	}
	return priors, rows.Err()
}
