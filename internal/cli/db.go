package cli

import (
	"os"

	"github.com/trace-spatial/trace-app/internal/store"
)

// openDB opens the database for offline CLI commands.
// Respects the TRACE_DB env var, falls back to the default path.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("TRACE_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
