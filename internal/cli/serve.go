package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trace-spatial/trace-app/internal/config"
	"github.com/trace-spatial/trace-app/internal/episode"
	"github.com/trace-spatial/trace-app/internal/insight"
	"github.com/trace-spatial/trace-app/internal/server"
	"github.com/trace-spatial/trace-app/internal/state"
	"github.com/trace-spatial/trace-app/internal/store"
	"github.com/trace-spatial/trace-app/internal/topology"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trace daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Load persisted context into the live container
	container := state.NewContainer()
	if err := loadContainer(container, db); err != nil {
		return err
	}

	explainer, err := insight.NewExplainer(cfg.Insight.Explainer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: insight disabled (%v)\n", err)
		explainer = nil
	} else if explainer != nil {
		fmt.Fprintf(os.Stderr, "  insight: %s\n", cfg.Insight.Explainer)
	}

	stopMaintenance := startMaintenance(container, db, cfg.StabilityHalfLifeMs())
	defer stopMaintenance()

	srv := server.New(db, container, explainer, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "trace serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// loadContainer seeds the live container from the store. A fresh install
// has nothing persisted: the container starts with an empty graph and no
// episode, so ranking stays unavailable until movement arrives.
func loadContainer(container *state.Container, db *store.DB) error {
	now := time.Now().UnixMilli()

	graph := topology.New(now)
	g, err := db.LatestGraph()
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	if g != nil {
		graph = *g
	}

	var ep episode.MovementEpisode
	latest, err := db.LatestEpisode()
	if err != nil {
		return fmt.Errorf("load episode: %w", err)
	}
	if latest != nil {
		ep = *latest
	}

	priors, err := db.Priors()
	if err != nil {
		return fmt.Errorf("load priors: %w", err)
	}

	container.Init(graph, ep, priors)
	fmt.Fprintf(os.Stderr, "  zones: %d, edges: %d\n", graph.ZoneCount(), graph.EdgeCount())
	return nil
}

// startMaintenance runs the stability decay pass once at startup and then
// daily, persisting the graph whenever anything changed. The returned
// func stops the ticker.
func startMaintenance(container *state.Container, db *store.DB, halfLifeMs int64) func() {
	run := func() {
		now := time.Now().UnixMilli()
		g, changed := container.DecayStability(now, halfLifeMs)
		if changed == 0 {
			return
		}
		if err := db.SaveGraph(g); err != nil {
			log.Printf("decay save error: %v", err)
			return
		}
		log.Printf("decay: updated %d zones", changed)
	}

	run()

	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				run()
			case <-stopCh:
				return
			}
		}
	}()
	return func() { close(stopCh) }
}
