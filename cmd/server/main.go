/*
main.go - application entry point. Startup sequence (load config, open
store, wire handler, build router, start server, graceful shutdown on
SIGINT/SIGTERM) follows the teacher's cmd/server/main.go; logging,
config loading and the nightly scheduler are new, generalized from the
teacher's flags-only, ticker-driven setup to the full ambient stack
spec section 6 and 4.8 call for.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/cashflow-engine/api"
	"github.com/warp/cashflow-engine/exportstore"
	"github.com/warp/cashflow-engine/ingest"
	"github.com/warp/cashflow-engine/internal/config"
	"github.com/warp/cashflow-engine/internal/logging"
	"github.com/warp/cashflow-engine/scheduler"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	log := logging.New(cfg.LogFormat, cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	mirror, err := exportstore.NewMirror(context.Background(), cfg.ExportS3Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure export mirror")
	}

	clients := map[string]ingest.Client{}
	if bookkeepingURL := os.Getenv("BOOKKEEPING_API_URL"); bookkeepingURL != "" {
		clients["bookkeeping"] = ingest.NewHTTPClient(bookkeepingURL, os.Getenv("BOOKKEEPING_API_KEY"), log)
	}

	sched := scheduler.New(store, clients, cfg, cfg.AlertThresholds, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	handler := api.NewHandler(store, cfg, log, clients, mirror)
	handler.LastRunInfo = sched.LastRun

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", *port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
