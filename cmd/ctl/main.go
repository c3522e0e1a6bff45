/*
main.go - ctl CLI entrypoint: ingest, categories sync, reconcile, and db
migrate/reset subcommands (spec section 6). Subcommand dispatch uses one
flag.FlagSet per verb, the standard library's own recommended pattern,
matching the teacher's flag-only cmd/server/main.go rather than a CLI
framework nothing else in the pack pulls in for this teacher.

Exit codes: 0 success, 1 usage/validation error, 2 upstream/store failure.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/core"
	"github.com/warp/cashflow-engine/ingest"
	"github.com/warp/cashflow-engine/internal/config"
	"github.com/warp/cashflow-engine/internal/logging"
	"github.com/warp/cashflow-engine/scheduler"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "ingest":
		runErr = cmdIngest(ctx, cfg, log, os.Args[2:])
	case "categories":
		runErr = cmdCategories(ctx, cfg, log, os.Args[2:])
	case "reconcile":
		runErr = cmdReconcile(ctx, cfg, log)
	case "db":
		runErr = cmdDB(ctx, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if runErr == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", runErr)
	if core.IsClientError(runErr) {
		os.Exit(1)
	}
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  ctl ingest <source> --delta | --backfill --months N | --from-csv PATH
  ctl categories sync-<source>
  ctl reconcile
  ctl db migrate
  ctl db reset [--no-populate] [--delta|--backfill --months N] [--force]`)
}

func openStore(cfg config.Config) (*sqlite.Store, error) {
	return sqlite.New(cfg.DBPath)
}

func clientFor(source string, log zerolog.Logger) (ingest.Client, error) {
	url := os.Getenv(envUpper(source) + "_API_URL")
	if url == "" {
		return nil, core.NewValidationError("source", "no API URL configured for source "+source)
	}
	return ingest.NewHTTPClient(url, os.Getenv(envUpper(source)+"_API_KEY"), log), nil
}

func envUpper(source string) string { return strings.ToUpper(source) }

func cmdIngest(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	if len(args) < 1 {
		return core.NewValidationError("source", "ctl ingest requires a source name")
	}
	source := args[0]
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	delta := fs.Bool("delta", false, "fetch since the stored cursor")
	backfill := fs.Bool("backfill", false, "fetch a fixed historical window")
	months := fs.Int("months", 12, "months of history for --backfill")
	fromCSV := fs.String("from-csv", "", "path to a CSV file, instead of calling the upstream API")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var client ingest.Client
	if *fromCSV == "" {
		client, err = clientFor(source, log)
		if err != nil {
			return err
		}
	}
	ingestor := ingest.NewIngestor(store, client, log)

	var audit core.IngestAudit
	switch {
	case *fromCSV != "":
		f, err := os.Open(*fromCSV)
		if err != nil {
			return err
		}
		defer f.Close()
		audit, err = ingestor.RunFromCSV(ctx, source, f)
		if err != nil {
			return err
		}
	case *backfill:
		audit, err = ingestor.RunBackfill(ctx, source, *months)
		if err != nil {
			return err
		}
	case *delta:
		audit, err = ingestor.RunDelta(ctx, source)
		if err != nil {
			return err
		}
	default:
		return core.NewValidationError("mode", "specify one of --delta, --backfill, or --from-csv")
	}

	fmt.Printf("ingest complete: source=%s status=%s rows_upserted=%d\n", audit.Source, audit.Status, audit.RowsUpserted)
	return nil
}

func cmdCategories(ctx context.Context, cfg config.Config, log zerolog.Logger, args []string) error {
	if len(args) < 1 || !strings.HasPrefix(args[0], "sync-") {
		return core.NewValidationError("verb", "ctl categories sync-<source>")
	}
	source := strings.TrimPrefix(args[0], "sync-")

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := clientFor(source, log)
	if err != nil {
		return err
	}
	external, err := client.FetchCategories(ctx)
	if err != nil {
		return err
	}

	mapper := ingest.NewMapper(store, log)
	mapped, unchanged, err := mapper.SyncCategories(ctx, source, external)
	if err != nil {
		return err
	}
	fmt.Printf("categories synced: source=%s mapped=%d unchanged=%d\n", source, mapped, unchanged)
	return nil
}

func cmdReconcile(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	clients := map[string]ingest.Client{}
	sched := scheduler.New(store, clients, cfg, cfg.AlertThresholds, log)
	if err := sched.RunNow(ctx); err != nil {
		return err
	}
	fmt.Println("reconcile complete")
	return nil
}

func cmdDB(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) < 1 {
		return core.NewValidationError("verb", "ctl db migrate|reset")
	}
	switch args[0] {
	case "migrate":
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Println("migration complete")
		return nil
	case "reset":
		return cmdDBReset(ctx, cfg, args[1:])
	default:
		return core.NewValidationError("verb", "ctl db migrate|reset")
	}
}

func cmdDBReset(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("db reset", flag.ContinueOnError)
	noPopulate := fs.Bool("no-populate", false, "leave the schema empty after reset")
	delta := fs.Bool("delta", false, "re-seed via a delta ingest after reset")
	backfill := fs.Bool("backfill", false, "re-seed via a backfill ingest after reset")
	months := fs.Int("months", 12, "months of history for --backfill")
	force := fs.Bool("force", false, "required to delete an existing database file")
	source := fs.String("source", "bookkeeping", "upstream source to re-seed from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.DBPath != ":memory:" {
		if _, err := os.Stat(cfg.DBPath); err == nil {
			if !*force {
				return core.NewValidationError("force", "db reset requires --force to delete "+cfg.DBPath)
			}
			if err := os.Remove(cfg.DBPath); err != nil {
				return err
			}
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if *noPopulate || (!*delta && !*backfill) {
		fmt.Println("db reset complete (empty schema)")
		return nil
	}

	log := logging.New(cfg.LogFormat, cfg.LogLevel)
	client, err := clientFor(*source, log)
	if err != nil {
		return err
	}
	ingestor := ingest.NewIngestor(store, client, log)

	var audit core.IngestAudit
	if *backfill {
		audit, err = ingestor.RunBackfill(ctx, *source, *months)
	} else {
		audit, err = ingestor.RunDelta(ctx, *source)
	}
	if err != nil {
		return err
	}
	fmt.Printf("db reset complete, re-seeded: rows_upserted=%d\n", audit.RowsUpserted)
	return nil
}
