package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/paceline/internal/config"
	"github.com/meltforce/paceline/internal/importer"
	"github.com/meltforce/paceline/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	libraryPath := flag.String("path", "", "path to workout library directory (required)")
	stateDir := flag.String("state-dir", ".paceline-import", "directory for the incremental-import state database")
	noState := flag.Bool("no-state", false, "process every file, ignoring the state database")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *libraryPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: paceline-import -config config.yaml -path /path/to/workouts [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Verify library directory exists
	info, err := os.Stat(*libraryPath)
	if err != nil || !info.IsDir() {
		log.Error("library path does not exist or is not a directory", "path", *libraryPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Open incremental-import state
	var state *importer.StateDB
	if !*noState {
		state, err = importer.OpenStateDB(*stateDir)
		if err != nil {
			log.Error("failed to open state db", "error", err)
			os.Exit(1)
		}
		defer state.Close()
	}

	// Run import
	imp := importer.New(db, state, log, *dryRun)
	stats, err := imp.Import(ctx, *libraryPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"workouts_imported", stats.WorkoutsImported,
		"workouts_empty", stats.WorkoutsEmpty,
	)
	if len(stats.EmptyNames) > 0 {
		log.Info("files with no usable structure", "files", stats.EmptyNames)
	}
}
