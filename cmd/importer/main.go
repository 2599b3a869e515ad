package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"chatbeto.app/archivist/common/id"
	"chatbeto.app/archivist/common/logger"
	"chatbeto.app/archivist/common/otel"
	"chatbeto.app/archivist/core/config"
	"chatbeto.app/archivist/core/db"
	"chatbeto.app/archivist/internal/classifier"
	"chatbeto.app/archivist/internal/importer"
	"chatbeto.app/archivist/internal/store"
)

func main() {
	archiveFlag := flag.String("archive", "", "path to conversations.json (overrides ARCHIVE_PATH)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	runID := uuid.NewString()
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(runID), Component: "importer"})

	archivePath := cfg.Import.ArchivePath
	if *archiveFlag != "" {
		archivePath = *archiveFlag
	}

	slog.InfoContext(ctx, "importer starting",
		"env", cfg.Env,
		"archive", archivePath,
		"workers", cfg.Import.Workers,
		"batch_size", cfg.Import.BatchSize)

	if err := id.Init(3); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	classify, err := classifier.New(cfg.Classifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build classifier", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Pool())
	imp := importer.New(stores, classify, importer.Config{
		BatchSize:      cfg.Import.BatchSize,
		MaxContentLen:  cfg.Import.MaxContentLen,
		Workers:        cfg.Import.Workers,
		RatePerSec:     cfg.Import.RatePerSec,
		SkipEmpty:      cfg.Import.SkipEmpty,
		WriteRelations: cfg.Import.WriteRelations,
		DefaultProject: cfg.Classifier.DefaultProject,
	})

	// First interrupt cancels the run; counters are printed on the way out.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.WarnContext(ctx, "interrupt received, stopping after in-flight conversations")
		cancel()
	}()

	start := time.Now()
	snap, runErr := imp.Run(ctx, archivePath)
	printSummary(snap, time.Since(start))

	if telemetry != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		slog.InfoContext(ctx, "import interrupted, state is resumable", "run_id", runID)
	case runErr != nil:
		slog.ErrorContext(ctx, "import aborted", "error", runErr, "run_id", runID)
		os.Exit(1)
	default:
		slog.InfoContext(ctx, "import complete", "run_id", runID)
	}
}

func printSummary(snap importer.Snapshot, elapsed time.Duration) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Printf("\nImport summary (%s)\n", elapsed.Round(time.Millisecond))
	green.Printf("  conversations imported: %d\n", snap.ConversationsImported)
	fmt.Printf("  conversations skipped:  %d\n", snap.ConversationsSkipped)
	if snap.ConversationsFailed > 0 {
		red.Printf("  conversations failed:   %d\n", snap.ConversationsFailed)
	}
	green.Printf("  messages imported:      %d\n", snap.MessagesImported)
	fmt.Printf("  messages skipped:       %d\n", snap.MessagesSkipped)
	if snap.MessagesFailed > 0 {
		red.Printf("  messages failed:        %d\n", snap.MessagesFailed)
	}
	if snap.MessagesTruncated > 0 {
		yellow.Printf("  messages truncated:     %d\n", snap.MessagesTruncated)
	}
	if snap.MessagesEmptySkipped > 0 {
		fmt.Printf("  empty messages skipped: %d\n", snap.MessagesEmptySkipped)
	}
	if snap.RelationsImported > 0 {
		fmt.Printf("  relations imported:     %d\n", snap.RelationsImported)
	}
}
