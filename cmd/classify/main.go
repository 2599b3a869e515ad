// Back-fill job: assign a project to every conversation that was imported
// without one. Safe to run repeatedly; already-assigned conversations are
// never touched.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"chatbeto.app/archivist/common/id"
	"chatbeto.app/archivist/common/logger"
	"chatbeto.app/archivist/common/otel"
	"chatbeto.app/archivist/core/config"
	"chatbeto.app/archivist/core/db"
	"chatbeto.app/archivist/internal/classifier"
	"chatbeto.app/archivist/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	runID := uuid.NewString()
	ctx = logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(runID), Component: "classify"})

	slog.InfoContext(ctx, "classify job starting", "env", cfg.Env, "provider", cfg.Classifier.Provider)

	if err := id.Init(4); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	classify, err := classifier.New(cfg.Classifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build classifier", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.WarnContext(ctx, "interrupt received, stopping")
		cancel()
	}()

	stores := store.NewStores(database.Pool())
	assigned, failed, runErr := run(ctx, stores, classify, cfg.Classifier.DefaultProject)

	bold := color.New(color.Bold)
	bold.Printf("\nClassify summary\n")
	color.Green("  conversations assigned: %d", assigned)
	if failed > 0 {
		color.Red("  conversations failed:   %d", failed)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		slog.InfoContext(ctx, "classify job interrupted", "assigned", assigned, "failed", failed)
	case runErr != nil:
		slog.ErrorContext(ctx, "classify job aborted", "error", runErr)
		os.Exit(1)
	default:
		slog.InfoContext(ctx, "classify job complete", "assigned", assigned, "failed", failed)
	}
}

func run(ctx context.Context, stores *store.Stores, classify classifier.Classifier, defaultProject string) (assigned, failed int64, err error) {
	convs, err := stores.Conversations().ListUnassigned(ctx)
	if err != nil {
		return 0, 0, err
	}
	slog.InfoContext(ctx, "unassigned conversations loaded", "count", len(convs))

	// Project ids cached per name; the job is single-threaded.
	projects := make(map[string]int64)

	for _, conv := range convs {
		if ctx.Err() != nil {
			return assigned, failed, ctx.Err()
		}
		convCtx := logger.WithLogFields(ctx, logger.LogFields{ConversationID: logger.Ptr(conv.ID)})

		name, classifyErr := classify.Classify(convCtx, conv.Title)
		if classifyErr != nil {
			slog.WarnContext(convCtx, "classification failed, using default project", "error", classifyErr)
			name = defaultProject
		}
		if name == "" {
			name = defaultProject
		}

		projectID, ok := projects[name]
		if !ok {
			proj, projErr := stores.Projects().GetOrCreate(convCtx, name)
			if projErr != nil {
				failed++
				slog.WarnContext(convCtx, "project resolution failed", "project", name, "error", projErr)
				continue
			}
			projectID = proj.ID
			projects[name] = projectID
		}

		if attachErr := stores.Conversations().AttachProject(convCtx, conv.ID, projectID); attachErr != nil {
			failed++
			slog.WarnContext(convCtx, "project attach failed", "project", name, "error", attachErr)
			continue
		}
		assigned++
	}
	return assigned, failed, nil
}
