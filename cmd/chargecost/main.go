package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chargecost/chargecost/pkg/catalog"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/pipeline"
	"github.com/chargecost/chargecost/pkg/profile"
	"github.com/chargecost/chargecost/pkg/report"
	"github.com/chargecost/chargecost/pkg/storage"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	cat := catalog.Configured()
	filter := catalog.ConfiguredFilter()
	profiles := profile.Configured()
	pipe := pipeline.Configured(cat, filter)
	rep := report.Configured()
	db := storage.Configured()

	// parse flags
	lflag.Configure()

	configureLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := db.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	if err := cat.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid catalog config", "error", err)
		os.Exit(1)
	}
	if err := profiles.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid profile config", "error", err)
		os.Exit(1)
	}

	scenarios, err := profiles.Load()
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load profiles", "error", err)
		os.Exit(1)
	}

	run, err := pipe.Run(ctx, scenarios)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "run failed", "error", err)
		os.Exit(1)
	}

	if err := rep.Files(ctx, run); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write results files", "error", err)
		os.Exit(1)
	}
	report.Summary(ctx, run)

	if err := db.SaveRun(ctx, run); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to save run", "error", err)
		os.Exit(1)
	}
	if storage.Name(db) != "none" {
		log.Ctx(ctx).InfoContext(ctx, "run saved", slog.String("runID", run.ID))
	}
}

// configureLogger bridges the llog level that lflag parsed onto slog.
func configureLogger() {
	var level slog.Level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))
}
