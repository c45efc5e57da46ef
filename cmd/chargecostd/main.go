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
	"github.com/chargecost/chargecost/pkg/server"
	"github.com/chargecost/chargecost/pkg/storage"
	"github.com/chargecost/chargecost/pkg/types"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	cat := catalog.Configured()
	filter := catalog.ConfiguredFilter()
	profiles := profile.Configured()
	pipe := pipeline.Configured(cat, filter)
	db := storage.Configured()

	// scenarios are loaded after flags are parsed, before the server runs
	var scenarios *profile.Scenarios
	refresh := func(ctx context.Context) (types.Run, error) {
		run, err := pipe.Run(ctx, scenarios)
		if err != nil {
			return types.Run{}, err
		}
		if err := db.SaveRun(ctx, run); err != nil {
			return types.Run{}, fmt.Errorf("failed to save run: %w", err)
		}
		return run, nil
	}

	// init server
	srv := server.Configured(db, refresh)

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

	// without a real store every refresh would be lost on restart
	if storage.Name(db) == "none" {
		log.Ctx(ctx).ErrorContext(ctx, "storage-provider is required for the server")
		os.Exit(1)
	}

	if err := cat.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid catalog config", "error", err)
		os.Exit(1)
	}
	if err := profiles.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid profile config", "error", err)
		os.Exit(1)
	}

	var err error
	scenarios, err = profiles.Load()
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load profiles", "error", err)
		os.Exit(1)
	}

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
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
