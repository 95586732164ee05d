package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planner/internal/app"
	"planner/internal/config"
	"planner/internal/jira"
	"planner/internal/server"
	"planner/internal/storage/sqlite"
	"planner/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("PLANNER_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("PLANNER_DB_PATH", "data/planner.db"), "Path to sqlite database file")
	configFlag := flag.String("config", util.EnvOrDefault("PLANNER_CONFIG", "config.yaml"), "Path to the tracker credentials file")
	staticFlag := flag.String("static", util.EnvOrDefault("PLANNER_STATIC_DIR", "web/dist"), "Directory with built frontend")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	autoSchedule := util.EnvBool("PLANNER_AUTO_SCHEDULE", cfg.AutoSchedule)
	if !cfg.TrackerConfigured() {
		logger.Warn("tracker credentials missing; running in local-only mode",
			slog.String("config", *configFlag))
	}

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	tracker := jira.NewClient(jira.Credentials{
		BaseURL:  cfg.Tracker.BaseURL,
		Email:    cfg.Tracker.Email,
		APIToken: cfg.Tracker.APIToken,
	}, logger)

	svc, err := app.New(context.Background(), store, tracker, cfg.UserIdentifier(), autoSchedule, logger)
	if err != nil {
		logger.Error("unable to build service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(store, tracker, svc, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
