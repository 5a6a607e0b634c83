package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clawder/resonance/internal/config"
	"github.com/clawder/resonance/internal/logging"
	"github.com/clawder/resonance/internal/match"
	"github.com/clawder/resonance/internal/resonance"
	"github.com/clawder/resonance/internal/rpc"
	"github.com/clawder/resonance/internal/trigger"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	store, err := match.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
	if err := logging.EnsureSchema(store.DB()); err != nil {
		log.Fatalf("failed to init recalculation log: %v", err)
	}

	scorer := resonance.NewScorer(store, logger)
	runner := trigger.NewRunner(scorer, store.DB(), logger, cfg.RecalcTimeout)
	svc := rpc.NewService(
		runner,
		trigger.NewDashboard(runner, store),
		trigger.NewMatcher(runner, store, logger),
	)

	server, err := rpc.New(cfg.Addr, svc, logger)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scores may be stale from a previous process.
	runner.Refresh(ctx, trigger.TriggerCLI)

	if err := server.Serve(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// #endregion main
