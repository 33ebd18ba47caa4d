package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"corvusdb/internal/configuration"
	"corvusdb/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	cfg, err := configuration.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return
	}

	logging.Init(cfg.App.LogLevel)
	slog.Info("starting corvusdb node", "node_id", cfg.Cluster.NodeID)

	node, err := NewNode(cfg)
	if err != nil {
		slog.Error("failed to bootstrap node", "error", err)
		return
	}

	if err := node.Start(); err != nil {
		slog.Error("failed to start node", "error", err)
		return
	}

	slog.Info("node ready", "node_id", cfg.Cluster.NodeID)
	<-ctx.Done()

	slog.Info("shutting down node")
	node.Stop()
}
