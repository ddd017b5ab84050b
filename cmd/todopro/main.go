// Package main is the entry point for the todopro CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"todopro/internal/backend/restapi"
	"todopro/internal/cli"
	"todopro/internal/commands"
	"todopro/internal/config"
	"todopro/internal/metrics"
	"todopro/internal/service"
	"todopro/internal/session"
)

func main() {
	// Cancel on interrupt so a pending rm can be undone with Ctrl-C
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Per-run registry; the dispatcher reports it with --debug
	ctx = metrics.NewContext(ctx, metrics.New(prometheus.NewRegistry()))

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return restapi.New(ctx, cfg, session.NewStore(cfg.TokenPath()), metrics.FromContext(ctx)), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
