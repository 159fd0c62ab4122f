package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/api/rest"
	"github.com/clintrovert/depdash/internal/app"
	"github.com/clintrovert/depdash/internal/cli"
	"github.com/clintrovert/depdash/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := func(cfg *config.Config, logger *zap.Logger) (rest.Service, error) {
		a, err := app.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return a.Reconciler, nil
	}

	root := cli.NewRootCommand(build, nil, version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
