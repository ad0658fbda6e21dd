package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/companyconsole/internal/config"
	"github.com/gartstein/companyconsole/internal/console/cli"
	"github.com/gartstein/companyconsole/internal/console/controller"
	"github.com/gartstein/companyconsole/internal/console/gateway"
	"github.com/gartstein/companyconsole/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(newConsole, nil)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newConsole(cfg config.ConsoleConfig) (*controller.CompanyConsole, func(), error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	gw := gateway.New(cfg.APIURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithToken(cfg.APIToken),
		gateway.WithLogger(logger),
	)
	return controller.NewCompanyConsole(gw, logger,
		controller.WithStaleTime(cfg.StaleTime),
		controller.WithGCTime(cfg.GCTime),
	), func() { logging.Sync(logger) }, nil
}
