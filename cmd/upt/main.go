package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ralt/upt/internal/cli"
	uptlog "github.com/ralt/upt/internal/log"
	"github.com/ralt/upt/internal/plugins"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.StandardLogger()
	uptlog.Configure(logger, uptlog.LevelInfo, os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, cli.NewRootCmd(plugins.NewRegistry, logger))
	stop()
	if code != 0 {
		os.Exit(code)
	}
}
