// cmd/loanctl/main.go
package main

import (
	"context"
	"os"

	"loan-intake/internal/bootstrap"
	"loan-intake/internal/cli"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
)

func main() {
	if err := cli.NewRootCommand(newService).Execute(); err != nil {
		os.Exit(1)
	}
}

// newService connects with a single attempt; a CLI run should fail fast
// rather than wait out the server's startup backoff.
func newService(ctx context.Context, opts *cli.RootOptions) (cli.Service, func(), error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	// stdout carries the JSON result, so logs go to stderr.
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	log := logger.NewZapAdapter(zapLog)

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.WithRetry(1, 0))
	if err != nil {
		_ = zapLog.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		app.Close()
		_ = zapLog.Sync()
	}

	if err := app.Service.Migrate(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return app.Service, cleanup, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
