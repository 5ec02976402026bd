// cmd/loan-service/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"loan-intake/internal/bootstrap"
	"loan-intake/internal/common/camunda"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/common/startup"
	httptransport "loan-intake/internal/transport/http"

	lla "loan-intake/internal/workers/loan/list-loan-applications"
	sla "loan-intake/internal/workers/loan/submit-loan-application"
	ulas "loan-intake/internal/workers/loan/update-loan-application-status"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts, observability.WithTracing(cfg.Tracing.SampleRatio))
	}
	obs, err := observability.New(cfg.App.Name, obsOpts...)
	if err != nil {
		zapLog.Warn("metrics exporter unavailable", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	// --- Backing services ---
	app, err := bootstrap.New(ctx, cfg, log, bootstrap.WithObservability(obs))
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer app.Close()

	if err := app.Service.Migrate(ctx); err != nil {
		zapLog.Fatal("migration failed", zap.Error(err))
	}

	// --- Camunda workers ---
	var workers *camunda.Workers
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = startup.RetryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		workers = camunda.NewWorkers(zeebe.GetClient(), log)

		submitCfg := config.GetWorkerConfig(cfg, sla.TaskType)
		submit := sla.NewHandler(sla.LoadConfig(submitCfg), app.Service, log)
		workers.Start(sla.TaskType, submitCfg, submit.Handle)

		listCfg := config.GetWorkerConfig(cfg, lla.TaskType)
		list := lla.NewHandler(lla.LoadConfig(listCfg), app.Service, log)
		workers.Start(lla.TaskType, listCfg, list.Handle)

		updateCfg := config.GetWorkerConfig(cfg, ulas.TaskType)
		update := ulas.NewHandler(ulas.LoadConfig(updateCfg), app.Service, log)
		workers.Start(ulas.TaskType, updateCfg, update.Handle)

		zapLog.Info("workers registered", zap.Strings("taskTypes", workers.Running()))
	}

	// --- HTTP ---
	handler := httptransport.NewHandler(app.Service, log, httptransport.WithMaxUploadSize(cfg.Storage.MaxFileSize))
	for name, check := range app.ReadyChecks() {
		handler.RegisterCheck(name, check)
	}
	if cfg.Camunda.Enabled {
		handler.RegisterCheck("camunda", func(context.Context) error {
			if len(workers.Running()) == 0 {
				return errors.New("no workers running")
			}
			return nil
		})
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           httptransport.NewRouter(handler, config.GetDuration(cfg.HTTP.RequestTimeout)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutting down loan service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	if workers != nil {
		workers.Close()
	}

	zapLog.Info("Loan service stopped")
}
