package main

import (
	"context"
	"errors"
	"os"
	"time"

	"grledger/internal/amqp"
	"grledger/internal/cli"
	"grledger/internal/log"
	"grledger/internal/store"
	"grledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting grledger-worker")

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()

	be, err := cli.OpenBackend(bootCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	exporter, err := cli.NewExporter(bootCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewExportWorker(store.NewRecords(be.Store).Transactions, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up with changes made while the worker was down.
	w.StartupExport(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			if err := client.ConsumeRecordChanged(ctx, w.HandleRecordChanged); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP_URL not set, relying on periodic export only")
	}

	go w.PeriodicExport(ctx, cfg.ExportInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "last_export", w.LastExport())
}
