package main

import (
	"context"
	"os"
	"time"

	"budgetbot/internal/amqp"
	"budgetbot/internal/cli"
	"budgetbot/internal/config"
	"budgetbot/internal/core"
	"budgetbot/internal/log"
	gsheet "budgetbot/internal/sheets/google"
	"budgetbot/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting budgetbot-sync")

	cfg := config.Load()
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	sheetsClient, err := gsheet.New(startupCtx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	if err := sheetsClient.EnsureHeader(startupCtx); err != nil {
		logger.Error("Failed to prepare spreadsheet tabs", log.FieldError, err)
		os.Exit(1)
	}
	for _, flow := range []core.Flow{core.Expense, core.Income} {
		rows, err := sheetsClient.Rows(startupCtx, flow)
		if err != nil {
			// Don't exit - the mirror can still append
			logger.Warn("Could not count mirrored rows", log.FieldFlow, flow, log.FieldError, err)
			continue
		}
		logger.Info("Mirror tab ready", log.FieldFlow, flow, "rows", len(rows))
	}

	amqpClient, err := amqp.NewClient(startupCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(sheetsClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
	})

	err = amqpClient.Consume(ctx, mirror.HandleEvent)
	if err != nil && ctx.Err() == nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	stats := mirror.Stats()
	logger.Info("Worker shutdown complete",
		"appended", stats.Appended,
		"updated", stats.Updated,
		"failed", stats.Failed)
}
