package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/bot"
	"budgetbot/internal/cli"
	"budgetbot/internal/config"
	"budgetbot/internal/discord"
	"budgetbot/internal/log"
	"budgetbot/internal/monthend"
	"budgetbot/internal/ratelimit"
	"budgetbot/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	token, err := config.LoadToken(cfg.TokenFile)
	if err != nil {
		logger.Error("Bot token unavailable", log.FieldError, err, log.FieldPath, cfg.TokenFile)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	stores := cli.InitBackend(startupCtx, logger, cfg)

	// Ledger events are optional.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(startupCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
	}
	cancelStartup()

	ledgerSvc := services.NewLedgerService(stores.Stores, publisher, logger)
	reportSvc := services.NewReportService(stores.Stores, cfg.ReportDir, logger)

	handler := bot.NewHandler(bot.Config{
		Prefix:        cfg.CommandPrefix,
		PromptTimeout: cfg.PromptTimeout,
		EditCount:     cfg.EditCount,
	}, ledgerSvc, reportSvc, logger)

	limiter := ratelimit.NewLimiter(ratelimit.Config{PerWindow: cfg.RateLimit, Window: time.Minute})
	discordBot, err := discord.New(token, handler, logger, discord.WithRateLimit(limiter))
	if err != nil {
		logger.Error("Failed to create Discord bot", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := stores.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})

	logger.Info("Starting budgetbot",
		log.FieldBackend, cfg.DataBackend,
		"report_dir", cfg.ReportDir,
		"prompt_timeout", cfg.PromptTimeout.String(),
		"month_end", cfg.MonthEndUserID != "")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return discordBot.Run(gctx)
	})
	if cfg.MonthEndUserID != "" {
		scheduler := monthend.NewScheduler(reportSvc, discordBot.DirectMessage(cfg.MonthEndUserID), logger,
			monthend.WithStateFile(cfg.MonthEndStateFile))
		g.Go(func() error {
			return scheduler.Run(gctx, cfg.MonthEndInterval, time.Now)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
