/*Offline access to the ledgers, the plan and the reports.*/
package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"budgetbot/internal/backend"
	"budgetbot/internal/cli"
	"budgetbot/internal/log"
	"budgetbot/internal/services"
)

// appContext holds what every command needs.
type appContext struct {
	ctx     context.Context
	ledger  *services.LedgerService
	reports *services.ReportService
	out     io.Writer
	now     func() time.Time
}

type commandLine struct {
	Backend string `help:"Override DATA_BACKEND (csv or sqlite)."`
	EnvFile string `name:"env-file" help:"Load settings from this file." default:".env" type:"path"`

	Log    logCmd    `cmd:"" help:"Log an expense."`
	Income incomeCmd `cmd:"" help:"Log income."`
	Limit  limitCmd  `cmd:"" help:"Set a monthly category limit."`
	Plan   planCmd   `cmd:"" help:"Show the budget plan with this month's spending."`
	Recent recentCmd `cmd:"" help:"List the latest records."`
	Edit   editCmd   `cmd:"" help:"Replace one of the latest records."`
	Report reportCmd `cmd:"" help:"Write the spreadsheet report."`
	Chart  chartCmd  `cmd:"" help:"Write the chart image."`
}

var budgetctl commandLine

func main() {
	k := kong.Parse(&budgetctl,
		kong.Name("budgetctl"),
		kong.Description("Manage the budget ledgers without the chat bot."),
		kong.UsageOnError(),
	)

	cli.LoadEnvFile(budgetctl.EnvFile)
	if budgetctl.Backend != "" {
		os.Setenv("DATA_BACKEND", budgetctl.Backend)
	}
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)

	app := newAppContext(ctx, result.Stores, cfg.ReportDir, os.Stdout, logger)
	err := k.Run(app)
	if cerr := result.Close(); cerr != nil && err == nil {
		err = cerr
	}
	k.FatalIfErrorf(err)
}

func newAppContext(ctx context.Context, stores backend.Stores, reportDir string, out io.Writer, logger *log.Logger) *appContext {
	return &appContext{
		ctx:     ctx,
		ledger:  services.NewLedgerService(stores, nil, logger),
		reports: services.NewReportService(stores, reportDir, logger),
		out:     out,
		now:     time.Now,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
