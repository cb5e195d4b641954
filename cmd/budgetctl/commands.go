package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
	"budgetbot/internal/services"
)

type logCmd struct {
	Amount      string   `arg:"" help:"Amount, e.g. 12.50 or 12,50."`
	Category    string   `arg:"" help:"Expense category."`
	Description []string `arg:"" optional:"" help:"What it was for."`
}

func (c *logCmd) Run(app *appContext) error {
	return record(app, core.Expense, c.Amount, c.Category, c.Description)
}

type incomeCmd struct {
	Amount      string   `arg:"" help:"Amount received."`
	Source      string   `arg:"" help:"Where the money came from."`
	Description []string `arg:"" optional:"" help:"Optional note."`
}

func (c *incomeCmd) Run(app *appContext) error {
	return record(app, core.Income, c.Amount, c.Source, c.Description)
}

func record(app *appContext, flow core.Flow, rawAmount, category string, description []string) error {
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", rawAmount, err)
	}
	receipt, err := app.ledger.Record(app.ctx, flow, core.Transaction{
		Date:     app.now(),
		Item:     strings.Join(description, " "),
		Amount:   amount,
		Category: category,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Logged %s: %s for %s\n", flow, core.FormatAmount(amount), category)
	if receipt.Limit.IsPositive() {
		fmt.Fprintf(app.out, "%s this month: %s of %s (%s)\n",
			category, core.FormatAmount(receipt.MonthTotal), core.FormatAmount(receipt.Limit), receipt.Alert)
	}
	return nil
}

type limitCmd struct {
	Category string `arg:"" help:"Category to limit."`
	Amount   string `arg:"" help:"Monthly limit."`
}

func (c *limitCmd) Run(app *appContext) error {
	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Amount, err)
	}
	if _, err := app.ledger.SetLimit(app.ctx, c.Category, amount); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Monthly limit for %s set to %s\n", c.Category, core.FormatAmount(amount))
	return nil
}

type planCmd struct{}

func (c *planCmd) Run(app *appContext) error {
	now := app.now()
	status, err := app.ledger.PlanStatus(app.ctx, now)
	if err != nil {
		return err
	}
	if len(status) == 0 {
		fmt.Fprintln(app.out, "No budget plan and no spending this month.")
		return nil
	}
	fmt.Fprintf(app.out, "Plan vs actual for %s\n", now.Format("January 2006"))
	w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tPLANNED\tACTUAL\tVARIANCE\tSTATUS")
	for _, v := range status {
		state := "ok"
		if v.OverLimit {
			state = "over"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Category,
			core.FormatAmount(v.Planned), core.FormatAmount(v.Actual), core.FormatAmount(v.Variance), state)
	}
	return w.Flush()
}

type recentCmd struct {
	Flow  string `help:"expense or income." default:"expense"`
	Count int    `short:"n" help:"How many records." default:"5"`
}

func (c *recentCmd) Run(app *appContext) error {
	flow, err := core.ParseFlow(c.Flow)
	if err != nil {
		return err
	}
	entries, err := app.ledger.Recent(app.ctx, flow, c.Count)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(app.out, "No %s records.\n", flow)
		return nil
	}
	return printEntries(app, entries)
}

func printEntries(app *appContext, entries []ledger.Entry) error {
	w := tabwriter.NewWriter(app.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDATE\tITEM\tAMOUNT\tCATEGORY")
	for _, e := range entries {
		tx := e.Transaction
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.Number, tx.Date.Format(core.TimeLayout), tx.Item, core.FormatAmount(tx.Amount), tx.Category)
	}
	return w.Flush()
}

type editCmd struct {
	Flow        string   `help:"expense or income." default:"expense"`
	Count       int      `short:"n" help:"Size of the recent list the number refers to." default:"5"`
	Number      int      `arg:"" help:"Record number as shown by recent."`
	Amount      string   `arg:"" help:"New amount."`
	Category    string   `arg:"" help:"New category or source."`
	Description []string `arg:"" optional:"" help:"New description; kept when omitted."`
}

func (c *editCmd) Run(app *appContext) error {
	flow, err := core.ParseFlow(c.Flow)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.Amount, err)
	}
	entries, err := app.ledger.Recent(app.ctx, flow, c.Count)
	if err != nil {
		return err
	}
	entry, ok := ledger.Pick(entries, c.Number)
	if !ok {
		return fmt.Errorf("no record %d among the last %d %s records", c.Number, len(entries), flow)
	}

	tx := entry.Transaction
	tx.Amount = amount
	tx.Category = c.Category
	if len(c.Description) > 0 {
		tx.Item = strings.Join(c.Description, " ")
	}
	if err := app.ledger.Edit(app.ctx, flow, entry.Position, tx); err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Updated %s record %d\n", flow, c.Number)
	return nil
}

type reportCmd struct {
	All bool `help:"Also write the chart image."`
}

func (c *reportCmd) Run(app *appContext) error {
	now := app.now()
	if c.All {
		artifacts, err := app.reports.All(app.ctx, now)
		if err != nil {
			return noData(err)
		}
		fmt.Fprintln(app.out, artifacts.Workbook)
		fmt.Fprintln(app.out, artifacts.Chart)
		return nil
	}
	path, err := app.reports.Workbook(app.ctx, now)
	if err != nil {
		return noData(err)
	}
	fmt.Fprintln(app.out, path)
	return nil
}

type chartCmd struct{}

func (c *chartCmd) Run(app *appContext) error {
	path, err := app.reports.Chart(app.ctx, app.now())
	if err != nil {
		return err
	}
	fmt.Fprintln(app.out, path)
	return nil
}

func noData(err error) error {
	if errors.Is(err, services.ErrNoData) {
		return errors.New("no data found: log some expenses first")
	}
	return err
}
