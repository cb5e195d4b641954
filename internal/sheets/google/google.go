package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/sheets"
)

const (
	DefaultExpenseTab = "Expenses"
	DefaultIncomeTab  = "Income"
)

var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	ExpenseTab      string
	IncomeTab       string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          map[core.Flow]string
	loc           *time.Location
	logger        *log.Logger
}

var _ sheets.Mirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account. Extra
// options are applied after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	expenses := strings.TrimSpace(cfg.ExpenseTab)
	if expenses == "" {
		expenses = DefaultExpenseTab
	}
	income := strings.TrimSpace(cfg.IncomeTab)
	if income == "" {
		income = DefaultIncomeTab
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          map[core.Flow]string{core.Expense: expenses, core.Income: income},
		loc:           time.Local,
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger, extra []goption.ClientOption) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)

	var opts []goption.ClientOption
	switch {
	case len(credentialsJSON) > 0:
		logger.Info("Using inline JSON credentials")
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	case file != "":
		logger.Info("Reading credentials from file", log.FieldPath, file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(data))
	case len(extra) == 0:
		return nil, ErrNoCredentials
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))
	opts = append(opts, extra...)

	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) tab(flow core.Flow) (string, error) {
	tab, ok := c.tabs[flow]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidFlow, string(flow))
	}
	return tab, nil
}

// Append adds tx after the last row of the flow's tab.
func (c *Client) Append(ctx context.Context, flow core.Flow, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	tab, err := c.tab(flow)
	if err != nil {
		return "", err
	}

	vr := &gsheet.ValueRange{Values: [][]any{rowValues(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, columnsRange(tab), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", tab, err)
	}
	ref := columnsRange(tab)
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// Update overwrites the row of the record at position.
func (c *Client) Update(ctx context.Context, flow core.Flow, position int, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if position < 0 {
		return "", fmt.Errorf("invalid position %d", position)
	}
	tab, err := c.tab(flow)
	if err != nil {
		return "", err
	}

	rng := rowRange(tab, position)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	if resp.UpdatedRange != "" {
		return resp.UpdatedRange, nil
	}
	return rng, nil
}

// EnsureHeader writes the header row into every tab whose first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	for _, flow := range []core.Flow{core.Expense, core.Income} {
		tab := c.tabs[flow]
		rng := fmt.Sprintf("%s!A1:D1", quoteTab(tab))
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read %s: %w", rng, err)
		}
		if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
			continue
		}
		vr := &gsheet.ValueRange{Values: [][]any{Header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header %s: %w", rng, err)
		}
		c.logger.Info("Header written", "tab", tab)
	}
	return nil
}

// Rows reads back every record of the flow's tab, skipping the header and
// rows that do not parse.
func (c *Client) Rows(ctx context.Context, flow core.Flow) ([]core.Transaction, error) {
	tab, err := c.tab(flow)
	if err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A2:D", quoteTab(tab))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]core.Transaction, 0, len(resp.Values))
	for i, row := range resp.Values {
		tx, err := parseRow(row, c.loc)
		if err != nil {
			c.logger.Warn("Skipping unreadable row", "tab", tab, "row", i+2, log.FieldError, err)
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}
