//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
	"budgetbot/internal/log"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendThenRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := New(ctx, cfg, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	before, err := c.Rows(ctx, core.Expense)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}

	tx := core.Transaction{
		Date:     time.Now().Truncate(time.Second),
		Item:     "integration test",
		Amount:   decimal.RequireFromString("0.01"),
		Category: "Test",
	}
	if _, err := c.Append(ctx, core.Expense, tx); err != nil {
		t.Fatalf("Append: %v", err)
	}
	after, err := c.Rows(ctx, core.Expense)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("row count %d -> %d", len(before), len(after))
	}
}
