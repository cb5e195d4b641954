package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"budgetbot/internal/aggregate"
	"budgetbot/internal/core"
)

const (
	SheetExpenseLog     = "Expense Log"
	SheetExpenseSummary = "Expense Summary"
	SheetPlanVsActual   = "Plan vs Actual"
	SheetIncomeLog      = "Income Log"
	SheetIncomeSummary  = "Income Summary"
	SheetOverview       = "Overview"

	colorHeader = "#2D3436"
	colorOver   = "#FADBD8"
)

// WorkbookName is the file name of the report generated on day now.
func WorkbookName(snap Snapshot) string {
	return fmt.Sprintf("Budget_Report_%s.xlsx", snap.Now.Format("2006-01-02"))
}

// WriteWorkbook writes the tabular report into dir and returns its path.
// Sheets for an absent ledger are left out; Overview is always written.
func WriteWorkbook(snap Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, WorkbookName(snap))

	f := excelize.NewFile()
	defer f.Close()

	w := &workbook{f: f}
	if err := w.init(); err != nil {
		return "", err
	}

	if snap.HasExpenses {
		if err := w.logSheet(SheetExpenseLog, core.Expense, snap.Expenses); err != nil {
			return "", err
		}
		if err := w.summarySheet(SheetExpenseSummary, core.Expense, aggregate.SumByCategory(snap.Expenses)); err != nil {
			return "", err
		}
		// limits are monthly, so compare them with this month only
		actuals := aggregate.SumByCategory(snap.MonthExpenses())
		if err := w.planSheet(aggregate.PlanVsActual(actuals, snap.Plan)); err != nil {
			return "", err
		}
	}
	if snap.HasIncome {
		if err := w.logSheet(SheetIncomeLog, core.Income, snap.Income); err != nil {
			return "", err
		}
		if err := w.summarySheet(SheetIncomeSummary, core.Income, aggregate.SumByCategory(snap.Income)); err != nil {
			return "", err
		}
	}
	if err := w.overviewSheet(aggregate.Overview(snap.Expenses, snap.Income)); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

type workbook struct {
	f       *excelize.File
	header  int
	money   int
	overRow int
	sheets  int
}

func (w *workbook) init() error {
	var err error
	w.header, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	w.money, err = w.f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	w.overRow, err = w.f.NewStyle(&excelize.Style{
		NumFmt: 2,
		Font:   &excelize.Font{Color: "#D63031"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{colorOver}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("over style: %w", err)
	}
	return nil
}

// sheet creates name, reusing the default sheet for the first one.
func (w *workbook) sheet(name string, headers ...any) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("new sheet %s: %w", name, err)
	}
	w.sheets++

	if err := w.f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("%s header: %w", name, err)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := w.f.SetCellStyle(name, "A1", last+"1", w.header); err != nil {
		return fmt.Errorf("%s header style: %w", name, err)
	}
	return w.f.SetColWidth(name, "A", last, 20)
}

func (w *workbook) row(sheet string, n int, values ...any) error {
	cell, _ := excelize.CoordinatesToCellName(1, n)
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
	return nil
}

func (w *workbook) style(sheet, col string, n, style int) error {
	cell := fmt.Sprintf("%s%d", col, n)
	return w.f.SetCellStyle(sheet, cell, cell, style)
}

func (w *workbook) logSheet(name string, flow core.Flow, txs []core.Transaction) error {
	if err := w.sheet(name, "Date", "Item", "Amount", flow.Label()); err != nil {
		return err
	}
	for i, tx := range txs {
		n := i + 2
		if err := w.row(name, n, tx.Date.Format(core.TimeLayout), tx.Item, tx.Amount.InexactFloat64(), tx.Category); err != nil {
			return err
		}
		if err := w.style(name, "C", n, w.money); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) summarySheet(name string, flow core.Flow, sums []core.CategoryAmount) error {
	if err := w.sheet(name, flow.Label(), "Total"); err != nil {
		return err
	}
	for i, s := range sums {
		n := i + 2
		if err := w.row(name, n, s.Name, s.Amount.InexactFloat64()); err != nil {
			return err
		}
		if err := w.style(name, "B", n, w.money); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) planSheet(rows []core.Variance) error {
	name := SheetPlanVsActual
	if err := w.sheet(name, "Category", "Planned", "Actual", "Variance", "Status"); err != nil {
		return err
	}
	for i, v := range rows {
		n := i + 2
		status, style := "Within limit", w.money
		if v.OverLimit {
			status, style = "Over limit", w.overRow
		}
		if err := w.row(name, n, v.Category, v.Planned.InexactFloat64(), v.Actual.InexactFloat64(), v.Variance.InexactFloat64(), status); err != nil {
			return err
		}
		for _, col := range []string{"B", "C", "D"} {
			if err := w.style(name, col, n, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *workbook) overviewSheet(ov core.Overview) error {
	name := SheetOverview
	if err := w.sheet(name, "Metric", "Amount"); err != nil {
		return err
	}
	rows := []struct {
		label  string
		amount float64
	}{
		{"Total Income", ov.TotalIncome.InexactFloat64()},
		{"Total Expense", ov.TotalExpense.InexactFloat64()},
		{"Balance", ov.Balance.InexactFloat64()},
	}
	for i, r := range rows {
		n := i + 2
		if err := w.row(name, n, r.label, r.amount); err != nil {
			return err
		}
		if err := w.style(name, "B", n, w.money); err != nil {
			return err
		}
	}
	return nil
}
