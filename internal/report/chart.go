package report

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/go-analyze/charts"

	"budgetbot/internal/aggregate"
	"budgetbot/internal/core"
)

// ChartName is the fixed file name of the chart figure.
const ChartName = "budget_chart.png"

const (
	panelWidth  = 600
	panelHeight = 450

	titleExpenses = "Expenses by Category"
	titleBalance  = "Income vs Expenses"
	titlePlan     = "Plan vs Actual"
)

var (
	colorPositive = charts.Color{R: 46, G: 160, B: 67, A: 255}
	colorNegative = charts.Color{R: 214, G: 48, B: 49, A: 255}
)

type panel struct {
	title  string
	render func(Snapshot) ([]byte, bool, error)
}

var panels = []panel{
	{title: titleExpenses, render: expensePie},
	{title: titleBalance, render: incomeVsExpense},
	{title: titlePlan, render: planVsActual},
}

// RenderChart writes the chart figure into dir and returns its path.
func RenderChart(snap Snapshot, dir string) (string, error) {
	buf, err := ChartPNG(snap)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, ChartName)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

// ChartPNG renders the three panels side by side. A panel without data is
// drawn as a "No data" placeholder.
func ChartPNG(snap Snapshot) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, panelWidth*len(panels), panelHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, p := range panels {
		raw, ok, err := p.render(snap)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", p.title, err)
		}
		var img image.Image
		if ok {
			if img, err = png.Decode(bytes.NewReader(raw)); err != nil {
				return nil, fmt.Errorf("decode %s: %w", p.title, err)
			}
		} else {
			img = placeholder(p.title, panelWidth, panelHeight)
		}
		dst := image.Rect(i*panelWidth, 0, (i+1)*panelWidth, panelHeight)
		draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func newPainter() *charts.Painter {
	return charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        panelWidth,
		Height:       panelHeight,
	})
}

func expensePie(snap Snapshot) ([]byte, bool, error) {
	sums := aggregate.NonZero(aggregate.SumByCategory(snap.MonthExpenses()))
	if len(sums) == 0 {
		return nil, false, nil
	}
	values := make([]float64, len(sums))
	names := make([]string, len(sums))
	for i, s := range sums {
		values[i] = s.Amount.InexactFloat64()
		names[i] = s.Name
	}

	opt := charts.NewPieChartOptionWithData(values)
	opt.Title.Text = titleExpenses
	opt.Legend.SeriesNames = names

	p := newPainter()
	if err := p.PieChart(opt); err != nil {
		return nil, false, err
	}
	buf, err := p.Bytes()
	return buf, err == nil, err
}

// incomeVsExpense stacks this month's income sources in the first bar and
// puts total expenses in the second.
func incomeVsExpense(snap Snapshot) ([]byte, bool, error) {
	income := aggregate.NonZero(aggregate.SumByCategory(snap.MonthIncome()))
	expenses := snap.MonthExpenses()
	spent := aggregate.Total(expenses)
	if len(income) == 0 && spent.IsZero() {
		return nil, false, nil
	}

	values := make([][]float64, 0, len(income)+1)
	names := make([]string, 0, len(income)+1)
	for _, s := range income {
		values = append(values, []float64{s.Amount.InexactFloat64(), 0})
		names = append(names, s.Name)
	}
	values = append(values, []float64{0, spent.InexactFloat64()})
	names = append(names, "Expenses")

	ov := aggregate.Overview(expenses, snap.MonthIncome())

	opt := charts.NewBarChartOptionWithData(values)
	opt.XAxis.Labels = []string{"Income", "Expenses"}
	opt.Legend.SeriesNames = names
	opt.StackSeries = charts.Ptr(true)
	opt.Title.Text = fmt.Sprintf("%s (balance %s)", titleBalance, core.FormatAmount(ov.Balance))
	opt.Title.FontStyle.FontColor = colorPositive
	if ov.Balance.IsNegative() {
		opt.Title.FontStyle.FontColor = colorNegative
	}

	p := newPainter()
	if err := p.BarChart(opt); err != nil {
		return nil, false, err
	}
	buf, err := p.Bytes()
	return buf, err == nil, err
}

// planVsActual groups planned and spent amounts for every category with a
// non-zero value on either side.
func planVsActual(snap Snapshot) ([]byte, bool, error) {
	rows := aggregate.PlanVsActual(aggregate.SumByCategory(snap.MonthExpenses()), snap.Plan)
	var labels []string
	planned := make([]float64, 0, len(rows))
	actual := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Planned.IsZero() && r.Actual.IsZero() {
			continue
		}
		labels = append(labels, r.Category)
		planned = append(planned, r.Planned.InexactFloat64())
		actual = append(actual, r.Actual.InexactFloat64())
	}
	if len(labels) == 0 {
		return nil, false, nil
	}

	opt := charts.NewBarChartOptionWithData([][]float64{planned, actual})
	opt.Title.Text = titlePlan
	opt.XAxis.Labels = labels
	opt.Legend.SeriesNames = []string{"Planned", "Actual"}
	for i := range opt.SeriesList {
		opt.SeriesList[i].Label.Show = charts.Ptr(true)
	}

	p := newPainter()
	if err := p.BarChart(opt); err != nil {
		return nil, false, err
	}
	buf, err := p.Bytes()
	return buf, err == nil, err
}
