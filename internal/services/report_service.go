package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbot/internal/backend"
	"budgetbot/internal/log"
	"budgetbot/internal/report"
)

// ErrNoData is returned by Workbook when neither ledger exists yet.
var ErrNoData = errors.New("no data recorded yet")

// Artifacts are the paths of rendered report files.
type Artifacts struct {
	Workbook string
	Chart    string
}

type ReportService struct {
	stores backend.Stores
	dir    string
	logger *log.Logger
}

func NewReportService(stores backend.Stores, dir string, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		stores: stores,
		dir:    dir,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

func (s *ReportService) snapshot(ctx context.Context, now time.Time) (report.Snapshot, error) {
	return report.Take(ctx, s.stores.Expenses, s.stores.Income, s.stores.Plan, now)
}

// Workbook renders the tabular report into a fresh directory under the
// report dir.
func (s *ReportService) Workbook(ctx context.Context, now time.Time) (string, error) {
	snap, err := s.snapshot(ctx, now)
	if err != nil {
		return "", err
	}
	if snap.Empty() {
		return "", ErrNoData
	}
	dir, err := report.NewOutputDir(s.dir)
	if err != nil {
		return "", err
	}
	path, err := report.WriteWorkbook(snap, dir)
	if err != nil {
		return "", err
	}
	s.logger.Info("Workbook rendered", "path", path)
	return path, nil
}

// Chart renders the chart figure. Missing data yields placeholders.
func (s *ReportService) Chart(ctx context.Context, now time.Time) (string, error) {
	snap, err := s.snapshot(ctx, now)
	if err != nil {
		return "", err
	}
	dir, err := report.NewOutputDir(s.dir)
	if err != nil {
		return "", err
	}
	path, err := report.RenderChart(snap, dir)
	if err != nil {
		return "", err
	}
	s.logger.Info("Chart rendered", "path", path)
	return path, nil
}

// All renders both reports from one snapshot, concurrently.
func (s *ReportService) All(ctx context.Context, now time.Time) (Artifacts, error) {
	snap, err := s.snapshot(ctx, now)
	if err != nil {
		return Artifacts{}, err
	}
	if snap.Empty() {
		return Artifacts{}, ErrNoData
	}

	dir, err := report.NewOutputDir(s.dir)
	if err != nil {
		return Artifacts{}, err
	}

	var out Artifacts
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := report.WriteWorkbook(snap, dir)
		if err != nil {
			return fmt.Errorf("workbook: %w", err)
		}
		out.Workbook = path
		return nil
	})
	g.Go(func() error {
		path, err := report.RenderChart(snap, dir)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		out.Chart = path
		return nil
	})
	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}
	s.logger.Info("Reports rendered", "workbook", out.Workbook, "chart", out.Chart)
	return out, nil
}
