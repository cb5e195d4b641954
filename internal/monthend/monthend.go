// Package monthend delivers the tabular report on the last day of each month.
package monthend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"budgetbot/internal/log"
	"budgetbot/internal/report"
	"budgetbot/internal/services"
)

// Reports builds the workbook that gets sent.
type Reports interface {
	Workbook(ctx context.Context, now time.Time) (string, error)
}

// Notifier delivers a message with an optional file attachment. An empty
// path means text only.
type Notifier interface {
	Notify(ctx context.Context, text, path string) error
}

// IsLastDayOfMonth reports whether now falls on the final calendar day of its month.
func IsLastDayOfMonth(now time.Time) bool {
	return now.AddDate(0, 0, 1).Month() != now.Month()
}

// IsDue returns true on the last day of a month that has not been sent yet.
func IsDue(lastSent, now time.Time) bool {
	if !IsLastDayOfMonth(now) {
		return false
	}
	if lastSent.IsZero() {
		return true
	}
	return lastSent.Year() != now.Year() || lastSent.Month() != now.Month()
}

// stateLayout is how the last delivered month is kept in the state file.
const stateLayout = "2006-01"

type Scheduler struct {
	mu        sync.Mutex
	reports   Reports
	notifier  Notifier
	lastSent  time.Time
	stateFile string
	logger    *log.Logger
}

type Option func(*Scheduler)

// WithStateFile keeps the last delivered month in path, so a restart on the
// last day of the month does not send the report twice.
func WithStateFile(path string) Option {
	return func(s *Scheduler) {
		s.stateFile = path
	}
}

func NewScheduler(reports Reports, notifier Notifier, logger *log.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Scheduler{
		reports:  reports,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentMonthEnd),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.stateFile != "" {
		last, err := loadState(s.stateFile)
		if err != nil {
			s.logger.Warn("Ignoring month-end state", log.FieldPath, s.stateFile, log.FieldError, err)
		}
		s.lastSent = last
	}
	return s
}

// LastSent returns the month of the last delivery, or the zero time.
func (s *Scheduler) LastSent() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSent
}

func loadState(path string) (time.Time, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(stateLayout, strings.TrimSpace(string(raw)), time.Local)
}

func saveState(path string, month time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(month.Format(stateLayout)+"\n"), 0o644)
}

// Tick sends the report when it is due. It returns true when something was
// delivered. A failed delivery is retried on the next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !IsDue(s.lastSent, now) {
		return false, nil
	}

	month := now.Format("January 2006")
	path, err := s.reports.Workbook(ctx, now)
	switch {
	case errors.Is(err, services.ErrNoData):
		if err := s.notifier.Notify(ctx, fmt.Sprintf("Month-end report for %s: no data recorded.", month), ""); err != nil {
			return false, fmt.Errorf("notify: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("build month-end report: %w", err)
	default:
		err := s.notifier.Notify(ctx, fmt.Sprintf("Month-end report for %s.", month), path)
		if rmErr := report.Discard(path); rmErr != nil {
			s.logger.Warn("Failed to remove report file", log.FieldPath, path, log.FieldError, rmErr)
		}
		if err != nil {
			return false, fmt.Errorf("notify: %w", err)
		}
	}

	s.lastSent = now
	if s.stateFile != "" {
		if err := saveState(s.stateFile, now); err != nil {
			s.logger.Warn("Failed to save month-end state", log.FieldPath, s.stateFile, log.FieldError, err)
		}
	}
	s.logger.Info("Month-end report sent", "month", month)
	return true, nil
}

// Run ticks at every interval until ctx is done. The first tick runs immediately.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx, now()); err != nil {
			s.logger.Error("Month-end tick failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
