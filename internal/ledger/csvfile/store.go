// Package csvfile stores a ledger as a flat comma separated file with a
// Date,Item,Amount,Category header. Edits rewrite the whole file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
	"budgetbot/internal/ledger"
)

// Header is the first row of every ledger file.
var Header = []string{"Date", "Item", "Amount", "Category"}

type Store struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

var _ ledger.Ledger = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path, loc: time.Local}
}

// Path returns the file backing the ledger.
func (s *Store) Path() string {
	return s.path
}

// Append writes the header if the file is missing or empty, then one record.
func (s *Store) Append(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	info, statErr := os.Stat(s.path)
	switch {
	case errors.Is(statErr, os.ErrNotExist):
	case statErr != nil:
		return fmt.Errorf("stat ledger: %w", statErr)
	}
	needHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(toRecord(tx)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

// All parses every record. A missing file yields ledger.ErrNotFound; a file
// without any rows is an empty ledger.
func (s *Store) All(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords()
	if err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, 0, len(records))
	for i, rec := range records {
		tx, err := s.fromRecord(rec)
		if err != nil {
			// +2: header row and 1-based line numbers
			return nil, fmt.Errorf("%s line %d: %w", s.path, i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Replace rewrites the file with the record at position replaced. Every
// other row keeps its field values; rows are re-encoded as plain CSV with
// LF line endings.
func (s *Store) Replace(_ context.Context, position int, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readRecords()
	if err != nil {
		return err
	}
	if position < 0 || position >= len(records) {
		return fmt.Errorf("%w: %d of %d", ledger.ErrPosition, position, len(records))
	}
	records[position] = toRecord(tx)
	return s.rewrite(records)
}

// readRecords returns the data rows without the header.
func (s *Store) readRecords() ([][]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !sameHeader(header) {
		return nil, fmt.Errorf("%w: got %v", ledger.ErrBadHeader, header)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return records, nil
}

// rewrite replaces the file through a temporary sibling so a failed write
// never leaves a truncated ledger behind.
func (s *Store) rewrite(records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (s *Store) fromRecord(rec []string) (core.Transaction, error) {
	date, err := time.ParseInLocation(core.TimeLayout, strings.TrimSpace(rec[0]), s.loc)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", rec[0], err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", rec[2], err)
	}
	return core.Transaction{
		Date:     date,
		Item:     rec[1],
		Amount:   amount,
		Category: rec[3],
	}, nil
}

func toRecord(tx core.Transaction) []string {
	return []string{
		tx.Date.Format(core.TimeLayout),
		tx.Item,
		core.FormatAmount(tx.Amount),
		tx.Category,
	}
}

func sameHeader(got []string) bool {
	if len(got) != len(Header) {
		return false
	}
	for i := range Header {
		// Excel and friends like to prepend a byte order mark.
		if strings.TrimPrefix(strings.TrimSpace(got[i]), "\ufeff") != Header[i] {
			return false
		}
	}
	return true
}
