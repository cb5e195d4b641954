// Package plan persists the per-category monthly spending limits.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"budgetbot/internal/core"
)

// Store loads and saves a budget plan.
type Store interface {
	Load(ctx context.Context) (core.Plan, error)
	Save(ctx context.Context, p core.Plan) error
}

// SetLimit sets one category limit and persists the whole plan. Other
// entries are preserved.
func SetLimit(ctx context.Context, s Store, category string, limit decimal.Decimal) (core.Plan, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, core.ErrEmptyCategory
	}
	if limit.IsNegative() {
		return nil, core.ErrInvalidAmount
	}
	p, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	p = p.Clone()
	p[category] = limit
	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FileStore keeps the plan as a JSON object of category to number.
type FileStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns an empty plan when the file does not exist.
func (s *FileStore) Load(_ context.Context) (core.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.Plan{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return core.Plan{}, nil
	}
	var entries map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", s.path, err)
	}
	p := make(core.Plan, len(entries))
	for k, v := range entries {
		p[k] = v
	}
	return p, nil
}

// Save overwrites the file with two-space indented JSON.
func (s *FileStore) Save(_ context.Context, p core.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.Number, len(p))
	for k, v := range p {
		out[k] = json.Number(v.String())
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	if err := os.WriteFile(s.path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// MemoryStore keeps the plan in process.
type MemoryStore struct {
	mu sync.Mutex
	p  core.Plan
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{p: core.Plan{}}
}

func (s *MemoryStore) Load(_ context.Context) (core.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, p core.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p.Clone()
	return nil
}
