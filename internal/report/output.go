package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const outputPrefix = "report-"

// NewOutputDir creates a directory under dir that belongs to one rendering
// request, so concurrent requests never share a file path.
func NewOutputDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	out, err := os.MkdirTemp(dir, outputPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return out, nil
}

// Discard removes a rendered file. The request directory holding it goes
// too once nothing else is left in it.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	if !strings.HasPrefix(filepath.Base(dir), outputPrefix) {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output directory: %w", err)
	}
	return nil
}
