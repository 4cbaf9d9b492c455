package memory

import (
	"context"
	"sort"
	"sync"

	"budgetreport/internal/report"
	ports "budgetreport/internal/sheets"
)

var _ ports.ReportMirror = (*Store)(nil)

// Store keeps the last mirrored grid per sheet.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	runs   int
}

func New() *Store {
	return &Store{sheets: map[string][][]any{}}
}

// Mirror replaces the stored grid of every sheet in tables.
func (s *Store) Mirror(ctx context.Context, tables []report.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tables {
		s.sheets[t.Sheet] = ports.Values(t)
	}
	s.runs++
	return nil
}

// Sheet returns a copy of the grid last mirrored to name.
func (s *Store) Sheet(name string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, ok := s.sheets[name]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(grid))
	for i, row := range grid {
		out[i] = append([]any(nil), row...)
	}
	return out, true
}

// Sheets lists mirrored sheet names, sorted.
func (s *Store) Sheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runs counts successful Mirror calls.
func (s *Store) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
