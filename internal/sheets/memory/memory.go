package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	ports "tally/internal/sheets"
)

// Store keeps sheets as in-memory row lists. It is used when no spreadsheet
// is configured and in tests.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ ports.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{sheets: map[string][][]string{}}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, sheet string, row []string) (string, error) {
	if len(row) == 0 {
		return "", errors.New("empty row")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet] = append(s.sheets[sheet], append([]string(nil), row...))
	return fmt.Sprintf("mem:%s:%d", sheet, len(s.sheets[sheet])), nil
}

func (s *Store) FindRow(_ context.Context, sheet, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.find(sheet, key)
	if n == 0 {
		return "", false, nil
	}
	return fmt.Sprintf("mem:%s:%d", sheet, n), true, nil
}

// ClearRow blanks the matching row in place.
func (s *Store) ClearRow(_ context.Context, sheet, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.find(sheet, key)
	if n == 0 {
		return false, nil
	}
	s.sheets[sheet][n-1] = nil
	return true, nil
}

// Rows returns a copy of the rows of sheet; cleared rows are empty.
func (s *Store) Rows(sheet string) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.sheets[sheet]))
	for i, r := range s.sheets[sheet] {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (s *Store) find(sheet, key string) int {
	key = strings.TrimSpace(key)
	rows := s.sheets[sheet]
	for i := len(rows) - 1; i >= 0; i-- {
		if len(rows[i]) > 0 && rows[i][0] == key {
			return i + 1
		}
	}
	return 0
}
