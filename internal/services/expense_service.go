package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/filter"
	applog "tally/internal/log"
	"tally/internal/seed"
	"tally/internal/storage"
)

// ExpenseService owns the expense collection, newest first. Mutations are
// persisted before they become visible and then announced to the publisher.
type ExpenseService struct {
	store storage.Store
	opts  options

	mu       sync.Mutex
	expenses []core.Expense
}

// NewExpenseService loads the stored expenses. When the key has never been
// written and sample seeding is enabled, demo expenses are stored first.
func NewExpenseService(ctx context.Context, store storage.Store, opts ...Option) (*ExpenseService, error) {
	s := &ExpenseService{store: store, opts: buildOptions(applog.ComponentExpense, opts)}

	expenses, found, err := storage.LoadJSON(ctx, store, storage.KeyExpenses, []core.Expense{})
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if !found && s.opts.seedExpenses {
		expenses = seed.SampleExpenses(s.opts.nowIn())
		if err := storage.SaveJSON(ctx, store, storage.KeyExpenses, expenses); err != nil {
			return nil, fmt.Errorf("save sample expenses: %w", err)
		}
		s.opts.logger.InfoContext(ctx, "Seeded sample expenses", "count", len(expenses))
	}
	s.setExpenses(expenses)
	return s, nil
}

func (s *ExpenseService) setExpenses(expenses []core.Expense) {
	for i := range expenses {
		expenses[i].Date = expenses[i].Date.In(s.opts.loc)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.expenses = expenses
}

// reload replaces the cached collection with the stored one, picking up
// writes made by other processes sharing the store. Callers hold mu.
func (s *ExpenseService) reload(ctx context.Context) error {
	expenses, _, err := storage.LoadJSON(ctx, s.store, storage.KeyExpenses, []core.Expense{})
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	s.setExpenses(expenses)
	return nil
}

// Add validates the form and stores the expense at the front of the list.
// The id is the creation time in Unix milliseconds, bumped when needed to
// stay unique.
func (s *ExpenseService) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Parse(s.opts.loc)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	if err := s.reload(ctx); err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	now := s.opts.now()
	e.ID = now.UnixMilli()
	for _, x := range s.expenses {
		if x.ID >= e.ID {
			e.ID = x.ID + 1
		}
	}
	e.Timestamp = now.UTC()

	next := make([]core.Expense, 0, len(s.expenses)+1)
	next = append(next, e)
	next = append(next, s.expenses...)
	if err := storage.SaveJSON(ctx, s.store, storage.KeyExpenses, next); err != nil {
		s.mu.Unlock()
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.expenses = next
	s.mu.Unlock()

	s.opts.logger.InfoContext(ctx, "Expense added", applog.NewFields().
		WithExpense(e.ID, e.Amount.Cents, string(e.Category)).
		WithOperation(applog.OpCreate).
		ToSlice()...)

	if p := s.opts.publisher; p != nil {
		if err := p.PublishExpenseCreated(ctx, e); err != nil {
			s.opts.logger.ErrorContext(ctx, "Failed to publish expense event", applog.NewFields().
				WithExpense(e.ID, e.Amount.Cents, string(e.Category)).
				WithError(err).
				ToSlice()...)
		}
	}
	return e, nil
}

// Delete removes the expense with id.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if err := s.reload(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	idx := -1
	for i, e := range s.expenses {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	removed := s.expenses[idx]
	next := make([]core.Expense, 0, len(s.expenses)-1)
	next = append(next, s.expenses[:idx]...)
	next = append(next, s.expenses[idx+1:]...)
	if err := storage.SaveJSON(ctx, s.store, storage.KeyExpenses, next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete expense: %w", err)
	}
	s.expenses = next
	s.mu.Unlock()

	s.opts.logger.InfoContext(ctx, "Expense deleted", "id", id)
	if p := s.opts.publisher; p != nil {
		if err := p.PublishExpenseDeleted(ctx, removed); err != nil {
			s.opts.logger.ErrorContext(ctx, "Failed to publish expense event", "id", id, "error", err)
		}
	}
	return nil
}

// Clear deletes every expense.
func (s *ExpenseService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return err
	}
	if err := storage.SaveJSON(ctx, s.store, storage.KeyExpenses, []core.Expense{}); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	n := len(s.expenses)
	s.expenses = []core.Expense{}
	s.opts.logger.InfoContext(ctx, "Expenses cleared", "count", n)
	return nil
}

// All returns a copy of every expense, newest first.
func (s *ExpenseService) All() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...)
}

// List returns the expenses matching f, evaluated against the current time.
func (s *ExpenseService) List(f filter.ExpenseFilter) []core.Expense {
	return filter.Apply(s.All(), f.Predicate(s.opts.nowIn()))
}

// Summary aggregates the expenses matching f. The daily trend always covers
// the whole collection.
func (s *ExpenseService) Summary(f filter.ExpenseFilter) core.ExpenseSummary {
	now := s.opts.nowIn()
	all := s.All()
	return core.Summarize(filter.Apply(all, f.Predicate(now)), all, now)
}

// ExportJSON writes the raw collection with 2-space indentation.
func (s *ExpenseService) ExportJSON(w io.Writer) error {
	return export.WriteExpensesJSON(w, s.All())
}

// Today is the current calendar day, used to name exports.
func (s *ExpenseService) Today() string {
	return s.opts.nowIn().Format(core.DateLayout)
}
