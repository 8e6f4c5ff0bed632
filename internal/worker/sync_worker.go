package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/sheets"
	"tally/internal/storage"
)

// SyncWorker mirrors saved rounds and expenses to a spreadsheet. Every row
// starts with the record id so redelivered events are detected and deleted
// expenses can be found again.
type SyncWorker struct {
	mirror        sheets.Mirror
	store         storage.Store
	roundsSheet   string
	expensesSheet string
}

// NewSyncWorker creates a worker. store may be nil, in which case the
// startup check is skipped.
func NewSyncWorker(mirror sheets.Mirror, store storage.Store, roundsSheet, expensesSheet string) *SyncWorker {
	return &SyncWorker{
		mirror:        mirror,
		store:         store,
		roundsSheet:   roundsSheet,
		expensesSheet: expensesSheet,
	}
}

// HandleEvent dispatches one event from the queue.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	switch ev.Type {
	case amqp.RoundSaved:
		return w.HandleRoundSaved(ctx, ev.Round)
	case amqp.ExpenseCreated:
		return w.HandleExpenseCreated(ctx, ev.Expense)
	case amqp.ExpenseDeleted:
		return w.HandleExpenseDeleted(ctx, ev.Expense)
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

func (w *SyncWorker) HandleRoundSaved(ctx context.Context, r *amqp.RoundEvent) error {
	slog.InfoContext(ctx, "Processing round event",
		applog.FieldComponent, applog.ComponentWorker,
		"round_id", r.ID,
		"team", r.TeamName,
		"round", r.RoundNumber)
	return w.appendOnce(ctx, w.roundsSheet, r.ID, r.Row)
}

func (w *SyncWorker) HandleExpenseCreated(ctx context.Context, e *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		applog.FieldComponent, applog.ComponentWorker,
		"id", e.ID,
		"amount_cents", e.AmountCents)
	return w.appendOnce(ctx, w.expensesSheet, e.ID, e.Row)
}

// HandleExpenseDeleted blanks the mirrored row. A row that was never
// mirrored is not an error.
func (w *SyncWorker) HandleExpenseDeleted(ctx context.Context, e *amqp.ExpenseEvent) error {
	key := strconv.FormatInt(e.ID, 10)
	cleared, err := w.mirror.ClearRow(ctx, w.expensesSheet, key)
	if err != nil {
		return fmt.Errorf("clear expense row: %w", err)
	}
	if !cleared {
		slog.WarnContext(ctx, "Deleted expense was not mirrored, nothing to clear",
			applog.FieldComponent, applog.ComponentWorker, "id", e.ID)
		return nil
	}
	slog.InfoContext(ctx, "Cleared expense row", applog.FieldComponent, applog.ComponentWorker, "id", e.ID)
	return nil
}

// StartupSyncCheck appends rounds and expenses that are in the store but
// missing from the spreadsheet, recovering events lost while the worker or
// the broker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.store == nil {
		slog.InfoContext(ctx, "No shared store configured, skipping startup sync", applog.FieldComponent, applog.ComponentWorker)
		return nil
	}

	rounds, _, err := storage.LoadJSON(ctx, w.store, storage.KeyRounds, []core.Round{})
	if err != nil {
		return fmt.Errorf("load rounds for startup check: %w", err)
	}
	expenses, _, err := storage.LoadJSON(ctx, w.store, storage.KeyExpenses, []core.Expense{})
	if err != nil {
		return fmt.Errorf("load expenses for startup check: %w", err)
	}

	synced, failed := 0, 0
	for _, r := range rounds {
		if err := w.appendOnce(ctx, w.roundsSheet, r.ID(), export.RoundRow(r)); err != nil {
			slog.ErrorContext(ctx, "Failed to sync round during startup",
				applog.FieldComponent, applog.ComponentWorker, "round_id", r.ID(), "error", err)
			failed++
			continue
		}
		synced++
	}
	// stored newest first; mirror oldest first
	for i := len(expenses) - 1; i >= 0; i-- {
		e := expenses[i]
		if err := w.appendOnce(ctx, w.expensesSheet, e.ID, export.ExpenseRow(e)); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				applog.FieldComponent, applog.ComponentWorker, "id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		applog.FieldComponent, applog.ComponentWorker,
		"total", len(rounds)+len(expenses),
		"checked", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) appendOnce(ctx context.Context, sheet string, id int64, row []string) error {
	key := strconv.FormatInt(id, 10)
	if ref, found, err := w.mirror.FindRow(ctx, sheet, key); err != nil {
		return fmt.Errorf("look up row %s: %w", key, err)
	} else if found {
		slog.DebugContext(ctx, "Row already mirrored", applog.FieldComponent, applog.ComponentWorker, "id", id, "sheets_ref", ref)
		return nil
	}

	ref, err := w.mirror.AppendRow(ctx, sheet, append([]string{key}, row...))
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully synced row",
		applog.FieldComponent, applog.ComponentWorker,
		"id", id,
		"sheet", sheet,
		"sheets_ref", ref)
	return nil
}
