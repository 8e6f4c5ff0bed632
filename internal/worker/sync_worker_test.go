package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
)

func sampleRound() core.Round {
	return core.Round{
		Session: core.Session{
			General:         core.General{RoundNumber: 2, TeamName: "Bots", TeamNumber: "7"},
			SelectedTaskIDs: []string{"a"},
			Scoring:         core.Scoring{Objectives: map[string]bool{"a:o1": true}, Total: 40},
		},
		CompletedAt: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}

func sampleExpense(id int64) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      core.Money{Cents: 1250},
		Description: "Lunch",
		Category:    core.Food,
		Date:        core.NewDate(2025, 5, 10, time.UTC),
	}
}

func TestHandleRoundSavedIsIdempotent(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(mirror, nil, "Rounds", "Expenses")
	ctx := context.Background()
	ev := amqp.NewRoundSavedEvent(sampleRound())

	for i := 0; i < 2; i++ {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	rows := mirror.Rows("Rounds")
	if len(rows) != 1 {
		t.Fatalf("expected one row after redelivery, got %d", len(rows))
	}
	if rows[0][0] != "1746867600000" || rows[0][2] != "Bots" {
		t.Fatalf("row = %v", rows[0])
	}
}

func TestExpenseCreateThenDelete(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(mirror, nil, "Rounds", "Expenses")
	ctx := context.Background()
	e := sampleExpense(42)

	if err := w.HandleEvent(ctx, amqp.NewExpenseCreatedEvent(e)); err != nil {
		t.Fatal(err)
	}
	rows := mirror.Rows("Expenses")
	if len(rows) != 1 || rows[0][0] != "42" || rows[0][1] != "2025-05-10" || rows[0][4] != "12.5" {
		t.Fatalf("rows = %v", rows)
	}

	if err := w.HandleEvent(ctx, amqp.NewExpenseDeletedEvent(e)); err != nil {
		t.Fatal(err)
	}
	if rows := mirror.Rows("Expenses"); len(rows[0]) != 0 {
		t.Fatalf("row not cleared: %v", rows)
	}

	// deleting again is a no-op
	if err := w.HandleEvent(ctx, amqp.NewExpenseDeletedEvent(e)); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestHandleEventUnknownType(t *testing.T) {
	w := NewSyncWorker(memory.New(), nil, "Rounds", "Expenses")
	if err := w.HandleEvent(context.Background(), &amqp.Event{Type: "nope"}); err == nil {
		t.Fatal("expected error")
	}
}

type brokenMirror struct{ *memory.Store }

func (brokenMirror) AppendRow(context.Context, string, []string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestAppendFailureIsReturned(t *testing.T) {
	w := NewSyncWorker(brokenMirror{memory.New()}, nil, "Rounds", "Expenses")
	if err := w.HandleEvent(context.Background(), amqp.NewExpenseCreatedEvent(sampleExpense(1))); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	storage.SaveJSON(ctx, store, storage.KeyRounds, []core.Round{sampleRound()})
	storage.SaveJSON(ctx, store, storage.KeyExpenses, []core.Expense{sampleExpense(2), sampleExpense(1)})

	mirror := memory.New()
	mirror.AppendRow(ctx, "Expenses", []string{"1", "already there"})
	w := NewSyncWorker(mirror, store, "Rounds", "Expenses")

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(mirror.Rows("Rounds")); got != 1 {
		t.Fatalf("rounds rows = %d", got)
	}
	rows := mirror.Rows("Expenses")
	if len(rows) != 2 || rows[0][1] != "already there" || rows[1][0] != "2" {
		t.Fatalf("expense rows = %v", rows)
	}

	if err := NewSyncWorker(mirror, nil, "Rounds", "Expenses").StartupSyncCheck(ctx); err != nil {
		t.Fatalf("nil store should be skipped: %v", err)
	}
}
