package amqp

import (
	"testing"
	"time"

	"tally/internal/core"
)

func TestRoundSavedEvent(t *testing.T) {
	completed := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	r := core.Round{
		Session: core.Session{
			General: core.General{RoundNumber: 3, TeamName: "Robo Cats", TeamNumber: "T1"},
			Scoring: core.Scoring{Total: 42, ElapsedSec: 75},
		},
		CompletedAt: completed,
	}
	ev := NewRoundSavedEvent(r)
	data, err := ev.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := EventFromJSON(data)
	if err != nil {
		t.Fatalf("EventFromJSON: %v", err)
	}
	if back.Type != RoundSaved || back.Round.ID != completed.UnixMilli() || back.Round.Total != 42 {
		t.Fatalf("unexpected event %+v", back.Round)
	}
	if len(back.Round.Row) != 11 || back.Round.Row[1] != "Robo Cats" {
		t.Fatalf("row = %v", back.Round.Row)
	}
}

func TestExpenseEvents(t *testing.T) {
	e := core.Expense{ID: 7, Amount: core.Money{Cents: 1250}, Description: "Lunch", Category: core.Food, Date: core.NewDate(2025, 1, 2, time.UTC)}
	created := NewExpenseCreatedEvent(e)
	if created.Expense.AmountCents != 1250 || created.Expense.Date != "2025-01-02" || len(created.Expense.Row) != 4 {
		t.Fatalf("created = %+v", created.Expense)
	}
	deleted := NewExpenseDeletedEvent(e)
	if deleted.Type != ExpenseDeleted || deleted.Expense.Row != nil {
		t.Fatalf("deleted = %+v", deleted.Expense)
	}
}

func TestEventFromJSONRejectsBadPayloads(t *testing.T) {
	cases := []string{
		`{"type":"round.saved"}`,
		`{"type":"expense.created"}`,
		`{"type":"other","round":{}}`,
		`{"type":`,
	}
	for _, c := range cases {
		if _, err := EventFromJSON([]byte(c)); err == nil {
			t.Fatalf("expected error for %s", c)
		}
	}
}
