package memory

import (
	"context"
	"testing"
)

func TestStoreAppendFindClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendRow(ctx, "Rounds", []string{"1", "Bots"})
	if err != nil || ref != "mem:Rounds:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	s.AppendRow(ctx, "Rounds", []string{"2", "Owls"})

	ref, found, _ := s.FindRow(ctx, "Rounds", "2")
	if !found || ref != "mem:Rounds:2" {
		t.Fatalf("FindRow = %q %v", ref, found)
	}
	if _, found, _ := s.FindRow(ctx, "Expenses", "2"); found {
		t.Fatal("rows leaked across sheets")
	}

	cleared, _ := s.ClearRow(ctx, "Rounds", "1")
	if !cleared {
		t.Fatal("expected row to be cleared")
	}
	rows := s.Rows("Rounds")
	if len(rows) != 2 || len(rows[0]) != 0 || rows[1][1] != "Owls" {
		t.Fatalf("rows = %v", rows)
	}
	if cleared, _ := s.ClearRow(ctx, "Rounds", "1"); cleared {
		t.Fatal("second clear should find nothing")
	}
}

func TestStoreRejectsEmptyRow(t *testing.T) {
	if _, err := New().AppendRow(context.Background(), "Rounds", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestStoreRowsAreCopies(t *testing.T) {
	s := New()
	row := []string{"1", "a"}
	s.AppendRow(context.Background(), "S", row)
	row[1] = "changed"
	got := s.Rows("S")
	got[0][0] = "x"
	if s.Rows("S")[0][0] != "1" || s.Rows("S")[0][1] != "a" {
		t.Fatal("store shares row slices with callers")
	}
}
