package core

import (
	"testing"
	"time"
)

func TestRestartAdjusted(t *testing.T) {
	cases := []struct {
		bonus, count, want int
	}{
		{100, 0, 100},
		{100, 1, 75},
		{100, 2, 50},
		{100, 3, 25},
		{100, 4, 0},
		{100, 5, 0},
		{10, 1, 8}, // 7.5 rounds half up
		{0, 2, 0},
		{40, 1, 30},
	}
	for _, tc := range cases {
		if got := RestartAdjusted(tc.bonus, tc.count); got != tc.want {
			t.Fatalf("RestartAdjusted(%d, %d) = %d, want %d", tc.bonus, tc.count, got, tc.want)
		}
	}
}

func TestComputeScore(t *testing.T) {
	chosen := []Task{
		{ID: "a", Name: "A", Objectives: []Objective{{ID: "o1", Points: 10}, {ID: "o2", Points: 20}}},
		{ID: "b", Name: "B", Objectives: []Objective{{ID: "o1", Points: 15}}},
	}
	s := Scoring{
		Objectives: map[string]bool{
			ObjectiveKey("a", "o1"): true,
			ObjectiveKey("a", "o2"): true,
			ObjectiveKey("b", "o1"): false,
			// not among chosen tasks
			ObjectiveKey("z", "o1"): true,
		},
		DepartureBonus: 5,
		RestartBonus:   40,
		RestartCount:   1,
	}
	got := ComputeScore(chosen, s)
	if got.ObjectivesTotal != 30 {
		t.Fatalf("objectives total = %d, want 30", got.ObjectivesTotal)
	}
	if got.RestartFactor != 0.75 || got.RestartAdjusted != 30 {
		t.Fatalf("restart = %v/%d, want 0.75/30", got.RestartFactor, got.RestartAdjusted)
	}
	if got.Total != 65 {
		t.Fatalf("total = %d, want 65", got.Total)
	}
}

func TestComputeScoreNilObjectives(t *testing.T) {
	chosen := []Task{{ID: "a", Objectives: []Objective{{ID: "o1", Points: 10}}}}
	if got := ComputeScore(chosen, Scoring{DepartureBonus: 3}); got.Total != 3 {
		t.Fatalf("total = %d, want 3", got.Total)
	}
}

func TestClampRestarts(t *testing.T) {
	for in, want := range map[int]int{-3: 0, 0: 0, 2: 2, 4: 4, 9: 4} {
		if got := ClampRestarts(in); got != want {
			t.Fatalf("ClampRestarts(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession(time.Now())
	s.SelectedTaskIDs = append(s.SelectedTaskIDs, "a")
	s.Scoring.Objectives["a:o1"] = true

	c := s.Clone()
	c.SelectedTaskIDs[0] = "b"
	c.Scoring.Objectives["a:o1"] = false

	if s.SelectedTaskIDs[0] != "a" || !s.Scoring.Objectives["a:o1"] {
		t.Fatalf("clone shares state with original")
	}
	var nilSession *Session
	if nilSession.Clone() != nil {
		t.Fatalf("clone of nil session should be nil")
	}
}

func TestChosenTasksKeepsCatalogOrder(t *testing.T) {
	catalog := []Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := ChosenTasks(catalog, []string{"c", "a", "missing"})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestRoundPrintTitle(t *testing.T) {
	r := Round{Session: Session{General: General{TeamName: "  Robo  Cats ", RoundNumber: 3}}}
	if got := r.PrintTitle(); got != "Robo_Cats_3" {
		t.Fatalf("PrintTitle = %q", got)
	}
}

func TestCheckedKeysSorted(t *testing.T) {
	s := Scoring{Objectives: map[string]bool{"b:1": true, "a:2": true, "a:1": false}}
	got := s.CheckedKeys()
	if len(got) != 2 || got[0] != "a:2" || got[1] != "b:1" {
		t.Fatalf("CheckedKeys = %v", got)
	}
}

func TestParseScore(t *testing.T) {
	cases := map[string]int{"10": 10, " 7 ": 7, "2.5": 3, "-4": -4, "": 0, "abc": 0, "NaN": 0, "Inf": 0}
	for in, want := range cases {
		if got := ParseScore(in); got != want {
			t.Fatalf("ParseScore(%q) = %d, want %d", in, got, want)
		}
	}
}
