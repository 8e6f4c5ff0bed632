package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"tally/internal/core"
)

func TestDefaultTasks(t *testing.T) {
	tasks := DefaultTasks()
	if len(tasks) != 2 || tasks[0].Name != "Sample Task A" || tasks[1].Name != "Sample Task B" {
		t.Fatalf("unexpected defaults %+v", tasks)
	}
	if tasks[0].Objectives[1].Points != 20 || tasks[1].Objectives[0].Name != "Reach Zone" {
		t.Fatalf("unexpected objectives %+v", tasks)
	}
	if tasks[0].ID == tasks[1].ID || len(tasks[0].ID) != 8 {
		t.Fatalf("ids should be unique 8-char strings: %q %q", tasks[0].ID, tasks[1].ID)
	}
}

func TestParseTasks(t *testing.T) {
	data := []byte(`
tasks:
  - id: t1
    name: " Park the rover "
    objectives:
      - id: o1
        name: Inside zone
        points: 25
      - name: ""
        points: 5
      - name: Penalty
        points: -10
  - name: ""
  - name: Climb
`)
	got, err := ParseTasks(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []core.Task{
		{ID: "t1", Name: "Park the rover", Objectives: []core.Objective{
			{ID: "o1", Name: "Inside zone", Points: 25},
			{Name: "Penalty", Points: 0},
		}},
		{Name: "Climb", Objectives: []core.Objective{}},
	}
	ignoreGenerated := cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".ID"
	}, cmp.Ignore())
	if diff := cmp.Diff(want, got, ignoreGenerated, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("ParseTasks mismatch (-want +got):\n%s", diff)
	}
	if got[0].Objectives[1].ID == "" || got[1].ID == "" {
		t.Fatalf("missing ids should be generated")
	}
}

func TestTasksFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	tasks := DefaultTasks()
	out, err := MarshalTasks(tasks)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTasksFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tasks, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSampleExpenses(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	got := SampleExpenses(now)
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	if got[1].Date.String() != "2025-02-28" || got[2].Date.String() != "2025-02-27" {
		t.Fatalf("unexpected dates %s %s", got[1].Date, got[2].Date)
	}
	for _, e := range got {
		if err := e.Validate(); err != nil {
			t.Fatalf("sample %d invalid: %v", e.ID, err)
		}
	}
}
