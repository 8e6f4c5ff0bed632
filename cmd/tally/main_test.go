package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI against a file store in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "file")
	t.Setenv("DATA_FILE_PATH", filepath.Join(dir, "tally.json"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("AMQP_URL", "")
	t.Setenv("TASKS_SEED_FILE", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExpensesCommands(t *testing.T) {
	dir := t.TempDir()

	if out, err := run(t, dir, "expenses", "list"); err != nil || !strings.Contains(out, "Add your first expense") {
		t.Fatalf("empty list = %q, %v", out, err)
	}

	out, err := run(t, dir, "expenses", "add", "--amount", "1500", "--description", "Groceries", "--category", "food", "--date", "2025-05-10")
	if err != nil || !strings.HasPrefix(out, "Added expense ") {
		t.Fatalf("add = %q, %v", out, err)
	}

	if _, err := run(t, dir, "expenses", "add", "--amount", "0", "--description", "x"); err == nil {
		t.Fatalf("invalid expense accepted")
	}

	out, err = run(t, dir, "expenses", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Groceries", "Food & Dining", "1,500.00", "1 expense"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	path := filepath.Join(dir, "expenses.json")
	if _, err := run(t, dir, "expenses", "export", "-o", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), `"description": "Groceries"`) {
		t.Fatalf("export file = %q, %v", data, err)
	}

	if _, err := run(t, dir, "expenses", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if out, _ := run(t, dir, "expenses", "list"); strings.Contains(out, "Groceries") {
		t.Fatalf("expenses survived clear:\n%s", out)
	}
}

func TestRoundsListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "rounds", "list")
	if err != nil || strings.TrimSpace(out) != "No rounds found." {
		t.Fatalf("rounds list = %q, %v", out, err)
	}
}

func TestTasksImportExport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tasks.yaml")
	yaml := "tasks:\n  - id: lift\n    name: Lift\n    objectives:\n      - id: o1\n        name: Raised\n        points: 40\n"
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if out, err := run(t, dir, "tasks", "import", file); err != nil || !strings.Contains(out, "Imported 1 tasks") {
		t.Fatalf("import = %q, %v", out, err)
	}

	out, err := run(t, dir, "tasks", "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "id: lift") || !strings.Contains(out, "points: 40") {
		t.Fatalf("export missing imported task:\n%s", out)
	}
}

func TestRateLimitConfigUsesSetting(t *testing.T) {
	rl := rateLimitConfig(500)
	if rl.RequestsPerMinute != 500 || rl.CleanupInterval <= 0 {
		t.Fatalf("rate limit config = %+v", rl)
	}
}
