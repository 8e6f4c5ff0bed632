package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu       sync.Mutex
	column   [][]any
	updates  []string
	bodies   []gsheet.ValueRange
	inputOpt []string
	cleared  []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(gsheet.ValueRange{Range: rng, Values: f.column})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates = append(f.updates, rng)
		f.bodies = append(f.bodies, vr)
		f.inputOpt = append(f.inputOpt, r.URL.Query().Get("valueInputOption"))
		json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{UpdatedRange: rng})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":clear"):
		f.cleared = append(f.cleared, strings.TrimSuffix(rng, ":clear"))
		json.NewEncoder(w).Encode(gsheet.ClearValuesResponse{ClearedRange: rng})
	default:
		http.Error(w, "unexpected request", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := newClient(context.Background(), "sheet-id",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	ctx := context.Background()
	if _, err := loadCredentials(ctx, Config{}); err == nil {
		t.Fatal("expected error without credentials")
	}

	got, err := loadCredentials(ctx, Config{CredentialsJSON: ` {"type":"service_account"} `, CredentialsFile: "/nope"})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials: %q %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"k":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = loadCredentials(ctx, Config{CredentialsFile: path})
	if err != nil || string(got) != `{"k":1}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}

	if _, err := loadCredentials(ctx, Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClient_AppendRow(t *testing.T) {
	f := &fakeSheets{column: [][]any{{"ID"}, {"1"}, {"2"}}}
	c := newFakeClient(t, f)

	ref, err := c.AppendRow(context.Background(), "Rounds", []string{"3", "=1+1", "Bots"})
	if err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if ref != "'Rounds'!A4:C4" {
		t.Errorf("ref = %q", ref)
	}
	if len(f.updates) != 1 || f.updates[0] != "'Rounds'!A4:C4" {
		t.Fatalf("updates = %v", f.updates)
	}
	if f.inputOpt[0] != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", f.inputOpt[0])
	}
	if row := f.bodies[0].Values[0]; len(row) != 3 || row[1] != "=1+1" {
		t.Errorf("body = %v", f.bodies[0].Values)
	}

	if _, err := c.AppendRow(context.Background(), "Rounds", nil); err == nil {
		t.Error("expected error for empty row")
	}
}

func TestClient_FindAndClearRow(t *testing.T) {
	f := &fakeSheets{column: [][]any{{"ID"}, {"10"}, {"20"}}}
	c := newFakeClient(t, f)
	ctx := context.Background()

	ref, found, err := c.FindRow(ctx, "Expenses", "20")
	if err != nil || !found || ref != "'Expenses'!3:3" {
		t.Fatalf("FindRow = %q %v %v", ref, found, err)
	}

	cleared, err := c.ClearRow(ctx, "Expenses", "10")
	if err != nil || !cleared {
		t.Fatalf("ClearRow = %v %v", cleared, err)
	}
	if len(f.cleared) != 1 || f.cleared[0] != "'Expenses'!2:2" {
		t.Fatalf("cleared = %v", f.cleared)
	}

	cleared, err = c.ClearRow(ctx, "Expenses", "99")
	if err != nil || cleared {
		t.Fatalf("ClearRow(missing) = %v %v", cleared, err)
	}
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	if _, err := c.AppendRow(context.Background(), "Rounds", []string{"1"}); err == nil {
		t.Error("expected error from AppendRow")
	}
	if _, _, err := c.FindRow(context.Background(), "Rounds", "1"); err == nil {
		t.Error("expected error from FindRow")
	}
}
