package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tally/internal/backend"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentCLI, Output: io.Discard})
}

func TestSetupLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "component=app") {
		t.Fatalf("missing component: %q", out)
	}
}

func TestNewServicesUsesSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	yaml := "tasks:\n  - id: dock\n    name: Docking\n    objectives:\n      - id: o1\n        name: Parked\n        points: 25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	cfg := &config.Config{
		TasksSeedFile:      path,
		SeedSampleExpenses: true,
		TimerRefresh:       50 * time.Millisecond,
		TimeZone:           "UTC",
	}
	svc, err := NewServices(context.Background(), cfg, backend.Backend{Store: storage.NewMemoryStore()}, quietLogger())
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	tasks := svc.Scoring.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "dock" || tasks[0].Objectives[0].Points != 25 {
		t.Fatalf("unexpected catalog: %+v", tasks)
	}
	if n := len(svc.Expenses.All()); n != 3 {
		t.Fatalf("sample expenses = %d, want 3", n)
	}
}

func TestNewServicesRejectsMissingSeedFile(t *testing.T) {
	cfg := &config.Config{TasksSeedFile: filepath.Join(t.TempDir(), "absent.yaml"), TimerRefresh: time.Second}
	if _, err := NewServices(context.Background(), cfg, backend.Backend{Store: storage.NewMemoryStore()}, quietLogger()); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}

type fakeServer struct {
	mu       sync.Mutex
	stop     chan struct{}
	listen   error
	shutdown bool
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{stop: make(chan struct{}), listen: listenErr}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listen != nil {
		return f.listen
	}
	<-f.stop
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.shutdown {
		f.shutdown = true
		close(f.stop)
	}
	return nil
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newFakeServer(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, quietLogger(), time.Second) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
	if !srv.shutdown {
		t.Fatalf("Shutdown was not called")
	}
}

func TestServeReportsListenError(t *testing.T) {
	srv := newFakeServer(errors.New("address in use"))
	err := Serve(context.Background(), srv, quietLogger(), time.Second)
	if err == nil || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("Serve error = %v", err)
	}
}
