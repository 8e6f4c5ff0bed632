package backend

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/config"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "file", DataFilePath: "x.json", AMQPQueue: "q"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != FileBackend || cfg.DataFilePath != "x.json" || cfg.AMQPQueue != "q" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"file without path", Config{Type: FileBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"amqp complete", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e", AMQPQueue: "q"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	f := NewFactory(nil)
	ctx := context.Background()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "tally.db")},
		{Type: FileBackend, DataFilePath: filepath.Join(dir, "tally.json")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Cleanup()
			if res.Backend.Events != nil {
				t.Fatal("events should be disabled without AMQP_URL")
			}
			if err := storage.SaveJSON(ctx, res.Backend.Store, storage.KeyRounds, []int{}); err != nil {
				t.Fatalf("store not writable: %v", err)
			}
		})
	}
}

func TestCreateMirrorFallsBackToMemory(t *testing.T) {
	m, err := NewFactory(nil).CreateMirror(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(*memory.Store); !ok {
		t.Fatalf("mirror = %T, want *memory.Store", m)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" {
		t.Fatalf("types = %v", got)
	}
}
