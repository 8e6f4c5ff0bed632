// Package storage persists named JSON documents in a key/value store.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
	applog "tally/internal/log"
)

// Fixed document keys.
const (
	KeyTasks    = "wer_tasks"
	KeySession  = "wer_current_session"
	KeyRounds   = "wer_rounds"
	KeyExpenses = "expenses"
)

// ErrNotFound is returned by Get when a key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a synchronous key/value store of raw JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// LoadJSON decodes the document under key into a value of type T.
//
// A missing key yields fallback with found=false. A present value that cannot
// be decoded also yields fallback; the failure is logged as a
// core.StoreParseError and never returned. Only store failures are returned.
func LoadJSON[T any](ctx context.Context, s Store, key string, fallback T) (v T, found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, false, nil
	}
	if err != nil {
		return fallback, false, fmt.Errorf("get %s: %w", key, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fallback, true, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		perr := &core.StoreParseError{Key: key, Err: err}
		slog.WarnContext(ctx, "Stored value unreadable, using default",
			applog.FieldComponent, applog.ComponentStorage,
			"key", key,
			"error", perr)
		return fallback, true, nil
	}
	return out, true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
