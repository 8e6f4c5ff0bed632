package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "tally/internal/log"
	ports "tally/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		applog.FieldComponent, applog.ComponentSheets,
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	return newClient(ctx, id,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newClient(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", applog.FieldComponent, applog.ComponentSheets)
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", applog.FieldComponent, applog.ComponentSheets, "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendRow writes row into the first empty row below the used range of
// column A. Values are stored as typed (RAW), so a team called "=1+1" stays
// text.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(row) == 0 {
		return "", errors.New("empty row")
	}
	keys, err := c.readKeys(ctx, sheet)
	if err != nil {
		return "", err
	}
	nextRow := len(keys) + 1
	rng := rowRange(sheet, nextRow, len(row))

	vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

// FindRow looks key up in column A.
func (c *Client) FindRow(ctx context.Context, sheet, key string) (string, bool, error) {
	if c.svc == nil {
		return "", false, errors.New("sheets service not initialized")
	}
	keys, err := c.readKeys(ctx, sheet)
	if err != nil {
		return "", false, err
	}
	n := rowNumber(keys, key)
	if n == 0 {
		return "", false, nil
	}
	return wholeRow(sheet, n), true, nil
}

// ClearRow blanks the row keyed by key. The row itself stays in place so
// that row numbers of later entries do not shift.
func (c *Client) ClearRow(ctx context.Context, sheet, key string) (bool, error) {
	rng, found, err := c.FindRow(ctx, sheet, key)
	if err != nil || !found {
		return false, err
	}
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("clear %s: %w", rng, err)
	}
	return true, nil
}

func (c *Client) readKeys(ctx context.Context, sheet string) ([]string, error) {
	rng := quoteSheet(sheet) + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	keys := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			keys[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return keys, nil
}
