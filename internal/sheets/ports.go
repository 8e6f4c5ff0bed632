package sheets

import (
	"context"
)

// Ports for outbound spreadsheet adapters. Rows are keyed by their first
// column, which holds the id of the mirrored record.
type (
	RowAppender interface {
		// AppendRow writes row after the last used row of sheet.
		AppendRow(ctx context.Context, sheet string, row []string) (rowRef string, err error)
	}

	RowFinder interface {
		FindRow(ctx context.Context, sheet, key string) (rowRef string, found bool, err error)
	}

	RowClearer interface {
		// ClearRow blanks the row whose key column equals key.
		ClearRow(ctx context.Context, sheet, key string) (cleared bool, err error)
	}

	// Mirror is everything the sync worker needs from a spreadsheet.
	Mirror interface {
		RowAppender
		RowFinder
		RowClearer
	}
)
