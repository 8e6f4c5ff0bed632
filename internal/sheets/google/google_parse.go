package google

import (
	"fmt"
	"strings"
)

// quoteSheet returns the sheet name as used in A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(strings.TrimSpace(name), "'", "''") + "'"
}

// columnLetter converts a 1-based column index to its letters (1 → A, 27 → AA).
func columnLetter(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// rowRange addresses columns A.. of one row wide enough for width cells.
func rowRange(sheet string, row, width int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, columnLetter(width), row)
}

func wholeRow(sheet string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteSheet(sheet), row, row)
}

// rowNumber returns the 1-based row whose key equals key, or 0. The last
// match wins so that a re-appended record shadows an older one.
func rowNumber(keys []string, key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] == key {
			return i + 1
		}
	}
	return 0
}

func toValues(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
