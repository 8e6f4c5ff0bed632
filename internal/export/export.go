// Package export renders round history as CSV and expenses as JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tally/internal/core"
)

// RoundsFilename is the download name of the CSV export.
const RoundsFilename = "wer_rounds.csv"

// ExpensesFilename returns the download name of the JSON export for a day.
func ExpensesFilename(day string) string {
	return "expenses-" + day + ".json"
}

// RoundHeader is the fixed CSV column order.
var RoundHeader = []string{
	"Round", "Team Name", "Team Number", "Group", "Seat", "Total", "Time(s)",
	"Departure Bonus", "Restart Bonus", "Restart Count", "Objectives",
}

// RoundRow renders one round in RoundHeader order. Checked objective keys are
// sorted and joined with " | ".
func RoundRow(r core.Round) []string {
	g, s := r.General, r.Scoring
	return []string{
		strconv.Itoa(g.RoundNumber),
		g.TeamName,
		g.TeamNumber,
		g.Group,
		g.VenueSeat,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.ElapsedSec),
		strconv.Itoa(s.DepartureBonus),
		strconv.Itoa(s.RestartBonus),
		strconv.Itoa(s.RestartCount),
		strings.Join(s.CheckedKeys(), " | "),
	}
}

// WriteRoundsCSV writes the header and one row per round. Fields containing a
// comma, quote or newline are quoted with inner quotes doubled.
func WriteRoundsCSV(w io.Writer, rounds []core.Round) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RoundHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rounds {
		if err := cw.Write(RoundRow(r)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteExpensesJSON writes the raw expense collection with 2-space indent.
func WriteExpensesJSON(w io.Writer, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(expenses); err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	return nil
}

// ExpenseRow renders an expense for spreadsheet mirroring:
// date, description, category name, amount.
func ExpenseRow(e core.Expense) []string {
	return []string{e.Date.String(), e.Description, e.Category.Name(), e.Amount.Decimal()}
}
