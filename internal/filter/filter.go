// Package filter composes record predicates for the round history and the
// expense list. Filters hold no state and are evaluated on every call.
package filter

import (
	"strings"
	"time"

	"tally/internal/core"
)

// Predicate reports whether an item passes a filter.
type Predicate[T any] func(T) bool

// All is the conjunction of preds. Nil predicates are skipped.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if p != nil && !p(v) {
				return false
			}
		}
		return true
	}
}

// Apply returns the items that pass pred, preserving order.
func Apply[T any](items []T, pred Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred == nil || pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Window is an inclusive time range.
type Window struct {
	From, To time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// DayWindow spans the calendar day of t in loc, from 00:00:00 to 23:59:59.
func DayWindow(t time.Time, loc *time.Location) Window {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(0, 0, 1).Add(-time.Second)}
}

// RoundFilter selects rounds from history. Zero fields match everything.
type RoundFilter struct {
	Team        string `json:"team"`
	RoundNumber int    `json:"roundNumber"`
	// Day is a YYYY-MM-DD calendar day in the filter location.
	Day string `json:"day"`
}

// Predicate builds the round predicate. An unparsable Day is a ValidationError.
func (f RoundFilter) Predicate(loc *time.Location) (Predicate[core.Round], error) {
	var preds []Predicate[core.Round]
	if team := strings.ToLower(strings.TrimSpace(f.Team)); team != "" {
		preds = append(preds, func(r core.Round) bool {
			hay := strings.ToLower(r.General.TeamName + " " + r.General.TeamNumber)
			return strings.Contains(hay, team)
		})
	}
	if f.RoundNumber != 0 {
		n := f.RoundNumber
		preds = append(preds, func(r core.Round) bool { return r.General.RoundNumber == n })
	}
	if day := strings.TrimSpace(f.Day); day != "" {
		d, err := core.ParseDate(day, loc)
		if err != nil {
			return nil, core.NewValidationError("day", "Date must be YYYY-MM-DD")
		}
		w := DayWindow(d.Time, loc)
		preds = append(preds, func(r core.Round) bool { return w.Contains(r.When()) })
	}
	return All(preds...), nil
}

// Period is a relative date range for the expense list.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Window returns the range of the period around now, in now's location.
// The second result is false for PeriodAll and unknown periods.
func (p Period) Window(now time.Time) (Window, bool) {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	// calendar days are 23 or 25 hours long across DST changes
	endOfDay := func(t time.Time) time.Time { return t.AddDate(0, 0, 1).Add(-time.Nanosecond) }

	switch p {
	case PeriodToday:
		return Window{From: today, To: endOfDay(today)}, true
	case PeriodWeek:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return Window{From: start, To: endOfDay(start.AddDate(0, 0, 6))}, true
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Window{From: start, To: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}, true
	case PeriodYear:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return Window{From: start, To: start.AddDate(1, 0, 0).Add(-time.Nanosecond)}, true
	default:
		return Window{}, false
	}
}

// ExpenseFilter selects expenses by category and period.
type ExpenseFilter struct {
	Category core.Category `json:"category"`
	Period   Period        `json:"period"`
}

// Predicate builds the expense predicate against now. Expense dates are read as
// calendar days in now's location.
func (f ExpenseFilter) Predicate(now time.Time) Predicate[core.Expense] {
	var preds []Predicate[core.Expense]
	if c := core.Category(strings.TrimSpace(string(f.Category))); c != "" && c != "all" {
		preds = append(preds, func(e core.Expense) bool { return e.Category == c })
	}
	if w, ok := f.Period.Window(now); ok {
		loc := now.Location()
		preds = append(preds, func(e core.Expense) bool { return w.Contains(e.Date.In(loc).Time) })
	}
	return All(preds...)
}
