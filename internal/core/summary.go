package core

import (
	"sort"
	"strconv"
	"time"
)

const (
	EmptyFiltered = "No expenses found. Try adjusting your filters."
	EmptyStore    = "No expenses found. Add your first expense to get started!"
)

// TrendDays is the length of the daily spending trend.
const TrendDays = 7

type (
	CategoryAmount struct {
		Category Category `json:"category"`
		Name     string   `json:"name"`
		Icon     string   `json:"icon"`
		Amount   Money    `json:"amount"`
		// Percentage of the filtered total, 0..100.
		Percentage float64 `json:"percentage"`
	}

	DailyTotal struct {
		Date   string `json:"date"`
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}

	// ExpenseSummary is what the tracker shows next to a filtered list.
	ExpenseSummary struct {
		Total      Money            `json:"total"`
		Count      int              `json:"count"`
		CountLabel string           `json:"countLabel"`
		Categories []CategoryAmount `json:"categories"`
		Trend      []DailyTotal     `json:"trend"`
		Empty      string           `json:"empty,omitempty"`
	}
)

// TotalOf sums the amounts of expenses.
func TotalOf(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

// CountLabel renders "1 expense" or "N expenses".
func CountLabel(n int) string {
	if n == 1 {
		return "1 expense"
	}
	return strconv.Itoa(n) + " expenses"
}

// EmptyMessage returns the empty-state text for a filtered list, or "" when
// the list has entries.
func EmptyMessage(filtered, stored int) string {
	switch {
	case filtered > 0:
		return ""
	case stored > 0:
		return EmptyFiltered
	default:
		return EmptyStore
	}
}

// ByCategory groups expenses per category, largest amount first.
// Ties keep category display order.
func ByCategory(expenses []Expense) []CategoryAmount {
	sums := make(map[Category]int64)
	var total int64
	for _, e := range expenses {
		sums[e.Category] += e.Amount.Cents
		total += e.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(sums))
	for _, c := range Categories() {
		cents, ok := sums[c]
		if !ok {
			continue
		}
		out = append(out, newCategoryAmount(c, cents, total))
		delete(sums, c)
	}
	// categories outside the enum are folded into their own rows, after the known ones
	for c, cents := range sums {
		out = append(out, newCategoryAmount(c, cents, total))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	return out
}

func newCategoryAmount(c Category, cents, total int64) CategoryAmount {
	ca := CategoryAmount{Category: c, Name: c.Name(), Icon: c.Icon(), Amount: Money{Cents: cents}}
	if total > 0 {
		ca.Percentage = float64(cents) * 100 / float64(total)
	}
	return ca
}

// DailyTrend returns the spending of the TrendDays calendar days ending today,
// oldest first. Days without expenses are reported as zero.
func DailyTrend(expenses []Expense, now time.Time) []DailyTotal {
	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	sums := make(map[string]int64)
	for _, e := range expenses {
		sums[e.Date.In(loc).String()] += e.Amount.Cents
	}
	out := make([]DailyTotal, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		key := day.Format(DateLayout)
		out = append(out, DailyTotal{
			Date:   key,
			Label:  day.Format("Mon, Jan 2"),
			Amount: Money{Cents: sums[key]},
		})
	}
	return out
}

// Summarize builds the summary panel: aggregates over filtered, the trend
// over all stored expenses.
func Summarize(filtered, all []Expense, now time.Time) ExpenseSummary {
	return ExpenseSummary{
		Total:      TotalOf(filtered),
		Count:      len(filtered),
		CountLabel: CountLabel(len(filtered)),
		Categories: ByCategory(filtered),
		Trend:      DailyTrend(all, now),
		Empty:      EmptyMessage(len(filtered), len(all)),
	}
}
