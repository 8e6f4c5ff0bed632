package core

import (
	"math"
	"strconv"
	"strings"
)

// ScoreBreakdown is the result of ComputeScore.
type ScoreBreakdown struct {
	ObjectivesTotal int     `json:"objectivesTotal"`
	DepartureBonus  int     `json:"departureBonus"`
	RestartFactor   float64 `json:"restartFactor"`
	RestartAdjusted int     `json:"restartAdjusted"`
	Total           int     `json:"total"`
}

// RestartFactor is the share of the restart bonus kept after count restarts:
// 25% is lost per restart, floored at zero.
func RestartFactor(count int) float64 {
	return math.Max(0, 1-0.25*float64(count))
}

// RestartAdjusted applies RestartFactor to bonus, rounding halves up.
func RestartAdjusted(bonus, count int) int {
	return int(math.Floor(float64(bonus)*RestartFactor(count) + 0.5))
}

// ObjectivesTotal sums the points of every checked objective of the chosen tasks.
// Keys absent from checked count as unchecked.
func ObjectivesTotal(chosen []Task, checked map[string]bool) int {
	total := 0
	for _, t := range chosen {
		for _, o := range t.Objectives {
			if checked[ObjectiveKey(t.ID, o.ID)] {
				total += o.Points
			}
		}
	}
	return total
}

// ComputeScore derives the grand total of a scoring sheet.
func ComputeScore(chosen []Task, s Scoring) ScoreBreakdown {
	b := ScoreBreakdown{
		ObjectivesTotal: ObjectivesTotal(chosen, s.Objectives),
		DepartureBonus:  s.DepartureBonus,
		RestartFactor:   RestartFactor(s.RestartCount),
		RestartAdjusted: RestartAdjusted(s.RestartBonus, s.RestartCount),
	}
	b.Total = b.ObjectivesTotal + b.DepartureBonus + b.RestartAdjusted
	return b
}

// ClampRestarts keeps a restart count within [0, MaxRestarts].
func ClampRestarts(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxRestarts {
		return MaxRestarts
	}
	return n
}

// ParseScore reads a points or bonus field leniently: decimals are rounded
// half up and anything non-numeric counts as 0.
func ParseScore(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Floor(f + 0.5))
}
