package core

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxSelectedTasks caps how many catalog tasks a single round may score.
	MaxSelectedTasks = 7
	// MaxRestarts is the upper bound of Scoring.RestartCount.
	MaxRestarts = 4
)

type (
	Objective struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Points int    `json:"points"`
	}

	Task struct {
		ID         string      `json:"id"`
		Name       string      `json:"name"`
		Objectives []Objective `json:"objectives"`
	}

	General struct {
		RoundNumber int    `json:"roundNumber"`
		VenueSeat   string `json:"venueSeat"`
		TeamNumber  string `json:"teamNumber"`
		TeamName    string `json:"teamName"`
		Group       string `json:"group"`
	}

	Scoring struct {
		// Objectives is keyed by ObjectiveKey(taskID, objectiveID).
		Objectives     map[string]bool `json:"objectives"`
		DepartureBonus int             `json:"departureBonus"`
		RestartBonus   int             `json:"restartBonus"`
		RestartCount   int             `json:"restartCount"`
		Total          int             `json:"total"`
		ElapsedSec     int             `json:"elapsedSec"`
	}

	Final struct {
		Referee     string `json:"referee"`
		Scorer      string `json:"scorer"`
		TeamMembers string `json:"teamMembers"`
		Remarks     string `json:"remarks"`
	}

	// Session is the round currently being scored.
	Session struct {
		General         General   `json:"general"`
		SelectedTaskIDs []string  `json:"selectedTaskIds"`
		Scoring         Scoring   `json:"scoring"`
		Final           Final     `json:"final"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// Round is a finalized Session. It is never mutated once appended to history.
	Round struct {
		Session
		SnapshotTasks []Task    `json:"snapshotTasks,omitempty"`
		CompletedAt   time.Time `json:"completedAt"`
	}
)

// ObjectiveKey builds the key used in Scoring.Objectives.
func ObjectiveKey(taskID, objectiveID string) string {
	return taskID + ":" + objectiveID
}

// NewSession returns an empty session stamped at now.
func NewSession(now time.Time) *Session {
	return &Session{
		SelectedTaskIDs: []string{},
		Scoring:         Scoring{Objectives: map[string]bool{}},
		CreatedAt:       now,
	}
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := Task{ID: t.ID, Name: t.Name, Objectives: make([]Objective, len(t.Objectives))}
	copy(out.Objectives, t.Objectives)
	return out
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// IsSelected reports whether taskID is part of the session selection.
func (s *Session) IsSelected(taskID string) bool {
	for _, id := range s.SelectedTaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.SelectedTaskIDs = append([]string(nil), s.SelectedTaskIDs...)
	out.Scoring.Objectives = make(map[string]bool, len(s.Scoring.Objectives))
	for k, v := range s.Scoring.Objectives {
		out.Scoring.Objectives[k] = v
	}
	return &out
}

// ChosenTasks returns the catalog tasks that are selected, in catalog order.
func ChosenTasks(catalog []Task, selectedIDs []string) []Task {
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}
	var out []Task
	for _, t := range catalog {
		if _, ok := selected[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ID identifies a round in history: its completion time in Unix milliseconds,
// or its creation time for records saved without one.
func (r Round) ID() int64 {
	return r.When().UnixMilli()
}

// When is the timestamp used for display and date filtering.
func (r Round) When() time.Time {
	if !r.CompletedAt.IsZero() {
		return r.CompletedAt
	}
	return r.CreatedAt
}

// CheckedKeys returns the objective keys marked done, sorted.
func (s Scoring) CheckedKeys() []string {
	var keys []string
	for k, done := range s.Objectives {
		if done {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// PrintTitle is the document title used when printing a round sheet.
func (r Round) PrintTitle() string {
	team := strings.TrimSpace(r.General.TeamName)
	if team == "" {
		team = "Team"
	}
	return strings.Join(strings.Fields(team), "_") + "_" + strconv.Itoa(r.General.RoundNumber)
}
