package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tally/internal/core"
	"tally/internal/seed"
	"tally/internal/storage"
)

type (
	// TaskDraft is the editing buffer of the task editor. Changes to a draft
	// never touch the catalog until SaveTask.
	TaskDraft struct {
		// ID is empty for a task that has not been saved yet.
		ID   string     `json:"id"`
		Name string     `json:"name"`
		Rows []DraftRow `json:"rows"`
	}

	// DraftRow is one objective line; Points holds the raw form text.
	DraftRow struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Points string `json:"points"`
	}
)

// UnmarshalJSON accepts points as a JSON string or number. Any other value
// is kept as its raw text and scores 0.
func (r *DraftRow) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Points json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID, r.Name, r.Points = raw.ID, raw.Name, ""
	if p := bytes.TrimSpace(raw.Points); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
		var text string
		if err := json.Unmarshal(p, &text); err != nil {
			text = string(p)
		}
		r.Points = text
	}
	return nil
}

// AddRow appends an empty objective row.
func (d *TaskDraft) AddRow() {
	d.Rows = append(d.Rows, DraftRow{})
}

// RemoveRow deletes row i; out of range indexes are ignored.
func (d *TaskDraft) RemoveRow(i int) {
	if i < 0 || i >= len(d.Rows) {
		return
	}
	d.Rows = append(d.Rows[:i:i], d.Rows[i+1:]...)
}

// NewTaskDraft returns an empty draft with a single blank row.
func NewTaskDraft() TaskDraft {
	return TaskDraft{Rows: []DraftRow{{}}}
}

// Tasks returns a copy of the catalog.
func (s *ScoringService) Tasks() []core.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneTasks(s.tasks)
}

// EditTaskDraft loads a full copy of a catalog task into a draft.
func (s *ScoringService) EditTaskDraft(id string) (TaskDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		return TaskDraft{}, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	t := s.tasks[i]
	d := TaskDraft{ID: t.ID, Name: t.Name, Rows: make([]DraftRow, 0, len(t.Objectives))}
	for _, o := range t.Objectives {
		d.Rows = append(d.Rows, DraftRow{ID: o.ID, Name: o.Name, Points: fmt.Sprint(o.Points)})
	}
	return d, nil
}

// SaveTask validates a draft and writes it to the catalog: new tasks are
// appended, existing ones replaced by id. Rows without a name are dropped
// and non-numeric or negative points become 0.
func (s *ScoringService) SaveTask(ctx context.Context, d TaskDraft) (core.Task, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return core.Task{}, core.NewValidationError("name", "Task name is required.")
	}

	t := core.Task{ID: d.ID, Name: name, Objectives: []core.Objective{}}
	for _, r := range d.Rows {
		oname := strings.TrimSpace(r.Name)
		if oname == "" {
			continue
		}
		o := core.Objective{ID: r.ID, Name: oname, Points: max(core.ParseScore(r.Points), 0)}
		if o.ID == "" {
			o.ID = seed.NewID()
		}
		t.Objectives = append(t.Objectives, o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another process may have edited the catalog since it was loaded
	if err := s.reloadTasks(ctx); err != nil {
		return core.Task{}, err
	}
	next := core.CloneTasks(s.tasks)
	if i := s.findTask(t.ID); t.ID != "" && i >= 0 {
		next[i] = t
	} else {
		if t.ID == "" {
			t.ID = seed.NewID()
		}
		next = append(next, t)
	}
	if err := storage.SaveJSON(ctx, s.store, storage.KeyTasks, next); err != nil {
		return core.Task{}, fmt.Errorf("save tasks: %w", err)
	}
	s.tasks = next
	s.opts.logger.InfoContext(ctx, "Task saved", "task_id", t.ID, "objectives", len(t.Objectives))

	if s.session != nil && s.session.IsSelected(t.ID) {
		err := s.mutateSession(ctx, func(sess *core.Session) error {
			sess.Scoring.Total = s.totalFor(sess)
			return nil
		})
		if err != nil {
			return core.Task{}, fmt.Errorf("rescore round: %w", err)
		}
	}
	return t.Clone(), nil
}

// reloadTasks replaces the cached catalog with the stored one. Callers hold mu.
func (s *ScoringService) reloadTasks(ctx context.Context) error {
	tasks, found, err := storage.LoadJSON(ctx, s.store, storage.KeyTasks, []core.Task(nil))
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if found && tasks != nil {
		s.tasks = tasks
	}
	return nil
}
