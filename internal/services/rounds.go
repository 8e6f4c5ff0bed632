package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/filter"
	"tally/internal/storage"
)

type (
	// RoundDetail is the read-only view of one archived round.
	RoundDetail struct {
		Round           core.Round   `json:"round"`
		When            time.Time    `json:"when"`
		Tasks           []DetailTask `json:"tasks"`
		RestartFactor   float64      `json:"restartFactor"`
		RestartAdjusted int          `json:"restartAdjusted"`
		PrintTitle      string       `json:"printTitle"`
	}

	DetailTask struct {
		ID         string            `json:"id"`
		Name       string            `json:"name"`
		Objectives []DetailObjective `json:"objectives"`
	}

	DetailObjective struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Points int    `json:"points"`
		Done   bool   `json:"done"`
	}
)

// Location is the zone used for calendar days and displayed times.
func (s *ScoringService) Location() *time.Location {
	return s.opts.loc
}

// Rounds returns archived rounds matching f, oldest first.
func (s *ScoringService) Rounds(ctx context.Context, f filter.RoundFilter) ([]core.Round, error) {
	pred, err := f.Predicate(s.opts.loc)
	if err != nil {
		return nil, err
	}
	rounds, err := s.loadRounds(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(rounds, pred), nil
}

// RoundDetail finds a round by id. Tasks come from the snapshot taken at save
// time, or from the current catalog for rounds stored without one.
func (s *ScoringService) RoundDetail(ctx context.Context, id int64) (RoundDetail, error) {
	rounds, err := s.loadRounds(ctx)
	if err != nil {
		return RoundDetail{}, err
	}
	for _, r := range rounds {
		if r.ID() != id {
			continue
		}
		tasks := r.SnapshotTasks
		if len(tasks) == 0 {
			s.mu.Lock()
			tasks = core.CloneTasks(core.ChosenTasks(s.tasks, r.SelectedTaskIDs))
			s.mu.Unlock()
		}
		d := RoundDetail{
			Round:           r,
			When:            r.When().In(s.opts.loc),
			Tasks:           make([]DetailTask, 0, len(tasks)),
			RestartFactor:   core.RestartFactor(r.Scoring.RestartCount),
			RestartAdjusted: core.RestartAdjusted(r.Scoring.RestartBonus, r.Scoring.RestartCount),
			PrintTitle:      r.PrintTitle(),
		}
		for _, t := range tasks {
			dt := DetailTask{ID: t.ID, Name: t.Name, Objectives: make([]DetailObjective, 0, len(t.Objectives))}
			for _, o := range t.Objectives {
				dt.Objectives = append(dt.Objectives, DetailObjective{
					ID: o.ID, Name: o.Name, Points: o.Points,
					Done: r.Scoring.Objectives[core.ObjectiveKey(t.ID, o.ID)],
				})
			}
			d.Tasks = append(d.Tasks, dt)
		}
		return d, nil
	}
	return RoundDetail{}, fmt.Errorf("round %d: %w", id, core.ErrNotFound)
}

// ClearRounds empties the round history.
func (s *ScoringService) ClearRounds(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SaveJSON(ctx, s.store, storage.KeyRounds, []core.Round{}); err != nil {
		return fmt.Errorf("clear rounds: %w", err)
	}
	s.opts.logger.InfoContext(ctx, "Round history cleared")
	return nil
}

// ExportCSV writes the rounds matching f as CSV.
func (s *ScoringService) ExportCSV(ctx context.Context, w io.Writer, f filter.RoundFilter) error {
	rounds, err := s.Rounds(ctx, f)
	if err != nil {
		return err
	}
	return export.WriteRoundsCSV(w, rounds)
}

func (s *ScoringService) loadRounds(ctx context.Context) ([]core.Round, error) {
	rounds, _, err := storage.LoadJSON(ctx, s.store, storage.KeyRounds, []core.Round{})
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	return rounds, nil
}
