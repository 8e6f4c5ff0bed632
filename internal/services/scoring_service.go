package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/nav"
	"tally/internal/storage"
	"tally/internal/timer"
)

const generalRequiredMsg = "Please fill required fields: Round Number and Team Name."

type (
	// TimerState is the timer as shown next to the scoring sheet.
	TimerState struct {
		State      string `json:"state"`
		ElapsedSec int    `json:"elapsedSec"`
		Display    string `json:"display"`
	}

	// ScoringState is a read-only snapshot of the scorer.
	ScoringState struct {
		View    nav.View            `json:"view"`
		Step    nav.Step            `json:"step"`
		Session *core.Session       `json:"session"`
		Chosen  []core.Task         `json:"chosen"`
		Score   core.ScoreBreakdown `json:"score"`
		Timer   TimerState          `json:"timer"`
	}
)

// ScoringService owns the task catalog, the live session and the navigator.
// Every mutation is persisted before it becomes visible; a failed store write
// leaves the in-memory state untouched. Safe for concurrent use.
type ScoringService struct {
	store storage.Store
	opts  options
	timer *timer.Timer

	// display is refreshed by the timer goroutine without taking mu.
	display atomic.Value

	mu      sync.Mutex
	tasks   []core.Task
	session *core.Session
	nav     *nav.Navigator
}

// NewScoringService loads the catalog and any in-progress session from store.
// A missing catalog is replaced by the default one and persisted, so task
// ids stay stable across restarts.
func NewScoringService(ctx context.Context, store storage.Store, opts ...Option) (*ScoringService, error) {
	s := &ScoringService{
		store: store,
		opts:  buildOptions(applog.ComponentScoring, opts),
		nav:   nav.New(),
	}
	s.display.Store(timer.FormatClock(0))

	topts := append([]timer.Option{
		timer.OnTick(func(d time.Duration) { s.display.Store(timer.FormatClock(int(d / time.Second))) }),
	}, s.opts.timerOpts...)
	s.timer = timer.New(topts...)

	tasks, found, err := storage.LoadJSON(ctx, store, storage.KeyTasks, []core.Task(nil))
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !found || tasks == nil {
		tasks = s.opts.defaultTasks()
		if err := storage.SaveJSON(ctx, store, storage.KeyTasks, tasks); err != nil {
			return nil, fmt.Errorf("save default tasks: %w", err)
		}
		s.opts.logger.InfoContext(ctx, "Seeded task catalog", "tasks", len(tasks))
	}
	s.tasks = tasks

	session, _, err := storage.LoadJSON[*core.Session](ctx, store, storage.KeySession, nil)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session != nil {
		if session.Scoring.Objectives == nil {
			session.Scoring.Objectives = map[string]bool{}
		}
		s.session = session
		s.timer.Restore(session.Scoring.ElapsedSec)
		s.display.Store(timer.FormatClock(session.Scoring.ElapsedSec))
		s.opts.logger.InfoContext(ctx, "Resumed round in progress",
			"team", session.General.TeamName,
			"round", session.General.RoundNumber)
	}
	return s, nil
}

// Close stops the timer refresh loop.
func (s *ScoringService) Close() error {
	s.timer.Close()
	return nil
}

// State returns a snapshot of the scorer.
func (s *ScoringService) State() ScoringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *ScoringService) stateLocked() ScoringState {
	st := ScoringState{
		View:    s.nav.View,
		Step:    s.nav.Step,
		Session: s.session.Clone(),
		Timer:   s.timerState(),
	}
	if s.session != nil {
		st.Chosen = core.CloneTasks(core.ChosenTasks(s.tasks, s.session.SelectedTaskIDs))
		st.Score = core.ComputeScore(st.Chosen, s.session.Scoring)
	}
	return st
}

func (s *ScoringService) timerState() TimerState {
	sec := int(s.timer.Elapsed() / time.Second)
	st := s.timer.State()
	display := timer.FormatClock(sec)
	if st == timer.Running {
		// running display follows the refresh cadence
		display, _ = s.display.Load().(string)
	}
	return TimerState{State: st.String(), ElapsedSec: sec, Display: display}
}

// Timer returns the current timer reading.
func (s *ScoringService) Timer() TimerState {
	return s.timerState()
}

// NewRound discards any live session and starts a fresh one on step 1.
func (s *ScoringService) NewRound(ctx context.Context) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := core.NewSession(s.opts.now())
	if err := storage.SaveJSON(ctx, s.store, storage.KeySession, session); err != nil {
		return ScoringState{}, fmt.Errorf("start round: %w", err)
	}
	s.session = session
	s.timer.Reset()
	s.display.Store(timer.FormatClock(0))
	s.nav.Begin()
	s.opts.logger.InfoContext(ctx, "Started new round")
	return s.stateLocked(), nil
}

// SetView switches the active view.
func (s *ScoringService) SetView(v nav.View) ScoringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.SetView(v)
	return s.stateLocked()
}

// GoToStep moves the wizard to step, clamped to its range. Moving past the
// task step requires a confirmed selection.
func (s *ScoringService) GoToStep(step nav.Step) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ScoringState{}, core.ErrNoActiveSession
	}
	if step > nav.StepTasks && len(s.session.SelectedTaskIDs) == 0 {
		return ScoringState{}, core.NewValidationError("selectedTaskIds", "Select at least one task.")
	}
	s.nav.SetStep(step)
	return s.stateLocked(), nil
}

// Back returns one wizard step.
func (s *ScoringService) Back() ScoringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Back()
	return s.stateLocked()
}

// SaveGeneral stores the general information form and advances to task
// selection. Round number and team name are required.
func (s *ScoringService) SaveGeneral(ctx context.Context, g core.General) (ScoringState, error) {
	g.TeamName = strings.TrimSpace(g.TeamName)
	g.TeamNumber = strings.TrimSpace(g.TeamNumber)
	g.VenueSeat = strings.TrimSpace(g.VenueSeat)
	g.Group = strings.TrimSpace(g.Group)
	if g.RoundNumber <= 0 || g.TeamName == "" {
		field := "teamName"
		if g.RoundNumber <= 0 {
			field = "roundNumber"
		}
		return ScoringState{}, core.NewValidationError(field, generalRequiredMsg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.mutateSession(ctx, func(sess *core.Session) error {
		sess.General = g
		return nil
	})
	if err != nil {
		return ScoringState{}, err
	}
	s.nav.SetStep(nav.StepTasks)
	return s.stateLocked(), nil
}

// ToggleTask adds or removes a task from the selection. Selecting beyond
// core.MaxSelectedTasks fails with a SelectionLimitError and leaves the
// selection unchanged.
func (s *ScoringService) ToggleTask(ctx context.Context, taskID string, selected bool) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTask(taskID) < 0 {
		return ScoringState{}, core.NewValidationError("taskId", "Unknown task.")
	}
	err := s.mutateSession(ctx, func(sess *core.Session) error {
		if selected {
			if sess.IsSelected(taskID) {
				return nil
			}
			if len(sess.SelectedTaskIDs) >= core.MaxSelectedTasks {
				return &core.SelectionLimitError{Limit: core.MaxSelectedTasks}
			}
			sess.SelectedTaskIDs = append(sess.SelectedTaskIDs, taskID)
		} else {
			kept := sess.SelectedTaskIDs[:0]
			for _, id := range sess.SelectedTaskIDs {
				if id != taskID {
					kept = append(kept, id)
				}
			}
			sess.SelectedTaskIDs = kept
		}
		// objectives of a deselected task stay checked and count again on reselect
		sess.Scoring.Total = s.totalFor(sess)
		return nil
	})
	if err != nil {
		return ScoringState{}, err
	}
	return s.stateLocked(), nil
}

// ConfirmSelection checks that at least one task is selected and opens the
// scoring step.
func (s *ScoringService) ConfirmSelection() (ScoringState, error) {
	return s.GoToStep(nav.StepScoring)
}

// SetObjective marks an objective of a selected task done or not done.
func (s *ScoringService) SetObjective(ctx context.Context, taskID, objectiveID string, done bool) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(taskID)
	if i < 0 || !hasObjective(s.tasks[i], objectiveID) {
		return ScoringState{}, core.NewValidationError("objective", "Unknown objective.")
	}
	return s.updateScoring(ctx, func(sc *core.Scoring, sess *core.Session) error {
		if !sess.IsSelected(taskID) {
			return core.NewValidationError("objective", "Task is not selected for this round.")
		}
		sc.Objectives[core.ObjectiveKey(taskID, objectiveID)] = done
		return nil
	})
}

// SetDepartureBonus stores the departure bonus points.
func (s *ScoringService) SetDepartureBonus(ctx context.Context, points int) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateScoring(ctx, func(sc *core.Scoring, _ *core.Session) error {
		sc.DepartureBonus = points
		return nil
	})
}

// SetRestartBonus stores the restart bonus before restart decay.
func (s *ScoringService) SetRestartBonus(ctx context.Context, points int) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateScoring(ctx, func(sc *core.Scoring, _ *core.Session) error {
		sc.RestartBonus = points
		return nil
	})
}

// AdjustRestarts changes the restart count by delta, clamped to [0, 4].
func (s *ScoringService) AdjustRestarts(ctx context.Context, delta int) (ScoringState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateScoring(ctx, func(sc *core.Scoring, _ *core.Session) error {
		sc.RestartCount = core.ClampRestarts(sc.RestartCount + delta)
		return nil
	})
}

// ToggleTimer starts or stops the round timer. Stopping commits the whole
// elapsed seconds to the session.
func (s *ScoringService) ToggleTimer(ctx context.Context) (TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return TimerState{}, core.ErrNoActiveSession
	}
	if st, sec := s.timer.Toggle(); st == timer.Stopped {
		if err := s.commitElapsed(ctx, sec); err != nil {
			s.timer.Start()
			return TimerState{}, err
		}
	}
	return s.timerState(), nil
}

// ResetTimer stops the refresh loop and commits zero elapsed time.
func (s *ScoringService) ResetTimer(ctx context.Context) (TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return TimerState{}, core.ErrNoActiveSession
	}
	if err := s.commitElapsed(ctx, 0); err != nil {
		return TimerState{}, err
	}
	s.timer.Reset()
	s.display.Store(timer.FormatClock(0))
	return s.timerState(), nil
}

func (s *ScoringService) commitElapsed(ctx context.Context, sec int) error {
	return s.mutateSession(ctx, func(sess *core.Session) error {
		sess.Scoring.ElapsedSec = sec
		return nil
	})
}

// SubmitFinal validates the sign-off form and archives the session as a
// Round with a snapshot of its tasks. The live session is cleared and the
// view switches to the round history.
func (s *ScoringService) SubmitFinal(ctx context.Context, f core.Final) (core.Round, error) {
	f.Referee = strings.TrimSpace(f.Referee)
	f.Scorer = strings.TrimSpace(f.Scorer)
	f.TeamMembers = strings.TrimSpace(f.TeamMembers)
	f.Remarks = strings.TrimSpace(f.Remarks)
	if f.Referee == "" || f.Scorer == "" {
		field := "scorer"
		if f.Referee == "" {
			field = "referee"
		}
		return core.Round{}, core.NewValidationError(field, "Referee and Scorer are required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return core.Round{}, core.ErrNoActiveSession
	}

	sess := s.session.Clone()
	if s.timer.State() == timer.Running {
		sess.Scoring.ElapsedSec = int(s.timer.Elapsed() / time.Second)
	}
	sess.Final = f
	chosen := core.ChosenTasks(s.tasks, sess.SelectedTaskIDs)
	sess.Scoring.Total = core.ComputeScore(chosen, sess.Scoring).Total

	round := core.Round{
		Session:       *sess,
		SnapshotTasks: core.CloneTasks(chosen),
		CompletedAt:   s.opts.now(),
	}

	rounds, err := s.loadRounds(ctx)
	if err != nil {
		return core.Round{}, err
	}
	rounds = append(rounds, round)
	if err := storage.SaveJSON(ctx, s.store, storage.KeyRounds, rounds); err != nil {
		return core.Round{}, fmt.Errorf("save round: %w", err)
	}
	if err := storage.SaveJSON(ctx, s.store, storage.KeySession, (*core.Session)(nil)); err != nil {
		return core.Round{}, fmt.Errorf("clear session: %w", err)
	}

	s.session = nil
	s.timer.Reset()
	s.display.Store(timer.FormatClock(0))
	s.nav.SetView(nav.Export)

	fields := applog.NewFields().
		WithRound(round.ID(), round.General.TeamName, round.General.RoundNumber, round.Scoring.Total)
	s.opts.logger.InfoContext(ctx, "Round saved", fields.WithOperation(applog.OpCreate).ToSlice()...)

	if p := s.opts.publisher; p != nil {
		if err := p.PublishRoundSaved(ctx, round); err != nil {
			s.opts.logger.ErrorContext(ctx, "Failed to publish round event", fields.WithError(err).ToSlice()...)
		}
	}
	return round, nil
}

// updateScoring applies fn to the session scoring and recomputes the total.
func (s *ScoringService) updateScoring(ctx context.Context, fn func(*core.Scoring, *core.Session) error) (ScoringState, error) {
	err := s.mutateSession(ctx, func(sess *core.Session) error {
		if err := fn(&sess.Scoring, sess); err != nil {
			return err
		}
		sess.Scoring.Total = s.totalFor(sess)
		return nil
	})
	if err != nil {
		return ScoringState{}, err
	}
	return s.stateLocked(), nil
}

// mutateSession applies fn to a copy of the live session, persists it and
// swaps it in. Callers hold mu.
func (s *ScoringService) mutateSession(ctx context.Context, fn func(*core.Session) error) error {
	if s.session == nil {
		return core.ErrNoActiveSession
	}
	next := s.session.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := storage.SaveJSON(ctx, s.store, storage.KeySession, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.session = next
	return nil
}

func (s *ScoringService) totalFor(sess *core.Session) int {
	return core.ComputeScore(core.ChosenTasks(s.tasks, sess.SelectedTaskIDs), sess.Scoring).Total
}

func (s *ScoringService) findTask(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func hasObjective(t core.Task, objectiveID string) bool {
	for _, o := range t.Objectives {
		if o.ID == objectiveID {
			return true
		}
	}
	return false
}
