package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/nav"
	"tally/internal/services"
)

func (s *Server) handleScoringState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.scoring.State())
}

func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	st, err := s.scoring.NewRound(r.Context())
	if err != nil {
		s.fail(w, r, "new_round", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(st).Write(w)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "set_view", err)
		return
	}
	s.respond(w, s.scoring.SetView(nav.View(strings.ToLower(p.Get("view")))))
}

func (s *Server) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "go_to_step", err)
		return
	}
	step, err := parseStep(p.Get("step"))
	if err != nil {
		s.fail(w, r, "go_to_step", err)
		return
	}
	st, err := s.scoring.GoToStep(step)
	if err != nil {
		s.fail(w, r, "go_to_step", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.scoring.Back())
}

func (s *Server) handleSaveGeneral(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "save_general", err)
		return
	}
	// A non-numeric round number is reported by the form validation.
	round, err := p.Int("roundNumber", 0)
	if err != nil {
		round = 0
	}
	st, err := s.scoring.SaveGeneral(r.Context(), core.General{
		RoundNumber: round,
		VenueSeat:   p.Get("venueSeat"),
		TeamNumber:  p.Get("teamNumber"),
		TeamName:    p.Get("teamName"),
		Group:       p.Get("group"),
	})
	if err != nil {
		s.fail(w, r, "save_general", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "toggle_task", err)
		return
	}
	selected, err := p.Bool("selected", true)
	if err != nil {
		s.fail(w, r, "toggle_task", err)
		return
	}
	st, err := s.scoring.ToggleTask(r.Context(), p.Get("taskId"), selected)
	if err != nil {
		s.fail(w, r, "toggle_task", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleConfirmSelection(w http.ResponseWriter, r *http.Request) {
	st, err := s.scoring.ConfirmSelection()
	if err != nil {
		s.fail(w, r, "confirm_selection", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleSetObjective(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "set_objective", err)
		return
	}
	done, err := p.Bool("done", true)
	if err != nil {
		s.fail(w, r, "set_objective", err)
		return
	}
	st, err := s.scoring.SetObjective(r.Context(), p.Get("taskId"), p.Get("objectiveId"), done)
	if err != nil {
		s.fail(w, r, "set_objective", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleDepartureBonus(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "departure_bonus", err)
		return
	}
	st, err := s.scoring.SetDepartureBonus(r.Context(), core.ParseScore(p.Get("points")))
	if err != nil {
		s.fail(w, r, "departure_bonus", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleRestartBonus(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "restart_bonus", err)
		return
	}
	st, err := s.scoring.SetRestartBonus(r.Context(), core.ParseScore(p.Get("points")))
	if err != nil {
		s.fail(w, r, "restart_bonus", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleAdjustRestarts(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "adjust_restarts", err)
		return
	}
	delta, err := p.Int("delta", 1)
	if err != nil {
		s.fail(w, r, "adjust_restarts", err)
		return
	}
	st, err := s.scoring.AdjustRestarts(r.Context(), delta)
	if err != nil {
		s.fail(w, r, "adjust_restarts", err)
		return
	}
	s.respond(w, st)
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.scoring.Timer())
}

func (s *Server) handleToggleTimer(w http.ResponseWriter, r *http.Request) {
	ts, err := s.scoring.ToggleTimer(r.Context())
	if err != nil {
		s.fail(w, r, "toggle_timer", err)
		return
	}
	s.respond(w, ts)
}

func (s *Server) handleResetTimer(w http.ResponseWriter, r *http.Request) {
	ts, err := s.scoring.ResetTimer(r.Context())
	if err != nil {
		s.fail(w, r, "reset_timer", err)
		return
	}
	s.respond(w, ts)
}

func (s *Server) handleSubmitFinal(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "submit_final", err)
		return
	}
	round, err := s.scoring.SubmitFinal(r.Context(), core.Final{
		Referee:     p.Get("referee"),
		Scorer:      p.Get("scorer"),
		TeamMembers: p.Get("teamMembers"),
		Remarks:     p.Get("remarks"),
	})
	if err != nil {
		s.fail(w, r, "submit_final", err)
		return
	}
	s.countRoundSaved()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/rounds/"+strconv.FormatInt(round.ID(), 10)).
		Data(round).
		Write(w)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.scoring.Tasks())
}

// handleTaskDraft returns an editable copy of a task; the id "new" yields
// an empty draft.
func (s *Server) handleTaskDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "new" {
		s.respond(w, services.NewTaskDraft())
		return
	}
	d, err := s.scoring.EditTaskDraft(id)
	if err != nil {
		s.fail(w, r, "task_draft", err)
		return
	}
	s.respond(w, d)
}

func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "save_task", err)
		return
	}
	var d services.TaskDraft
	if err := p.Decode(&d); err != nil {
		s.fail(w, r, "save_task", err)
		return
	}
	t, err := s.scoring.SaveTask(r.Context(), d)
	if err != nil {
		s.fail(w, r, "save_task", err)
		return
	}
	s.respond(w, t)
}

type roundList struct {
	Rounds []core.Round `json:"rounds"`
	Count  int          `json:"count"`
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	f, err := ParseRoundFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, "list_rounds", err)
		return
	}
	rounds, err := s.scoring.Rounds(r.Context(), f)
	if err != nil {
		s.fail(w, r, "list_rounds", err)
		return
	}
	s.respond(w, roundList{Rounds: rounds, Count: len(rounds)})
}

func (s *Server) handleRoundDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "round_detail", err)
		return
	}
	d, err := s.scoring.RoundDetail(r.Context(), id)
	if err != nil {
		s.fail(w, r, "round_detail", err)
		return
	}
	s.respond(w, d)
}

func (s *Server) handleClearRounds(w http.ResponseWriter, r *http.Request) {
	if err := s.scoring.ClearRounds(r.Context()); err != nil {
		s.fail(w, r, "clear_rounds", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleExportRounds renders into a buffer first so a failure can still be
// reported as JSON.
func (s *Server) handleExportRounds(w http.ResponseWriter, r *http.Request) {
	f, err := ParseRoundFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, "export_rounds", err)
		return
	}
	var buf bytes.Buffer
	if err := s.scoring.ExportCSV(r.Context(), &buf, f); err != nil {
		s.fail(w, r, "export_rounds", err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", export.RoundsFilename)
	_, _ = buf.WriteTo(w)
}

func parseStep(v string) (nav.Step, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for st := nav.StepGeneral; st <= nav.StepFinal; st++ {
		if v == st.String() || v == strconv.Itoa(int(st)) {
			return st, nil
		}
	}
	return 0, core.NewValidationError("step", "Step must be general, tasks, scoring or final")
}
