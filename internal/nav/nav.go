// Package nav tracks which view and wizard step of the scorer is active.
package nav

type View string

const (
	Home    View = "home"
	Scoring View = "scoring"
	Export  View = "export"
)

func (v View) Valid() bool {
	return v == Home || v == Scoring || v == Export
}

type Step int

const (
	StepGeneral Step = iota + 1
	StepTasks
	StepScoring
	StepFinal
)

func (s Step) String() string {
	switch s {
	case StepGeneral:
		return "general"
	case StepTasks:
		return "tasks"
	case StepScoring:
		return "scoring"
	case StepFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Navigator holds the active view and step. It carries no business rules;
// callers gate transitions before moving it. Not safe for concurrent use.
type Navigator struct {
	View View `json:"view"`
	Step Step `json:"step"`
}

func New() *Navigator {
	return &Navigator{View: Home, Step: StepGeneral}
}

// SetView switches view. Unknown views fall back to Home.
func (n *Navigator) SetView(v View) {
	if !v.Valid() {
		v = Home
	}
	n.View = v
}

// SetStep moves to step, clamped to the wizard range.
func (n *Navigator) SetStep(s Step) {
	switch {
	case s < StepGeneral:
		s = StepGeneral
	case s > StepFinal:
		s = StepFinal
	}
	n.Step = s
}

// Next advances one step; no-op on the last step.
func (n *Navigator) Next() {
	if n.Step < StepFinal {
		n.Step++
	}
}

// Back returns one step; no-op on the first step.
func (n *Navigator) Back() {
	if n.Step > StepGeneral {
		n.Step--
	}
}

// Begin opens the scoring view on its first step.
func (n *Navigator) Begin() {
	n.View = Scoring
	n.Step = StepGeneral
}
