package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tally/internal/core"
	"tally/internal/export"
)

// EventType is carried both in the message body and in the AMQP Type header.
type EventType string

const (
	RoundSaved     EventType = "round.saved"
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
)

// Event is the envelope published for every state change worth mirroring.
// Exactly one of Round or Expense is set.
type Event struct {
	Type       EventType     `json:"type"`
	OccurredAt time.Time     `json:"occurredAt"`
	Round      *RoundEvent   `json:"round,omitempty"`
	Expense    *ExpenseEvent `json:"expense,omitempty"`
}

type RoundEvent struct {
	ID          int64     `json:"id"`
	TeamName    string    `json:"teamName"`
	TeamNumber  string    `json:"teamNumber"`
	RoundNumber int       `json:"roundNumber"`
	Total       int       `json:"total"`
	ElapsedSec  int       `json:"elapsedSec"`
	CompletedAt time.Time `json:"completedAt"`
	// Row is the round as it appears in the CSV export.
	Row []string `json:"row"`
}

type ExpenseEvent struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amountCents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	// Row is the expense as mirrored to a spreadsheet; empty on delete.
	Row []string `json:"row,omitempty"`
}

func NewRoundSavedEvent(r core.Round) *Event {
	return &Event{
		Type:       RoundSaved,
		OccurredAt: time.Now(),
		Round: &RoundEvent{
			ID:          r.ID(),
			TeamName:    r.General.TeamName,
			TeamNumber:  r.General.TeamNumber,
			RoundNumber: r.General.RoundNumber,
			Total:       r.Scoring.Total,
			ElapsedSec:  r.Scoring.ElapsedSec,
			CompletedAt: r.CompletedAt,
			Row:         export.RoundRow(r),
		},
	}
}

func NewExpenseCreatedEvent(e core.Expense) *Event {
	return &Event{
		Type:       ExpenseCreated,
		OccurredAt: time.Now(),
		Expense: &ExpenseEvent{
			ID:          e.ID,
			AmountCents: e.Amount.Cents,
			Category:    string(e.Category),
			Date:        e.Date.String(),
			Description: e.Description,
			Row:         export.ExpenseRow(e),
		},
	}
}

func NewExpenseDeletedEvent(e core.Expense) *Event {
	return &Event{
		Type:       ExpenseDeleted,
		OccurredAt: time.Now(),
		Expense: &ExpenseEvent{
			ID:          e.ID,
			AmountCents: e.Amount.Cents,
			Category:    string(e.Category),
			Date:        e.Date.String(),
			Description: e.Description,
		},
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and sanity-checks an event.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case RoundSaved:
		if e.Round == nil {
			return nil, fmt.Errorf("%s event without round payload", e.Type)
		}
	case ExpenseCreated, ExpenseDeleted:
		if e.Expense == nil {
			return nil, fmt.Errorf("%s event without expense payload", e.Type)
		}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
