package core

import (
	"strings"
	"time"
)

const (
	Food           Category = "food"
	Transportation Category = "transportation"
	Shopping       Category = "shopping"
	Entertainment  Category = "entertainment"
	Bills          Category = "bills"
	Healthcare     Category = "healthcare"
	Education      Category = "education"
	Other          Category = "other"
)

// DateLayout is the calendar date format used by expenses and filters.
const DateLayout = "2006-01-02"

// MinDescriptionLen is the shortest accepted expense description.
const MinDescriptionLen = 3

type (
	Category string

	// Date is a calendar day. It marshals as YYYY-MM-DD and is interpreted in
	// the location it was parsed with.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64     `json:"id"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// ExpenseInput is the raw form submission for a new expense.
	ExpenseInput struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}
)

var categoryInfo = map[Category]struct{ name, icon string }{
	Food:           {"Food & Dining", "🍕"},
	Transportation: {"Transportation", "🚗"},
	Shopping:       {"Shopping", "🛍️"},
	Entertainment:  {"Entertainment", "🎬"},
	Bills:          {"Bills & Utilities", "💡"},
	Healthcare:     {"Healthcare", "🏥"},
	Education:      {"Education", "📚"},
	Other:          {"Other", "📦"},
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Food, Transportation, Shopping, Entertainment, Bills, Healthcare, Education, Other}
}

func (c Category) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// Name is the human label; unknown categories read as "Other".
func (c Category) Name() string {
	if info, ok := categoryInfo[c]; ok {
		return info.name
	}
	return categoryInfo[Other].name
}

func (c Category) Icon() string {
	if info, ok := categoryInfo[c]; ok {
		return info.icon
	}
	return categoryInfo[Other].icon
}

// Label combines icon and name, as shown in chart legends.
func (c Category) Label() string {
	return c.Icon() + " " + c.Name()
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day in loc.
func NewDate(year, month, day int, loc *time.Location) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// In re-interprets the calendar day in loc.
func (d Date) In(loc *time.Location) Date {
	y, m, day := d.Date()
	return Date{Time: time.Date(y, m, day, 0, 0, 0, 0, loc)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reads YYYY-MM-DD (or a full RFC 3339 timestamp, keeping its day).
// The result is in UTC; callers that care about local days use In.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Validate checks the stored invariants of an expense.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return NewValidationError("amount", "Amount must be greater than zero")
	}
	if len([]rune(strings.TrimSpace(e.Description))) < MinDescriptionLen {
		return NewValidationError("description", "Description must be at least 3 characters")
	}
	if !e.Category.Valid() {
		return NewValidationError("category", "Category is required")
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "Date is required")
	}
	return nil
}

// Parse validates every field of the form and returns the fields of an Expense.
// All problems are reported together in a single ValidationError.
func (in ExpenseInput) Parse(loc *time.Location) (Expense, error) {
	var problems []FieldProblem
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		problems = append(problems, FieldProblem{"amount", "Amount must be a number greater than zero"})
	}
	desc := strings.TrimSpace(in.Description)
	if len([]rune(desc)) < MinDescriptionLen {
		problems = append(problems, FieldProblem{"description", "Description must be at least 3 characters"})
	}
	cat := Category(strings.TrimSpace(in.Category))
	if !cat.Valid() {
		problems = append(problems, FieldProblem{"category", "Category is required"})
	}
	var date Date
	if strings.TrimSpace(in.Date) == "" {
		problems = append(problems, FieldProblem{"date", "Date is required"})
	} else if date, err = ParseDate(in.Date, loc); err != nil {
		problems = append(problems, FieldProblem{"date", "Date must be YYYY-MM-DD"})
	}
	if len(problems) > 0 {
		return Expense{}, &ValidationError{
			Field:    problems[0].Field,
			Message:  "Please fill in all fields correctly",
			Problems: problems,
		}
	}
	return Expense{Amount: amount, Description: desc, Category: cat, Date: date}, nil
}
