package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestExpenseInputParse(t *testing.T) {
	good := ExpenseInput{Amount: "12.50", Description: " Lunch ", Category: "food", Date: "2025-03-04"}
	e, err := good.Parse(time.UTC)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Amount.Cents != 1250 || e.Description != "Lunch" || e.Category != Food || e.Date.String() != "2025-03-04" {
		t.Fatalf("unexpected expense %+v", e)
	}

	bads := []ExpenseInput{
		{Amount: "0", Description: "Lunch", Category: "food", Date: "2025-03-04"},
		{Amount: "-5", Description: "Lunch", Category: "food", Date: "2025-03-04"},
		{Amount: "5", Description: "ab", Category: "food", Date: "2025-03-04"},
		{Amount: "5", Description: "Lunch", Category: "", Date: "2025-03-04"},
		{Amount: "5", Description: "Lunch", Category: "pets", Date: "2025-03-04"},
		{Amount: "5", Description: "Lunch", Category: "food", Date: ""},
		{Amount: "5", Description: "Lunch", Category: "food", Date: "04/03/2025"},
	}
	for i, in := range bads {
		_, err := in.Parse(time.UTC)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if len(ve.Problems) != 1 {
			t.Fatalf("case %d expected one problem, got %v", i, ve.Problems)
		}
	}
}

func TestExpenseInputParseCollectsAllProblems(t *testing.T) {
	_, err := ExpenseInput{}.Parse(time.UTC)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Problems) != 4 {
		t.Fatalf("expected 4 problems, got %v", ve.Problems)
	}
	if !IsUserError(err) {
		t.Fatalf("validation errors are user errors")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: Money{Cents: 100}, Description: "Bus", Category: Transportation, Date: NewDate(2025, 1, 1, time.UTC)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.Amount = Money{}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestCategoryDisplay(t *testing.T) {
	if Bills.Name() != "Bills & Utilities" || Bills.Icon() != "💡" {
		t.Fatalf("unexpected bills display %q %q", Bills.Name(), Bills.Icon())
	}
	if Category("pets").Name() != "Other" {
		t.Fatalf("unknown category should read as Other")
	}
	if len(Categories()) != 8 {
		t.Fatalf("expected 8 categories")
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, 2, 3, time.UTC)
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2025-02-03"` {
		t.Fatalf("marshal = %s %v", b, err)
	}
	var got Date
	if err := json.Unmarshal([]byte(`"2025-02-03T10:00:00.000Z"`), &got); err != nil {
		t.Fatal(err)
	}
	if got.String() != "2025-02-03" {
		t.Fatalf("unmarshal = %s", got)
	}
}
