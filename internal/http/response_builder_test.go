package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tally/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/rounds/1").
		Data(map[string]int{"total": 30}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/api/rounds/1" {
		t.Fatalf("Location = %q", got)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rr.Body.String(); got != "{\"total\":30}\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Data("ignored").Write(rr)

	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("status = %d body = %q", rr.Code, rr.Body.String())
	}
}

func TestErrorFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		body ErrorBody
	}{
		{
			name: "validation",
			err:  fmt.Errorf("save: %w", core.NewValidationError("teamName", "Team name is required")),
			want: http.StatusUnprocessableEntity,
			body: ErrorBody{Error: "Team name is required", Field: "teamName"},
		},
		{
			name: "selection limit",
			err:  &core.SelectionLimitError{Limit: core.MaxSelectedTasks},
			want: http.StatusUnprocessableEntity,
			body: ErrorBody{Error: "You can select up to 7 tasks."},
		},
		{
			name: "not found",
			err:  fmt.Errorf("round 9: %w", core.ErrNotFound),
			want: http.StatusNotFound,
			body: ErrorBody{Error: "round 9: not found"},
		},
		{
			name: "no session",
			err:  core.ErrNoActiveSession,
			want: http.StatusConflict,
			body: ErrorBody{Error: "No round in progress."},
		},
		{
			name: "bad body",
			err:  fmt.Errorf("%w: eof", errBadBody),
			want: http.StatusBadRequest,
			body: ErrorBody{Error: "malformed request body: eof"},
		},
		{
			name: "too large",
			err:  errBodyTooLarge,
			want: http.StatusRequestEntityTooLarge,
			body: ErrorBody{Error: "request body too large"},
		},
		{
			name: "internal details hidden",
			err:  errors.New("disk full"),
			want: http.StatusInternalServerError,
			body: ErrorBody{Error: "Internal error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			b := ErrorFromErr(tt.err)
			if b.StatusCode() != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", b.StatusCode(), tt.want)
			}
			b.Write(rr)

			var got ErrorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.body, got); diff != "" {
				t.Fatalf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestErrorFromErr_Problems(t *testing.T) {
	_, err := core.ExpenseInput{Amount: "12", Description: "Lunch", Category: "food"}.Parse(nil)
	rr := httptest.NewRecorder()
	ErrorFromErr(err).Write(rr)

	var got ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []core.FieldProblem{{Field: "date", Message: "Date is required"}}
	if diff := cmp.Diff(want, got.Problems); diff != "" {
		t.Fatalf("problems mismatch (-want +got):\n%s", diff)
	}
}
