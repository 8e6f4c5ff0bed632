package http

import (
	"bytes"
	"net/http"
	"strconv"

	"tally/internal/core"
	"tally/internal/export"
)

type expenseList struct {
	Expenses     []core.Expense      `json:"expenses"`
	Summary      core.ExpenseSummary `json:"summary"`
	TotalDisplay string              `json:"totalDisplay"`
	Today        string              `json:"today"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f := ParseExpenseFilter(r.URL.Query())
	sum := s.expenses.Summary(f)
	s.respond(w, expenseList{
		Expenses:     s.expenses.List(f),
		Summary:      sum,
		TotalDisplay: sum.Total.Format(s.currency),
		Today:        s.expenses.Today(),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, "create_expense", err)
		return
	}
	e, err := s.expenses.Add(r.Context(), core.ExpenseInput{
		Amount:      p.Get("amount"),
		Description: p.Get("description"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
	})
	if err != nil {
		s.fail(w, r, "create_expense", err)
		return
	}
	s.countExpenseCreated()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+strconv.FormatInt(e.ID, 10)).
		Data(e).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "delete_expense", err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "delete_expense", err)
		return
	}
	s.countExpenseDeleted()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.Clear(r.Context()); err != nil {
		s.fail(w, r, "clear_expenses", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.expenses.ExportJSON(&buf); err != nil {
		s.fail(w, r, "export_expenses", err)
		return
	}
	attachment(w, "application/json; charset=utf-8", export.ExpensesFilename(s.expenses.Today()))
	_, _ = buf.WriteTo(w)
}
