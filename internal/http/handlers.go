package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"tally/internal/core"
	"tally/internal/filter"
	applog "tally/internal/log"
	"tally/internal/timer"
)

const noRoundsMessage = "No rounds found."

func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(currency) },
		"clock": timer.FormatClock,
		"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.readiness)+1)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for name, check := range s.readiness {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().
		Status(httpStatus).
		Data(map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	metrics := []struct {
		name, help, kind string
		value            float64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", float64(traceMetrics.TotalRequests)},
		{"http_request_duration_avg_microseconds", "Average request duration", "gauge", float64(traceMetrics.AverageResponseTime)},
		{"rounds_saved_total", "Rounds finalized through the API", "counter", float64(atomic.LoadInt64(&s.appMetrics.roundsSaved))},
		{"expenses_created_total", "Expenses created through the API", "counter", float64(atomic.LoadInt64(&s.appMetrics.expensesCreated))},
		{"expenses_deleted_total", "Expenses deleted through the API", "counter", float64(atomic.LoadInt64(&s.appMetrics.expensesDeleted))},
		{"rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", float64(rateLimitMetrics.TotalHits)},
		{"active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", float64(rateLimitMetrics.ClientCount)},
		{"suspicious_requests_total", "Suspicious requests detected", "counter", float64(securityMetrics.SuspiciousRequests)},
		{"invalid_forwarded_ip_total", "Forwarded client addresses that failed to parse", "counter", float64(securityMetrics.InvalidIPAttempts)},
		{"uptime_seconds", "Application uptime in seconds", "gauge", time.Since(s.appMetrics.uptime).Seconds()},
	}

	var buf bytes.Buffer
	for _, m := range metrics {
		fmt.Fprintf(&buf, "# HELP %s %s\n# TYPE %s %s\n%s %g\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
	_, _ = buf.WriteTo(w)
}

type roundRow struct {
	ID         int64
	When       time.Time
	Round      int
	TeamName   string
	TeamNumber string
	Group      string
	Total      int
	ElapsedSec int
	Restarts   int
}

type roundsPage struct {
	Filter filter.RoundFilter
	Rows   []roundRow
	Empty  string
}

// handleRoundsPage renders the round history table.
func (s *Server) handleRoundsPage(w http.ResponseWriter, r *http.Request) {
	f, err := ParseRoundFilter(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpRender, err)
		return
	}
	rounds, err := s.scoring.Rounds(r.Context(), f)
	if err != nil {
		s.fail(w, r, applog.OpRender, err)
		return
	}

	loc := s.scoring.Location()
	page := roundsPage{Filter: f, Rows: make([]roundRow, 0, len(rounds))}
	for _, rd := range rounds {
		page.Rows = append(page.Rows, roundRow{
			ID:         rd.ID(),
			When:       rd.When().In(loc),
			Round:      rd.General.RoundNumber,
			TeamName:   rd.General.TeamName,
			TeamNumber: rd.General.TeamNumber,
			Group:      rd.General.Group,
			Total:      rd.Scoring.Total,
			ElapsedSec: rd.Scoring.ElapsedSec,
			Restarts:   rd.Scoring.RestartCount,
		})
	}
	// newest first on screen
	sort.SliceStable(page.Rows, func(i, j int) bool { return page.Rows[i].When.After(page.Rows[j].When) })
	if len(page.Rows) == 0 {
		page.Empty = noRoundsMessage
	}
	s.render(w, r, "rounds.html", page)
}

type expensesPage struct {
	Filter     filter.ExpenseFilter
	Categories []core.Category
	Periods    []filter.Period
	Expenses   []core.Expense
	Summary    core.ExpenseSummary
}

// handleExpensesPage renders the expense list with its summary.
func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	f := ParseExpenseFilter(r.URL.Query())
	s.render(w, r, "expenses.html", expensesPage{
		Filter:     f,
		Categories: core.Categories(),
		Periods:    []filter.Period{filter.PeriodAll, filter.PeriodToday, filter.PeriodWeek, filter.PeriodMonth, filter.PeriodYear},
		Expenses:   s.expenses.List(f),
		Summary:    s.expenses.Summary(f),
	})
}

// render executes a template into a buffer so a failure never leaves a half
// written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed",
			applog.FieldError, err,
			"template", name)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
