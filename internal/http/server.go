package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
	appweb "tally/web"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type appMetrics struct {
	uptime          time.Time
	roundsSaved     int64
	expensesCreated int64
	expensesDeleted int64
}

// Server serves the scoring, round history and expense endpoints.
type Server struct {
	http.Server
	scoring    *services.ScoringService
	expenses   *services.ExpenseService
	templates  *template.Template
	logger     *applog.Logger
	structured *applog.StructuredLogger
	currency   string
	readiness  map[string]ReadinessCheck

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger    *applog.Logger
	currency  string
	rateLimit ratelimit.Config
	readiness map[string]ReadinessCheck
	proxies   []string
}

// WithLogger sets the base logger; request loggers derive from it.
func WithLogger(l *applog.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCurrency sets the symbol used when rendering amounts in HTML pages.
func WithCurrency(symbol string) ServerOption {
	return func(o *serverOptions) { o.currency = symbol }
}

// WithRateLimit overrides the limits applied to POST and DELETE requests.
func WithRateLimit(cfg ratelimit.Config) ServerOption {
	return func(o *serverOptions) { o.rateLimit = cfg }
}

// WithReadinessCheck adds a named dependency check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) ServerOption {
	return func(o *serverOptions) { o.readiness[name] = check }
}

// WithTrustedProxies adds networks whose forwarded headers are honoured.
func WithTrustedProxies(cidrs ...string) ServerOption {
	return func(o *serverOptions) { o.proxies = append(o.proxies, cidrs...) }
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, scoring *services.ScoringService, expenses *services.ExpenseService, opts ...ServerOption) (*Server, error) {
	o := serverOptions{
		logger:    applog.New(applog.DefaultConfig()),
		currency:  "₱",
		rateLimit: ratelimit.DefaultConfig(),
		readiness: map[string]ReadinessCheck{},
	}
	for _, fn := range opts {
		fn(&o)
	}
	logger := o.logger.WithComponent(applog.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs(o.currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range o.proxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		scoring:          scoring,
		expenses:         expenses,
		templates:        t,
		logger:           logger,
		structured:       applog.NewStructuredLogger(logger),
		currency:         o.currency,
		readiness:        o.readiness,
		rateLimiter:      ratelimit.NewLimiter(o.rateLimit),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited, http.MethodPost, http.MethodDelete)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("GET /{$}", http.RedirectHandler("/ui/rounds", http.StatusSeeOther))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	scoring := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, applog.ComponentMiddleware(applog.ComponentScoring)(h))
	}
	scoring("GET /api/scoring/state", s.handleScoringState)
	scoring("POST /api/scoring/rounds", s.handleNewRound)
	scoring("POST /api/scoring/view", s.handleSetView)
	scoring("POST /api/scoring/step", s.handleGoToStep)
	scoring("POST /api/scoring/back", s.handleBack)
	scoring("POST /api/scoring/general", s.handleSaveGeneral)
	scoring("POST /api/scoring/selection", s.handleToggleTask)
	scoring("POST /api/scoring/confirm", s.handleConfirmSelection)
	scoring("POST /api/scoring/objectives", s.handleSetObjective)
	scoring("POST /api/scoring/departure", s.handleDepartureBonus)
	scoring("POST /api/scoring/restart-bonus", s.handleRestartBonus)
	scoring("POST /api/scoring/restarts", s.handleAdjustRestarts)
	scoring("GET /api/scoring/timer", s.handleTimer)
	scoring("POST /api/scoring/timer/toggle", s.handleToggleTimer)
	scoring("POST /api/scoring/timer/reset", s.handleResetTimer)
	scoring("POST /api/scoring/final", s.handleSubmitFinal)

	scoring("GET /api/tasks", s.handleListTasks)
	scoring("GET /api/tasks/{id}/draft", s.handleTaskDraft)
	scoring("POST /api/tasks", s.handleSaveTask)

	scoring("GET /api/rounds", s.handleListRounds)
	scoring("GET /api/rounds/export.csv", s.handleExportRounds)
	scoring("GET /api/rounds/{id}", s.handleRoundDetail)
	scoring("DELETE /api/rounds", s.handleClearRounds)
	scoring("GET /ui/rounds", s.handleRoundsPage)

	expense := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, applog.ComponentMiddleware(applog.ComponentExpense)(h))
	}
	expense("GET /api/expenses", s.handleListExpenses)
	expense("POST /api/expenses", s.handleCreateExpense)
	expense("GET /api/expenses/export.json", s.handleExportExpenses)
	expense("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	expense("DELETE /api/expenses", s.handleClearExpenses)
	expense("GET /ui/expenses", s.handleExpensesPage)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// respond writes v as JSON with status 200.
func (s *Server) respond(w http.ResponseWriter, v any) {
	NewJSONResponse().Data(v).Write(w)
}

// fail maps err to an error response. Server errors are logged with the
// request logger; user errors are not.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	b := ErrorFromErr(err)
	if b.StatusCode() >= http.StatusInternalServerError {
		logger := applog.FromContext(r.Context())
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, logger.Component(), op,
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				WithErrorType(applog.ErrorTypeInternal))
	}
	b.Write(w)
}

func (s *Server) countRoundSaved()     { atomic.AddInt64(&s.appMetrics.roundsSaved, 1) }
func (s *Server) countExpenseCreated() { atomic.AddInt64(&s.appMetrics.expensesCreated, 1) }
func (s *Server) countExpenseDeleted() { atomic.AddInt64(&s.appMetrics.expensesDeleted, 1) }
