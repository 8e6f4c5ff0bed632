package services

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/seed"
	"tally/internal/timer"
)

// EventPublisher announces saved rounds and expense changes. Implementations
// are best effort: services log publish failures and never fail the action.
type EventPublisher interface {
	PublishRoundSaved(ctx context.Context, r core.Round) error
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, e core.Expense) error
}

type options struct {
	publisher    EventPublisher
	now          func() time.Time
	loc          *time.Location
	logger       *slog.Logger
	timerOpts    []timer.Option
	defaultTasks func() []core.Task
	seedExpenses bool
}

type Option func(*options)

// WithPublisher enables event publishing. A nil publisher disables it.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithClock replaces time.Now for timestamps and period filters.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the zone used for calendar days.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTimerOptions configures the round timer (refresh cadence, clock).
func WithTimerOptions(opts ...timer.Option) Option {
	return func(o *options) { o.timerOpts = append(o.timerOpts, opts...) }
}

// WithDefaultTasks sets the catalog stored when none exists yet.
func WithDefaultTasks(fn func() []core.Task) Option {
	return func(o *options) {
		if fn != nil {
			o.defaultTasks = fn
		}
	}
}

// WithSampleExpenses seeds demo expenses when the expenses key is absent.
func WithSampleExpenses(enabled bool) Option {
	return func(o *options) { o.seedExpenses = enabled }
}

func buildOptions(component string, opts []Option) options {
	o := options{now: time.Now, loc: time.Local, logger: slog.Default(), defaultTasks: seed.DefaultTasks}
	for _, fn := range opts {
		fn(&o)
	}
	o.logger = o.logger.With(applog.FieldComponent, component)
	return o
}

// nowIn returns the current time in the configured zone.
func (o options) nowIn() time.Time {
	return o.now().In(o.loc)
}
