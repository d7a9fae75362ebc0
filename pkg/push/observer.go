package push

import (
	"context"
	"log/slog"
	"time"
)

// EventKind names the side effect an Event reports on.
type EventKind string

const (
	EventSync       EventKind = "sync"
	EventInvalidate EventKind = "token_invalidate"
	EventMessage    EventKind = "message"
	EventTrack      EventKind = "track"
	EventRedirect   EventKind = "redirect"
	EventStore      EventKind = "store"
)

// Event is a single outcome reported to an Observer. Err is nil on success.
type Event struct {
	Kind     EventKind
	Detail   string
	Err      error
	Duration time.Duration
}

// Observer receives the outcome of every network call, parse and redirect.
// Implementations must be safe for concurrent use.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans an event out to each member in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}

// LogObserver writes events to a slog logger at debug level.
type LogObserver struct {
	Logger *slog.Logger
}

func (l LogObserver) Observe(ctx context.Context, ev Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"kind", string(ev.Kind)}
	if ev.Detail != "" {
		attrs = append(attrs, "detail", ev.Detail)
	}
	if ev.Duration > 0 {
		attrs = append(attrs, "duration", ev.Duration)
	}
	if ev.Err != nil {
		logger.DebugContext(ctx, string(ev.Kind)+" failed", append(attrs, "err", ev.Err)...)
		return
	}
	logger.DebugContext(ctx, string(ev.Kind)+" ok", attrs...)
}
