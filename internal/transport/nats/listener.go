// Package nats delivers push messages and token events published on NATS.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	natspkg "github.com/nats-io/nats.go"

	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// Handler is the part of *push.Push the listener feeds.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message) (*domain.Notification, bool)
	OnNewToken(ctx context.Context, token string) <-chan push.Result
}

// ErrUnknownSubject is returned by Dispatch for subjects outside the prefix.
var ErrUnknownSubject = errors.New("unknown subject")

// Subjects returns the message and token subjects under prefix.
func Subjects(prefix string) (message, token string) {
	return prefix + ".message", prefix + ".token"
}

// Listener subscribes to <prefix>.message and <prefix>.token.
type Listener struct {
	nc      *natspkg.Conn
	prefix  string
	handler Handler
	logger  *slog.Logger
	subs    []*natspkg.Subscription

	// OnNotification, when set, receives every decoded notification.
	OnNotification func(*domain.Notification)
}

// NewListener wraps an existing connection. It does not subscribe yet.
func NewListener(nc *natspkg.Conn, prefix string, h Handler, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{nc: nc, prefix: prefix, handler: h, logger: logger}
}

// Connect dials url and returns a listener that owns the connection.
func Connect(url, prefix string, h Handler, logger *slog.Logger) (*Listener, error) {
	nc, err := natspkg.Connect(url, natspkg.Name("larapush"))
	if err != nil {
		return nil, fmt.Errorf("nats.Connect: %w", err)
	}
	return NewListener(nc, prefix, h, logger), nil
}

// IsConnected reports whether the underlying connection is up.
func (l *Listener) IsConnected() bool {
	return l.nc != nil && l.nc.Status() == natspkg.CONNECTED
}

// Start subscribes to both subjects. Handlers run on the NATS callback
// goroutine with ctx as their parent.
func (l *Listener) Start(ctx context.Context) error {
	msgSubj, tokSubj := Subjects(l.prefix)
	for _, subj := range []string{msgSubj, tokSubj} {
		sub, err := l.nc.Subscribe(subj, func(m *natspkg.Msg) {
			if err := l.Dispatch(ctx, m.Subject, m.Data); err != nil {
				l.logger.WarnContext(ctx, "nats dispatch failed", "subject", m.Subject, "err", err)
			}
		})
		if err != nil {
			l.unsubscribe()
			return fmt.Errorf("nats.Listener: subscribe %s: %w", subj, err)
		}
		l.subs = append(l.subs, sub)
	}
	l.logger.InfoContext(ctx, "listening", "message", msgSubj, "token", tokSubj)
	return nil
}

// Dispatch decodes data according to subject and hands it to the handler.
func (l *Listener) Dispatch(ctx context.Context, subject string, data []byte) error {
	msgSubj, tokSubj := Subjects(l.prefix)
	switch subject {
	case msgSubj:
		var msg domain.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		n, ok := l.handler.HandleMessage(ctx, msg)
		if ok && l.OnNotification != nil {
			l.OnNotification(n)
		}
		return nil
	case tokSubj:
		var ev domain.TokenEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode token event: %w", err)
		}
		if tok := strings.TrimSpace(ev.Token); tok != "" {
			l.handler.OnNewToken(ctx, tok)
			return nil
		}
		return errors.New("token event without token")
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
}

func (l *Listener) unsubscribe() {
	for _, sub := range l.subs {
		_ = sub.Unsubscribe()
	}
	l.subs = nil
}

// Close drops the subscriptions and drains the connection.
func (l *Listener) Close() {
	l.unsubscribe()
	if l.nc != nil {
		_ = l.nc.Drain()
	}
}
