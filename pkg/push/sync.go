package push

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/larapush/larapush-go/pkg/domain"
)

// DefaultTimeout bounds each sync attempt and each click-tracking call.
const DefaultTimeout = 5 * time.Second

// Registrar delivers a subscription snapshot to the panel.
type Registrar interface {
	RegisterToken(ctx context.Context, sub domain.Subscription) error
}

// Result is the outcome of one sync attempt.
type Result struct {
	Subscription domain.Subscription
	Err          error
}

// Syncer pushes {domain, token, url, tags} to the panel. Attempts are
// fire-and-forget: they are never retried and never cancelled by the caller.
type Syncer struct {
	cfg       Config
	registrar Registrar
	tokens    TokenProvider
	tags      *TagStore
	observer  Observer
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewSyncer creates a Syncer. A zero timeout selects DefaultTimeout.
func NewSyncer(cfg Config, registrar Registrar, tokens TokenProvider, tags *TagStore, observer Observer, timeout time.Duration) *Syncer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &Syncer{
		cfg:       cfg,
		registrar: registrar,
		tokens:    tokens,
		tags:      tags,
		observer:  observer,
		timeout:   timeout,
	}
}

// Sync fetches the current token and registers it with the current tags.
// The returned channel yields exactly one Result and may be ignored.
func (s *Syncer) Sync(ctx context.Context) <-chan Result {
	return s.start(ctx, false, "")
}

// SyncToken registers a token the transport just issued.
func (s *Syncer) SyncToken(ctx context.Context, token string) <-chan Result {
	return s.start(ctx, false, token)
}

// ForceRefresh invalidates the current token and syncs with the reissued
// one. An invalidation failure is observed and the sync still runs.
func (s *Syncer) ForceRefresh(ctx context.Context) <-chan Result {
	return s.start(ctx, true, "")
}

// Wait blocks until every in-flight attempt has finished.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) start(ctx context.Context, invalidate bool, token string) <-chan Result {
	out := make(chan Result, 1)
	base := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)
		if invalidate {
			s.invalidate(base)
		}
		out <- s.run(base, token)
	}()
	return out
}

func (s *Syncer) invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	err := s.tokens.Invalidate(ctx)
	if err != nil {
		err = fmt.Errorf("push.Syncer: invalidate token: %w", err)
	}
	s.observer.Observe(ctx, Event{Kind: EventInvalidate, Err: err, Duration: time.Since(start)})
}

func (s *Syncer) run(ctx context.Context, token string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()

	var res Result
	if token == "" {
		t, err := s.tokens.Token(ctx)
		if err != nil {
			res.Err = fmt.Errorf("push.Syncer: get token: %w", err)
			s.observer.Observe(ctx, Event{Kind: EventSync, Detail: "token", Err: res.Err, Duration: time.Since(start)})
			return res
		}
		token = t
	}

	res.Subscription = domain.Subscription{
		Domain: s.cfg.Namespace,
		Token:  token,
		URL:    s.cfg.PanelURL,
		Tags:   s.tags.Current(ctx).Slice(),
	}
	if err := s.registrar.RegisterToken(ctx, res.Subscription); err != nil {
		res.Err = fmt.Errorf("push.Syncer: %w", err)
	}
	s.observer.Observe(ctx, Event{
		Kind:     EventSync,
		Detail:   fmt.Sprintf("token=%s tags=%d", RedactToken(token), len(res.Subscription.Tags)),
		Err:      res.Err,
		Duration: time.Since(start),
	})
	return res
}

// RedactToken shortens a device token for logs and observer events.
func RedactToken(token string) string {
	const keep = 6
	if len(token) <= keep*2 {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "…" + token[len(token)-4:]
}
