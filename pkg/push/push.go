// Package push keeps a device's tag subscription in sync with a LaraPush
// panel and turns inbound push messages into notifications and clicks into
// tracked redirects.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/larapush/larapush-go/pkg/client"
	"github.com/larapush/larapush-go/pkg/domain"
)

var (
	// ErrNotConfigured is returned by New when Config or a required
	// collaborator is missing or invalid.
	ErrNotConfigured = errors.New("larapush is not configured")
	// ErrUnknownActivity means no handler is registered for an activity name.
	ErrUnknownActivity = errors.New("unknown activity")
)

// Config is supplied once when the helper is built and never changes.
type Config struct {
	// PanelURL is the panel base URL including its trailing slash.
	PanelURL string `validate:"required,url"`
	// Namespace is the application identifier sent as "domain" and used to
	// qualify activity names.
	Namespace string `validate:"required"`
	Debug     bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Panel is the backend the helper talks to. *client.Client implements it.
type Panel interface {
	Registrar
	Tracker
}

// Options carries the collaborators of a Push. Store and Tokens are required.
type Options struct {
	Store       KV
	Tokens      TokenProvider
	Panel       Panel
	Opener      URLOpener
	Permissions PermissionChecker
	Observer    Observer
	Logger      *slog.Logger
	Timeout     time.Duration
}

// Push is the process-wide helper. Build it once with New and pass it to
// whatever needs it.
type Push struct {
	cfg         Config
	logger      *slog.Logger
	observer    Observer
	tags        *TagStore
	syncer      *Syncer
	router      *Router
	activities  *Registry
	tokens      TokenProvider
	permissions PermissionChecker
}

// New validates cfg and wires the helper.
func New(cfg Config, opts Options) (*Push, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("push.New: %w: %v", ErrNotConfigured, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("push.New: %w: no store", ErrNotConfigured)
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("push.New: %w: no token provider", ErrNotConfigured)
	}

	logger := opts.Logger
	if logger == nil {
		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	logger = logger.With("component", "larapush")

	panel := opts.Panel
	if panel == nil {
		panel = client.New(cfg.PanelURL, client.WithTimeout(opts.Timeout))
	}

	observer := Observers{LogObserver{Logger: logger}}
	if opts.Observer != nil {
		observer = append(observer, opts.Observer)
	}

	tags := NewTagStore(opts.Store, logger)
	activities := NewRegistry(cfg.Namespace)
	return &Push{
		cfg:         cfg,
		logger:      logger,
		observer:    observer,
		tags:        tags,
		syncer:      NewSyncer(cfg, panel, opts.Tokens, tags, observer, opts.Timeout),
		router:      NewRouter(panel, activities, opts.Opener, observer, opts.Timeout),
		activities:  activities,
		tokens:      opts.Tokens,
		permissions: opts.Permissions,
	}, nil
}

// Config returns the configuration the helper was built with.
func (p *Push) Config() Config {
	return p.cfg
}

// Activities returns the registry click actions resolve against.
func (p *Push) Activities() *Registry {
	return p.activities
}

// SetTags adds tags and syncs when the set changed.
func (p *Push) SetTags(ctx context.Context, tags ...string) (bool, error) {
	changed, err := p.tags.Add(ctx, tags...)
	return p.afterMutation(ctx, changed, err)
}

// RemoveTags removes tags and syncs when the set changed.
func (p *Push) RemoveTags(ctx context.Context, tags ...string) (bool, error) {
	changed, err := p.tags.Remove(ctx, tags...)
	return p.afterMutation(ctx, changed, err)
}

// ClearTags removes every tag and syncs when the set was non-empty.
func (p *Push) ClearTags(ctx context.Context) (bool, error) {
	changed, err := p.tags.Clear(ctx)
	return p.afterMutation(ctx, changed, err)
}

func (p *Push) afterMutation(ctx context.Context, changed bool, err error) (bool, error) {
	if err != nil {
		p.observer.Observe(ctx, Event{Kind: EventStore, Err: err})
		return false, err
	}
	if changed {
		p.syncer.Sync(ctx)
	}
	return changed, nil
}

// Tags returns the current tag set in sorted order.
func (p *Push) Tags(ctx context.Context) []string {
	return p.tags.Current(ctx).Slice()
}

// Token returns the current device token.
func (p *Push) Token(ctx context.Context) (string, error) {
	tok, err := p.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("push.Token: %w", err)
	}
	return tok, nil
}

// Sync registers the current token and tags with the panel.
func (p *Push) Sync(ctx context.Context) <-chan Result {
	return p.syncer.Sync(ctx)
}

// RefreshToken invalidates the token and syncs with the reissued one.
func (p *Push) RefreshToken(ctx context.Context) <-chan Result {
	return p.syncer.ForceRefresh(ctx)
}

// OnNewToken is called by the transport whenever it issues a new token.
func (p *Push) OnNewToken(ctx context.Context, token string) <-chan Result {
	p.logger.DebugContext(ctx, "new token", "token", RedactToken(token))
	return p.syncer.SyncToken(ctx, token)
}

// HandleMessage decodes an inbound push. Messages without a notification or
// with a malformed one are dropped and reported only to the observer.
func (p *Push) HandleMessage(ctx context.Context, msg domain.Message) (*domain.Notification, bool) {
	p.logger.DebugContext(ctx, "message received", "from", msg.From, "fields", len(msg.Data))
	n, err := ParseMessage(msg)
	if err != nil {
		detail := "malformed"
		if errors.Is(err, ErrNoNotification) {
			detail = "no_notification"
		}
		p.observer.Observe(ctx, Event{Kind: EventMessage, Detail: detail, Err: err})
		return nil, false
	}
	p.observer.Observe(ctx, Event{Kind: EventMessage, Detail: n.ID.String()})
	return n, true
}

// HandleClick tracks and redirects a tap, then closes surface.
func (p *Push) HandleClick(ctx context.Context, click domain.Click, surface Surface) RouteResult {
	return p.router.Route(ctx, click, surface)
}

// NotificationsEnabled asks the host whether notifications may be shown.
// Without a PermissionChecker it returns true; a failing check returns false.
func (p *Push) NotificationsEnabled(ctx context.Context) bool {
	if p.permissions == nil {
		return true
	}
	ok, err := p.permissions.NotificationsEnabled(ctx)
	if err != nil {
		p.logger.DebugContext(ctx, "check notification permission failed", "err", err)
		return false
	}
	return ok
}

// Wait blocks until every in-flight sync has finished.
func (p *Push) Wait() {
	p.syncer.Wait()
}
