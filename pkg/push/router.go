package push

import (
	"context"
	"fmt"
	"time"

	"github.com/larapush/larapush-go/pkg/domain"
)

// Tracker performs the click-tracking GET.
type Tracker interface {
	Track(ctx context.Context, trackingURL string) error
}

// URLOpener hands a URI to the platform's external "view" action.
type URLOpener interface {
	Open(uri string) error
}

// OpenerFunc adapts a function such as browser.Open to URLOpener.
type OpenerFunc func(uri string) error

func (f OpenerFunc) Open(uri string) error { return f(uri) }

// Surface is whatever is showing the tapped notification. The router closes
// it once routing ends, on every path.
type Surface interface {
	Close()
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func()

func (f SurfaceFunc) Close() { f() }

// Redirect names the branch a click took.
type Redirect string

const (
	RedirectNone     Redirect = "none"
	RedirectActivity Redirect = "activity"
	RedirectDefault  Redirect = "default"
	RedirectExternal Redirect = "external"
	RedirectNoop     Redirect = "noop"
)

// RouteResult reports what happened to a click.
type RouteResult struct {
	Tracked  bool
	TrackErr error
	Redirect Redirect
	Target   string
	Err      error
}

// Router turns a click into a tracking call followed by a redirect.
type Router struct {
	tracker    Tracker
	activities *Registry
	opener     URLOpener
	observer   Observer
	timeout    time.Duration
}

// NewRouter creates a Router. A nil opener makes external redirects no-ops.
func NewRouter(tracker Tracker, activities *Registry, opener URLOpener, observer Observer, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if observer == nil {
		observer = Observers(nil)
	}
	return &Router{
		tracker:    tracker,
		activities: activities,
		opener:     opener,
		observer:   observer,
		timeout:    timeout,
	}
}

// Route tracks the click when it carries a tracking URL, waits for that call
// to finish either way, then redirects. surface may be nil.
func (r *Router) Route(ctx context.Context, click domain.Click, surface Surface) (res RouteResult) {
	defer func() {
		if surface != nil {
			surface.Close()
		}
	}()

	if click.TrackingURL != "" {
		res.Tracked = true
		res.TrackErr = r.track(ctx, click.TrackingURL)
	}

	r.redirect(ctx, click, &res)
	r.observer.Observe(ctx, Event{Kind: EventRedirect, Detail: string(res.Redirect) + " " + res.Target, Err: res.Err})
	return res
}

func (r *Router) track(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	start := time.Now()
	err := r.tracker.Track(ctx, url)
	if err != nil {
		err = fmt.Errorf("push.Router: track click: %w", err)
	}
	r.observer.Observe(ctx, Event{Kind: EventTrack, Detail: url, Err: err, Duration: time.Since(start)})
	return err
}

func (r *Router) redirect(ctx context.Context, click domain.Click, res *RouteResult) {
	if click.Action == "" {
		res.Redirect = RedirectNone
		return
	}

	name, ok := click.Activity()
	if !ok {
		res.Redirect = RedirectExternal
		res.Target = click.Action
		if r.opener == nil {
			res.Redirect = RedirectNoop
			return
		}
		if err := r.opener.Open(click.Action); err != nil {
			res.Err = fmt.Errorf("push.Router: open %q: %w", click.Action, err)
		}
		return
	}

	res.Target = name
	if r.activities != nil {
		if h, found := r.activities.Resolve(name); found {
			err := h(ctx, click)
			if err == nil {
				res.Redirect = RedirectActivity
				return
			}
			res.Err = fmt.Errorf("push.Router: activity %q: %w", name, err)
		} else {
			res.Err = fmt.Errorf("push.Router: activity %q: %w", name, ErrUnknownActivity)
		}
		if def := r.activities.Default(); def != nil {
			if err := def(ctx, click); err != nil {
				res.Err = fmt.Errorf("push.Router: default entry: %w", err)
				res.Redirect = RedirectNoop
				return
			}
			res.Redirect = RedirectDefault
			return
		}
	}
	res.Redirect = RedirectNoop
}
