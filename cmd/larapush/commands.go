package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	httptransport "github.com/larapush/larapush-go/internal/transport/http"
	natstransport "github.com/larapush/larapush-go/internal/transport/nats"
	"github.com/larapush/larapush-go/internal/tui"
	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// syncReporter remembers sync outcomes so one-shot commands can report them.
type syncReporter struct {
	mu     sync.Mutex
	count  int
	failed []error
}

func (r *syncReporter) Observe(_ context.Context, ev push.Event) {
	if ev.Kind != push.EventSync {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if ev.Err != nil {
		r.failed = append(r.failed, ev.Err)
	}
}

func (r *syncReporter) summary() (int, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count, append([]error(nil), r.failed...)
}

// reportSyncs waits for pending syncs and warns about failures. A failed sync
// never undoes a tag change, so it is not an error for the command.
func (a *app) reportSyncs() {
	a.push.Wait()
	count, failed := a.syncs.summary()
	for _, err := range failed {
		fmt.Fprintf(a.stderr, "warning: sync failed: %v\n", err)
	}
	if count > len(failed) {
		fmt.Fprintln(a.stdout, "synced with panel")
	}
}

func (a *app) runTags(ctx context.Context, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	var err error
	switch sub {
	case "list", "ls":
	case "add":
		if len(args) == 0 {
			return errors.New("usage: larapush tags add <tag>...")
		}
		_, err = a.push.SetTags(ctx, args...)
	case "remove", "rm":
		if len(args) == 0 {
			return errors.New("usage: larapush tags remove <tag>...")
		}
		_, err = a.push.RemoveTags(ctx, args...)
	case "clear":
		_, err = a.push.ClearTags(ctx)
	default:
		return fmt.Errorf("unknown tags command %q", sub)
	}
	if err != nil {
		return fmt.Errorf("update tags: %w", err)
	}

	tags := a.push.Tags(ctx)
	if len(tags) == 0 {
		fmt.Fprintln(a.stdout, "(no tags)")
	}
	for _, t := range tags {
		fmt.Fprintln(a.stdout, t)
	}
	a.reportSyncs()
	return nil
}

func (a *app) runToken(ctx context.Context, args []string) error {
	if !hasFlag(args, "--refresh") {
		tok, err := a.push.Token(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, tok)
		return nil
	}

	res := <-a.push.RefreshToken(ctx)
	if res.Subscription.Token != "" {
		fmt.Fprintln(a.stdout, res.Subscription.Token)
	}
	if res.Err != nil {
		return fmt.Errorf("refresh token: %w", res.Err)
	}
	return nil
}

func (a *app) runSync(ctx context.Context) error {
	res := <-a.push.Sync(ctx)
	if res.Err != nil {
		return fmt.Errorf("sync: %w", res.Err)
	}
	fmt.Fprintf(a.stdout, "synced token=%s tags=[%s]\n", res.Subscription.Token, strings.Join(res.Subscription.Tags, ","))
	return nil
}

func (a *app) runShow(ctx context.Context, args []string) error {
	pos := positional(args)
	if len(pos) != 1 {
		return errors.New("usage: larapush show '<notification json>' | -")
	}
	raw := pos[0]
	if raw == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 1<<20))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}

	n, ok := a.push.HandleMessage(ctx, domain.Message{
		From: "cli",
		Data: map[string]string{push.NotificationField: raw},
	})
	if !ok {
		return errors.New("notification dropped: payload is not a JSON object")
	}
	if hasFlag(args, "--json") {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(n)
	}
	if !a.push.NotificationsEnabled(ctx) {
		fmt.Fprintln(a.stderr, "notifications are disabled")
		return nil
	}

	card := tui.NewCard(ctx, n, a.push, nil)
	final, err := tea.NewProgram(card, tea.WithContext(ctx), tea.WithOutput(a.stdout)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	if c, ok := final.(tui.Card); ok {
		if res, routed := c.Result(); routed {
			printResult(a.stdout, res)
		}
	}
	return nil
}

func (a *app) runClick(ctx context.Context, args []string) error {
	pos := positional(args)
	if len(pos) < 1 || len(pos) > 2 {
		return errors.New("usage: larapush click <action> [tracking-url]")
	}
	click := domain.Click{Action: pos[0]}
	if len(pos) == 2 {
		click.TrackingURL = pos[1]
	}
	printResult(a.stdout, a.push.HandleClick(ctx, click, nil))
	return nil
}

func printResult(w io.Writer, res push.RouteResult) {
	if res.Tracked {
		if res.TrackErr != nil {
			fmt.Fprintf(w, "tracking failed: %v\n", res.TrackErr)
		} else {
			fmt.Fprintln(w, "tracked")
		}
	}
	line := "redirect: " + string(res.Redirect)
	if res.Target != "" {
		line += " " + res.Target
	}
	fmt.Fprintln(w, line)
	if res.Err != nil {
		fmt.Fprintf(w, "note: %v\n", res.Err)
	}
}

// notifyingHandler forwards decoded notifications from the HTTP relay.
type notifyingHandler struct {
	*push.Push
	notify func(*domain.Notification)
}

func (h notifyingHandler) HandleMessage(ctx context.Context, msg domain.Message) (*domain.Notification, bool) {
	n, ok := h.Push.HandleMessage(ctx, msg)
	if ok && h.notify != nil {
		h.notify(n)
	}
	return n, ok
}

func (a *app) runListen(ctx context.Context, args []string) error {
	if a.cfg.NATS.URL == "" && a.cfg.HTTP.Addr == "" {
		return errors.New("listen needs LARAPUSH_NATS_URL or LARAPUSH_HTTP_ADDR")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sources []string
	if a.cfg.NATS.URL != "" {
		msgSubj, _ := natstransport.Subjects(a.cfg.NATS.Subject)
		sources = append(sources, msgSubj)
	}
	if a.cfg.HTTP.Addr != "" {
		sources = append(sources, "http://"+a.cfg.HTTP.Addr)
	}

	var prog *tea.Program
	notify := func(n *domain.Notification) {
		a.logger.Info("notification", "id", n.ID, "title", n.Title, "click_action", n.ClickAction)
	}
	if !hasFlag(args, "--headless") {
		inbox := tui.NewInbox(ctx, a.push, strings.Join(sources, " · "))
		prog = tea.NewProgram(inbox, tea.WithAltScreen(), tea.WithContext(ctx))
		notify = func(n *domain.Notification) {
			prog.Send(tui.NotificationMsg{Notification: n, Received: time.Now()})
		}
	}

	// Announce ourselves so the panel can target this device right away.
	a.push.Sync(ctx)

	if a.cfg.NATS.URL != "" {
		l, err := natstransport.Connect(a.cfg.NATS.URL, a.cfg.NATS.Subject, a.push, a.logger)
		if err != nil {
			return err
		}
		defer l.Close()
		l.OnNotification = notify
		if err := l.Start(ctx); err != nil {
			return err
		}
	}

	errc := make(chan error, 1)
	if a.cfg.HTTP.Addr != "" {
		relay := httptransport.NewRouter(notifyingHandler{Push: a.push, notify: notify}, httptransport.Options{
			Registerer:     a.reg,
			Gatherer:       a.reg,
			Logger:         a.logger,
			AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		})
		go func() {
			err := httptransport.Serve(ctx, a.cfg.HTTP.Addr, relay)
			errc <- err
			if err != nil && prog != nil {
				prog.Quit()
			}
		}()
	}

	if prog == nil {
		select {
		case <-ctx.Done():
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("http relay: %w", err)
			}
		}
		return nil
	}

	_, err := prog.Run()
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	if a.cfg.HTTP.Addr != "" {
		if err := <-errc; err != nil {
			return fmt.Errorf("http relay: %w", err)
		}
	}
	return nil
}
