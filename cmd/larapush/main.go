package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/larapush/larapush-go/internal/browser"
	"github.com/larapush/larapush-go/internal/config"
	"github.com/larapush/larapush-go/internal/metrics"
	"github.com/larapush/larapush-go/internal/store"
	"github.com/larapush/larapush-go/internal/token"
	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := "help"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "version", "-v":
		fmt.Fprintln(stdout, "larapush "+version)
		return nil
	case "help", "--help", "-h":
		printHelp(stdout)
		return nil
	}

	cfg, err := config.Load(os.Getenv("LARAPUSH_CONFIG"))
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, args, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	switch cmd {
	case "tags":
		return a.runTags(ctx, args)
	case "token":
		return a.runToken(ctx, args)
	case "sync":
		return a.runSync(ctx)
	case "show":
		return a.runShow(ctx, args)
	case "click":
		return a.runClick(ctx, args)
	case "listen":
		return a.runListen(ctx, args)
	default:
		return fmt.Errorf("unknown command %q (try: larapush help)", cmd)
	}
}

// app holds what every command needs.
type app struct {
	cfg    *config.Config
	push   *push.Push
	store  store.Store
	reg    *prometheus.Registry
	logger *slog.Logger
	syncs  *syncReporter
	stdout io.Writer
	stderr io.Writer
}

func newApp(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) (*app, error) {
	logger := cfg.Logger(stderr)

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}

	var tokens push.TokenProvider = token.NewLocal(st)
	if cfg.Token != "" {
		tokens = token.Static(cfg.Token)
	}

	var opener push.URLOpener = push.OpenerFunc(browser.Open)
	if hasFlag(args, "--print") {
		opener = browser.Printer{W: stdout}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	syncs := &syncReporter{}
	p, err := push.New(cfg.Push(), push.Options{
		Store:    st,
		Tokens:   tokens,
		Opener:   opener,
		Observer: push.Observers{syncs, metrics.New(reg)},
		Logger:   logger,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	// A terminal has no launcher activity; report where the app would go.
	p.Activities().SetDefault(func(context.Context, domain.Click) error {
		fmt.Fprintf(stdout, "launch %s\n", cfg.Namespace)
		return nil
	})

	return &app{
		cfg:    cfg,
		push:   p,
		store:  st,
		reg:    reg,
		logger: logger,
		syncs:  syncs,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// close waits for in-flight syncs before releasing the store.
func (a *app) close() {
	a.push.Wait()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store failed", "err", err)
	}
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

// positional returns args without --flags.
func positional(args []string) []string {
	var out []string
	for _, a := range args {
		if len(a) > 2 && a[:2] == "--" {
			continue
		}
		out = append(out, a)
	}
	return out
}
