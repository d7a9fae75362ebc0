// Package http is a local relay that lets other processes feed push messages
// and token events to the helper and manage its tags.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larapush/larapush-go/pkg/domain"
	"github.com/larapush/larapush-go/pkg/push"
)

// Handler is the part of *push.Push the relay exposes.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message) (*domain.Notification, bool)
	OnNewToken(ctx context.Context, token string) <-chan push.Result
	HandleClick(ctx context.Context, click domain.Click, surface push.Surface) push.RouteResult
	Tags(ctx context.Context) []string
	SetTags(ctx context.Context, tags ...string) (bool, error)
	RemoveTags(ctx context.Context, tags ...string) (bool, error)
}

// Options configures the router. Nil fields fall back to the prometheus
// defaults and slog.Default.
type Options struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
	// AllowedOrigins enables CORS for browser pages feeding the relay.
	AllowedOrigins []string
}

const maxBodySize = 1 << 20 // 1 MiB

type server struct {
	h      Handler
	logger *slog.Logger
}

// NewRouter builds the relay routes.
func NewRouter(h Handler, opts Options) http.Handler {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &server{h: h, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(newRequestMetrics(opts.Registerer).middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	// Browsers send text/plain POSTs cross-origin without a preflight.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/messages", s.handleMessage)
		r.Post("/token", s.handleToken)
		r.Post("/clicks", s.handleClick)
	})
	r.Get("/tags", s.handleListTags)
	r.Put("/tags/{tag}", s.handleAddTag)
	r.Delete("/tags/{tag}", s.handleRemoveTag)
	return r
}

// Serve runs the relay on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := decodeBody(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid message body")
		return
	}
	n, ok := s.h.HandleMessage(r.Context(), msg)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "message dropped")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	var ev domain.TokenEvent
	if err := decodeBody(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid token body")
		return
	}
	tok := strings.TrimSpace(ev.Token)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	s.h.OnNewToken(r.Context(), tok)
	w.WriteHeader(http.StatusAccepted)
}

type routeResponse struct {
	Tracked  bool   `json:"tracked"`
	TrackErr string `json:"track_error,omitempty"`
	Redirect string `json:"redirect"`
	Target   string `json:"target,omitempty"`
	Err      string `json:"error,omitempty"`
}

func (s *server) handleClick(w http.ResponseWriter, r *http.Request) {
	var click domain.Click
	if err := decodeBody(w, r, &click); err != nil {
		writeError(w, http.StatusBadRequest, "invalid click body")
		return
	}
	res := s.h.HandleClick(r.Context(), click, nil)
	resp := routeResponse{Tracked: res.Tracked, Redirect: string(res.Redirect), Target: res.Target}
	if res.TrackErr != nil {
		resp.TrackErr = res.TrackErr.Error()
	}
	if res.Err != nil {
		resp.Err = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type tagsResponse struct {
	Tags    []string `json:"tags"`
	Changed *bool    `json:"changed,omitempty"`
}

func (s *server) handleListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tagsResponse{Tags: s.h.Tags(r.Context())})
}

func (s *server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	s.mutateTag(w, r, s.h.SetTags)
}

func (s *server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	s.mutateTag(w, r, s.h.RemoveTags)
}

func (s *server) mutateTag(w http.ResponseWriter, r *http.Request, fn func(context.Context, ...string) (bool, error)) {
	tag := strings.TrimSpace(chi.URLParam(r, "tag"))
	if tag == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	changed, err := fn(r.Context(), tag)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "update tags failed", "tag", tag, "err", err)
		writeError(w, http.StatusInternalServerError, "update tags failed")
		return
	}
	writeJSON(w, http.StatusOK, tagsResponse{Tags: s.h.Tags(r.Context()), Changed: &changed})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
