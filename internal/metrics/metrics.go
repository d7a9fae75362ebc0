// Package metrics exports push events as Prometheus series.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/larapush/larapush-go/pkg/client"
	"github.com/larapush/larapush-go/pkg/push"
)

// Observer counts every push.Event by kind and outcome and times the ones
// that carry a duration.
type Observer struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Observer{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "larapush",
			Name:      "events_total",
			Help:      "Push events by kind and outcome.",
		}, []string{"kind", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "larapush",
			Name:      "event_duration_seconds",
			Help:      "Duration of panel syncs, token invalidations and click tracking.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

func (o *Observer) Observe(_ context.Context, ev push.Event) {
	o.events.WithLabelValues(string(ev.Kind), result(ev)).Inc()
	if ev.Duration > 0 {
		o.duration.WithLabelValues(string(ev.Kind)).Observe(ev.Duration.Seconds())
	}
}

// result labels network events by HTTP class and the rest by ok/error.
func result(ev push.Event) string {
	switch ev.Kind {
	case push.EventSync, push.EventTrack:
		return client.Outcome(ev.Err)
	}
	if ev.Err != nil {
		return "error"
	}
	return "ok"
}
