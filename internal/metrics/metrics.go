// Package metrics counts scroll evaluations and step activations with
// prometheus and optionally serves them on /metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kingrea/scrolly/internal/stepper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several presenters (and tests) never
// collide on the default one.
type Recorder struct {
	registry    *prometheus.Registry
	activations *prometheus.CounterVec
	replays     prometheus.Counter
	replaySpan  prometheus.Histogram
	evaluations prometheus.Counter
	failures    *prometheus.CounterVec
}

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrolly_step_activations_total",
				Help: "Step activation handlers run, by step and scroll direction.",
			},
			[]string{"step", "direction"},
		),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrolly_replays_total",
			Help: "Active step changes that ran at least one activation handler.",
		}),
		replaySpan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scrolly_replay_span_steps",
			Help:    "Handlers run per active step change.",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scrolly_position_evaluations_total",
			Help: "Scroll position evaluations.",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scrolly_failures_total",
				Help: "Errors surfaced by the resolver or the activation engine.",
			},
			[]string{"stage"},
		),
	}
	r.registry.MustRegister(r.activations, r.replays, r.replaySpan, r.evaluations, r.failures)
	return r
}

// Activated implements stepper.Observer.
func (r *Recorder) Activated(step stepper.Step, direction int) {
	if r == nil {
		return
	}
	dir := "down"
	if direction < 0 {
		dir = "up"
	}
	r.activations.WithLabelValues(fmt.Sprintf("%d-%s", step.Index, step.Name), dir).Inc()
}

// Replayed implements stepper.Observer.
func (r *Recorder) Replayed(from, to, count int) {
	if r == nil {
		return
	}
	r.replays.Inc()
	r.replaySpan.Observe(float64(count))
}

// ObserveEvaluation counts one scroll position evaluation.
func (r *Recorder) ObserveEvaluation() {
	if r == nil {
		return
	}
	r.evaluations.Inc()
}

// ObserveFailure counts an error at stage ("activate", "update", "layout").
func (r *Recorder) ObserveFailure(stage string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(stage).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	return r.serve(ctx, ln)
}

func (r *Recorder) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}

var _ stepper.Observer = (*Recorder)(nil)
