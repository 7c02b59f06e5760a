package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petasbytes/minutes-agent/internal/provider"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector groups the Prometheus series exported by the agent.
// A nil *Collector is valid and records nothing.
type Collector struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	turnWords   *prometheus.HistogramVec
	sessions    prometheus.Gauge
}

// NewCollector creates the series and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minutes_generation_requests_total",
				Help: "Generation service calls by purpose and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_generation_duration_seconds",
				Help:    "Latency of generation service calls",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
		turnWords: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minutes_turn_words",
				Help:    "Words per recorded interview turn",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"role"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "minutes_active_sessions",
			Help: "Conversations currently held in memory",
		}),
	}
	reg.MustRegister(c.generations, c.duration, c.turnWords, c.sessions)
	return c
}

// ObserveGeneration records one call's latency and outcome.
func (c *Collector) ObserveGeneration(op provider.Op, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.generations.WithLabelValues(string(op), outcome).Inc()
	c.duration.WithLabelValues(string(op)).Observe(d.Seconds())
}

// ObserveTurn records the size of a turn appended to a conversation.
func (c *Collector) ObserveTurn(role, text string) {
	if c == nil {
		return
	}
	c.turnWords.WithLabelValues(role).Observe(float64(CountFeatures(text).Words))
}

// SetActiveSessions publishes the number of live conversations.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.sessions.Set(float64(n))
}

// Instrument wraps g so every call is recorded on c.
func Instrument(g provider.Generator, c *Collector) provider.Generator {
	if c == nil {
		return g
	}
	return provider.GeneratorFunc(func(ctx context.Context, req provider.Request) (string, error) {
		start := time.Now()
		out, err := g.Generate(ctx, req)
		if err != nil && !errors.Is(err, provider.ErrGeneration) {
			// Keep the single failure kind even for backends that forget to wrap.
			err = &provider.GenerationError{Provider: "unknown", Op: req.Op, Err: err}
		}
		c.ObserveGeneration(req.Op, time.Since(start), err)
		return out, err
	})
}
