package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/petasbytes/minutes-agent/internal/metrics"
	"github.com/petasbytes/minutes-agent/internal/provider"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
	"github.com/petasbytes/minutes-agent/memory"
)

// Session is one interview conversation. Its methods are serialized: a
// Send in flight blocks Reset and Snapshot on the same session.
type Session struct {
	id      string
	system  string
	gen     provider.Generator
	log     *slog.Logger
	metrics *metrics.Collector

	mu    sync.Mutex
	store *memory.Store
	epoch uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithMetrics records turn sizes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) { s.metrics = c }
}

// New returns an empty session that sends system as the instruction of every call.
func New(id, system string, gen provider.Generator, opts ...Option) *Session {
	s := &Session{
		id:     id,
		system: system,
		gen:    gen,
		log:    telemetry.NopLogger(),
		store:  memory.NewStore(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("session_id", id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Send forwards userText with the full prior conversation and returns the
// assistant reply. On success the user turn and then the assistant turn are
// appended; on failure the store is left as it was and the generator's
// error is returned unchanged.
func (s *Session) Send(ctx context.Context, userText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, turnID := telemetry.EnsureTurnID(ctx)
	history := s.store.Snapshot()
	start := time.Now()

	reply, err := s.gen.Generate(ctx, provider.Request{
		Op:      provider.OpInterview,
		System:  s.system,
		History: history,
		Input:   userText,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.log.Warn("interview turn failed", "turn_id", turnID, "history_turns", len(history), "duration", elapsed, "error", err)
		telemetry.Emit("turn_failed", map[string]any{
			"session_id":    s.id,
			"turn_id":       turnID,
			"history_turns": len(history),
			"duration_ms":   elapsed.Milliseconds(),
		})
		return "", err
	}

	s.store.Append(memory.UserTurn(userText))
	s.store.Append(memory.AssistantTurn(reply))

	s.metrics.ObserveTurn(string(memory.RoleUser), userText)
	s.metrics.ObserveTurn(string(memory.RoleAssistant), reply)
	telemetry.EmitLocalFeatures(ctx, string(memory.RoleUser), userText)
	telemetry.EmitLocalFeatures(ctx, string(memory.RoleAssistant), reply)
	telemetry.Emit("turn_completed", map[string]any{
		"session_id":  s.id,
		"turn_id":     turnID,
		"turns":       s.store.Len(),
		"duration_ms": elapsed.Milliseconds(),
	})
	s.log.Debug("interview turn completed", "turn_id", turnID, "turns", s.store.Len(), "duration", elapsed)
	return reply, nil
}

// Reset drops every turn and starts a new epoch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
	s.epoch++
	s.log.Info("conversation reset", "epoch", s.epoch)
}

// Epoch counts resets. Output derived from an older epoch describes a
// conversation that no longer exists.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// SnapshotAt returns the conversation together with the epoch it belongs to.
func (s *Session) SnapshotAt() ([]memory.Turn, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot(), s.epoch
}

// Snapshot returns a copy of the conversation so far, oldest first.
func (s *Session) Snapshot() []memory.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Len reports the number of recorded turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}
