package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petasbytes/minutes-agent/internal/metrics"
	"github.com/petasbytes/minutes-agent/internal/provider"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
)

// DefaultID names the conversation used by single-conversation shells.
const DefaultID = "default"

// ErrNotFound is returned for an unknown session identifier.
var ErrNotFound = errors.New("session not found")

// Manager creates and looks up sessions by identifier.
type Manager struct {
	system  string
	gen     provider.Generator
	log     *slog.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	s        *Session
	lastUsed time.Time
}

// NewManager returns a manager whose sessions share system and gen.
func NewManager(system string, gen provider.Generator, log *slog.Logger, c *metrics.Collector) *Manager {
	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Manager{
		system:   system,
		gen:      gen,
		log:      log,
		metrics:  c,
		sessions: make(map[string]*entry),
	}
}

// Create starts a session under a new UUIDv7 identifier.
func (m *Manager) Create() *Session {
	return m.GetOrCreate(uuid.Must(uuid.NewV7()).String())
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		e.lastUsed = time.Now()
		return e.s
	}
	s := New(id, m.system, m.gen, WithLogger(m.log), WithMetrics(m.metrics))
	m.sessions[id] = &entry{s: s, lastUsed: time.Now()}
	m.metrics.SetActiveSessions(len(m.sessions))
	m.log.Debug("session created", "session_id", id)
	return s
}

// Get returns the session for id and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = time.Now()
	return e.s, true
}

// Delete forgets the session for id. It returns ErrNotFound when absent.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.metrics.SetActiveSessions(len(m.sessions))
	return nil
}

// IDs lists the live session identifiers in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sweep forgets sessions not looked up within ttl of now and returns their
// identifiers in sorted order.
func (m *Manager) Sweep(now time.Time, ttl time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expired []string
	for id, e := range m.sessions {
		if now.Sub(e.lastUsed) > ttl {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return nil
	}
	sort.Strings(expired)
	m.metrics.SetActiveSessions(len(m.sessions))
	m.log.Info("idle sessions expired", "count", len(expired), "remaining", len(m.sessions))
	return expired
}
