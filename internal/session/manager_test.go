package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/petasbytes/minutes-agent/internal/metrics"
	"github.com/petasbytes/minutes-agent/internal/session"
)

func TestManager_GetOrCreateReturnsSameSession(t *testing.T) {
	m := session.NewManager("SYS", &fakeGen{}, nil, nil)

	a := m.GetOrCreate(session.DefaultID)
	b := m.GetOrCreate(session.DefaultID)
	if a != b {
		t.Fatal("expected the same session for the same id")
	}
	if a.ID() != session.DefaultID {
		t.Fatalf("id: %q", a.ID())
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := session.NewManager("SYS", &fakeGen{}, nil, nil)
	a := m.Create()
	b := m.Create()
	if a.ID() == b.ID() {
		t.Fatal("expected distinct ids")
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Fatalf("id is not a UUID: %v", err)
	}

	if _, err := a.Send(context.Background(), "only in a"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("session b sees a's turns: %#v", b.Snapshot())
	}
}

func TestManager_GetAndDelete(t *testing.T) {
	m := session.NewManager("SYS", &fakeGen{}, nil, nil)
	s := m.Create()

	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatal("expected to find created session")
	}
	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := m.Get(s.ID()); ok {
		t.Fatal("session still present after delete")
	}
	if err := m.Delete(s.ID()); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_IDsSorted(t *testing.T) {
	m := session.NewManager("SYS", &fakeGen{}, nil, nil)
	m.GetOrCreate("b")
	m.GetOrCreate("a")
	m.GetOrCreate("c")

	got := m.IDs()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("ids: %v", got)
	}
}

func TestManager_SystemPromptSharedBySessions(t *testing.T) {
	gen := &fakeGen{}
	m := session.NewManager("INTERVIEW", gen, nil, nil)
	_, _ = m.Create().Send(context.Background(), "x")
	if gen.calls[0].System != "INTERVIEW" {
		t.Fatalf("system: %q", gen.calls[0].System)
	}
}

func TestManager_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := session.NewManager("SYS", &fakeGen{}, nil, metrics.NewCollector(reg))

	s := m.Create()
	m.Create()
	if _, err := s.Send(context.Background(), "hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := testutil.CollectAndCount(reg, "minutes_turn_words"); got != 2 {
		t.Fatalf("expected user and assistant series, got %d", got)
	}
	if got := testutil.CollectAndCount(reg, "minutes_active_sessions"); got != 1 {
		t.Fatalf("expected gauge present, got %d", got)
	}
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := session.NewManager("SYS", &fakeGen{}, nil, metrics.NewCollector(reg))
	idle := m.GetOrCreate("idle")
	m.GetOrCreate("busy")

	if got := m.Sweep(time.Now(), time.Hour); got != nil {
		t.Fatalf("nothing should expire yet, got %v", got)
	}

	later := time.Now().Add(2 * time.Hour)
	got := m.Sweep(later, time.Hour)
	if len(got) != 2 || got[0] != "busy" || got[1] != "idle" {
		t.Fatalf("expired: %v", got)
	}
	if ids := m.IDs(); len(ids) != 0 {
		t.Fatalf("sessions left after sweep: %v", ids)
	}
	if _, ok := m.Get(idle.ID()); ok {
		t.Fatal("expired session still reachable")
	}
	want := `
# HELP minutes_active_sessions Conversations currently held in memory
# TYPE minutes_active_sessions gauge
minutes_active_sessions 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "minutes_active_sessions"); err != nil {
		t.Fatal(err)
	}
}

func TestManager_LookupKeepsSessionAlive(t *testing.T) {
	m := session.NewManager("SYS", &fakeGen{}, nil, nil)
	m.GetOrCreate("a")
	m.GetOrCreate("b")

	// Only "a" is used after the cutoff.
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)
	if _, ok := m.Get("a"); !ok {
		t.Fatal("a missing")
	}

	now := time.Now()
	got := m.Sweep(now, now.Sub(cutoff)-5*time.Millisecond)
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expired: %v", got)
	}
	if ids := m.IDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("remaining: %v", ids)
	}
}
