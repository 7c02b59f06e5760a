// Package telemetry carries the process's structured logging and the opt-in
// JSONL event stream.
//
// Events never contain conversation text; they carry ids, sizes, durations
// and error classes only.
package telemetry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

var eventLog atomic.Pointer[slog.Logger]

// SetLogger routes event stream failures to l. A nil l discards them.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NopLogger()
	}
	eventLog.Store(l)
}

func logger() *slog.Logger {
	if l := eventLog.Load(); l != nil {
		return l
	}
	return NopLogger()
}

// Emit appends a single JSON line to <ArtifactsDir>/events.jsonl when
// MINUTES_OBSERVE_JSON=1. It augments fields with RFC3339Nano time and the event name.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		logger().Warn("telemetry marshal failed", "event", name, "error", err)
		return
	}

	dir := ArtifactsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger().Warn("telemetry mkdir failed", "dir", dir, "error", err)
		return
	}

	path := filepath.Join(dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger().Warn("telemetry open failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		logger().Warn("telemetry write failed", "path", path, "error", err)
	}
}
