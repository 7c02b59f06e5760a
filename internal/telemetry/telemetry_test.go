package telemetry_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/minutes-agent/internal/telemetry"
)

func observeInto(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MINUTES_ARTIFACTS_DIR", dir)
	t.Setenv("MINUTES_OBSERVE_JSON", "1")
	return dir
}

func readLines(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestEmit_Gating(t *testing.T) {
	// Run in a subprocess so startup-evaluated telemetry config sees MINUTES_OBSERVE_JSON=0.
	tmpDir := t.TempDir()
	cmd := exec.Command(os.Args[0], "-test.run=TestEmitGatingProbe")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"MINUTES_OBSERVE_JSON=0",
		"MINUTES_ARTIFACTS_DIR="+tmpDir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("subprocess error: %v\n%s", err, string(out))
	}
	if !strings.Contains(string(out), "no_file=true") {
		t.Fatalf("expected no_file=true, got output:\n%s", string(out))
	}
}

func TestEmitGatingProbe(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	telemetry.Emit("test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(filepath.Join(telemetry.ArtifactsDir(), "events.jsonl")); os.IsNotExist(err) {
		println("no_file=true")
	} else {
		println("no_file=false")
	}
}

func TestEmit_HappyPath(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("test_event", map[string]any{"foo": "bar", "num": 42})

	lines := readLines(t, dir)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", event["num"])
	}
	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_MultipleEmissions(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("event1", map[string]any{"id": 1})
	telemetry.Emit("event2", map[string]any{"id": 2})
	telemetry.Emit("event3", map[string]any{"id": 3})

	lines := readLines(t, dir)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i, err)
		}
		if event["id"] != float64(i+1) {
			t.Errorf("line %d: expected id=%d, got %v", i, i+1, event["id"])
		}
	}
}

func TestEmit_DoesNotMutateFields(t *testing.T) {
	observeInto(t)

	fields := map[string]any{"key": "value"}
	telemetry.Emit("test", fields)

	if len(fields) != 1 || fields["key"] != "value" {
		t.Fatalf("fields mutated: %#v", fields)
	}
}

func TestEmit_NilFields(t *testing.T) {
	dir := observeInto(t)

	telemetry.Emit("nil_fields", nil)

	lines := readLines(t, dir)
	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(event) != 2 || event["event"] != "nil_fields" {
		t.Fatalf("expected exactly event+time, got %#v", event)
	}
}

// captureLog points event failure logs at a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	telemetry.SetLogger(telemetry.NewLogger(&buf, slog.LevelDebug))
	t.Cleanup(func() { telemetry.SetLogger(nil) })
	return &buf
}

func TestEmit_ErrorHandling_MarshalError(t *testing.T) {
	dir := observeInto(t)
	logs := captureLog(t)

	// NaN cannot be marshaled by encoding/json.
	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file on marshal error, got err=%v", err)
	}
	if !strings.Contains(logs.String(), "telemetry marshal failed") || !strings.Contains(logs.String(), "event=bad") {
		t.Fatalf("expected marshal failure logged, got %q", logs.String())
	}
}

func TestEmit_ErrorHandling_ArtifactsDirIsFile(t *testing.T) {
	dir := observeInto(t)
	logs := captureLog(t)
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINUTES_ARTIFACTS_DIR", blocker)

	telemetry.Emit("x", nil)

	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "telemetry mkdir failed") {
		t.Fatalf("expected mkdir failure logged, got %q", logs.String())
	}
}

func TestEmit_FailuresRespectLogLevel(t *testing.T) {
	observeInto(t)
	var buf bytes.Buffer
	telemetry.SetLogger(telemetry.NewLogger(&buf, slog.LevelError))
	t.Cleanup(func() { telemetry.SetLogger(nil) })

	telemetry.Emit("bad", map[string]any{"x": math.NaN()})

	if buf.Len() != 0 {
		t.Fatalf("warn-level failure leaked past error level: %q", buf.String())
	}
}

func TestEmit_ErrorHandling_ReadOnlyFile(t *testing.T) {
	dir := observeInto(t)

	path := filepath.Join(dir, "events.jsonl")
	if err := os.WriteFile(path, nil, 0o444); err != nil {
		t.Fatal(err)
	}

	// Should not panic; open fails and is logged.
	telemetry.Emit("x", map[string]any{"a": 1})

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if os.Geteuid() != 0 && fi.Size() != 0 {
		t.Fatalf("expected read-only file size 0, got %d", fi.Size())
	}
}
