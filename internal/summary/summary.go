// Package summary turns a finished interview into a Meeting Minutes document.
package summary

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/petasbytes/minutes-agent/internal/prompts"
	"github.com/petasbytes/minutes-agent/internal/provider"
	"github.com/petasbytes/minutes-agent/internal/telemetry"
	"github.com/petasbytes/minutes-agent/memory"
)

// NoAnswer stands in for the reply of a trailing unanswered turn.
const NoAnswer = "(no answer)"

// ErrEmptyConversation is returned by shells that refuse to summarize
// before anything has been said. Summarizer itself accepts empty input.
var ErrEmptyConversation = errors.New("no conversation to summarize")

// Options controls transcript rendering.
type Options struct {
	// IncludeUnanswered renders a trailing unpaired turn as "A: (no answer)"
	// instead of dropping it.
	IncludeUnanswered bool
}

// Transcript renders turns as "Q: <text>\nA: <text>\n\n" blocks, pairing
// turns by position: (0,1), (2,3), ...
func Transcript(turns []memory.Turn, opts Options) string {
	var b strings.Builder
	for i := 0; i < len(turns); i += 2 {
		answer := NoAnswer
		if i+1 < len(turns) {
			answer = turns[i+1].Text
		} else if !opts.IncludeUnanswered {
			break
		}
		b.WriteString("Q: ")
		b.WriteString(turns[i].Text)
		b.WriteString("\nA: ")
		b.WriteString(answer)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Summarizer issues the single minutes call. It holds no conversation state.
type Summarizer struct {
	Gen    provider.Generator
	System string
	Opts   Options
	Log    *slog.Logger
}

// New returns a Summarizer using system as the minutes instruction.
func New(gen provider.Generator, system string, opts Options, log *slog.Logger) *Summarizer {
	if log == nil {
		log = telemetry.NopLogger()
	}
	return &Summarizer{Gen: gen, System: system, Opts: opts, Log: log}
}

// Generate returns the minutes document for turns exactly as the service
// produced it. Failures are the generator's *provider.GenerationError.
func (s *Summarizer) Generate(ctx context.Context, turns []memory.Turn) (string, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	transcript := Transcript(turns, s.Opts)
	start := time.Now()

	doc, err := s.Gen.Generate(ctx, provider.Request{
		Op:     provider.OpMinutes,
		System: s.System,
		Input:  prompts.MinutesInput(transcript),
	})
	elapsed := time.Since(start)
	if err != nil {
		s.Log.Warn("minutes generation failed", "turn_id", turnID, "turns", len(turns), "duration", elapsed, "error", err)
		telemetry.Emit("minutes_failed", map[string]any{
			"turn_id":     turnID,
			"turns":       len(turns),
			"duration_ms": elapsed.Milliseconds(),
		})
		return "", err
	}

	s.Log.Info("minutes generated", "turn_id", turnID, "turns", len(turns), "bytes", len(doc), "duration", elapsed)
	telemetry.Emit("minutes_generated", map[string]any{
		"turn_id":          turnID,
		"turns":            len(turns),
		"transcript_bytes": len(transcript),
		"document_bytes":   len(doc),
		"duration_ms":      elapsed.Milliseconds(),
	})
	return doc, nil
}
