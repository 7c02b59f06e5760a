// Package prompts holds the instruction texts sent to the generation
// service. The texts are configuration data: the code never inspects them.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed defaults/interview.md
var defaultInterview string

//go:embed defaults/minutes.md
var defaultMinutes string

// minutesInput wraps the Q/A transcript as the user message of the minutes call.
var minutesInput = template.Must(template.New("minutes_input").Parse(
	"Here is the interview transcript:\n\n{{.Transcript}}"))

// Set is the pair of instructions used by one process.
type Set struct {
	Interview string
	Minutes   string
}

// Default returns the built-in instructions.
func Default() Set {
	return Set{Interview: defaultInterview, Minutes: defaultMinutes}
}

// Load returns Default with each non-empty path replacing the matching text.
func Load(interviewFile, minutesFile string) (Set, error) {
	s := Default()
	if interviewFile != "" {
		text, err := readPrompt(interviewFile)
		if err != nil {
			return Set{}, err
		}
		s.Interview = text
	}
	if minutesFile != "" {
		text, err := readPrompt(minutesFile)
		if err != nil {
			return Set{}, err
		}
		s.Minutes = text
	}
	return s, nil
}

func readPrompt(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	text := string(b)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("prompt %s is empty", path)
	}
	return text, nil
}

// MinutesInput renders the user message carrying transcript.
func MinutesInput(transcript string) string {
	var buf bytes.Buffer
	// Execution of a parsed template over a plain struct cannot fail.
	_ = minutesInput.Execute(&buf, struct{ Transcript string }{transcript})
	return buf.String()
}
