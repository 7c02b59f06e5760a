package telemetry

import (
	"os"
)

const (
	envObserve   = "MINUTES_OBSERVE_JSON"
	envArtifacts = "MINUTES_ARTIFACTS_DIR"

	defaultArtifactsDir = ".minutes"
)

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes only matter via the override below.
	observeEnabled = os.Getenv(envObserve) == "1"
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	// Preserve startup-evaluated default, but allow tests to enable mid-run via env override.
	if os.Getenv(envObserve) == "1" {
		return true
	}
	return observeEnabled
}

// ArtifactsDir is the directory that receives events.jsonl.
func ArtifactsDir() string {
	if v := os.Getenv(envArtifacts); v != "" {
		return v
	}
	return defaultArtifactsDir
}
