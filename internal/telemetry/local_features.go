package telemetry

import (
	"context"

	"github.com/petasbytes/minutes-agent/internal/metrics"
)

// EmitLocalFeatures records size features of one turn's text without the text itself.
func EmitLocalFeatures(ctx context.Context, role, text string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(text)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"role":             role,
		"text": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
