// Package entitymerge combines entity updates from uploads, voice input and
// user edits into the review state.
package entitymerge

import (
	"formassist/internal/models"
)

// Merge returns base with every key of updates written over it. Keys absent
// from updates keep their base entity and new keys are added. Neither input
// is modified.
func Merge(base, updates models.EntityMap) models.EntityMap {
	out := make(models.EntityMap, len(base)+len(updates))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// Edit builds the entity a manual correction produces.
func Edit(value string) models.Entity {
	confidence := 1.0
	return models.Entity{Value: value, Confidence: &confidence, Source: models.SourceUserEdit}
}
