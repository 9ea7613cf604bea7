package conflict

import (
	"context"

	"go.uber.org/zap"
)

// PerformThreeWayMerge merges two divergent changesets against their common
// base state. One-sided changes apply outright; overlapping ones go through
// conflict detection, with auto-resolvable conflicts applied from their
// suggestions and the rest left at the base value and reported back.
func (e *Engine) PerformThreeWayMerge(ctx context.Context, base, local, remote Changeset, entityType, entityID string, cctx ChangeContext) *MergeResult {
	merged := base.Copy()

	for field, value := range local {
		if _, ok := remote[field]; !ok {
			merged[field] = value
		}
	}
	for field, value := range remote {
		if _, ok := local[field]; !ok {
			merged[field] = value
		}
	}

	// Converged changes: both sides arrived at the same value.
	for field, value := range local {
		if other, ok := remote[field]; ok && value.Equal(other) {
			merged[field] = value
		}
	}

	conflicts := e.DetectConflicts(entityType, entityID, local, remote, base, cctx)

	unresolved := make([]*Conflict, 0)
	for _, c := range conflicts {
		if c.AutoResolvable && c.Suggested != nil {
			merged[c.FieldPath] = c.Suggested.ResolvedValue
			continue
		}
		unresolved = append(unresolved, c)
	}

	confidence := 1.0
	if len(conflicts) > 0 {
		confidence = 1.0 - float64(len(conflicts))*0.2
		if confidence < 0.1 {
			confidence = 0.1
		}
	}

	result := &MergeResult{
		Success:       len(unresolved) == 0,
		ResolvedValue: merged,
		Conflicts:     unresolved,
		Strategy:      "three_way_merge",
		Confidence:    confidence,
	}

	e.logger.Info("three-way merge completed",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.Bool("success", result.Success),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("unresolved", len(unresolved)),
	)

	return result
}
