package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmonia-io/harmonia/internal/common/errors"
	"github.com/harmonia-io/harmonia/internal/events"
)

// StrategyFunc computes a resolution for one conflict. Registered functions
// are invoked when a caller forces a strategy by name.
type StrategyFunc func(*Conflict) (Resolution, error)

// RegisterStrategy registers a named strategy usable with ResolveConflicts.
func (e *Engine) RegisterStrategy(name string, fn StrategyFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[name] = fn
}

// registerBuiltinStrategies installs take_local, take_remote, and
// latest_timestamp.
func (e *Engine) registerBuiltinStrategies() {
	e.strategies["take_local"] = func(c *Conflict) (Resolution, error) {
		return Resolution{
			Strategy:      StrategyTakeLocal,
			ResolvedValue: c.LocalValue,
			Reasoning:     "caller forced the local value",
			Confidence:    1.0,
		}, nil
	}

	e.strategies["take_remote"] = func(c *Conflict) (Resolution, error) {
		return Resolution{
			Strategy:      StrategyTakeRemote,
			ResolvedValue: c.RemoteValue,
			Reasoning:     "caller forced the remote value",
			Confidence:    1.0,
		}, nil
	}

	e.strategies["latest_timestamp"] = func(c *Conflict) (Resolution, error) {
		res, ok := resolveByTimestamp(c)
		if !ok {
			return Resolution{}, errors.E("latest_timestamp", errors.ErrResolutionFailed, nil,
				"both change timestamps required")
		}
		return res, nil
	}
}

// ResolveConflicts resolves a batch of conflicts. With a strategy name the
// named strategy is applied to every conflict; an unknown name is a caller
// error returned before any conflict is processed. Without one each
// conflict's precomputed suggestion is used (recomputed when absent), and
// suggestions requiring approval are skipped into Unresolved rather than
// silently applied.
//
// A failure while resolving one conflict marks only that conflict as
// unresolved; the rest of the batch is still processed. Each applied
// resolution emits a ConflictResolved event; emission never blocks and
// never fails the call.
func (e *Engine) ResolveConflicts(ctx context.Context, conflicts []*Conflict, strategyName string) (*ResolveResult, error) {
	var forced StrategyFunc
	if strategyName != "" {
		e.mu.RLock()
		fn, ok := e.strategies[strategyName]
		e.mu.RUnlock()
		if !ok {
			return nil, errors.E("Engine.ResolveConflicts", errors.ErrUnknownStrategy, nil, strategyName)
		}
		forced = fn
	}

	result := &ResolveResult{
		ResolvedData: make(Changeset),
		Unresolved:   make([]*Conflict, 0),
		Log:          make([]LogEntry, 0, len(conflicts)),
	}

	for _, c := range conflicts {
		res, err := e.resolveOne(c, forced)
		if err != nil {
			e.logger.Warn("failed to resolve conflict",
				zap.String("conflict_id", c.ID),
				zap.String("field_path", c.FieldPath),
				zap.Error(err),
			)
			result.Unresolved = append(result.Unresolved, c)
			result.Log = append(result.Log, LogEntry{
				ConflictID: c.ID,
				FieldPath:  c.FieldPath,
				Outcome:    OutcomeFailed,
				Reasoning:  err.Error(),
				ResolvedAt: time.Now(),
			})
			continue
		}

		if forced == nil && res.RequiresApproval {
			result.Unresolved = append(result.Unresolved, c)
			result.Log = append(result.Log, LogEntry{
				ConflictID: c.ID,
				FieldPath:  c.FieldPath,
				Strategy:   res.Strategy,
				Outcome:    OutcomeSkipped,
				Reasoning:  "resolution requires approval",
				Confidence: res.Confidence,
				ResolvedAt: time.Now(),
			})
			continue
		}

		result.ResolvedData[c.FieldPath] = res.ResolvedValue
		result.Log = append(result.Log, LogEntry{
			ConflictID: c.ID,
			FieldPath:  c.FieldPath,
			Strategy:   res.Strategy,
			Outcome:    OutcomeApplied,
			Reasoning:  res.Reasoning,
			Confidence: res.Confidence,
			ResolvedAt: time.Now(),
		})

		e.recordResolution(c, res)
	}

	return result, nil
}

// resolveOne computes a resolution for one conflict, converting panics in
// rule conditions or registered strategies into errors so a bad conflict
// cannot abort the batch.
func (e *Engine) resolveOne(c *Conflict, forced StrategyFunc) (res Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.E("Engine.resolveOne", errors.ErrResolutionFailed, fmt.Errorf("panic: %v", r))
		}
	}()

	if forced != nil {
		return forced(c)
	}
	if c.Suggested != nil {
		return *c.Suggested, nil
	}
	return e.AnalyzeConflict(c), nil
}

// resolvedPayload is the ConflictResolved event body.
type resolvedPayload struct {
	ConflictID    string   `json:"conflict_id"`
	FieldPath     string   `json:"field_path"`
	Strategy      Strategy `json:"strategy"`
	ResolvedValue Value    `json:"resolved_value"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
}

// recordResolution emits a ConflictResolved event for an applied resolution.
func (e *Engine) recordResolution(c *Conflict, res Resolution) {
	if e.publisher == nil {
		return
	}

	e.publisher.Publish(c.EntityID, c.EntityType, "ConflictResolved",
		resolvedPayload{
			ConflictID:    c.ID,
			FieldPath:     c.FieldPath,
			Strategy:      res.Strategy,
			ResolvedValue: res.ResolvedValue,
			Confidence:    res.Confidence,
			Reasoning:     res.Reasoning,
		},
		events.Envelope{
			TenantID:      c.TenantID,
			UserID:        "system",
			Source:        "conflict-resolution",
			CorrelationID: uuid.New().String(),
			SchemaVersion: 1,
		},
	)
}
