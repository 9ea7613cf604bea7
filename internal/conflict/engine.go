package conflict

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmonia-io/harmonia/internal/common/logger"
	"github.com/harmonia-io/harmonia/internal/events"
)

// Publisher is the outbound event contract. Emission is fire-and-forget:
// implementations must not block and must not surface failures.
type Publisher interface {
	Publish(streamID, streamType, eventType string, payload interface{}, env events.Envelope)
}

// EngineConfig holds conflict engine configuration.
type EngineConfig struct {
	HistoryCap   int  // Max conflicts retained per entity (default 100)
	DefaultRules bool // Install the built-in business rules
}

// Engine detects field-level conflicts between concurrent edits, suggests
// or applies resolutions, performs three-way merges, and keeps a bounded
// per-entity conflict history. Construct one per host application and pass
// it by reference; all state is behind the instance, no package globals.
type Engine struct {
	history   History
	publisher Publisher
	logger    *zap.Logger

	mu         sync.RWMutex
	rules      map[string][]BusinessRule
	strategies map[string]StrategyFunc
}

// NewEngine creates a new conflict resolution engine. The publisher may be
// nil, in which case no events are emitted.
func NewEngine(cfg EngineConfig, publisher Publisher) *Engine {
	e := &Engine{
		history:    NewMemoryHistory(cfg.HistoryCap),
		publisher:  publisher,
		logger:     logger.WithComponent("ConflictEngine"),
		rules:      make(map[string][]BusinessRule),
		strategies: make(map[string]StrategyFunc),
	}

	e.registerBuiltinStrategies()
	if cfg.DefaultRules {
		e.registerDefaultRules()
	}

	return e
}

// DetectConflicts compares two concurrently-proposed changesets for the same
// entity and returns one Conflict per field both sides changed to different
// values. Fields changed on only one side are not conflicts; callers apply
// those outright. Results are appended to the per-entity history.
//
// Tenant isolation is the caller's contract: the engine carries
// cctx.TenantID through but does not validate that both changesets belong
// to the same tenant.
func (e *Engine) DetectConflicts(entityType, entityID string, local, remote, base Changeset, cctx ChangeContext) []*Conflict {
	conflicts := make([]*Conflict, 0)

	for _, field := range overlappingFields(local, remote) {
		localValue := local[field]
		remoteValue := remote[field]

		if localValue.Equal(remoteValue) {
			continue
		}

		c := &Conflict{
			ID:          newConflictID(entityID, field),
			EntityType:  entityType,
			EntityID:    entityID,
			FieldPath:   field,
			Type:        TypeConcurrentUpdate,
			LocalValue:  localValue,
			RemoteValue: remoteValue,
			DetectedAt:  time.Now(),
			UserID1:     cctx.UserID1,
			UserID2:     cctx.UserID2,
			TenantID:    cctx.TenantID,
			Severity:    severityOf(field),
			Context:     cctx,
		}
		if baseValue, ok := base[field]; ok {
			c.BaseValue = &baseValue
		}

		suggested := e.AnalyzeConflict(c)
		c.Suggested = &suggested
		c.AutoResolvable = c.Severity != SeverityCritical &&
			suggested.Confidence >= autoResolveConfidence &&
			!suggested.RequiresApproval

		conflicts = append(conflicts, c)
	}

	if len(conflicts) > 0 {
		e.history.Append(entityID, conflicts)
		e.logger.Info("conflicts detected",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("tenant_id", cctx.TenantID),
			zap.Int("count", len(conflicts)),
		)
	}

	return conflicts
}

// autoResolveConfidence is the minimum suggestion confidence for a conflict
// to be auto-resolvable.
const autoResolveConfidence = 0.7

// overlappingFields returns the sorted set of fields present in both
// changesets. Sorting keeps detection output deterministic.
func overlappingFields(local, remote Changeset) []string {
	var fields []string
	for field := range local {
		if _, ok := remote[field]; ok {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}

// newConflictID derives a unique conflict ID from the entity, field, and
// detection time.
func newConflictID(entityID, fieldPath string) string {
	return fmt.Sprintf("%s:%s:%d:%s", entityID, fieldPath, time.Now().UnixNano(), uuid.New().String()[:8])
}
