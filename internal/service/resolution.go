// Package service provides the resolution service implementation.
package service

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmonia-io/harmonia/internal/common/errors"
	"github.com/harmonia-io/harmonia/internal/common/logger"
	"github.com/harmonia-io/harmonia/internal/conflict"
)

// ResolutionService fronts the conflict engine for the HTTP layer: it
// validates requests and translates declarative rule definitions into
// engine predicates.
type ResolutionService struct {
	engine *conflict.Engine
	logger *zap.Logger
}

// NewResolutionService creates a new ResolutionService.
func NewResolutionService(engine *conflict.Engine) *ResolutionService {
	return &ResolutionService{
		engine: engine,
		logger: logger.WithComponent("ResolutionService"),
	}
}

// DetectRequest represents a conflict detection request.
type DetectRequest struct {
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Local      conflict.Changeset     `json:"local_changes"`
	Remote     conflict.Changeset     `json:"remote_changes"`
	Base       conflict.Changeset     `json:"base_state"`
	Context    conflict.ChangeContext `json:"context"`
}

// Detect runs conflict detection over two concurrent changesets.
func (s *ResolutionService) Detect(ctx context.Context, req *DetectRequest) ([]*conflict.Conflict, error) {
	if req.EntityType == "" || req.EntityID == "" {
		return nil, errors.E("ResolutionService.Detect", errors.ErrInvalidInput, nil,
			"entity_type and entity_id are required")
	}

	return s.engine.DetectConflicts(req.EntityType, req.EntityID, req.Local, req.Remote, req.Base, req.Context), nil
}

// ResolveRequest represents a batch resolution request.
type ResolveRequest struct {
	Conflicts []*conflict.Conflict `json:"conflicts"`
	Strategy  string               `json:"strategy,omitempty"`
}

// Resolve resolves a batch of conflicts.
func (s *ResolutionService) Resolve(ctx context.Context, req *ResolveRequest) (*conflict.ResolveResult, error) {
	return s.engine.ResolveConflicts(ctx, req.Conflicts, req.Strategy)
}

// MergeRequest represents a three-way merge request.
type MergeRequest struct {
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Base       conflict.Changeset     `json:"base_state"`
	Local      conflict.Changeset     `json:"local_changes"`
	Remote     conflict.Changeset     `json:"remote_changes"`
	Context    conflict.ChangeContext `json:"context"`
}

// Merge performs a three-way merge of two divergent changesets.
func (s *ResolutionService) Merge(ctx context.Context, req *MergeRequest) (*conflict.MergeResult, error) {
	if req.EntityType == "" || req.EntityID == "" {
		return nil, errors.E("ResolutionService.Merge", errors.ErrInvalidInput, nil,
			"entity_type and entity_id are required")
	}

	return s.engine.PerformThreeWayMerge(ctx, req.Base, req.Local, req.Remote, req.EntityType, req.EntityID, req.Context), nil
}

// Predicate kinds expressible over the wire.
const (
	PredicateNonNegative  = "non_negative"
	PredicateNonEmpty     = "non_empty"
	PredicateMatchesRegex = "matches_regex"
	PredicateOneOf        = "one_of"
)

// RulePredicate is a declarative condition carried in a rule request.
type RulePredicate struct {
	Kind    string           `json:"kind"`
	Pattern string           `json:"pattern,omitempty"`
	Values  []conflict.Value `json:"values,omitempty"`
}

// RuleRequest represents a business rule registration request.
type RuleRequest struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	EntityType  string        `json:"entity_type"`
	FieldPath   string        `json:"field_path"`
	Priority    int           `json:"priority"`
	Description string        `json:"description,omitempty"`
	Predicate   RulePredicate `json:"predicate"`
}

// AddRule registers a declarative business rule and returns its ID.
func (s *ResolutionService) AddRule(req *RuleRequest) (string, error) {
	if req.Name == "" || req.EntityType == "" || req.FieldPath == "" {
		return "", errors.E("ResolutionService.AddRule", errors.ErrInvalidRule, nil,
			"name, entity_type, and field_path are required")
	}

	condition, err := buildCondition(req.Predicate)
	if err != nil {
		return "", err
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	s.engine.AddBusinessRule(conflict.BusinessRule{
		ID:          id,
		Name:        req.Name,
		EntityType:  req.EntityType,
		FieldPath:   req.FieldPath,
		Priority:    req.Priority,
		Description: req.Description,
		Condition:   condition,
	})

	s.logger.Info("business rule registered",
		zap.String("rule_id", id),
		zap.String("entity_type", req.EntityType),
		zap.String("field_path", req.FieldPath),
	)

	return id, nil
}

// Statistics returns aggregate conflict statistics.
func (s *ResolutionService) Statistics() conflict.Statistics {
	return s.engine.Statistics()
}

// History returns the retained conflicts for one entity.
func (s *ResolutionService) History(entityID string) []*conflict.Conflict {
	return s.engine.HistoryForEntity(entityID)
}

// buildCondition converts a wire predicate into an engine condition.
func buildCondition(p RulePredicate) (func(conflict.Value, conflict.ChangeContext) bool, error) {
	switch p.Kind {
	case PredicateNonNegative:
		return func(v conflict.Value, _ conflict.ChangeContext) bool {
			return v.Kind() == conflict.KindNumber && v.AsNumber() >= 0
		}, nil

	case PredicateNonEmpty:
		return func(v conflict.Value, _ conflict.ChangeContext) bool {
			switch v.Kind() {
			case conflict.KindString:
				return v.AsString() != ""
			case conflict.KindList:
				return len(v.Items()) > 0
			default:
				return !v.IsNull()
			}
		}, nil

	case PredicateMatchesRegex:
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, errors.E("ResolutionService.AddRule", errors.ErrInvalidRule, err, "bad pattern")
		}
		return func(v conflict.Value, _ conflict.ChangeContext) bool {
			return v.Kind() == conflict.KindString && re.MatchString(v.AsString())
		}, nil

	case PredicateOneOf:
		allowed := append([]conflict.Value(nil), p.Values...)
		return func(v conflict.Value, _ conflict.ChangeContext) bool {
			for _, candidate := range allowed {
				if v.Equal(candidate) {
					return true
				}
			}
			return false
		}, nil

	default:
		return nil, errors.E("ResolutionService.AddRule", errors.ErrInvalidRule, nil,
			"unknown predicate kind: "+p.Kind)
	}
}
