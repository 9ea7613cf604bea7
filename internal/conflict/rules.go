package conflict

import (
	"regexp"
	"sort"

	"go.uber.org/zap"
)

// BusinessRule is a declarative per-entity-type, per-field predicate used to
// auto-pick a winning value before generic heuristics run.
type BusinessRule struct {
	ID          string
	Name        string
	EntityType  string // "*" applies to every entity type
	FieldPath   string // exact field path, or "*" for any field
	Priority    int    // higher wins when multiple rules match
	Description string
	Condition   func(candidate Value, cctx ChangeContext) bool
}

// AddBusinessRule registers a rule. Rules are kept in insertion order and
// sorted by priority at query time; no de-duplication is performed.
func (e *Engine) AddBusinessRule(rule BusinessRule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules[rule.EntityType] = append(e.rules[rule.EntityType], rule)

	e.logger.Debug("business rule added",
		zap.String("rule_id", rule.ID),
		zap.String("entity_type", rule.EntityType),
		zap.String("field_path", rule.FieldPath),
		zap.Int("priority", rule.Priority),
	)
}

// rulesFor returns the rules applicable to one field of one entity type,
// sorted by descending priority.
func (e *Engine) rulesFor(entityType, fieldPath string) []BusinessRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var matched []BusinessRule
	for _, bucket := range [][]BusinessRule{e.rules[entityType], e.rules["*"]} {
		for _, rule := range bucket {
			if rule.FieldPath == fieldPath || rule.FieldPath == "*" {
				matched = append(matched, rule)
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})
	return matched
}

// evalRule tests a rule condition against a candidate value. A panicking
// condition is treated as not matching so a malformed rule cannot crash
// detection.
func (e *Engine) evalRule(rule BusinessRule, candidate Value, cctx ChangeContext) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("business rule panicked, treating as non-match",
				zap.String("rule_id", rule.ID),
				zap.Any("panic", r),
			)
			matched = false
		}
	}()

	if rule.Condition == nil {
		return false
	}
	return rule.Condition(candidate, cctx)
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-().]{7,20}$`)
)

// registerDefaultRules installs the built-in rules. These are illustrative
// defaults, not an exhaustive catalog; hosts register their own on top.
func (e *Engine) registerDefaultRules() {
	e.AddBusinessRule(BusinessRule{
		ID:          "default-email-format",
		Name:        "Valid email format",
		EntityType:  "*",
		FieldPath:   "email",
		Priority:    100,
		Description: "Prefer the candidate that is a well-formed email address",
		Condition: func(candidate Value, _ ChangeContext) bool {
			return candidate.Kind() == KindString && emailPattern.MatchString(candidate.AsString())
		},
	})

	e.AddBusinessRule(BusinessRule{
		ID:          "default-non-negative-revenue",
		Name:        "Non-negative revenue",
		EntityType:  "*",
		FieldPath:   "revenue",
		Priority:    100,
		Description: "Prefer the candidate that is a non-negative amount",
		Condition: func(candidate Value, _ ChangeContext) bool {
			return candidate.Kind() == KindNumber && candidate.AsNumber() >= 0
		},
	})

	e.AddBusinessRule(BusinessRule{
		ID:          "default-phone-format",
		Name:        "Valid phone format",
		EntityType:  "*",
		FieldPath:   "phone",
		Priority:    100,
		Description: "Prefer the candidate that is a well-formed phone number",
		Condition: func(candidate Value, _ ChangeContext) bool {
			return candidate.Kind() == KindString && phonePattern.MatchString(candidate.AsString())
		},
	})
}
