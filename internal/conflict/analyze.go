package conflict

import (
	"fmt"
	"strings"
)

// AnalyzeConflict suggests a resolution for one conflict. Strategies are
// tried in strict order: matching business rule, timestamp comparison,
// type-specific merge, manual fallback. The first applicable strategy wins.
func (e *Engine) AnalyzeConflict(c *Conflict) Resolution {
	if res, ok := e.resolveByRule(c); ok {
		return res
	}
	if res, ok := resolveByTimestamp(c); ok {
		return res
	}
	if res, ok := resolveByType(c); ok {
		return res
	}
	return manualFallback(c)
}

// resolveByRule consults the registered business rules in priority order.
// For each rule the local candidate is tested first, then the remote one;
// the first rule that accepts either candidate decides the resolution.
func (e *Engine) resolveByRule(c *Conflict) (Resolution, bool) {
	for _, rule := range e.rulesFor(c.EntityType, c.FieldPath) {
		if e.evalRule(rule, c.LocalValue, c.Context) {
			return ruleResolution(rule, c.LocalValue, "local"), true
		}
		if e.evalRule(rule, c.RemoteValue, c.Context) {
			return ruleResolution(rule, c.RemoteValue, "remote"), true
		}
	}
	return Resolution{}, false
}

func ruleResolution(rule BusinessRule, winner Value, side string) Resolution {
	return Resolution{
		Strategy:      StrategyBusinessRule,
		ResolvedValue: winner,
		Reasoning:     fmt.Sprintf("business rule %q accepted the %s value", rule.Name, side),
		Confidence:    0.9,
		Metadata:      map[string]string{"rule_id": rule.ID, "rule_name": rule.Name},
	}
}

// resolveByTimestamp picks the later write when both change timestamps are
// known. Ties go to the local side.
func resolveByTimestamp(c *Conflict) (Resolution, bool) {
	t1, t2 := c.Context.Timestamp1, c.Context.Timestamp2
	if t1 == nil || t2 == nil {
		return Resolution{}, false
	}

	if t2.After(*t1) {
		return Resolution{
			Strategy:      StrategyTimestampBased,
			ResolvedValue: c.RemoteValue,
			Reasoning:     "remote change is more recent",
			Confidence:    0.7,
		}, true
	}
	return Resolution{
		Strategy:      StrategyTimestampBased,
		ResolvedValue: c.LocalValue,
		Reasoning:     "local change is more recent",
		Confidence:    0.7,
	}, true
}

// resolveByType dispatches on the value kinds. Only like-kinded pairs of
// numbers, strings, and lists have type-specific resolvers; everything else
// falls through to the manual fallback.
func resolveByType(c *Conflict) (Resolution, bool) {
	localKind, remoteKind := c.LocalValue.Kind(), c.RemoteValue.Kind()
	if localKind != remoteKind {
		return Resolution{}, false
	}

	switch localKind {
	case KindNumber:
		return resolveNumeric(c), true
	case KindString:
		return resolveText(c)
	case KindList:
		return resolveList(c), true
	default:
		return Resolution{}, false
	}
}

// resolveNumeric merges two numbers using field-name heuristics: monetary
// fields are summed, counters take the max, scores are averaged.
func resolveNumeric(c *Conflict) Resolution {
	local := c.LocalValue.AsNumber()
	remote := c.RemoteValue.AsNumber()
	field := strings.ToLower(c.FieldPath)

	switch {
	case containsAny(field, "revenue", "amount", "cost"):
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: Number(local + remote),
			Reasoning:     "summed concurrent additions to a monetary field",
			Confidence:    0.8,
		}
	case containsAny(field, "count", "total"):
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: Number(maxFloat(local, remote)),
			Reasoning:     "kept the higher of two counter values",
			Confidence:    0.8,
		}
	case containsAny(field, "score", "rating"):
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: Number((local + remote) / 2),
			Reasoning:     "averaged two score values",
			Confidence:    0.7,
		}
	default:
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: Number(maxFloat(local, remote)),
			Reasoning:     "kept the higher numeric value",
			Confidence:    0.6,
		}
	}
}

// resolveText merges two strings. A value containing the other wins; with a
// known base both diffs are concatenated onto it; otherwise the conflict
// needs manual review.
func resolveText(c *Conflict) (Resolution, bool) {
	local := c.LocalValue.AsString()
	remote := c.RemoteValue.AsString()

	if strings.Contains(local, remote) {
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: c.LocalValue,
			Reasoning:     "local text contains the remote text",
			Confidence:    0.8,
		}, true
	}
	if strings.Contains(remote, local) {
		return Resolution{
			Strategy:      StrategyMerge,
			ResolvedValue: c.RemoteValue,
			Reasoning:     "remote text contains the local text",
			Confidence:    0.8,
		}, true
	}

	if c.BaseValue != nil && c.BaseValue.Kind() == KindString {
		base := c.BaseValue.AsString()
		localDiff := strings.Replace(local, base, "", 1)
		remoteDiff := strings.Replace(remote, base, "", 1)

		if localDiff != "" && remoteDiff != "" &&
			!strings.Contains(localDiff, remoteDiff) && !strings.Contains(remoteDiff, localDiff) {
			return Resolution{
				Strategy:      StrategyMerge,
				ResolvedValue: String(base + localDiff + remoteDiff),
				Reasoning:     "concatenated both additions onto the base text",
				Confidence:    0.7,
			}, true
		}
	}

	return Resolution{}, false
}

// resolveList unions the two lists, preserving local order and appending
// remote elements not already present.
func resolveList(c *Conflict) Resolution {
	var union []Value
	for _, items := range [][]Value{c.LocalValue.Items(), c.RemoteValue.Items()} {
		for _, item := range items {
			if !containsValue(union, item) {
				union = append(union, item)
			}
		}
	}

	return Resolution{
		Strategy:      StrategyMerge,
		ResolvedValue: List(union...),
		Reasoning:     "merged both lists preserving order and dropping duplicates",
		Confidence:    0.8,
	}
}

// manualFallback is the default for objects, mismatched kinds, and null
// values: keep the local value but require human sign-off.
func manualFallback(c *Conflict) Resolution {
	return Resolution{
		Strategy:         StrategyManual,
		ResolvedValue:    c.LocalValue,
		Reasoning:        "no automatic strategy applies, defaulting to local pending review",
		Confidence:       0.3,
		RequiresApproval: true,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsValue(items []Value, v Value) bool {
	for _, item := range items {
		if item.Equal(v) {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
