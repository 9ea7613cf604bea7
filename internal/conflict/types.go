package conflict

import (
	"strings"
	"time"
)

// Type classifies how a conflict arose.
type Type string

const (
	TypeConcurrentUpdate      Type = "concurrent_update"
	TypeVersionMismatch       Type = "version_mismatch"
	TypeBusinessRuleViolation Type = "business_rule_violation"
	TypeSchemaChange          Type = "schema_change"
)

// Severity is a coarse risk classification of a conflicting field.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Strategy identifies how a resolution was (or should be) produced.
type Strategy string

const (
	StrategyTakeLocal      Strategy = "take_local"
	StrategyTakeRemote     Strategy = "take_remote"
	StrategyMerge          Strategy = "merge"
	StrategyManual         Strategy = "manual"
	StrategyBusinessRule   Strategy = "business_rule"
	StrategyTimestampBased Strategy = "timestamp_based"
)

// ChangeContext carries provenance and heuristics input for one
// pair of concurrent changesets.
type ChangeContext struct {
	UserID1    string           `json:"user_id_1"`
	UserID2    string           `json:"user_id_2"`
	TenantID   string           `json:"tenant_id"`
	Timestamp1 *time.Time       `json:"timestamp_1,omitempty"`
	Timestamp2 *time.Time       `json:"timestamp_2,omitempty"`
	Metadata   map[string]Value `json:"metadata,omitempty"`
}

// Conflict represents one detected disagreement on a single field of
// one entity. Conflicts are immutable once created; resolving one
// produces a separate Resolution, never mutates the conflict.
type Conflict struct {
	ID             string        `json:"id"`
	EntityType     string        `json:"entity_type"`
	EntityID       string        `json:"entity_id"`
	FieldPath      string        `json:"field_path"`
	Type           Type          `json:"type"`
	LocalValue     Value         `json:"local_value"`
	RemoteValue    Value         `json:"remote_value"`
	BaseValue      *Value        `json:"base_value,omitempty"`
	DetectedAt     time.Time     `json:"detected_at"`
	UserID1        string        `json:"user_id_1"`
	UserID2        string        `json:"user_id_2"`
	TenantID       string        `json:"tenant_id"`
	Severity       Severity      `json:"severity"`
	AutoResolvable bool          `json:"auto_resolvable"`
	Suggested      *Resolution   `json:"suggested_resolution,omitempty"`
	Context        ChangeContext `json:"business_context"`
}

// Resolution is a proposed or applied outcome for one conflict.
type Resolution struct {
	Strategy         Strategy          `json:"strategy"`
	ResolvedValue    Value             `json:"resolved_value"`
	Reasoning        string            `json:"reasoning"`
	Confidence       float64           `json:"confidence"`
	RequiresApproval bool              `json:"requires_approval"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// MergeResult is the output of a three-way merge across an entire changeset.
type MergeResult struct {
	Success       bool        `json:"success"`
	ResolvedValue Changeset   `json:"resolved_value"`
	Conflicts     []*Conflict `json:"conflicts"`
	Strategy      string      `json:"strategy"`
	Confidence    float64     `json:"confidence"`
}

// LogOutcome classifies one entry in a resolution log.
type LogOutcome string

const (
	OutcomeApplied LogOutcome = "applied"
	OutcomeSkipped LogOutcome = "skipped"
	OutcomeFailed  LogOutcome = "failed"
)

// LogEntry records one resolution attempt inside a batch.
type LogEntry struct {
	ConflictID string     `json:"conflict_id"`
	FieldPath  string     `json:"field_path"`
	Strategy   Strategy   `json:"strategy,omitempty"`
	Outcome    LogOutcome `json:"outcome"`
	Reasoning  string     `json:"reasoning"`
	Confidence float64    `json:"confidence"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// ResolveResult is the output of a batch resolution call. A batch always
// returns a result; callers route Unresolved to manual review.
type ResolveResult struct {
	ResolvedData Changeset   `json:"resolved_data"`
	Unresolved   []*Conflict `json:"unresolved_conflicts"`
	Log          []LogEntry  `json:"resolution_log"`
}

// Fields whose conflicts are always critical. Matched exactly.
var criticalFields = map[string]bool{
	"id":        true,
	"tenantId":  true,
	"status":    true,
	"deletedAt": true,
}

// Keyword tiers matched case-insensitively as substrings of the field path.
var (
	highKeywords   = []string{"email", "phone", "revenue", "contractvalue", "subscriptionstatus"}
	mediumKeywords = []string{"name", "address", "company", "title"}
)

// severityOf classifies a field path. First matching tier wins: exact
// critical fields, then high keywords, then medium keywords, else low.
func severityOf(fieldPath string) Severity {
	if criticalFields[fieldPath] {
		return SeverityCritical
	}
	lower := strings.ToLower(fieldPath)
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			return SeverityMedium
		}
	}
	return SeverityLow
}
