package conflict

import (
	"fmt"
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(EngineConfig{HistoryCap: 100, DefaultRules: false}, nil)
}

func testContext() ChangeContext {
	return ChangeContext{
		UserID1:  "user-1",
		UserID2:  "user-2",
		TenantID: "tenant-1",
	}
}

func TestDetectConflicts_OnlyOverlappingFields(t *testing.T) {
	engine := newTestEngine()

	local := Changeset{
		"alpha": Number(1),
		"beta":  Number(2),
	}
	remote := Changeset{
		"beta":  Number(3),
		"gamma": Number(4),
	}

	conflicts := engine.DetectConflicts("Customer", "cust-1", local, remote, nil, testContext())

	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %v, want 1", len(conflicts))
	}
	if conflicts[0].FieldPath != "beta" {
		t.Errorf("FieldPath = %v, want beta", conflicts[0].FieldPath)
	}
}

func TestDetectConflicts_EqualValuesSuppressed(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name   string
		local  Value
		remote Value
	}{
		{"equal numbers", Number(42), Number(42)},
		{"equal strings", String("same"), String("same")},
		{"equal lists", List(String("a"), String("b")), List(String("a"), String("b"))},
		{"equal maps", Map(map[string]Value{"k": Number(1)}), Map(map[string]Value{"k": Number(1)})},
		{"both null", Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := Changeset{"field": tt.local}
			remote := Changeset{"field": tt.remote}

			conflicts := engine.DetectConflicts("Customer", "cust-1", local, remote, nil, testContext())
			if len(conflicts) != 0 {
				t.Errorf("len(conflicts) = %v, want 0", len(conflicts))
			}
		})
	}
}

func TestDetectConflicts_Severity(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		fieldPath string
		want      Severity
	}{
		{"status", SeverityCritical},
		{"id", SeverityCritical},
		{"tenantId", SeverityCritical},
		{"deletedAt", SeverityCritical},
		{"subscriptionStatus", SeverityHigh},
		{"contactEmail", SeverityHigh},
		{"phone", SeverityHigh},
		{"monthlyRevenue", SeverityHigh},
		{"companyName", SeverityMedium},
		{"billingAddress", SeverityMedium},
		{"jobTitle", SeverityMedium},
		{"favoriteColor", SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.fieldPath, func(t *testing.T) {
			local := Changeset{tt.fieldPath: String("a")}
			remote := Changeset{tt.fieldPath: String("b")}

			conflicts := engine.DetectConflicts("Customer", "cust-1", local, remote, nil, testContext())
			if len(conflicts) != 1 {
				t.Fatalf("len(conflicts) = %v, want 1", len(conflicts))
			}
			if conflicts[0].Severity != tt.want {
				t.Errorf("Severity = %v, want %v", conflicts[0].Severity, tt.want)
			}
		})
	}
}

func TestDetectConflicts_CriticalNeverAutoResolvable(t *testing.T) {
	engine := newTestEngine()

	// Text containment would normally suggest with confidence 0.8.
	local := Changeset{"status": String("active")}
	remote := Changeset{"status": String("active churned")}

	conflicts := engine.DetectConflicts("Customer", "cust-1", local, remote, nil, testContext())
	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %v, want 1", len(conflicts))
	}

	c := conflicts[0]
	if c.Suggested == nil || c.Suggested.Confidence < autoResolveConfidence {
		t.Fatalf("test premise broken: want confident suggestion, got %+v", c.Suggested)
	}
	if c.AutoResolvable {
		t.Error("critical conflict should never be auto-resolvable")
	}
}

func TestDetectConflicts_AutoResolvable(t *testing.T) {
	engine := newTestEngine()

	local := Changeset{"ticketCount": Number(5)}
	remote := Changeset{"ticketCount": Number(9)}

	conflicts := engine.DetectConflicts("Ticket", "tick-1", local, remote, nil, testContext())
	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %v, want 1", len(conflicts))
	}

	c := conflicts[0]
	if !c.AutoResolvable {
		t.Error("confident counter merge should be auto-resolvable")
	}
	if c.Suggested == nil {
		t.Fatal("Suggested should be populated at detection time")
	}
	if c.Suggested.RequiresApproval {
		t.Error("counter merge should not require approval")
	}
}

func TestDetectConflicts_DeterministicOrder(t *testing.T) {
	engine := newTestEngine()

	local := Changeset{
		"zulu":  Number(1),
		"alpha": Number(2),
		"mike":  Number(3),
	}
	remote := Changeset{
		"zulu":  Number(10),
		"alpha": Number(20),
		"mike":  Number(30),
	}

	conflicts := engine.DetectConflicts("Deal", "deal-1", local, remote, nil, testContext())
	if len(conflicts) != 3 {
		t.Fatalf("len(conflicts) = %v, want 3", len(conflicts))
	}

	want := []string{"alpha", "mike", "zulu"}
	for i, c := range conflicts {
		if c.FieldPath != want[i] {
			t.Errorf("conflicts[%d].FieldPath = %v, want %v", i, c.FieldPath, want[i])
		}
	}
}

func TestDetectConflicts_ProvenanceAndBase(t *testing.T) {
	engine := newTestEngine()

	t1 := time.Now().Add(-time.Minute)
	t2 := time.Now()
	cctx := ChangeContext{
		UserID1:    "alice",
		UserID2:    "bob",
		TenantID:   "tenant-9",
		Timestamp1: &t1,
		Timestamp2: &t2,
	}

	base := Changeset{"notes": String("original")}
	local := Changeset{"notes": String("local edit")}
	remote := Changeset{"notes": String("remote edit")}

	conflicts := engine.DetectConflicts("Customer", "cust-9", local, remote, base, cctx)
	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %v, want 1", len(conflicts))
	}

	c := conflicts[0]
	if c.UserID1 != "alice" || c.UserID2 != "bob" {
		t.Errorf("provenance = %v/%v, want alice/bob", c.UserID1, c.UserID2)
	}
	if c.TenantID != "tenant-9" {
		t.Errorf("TenantID = %v, want tenant-9", c.TenantID)
	}
	if c.BaseValue == nil || !c.BaseValue.Equal(String("original")) {
		t.Error("BaseValue should carry the base state value")
	}
	if c.ID == "" {
		t.Error("conflict ID should be generated")
	}
	if c.Type != TypeConcurrentUpdate {
		t.Errorf("Type = %v, want %v", c.Type, TypeConcurrentUpdate)
	}
}

func TestHistory_CapEvictsOldest(t *testing.T) {
	engine := newTestEngine()

	for i := 0; i < 150; i++ {
		local := Changeset{"counter": Number(float64(i))}
		remote := Changeset{"counter": Number(float64(i + 1000))}
		engine.DetectConflicts("Counter", "entity-1", local, remote, nil, testContext())
	}

	history := engine.HistoryForEntity("entity-1")
	if len(history) != 100 {
		t.Fatalf("len(history) = %v, want 100", len(history))
	}

	// The 50 oldest entries are evicted; the first retained conflict is
	// from detection 50.
	if got := history[0].LocalValue.AsNumber(); got != 50 {
		t.Errorf("history[0].LocalValue = %v, want 50", got)
	}
	if got := history[99].LocalValue.AsNumber(); got != 149 {
		t.Errorf("history[99].LocalValue = %v, want 149", got)
	}
}

func TestHistory_SeparatePerEntity(t *testing.T) {
	engine := newTestEngine()

	for _, entityID := range []string{"e-1", "e-2"} {
		local := Changeset{"field": String("a")}
		remote := Changeset{"field": String("b c")}
		engine.DetectConflicts("Customer", entityID, local, remote, nil, testContext())
	}

	if got := len(engine.HistoryForEntity("e-1")); got != 1 {
		t.Errorf("history e-1 = %v, want 1", got)
	}
	if got := len(engine.HistoryForEntity("e-2")); got != 1 {
		t.Errorf("history e-2 = %v, want 1", got)
	}
	if got := len(engine.HistoryForEntity("e-3")); got != 0 {
		t.Errorf("history e-3 = %v, want 0", got)
	}
}

func TestStatistics(t *testing.T) {
	engine := newTestEngine()

	// One critical (manual), one auto-resolvable counter, one manual object.
	engine.DetectConflicts("Customer", "c-1",
		Changeset{"status": String("active")},
		Changeset{"status": String("churned")},
		nil, testContext())
	engine.DetectConflicts("Customer", "c-2",
		Changeset{"ticketCount": Number(1)},
		Changeset{"ticketCount": Number(2)},
		nil, testContext())
	engine.DetectConflicts("Customer", "c-3",
		Changeset{"prefs": Map(map[string]Value{"a": Number(1)})},
		Changeset{"prefs": Map(map[string]Value{"a": Number(2)})},
		nil, testContext())

	stats := engine.Statistics()

	if stats.Total != 3 {
		t.Errorf("Total = %v, want 3", stats.Total)
	}
	if stats.AutoResolvable != 1 {
		t.Errorf("AutoResolvable = %v, want 1", stats.AutoResolvable)
	}
	if stats.ManualRequired != 2 {
		t.Errorf("ManualRequired = %v, want 2", stats.ManualRequired)
	}
	if stats.ByType[TypeConcurrentUpdate] != 3 {
		t.Errorf("ByType[concurrent_update] = %v, want 3", stats.ByType[TypeConcurrentUpdate])
	}
	if stats.BySeverity[SeverityCritical] != 1 {
		t.Errorf("BySeverity[critical] = %v, want 1", stats.BySeverity[SeverityCritical])
	}
	if stats.BySeverity[SeverityLow] != 2 {
		t.Errorf("BySeverity[low] = %v, want 2", stats.BySeverity[SeverityLow])
	}
}

func TestStatistics_Empty(t *testing.T) {
	engine := newTestEngine()

	stats := engine.Statistics()
	if stats.Total != 0 {
		t.Errorf("Total = %v, want 0", stats.Total)
	}
}

func TestDetectConflicts_UniqueIDs(t *testing.T) {
	engine := newTestEngine()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		local := Changeset{"field": Number(float64(i))}
		remote := Changeset{"field": Number(float64(i + 100))}
		conflicts := engine.DetectConflicts("Customer", "cust-1", local, remote, nil, testContext())
		if len(conflicts) != 1 {
			t.Fatalf("iteration %d: len(conflicts) = %v, want 1", i, len(conflicts))
		}
		id := conflicts[0].ID
		if seen[id] {
			t.Fatalf("duplicate conflict ID %q", id)
		}
		seen[id] = true
	}
}

func BenchmarkDetectConflicts(b *testing.B) {
	engine := newTestEngine()

	local := make(Changeset, 20)
	remote := make(Changeset, 20)
	for i := 0; i < 20; i++ {
		field := fmt.Sprintf("field%02d", i)
		local[field] = Number(float64(i))
		remote[field] = Number(float64(i + 1))
	}
	cctx := testContext()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.DetectConflicts("Customer", "bench", local, remote, nil, cctx)
	}
}
