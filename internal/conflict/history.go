package conflict

import "sync"

// History stores detected conflicts per entity for analytics. Implementations
// must be safe for concurrent use; the engine appends from every detection
// call. The in-memory implementation is bounded and non-durable — durability
// beyond process lifetime is the caller's responsibility.
type History interface {
	// Append records detected conflicts for an entity.
	Append(entityID string, conflicts []*Conflict)

	// ForEntity returns the retained conflicts for one entity, oldest first.
	ForEntity(entityID string) []*Conflict

	// All returns every retained conflict across all entities.
	All() []*Conflict
}

// memoryHistory is a mutex-guarded in-memory History capped per entity.
// When the cap is exceeded the oldest conflicts are evicted first.
type memoryHistory struct {
	mu       sync.Mutex
	cap      int
	byEntity map[string][]*Conflict
}

// NewMemoryHistory creates an in-memory history retaining at most
// capPerEntity conflicts per entity.
func NewMemoryHistory(capPerEntity int) History {
	if capPerEntity <= 0 {
		capPerEntity = 100
	}
	return &memoryHistory{
		cap:      capPerEntity,
		byEntity: make(map[string][]*Conflict),
	}
}

// Append records detected conflicts for an entity.
func (h *memoryHistory) Append(entityID string, conflicts []*Conflict) {
	if len(conflicts) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries := append(h.byEntity[entityID], conflicts...)
	if len(entries) > h.cap {
		evict := len(entries) - h.cap
		entries = append([]*Conflict(nil), entries[evict:]...)
	}
	h.byEntity[entityID] = entries
}

// ForEntity returns the retained conflicts for one entity, oldest first.
func (h *memoryHistory) ForEntity(entityID string) []*Conflict {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.byEntity[entityID]
	out := make([]*Conflict, len(entries))
	copy(out, entries)
	return out
}

// All returns every retained conflict across all entities.
func (h *memoryHistory) All() []*Conflict {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*Conflict
	for _, entries := range h.byEntity {
		out = append(out, entries...)
	}
	return out
}

// Statistics is an aggregate view over the retained conflict history.
type Statistics struct {
	Total          int              `json:"total"`
	AutoResolvable int              `json:"auto_resolvable"`
	ManualRequired int              `json:"manual_required"`
	ByType         map[Type]int     `json:"by_type"`
	BySeverity     map[Severity]int `json:"by_severity"`
}

// Statistics scans the full history and returns aggregate counts. The
// auto/manual split reflects the AutoResolvable flag computed at detection
// time, not actual resolution outcomes. Pure read, no side effects.
func (e *Engine) Statistics() Statistics {
	stats := Statistics{
		ByType:     make(map[Type]int),
		BySeverity: make(map[Severity]int),
	}

	for _, c := range e.history.All() {
		stats.Total++
		if c.AutoResolvable {
			stats.AutoResolvable++
		} else {
			stats.ManualRequired++
		}
		stats.ByType[c.Type]++
		stats.BySeverity[c.Severity]++
	}

	return stats
}

// HistoryForEntity returns the retained conflicts for one entity.
func (e *Engine) HistoryForEntity(entityID string) []*Conflict {
	return e.history.ForEntity(entityID)
}
