package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harmonia-io/harmonia/internal/common/errors"
)

// MemoryStore is an in-memory Store used for tests and embedded setups.
type MemoryStore struct {
	mu      sync.Mutex
	streams map[string][]*Event
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[string][]*Event),
	}
}

// Append writes one event to the end of a stream.
func (s *MemoryStore) Append(ctx context.Context, streamID, streamType, eventType string, payload interface{}, env Envelope) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.E("MemoryStore.Append", errors.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := &Event{
		ID:         uuid.New().String(),
		StreamID:   streamID,
		StreamType: streamType,
		Type:       eventType,
		Sequence:   uint64(len(s.streams[streamID]) + 1),
		Payload:    raw,
		Envelope:   env,
		RecordedAt: time.Now(),
	}
	s.streams[streamID] = append(s.streams[streamID], event)

	return event, nil
}

// ReadStream returns all events of a stream in sequence order.
func (s *MemoryStore) ReadStream(ctx context.Context, streamID string) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.streams[streamID]
	out := make([]*Event, len(entries))
	copy(out, entries)
	return out, nil
}

// Close closes the store.
func (s *MemoryStore) Close() error {
	return nil
}
