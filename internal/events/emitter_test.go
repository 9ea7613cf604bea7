package events

import (
	"context"
	"testing"
)

func TestEmitter_PublishAndDrain(t *testing.T) {
	store := NewMemoryStore()
	emitter := NewEmitter(store, 16)

	ctx := context.Background()
	if err := emitter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		emitter.Publish("cust-1", "Customer", "ConflictResolved",
			map[string]interface{}{"index": i}, testEnvelope())
	}

	// Stop drains the queue before returning.
	emitter.Stop()

	stream, err := store.ReadStream(ctx, "cust-1")
	if err != nil {
		t.Fatalf("ReadStream failed: %v", err)
	}
	if len(stream) != 5 {
		t.Errorf("len(stream) = %v, want 5", len(stream))
	}
}

func TestEmitter_PublishNeverBlocks(t *testing.T) {
	store := NewMemoryStore()
	// Worker not started: the queue fills and further publishes must
	// drop instead of blocking.
	emitter := NewEmitter(store, 2)

	for i := 0; i < 10; i++ {
		emitter.Publish("cust-1", "Customer", "ConflictResolved", nil, testEnvelope())
	}

	if got := emitter.QueueLen(); got != 2 {
		t.Errorf("QueueLen() = %v, want 2 (overflow dropped)", got)
	}
}

func TestEmitter_DefaultQueueSize(t *testing.T) {
	emitter := NewEmitter(NewMemoryStore(), 0)

	if cap(emitter.queue) == 0 {
		t.Error("zero queue size should fall back to a sane default")
	}
}
