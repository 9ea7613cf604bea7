package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harmonia-io/harmonia/internal/common/logger"
)

// pendingEvent is one queued emission awaiting the worker.
type pendingEvent struct {
	StreamID   string
	StreamType string
	Type       string
	Payload    interface{}
	Envelope   Envelope
}

// Emitter decouples event emission from the hot path: Publish enqueues onto
// a bounded channel consumed by a single worker goroutine that appends to
// the store. Publish never blocks and never surfaces failures to the caller;
// when the queue is full the event is dropped with a logged warning.
type Emitter struct {
	store  Store
	queue  chan *pendingEvent
	logger *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEmitter creates an emitter with the given queue capacity.
func NewEmitter(store Store, queueSize int) *Emitter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Emitter{
		store:  store,
		queue:  make(chan *pendingEvent, queueSize),
		logger: logger.WithComponent("EventEmitter"),
		stopCh: make(chan struct{}),
	}
}

// Start starts the emitter worker.
func (e *Emitter) Start(ctx context.Context) error {
	e.logger.Info("starting event emitter", zap.Int("queue_size", cap(e.queue)))

	e.wg.Add(1)
	go e.run(ctx)

	return nil
}

// Stop stops the worker after draining queued events.
func (e *Emitter) Stop() {
	e.logger.Info("stopping event emitter")
	close(e.stopCh)
	e.wg.Wait()
}

// Publish enqueues one event for asynchronous appending. It never blocks.
func (e *Emitter) Publish(streamID, streamType, eventType string, payload interface{}, env Envelope) {
	p := &pendingEvent{
		StreamID:   streamID,
		StreamType: streamType,
		Type:       eventType,
		Payload:    payload,
		Envelope:   env,
	}

	select {
	case e.queue <- p:
	default:
		e.logger.Warn("event queue full, dropping event",
			zap.String("stream_id", streamID),
			zap.String("event_type", eventType),
		)
	}
}

// QueueLen returns the number of queued events.
func (e *Emitter) QueueLen() int {
	return len(e.queue)
}

// run is the worker loop.
func (e *Emitter) run(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case p := <-e.queue:
			e.append(p)
		case <-e.stopCh:
			// Drain remaining events before exiting
			for {
				select {
				case p := <-e.queue:
					e.append(p)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// append writes one event to the store. Failures are logged, never surfaced.
func (e *Emitter) append(p *pendingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := e.store.Append(ctx, p.StreamID, p.StreamType, p.Type, p.Payload, p.Envelope)
	if err != nil {
		e.logger.Warn("failed to append event",
			zap.String("stream_id", p.StreamID),
			zap.String("event_type", p.Type),
			zap.Error(err),
		)
		return
	}

	e.logger.Debug("event appended",
		zap.String("event_id", event.ID),
		zap.String("stream_id", event.StreamID),
		zap.Uint64("sequence", event.Sequence),
	)
}
