package events

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/harmonia-io/harmonia/internal/common/errors"
	"github.com/harmonia-io/harmonia/internal/common/logger"
)

// Store provides append-only event stream storage.
type Store interface {
	// Append writes one event to the end of a stream.
	Append(ctx context.Context, streamID, streamType, eventType string, payload interface{}, env Envelope) (*Event, error)

	// ReadStream returns all events of a stream in sequence order.
	ReadStream(ctx context.Context, streamID string) ([]*Event, error)

	// Close closes the store.
	Close() error
}

// Key prefixes for stream records and per-stream sequence counters.
const (
	prefixEvent = "events:" // events:<stream_id>:<seq, big-endian> -> event JSON
	prefixSeq   = "seq:"    // seq:<stream_id> -> last sequence number
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens an event store at the given path.
func NewBadgerStore(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger's default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.L().Info("event store opened")

	return &BadgerStore{db: db}, nil
}

// Append writes one event to the end of a stream.
func (s *BadgerStore) Append(ctx context.Context, streamID, streamType, eventType string, payload interface{}, env Envelope) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.E("BadgerStore.Append", errors.ErrInvalidInput, err)
	}

	event := &Event{
		ID:         uuid.New().String(),
		StreamID:   streamID,
		StreamType: streamType,
		Type:       eventType,
		Payload:    raw,
		Envelope:   env,
		RecordedAt: time.Now(),
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSequence(txn, streamID)
		if err != nil {
			return err
		}
		event.Sequence = seq

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}

		return txn.Set(eventKey(streamID, seq), data)
	})
	if err != nil {
		return nil, errors.Wrap("BadgerStore.Append", err)
	}

	return event, nil
}

// ReadStream returns all events of a stream in sequence order.
func (s *BadgerStore) ReadStream(ctx context.Context, streamID string) ([]*Event, error) {
	var result []*Event
	prefix := []byte(prefixEvent + streamID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var event Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			result = append(result, &event)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap("BadgerStore.ReadStream", err)
	}

	return result, nil
}

// Close closes the store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// nextSequence increments and returns the sequence counter for a stream.
func nextSequence(txn *badger.Txn, streamID string) (uint64, error) {
	key := []byte(prefixSeq + streamID)

	var seq uint64
	item, err := txn.Get(key)
	switch {
	case err == badger.ErrKeyNotFound:
		seq = 0
	case err != nil:
		return 0, err
	default:
		err = item.Value(func(val []byte) error {
			if len(val) == 8 {
				seq = binary.BigEndian.Uint64(val)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	seq++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	if err := txn.Set(key, buf); err != nil {
		return 0, err
	}

	return seq, nil
}

// eventKey builds the key for one event. Big-endian sequence keeps
// iteration in append order.
func eventKey(streamID string, seq uint64) []byte {
	key := make([]byte, 0, len(prefixEvent)+len(streamID)+9)
	key = append(key, prefixEvent...)
	key = append(key, streamID...)
	key = append(key, ':')
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return append(key, buf...)
}
