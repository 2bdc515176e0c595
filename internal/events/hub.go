// Package events buffers committed catalog state changes and fans them out
// to long-poll readers and sinks such as push notifications and metrics.
package events

import (
	"context"
	"sync"

	"albumtracker/internal/catalog"
)

// Sink receives every published state change. Append must not block.
type Sink interface {
	Append(catalog.StateChange)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(catalog.StateChange)

// Append calls f.
func (f SinkFunc) Append(change catalog.StateChange) { f(change) }

// Hub stores recent state changes and wakes waiters when new ones arrive.
// Sequences come from the catalog store; the hub only keeps them ordered.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []catalog.StateChange
	lastSeq  uint64
	sinks    []Sink
}

var _ catalog.Publisher = (*Hub)(nil)

// NewHub constructs a bounded in-memory fan-out buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 512
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddSink wires an additional sink that receives every published change.
func (h *Hub) AddSink(sink Sink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Seed loads previously recorded changes without notifying sinks, so a
// restarted daemon can serve history that predates it.
func (h *Hub) Seed(changes []catalog.StateChange) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, change := range changes {
		h.appendLocked(change)
	}
	h.cond.Broadcast()
}

// Publish appends a committed change and notifies sinks. Changes at or
// below the last seen sequence are dropped.
func (h *Hub) Publish(change catalog.StateChange) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if !h.appendLocked(change) {
		h.mu.Unlock()
		return
	}
	sinks := append([]Sink(nil), h.sinks...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(change)
	}
}

func (h *Hub) appendLocked(change catalog.StateChange) bool {
	if change.Sequence <= h.lastSeq {
		return false
	}
	h.lastSeq = change.Sequence
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, change)
	return true
}

// Fetch returns changes with sequence greater than since. When wait is true,
// Fetch blocks until at least one change is available or the context ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]catalog.StateChange, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		changes, next := h.snapshotLocked(since, limit)
		if len(changes) > 0 || !wait {
			return changes, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, max(since, h.lastSeq), err
		}
	}
}

// FirstSequence reports the smallest sequence still buffered, or 0 when
// the hub is empty.
func (h *Hub) FirstSequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.buffer) == 0 {
		return 0
	}
	return h.buffer[0].Sequence
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]catalog.StateChange, uint64) {
	startIdx := len(h.buffer)
	for i, change := range h.buffer {
		if change.Sequence > since {
			startIdx = i
			break
		}
	}
	if startIdx == len(h.buffer) {
		return nil, max(since, h.lastSeq)
	}
	end := startIdx + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]catalog.StateChange, end-startIdx)
	copy(out, h.buffer[startIdx:end])
	return out, out[len(out)-1].Sequence
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
