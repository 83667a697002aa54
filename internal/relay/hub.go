package relay

import (
	"log/slog"
	"sync"
)

// handleBuffer is the outbound channel depth per stream handle. At 200 ms per
// frame this absorbs over three seconds of synthesised audio before Deliver
// starts dropping.
const handleBuffer = 16

// StreamHandle is the live delivery channel for one leg's outbound audio.
// Obtain one from Hub.Register; the connection handler drains Out and watches
// Done to learn it has been replaced or unregistered.
type StreamHandle struct {
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Out returns the channel the connection writer drains.
func (h *StreamHandle) Out() <-chan []byte {
	return h.out
}

// Done is closed when the handle is replaced or unregistered. A writer loop
// should select on it and exit promptly.
func (h *StreamHandle) Done() <-chan struct{} {
	return h.done
}

// Close marks the handle stale. Safe to call multiple times.
func (h *StreamHandle) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Hub is the registry mapping (session, participant) keys to live outbound
// stream handles. All methods are safe for concurrent use from many
// connection and pipeline goroutines.
type Hub struct {
	mu      sync.RWMutex
	handles map[streamKey]*StreamHandle
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{handles: make(map[streamKey]*StreamHandle)}
}

// Register installs a fresh handle for the key and returns it. Any previous
// handle for the same key is considered stale: it is closed and discarded so
// its writer loop stops, and deliveries go to the new handle only.
func (hub *Hub) Register(sessionID string, participant ParticipantType) *StreamHandle {
	key := streamKey{sessionID, participant}
	h := &StreamHandle{
		out:  make(chan []byte, handleBuffer),
		done: make(chan struct{}),
	}

	hub.mu.Lock()
	if old, ok := hub.handles[key]; ok {
		old.Close()
		slog.Debug("stream handle replaced", "session_id", sessionID, "participant", participant)
	}
	hub.handles[key] = h
	hub.mu.Unlock()

	return h
}

// Lookup returns the live handle for the key, or nil when none is registered.
func (hub *Hub) Lookup(sessionID string, participant ParticipantType) *StreamHandle {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return hub.handles[streamKey{sessionID, participant}]
}

// Unregister removes the handle for the key and closes it. Removing a key
// that is absent, or a key whose handle was already replaced by another
// registration, is a no-op — only the exact handle h is removed. Idempotent.
func (hub *Hub) Unregister(sessionID string, participant ParticipantType, h *StreamHandle) {
	key := streamKey{sessionID, participant}

	hub.mu.Lock()
	if cur, ok := hub.handles[key]; ok && (h == nil || cur == h) {
		delete(hub.handles, key)
		cur.Close()
	}
	hub.mu.Unlock()
}

// Deliver sends payload to the leg's live handle. When no handle is
// registered, the handle is stale, or its buffer is full, the payload is
// silently dropped — the counterpart may not have joined yet or may already
// have left, and that is not an error.
//
// Returns true when the payload was enqueued, false when dropped.
func (hub *Hub) Deliver(sessionID string, participant ParticipantType, payload []byte) bool {
	hub.mu.RLock()
	h := hub.handles[streamKey{sessionID, participant}]
	hub.mu.RUnlock()

	if h == nil {
		return false
	}

	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.out <- payload:
		return true
	case <-h.done:
		return false
	default:
		slog.Debug("outbound stream buffer full, dropping payload",
			"session_id", sessionID, "participant", participant)
		return false
	}
}

// Close closes every registered handle and empties the registry.
func (hub *Hub) Close() {
	hub.mu.Lock()
	for key, h := range hub.handles {
		h.Close()
		delete(hub.handles, key)
	}
	hub.mu.Unlock()
}
