package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Forwarder republishes a push to other server instances.
type Forwarder interface {
	Forward(ctx context.Context, userID, event string, payload any) error
}

// Hub tracks live sessions keyed by user ID. A user may hold any number of
// sessions; each one receives every push addressed to that user.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	forward  Forwarder
	log      *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		log:      log,
	}
}

// SetForwarder enables cross-instance fan-out. Call before serving.
func (h *Hub) SetForwarder(f Forwarder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forward = f
}

// Join adds s to the channel of userID. Joining twice is a no-op.
func (h *Hub) Join(userID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*Session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
}

// Leave removes s from whatever channel it joined.
func (h *Hub) Leave(s *Session) {
	userID := s.UserID()
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.sessions[userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, userID)
		}
	}
}

// Online returns the number of local sessions userID holds.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// PushToUser sends event to every local session of userID and returns how
// many accepted it. Zero means the push was dropped here; with a forwarder
// set, other instances may still deliver it.
func (h *Hub) PushToUser(ctx context.Context, userID, event string, payload any) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Error("encode push", "event", event, "user_id", userID, "err", err)
		return 0
	}
	n := h.deliver(userID, frame)

	h.mu.RLock()
	fwd := h.forward
	h.mu.RUnlock()
	if fwd != nil {
		if err := fwd.Forward(ctx, userID, event, payload); err != nil {
			h.log.Warn("forward push", "event", event, "user_id", userID, "err", err)
		}
	}
	return n
}

// DeliverLocal sends a push relayed from another instance. It is never
// forwarded again.
func (h *Hub) DeliverLocal(userID, event string, payload json.RawMessage) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		h.log.Warn("encode relayed push", "event", event, "err", err)
		return 0
	}
	return h.deliver(userID, frame)
}

func (h *Hub) deliver(userID string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for s := range h.sessions[userID] {
		if s.enqueue(frame) {
			n++
		} else {
			h.log.Warn("session queue full, push dropped", "user_id", userID)
		}
	}
	return n
}
