package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pethaven/internal/domain"
	"pethaven/internal/service"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Sender runs the chat send path.
type Sender interface {
	Send(ctx context.Context, in service.SendInput) (*service.SendResult, error)
}

type Options struct {
	// AllowedOrigins lists accepted Origin values; "*" accepts any.
	AllowedOrigins []string
	SendBuffer     int
	EventsPerSec   int
	PingInterval   time.Duration
	EventTimeout   time.Duration
}

func (o *Options) defaults() {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.EventsPerSec <= 0 {
		o.EventsPerSec = 20
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.EventTimeout <= 0 {
		o.EventTimeout = 10 * time.Second
	}
}

// Handler upgrades /ws requests and runs the realtime protocol.
type Handler struct {
	hub         *Hub
	chat        Sender
	auth        Authenticator
	opts        Options
	checkOrigin func(r *http.Request) bool
	upgrader    websocket.Upgrader
	log         *slog.Logger
}

func NewHandler(hub *Hub, chat Sender, auth Authenticator, opts Options, log *slog.Logger) *Handler {
	opts.defaults()
	checkOrigin := makeCheckOrigin(opts.AllowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin:  checkOrigin,
		Subprotocols: []string{"bearer"},
	}
	return &Handler{
		hub:         hub,
		chat:        chat,
		auth:        auth,
		opts:        opts,
		checkOrigin: checkOrigin,
		upgrader:    upgrader,
		log:         log.With("component", "ws"),
	}
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if _, wildcard := allowed["*"]; wildcard {
		return func(*http.Request) bool { return true }
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return false }
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken finds a bearer token in the Authorization header or in
// Sec-WebSocket-Protocol ("bearer, <token>"), where browsers can set it.
func extractToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, true
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1], true
		}
	}
	return "", false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	var pinned string
	if token, ok := extractToken(r); ok {
		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		pinned = user.ID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", "err", err)
		return
	}

	s := newSession(conn, pinned, h.opts, h.log)
	go s.writePump(h.opts.PingInterval)
	defer func() {
		h.hub.Leave(s)
		s.close()
		h.log.Debug("session closed", "user_id", s.UserID())
	}()

	h.readLoop(r.Context(), s)
}

func (h *Handler) readLoop(ctx context.Context, s *Session) {
	pongWait := 2 * h.opts.PingInterval
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read failed", "user_id", s.UserID(), "err", err)
			}
			return
		}
		if !s.limiter.Allow() {
			s.emitError("", "too many events")
			continue
		}

		var in frame
		if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
			s.emitError("", "malformed frame")
			continue
		}
		h.dispatch(ctx, s, in)
	}
}

func (h *Handler) dispatch(ctx context.Context, s *Session, in frame) {
	switch in.Event {
	case EventSetup:
		var p peer
		if err := json.Unmarshal(in.Data, &p); err != nil || p.id() == "" {
			s.emitError(in.Event, "setup requires a user id")
			return
		}
		if !h.join(s, in.Event, p.id()) {
			return
		}
		s.emit(EventConnected, nil)

	case EventJoinChat:
		userID := decodeUserRef(in.Data)
		if userID == "" {
			s.emitError(in.Event, "join_chat requires a user id")
			return
		}
		h.join(s, in.Event, userID)

	case EventNewMessage:
		if !s.identified() {
			s.emitError(in.Event, "setup required")
			return
		}
		h.newMessage(ctx, s, in.Data)

	default:
		if !s.identified() {
			s.emitError(in.Event, "setup required")
			return
		}
		s.emitError(in.Event, "unknown event")
	}
}

func (h *Handler) join(s *Session, event, userID string) bool {
	if err := s.identify(userID); err != nil {
		h.log.Warn("identify refused", "event", event, "user_id", s.UserID(), "requested", userID, "err", err)
		s.emitError(event, err.Error())
		return false
	}
	h.hub.Join(userID, s)
	return true
}

func (h *Handler) newMessage(ctx context.Context, s *Session, data json.RawMessage) {
	var p newMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.emitError(EventNewMessage, "malformed message")
		return
	}
	if p.Receiver.id() == "" {
		s.emitError(EventNewMessage, "receiver is required")
		return
	}
	if p.Sender.id() != s.UserID() {
		s.emitError(EventNewMessage, "sender does not match session")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.EventTimeout)
	defer cancel()

	res, err := h.chat.Send(ctx, service.SendInput{
		SenderID:   s.UserID(),
		SenderName: p.Sender.Name,
		ReceiverID: p.Receiver.id(),
		PetID:      p.Pet.id(),
		Content:    p.Content,
	})
	if err != nil {
		h.log.Error("send message", "sender_id", s.UserID(), "receiver_id", p.Receiver.id(), "err", err)
		s.emitError(EventNewMessage, clientMessage(err))
		return
	}
	h.log.Debug("message sent", "message_id", res.Message.ID, "chat_id", res.Message.ChatID, "delivered", res.Delivered)
}

func clientMessage(err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "receiver not found"
	}
	return "failed to send message"
}
