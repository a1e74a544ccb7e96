package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 << 10
)

var (
	errIdentityMismatch = errors.New("session already identified as another user")
	errPinnedIdentity   = errors.New("token belongs to another user")
	errSessionClosed    = errors.New("session closed")
)

type sessionState int

const (
	stateAnonymous sessionState = iota
	stateIdentified
	stateClosed
)

// Session is one websocket connection. It starts anonymous and becomes bound
// to a single user on setup.
type Session struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	log     *slog.Logger

	mu     sync.Mutex
	state  sessionState
	userID string
	// pinned is the user proven by a bearer token at upgrade, if any.
	pinned string

	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, pinned string, opts Options, log *slog.Logger) *Session {
	return &Session{
		conn:    conn,
		send:    make(chan []byte, opts.SendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(opts.EventsPerSec), opts.EventsPerSec),
		log:     log,
		pinned:  pinned,
	}
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) identified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateIdentified
}

// identify binds the session to userID. Repeating it with the same id is
// fine; switching to another id is not.
func (s *Session) identify(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pinned != "" && s.pinned != userID {
		return errPinnedIdentity
	}
	switch s.state {
	case stateIdentified:
		if s.userID != userID {
			return errIdentityMismatch
		}
	case stateAnonymous:
		s.userID = userID
		s.state = stateIdentified
	case stateClosed:
		return errSessionClosed
	}
	return nil
}

// enqueue queues a frame without blocking. It reports false when the frame
// was dropped.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) emit(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		s.log.Error("encode frame", "event", event, "err", err)
		return
	}
	if !s.enqueue(frame) {
		s.log.Warn("session queue full, frame dropped", "event", event)
	}
}

func (s *Session) emitError(event, msg string) {
	s.emit(EventError, errorPayload{Event: event, Message: msg})
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = stateClosed
		s.mu.Unlock()
		close(s.done)
	})
}

// writePump owns all writes to the connection.
func (s *Session) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.flush()
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued, best effort.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
