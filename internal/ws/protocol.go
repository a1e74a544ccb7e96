package ws

import "encoding/json"

// Event names on the realtime channel.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join_chat"
	EventNewMessage = "new_message"

	EventConnected = "connected"
	EventError     = "error"
)

// frame is the envelope of every websocket message in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: data})
}

// peer is a user or pet reference as sent by clients. Older clients send
// "_id" instead of "id".
type peer struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Name     string `json:"name"`
}

func (p *peer) id() string {
	if p == nil {
		return ""
	}
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}

type newMessagePayload struct {
	Sender   peer   `json:"sender"`
	Receiver *peer  `json:"receiver"`
	Pet      *peer  `json:"pet"`
	Content  string `json:"content"`
	// Clients send a chat id; the server derives its own.
	ChatID string `json:"chat_id"`
}

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// decodeUserRef accepts either a bare user id string or a peer object.
func decodeUserRef(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var p peer
	if err := json.Unmarshal(data, &p); err == nil {
		return p.id()
	}
	return ""
}
