package service

import (
	"context"
	"log/slog"
	"time"
)

// Realtime event names pushed to users.
const (
	EventMessageReceived      = "message_received"
	EventNotificationReceived = "notification_received"
)

// Pusher delivers an event to every live session of a user and returns how
// many sessions it reached. Zero means the event was dropped.
type Pusher interface {
	PushToUser(ctx context.Context, userID, event string, payload any) int
}

type nopPusher struct{}

func (nopPusher) PushToUser(context.Context, string, string, any) int { return 0 }

// Domain event types published to the event stream.
const (
	TopicMessageCreated           = "message.created"
	TopicNotificationCreated      = "notification.created"
	TopicApplicationCreated       = "application.created"
	TopicApplicationStatusChanged = "application.status_changed"
)

// Event is a domain event. Key partitions the stream; Payload is JSON encoded
// by the publisher.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher hands domain events to the event stream. Implementations must not
// block the caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func publish(ctx context.Context, p Publisher, log *slog.Logger, ev Event) {
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("publish event failed", "type", ev.Type, "key", ev.Key, "err", err)
	}
}

func orNopPublisher(p Publisher) Publisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}

func orNopPusher(p Pusher) Pusher {
	if p == nil {
		return nopPusher{}
	}
	return p
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}
