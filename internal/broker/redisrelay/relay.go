// Package redisrelay fans realtime pushes out to other server instances over
// Redis pub/sub. Delivery stays at-most-once: nothing is queued for users
// who are not connected anywhere.
package redisrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deliverer hands a relayed event to the sessions connected to this
// instance.
type Deliverer interface {
	DeliverLocal(userID, event string, payload json.RawMessage) int
}

type envelope struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"user_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type Relay struct {
	rdb     *redis.Client
	channel string
	origin  string
	log     *slog.Logger
}

func New(rdb *redis.Client, channel string, log *slog.Logger) *Relay {
	return &Relay{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		log:     log.With("component", "redisrelay"),
	}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password, channel string, log *slog.Logger) (*Relay, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(rdb, channel, log), nil
}

func (r *Relay) Origin() string { return r.origin }

// Forward publishes a push so that other instances can deliver it.
func (r *Relay) Forward(ctx context.Context, userID, event string, payload any) error {
	raw, err := r.encode(userID, event, payload)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, raw).Err()
}

// Run subscribes to the relay channel and delivers foreign pushes until ctx
// is cancelled.
func (r *Relay) Run(ctx context.Context, d Deliverer) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info("relay subscribed", "channel", r.channel, "origin", r.origin)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(d, msg.Payload)
		}
	}
}

func (r *Relay) Close() error {
	return r.rdb.Close()
}

func (r *Relay) encode(userID, event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode relay payload: %w", err)
	}
	return json.Marshal(envelope{
		Origin:  r.origin,
		UserID:  userID,
		Event:   event,
		Payload: data,
	})
}

func (r *Relay) handle(d Deliverer, raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.Warn("bad relay frame", "err", err)
		return
	}
	if env.Origin == r.origin || env.UserID == "" {
		return
	}
	n := d.DeliverLocal(env.UserID, env.Event, env.Payload)
	r.log.Debug("relayed push", "user_id", env.UserID, "event", env.Event, "sessions", n)
}
