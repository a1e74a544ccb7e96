package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"pethaven/internal/service"
)

var (
	ErrQueueFull = errors.New("kafka: publish queue full")
	ErrClosed    = errors.New("kafka: publisher closed")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends domain events to a Kafka topic. Publish only enqueues; a
// background loop writes through a circuit breaker so a broker outage costs
// dropped events, never blocked requests.
type Publisher struct {
	writer       messageWriter
	cb           *gobreaker.CircuitBreaker
	log          *slog.Logger
	queue        chan kafka.Message
	writeTimeout time.Duration

	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ service.Publisher = (*Publisher)(nil)

type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
	MaxFailures  uint32
	OpenTimeout  time.Duration
}

func (o *Options) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.MaxFailures == 0 {
		o.MaxFailures = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
}

func NewPublisher(brokers []string, topic string, opts Options, log *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, opts, log)
}

func newPublisher(w messageWriter, opts Options, log *slog.Logger) *Publisher {
	opts.defaults()
	st := gobreaker.Settings{
		Name:        "kafka-events",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	p := &Publisher{
		writer:       w,
		cb:           gobreaker.NewCircuitBreaker(st),
		log:          log,
		queue:        make(chan kafka.Message, opts.QueueSize),
		writeTimeout: opts.WriteTimeout,
		closing:      make(chan struct{}),
		done:         make(chan struct{}),
	}
	go p.loop()
	return p
}

// Publish encodes ev and queues it for delivery.
func (p *Publisher) Publish(_ context.Context, ev service.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.Key),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}
	select {
	case <-p.closing:
		return ErrClosed
	default:
	}
	select {
	case p.queue <- msg:
		return nil
	case <-p.closing:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

func (p *Publisher) loop() {
	defer close(p.done)
	for {
		select {
		case msg := <-p.queue:
			p.write(msg)
		case <-p.closing:
			for {
				select {
				case msg := <-p.queue:
					p.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) write(msg kafka.Message) {
	_, err := p.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		defer cancel()
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.log.Warn("kafka write failed", "key", string(msg.Key), "err", err)
	}
}

// Close flushes queued events and closes the writer.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { close(p.closing) })
	<-p.done
	return p.writer.Close()
}
