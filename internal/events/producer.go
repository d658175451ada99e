package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Producer publishes order events to Kafka through a buffered inbox so HTTP
// handlers never block on the broker. It satisfies the checkout
// EventPublisher interface.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the publish worker until Close is called or ctx is cancelled.
// Callers that keep serving traffic while shutting down must pass a long-lived
// context and call Close once the last publisher is done; a buffered message
// backlog is flushed before the worker exits either way.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					if err := p.w.WriteMessages(context.Background(), m); err != nil {
						log.Printf("kafka flush failed: %v", err)
					}
				}
				_ = p.w.Close()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				if err := p.w.WriteMessages(context.Background(), m); err != nil {
					log.Printf("kafka publish failed: %v", err)
				}
			}
		}
	}()
}

// PublishOrderEvent wraps the payload in the standard envelope and enqueues
// it. A full inbox drops the event rather than blocking checkout, and a
// closed producer drops it rather than panicking.
func (p *Producer) PublishOrderEvent(eventType string, key string, payload interface{}) {
	env := Envelope{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   ProducerName,
		Payload:    payload,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("event marshal failed for %s: %v", eventType, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: raw,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		log.Printf("event producer closed, dropping %s for key %s", eventType, key)
		return
	}

	select {
	case p.inbox <- msg:
	default:
		log.Printf("event inbox full, dropping %s for key %s", eventType, key)
	}
}

// Close stops accepting events and lets the worker flush the remaining
// backlog. Safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

func (p *Producer) WaitClosed() { <-p.closeCh }
