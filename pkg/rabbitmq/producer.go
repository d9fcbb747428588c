/**
 * @description
 * This package publishes card point lookup events to RabbitMQ. Events are
 * informational; nothing in the request path waits on a consumer.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/transfa/card-point-service/internal/domain"
)

// PointCheckedRoutingKey is the routing key for lookup events.
const PointCheckedRoutingKey = "card.point.checked"

// Publisher is the interface implemented by types that can publish lookup events.
type Publisher interface {
	PublishPointChecked(ctx context.Context, event domain.PointCheckedEvent) error
	Close()
}

// channel is the subset of *amqp091.Channel the producer uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
// amqp channels are not safe for concurrent publishing, so access is serialized.
type EventProducer struct {
	mu          sync.Mutex
	conn        *amqp091.Connection
	channel     channel
	openChannel func() (channel, error)
	exchange    string
}

// EventProducerFallback is a no-op publisher used when RabbitMQ is not configured or unreachable.
type EventProducerFallback struct{}

func (p *EventProducerFallback) PublishPointChecked(ctx context.Context, event domain.PointCheckedEvent) error {
	log.Printf("level=debug component=rabbitmq_producer mode=fallback msg=\"publish skipped\" event_id=%s outcome=%s", event.EventID, event.Outcome)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer connects to RabbitMQ and declares the topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	openChannel := func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	ch, err := openChannel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	p := &EventProducer{conn: conn, channel: ch, openChannel: openChannel, exchange: exchange}
	if err := p.declareExchange(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisher returns a connected producer, or the fallback when amqpURL is
// empty or the broker cannot be reached.
func NewPublisher(amqpURL, exchange string) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		log.Println("level=info component=rabbitmq_producer msg=\"RABBITMQ_URL not set; lookup events disabled\"")
		return &EventProducerFallback{}
	}
	producer, err := NewEventProducer(amqpURL, exchange)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		return &EventProducerFallback{}
	}
	log.Printf("level=info component=rabbitmq_producer msg=\"rabbitmq producer connected\" exchange=%s", exchange)
	return producer
}

func (p *EventProducer) declareExchange() error {
	return p.channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	)
}

// PublishPointChecked publishes a lookup event to the configured exchange.
func (p *EventProducer) PublishPointChecked(ctx context.Context, event domain.PointCheckedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publishLocked(ctx, body)
	if err == nil {
		return nil
	}

	log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", p.exchange, PointCheckedRoutingKey, err)
	// One-shot channel reopen. The lookup itself is never retried.
	// The old channel is already broken.
	_ = p.channel.Close()
	ch, chErr := p.openChannel()
	if chErr != nil {
		return chErr
	}
	p.channel = ch
	if err := p.declareExchange(); err != nil {
		return err
	}
	return p.publishLocked(ctx, body)
}

func (p *EventProducer) publishLocked(ctx context.Context, body []byte) error {
	return p.channel.PublishWithContext(ctx,
		p.exchange,             // exchange
		PointCheckedRoutingKey, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
