package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ErrDisconnected is returned by Publish while the broker cannot be reached.
var ErrDisconnected = errors.New("AMQP broker disconnected")

// AMQPPublisher publishes events to a durable topic exchange. The event type
// is the routing key, so consumers bind queues to e.g. "week.*".
// A lost connection is redialed on the next Publish.
type AMQPPublisher struct {
	url      string
	exchange string
	dial     func(url string) (*amqp091.Connection, error)

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	down    bool
	closed  bool
}

// NewAMQPPublisher connects to url and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange, dial: amqp091.Dial}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect dials the broker, opens a channel and declares the exchange.
// Callers other than the constructor hold p.mu.
func (p *AMQPPublisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	go func() {
		if err, ok := <-closed; ok && err != nil {
			slog.Warn("AMQP connection lost, reconnecting on next publish", "exchange", p.exchange, "error", err)
		}
	}()

	p.conn, p.channel = conn, channel
	return nil
}

// ensureChannel redials when the channel is gone. The first failed attempt
// of an outage is logged; later ones stay quiet until the broker is back.
func (p *AMQPPublisher) ensureChannel() error {
	if p.closed {
		return fmt.Errorf("%w: publisher closed", ErrDisconnected)
	}
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn, p.channel = nil, nil
	}

	if err := p.connect(); err != nil {
		if !p.down {
			slog.Warn("AMQP reconnect failed, events are dropped until the broker is back", "exchange", p.exchange, "error", err)
			p.down = true
		}
		return fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	if p.down {
		slog.Info("AMQP reconnected", "exchange", p.exchange)
		p.down = false
	}
	return nil
}

// Publish sends e as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		e.Type,     // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    e.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	slog.DebugContext(ctx, "Published event", "type", e.Type, "exchange", p.exchange)
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn, p.channel = nil, nil
		return err
	}
	return nil
}
