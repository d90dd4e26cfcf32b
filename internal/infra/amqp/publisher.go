// Package amqp publishes adaptive session events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"adaptive-quiz-service/internal/engine"
)

// RoutingPrefix is prepended to the event type to form the routing key, e.g. quiz.level_drop.
const RoutingPrefix = "quiz."

type publishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements app.EventSink.
type Publisher struct {
	conn     *amqp.Connection
	channel  publishChannel
	exchange string
}

type message struct {
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	At        time.Time      `json:"at"`
	Payload   map[string]any `json:"payload"`
}

// NewPublisher dials the broker and declares a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func newPublisherWithChannel(ch publishChannel, exchange string) *Publisher {
	return &Publisher{channel: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, sessionID string, ev engine.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(message{
		SessionID: sessionID,
		Type:      ev.Type,
		At:        ev.At.UTC(),
		Payload:   ev.Fields,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.channel.Publish(
		p.exchange,
		RoutingPrefix+ev.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.At,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
