package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/rabbitmq/amqp091-go"
)

var _ domain.AuditSink = (*Publisher)(nil)

const exchangeKind = "topic"

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher appends audit events to a durable topic exchange. The routing key is
// audit.<level>.<action>, so consumers can bind to warnings or single actions.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	reopen   func() (channel, error)
	exchange string
	fallback domain.AuditSink
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	reopen := func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	p, err := newPublisher(reopen, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(reopen func() (channel, error), exchange string) (*Publisher, error) {
	ch, err := reopen()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare audit exchange: %w", err)
	}

	return &Publisher{channel: ch, reopen: reopen, exchange: exchange, fallback: LogSink{}}, nil
}

// Record publishes the event. When the broker cannot take it, the event is
// written to the fallback sink before the publish error is returned.
func (p *Publisher) Record(ctx context.Context, event domain.AuditEvent) error {
	err := p.publish(ctx, event)
	if err == nil {
		return nil
	}

	logger.Error("audit event not published, writing to fallback sink", err, logger.Fields{
		"exchange":  p.exchange,
		"action":    event.Action,
		"reference": event.Reference,
	})
	if p.fallback != nil {
		_ = p.fallback.Record(ctx, event)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, event domain.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Action),
		Body:         body,
	}
	key := RoutingKey(event)

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if err == nil {
		return nil
	}

	logger.Warn("audit publisher publish failed, reopening channel", logger.Fields{
		"exchange":   p.exchange,
		"routingKey": key,
		"error":      err.Error(),
	})

	ch, chErr := p.reopen()
	if chErr != nil {
		return errors.Join(err, fmt.Errorf("reopen rabbitmq channel: %w", chErr))
	}
	_ = p.channel.Close()
	p.channel = ch

	if err := p.channel.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare audit exchange: %w", err)
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func RoutingKey(event domain.AuditEvent) string {
	level := event.Level
	if level == "" {
		level = domain.AuditLevelInfo
	}
	return "audit." + string(level) + "." + string(event.Action)
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse rabbitmq url: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("rabbitmq url scheme must be amqp or amqps")
	}
	return clean, nil
}
