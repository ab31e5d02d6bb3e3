package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Connection manages a RabbitMQ connection and reconnects with backoff when
// the broker drops it.
type Connection struct {
	url    string
	queues []string
	log    *zap.Logger

	mu         sync.RWMutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	closed     bool
	reconnects int
}

func NewConnection(rawURL string, log *zap.Logger, queues ...string) (*Connection, error) {
	c := &Connection{
		url:    rawURL,
		queues: queues,
		log:    log.Named("amqp"),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	for _, q := range c.queues {
		_, err := ch.QueueDeclare(
			q,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("failed to declare queue %s: %w", q, err)
		}
	}

	c.conn = conn
	c.channel = ch
	go c.handleReconnect(conn)

	c.log.Info("connected to RabbitMQ", zap.String("url", redactURL(c.url)))
	return nil
}

func (c *Connection) handleReconnect(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || err == nil {
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return
	}

	c.log.Warn("RabbitMQ connection closed, attempting to reconnect", zap.Error(err))
	for i := 0; i < 10; i++ {
		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		time.Sleep(backoff)

		c.mu.Lock()
		c.reconnects++
		c.mu.Unlock()

		if err := c.connect(); err != nil {
			c.log.Error("reconnection failed", zap.Error(err), zap.Int("attempt", i+1))
			continue
		}
		c.log.Info("reconnected to RabbitMQ", zap.Int("attempts", i+1))
		return
	}
	c.log.Error("failed to reconnect to RabbitMQ after 10 attempts")
}

func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishJSON publishes data as a persistent JSON message on queue.
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()
	if ch == nil {
		return fmt.Errorf("publish to %s: no channel", queue)
	}

	return ch.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// redactURL drops credentials before a broker URL is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "amqp://(invalid)"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

// ── Publisher ───────────────────────────────────────────

type AMQPPublisher struct {
	conn            *Connection
	xpQueue         string
	challengesQueue string
}

func NewAMQPPublisher(conn *Connection, xpQueue, challengesQueue string) *AMQPPublisher {
	return &AMQPPublisher{conn: conn, xpQueue: xpQueue, challengesQueue: challengesQueue}
}

func (p *AMQPPublisher) PublishXP(ctx context.Context, ev XPAwarded) error {
	stamp(&ev.ID, &ev.AwardedAt)
	if err := p.conn.PublishJSON(ctx, p.xpQueue, ev); err != nil {
		return fmt.Errorf("failed to publish xp event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) PublishChallenge(ctx context.Context, ev ChallengeEvent) error {
	stamp(&ev.ID, &ev.OccurredAt)
	if err := p.conn.PublishJSON(ctx, p.challengesQueue, ev); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Kind, err)
	}
	return nil
}
