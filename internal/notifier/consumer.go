package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

var errMalformed = errors.New("malformed notification")

type Config struct {
	URL             string
	Exchange        string
	Queue           string
	DeadLetterQueue string
	Prefetch        int
}

// Consumer reads delivery reminders from the notification queue and hands
// them to a Sender. Messages that cannot be delivered are dead-lettered.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	cfg    Config
	sender Sender
	log    *logger.Logger
}

type envelope struct {
	Pattern string          `json:"pattern"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
}

func Dial(cfg Config, sender Sender, log *logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	c := newConsumer(cfg, sender, log)
	c.conn, c.ch = conn, ch
	return c, nil
}

func newConsumer(cfg Config, sender Sender, log *logger.Logger) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	return &Consumer{cfg: cfg, sender: sender, log: log.WithComponent("notifier")}
}

func (c *Consumer) deadLetterExchange() string {
	return c.cfg.DeadLetterQueue + ".dlx"
}

// Setup declares the exchanges and queues the consumer depends on.
func (c *Consumer) Setup() error {
	if err := c.ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(c.deadLetterExchange(), "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(c.cfg.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(c.cfg.DeadLetterQueue, c.cfg.DeadLetterQueue, c.deadLetterExchange(), false, nil); err != nil {
		return err
	}
	_, err := c.ch.QueueDeclare(c.cfg.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    c.deadLetterExchange(),
		"x-dead-letter-routing-key": c.cfg.DeadLetterQueue,
	})
	if err != nil {
		return err
	}
	return c.ch.QueueBind(c.cfg.Queue, domain.EventDeliveryReminder, c.cfg.Exchange, false, nil)
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return err
	}
	msgs, err := c.ch.Consume(c.cfg.Queue, "delivery-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.log.Info("notification consumer started", "queue", c.cfg.Queue)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("notification consumer stopping")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("notification channel closed by broker")
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while handling notification", "panic", r)
			_ = msg.Nack(false, false)
		}
	}()

	if err := c.handle(ctx, msg.Body); err != nil {
		c.log.Warn("notification dead-lettered", "message_id", msg.MessageId, "error", err)
		if err := msg.Nack(false, false); err != nil {
			c.log.Error("nack failed", "error", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.log.Error("ack failed", "error", err)
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if env.Pattern != domain.EventDeliveryReminder {
		c.log.Debug("ignoring event", "pattern", env.Pattern)
		return nil
	}

	var reminder domain.DeliveryReminder
	if err := json.Unmarshal(env.Data, &reminder); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if reminder.Email == "" {
		return fmt.Errorf("%w: reminder %d has no recipient", errMalformed, reminder.DeliveryID)
	}
	return c.sender.Send(ctx, reminder)
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
