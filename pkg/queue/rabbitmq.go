package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reel-feed/pkg/config"
	"reel-feed/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SellerNotificationQueue = "seller_notification_queue"
	InteractionExchange     = "reel_interactions"
	InteractionRoutingKey   = "reel_interaction"

	maxPriority = 10
)

type EventType string

const (
	EventLike    EventType = "like"
	EventComment EventType = "comment"
	EventShare   EventType = "share"
)

// InteractionEvent tells a seller that a viewer acted on one of their reels.
type InteractionEvent struct {
	Type      EventType `json:"type"`
	SellerID  string    `json:"seller_id"`
	ActorID   string    `json:"actor_id"`
	ReelID    string    `json:"reel_id"`
	Preview   string    `json:"preview,omitempty"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	if err := channel.ExchangeDeclare(InteractionExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err := channel.QueueDeclare(
		SellerNotificationQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-max-priority": maxPriority},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(SellerNotificationQueue, InteractionRoutingKey, InteractionExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishInteraction sends the event as a persistent message. Priority is
// clamped to the queue's range.
func (c *Client) PublishInteraction(ctx context.Context, event InteractionEvent) error {
	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(ctx,
		InteractionExchange,
		InteractionRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     uint8(clampPriority(event.Priority)),
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.CreatedAt,
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish %s event for reel %s: %v", event.Type, event.ReelID, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Debug("[RABBITMQ] Published %s event for reel %s to seller %s", event.Type, event.ReelID, event.SellerID)
	return nil
}

// EncodeEvent fills in the timestamp when missing and marshals the event.
func EncodeEvent(event InteractionEvent) ([]byte, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Priority = clampPriority(event.Priority)
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

func clampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > maxPriority {
		return maxPriority
	}
	return p
}
