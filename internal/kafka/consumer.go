package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/minhvu/pushrelay/internal/model"
)

// EventHandler processes one notification-created event. An error means the
// terminal status could not be persisted; the event is acked either way.
type EventHandler interface {
	HandleCreated(ctx context.Context, id string) error
}

// Consumer is responsible for handling Kafka message consumption from the
// created-events topic using a consumer group.
type Consumer struct {
	topic         string
	handler       EventHandler
	consumerGroup sarama.ConsumerGroup
	log           *slog.Logger
}

// NewConsumer constructs a new Kafka Consumer.
// It receives its consumer group via dependency injection.
func NewConsumer(
	topic string,
	consumerGroup sarama.ConsumerGroup,
	handler EventHandler,
	log *slog.Logger,
) *Consumer {
	return &Consumer{
		topic:         topic,
		consumerGroup: consumerGroup,
		handler:       handler,
		log:           log,
	}
}

// Start begins the Kafka consumer loop, listening for messages on the
// configured topic. It blocks until the context is canceled or the consumer
// group is closed.
func (c *Consumer) Start(ctx context.Context) error {
	defer func() {
		if err := c.consumerGroup.Close(); err != nil {
			c.log.Warn("Failed to close consumer group", slog.Any("error", err))
		}
	}()

	c.log.Info("Kafka consumer started", slog.String("topic", c.topic))

	backoff := 1 * time.Second
	for {
		// Consume blocks until an error occurs or context is cancelled.
		err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
		if err != nil {
			c.log.Error("Error consuming messages", slog.Any("error", err))

			// Exit if consumer group is closed
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return err
			}

			// Back off on transient errors
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}

		if ctx.Err() != nil {
			c.log.Info("Context cancelled, stopping consumer")
			return ctx.Err()
		}
	}
}

// Setup is called once when a new consumer session starts.
func (c *Consumer) Setup(session sarama.ConsumerGroupSession) error {
	for topic, partitions := range session.Claims() {
		c.log.Info("Partition assignment",
			slog.String("topic", topic),
			slog.Any("partitions", partitions),
		)
	}
	return nil
}

// Cleanup is called once when the consumer session ends (rebalance,
// shutdown, etc).
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	c.log.Info("Kafka session cleanup complete")
	return nil
}

// ConsumeClaim is where the actual message consumption happens. Kafka calls
// this method for each assigned partition.
//
// Every message is marked regardless of outcome: the dispatcher absorbs
// domain failures into the record itself, and a status-write failure is not
// retried by redelivery (the record would be terminal-or-pending exactly as
// the dispatcher left it).
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.log.Debug("Message received",
			slog.String("topic", message.Topic),
			slog.Int("partition", int(message.Partition)),
			slog.Int64("offset", message.Offset),
		)

		var event model.CreatedEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.log.Error("Failed to decode message", slog.Any("error", err))
			// skip the gibberish messages
			session.MarkMessage(message, "")
			continue
		}

		if err := c.handler.HandleCreated(session.Context(), event.ID); err != nil {
			c.log.Error("Event handling left record unresolved",
				slog.String("id", event.ID), slog.Any("error", err))
		}

		session.MarkMessage(message, "")
	}
	return nil
}
