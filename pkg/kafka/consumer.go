// Package kafka carries index lifecycle events between the indexer and the
// search servers over segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
)

// MessageHandler processes one message. A nil return commits it.
type MessageHandler func(ctx context.Context, key, value []byte) error

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic in a consumer group and dispatches each message to
// a handler.
type Consumer struct {
	reader  messageReader
	handler MessageHandler
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic. New groups start at the latest
// offset so a restarted server does not replay old index builds.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    1e6,
		StartOffset: kafka.LastOffset,
	})
	return newConsumer(r, topic, handler)
}

func newConsumer(r messageReader, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:  r,
		handler: handler,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Run consumes until ctx is cancelled. Messages whose handler fails are
// logged and left uncommitted.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}
		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			log.Error("failed to process message", "key", string(msg.Key), "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("failed to commit message", "error", err)
		}
	}
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
