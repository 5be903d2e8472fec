// Package kafka publishes and consumes entry events on a Kafka topic. The
// entry id is the message key so every change to one entry lands on the same
// partition in order.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ledgerbook/internal/events"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, e events.EntryEvent) error {
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	slog.DebugContext(ctx, "Published entry event", "entry_id", e.EntryID, "action", e.Action, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toMessage(e events.EntryEvent) (kafka.Message, error) {
	body, err := e.Marshal()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal message: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(e.EntryID, 10)),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(e.ID.String())},
		},
	}, nil
}

// fetcher is the part of kafka.Reader the consumer needs.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader fetcher
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
	}
}

// Consume commits a message only after h succeeds. A handler error stops the
// loop so the uncommitted offset is redelivered on restart; undecodable
// messages are committed and skipped.
func (c *Consumer) Consume(ctx context.Context, h events.Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		e, err := events.Unmarshal(msg.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err, "offset", msg.Offset)
		} else if err := h(ctx, e); err != nil {
			return fmt.Errorf("handle entry event %d: %w", e.EntryID, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit kafka message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
