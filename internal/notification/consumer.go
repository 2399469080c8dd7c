package notification

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/khanzele16/berri-market-backend/internal/events"
)

// Consumer reads settlement events and hands them to the notifier.
type Consumer struct {
	reader   *kafka.Reader
	notifier *Notifier
}

func NewConsumer(brokers []string, groupID string, notifier *Notifier) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    events.TopicSettlements,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		notifier: notifier,
	}
}

// Run blocks until ctx is cancelled. Malformed messages are logged and
// skipped; delivery failures inside the notifier are already swallowed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var event events.SettlementEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error().Err(err).Str("key", string(msg.Key)).Msg("malformed settlement event")
			continue
		}

		c.notifier.Handle(ctx, event)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
