package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/metrics"
)

var readBackoff = time.Second

// BookCache is the part of the book service the consumer keeps in sync.
type BookCache interface {
	RefreshCache(ctx context.Context, book *entity.Book)
	EvictCache(ctx context.Context, id int)
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Consumer struct {
	reader MessageReader
	cache  BookCache
}

func NewConsumer(reader MessageReader, cache BookCache) *Consumer {
	return &Consumer{reader: reader, cache: cache}
}

// Run starts the read loop in its own goroutine. The returned channel is
// closed once the loop has returned and no message is being processed.
func (c *Consumer) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Start(ctx)
	}()
	return done
}

// Start reads book events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info().Msg("Book consumer stopped")
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readBackoff):
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage processes the message received from the Kafka topic
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "book.created.ID", "book.updated.ID" or "book.deleted.ID"
	key := string(msg.Key)
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "book" {
		log.Error().Msgf("Malformed message key: %q", key)
		return
	}
	eventType := parts[1]
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		log.Error().Msgf("Malformed book ID in key %q", key)
		return
	}

	switch eventType {
	case "created", "updated":
		var event entity.BookEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Msgf("Error unmarshalling message: %v", err)
			return
		}
		event.Book.ID = id
		c.cache.RefreshCache(ctx, &event.Book)
	case "deleted":
		c.cache.EvictCache(ctx, id)
	default:
		log.Error().Msgf("Unknown book event: %s", eventType)
		return
	}
	metrics.RecordBookEvent("in", eventType)
}
