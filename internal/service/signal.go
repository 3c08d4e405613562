package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("signal")

const eventChannel = "content:events"

// Event is one content notification fanned out over redis: a cache
// purge issued by an operator, or a content-changed ping.
type Event struct {
	Type string    `json:"type"`
	Tags []string  `json:"tags,omitempty"`
	At   time.Time `json:"at"`
}

const (
	EventTypePurge   = "purge"
	EventTypeChanged = "changed"
)

// SignalService broadcasts content events across processes so every
// instance drops its cache tags without a restart, and preview clients
// can live-reload.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// PublishPurge announces that every cache entry under the given tags is
// stale.
func (s *SignalService) PublishPurge(ctx context.Context, tags []string) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.PublishPurge")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("tags", tags))

	return s.publish(ctx, Event{
		Type: EventTypePurge,
		Tags: tags,
		At:   time.Now(),
	})
}

func (s *SignalService) publish(ctx context.Context, event Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Subscribe runs handler for every event on the channel until ctx is
// cancelled. Call it once per process from main.
func (s *SignalService) Subscribe(ctx context.Context, handler func(Event)) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error(
					"Failed to decode content event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			handler(event)
		}
	}
}

// Realtime forwards events to output until ctx is cancelled; used by
// the websocket handler.
func (s *SignalService) Realtime(ctx context.Context, output chan<- Event) {
	s.Subscribe(ctx, func(event Event) {
		select {
		case <-ctx.Done():
		case output <- event:
		}
	})
}
