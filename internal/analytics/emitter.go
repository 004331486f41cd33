package analytics

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learnstack/api/internal/ids"
)

// Emitter publishes product events to a redis stream. Emission is
// best-effort: failures are logged and never surfaced to the caller.
type Emitter struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewEmitter(client *redis.Client, stream string, log zerolog.Logger) *Emitter {
	return &Emitter{client: client, stream: stream, log: log}
}

type Event struct {
	Name     string
	UserID   int64
	Platform string
	Props    map[string]any
}

func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.client == nil {
		return
	}

	values := map[string]any{
		"event_id": ids.New(),
		"name":     event.Name,
		"user_id":  event.UserID,
		"at":       time.Now().UTC().Format(time.RFC3339),
	}
	if event.Platform != "" {
		values["platform"] = event.Platform
	}
	for k, v := range event.Props {
		values[k] = v
	}

	if err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: values,
	}).Err(); err != nil {
		e.log.Warn().Err(err).Str("event", event.Name).Msg("analytics emit failed")
	}
}
