package events

import (
	"context"
	"encoding/json"
	"time"

	"projecthub-chat/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroadcaster publishes events over Redis Pub/Sub. Publishing happens on
// a detached goroutine with its own deadline so a slow broker can never stall
// the request that triggered the event.
type RedisBroadcaster struct {
	client  *redis.Client
	log     *logger.Logger
	timeout time.Duration
}

func NewRedisBroadcaster(client *redis.Client, log *logger.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		log:     log,
		timeout: 5 * time.Second,
	}
}

func (b *RedisBroadcaster) Publish(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			b.log.Logger.Error("failed to marshal broadcast event",
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
			return
		}

		channel := RoomChannel(event.ProjectID)
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			b.log.Logger.Warn("broadcast publish failed",
				zap.String("channel", channel),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
		}
	}()
}
