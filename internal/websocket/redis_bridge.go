package websocket

import (
	"context"

	"projecthub-chat/internal/events"
)

// Subscriber is the pub/sub side of the event bus, satisfied by the redis
// pattern subscriber.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

// RedisBridge relays events published by any API instance to the websocket
// clients connected to this one.
type RedisBridge struct {
	subscriber Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

// Run blocks until ctx is cancelled, forwarding every room event to local
// subscribers of that room's channel.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.RoomChannelPattern}, func(channel string, payload []byte) {
		b.hub.Broadcast(channel, payload)
	})
}
