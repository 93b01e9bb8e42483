package websocket

import (
	"context"
	"testing"
	"time"

	"projecthub-chat/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   uuid.New(),
		Send:     make(chan []byte, 256),
		channels: make(map[string]bool),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	a := newTestClient()
	b := newTestClient()
	hub.Register(a)
	hub.Register(b)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	channel := events.RoomChannel(uuid.New())
	hub.Subscribe(a, channel)
	waitFor(t, func() bool { return hub.SubscriberCount(channel) == 1 })

	hub.Broadcast(channel, []byte("hello"))

	select {
	case msg := <-a.Send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive broadcast")
	}

	select {
	case <-b.Send:
		t.Fatal("non-subscriber received broadcast")
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	c := newTestClient()
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	channel := events.RoomChannel(uuid.New())
	hub.Subscribe(c, channel)
	waitFor(t, func() bool { return hub.SubscriberCount(channel) == 1 })

	hub.Unsubscribe(c, channel)
	waitFor(t, func() bool { return hub.SubscriberCount(channel) == 0 })

	hub.Broadcast(channel, []byte("late"))
	select {
	case <-c.Send:
		t.Fatal("unsubscribed client received broadcast")
	default:
	}
	assert.False(t, c.IsSubscribed(channel))
}

func TestHub_UnregisterCleansUpSubscriptions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	c := newTestClient()
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	channel := events.RoomChannel(uuid.New())
	hub.Subscribe(c, channel)
	waitFor(t, func() bool { return hub.SubscriberCount(channel) == 1 })

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	assert.Equal(t, 0, hub.SubscriberCount(channel))

	// send channel is closed on unregister
	_, open := <-c.Send
	require.False(t, open)
}

func TestClient_SendMessage_DropsWhenFull(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1), channels: make(map[string]bool)}

	c.SendMessage([]byte("first"))
	c.SendMessage([]byte("overflow"))

	assert.Equal(t, "first", string(<-c.Send))
	select {
	case <-c.Send:
		t.Fatal("overflow message should have been dropped")
	default:
	}
}
