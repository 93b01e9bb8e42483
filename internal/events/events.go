package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the room-scoped event kinds emitted after mutations.
type Kind string

const (
	KindMessageSent     Kind = "message-sent"
	KindMessageEdited   Kind = "message-edited"
	KindMessageDeleted  Kind = "message-deleted"
	KindReactionChanged Kind = "reaction-changed"
)

// Event is the envelope delivered to room subscribers.
type Event struct {
	Kind       Kind        `json:"kind"`
	ProjectID  uuid.UUID   `json:"project_id"`
	MessageID  uuid.UUID   `json:"message_id"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Broadcaster fans out events to currently connected subscribers of a room's
// channel. Delivery is best-effort, at-most-once, with no replay: a subscriber
// that is offline at publish time reconciles from the store on its next read.
// Publish never blocks the caller and never surfaces an error.
type Broadcaster interface {
	Publish(event Event)
}

// RoomChannel names the pub/sub channel for a project's room.
func RoomChannel(projectID uuid.UUID) string {
	return fmt.Sprintf("chat:room:%s", projectID)
}

// RoomChannelPattern matches every room channel; the websocket bridge
// subscribes to it once.
const RoomChannelPattern = "chat:room:*"
