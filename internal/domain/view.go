package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeletedPlaceholder replaces the text of soft-deleted messages on read paths.
const DeletedPlaceholder = "This message was deleted"

// MessageView is the read model handed to clients. Deleted messages keep their
// id, sender and timestamps so thread structure survives, but text and
// attachments are redacted.
type MessageView struct {
	ID          uuid.UUID           `json:"id"`
	RoomID      uuid.UUID           `json:"room_id"`
	SenderID    uuid.UUID           `json:"sender_id"`
	SenderName  string              `json:"sender_name,omitempty"`
	Text        string              `json:"text"`
	Edited      bool                `json:"edited"`
	EditedAt    *time.Time          `json:"edited_at,omitempty"`
	Deleted     bool                `json:"deleted"`
	DeletedAt   *time.Time          `json:"deleted_at,omitempty"`
	ReplyToID   *uuid.UUID          `json:"reply_to_id,omitempty"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
	Reactions   []MessageReaction   `json:"reactions,omitempty"`
	Reads       []MessageRead       `json:"reads,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewMessageView builds the client-facing view of a message, redacting
// soft-deleted content.
func NewMessageView(m Message, senderName string) MessageView {
	v := MessageView{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		SenderName:  senderName,
		Text:        m.Text,
		Edited:      m.Edited,
		EditedAt:    m.EditedAt,
		Deleted:     m.IsDeleted(),
		DeletedAt:   m.DeletedAt,
		ReplyToID:   m.ReplyToID,
		Attachments: m.Attachments,
		Reactions:   m.Reactions,
		Reads:       m.Reads,
		CreatedAt:   m.CreatedAt,
	}
	if v.Deleted {
		v.Text = DeletedPlaceholder
		v.Attachments = nil
	}
	return v
}
