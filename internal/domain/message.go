package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxTextLength is the upper bound on message text.
	MaxTextLength = 5000
	// MaxAttachments is the upper bound on attachments per message.
	MaxAttachments = 10
)

type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentOther    AttachmentKind = "other"
)

// Valid reports whether the kind is one of the known attachment kinds.
func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentImage, AttachmentDocument, AttachmentVideo, AttachmentAudio, AttachmentOther:
		return true
	}
	return false
}

// Message is a single chat room entry. RoomID and SenderID are immutable after
// creation. Deletion is always soft: the row stays so replies keep resolving.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	// Seq is assigned by the database and breaks ordering ties between
	// messages created in the same instant.
	Seq       int64      `gorm:"type:bigserial;<-:false;uniqueIndex:idx_messages_seq" json:"seq"`
	Text      string     `gorm:"type:text" json:"text"`
	Edited    bool       `gorm:"not null;default:false" json:"edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `gorm:"type:uuid" json:"deleted_by,omitempty"`
	ReplyToID *uuid.UUID `gorm:"type:uuid" json:"reply_to_id,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index:idx_messages_room_created,priority:2" json:"created_at"`

	Attachments []MessageAttachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	Reactions   []MessageReaction   `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	Reads       []MessageRead       `gorm:"foreignKey:MessageID" json:"reads,omitempty"`
}

// IsDeleted reports whether the message has been soft-deleted.
func (m Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

type MessageAttachment struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MessageID uuid.UUID      `gorm:"type:uuid;not null;index:idx_attachments_message" json:"message_id"`
	URL       string         `gorm:"type:text;not null" json:"url"`
	Filename  string         `gorm:"type:varchar(255);not null" json:"filename"`
	Kind      AttachmentKind `gorm:"type:varchar(20);not null" json:"kind"`
	SizeBytes int64          `gorm:"not null" json:"size_bytes"`
	Position  int            `gorm:"not null;default:0" json:"position"`
}

// MessageReaction holds a user's single active reaction on a message. The
// unique index on (message_id, user_id) is what makes concurrent toggles from
// the same user collapse to one consistent row.
type MessageReaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_message_user" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_message_user" json:"user_id"`
	Emoji     string    `gorm:"type:varchar(64);not null" json:"emoji"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// MessageRead is one read receipt per (message, user). Re-marking is a no-op.
type MessageRead struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reads_message_user" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reads_message_user" json:"user_id"`
	ReadAt    time.Time `gorm:"autoCreateTime" json:"read_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (MessageAttachment) TableName() string {
	return "message_attachments"
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}

func (MessageRead) TableName() string {
	return "message_reads"
}
