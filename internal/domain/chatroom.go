package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is the per-project message container. A project has at most one
// room; the unique index on project_id is what enforces it, including under
// concurrent first access.
type ChatRoom struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_rooms_project" json:"project_id"`
	LastMessageID *uuid.UUID   `gorm:"type:uuid" json:"last_message_id,omitempty"`
	LastMessageAt *time.Time   `json:"last_message_at,omitempty"`
	MessageCount  int64        `gorm:"not null;default:0" json:"message_count"`
	IsArchived    bool         `gorm:"not null;default:false" json:"is_archived"`
	ArchivedAt    *time.Time   `json:"archived_at,omitempty"`
	Settings      RoomSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	Participants []ChatParticipant `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
}

// RoomSettings is the attachment policy consumed at message-write time.
type RoomSettings struct {
	AllowAttachments       bool             `gorm:"not null;default:true" json:"allow_attachments"`
	MaxAttachmentBytes     int64            `gorm:"not null;default:26214400" json:"max_attachment_bytes"`
	AllowedAttachmentKinds []AttachmentKind `gorm:"serializer:json" json:"allowed_attachment_kinds"`
}

// ChatParticipant tracks room membership independently of project membership.
// A participant that left is kept with IsActive=false, never deleted.
type ChatParticipant struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoomID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participants_room_user" json:"room_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participants_room_user" json:"user_id"`
	JoinedAt   time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt     *time.Time `json:"left_at,omitempty"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

// DefaultRoomSettings returns the policy applied to lazily created rooms.
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowAttachments:   true,
		MaxAttachmentBytes: 25 * 1024 * 1024,
		AllowedAttachmentKinds: []AttachmentKind{
			AttachmentImage, AttachmentDocument, AttachmentVideo, AttachmentAudio, AttachmentOther,
		},
	}
}

// AllowsKind reports whether the room policy accepts the attachment kind.
func (s RoomSettings) AllowsKind(kind AttachmentKind) bool {
	for _, k := range s.AllowedAttachmentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

func (ChatParticipant) TableName() string {
	return "chat_participants"
}
