package repository

import (
	"context"
	"time"

	"projecthub-chat/internal/domain"

	"github.com/google/uuid"
)

// RoomRepository is the sole writer of ChatRoom and ChatParticipant rows.
type RoomRepository interface {
	GetOrCreate(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ChatRoom, error)
	GetByProject(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error)

	GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (domain.ChatParticipant, error)
	GetParticipants(ctx context.Context, roomID uuid.UUID) ([]domain.ChatParticipant, error)
	CreateParticipant(ctx context.Context, p *domain.ChatParticipant) error
	ReactivateParticipant(ctx context.Context, roomID, userID uuid.UUID) error
	DeactivateParticipant(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error
	UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error

	RecordNewMessage(ctx context.Context, roomID, messageID uuid.UUID, at time.Time) error
	RecordMessageRemoved(ctx context.Context, roomID uuid.UUID) error
	SetArchived(ctx context.Context, roomID uuid.UUID, archived bool, at time.Time) error
}

// MessageRepository is the sole writer of Message rows and their reaction and
// read-receipt children.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	// ListPage returns the requested page as a newest-first window together
	// with the total matching count. Page 1 is the most recent window.
	ListPage(ctx context.Context, roomID uuid.UUID, page, pageSize int, includeDeleted bool) ([]domain.Message, int64, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, at time.Time) error

	UpsertReaction(ctx context.Context, r *domain.MessageReaction) error
	DeleteReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (domain.MessageReaction, error)
	GetReactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error)

	MarkRead(ctx context.Context, messageID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, roomID, userID uuid.UUID) error
	CountUnread(ctx context.Context, roomID, userID uuid.UUID, lastReadAt *time.Time) (int64, error)
}
