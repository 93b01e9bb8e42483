package repository

import (
	"context"
	"errors"
	"time"

	"projecthub-chat/internal/domain"
	chaterrors "projecthub-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return chaterrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Reactions").
		Preload("Reads").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, chaterrors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

// ListPage fetches one page as a newest-first window: page 1 holds the most
// recent pageSize messages. Ordering is (created_at, seq) so ties between
// same-instant messages never flap between calls.
func (r *PostgresMessageRepository) ListPage(ctx context.Context, roomID uuid.UUID, page, pageSize int, includeDeleted bool) ([]domain.Message, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("room_id = ?", roomID)
		if !includeDeleted {
			db = db.Where("deleted_at IS NULL")
		}
		return db
	}

	var total int64
	if err := filter(r.db.WithContext(ctx).Model(&domain.Message{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []domain.Message
	offset := (page - 1) * pageSize
	err := filter(r.db.WithContext(ctx)).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Reactions").
		Preload("Reads").
		Order("created_at DESC, seq DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *PostgresMessageRepository) UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"text":      text,
			"edited":    true,
			"edited_at": editedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

// SoftDelete only touches rows that are still live, which makes repeat deletes
// a no-op rather than an error.
func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": at,
			"deleted_by": deletedBy,
		})
	return res.Error
}

// UpsertReaction inserts or replaces the user's reaction in one statement; the
// unique index on (message_id, user_id) resolves concurrent toggles from the
// same user to a single final row.
func (r *PostgresMessageRepository) UpsertReaction(ctx context.Context, reaction *domain.MessageReaction) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
		}).
		Create(reaction).Error
}

// DeleteReaction removes the user's reaction only when the emoji still
// matches, so a toggle-off racing a replace never deletes the newer reaction.
func (r *PostgresMessageRepository) DeleteReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	return r.db.WithContext(ctx).
		Delete(&domain.MessageReaction{}, "message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Error
}

func (r *PostgresMessageRepository) GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (domain.MessageReaction, error) {
	var reaction domain.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		First(&reaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MessageReaction{}, chaterrors.ErrNotFound
		}
		return domain.MessageReaction{}, err
	}
	return reaction, nil
}

func (r *PostgresMessageRepository) GetReactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error) {
	var reactions []domain.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	read := domain.MessageRead{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    userID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&read).Error
}

// MarkAllRead inserts receipts for every live message in the room the user
// has not read yet. Idempotent via the conflict target.
func (r *PostgresMessageRepository) MarkAllRead(ctx context.Context, roomID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO message_reads (id, message_id, user_id, read_at)
		SELECT gen_random_uuid(), m.id, ?, NOW()
		FROM messages m
		WHERE m.room_id = ? AND m.sender_id <> ? AND m.deleted_at IS NULL
		ON CONFLICT (message_id, user_id) DO NOTHING`,
		userID, roomID, userID).Error
}

// CountUnread is an indexed range count on (room_id, created_at); it never
// scans the full message set.
func (r *PostgresMessageRepository) CountUnread(ctx context.Context, roomID, userID uuid.UUID, lastReadAt *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("room_id = ? AND sender_id <> ? AND deleted_at IS NULL", roomID, userID)
	if lastReadAt != nil {
		q = q.Where("created_at > ?", *lastReadAt)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
