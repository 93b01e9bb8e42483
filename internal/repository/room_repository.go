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

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &PostgresRoomRepository{db: db}
}

// GetOrCreate returns the room for a project, creating it on first access.
// The unique index on project_id plus the on-conflict no-op keeps concurrent
// first access down to a single row; the loser of the race fetches the row
// the winner inserted.
func (r *PostgresRoomRepository) GetOrCreate(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	room := domain.ChatRoom{
		ID:        uuid.New(),
		ProjectID: projectID,
		Settings:  domain.DefaultRoomSettings(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoNothing: true,
		}).
		Create(&room)
	if res.Error != nil {
		return domain.ChatRoom{}, res.Error
	}
	if res.RowsAffected > 0 {
		return room, nil
	}
	return r.GetByProject(ctx, projectID)
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoom{}, chaterrors.ErrNotFound
		}
		return domain.ChatRoom{}, err
	}
	return room, nil
}

func (r *PostgresRoomRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoom{}, chaterrors.ErrNotFound
		}
		return domain.ChatRoom{}, err
	}
	return room, nil
}

func (r *PostgresRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (domain.ChatParticipant, error) {
	var p domain.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatParticipant{}, chaterrors.ErrNotFound
		}
		return domain.ChatParticipant{}, err
	}
	return p, nil
}

func (r *PostgresRoomRepository) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]domain.ChatParticipant, error) {
	var participants []domain.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *PostgresRoomRepository) CreateParticipant(ctx context.Context, p *domain.ChatParticipant) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return chaterrors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresRoomRepository) ReactivateParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"is_active": true,
			"left_at":   nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) DeactivateParticipant(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"is_active": false,
			"left_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatParticipant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_read_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

// RecordNewMessage advances the last-message pointer and bumps the counter in
// one statement so concurrent sends never lose increments.
func (r *PostgresRoomRepository) RecordNewMessage(ctx context.Context, roomID, messageID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"last_message_at": at,
			"message_count":   gorm.Expr("message_count + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

// RecordMessageRemoved decrements the counter, floored at zero. The
// last-message pointer is deliberately left alone; a stale preview after a
// delete self-heals on the next send.
func (r *PostgresRoomRepository) RecordMessageRemoved(ctx context.Context, roomID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", roomID).
		Update("message_count", gorm.Expr("GREATEST(message_count - 1, 0)"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) SetArchived(ctx context.Context, roomID uuid.UUID, archived bool, at time.Time) error {
	updates := map[string]interface{}{
		"is_archived": archived,
		"archived_at": nil,
	}
	if archived {
		updates["archived_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chaterrors.ErrNotFound
	}
	return nil
}
