package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projecthub-chat/internal/domain"
	"projecthub-chat/internal/repository"
	chaterrors "projecthub-chat/pkg/errors"
	"projecthub-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoomService is the room registry: one room per project, participant
// lifecycle, read cursors and the denormalized activity counters.
type RoomService struct {
	roomRepo    repository.RoomRepository
	messageRepo repository.MessageRepository
	log         *logger.Logger
}

func NewRoomService(roomRepo repository.RoomRepository, messageRepo repository.MessageRepository, log *logger.Logger) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		log:         log,
	}
}

// GetOrCreate returns the project's room, creating it on first touch. Two
// concurrent first touches converge on the same row.
func (s *RoomService) GetOrCreate(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	if projectID == uuid.Nil {
		return domain.ChatRoom{}, fmt.Errorf("%w: project id is required", chaterrors.ErrInvalidInput)
	}
	return s.roomRepo.GetOrCreate(ctx, projectID)
}

func (s *RoomService) GetByProject(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	return s.roomRepo.GetByProject(ctx, projectID)
}

// EnsureParticipant makes userID an active participant: inserts on first
// join, reactivates after a leave, no-ops when already active.
func (s *RoomService) EnsureParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	existing, err := s.roomRepo.GetParticipant(ctx, roomID, userID)
	switch {
	case err == nil:
		if existing.IsActive {
			return nil
		}
		return s.roomRepo.ReactivateParticipant(ctx, roomID, userID)
	case errors.Is(err, chaterrors.ErrNotFound):
		p := domain.ChatParticipant{
			ID:       uuid.New(),
			RoomID:   roomID,
			UserID:   userID,
			JoinedAt: time.Now(),
			IsActive: true,
		}
		if err := s.roomRepo.CreateParticipant(ctx, &p); err != nil {
			// lost the insert race; the row exists, reactivate it
			if errors.Is(err, chaterrors.ErrAlreadyExists) {
				return s.roomRepo.ReactivateParticipant(ctx, roomID, userID)
			}
			return err
		}
		return nil
	default:
		return err
	}
}

// RemoveParticipant deactivates a membership, preserving the read cursor so a
// rejoin resumes where the user left off. Unknown participants are a no-op.
func (s *RoomService) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	err := s.roomRepo.DeactivateParticipant(ctx, roomID, userID, time.Now())
	if errors.Is(err, chaterrors.ErrNotFound) {
		return nil
	}
	return err
}

// Participants returns the room's active participants.
func (s *RoomService) Participants(ctx context.Context, roomID uuid.UUID) ([]domain.ChatParticipant, error) {
	all, err := s.roomRepo.GetParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	active := make([]domain.ChatParticipant, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// UpdateLastRead advances a participant's read cursor. Cursors never move
// backwards; a missing participant row is silently ignored so read receipts
// from implicit members (project owners) stay harmless.
func (s *RoomService) UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	existing, err := s.roomRepo.GetParticipant(ctx, roomID, userID)
	if errors.Is(err, chaterrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.LastReadAt != nil && !existing.LastReadAt.Before(at) {
		return nil
	}
	return s.roomRepo.UpdateLastRead(ctx, roomID, userID, at)
}

// RecordNewMessage bumps the room's activity counters for a freshly stored
// message.
func (s *RoomService) RecordNewMessage(ctx context.Context, roomID uuid.UUID, msg domain.Message) error {
	return s.roomRepo.RecordNewMessage(ctx, roomID, msg.ID, msg.CreatedAt)
}

// RecordMessageRemoved decrements the visible-message counter, clamped at
// zero.
func (s *RoomService) RecordMessageRemoved(ctx context.Context, roomID uuid.UUID) error {
	return s.roomRepo.RecordMessageRemoved(ctx, roomID)
}

// UnreadCount counts messages after the user's read cursor, excluding their
// own. A user with no cursor (never read, or implicit member) sees the full
// history as unread.
func (s *RoomService) UnreadCount(ctx context.Context, roomID, userID uuid.UUID) (int64, error) {
	var lastReadAt *time.Time
	p, err := s.roomRepo.GetParticipant(ctx, roomID, userID)
	switch {
	case err == nil:
		lastReadAt = p.LastReadAt
	case errors.Is(err, chaterrors.ErrNotFound):
		// implicit member, count everything
	default:
		return 0, err
	}
	return s.messageRepo.CountUnread(ctx, roomID, userID, lastReadAt)
}

// SetArchived flips the room's archive flag. Archiving an archived room is a
// no-op.
func (s *RoomService) SetArchived(ctx context.Context, roomID uuid.UUID, archived bool) (domain.ChatRoom, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return domain.ChatRoom{}, err
	}
	if room.IsArchived == archived {
		return room, nil
	}
	now := time.Now()
	if err := s.roomRepo.SetArchived(ctx, roomID, archived, now); err != nil {
		return domain.ChatRoom{}, err
	}
	room.IsArchived = archived
	if archived {
		room.ArchivedAt = &now
	} else {
		room.ArchivedAt = nil
	}
	return room, nil
}

// SyncParticipants reconciles the participant set against the authoritative
// project membership: missing members join, departed members deactivate.
func (s *RoomService) SyncParticipants(ctx context.Context, roomID uuid.UUID, memberIDs []uuid.UUID) error {
	want := make(map[uuid.UUID]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		want[id] = struct{}{}
		if err := s.EnsureParticipant(ctx, roomID, id); err != nil {
			return err
		}
	}

	current, err := s.roomRepo.GetParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	for _, p := range current {
		if !p.IsActive {
			continue
		}
		if _, ok := want[p.UserID]; ok {
			continue
		}
		if err := s.RemoveParticipant(ctx, roomID, p.UserID); err != nil {
			s.log.Logger.Warn("participant sync: deactivate failed",
				zap.String("roomId", roomID.String()),
				zap.String("userId", p.UserID.String()),
				zap.Error(err))
		}
	}
	return nil
}
