package service

import (
	"context"
	"fmt"
	"time"

	"projecthub-chat/internal/domain"
	"projecthub-chat/internal/events"
	chaterrors "projecthub-chat/pkg/errors"
	"projecthub-chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoomInfo is the per-user room summary served by the room endpoint.
type RoomInfo struct {
	Room         domain.ChatRoom          `json:"room"`
	Participants []domain.ChatParticipant `json:"participants"`
	UnreadCount  int64                    `json:"unread_count"`
}

// ChatFacade is the single entry point for chat operations. Every call
// follows the same shape: authorize against project membership, run the
// message mutation, then best-effort room bookkeeping and broadcast. A
// bookkeeping or broadcast failure never fails the caller; it is logged as a
// consistency warning.
type ChatFacade struct {
	rooms       *RoomService
	messages    *MessageService
	membership  MembershipOracle
	broadcaster events.Broadcaster
	log         *logger.Logger
}

func NewChatFacade(rooms *RoomService, messages *MessageService, membership MembershipOracle, broadcaster events.Broadcaster, log *logger.Logger) *ChatFacade {
	return &ChatFacade{
		rooms:       rooms,
		messages:    messages,
		membership:  membership,
		broadcaster: broadcaster,
		log:         log,
	}
}

// canAccess is the one place the owner-implicit-participant rule lives: a
// project owner has full chat access without a participant row.
func (f *ChatFacade) canAccess(ctx context.Context, projectID, userID uuid.UUID) error {
	member, err := f.membership.IsMember(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if member {
		return nil
	}
	owner, err := f.membership.IsOwner(ctx, projectID, userID)
	if err != nil {
		return fmt.Errorf("ownership check: %w", err)
	}
	if owner {
		return nil
	}
	return fmt.Errorf("%w: not a member of this project", chaterrors.ErrForbidden)
}

func (f *ChatFacade) room(ctx context.Context, projectID, userID uuid.UUID) (domain.ChatRoom, error) {
	if err := f.canAccess(ctx, projectID, userID); err != nil {
		return domain.ChatRoom{}, err
	}
	return f.rooms.GetOrCreate(ctx, projectID)
}

// SendMessage stores a message in the project's room and fans it out.
func (f *ChatFacade) SendMessage(ctx context.Context, projectID, senderID uuid.UUID, input SendInput) (domain.MessageView, error) {
	room, err := f.room(ctx, projectID, senderID)
	if err != nil {
		return domain.MessageView{}, err
	}
	if room.IsArchived {
		return domain.MessageView{}, fmt.Errorf("%w: room is archived", chaterrors.ErrConflict)
	}

	msg, err := f.messages.Send(ctx, room, senderID, input)
	if err != nil {
		return domain.MessageView{}, err
	}

	if err := f.rooms.EnsureParticipant(ctx, room.ID, senderID); err != nil {
		f.warnConsistency("ensure participant", room.ID, err)
	}
	if err := f.rooms.RecordNewMessage(ctx, room.ID, msg); err != nil {
		f.warnConsistency("record new message", room.ID, err)
	}

	view := f.messages.SafeView(ctx, msg)
	f.broadcast(events.KindMessageSent, projectID, msg.ID, view)
	return view, nil
}

// ListMessages pages through room history. Deleted messages appear as
// redacted placeholders so reply chains stay intact.
func (f *ChatFacade) ListMessages(ctx context.Context, projectID, userID uuid.UUID, page, pageSize int) (PageResult, error) {
	room, err := f.room(ctx, projectID, userID)
	if err != nil {
		return PageResult{}, err
	}
	return f.messages.Paginate(ctx, room, page, pageSize, true)
}

// EditMessage rewrites a message's text, sender-only.
func (f *ChatFacade) EditMessage(ctx context.Context, projectID, editorID, messageID uuid.UUID, newText string) (domain.MessageView, error) {
	room, err := f.room(ctx, projectID, editorID)
	if err != nil {
		return domain.MessageView{}, err
	}

	msg, err := f.messages.Edit(ctx, room.ID, messageID, editorID, newText)
	if err != nil {
		return domain.MessageView{}, err
	}

	view := f.messages.SafeView(ctx, msg)
	f.broadcast(events.KindMessageEdited, projectID, msg.ID, view)
	return view, nil
}

// DeleteMessage soft-deletes a message, sender-only and idempotent. The room
// counter only moves on the call that actually hid the message.
func (f *ChatFacade) DeleteMessage(ctx context.Context, projectID, deleterID, messageID uuid.UUID) (domain.MessageView, error) {
	room, err := f.room(ctx, projectID, deleterID)
	if err != nil {
		return domain.MessageView{}, err
	}

	msg, changed, err := f.messages.SoftDelete(ctx, room.ID, messageID, deleterID)
	if err != nil {
		return domain.MessageView{}, err
	}

	view := f.messages.SafeView(ctx, msg)
	if changed {
		if err := f.rooms.RecordMessageRemoved(ctx, room.ID); err != nil {
			f.warnConsistency("record message removed", room.ID, err)
		}
		f.broadcast(events.KindMessageDeleted, projectID, msg.ID, view)
	}
	return view, nil
}

// ToggleReaction adds, replaces or removes the caller's reaction.
func (f *ChatFacade) ToggleReaction(ctx context.Context, projectID, userID, messageID uuid.UUID, emoji string) ([]domain.MessageReaction, error) {
	room, err := f.room(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	msg, reactions, err := f.messages.ToggleReaction(ctx, room.ID, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	f.broadcast(events.KindReactionChanged, projectID, msg.ID, reactions)
	return reactions, nil
}

// MarkMessageRead records a read receipt and advances the caller's read
// cursor to the message's timestamp.
func (f *ChatFacade) MarkMessageRead(ctx context.Context, projectID, userID, messageID uuid.UUID) error {
	room, err := f.room(ctx, projectID, userID)
	if err != nil {
		return err
	}

	msg, err := f.messages.MarkRead(ctx, room.ID, messageID, userID)
	if err != nil {
		return err
	}

	if err := f.rooms.UpdateLastRead(ctx, room.ID, userID, msg.CreatedAt); err != nil {
		f.warnConsistency("advance read cursor", room.ID, err)
	}
	return nil
}

// MarkAllRead marks the whole room read and moves the cursor to now.
func (f *ChatFacade) MarkAllRead(ctx context.Context, projectID, userID uuid.UUID) error {
	room, err := f.room(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if err := f.messages.MarkAllRead(ctx, room.ID, userID); err != nil {
		return err
	}
	if err := f.rooms.UpdateLastRead(ctx, room.ID, userID, time.Now()); err != nil {
		f.warnConsistency("advance read cursor", room.ID, err)
	}
	return nil
}

// GetRoomInfo returns the room, its active participants and the caller's
// unread count.
func (f *ChatFacade) GetRoomInfo(ctx context.Context, projectID, userID uuid.UUID) (RoomInfo, error) {
	room, err := f.room(ctx, projectID, userID)
	if err != nil {
		return RoomInfo{}, err
	}
	participants, err := f.rooms.Participants(ctx, room.ID)
	if err != nil {
		return RoomInfo{}, err
	}
	unread, err := f.rooms.UnreadCount(ctx, room.ID, userID)
	if err != nil {
		return RoomInfo{}, err
	}
	return RoomInfo{Room: room, Participants: participants, UnreadCount: unread}, nil
}

// SetArchived archives or unarchives the room, owner-only.
func (f *ChatFacade) SetArchived(ctx context.Context, projectID, userID uuid.UUID, archived bool) (domain.ChatRoom, error) {
	owner, err := f.membership.IsOwner(ctx, projectID, userID)
	if err != nil {
		return domain.ChatRoom{}, fmt.Errorf("ownership check: %w", err)
	}
	if !owner {
		return domain.ChatRoom{}, fmt.Errorf("%w: only the project owner can archive the room", chaterrors.ErrForbidden)
	}

	room, err := f.rooms.GetOrCreate(ctx, projectID)
	if err != nil {
		return domain.ChatRoom{}, err
	}
	return f.rooms.SetArchived(ctx, room.ID, archived)
}

// SyncParticipants reconciles the room's participant set with a membership
// snapshot. Owner-only: the snapshot rewrites the whole participant set, so
// regular members cannot push one.
func (f *ChatFacade) SyncParticipants(ctx context.Context, projectID, callerID uuid.UUID, memberIDs []uuid.UUID) error {
	owner, err := f.membership.IsOwner(ctx, projectID, callerID)
	if err != nil {
		return fmt.Errorf("ownership check: %w", err)
	}
	if !owner {
		return fmt.Errorf("%w: only the project owner can sync participants", chaterrors.ErrForbidden)
	}

	room, err := f.rooms.GetOrCreate(ctx, projectID)
	if err != nil {
		return err
	}
	return f.rooms.SyncParticipants(ctx, room.ID, memberIDs)
}

// CanAccess exposes the membership rule for the websocket gate.
func (f *ChatFacade) CanAccess(ctx context.Context, projectID, userID uuid.UUID) error {
	return f.canAccess(ctx, projectID, userID)
}

func (f *ChatFacade) broadcast(kind events.Kind, projectID, messageID uuid.UUID, payload any) {
	if f.broadcaster == nil {
		return
	}
	f.broadcaster.Publish(events.Event{
		Kind:       kind,
		ProjectID:  projectID,
		MessageID:  messageID,
		Payload:    payload,
		OccurredAt: time.Now(),
	})
}

func (f *ChatFacade) warnConsistency(step string, roomID uuid.UUID, err error) {
	f.log.Logger.Warn("room bookkeeping failed, message state is authoritative",
		zap.String("step", step),
		zap.String("roomId", roomID.String()),
		zap.Error(err))
}
