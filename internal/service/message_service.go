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

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// SendInput carries the caller-supplied fields of a new message.
type SendInput struct {
	Text        string
	Attachments []AttachmentInput
	ReplyTo     *uuid.UUID
}

type AttachmentInput struct {
	URL       string
	Filename  string
	Kind      domain.AttachmentKind
	SizeBytes int64
}

// PageResult is one page of messages, oldest first within the page. Page 1 is
// the most recent window.
type PageResult struct {
	Items    []domain.MessageView `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	HasNext  bool                 `json:"has_next"`
	HasPrev  bool                 `json:"has_prev"`
}

// MessageService owns every Message mutation: sends, edits, soft deletes,
// reactions and read receipts. Room bookkeeping lives in RoomService; the
// facade keeps the two in step.
type MessageService struct {
	messageRepo repository.MessageRepository
	users       UserLookup
	log         *logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, users UserLookup, log *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		users:       users,
		log:         log,
	}
}

// Send validates input against the room's attachment policy and persists a new
// message. ReplyTo must resolve to a message in the same room.
func (s *MessageService) Send(ctx context.Context, room domain.ChatRoom, senderID uuid.UUID, input SendInput) (domain.Message, error) {
	if err := validateContent(input.Text, input.Attachments, room.Settings); err != nil {
		return domain.Message{}, err
	}

	if input.ReplyTo != nil {
		target, err := s.messageRepo.GetByID(ctx, *input.ReplyTo)
		if err != nil {
			return domain.Message{}, fmt.Errorf("%w: reply target does not exist", chaterrors.ErrNotFound)
		}
		if target.RoomID != room.ID {
			return domain.Message{}, fmt.Errorf("%w: reply target belongs to a different room", chaterrors.ErrNotFound)
		}
	}

	msg := domain.Message{
		ID:        uuid.New(),
		RoomID:    room.ID,
		SenderID:  senderID,
		Text:      input.Text,
		ReplyToID: input.ReplyTo,
		CreatedAt: time.Now(),
	}
	for i, a := range input.Attachments {
		msg.Attachments = append(msg.Attachments, domain.MessageAttachment{
			ID:        uuid.New(),
			MessageID: msg.ID,
			URL:       a.URL,
			Filename:  a.Filename,
			Kind:      a.Kind,
			SizeBytes: a.SizeBytes,
			Position:  i,
		})
	}

	if err := s.messageRepo.Create(ctx, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// Edit rewrites a message's text. Only the sender may edit; deleted messages
// can no longer change. The message must live in roomID.
func (s *MessageService) Edit(ctx context.Context, roomID, messageID, editorID uuid.UUID, newText string) (domain.Message, error) {
	msg, err := s.getScoped(ctx, roomID, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != editorID {
		return domain.Message{}, fmt.Errorf("%w: only the sender can edit a message", chaterrors.ErrForbidden)
	}
	if msg.IsDeleted() {
		return domain.Message{}, fmt.Errorf("%w: message has been deleted", chaterrors.ErrConflict)
	}
	if err := validateText(newText); err != nil {
		return domain.Message{}, err
	}
	if newText == "" && len(msg.Attachments) == 0 {
		return domain.Message{}, fmt.Errorf("%w: message requires text or attachments", chaterrors.ErrInvalidInput)
	}

	now := time.Now()
	if err := s.messageRepo.UpdateText(ctx, messageID, newText, now); err != nil {
		// the guarded update skips deleted rows; the message existed a moment
		// ago, so a miss here means a concurrent delete won
		if errors.Is(err, chaterrors.ErrNotFound) {
			return domain.Message{}, fmt.Errorf("%w: message has been deleted", chaterrors.ErrConflict)
		}
		return domain.Message{}, err
	}
	msg.Text = newText
	msg.Edited = true
	msg.EditedAt = &now
	return msg, nil
}

// SoftDelete hides a message, keeping the row for thread integrity. Deleting
// an already-deleted message is a no-op; changed reports whether this call did
// the hiding, so counter bookkeeping happens exactly once.
func (s *MessageService) SoftDelete(ctx context.Context, roomID, messageID, deleterID uuid.UUID) (domain.Message, bool, error) {
	msg, err := s.getScoped(ctx, roomID, messageID)
	if err != nil {
		return domain.Message{}, false, err
	}
	if msg.SenderID != deleterID {
		return domain.Message{}, false, fmt.Errorf("%w: only the sender can delete a message", chaterrors.ErrForbidden)
	}
	if msg.IsDeleted() {
		return msg, false, nil
	}

	now := time.Now()
	if err := s.messageRepo.SoftDelete(ctx, messageID, deleterID, now); err != nil {
		return domain.Message{}, false, err
	}
	msg.DeletedAt = &now
	msg.DeletedBy = &deleterID
	return msg, true, nil
}

// ToggleReaction applies the toggle law: no existing reaction adds one, the
// same emoji removes it, a different emoji replaces it. Reactions stay
// permitted on deleted messages. Returns the message and its updated
// reaction set.
func (s *MessageService) ToggleReaction(ctx context.Context, roomID, messageID, userID uuid.UUID, emoji string) (domain.Message, []domain.MessageReaction, error) {
	if emoji == "" {
		return domain.Message{}, nil, fmt.Errorf("%w: emoji is required", chaterrors.ErrInvalidInput)
	}
	msg, err := s.getScoped(ctx, roomID, messageID)
	if err != nil {
		return domain.Message{}, nil, err
	}

	existing, err := s.messageRepo.GetUserReaction(ctx, messageID, userID)
	switch {
	case err == nil && existing.Emoji == emoji:
		if err := s.messageRepo.DeleteReaction(ctx, messageID, userID, emoji); err != nil {
			return domain.Message{}, nil, err
		}
	case err == nil || errors.Is(err, chaterrors.ErrNotFound):
		reaction := domain.MessageReaction{
			ID:        uuid.New(),
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		}
		if err := s.messageRepo.UpsertReaction(ctx, &reaction); err != nil {
			return domain.Message{}, nil, err
		}
	default:
		return domain.Message{}, nil, err
	}

	reactions, err := s.messageRepo.GetReactions(ctx, messageID)
	if err != nil {
		return domain.Message{}, nil, err
	}
	return msg, reactions, nil
}

// MarkRead records a read receipt. Idempotent; permitted on deleted messages.
func (s *MessageService) MarkRead(ctx context.Context, roomID, messageID, userID uuid.UUID) (domain.Message, error) {
	msg, err := s.getScoped(ctx, roomID, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.messageRepo.MarkRead(ctx, messageID, userID); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// getScoped loads a message and rejects before any write when it belongs to
// another room. Out-of-room targets look like missing messages to the caller.
func (s *MessageService) getScoped(ctx context.Context, roomID, messageID uuid.UUID) (domain.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.RoomID != roomID {
		return domain.Message{}, fmt.Errorf("%w: message does not belong to this project", chaterrors.ErrNotFound)
	}
	return msg, nil
}

// MarkAllRead records receipts for everything unread in the room.
func (s *MessageService) MarkAllRead(ctx context.Context, roomID, userID uuid.UUID) error {
	return s.messageRepo.MarkAllRead(ctx, roomID, userID)
}

// Paginate returns one page, newest page first but oldest-to-newest inside
// the page. Concatenating pages last-to-first reproduces the full ascending
// history with no gaps or duplicates.
func (s *MessageService) Paginate(ctx context.Context, room domain.ChatRoom, page, pageSize int, includeDeleted bool) (PageResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	messages, total, err := s.messageRepo.ListPage(ctx, room.ID, page, pageSize, includeDeleted)
	if err != nil {
		return PageResult{}, err
	}

	// repo window is newest-first; flip to ascending for display
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	names := s.resolveNames(ctx, messages)
	items := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		items = append(items, domain.NewMessageView(m, names[m.SenderID]))
	}

	return PageResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(page)*int64(pageSize) < total,
		HasPrev:  page > 1,
	}, nil
}

// SafeView builds the redacted single-message read model.
func (s *MessageService) SafeView(ctx context.Context, msg domain.Message) domain.MessageView {
	names := s.resolveNames(ctx, []domain.Message{msg})
	return domain.NewMessageView(msg, names[msg.SenderID])
}

func (s *MessageService) resolveNames(ctx context.Context, messages []domain.Message) map[uuid.UUID]string {
	if s.users == nil || len(messages) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(messages))
	ids := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			ids = append(ids, m.SenderID)
		}
	}
	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		s.log.Logger.Warn("sender lookup failed, serving bare ids", zap.Error(err))
		return nil
	}
	return names
}

func validateContent(text string, attachments []AttachmentInput, settings domain.RoomSettings) error {
	if err := validateText(text); err != nil {
		return err
	}
	if text == "" && len(attachments) == 0 {
		return fmt.Errorf("%w: message requires text or attachments", chaterrors.ErrInvalidInput)
	}
	if len(attachments) > domain.MaxAttachments {
		return fmt.Errorf("%w: at most %d attachments allowed", chaterrors.ErrInvalidInput, domain.MaxAttachments)
	}
	if len(attachments) > 0 && !settings.AllowAttachments {
		return fmt.Errorf("%w: attachments are disabled for this room", chaterrors.ErrInvalidInput)
	}
	for _, a := range attachments {
		if a.URL == "" || a.Filename == "" {
			return fmt.Errorf("%w: attachment url and filename are required", chaterrors.ErrInvalidInput)
		}
		if !a.Kind.Valid() {
			return fmt.Errorf("%w: unknown attachment kind %q", chaterrors.ErrInvalidInput, a.Kind)
		}
		if !settings.AllowsKind(a.Kind) {
			return fmt.Errorf("%w: attachment kind %q not allowed in this room", chaterrors.ErrInvalidInput, a.Kind)
		}
		if a.SizeBytes <= 0 || a.SizeBytes > settings.MaxAttachmentBytes {
			return fmt.Errorf("%w: attachment size must be between 1 and %d bytes", chaterrors.ErrInvalidInput, settings.MaxAttachmentBytes)
		}
	}
	return nil
}

func validateText(text string) error {
	if len([]rune(text)) > domain.MaxTextLength {
		return fmt.Errorf("%w: text exceeds %d characters", chaterrors.ErrInvalidInput, domain.MaxTextLength)
	}
	return nil
}
