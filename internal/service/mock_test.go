package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"projecthub-chat/internal/domain"
	"projecthub-chat/internal/events"
	chaterrors "projecthub-chat/pkg/errors"

	"github.com/google/uuid"
)

// MockRoomRepository is a func-field mock of repository.RoomRepository.
type MockRoomRepository struct {
	GetOrCreateFunc           func(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error)
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (domain.ChatRoom, error)
	GetByProjectFunc          func(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error)
	GetParticipantFunc        func(ctx context.Context, roomID, userID uuid.UUID) (domain.ChatParticipant, error)
	GetParticipantsFunc       func(ctx context.Context, roomID uuid.UUID) ([]domain.ChatParticipant, error)
	CreateParticipantFunc     func(ctx context.Context, p *domain.ChatParticipant) error
	ReactivateParticipantFunc func(ctx context.Context, roomID, userID uuid.UUID) error
	DeactivateParticipantFunc func(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error
	UpdateLastReadFunc        func(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error
	RecordNewMessageFunc      func(ctx context.Context, roomID, messageID uuid.UUID, at time.Time) error
	RecordMessageRemovedFunc  func(ctx context.Context, roomID uuid.UUID) error
	SetArchivedFunc           func(ctx context.Context, roomID uuid.UUID, archived bool, at time.Time) error
}

func (m *MockRoomRepository) GetOrCreate(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, projectID)
	}
	return domain.ChatRoom{ID: uuid.New(), ProjectID: projectID, Settings: domain.DefaultRoomSettings()}, nil
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ChatRoom, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return domain.ChatRoom{ID: id, Settings: domain.DefaultRoomSettings()}, nil
}

func (m *MockRoomRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (domain.ChatRoom, error) {
	if m.GetByProjectFunc != nil {
		return m.GetByProjectFunc(ctx, projectID)
	}
	return domain.ChatRoom{}, chaterrors.ErrNotFound
}

func (m *MockRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (domain.ChatParticipant, error) {
	if m.GetParticipantFunc != nil {
		return m.GetParticipantFunc(ctx, roomID, userID)
	}
	return domain.ChatParticipant{}, chaterrors.ErrNotFound
}

func (m *MockRoomRepository) GetParticipants(ctx context.Context, roomID uuid.UUID) ([]domain.ChatParticipant, error) {
	if m.GetParticipantsFunc != nil {
		return m.GetParticipantsFunc(ctx, roomID)
	}
	return nil, nil
}

func (m *MockRoomRepository) CreateParticipant(ctx context.Context, p *domain.ChatParticipant) error {
	if m.CreateParticipantFunc != nil {
		return m.CreateParticipantFunc(ctx, p)
	}
	return nil
}

func (m *MockRoomRepository) ReactivateParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	if m.ReactivateParticipantFunc != nil {
		return m.ReactivateParticipantFunc(ctx, roomID, userID)
	}
	return nil
}

func (m *MockRoomRepository) DeactivateParticipant(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	if m.DeactivateParticipantFunc != nil {
		return m.DeactivateParticipantFunc(ctx, roomID, userID, at)
	}
	return nil
}

func (m *MockRoomRepository) UpdateLastRead(ctx context.Context, roomID, userID uuid.UUID, at time.Time) error {
	if m.UpdateLastReadFunc != nil {
		return m.UpdateLastReadFunc(ctx, roomID, userID, at)
	}
	return nil
}

func (m *MockRoomRepository) RecordNewMessage(ctx context.Context, roomID, messageID uuid.UUID, at time.Time) error {
	if m.RecordNewMessageFunc != nil {
		return m.RecordNewMessageFunc(ctx, roomID, messageID, at)
	}
	return nil
}

func (m *MockRoomRepository) RecordMessageRemoved(ctx context.Context, roomID uuid.UUID) error {
	if m.RecordMessageRemovedFunc != nil {
		return m.RecordMessageRemovedFunc(ctx, roomID)
	}
	return nil
}

func (m *MockRoomRepository) SetArchived(ctx context.Context, roomID uuid.UUID, archived bool, at time.Time) error {
	if m.SetArchivedFunc != nil {
		return m.SetArchivedFunc(ctx, roomID, archived, at)
	}
	return nil
}

// MockMessageRepository is a func-field mock of repository.MessageRepository.
type MockMessageRepository struct {
	CreateFunc          func(ctx context.Context, m *domain.Message) error
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (domain.Message, error)
	ListPageFunc        func(ctx context.Context, roomID uuid.UUID, page, pageSize int, includeDeleted bool) ([]domain.Message, int64, error)
	UpdateTextFunc      func(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) error
	SoftDeleteFunc      func(ctx context.Context, id, deletedBy uuid.UUID, at time.Time) error
	UpsertReactionFunc  func(ctx context.Context, r *domain.MessageReaction) error
	DeleteReactionFunc  func(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	GetUserReactionFunc func(ctx context.Context, messageID, userID uuid.UUID) (domain.MessageReaction, error)
	GetReactionsFunc    func(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error)
	MarkReadFunc        func(ctx context.Context, messageID, userID uuid.UUID) error
	MarkAllReadFunc     func(ctx context.Context, roomID, userID uuid.UUID) error
	CountUnreadFunc     func(ctx context.Context, roomID, userID uuid.UUID, lastReadAt *time.Time) (int64, error)
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return domain.Message{}, chaterrors.ErrNotFound
}

func (m *MockMessageRepository) ListPage(ctx context.Context, roomID uuid.UUID, page, pageSize int, includeDeleted bool) ([]domain.Message, int64, error) {
	if m.ListPageFunc != nil {
		return m.ListPageFunc(ctx, roomID, page, pageSize, includeDeleted)
	}
	return nil, 0, nil
}

func (m *MockMessageRepository) UpdateText(ctx context.Context, id uuid.UUID, text string, editedAt time.Time) error {
	if m.UpdateTextFunc != nil {
		return m.UpdateTextFunc(ctx, id, text, editedAt)
	}
	return nil
}

func (m *MockMessageRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID, at time.Time) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, id, deletedBy, at)
	}
	return nil
}

func (m *MockMessageRepository) UpsertReaction(ctx context.Context, r *domain.MessageReaction) error {
	if m.UpsertReactionFunc != nil {
		return m.UpsertReactionFunc(ctx, r)
	}
	return nil
}

func (m *MockMessageRepository) DeleteReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	if m.DeleteReactionFunc != nil {
		return m.DeleteReactionFunc(ctx, messageID, userID, emoji)
	}
	return nil
}

func (m *MockMessageRepository) GetUserReaction(ctx context.Context, messageID, userID uuid.UUID) (domain.MessageReaction, error) {
	if m.GetUserReactionFunc != nil {
		return m.GetUserReactionFunc(ctx, messageID, userID)
	}
	return domain.MessageReaction{}, chaterrors.ErrNotFound
}

func (m *MockMessageRepository) GetReactions(ctx context.Context, messageID uuid.UUID) ([]domain.MessageReaction, error) {
	if m.GetReactionsFunc != nil {
		return m.GetReactionsFunc(ctx, messageID)
	}
	return nil, nil
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, messageID, userID)
	}
	return nil
}

func (m *MockMessageRepository) MarkAllRead(ctx context.Context, roomID, userID uuid.UUID) error {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, roomID, userID)
	}
	return nil
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, roomID, userID uuid.UUID, lastReadAt *time.Time) (int64, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, roomID, userID, lastReadAt)
	}
	return 0, nil
}

// MockMembership is a func-field mock of MembershipOracle.
type MockMembership struct {
	IsMemberFunc func(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	IsOwnerFunc  func(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

func (m *MockMembership) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, projectID, userID)
	}
	return true, nil
}

func (m *MockMembership) IsOwner(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	if m.IsOwnerFunc != nil {
		return m.IsOwnerFunc(ctx, projectID, userID)
	}
	return false, nil
}

// MockUserLookup is a func-field mock of UserLookup.
type MockUserLookup struct {
	DisplayNamesFunc func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

func (m *MockUserLookup) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if m.DisplayNamesFunc != nil {
		return m.DisplayNamesFunc(ctx, ids)
	}
	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		names[id] = "user-" + id.String()[:8]
	}
	return names, nil
}

// MockBroadcaster records published events for assertions.
type MockBroadcaster struct {
	mu     sync.Mutex
	events []events.Event

	PublishFunc func(event events.Event)
}

func (m *MockBroadcaster) Publish(event events.Event) {
	if m.PublishFunc != nil {
		m.PublishFunc(event)
		return
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
}

func (m *MockBroadcaster) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// fakeMessageStore backs pagination tests with an in-memory message log that
// serves newest-first windows the same way the SQL repository does.
type fakeMessageStore struct {
	MockMessageRepository
	mu       sync.Mutex
	messages []domain.Message
}

func newFakeMessageStore() *fakeMessageStore {
	s := &fakeMessageStore{}
	s.CreateFunc = func(ctx context.Context, m *domain.Message) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		m.Seq = int64(len(s.messages) + 1)
		s.messages = append(s.messages, *m)
		return nil
	}
	s.ListPageFunc = func(ctx context.Context, roomID uuid.UUID, page, pageSize int, includeDeleted bool) ([]domain.Message, int64, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		matching := make([]domain.Message, 0, len(s.messages))
		for _, m := range s.messages {
			if m.RoomID != roomID {
				continue
			}
			if !includeDeleted && m.IsDeleted() {
				continue
			}
			matching = append(matching, m)
		}
		sort.Slice(matching, func(i, j int) bool {
			if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
				return matching[i].CreatedAt.After(matching[j].CreatedAt)
			}
			return matching[i].Seq > matching[j].Seq
		})

		total := int64(len(matching))
		offset := (page - 1) * pageSize
		if offset >= len(matching) {
			return nil, total, nil
		}
		end := offset + pageSize
		if end > len(matching) {
			end = len(matching)
		}
		window := make([]domain.Message, end-offset)
		copy(window, matching[offset:end])
		return window, total, nil
	}
	return s
}
