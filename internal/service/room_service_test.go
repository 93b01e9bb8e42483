package service

import (
	"context"
	"testing"
	"time"

	"projecthub-chat/internal/domain"
	chaterrors "projecthub-chat/pkg/errors"
	"projecthub-chat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_GetOrCreate_RequiresProjectID(t *testing.T) {
	svc := NewRoomService(&MockRoomRepository{}, &MockMessageRepository{}, logger.NewNop())

	_, err := svc.GetOrCreate(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	room, err := svc.GetOrCreate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, room.ID)
}

func TestRoomService_EnsureParticipant(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()

	t.Run("first join inserts", func(t *testing.T) {
		var created *domain.ChatParticipant
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{}, chaterrors.ErrNotFound
			},
			CreateParticipantFunc: func(ctx context.Context, p *domain.ChatParticipant) error {
				created = p
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())

		require.NoError(t, svc.EnsureParticipant(context.Background(), roomID, userID))
		require.NotNil(t, created)
		assert.Equal(t, userID, created.UserID)
		assert.True(t, created.IsActive)
	})

	t.Run("active participant is a no-op", func(t *testing.T) {
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{RoomID: r, UserID: u, IsActive: true}, nil
			},
			CreateParticipantFunc: func(ctx context.Context, p *domain.ChatParticipant) error {
				t.Fatal("unexpected insert")
				return nil
			},
			ReactivateParticipantFunc: func(ctx context.Context, r, u uuid.UUID) error {
				t.Fatal("unexpected reactivate")
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		assert.NoError(t, svc.EnsureParticipant(context.Background(), roomID, userID))
	})

	t.Run("departed participant reactivates", func(t *testing.T) {
		reactivated := false
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{RoomID: r, UserID: u, IsActive: false}, nil
			},
			ReactivateParticipantFunc: func(ctx context.Context, r, u uuid.UUID) error {
				reactivated = true
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		require.NoError(t, svc.EnsureParticipant(context.Background(), roomID, userID))
		assert.True(t, reactivated)
	})

	t.Run("lost insert race falls back to reactivate", func(t *testing.T) {
		reactivated := false
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{}, chaterrors.ErrNotFound
			},
			CreateParticipantFunc: func(ctx context.Context, p *domain.ChatParticipant) error {
				return chaterrors.ErrAlreadyExists
			},
			ReactivateParticipantFunc: func(ctx context.Context, r, u uuid.UUID) error {
				reactivated = true
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		require.NoError(t, svc.EnsureParticipant(context.Background(), roomID, userID))
		assert.True(t, reactivated)
	})
}

func TestRoomService_RemoveParticipant_UnknownIsNoop(t *testing.T) {
	repo := &MockRoomRepository{
		DeactivateParticipantFunc: func(ctx context.Context, r, u uuid.UUID, at time.Time) error {
			return chaterrors.ErrNotFound
		},
	}
	svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
	assert.NoError(t, svc.RemoveParticipant(context.Background(), uuid.New(), uuid.New()))
}

func TestRoomService_UpdateLastRead(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	cursor := time.Now()

	t.Run("missing participant is ignored", func(t *testing.T) {
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{}, chaterrors.ErrNotFound
			},
			UpdateLastReadFunc: func(ctx context.Context, r, u uuid.UUID, at time.Time) error {
				t.Fatal("unexpected cursor write")
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		assert.NoError(t, svc.UpdateLastRead(context.Background(), roomID, userID, cursor))
	})

	t.Run("cursor never moves backwards", func(t *testing.T) {
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{LastReadAt: &cursor, IsActive: true}, nil
			},
			UpdateLastReadFunc: func(ctx context.Context, r, u uuid.UUID, at time.Time) error {
				t.Fatal("unexpected cursor write")
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		assert.NoError(t, svc.UpdateLastRead(context.Background(), roomID, userID, cursor.Add(-time.Minute)))
	})

	t.Run("newer timestamp advances", func(t *testing.T) {
		advanced := false
		repo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{LastReadAt: &cursor, IsActive: true}, nil
			},
			UpdateLastReadFunc: func(ctx context.Context, r, u uuid.UUID, at time.Time) error {
				advanced = true
				return nil
			},
		}
		svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())
		require.NoError(t, svc.UpdateLastRead(context.Background(), roomID, userID, cursor.Add(time.Minute)))
		assert.True(t, advanced)
	})
}

func TestRoomService_UnreadCount(t *testing.T) {
	roomID := uuid.New()
	userID := uuid.New()
	cursor := time.Now().Add(-time.Hour)

	t.Run("cursor passed through for participants", func(t *testing.T) {
		roomRepo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{LastReadAt: &cursor, IsActive: true}, nil
			},
		}
		msgRepo := &MockMessageRepository{
			CountUnreadFunc: func(ctx context.Context, r, u uuid.UUID, lastReadAt *time.Time) (int64, error) {
				require.NotNil(t, lastReadAt)
				assert.True(t, lastReadAt.Equal(cursor))
				return 4, nil
			},
		}
		svc := NewRoomService(roomRepo, msgRepo, logger.NewNop())
		n, err := svc.UnreadCount(context.Background(), roomID, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("implicit member counts everything", func(t *testing.T) {
		roomRepo := &MockRoomRepository{
			GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
				return domain.ChatParticipant{}, chaterrors.ErrNotFound
			},
		}
		msgRepo := &MockMessageRepository{
			CountUnreadFunc: func(ctx context.Context, r, u uuid.UUID, lastReadAt *time.Time) (int64, error) {
				assert.Nil(t, lastReadAt)
				return 10, nil
			},
		}
		svc := NewRoomService(roomRepo, msgRepo, logger.NewNop())
		n, err := svc.UnreadCount(context.Background(), roomID, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), n)
	})
}

func TestRoomService_SetArchived_Idempotent(t *testing.T) {
	roomID := uuid.New()
	repo := &MockRoomRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.ChatRoom, error) {
			return domain.ChatRoom{ID: id, IsArchived: true}, nil
		},
		SetArchivedFunc: func(ctx context.Context, r uuid.UUID, archived bool, at time.Time) error {
			t.Fatal("unexpected write for an already-archived room")
			return nil
		},
	}
	svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())

	room, err := svc.SetArchived(context.Background(), roomID, true)
	require.NoError(t, err)
	assert.True(t, room.IsArchived)
}

func TestRoomService_SyncParticipants(t *testing.T) {
	roomID := uuid.New()
	keep := uuid.New()
	join := uuid.New()
	depart := uuid.New()

	joined := map[uuid.UUID]bool{}
	deactivated := map[uuid.UUID]bool{}

	repo := &MockRoomRepository{
		GetParticipantFunc: func(ctx context.Context, r, u uuid.UUID) (domain.ChatParticipant, error) {
			if u == keep {
				return domain.ChatParticipant{RoomID: r, UserID: u, IsActive: true}, nil
			}
			return domain.ChatParticipant{}, chaterrors.ErrNotFound
		},
		CreateParticipantFunc: func(ctx context.Context, p *domain.ChatParticipant) error {
			joined[p.UserID] = true
			return nil
		},
		GetParticipantsFunc: func(ctx context.Context, r uuid.UUID) ([]domain.ChatParticipant, error) {
			return []domain.ChatParticipant{
				{RoomID: r, UserID: keep, IsActive: true},
				{RoomID: r, UserID: depart, IsActive: true},
			}, nil
		},
		DeactivateParticipantFunc: func(ctx context.Context, r, u uuid.UUID, at time.Time) error {
			deactivated[u] = true
			return nil
		},
	}
	svc := NewRoomService(repo, &MockMessageRepository{}, logger.NewNop())

	require.NoError(t, svc.SyncParticipants(context.Background(), roomID, []uuid.UUID{keep, join}))
	assert.True(t, joined[join])
	assert.False(t, joined[keep])
	assert.True(t, deactivated[depart])
	assert.False(t, deactivated[keep])
	assert.False(t, deactivated[join], "snapshot members must stay active")
}
