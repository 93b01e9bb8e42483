package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAttachmentKindValid(t *testing.T) {
	for _, k := range []AttachmentKind{AttachmentImage, AttachmentDocument, AttachmentVideo, AttachmentAudio, AttachmentOther} {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, AttachmentKind("archive").Valid())
	assert.False(t, AttachmentKind("").Valid())
}

func TestRoomSettingsAllowsKind(t *testing.T) {
	s := RoomSettings{AllowedAttachmentKinds: []AttachmentKind{AttachmentImage}}
	assert.True(t, s.AllowsKind(AttachmentImage))
	assert.False(t, s.AllowsKind(AttachmentVideo))

	empty := RoomSettings{}
	assert.False(t, empty.AllowsKind(AttachmentImage))
}

func TestNewMessageView_RedactsDeleted(t *testing.T) {
	now := time.Now()
	replyTo := uuid.New()
	m := Message{
		ID:          uuid.New(),
		RoomID:      uuid.New(),
		SenderID:    uuid.New(),
		Text:        "classified",
		ReplyToID:   &replyTo,
		DeletedAt:   &now,
		CreatedAt:   now.Add(-time.Hour),
		Attachments: []MessageAttachment{{URL: "https://cdn/file.png"}},
	}

	v := NewMessageView(m, "alice")

	assert.True(t, v.Deleted)
	assert.Equal(t, DeletedPlaceholder, v.Text)
	assert.Nil(t, v.Attachments)
	assert.Equal(t, m.ID, v.ID)
	assert.Equal(t, m.SenderID, v.SenderID)
	assert.Equal(t, &replyTo, v.ReplyToID)
	assert.Equal(t, m.CreatedAt, v.CreatedAt)
}

func TestNewMessageView_LiveMessageUntouched(t *testing.T) {
	m := Message{
		ID:       uuid.New(),
		SenderID: uuid.New(),
		Text:     "hello",
		Edited:   true,
	}

	v := NewMessageView(m, "bob")

	assert.False(t, v.Deleted)
	assert.Equal(t, "hello", v.Text)
	assert.Equal(t, "bob", v.SenderName)
	assert.True(t, v.Edited)
}
