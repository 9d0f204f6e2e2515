package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabcode/backend/internal/apperr"
	"collabcode/backend/internal/models"
	"collabcode/backend/internal/storage"
)

func saveTestMessage(t *testing.T, svc *storage.Service, roomID, sender, content string) *models.Message {
	t.Helper()
	msg := &models.Message{RoomID: roomID, SenderID: sender, Content: content}
	require.NoError(t, svc.SaveMessage(msg))
	return msg
}

func TestSaveMessage_Validation(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())

	t.Run("empty content", func(t *testing.T) {
		err := svc.SaveMessage(&models.Message{RoomID: room.RoomID, SenderID: "owner", Content: "   "})
		assert.ErrorIs(t, err, apperr.ErrMessageEmpty)
	})

	t.Run("over length cap", func(t *testing.T) {
		// Multi-byte runes: the cap counts characters, not bytes.
		long := strings.Repeat("я", models.MaxMessageLength+1)
		err := svc.SaveMessage(&models.Message{RoomID: room.RoomID, SenderID: "owner", Content: long})
		assert.ErrorIs(t, err, apperr.ErrMessageTooLong)
	})

	t.Run("exactly at cap", func(t *testing.T) {
		exact := strings.Repeat("я", models.MaxMessageLength)
		err := svc.SaveMessage(&models.Message{RoomID: room.RoomID, SenderID: "owner", Content: exact})
		assert.NoError(t, err)
	})

	var persisted int64
	require.NoError(t, svc.DB.Model(&models.Message{}).Count(&persisted).Error)
	assert.EqualValues(t, 1, persisted, "rejected messages must never reach the database")
}

func TestSaveMessage_DefaultsAndCounter(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())

	msg := saveTestMessage(t, svc, room.RoomID, "owner", "  hello  ")
	assert.Equal(t, "hello", msg.Content, "content is trimmed")
	assert.Equal(t, models.MessageKindPlain, msg.Kind)
	assert.False(t, msg.IsEdited)

	loaded, err := svc.GetRoomByID(room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Stats.TotalMessages)
}

func TestEditMessage(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())
	msg := saveTestMessage(t, svc, room.RoomID, "owner", "original")

	updated, err := svc.EditMessage(msg.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.Content)
	assert.True(t, updated.IsEdited)
	assert.NotNil(t, updated.EditedAt)

	_, err = svc.EditMessage(msg.ID, "  ")
	assert.ErrorIs(t, err, apperr.ErrMessageEmpty)

	_, err = svc.EditMessage(msg.ID, strings.Repeat("x", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, apperr.ErrMessageTooLong)

	_, err = svc.EditMessage(99999, "ghost")
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
}

func TestAddReaction_DuplicateIsNoop(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())
	msg := saveTestMessage(t, svc, room.RoomID, "owner", "react to me")

	first, err := svc.AddReaction(msg.ID, "bob", "👍")
	require.NoError(t, err)
	assert.Len(t, first.Reactions, 1)

	again, err := svc.AddReaction(msg.ID, "bob", "👍")
	require.NoError(t, err)
	assert.Len(t, again.Reactions, 1, "re-adding the same (user, emoji) is a no-op")

	other, err := svc.AddReaction(msg.ID, "bob", "🎉")
	require.NoError(t, err)
	assert.Len(t, other.Reactions, 2, "a different emoji from the same user is a new reaction")

	_, err = svc.AddReaction(99999, "bob", "👍")
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
}

func TestRemoveReaction_AbsentIsNoop(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())
	msg := saveTestMessage(t, svc, room.RoomID, "owner", "react to me")

	_, err := svc.AddReaction(msg.ID, "bob", "👍")
	require.NoError(t, err)

	removed, err := svc.RemoveReaction(msg.ID, "bob", "👍")
	require.NoError(t, err)
	assert.Empty(t, removed.Reactions)

	again, err := svc.RemoveReaction(msg.ID, "bob", "👍")
	require.NoError(t, err)
	assert.Empty(t, again.Reactions)
}

func TestListMessages_ExcludesDeletedAscending(t *testing.T) {
	svc := newTestService(t)
	room := createTestRoom(t, svc, "owner", models.DefaultRoomSettings())

	m1 := saveTestMessage(t, svc, room.RoomID, "owner", "first")
	m2 := saveTestMessage(t, svc, room.RoomID, "owner", "second")
	m3 := saveTestMessage(t, svc, room.RoomID, "owner", "third")
	require.NoError(t, svc.SoftDeleteMessage(m2.ID))

	messages, total, err := svc.ListMessages(room.RoomID, 1, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, messages, 2)
	assert.Equal(t, m1.ID, messages[0].ID, "chronological ascending")
	assert.Equal(t, m3.ID, messages[1].ID)
}
