package repo

import (
	"chatapp/internal/model"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, s *MemoryStore, chatID string, senders ...string) []string {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]string, 0, len(senders))
	for i, sender := range senders {
		id, err := s.CreateMessage(context.Background(), &model.Message{
			ChatID:    chatID,
			SenderID:  sender,
			Content:   fmt.Sprintf("m%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ids := seedMessages(t, s, "c1", "u1")

	msg, err := s.GetMessage(context.Background(), ids[0])
	require.NoError(t, err)
	msg.Content = "mutated"
	msg.ReadBy = append(msg.ReadBy, "intruder")

	again, err := s.GetMessage(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "m0", again.Content)
	assert.Empty(t, again.ReadBy)
}

func TestMemoryStoreUpdateSkipsDeleted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := seedMessages(t, s, "c1", "u1")

	deleted := true
	_, err := s.UpdateMessage(ctx, ids[0], model.MessagePatch{IsDeleted: &deleted})
	require.NoError(t, err)

	content := "late edit"
	got, err := s.UpdateMessage(ctx, ids[0], model.MessagePatch{Content: &content})
	require.NoError(t, err)
	assert.Nil(t, got)

	missing, err := s.UpdateMessage(ctx, "nope", model.MessagePatch{Content: &content})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreAppendReadByIsASet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := seedMessages(t, s, "c1", "u1")

	for i := 0; i < 3; i++ {
		_, err := s.AppendReadBy(ctx, ids[0], "u2")
		require.NoError(t, err)
	}

	msg, err := s.GetMessage(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, msg.ReadBy)
}

func TestMemoryStoreToggleReactionUnderContention(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := seedMessages(t, s, "c1", "u0")

	var wg sync.WaitGroup
	want := make([]string, 0, 16)
	for i := 0; i < 16; i++ {
		user := fmt.Sprintf("u%d", i)
		want = append(want, user)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleReaction(ctx, ids[0], user, "🔥")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msg, err := s.GetMessage(ctx, ids[0])
	require.NoError(t, err)
	assert.ElementsMatch(t, want, msg.Reactions["🔥"])

	deleted := true
	_, err = s.UpdateMessage(ctx, ids[0], model.MessagePatch{IsDeleted: &deleted})
	require.NoError(t, err)
	got, err := s.ToggleReaction(ctx, ids[0], "u1", "🔥")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreUpdateManyHonoursPinnedIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ids := seedMessages(t, s, "c1", "u1", "u1", "u1")

	n, err := s.UpdateMessageMany(ctx,
		model.MessageFilter{ChatID: "c1", IDs: ids[:2]},
		model.MessagePatch{AddReadBy: "u2"},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	last, err := s.GetMessage(ctx, ids[2])
	require.NoError(t, err)
	assert.Empty(t, last.ReadBy)
}

func TestMemoryStoreUpdateManyCountsChanges(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedMessages(t, s, "c1", "u1", "u1", "u2")
	seedMessages(t, s, "c2", "u1")

	filter := model.MessageFilter{ChatID: "c1", ExcludeSender: "u2", NotReadBy: "u2", IncludeDeleted: true}
	ids, err := s.FindMessageIDs(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	n, err := s.UpdateMessageMany(ctx, filter, model.MessagePatch{AddReadBy: "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.UpdateMessageMany(ctx, filter, model.MessagePatch{AddReadBy: "u2"})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.UpdateMessageMany(ctx, model.MessageFilter{}, model.MessagePatch{AddReadBy: "u2"})
	assert.ErrorIs(t, err, ErrInvalidChannelID)
}

func TestMemoryStoreListMessagesPaginates(t *testing.T) {
	s := NewMemoryStore()
	senders := make([]string, messagesPageSize+5)
	for i := range senders {
		senders[i] = "u1"
	}
	seedMessages(t, s, "c1", senders...)

	first, err := s.ListMessages(context.Background(), "c1", 1)
	require.NoError(t, err)
	assert.Len(t, first.Data, messagesPageSize)
	assert.Equal(t, int64(2), first.TotalPages)
	assert.Equal(t, "m0", first.Data[0].Content)

	second, err := s.ListMessages(context.Background(), "c1", 2)
	require.NoError(t, err)
	assert.Len(t, second.Data, 5)

	beyond, err := s.ListMessages(context.Background(), "c1", 9)
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
}

func TestMemoryStoreConversations(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c1 := s.AddConversation(model.Conversation{ChatType: model.ChatTypeSingle, Participants: []string{"u1", "u2"}})
	c2 := s.AddConversation(model.Conversation{ChatType: model.ChatTypeGroup, Participants: []string{"u1", "u3"}})

	rooms, err := s.ListUserConversations(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{c1, c2}, rooms)

	removed, err := s.RemoveParticipant(ctx, c2, "u3")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveParticipant(ctx, c2, "u3")
	require.NoError(t, err)
	assert.False(t, removed)

	participants, err := s.ListParticipants(ctx, c2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, participants)

	missing, err := s.GetConversation(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	name := "Bob Builder"
	id := s.AddUser(model.User{Username: "bob", FullName: &name})

	u, err := s.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, name, u.DisplayName())

	missing, err := s.GetUser(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
