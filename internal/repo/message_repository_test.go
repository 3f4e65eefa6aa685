package repo

import (
	"chatapp/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustObjectID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}

func TestBuildMessageFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter model.MessageFilter
		want   bson.M
	}{
		{
			name:   "chat only hides deleted",
			filter: model.MessageFilter{ChatID: "c1"},
			want:   bson.M{"chat_id": "c1", "is_deleted": bson.M{"$ne": true}},
		},
		{
			name:   "unread by user",
			filter: model.MessageFilter{ChatID: "c1", ExcludeSender: "u1", NotReadBy: "u1", IncludeDeleted: true},
			want: bson.M{
				"chat_id":   "c1",
				"sender_id": bson.M{"$ne": "u1"},
				"read_by":   bson.M{"$ne": "u1"},
			},
		},
		{
			name:   "pinned ids drop malformed entries",
			filter: model.MessageFilter{ChatID: "c1", IDs: []string{"65a000000000000000000001", "junk"}, IncludeDeleted: true},
			want: bson.M{
				"chat_id": "c1",
				"_id":     bson.M{"$in": []primitive.ObjectID{mustObjectID(t, "65a000000000000000000001")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildMessageFilter(tt.filter))
		})
	}
}

func TestPatchToUpdate(t *testing.T) {
	content := "edited"
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	deleted := true

	assert.Equal(t, bson.M{
		"$set": bson.M{"content": content, "edited_at": at},
	}, patchToUpdate(model.MessagePatch{Content: &content, EditedAt: &at}))

	assert.Equal(t, bson.M{
		"$set": bson.M{"is_deleted": true},
	}, patchToUpdate(model.MessagePatch{IsDeleted: &deleted}))

	assert.Equal(t, bson.M{
		"$addToSet": bson.M{"read_by": "u2"},
	}, patchToUpdate(model.MessagePatch{AddReadBy: "u2"}))
}
