package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleReaction(t *testing.T) {
	tests := []struct {
		name      string
		reactions map[string][]string
		user      string
		emoji     string
		want      map[string][]string
	}{
		{
			name:  "first reaction on nil map",
			user:  "u1",
			emoji: "👍",
			want:  map[string][]string{"👍": {"u1"}},
		},
		{
			name:      "second user joins",
			reactions: map[string][]string{"👍": {"u1"}},
			user:      "u2",
			emoji:     "👍",
			want:      map[string][]string{"👍": {"u1", "u2"}},
		},
		{
			name:      "last user leaves drops the key",
			reactions: map[string][]string{"👍": {"u1"}, "❤️": {"u2"}},
			user:      "u1",
			emoji:     "👍",
			want:      map[string][]string{"❤️": {"u2"}},
		},
		{
			name:      "removal keeps the others",
			reactions: map[string][]string{"👍": {"u1", "u2", "u3"}},
			user:      "u2",
			emoji:     "👍",
			want:      map[string][]string{"👍": {"u1", "u3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToggleReaction(tt.reactions, tt.user, tt.emoji))
		})
	}
}

func TestToggleReactionTwiceRestoresSet(t *testing.T) {
	start := map[string][]string{
		"👍": {"u1", "u2", "u3"},
		"😂": {"u2"},
	}

	for _, user := range []string{"u1", "u2", "u4"} {
		for _, emoji := range []string{"👍", "😂", "🔥"} {
			got := ToggleReaction(ToggleReaction(start, user, emoji), user, emoji)
			require.Len(t, got, len(start), "%s %s", user, emoji)
			for e, users := range start {
				assert.ElementsMatch(t, users, got[e], "%s %s", user, emoji)
			}
		}
	}
}

func TestToggleReactionDoesNotMutateInput(t *testing.T) {
	start := map[string][]string{"👍": {"u1", "u2"}}
	ToggleReaction(start, "u1", "👍")
	ToggleReaction(start, "u3", "🔥")
	assert.Equal(t, map[string][]string{"👍": {"u1", "u2"}}, start)
}
