package model

// ToggleReaction adds userID to reactions[emoji] when absent and removes it
// when present, dropping the emoji once nobody is left. The input is not
// modified; the result is never nil.
func ToggleReaction(reactions map[string][]string, userID, emoji string) map[string][]string {
	out := make(map[string][]string, len(reactions)+1)
	for e, users := range reactions {
		out[e] = append([]string(nil), users...)
	}

	users := out[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(out, emoji)
			} else {
				out[emoji] = users
			}
			return out
		}
	}

	out[emoji] = append(users, userID)
	return out
}
