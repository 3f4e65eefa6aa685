package repo

import (
	"chatapp/internal/db"
	"chatapp/internal/model"
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process implementation of the message, conversation
// and user repositories. It backs development runs without a Mongo URI and
// the package tests of the layers above. All returned documents are copies.
type MemoryStore struct {
	mu            sync.RWMutex
	messages      map[string]*model.Message
	conversations map[string]*model.Conversation
	users         map[string]*model.User
}

var (
	_ MessageRepository      = (*MemoryStore)(nil)
	_ ConversationRepository = (*MemoryStore)(nil)
	_ UserRepository         = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:      make(map[string]*model.Message),
		conversations: make(map[string]*model.Conversation),
		users:         make(map[string]*model.User),
	}
}

// AddConversation stores c, assigning an id when it has none, and returns the hex id.
func (s *MemoryStore) AddConversation(c model.Conversation) string {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.Participants = append([]string(nil), c.Participants...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID.Hex()] = &c
	return c.ID.Hex()
}

// AddUser stores u, assigning an id when it has none, and returns the hex id.
func (s *MemoryStore) AddUser(u model.User) string {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID.Hex()] = &u
	return u.ID.Hex()
}

func (s *MemoryStore) CreateMessage(_ context.Context, msg *model.Message) (string, error) {
	if msg == nil {
		return "", ErrInvalidMessage
	}
	if msg.ChatID == "" {
		return "", ErrInvalidChannelID
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID.Hex()] = cloneMessage(msg)
	return msg.ID.Hex(), nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	return cloneMessage(msg), nil
}

func (s *MemoryStore) UpdateMessage(_ context.Context, id string, patch model.MessagePatch) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok || msg.IsDeleted {
		return nil, nil
	}
	applyPatch(msg, patch)
	return cloneMessage(msg), nil
}

func (s *MemoryStore) AppendReadBy(_ context.Context, id string, userID string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	addReader(msg, userID)
	return cloneMessage(msg), nil
}

func (s *MemoryStore) ToggleReaction(_ context.Context, id string, userID, emoji string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok || msg.IsDeleted {
		return nil, nil
	}
	msg.Reactions = model.ToggleReaction(msg.Reactions, userID, emoji)
	return cloneMessage(msg), nil
}

func (s *MemoryStore) UpdateMessageMany(_ context.Context, filter model.MessageFilter, patch model.MessagePatch) (int64, error) {
	if filter.ChatID == "" {
		return 0, ErrInvalidChannelID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	for _, msg := range s.messages {
		if !matches(msg, filter) {
			continue
		}
		before := cloneMessage(msg)
		applyPatch(msg, patch)
		if changed(before, msg) {
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore) FindMessageIDs(_ context.Context, filter model.MessageFilter) ([]string, error) {
	if filter.ChatID == "" {
		return nil, ErrInvalidChannelID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, msg := range s.messages {
		if matches(msg, filter) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, chatID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if chatID == "" {
		return nil, ErrInvalidChannelID
	}
	if page < 1 {
		page = 1
	}

	s.mu.RLock()
	all := make([]model.Message, 0)
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			all = append(all, *cloneMessage(msg))
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * messagesPageSize
	end := start + messagesPageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	totalPages := total / messagesPageSize
	if total%messagesPageSize > 0 {
		totalPages++
	}

	return &db.PaginatedResult[model.Message]{
		Data:       all[start:end],
		Total:      total,
		Page:       page,
		PageSize:   messagesPageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, chatID string) (*model.Conversation, error) {
	if chatID == "" {
		return nil, ErrInvalidChannelID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[chatID]
	if !ok {
		return nil, nil
	}
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	return &out, nil
}

func (s *MemoryStore) ListParticipants(ctx context.Context, chatID string) ([]string, error) {
	c, err := s.GetConversation(ctx, chatID)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Participants, nil
}

func (s *MemoryStore) ListUserConversations(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, c := range s.conversations {
		if c.HasParticipant(userID) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) RemoveParticipant(_ context.Context, chatID string, userID string) (bool, error) {
	if chatID == "" {
		return false, ErrInvalidChannelID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[chatID]
	if !ok {
		return false, nil
	}
	for i, id := range c.Participants {
		if id == userID {
			c.Participants = append(c.Participants[:i:i], c.Participants[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func matches(msg *model.Message, f model.MessageFilter) bool {
	if msg.ChatID != f.ChatID {
		return false
	}
	if f.ExcludeSender != "" && msg.SenderID == f.ExcludeSender {
		return false
	}
	if f.NotReadBy != "" && msg.IsReadBy(f.NotReadBy) {
		return false
	}
	if !f.IncludeDeleted && msg.IsDeleted {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, msg.ID.Hex()) {
		return false
	}
	return true
}

func applyPatch(msg *model.Message, p model.MessagePatch) {
	if p.Content != nil {
		msg.Content = *p.Content
	}
	if p.EditedAt != nil {
		t := *p.EditedAt
		msg.EditedAt = &t
	}
	if p.IsDeleted != nil {
		msg.IsDeleted = *p.IsDeleted
	}
	if p.AddReadBy != "" {
		addReader(msg, p.AddReadBy)
	}
}

func addReader(msg *model.Message, userID string) {
	if !msg.IsReadBy(userID) {
		msg.ReadBy = append(msg.ReadBy, userID)
	}
}

func changed(before, after *model.Message) bool {
	if before.Content != after.Content || before.IsDeleted != after.IsDeleted {
		return true
	}
	if len(before.ReadBy) != len(after.ReadBy) || len(before.Reactions) != len(after.Reactions) {
		return true
	}
	return (before.EditedAt == nil) != (after.EditedAt == nil)
}

func cloneMessage(m *model.Message) *model.Message {
	out := *m
	out.ReadBy = append([]string{}, m.ReadBy...)
	out.Reactions = cloneReactions(m.Reactions)
	if m.EditedAt != nil {
		t := *m.EditedAt
		out.EditedAt = &t
	}
	return &out
}

func cloneReactions(r map[string][]string) map[string][]string {
	if r == nil {
		return nil
	}
	out := make(map[string][]string, len(r))
	for emoji, users := range r {
		out[emoji] = append([]string(nil), users...)
	}
	return out
}
