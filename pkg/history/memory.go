package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"gemchat/pkg/chat"
)

type memoryChat struct {
	title     string
	messages  []chat.Message
	updatedAt time.Time
}

// MemoryStore keeps conversations for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]memoryChat
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats: make(map[string]memoryChat),
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]chat.Message(nil), c.messages...), nil
}

func (s *MemoryStore) Save(_ context.Context, id, title string, messages []chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[id] = memoryChat{
		title:     title,
		messages:  append([]chat.Message(nil), messages...),
		updatedAt: s.now().UTC(),
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]chat.ChatHistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]chat.ChatHistoryItem, 0, len(s.chats))
	for id, c := range s.chats {
		items = append(items, chat.ChatHistoryItem{ID: id, Title: c.title, UpdatedAt: c.updatedAt})
	}
	sortItems(items)
	return items, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// sortItems orders most recently updated first, ties broken by id.
func sortItems(items []chat.ChatHistoryItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
