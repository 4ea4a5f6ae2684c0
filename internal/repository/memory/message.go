package memory

import (
	"context"
	"time"

	"github.com/lalith-99/studymate/internal/models"
)

type MessageStore struct {
	db *DB
}

func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, m models.Message) (*models.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	m.ID = s.db.newID()
	m.CreatedAt = s.db.now()
	s.db.messages.insert(m.ID, &m)

	out := m
	return &out, nil
}

// ListBetween reads oldest first, unlike every other list, because a
// conversation is displayed top to bottom.
func (s *MessageStore) ListBetween(ctx context.Context, userA, userB string) ([]models.Message, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.messages.scan(func(m *models.Message) bool {
		return (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA)
	})
	oldestFirst(rows, func(m *models.Message) time.Time { return m.CreatedAt })

	out := make([]models.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, *m)
	}
	return out, nil
}
