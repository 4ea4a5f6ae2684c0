package memory

import (
	"context"
	"time"

	"github.com/lalith-99/studymate/internal/models"
)

type ConnectionStore struct {
	db *DB
}

func NewConnectionStore(db *DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Create(ctx context.Context, c models.Connection) (*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c.ID = s.db.newID()
	if c.Status == "" {
		c.Status = models.ConnectionPending
	}
	c.CreatedAt = s.db.now()
	s.db.connections.insert(c.ID, &c)

	out := c
	return &out, nil
}

func (s *ConnectionStore) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c := s.db.connections.get(id)
	if c == nil {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.connections.scan(func(c *models.Connection) bool {
		return c.RequesterID == userID || c.ReceiverID == userID
	})
	newestFirst(rows, func(c *models.Connection) time.Time { return c.CreatedAt })

	out := make([]models.Connection, 0, len(rows))
	for _, c := range rows {
		out = append(out, *c)
	}
	return out, nil
}

// UpdateStatus accepts any status; callers decide which transitions are legal.
func (s *ConnectionStore) UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c := s.db.connections.get(id)
	if c == nil {
		return nil, nil
	}
	c.Status = status

	out := *c
	return &out, nil
}
