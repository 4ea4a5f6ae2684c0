package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/lalith-99/studymate/internal/models"
)

type NoteStore struct {
	db *DB
}

func NewNoteStore(db *DB) *NoteStore {
	return &NoteStore{db: db}
}

func (s *NoteStore) Create(ctx context.Context, n models.Note) (*models.Note, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n.ID = s.db.newID()
	n.Downloads = 0
	n.Likes = 0
	n.CreatedAt = s.db.now()
	s.db.notes.insert(n.ID, &n)

	out := n
	return &out, nil
}

func (s *NoteStore) GetByID(ctx context.Context, id string) (*models.Note, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	n := s.db.notes.get(id)
	if n == nil {
		return nil, nil
	}
	out := *n
	return &out, nil
}

func (s *NoteStore) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.notes.scan(func(n *models.Note) bool {
		return containsFold(n.Subject, f.Subject) && containsFold(n.Title, f.Title)
	})
	return sortedNotes(rows), nil
}

func (s *NoteStore) ListByUploader(ctx context.Context, userID string) ([]models.Note, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.notes.scan(func(n *models.Note) bool {
		return n.UploadedBy == userID
	})
	return sortedNotes(rows), nil
}

func (s *NoteStore) UpdateStats(ctx context.Context, id string, stat models.NoteStat) (*models.Note, error) {
	if !stat.Valid() {
		return nil, fmt.Errorf("update note stats: unknown stat %q", stat)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n := s.db.notes.get(id)
	if n == nil {
		return nil, nil
	}
	switch stat {
	case models.NoteStatDownload:
		n.Downloads++
	case models.NoteStatLike:
		n.Likes++
	}

	out := *n
	return &out, nil
}

func sortedNotes(rows []*models.Note) []models.Note {
	newestFirst(rows, func(n *models.Note) time.Time { return n.CreatedAt })
	out := make([]models.Note, 0, len(rows))
	for _, n := range rows {
		out = append(out, *n)
	}
	return out
}
