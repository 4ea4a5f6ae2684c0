package memory

import (
	"context"
	"time"

	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

type TimetableStore struct {
	db *DB
}

func NewTimetableStore(db *DB) *TimetableStore {
	return &TimetableStore{db: db}
}

func (s *TimetableStore) CreateIfAbsent(ctx context.Context, t models.Timetable) (*models.Timetable, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.findByUser(t.UserID) != nil {
		return nil, repository.ErrTimetableExists
	}
	return s.insert(t), nil
}

// GetByUser returns the first timetable created for the user.
func (s *TimetableStore) GetByUser(ctx context.Context, userID string) (*models.Timetable, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneTimetable(s.findByUser(userID)), nil
}

func (s *TimetableStore) Update(ctx context.Context, userID string, patch models.TimetablePatch) (*models.Timetable, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t := s.findByUser(userID)
	if t == nil {
		return nil, nil
	}
	if patch.Schedule != nil {
		t.Schedule = patch.Schedule.Clone()
	}
	if patch.IsPublic != nil {
		t.IsPublic = *patch.IsPublic
	}
	s.touch(t)
	return cloneTimetable(t), nil
}

// insert stores t under a fresh id. Caller holds the write lock.
func (s *TimetableStore) insert(t models.Timetable) *models.Timetable {
	t.ID = s.db.newID()
	t.Schedule = t.Schedule.Clone()
	t.CreatedAt = s.db.now()
	t.UpdatedAt = t.CreatedAt
	s.db.timetables.insert(t.ID, &t)
	return cloneTimetable(&t)
}

func (s *TimetableStore) findByUser(userID string) *models.Timetable {
	return s.db.timetables.first(func(t *models.Timetable) bool {
		return t.UserID == userID
	})
}

// touch moves UpdatedAt strictly forward even when the clock has not
// advanced since the last write.
func (s *TimetableStore) touch(t *models.Timetable) {
	now := s.db.now()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

func cloneTimetable(t *models.Timetable) *models.Timetable {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Schedule = t.Schedule.Clone()
	return &cp
}
