package memory

import (
	"context"
	"strings"
	"time"

	"github.com/lalith-99/studymate/internal/models"
)

type StudyBuddyStore struct {
	db *DB
}

func NewStudyBuddyStore(db *DB) *StudyBuddyStore {
	return &StudyBuddyStore{db: db}
}

func (s *StudyBuddyStore) Create(ctx context.Context, r models.StudyBuddyRequest) (*models.StudyBuddyRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r.ID = s.db.newID()
	r.IsActive = true
	r.CreatedAt = s.db.now()
	s.db.studyBuddies.insert(r.ID, &r)

	out := r
	return &out, nil
}

func (s *StudyBuddyStore) GetByID(ctx context.Context, id string) (*models.StudyBuddyRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	r := s.db.studyBuddies.get(id)
	if r == nil {
		return nil, nil
	}
	out := *r
	return &out, nil
}

// List applies every non-empty filter as a case-insensitive substring match
// and hides inactive requests unless f.IncludeInactive is set.
func (s *StudyBuddyStore) List(ctx context.Context, f models.StudyBuddyFilter) ([]models.StudyBuddyRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.studyBuddies.scan(func(r *models.StudyBuddyRequest) bool {
		if !r.IsActive && !f.IncludeInactive {
			return false
		}
		return containsFold(r.Subject, f.Subject) &&
			containsFold(r.Topic, f.Topic) &&
			containsFold(r.Location, f.Location)
	})
	return sortedStudyBuddies(rows), nil
}

// ListByUser includes inactive requests; it is the owner's own history.
func (s *StudyBuddyStore) ListByUser(ctx context.Context, userID string) ([]models.StudyBuddyRequest, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := s.db.studyBuddies.scan(func(r *models.StudyBuddyRequest) bool {
		return r.UserID == userID
	})
	return sortedStudyBuddies(rows), nil
}

func (s *StudyBuddyStore) Update(ctx context.Context, id string, patch models.StudyBuddyPatch) (*models.StudyBuddyRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r := s.db.studyBuddies.get(id)
	if r == nil {
		return nil, nil
	}
	if patch.Subject != nil {
		r.Subject = *patch.Subject
	}
	if patch.Topic != nil {
		r.Topic = *patch.Topic
	}
	if patch.Location != nil {
		r.Location = *patch.Location
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.IsActive != nil {
		r.IsActive = *patch.IsActive
	}

	out := *r
	return &out, nil
}

func sortedStudyBuddies(rows []*models.StudyBuddyRequest) []models.StudyBuddyRequest {
	newestFirst(rows, func(r *models.StudyBuddyRequest) time.Time { return r.CreatedAt })
	out := make([]models.StudyBuddyRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out
}

// containsFold reports whether substr occurs in s ignoring case. An empty
// substr always matches, which is what "filter not supplied" means.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
