package memory

import (
	"context"
	"slices"

	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create checks email, username and registration number against every
// stored user under the write lock, then inserts.
func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.checkUnique("", u.Email, u.Username, u.RegistrationNumber); err != nil {
		return nil, err
	}

	u.ID = s.db.newID()
	u.CreatedAt = s.db.now()
	u.Subjects = slices.Clone(u.Subjects)
	s.db.users.insert(u.ID, &u)
	return cloneUser(&u), nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneUser(s.db.users.get(id)), nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneUser(s.db.users.first(func(u *models.User) bool {
		return u.Username == username
	})), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneUser(s.db.users.first(func(u *models.User) bool {
		return u.Email == email
	})), nil
}

func (s *UserStore) GetByRegistrationNumber(ctx context.Context, regNo string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	return cloneUser(s.db.users.first(func(u *models.User) bool {
		return u.RegistrationNumber == regNo
	})), nil
}

// Update merges the patch. Changing email, username or registration number
// to a value another user holds fails with the matching sentinel and leaves
// the record untouched.
func (s *UserStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing := s.db.users.get(id)
	if existing == nil {
		return nil, nil
	}

	updated := *existing
	applyUserPatch(&updated, patch)

	if err := s.checkUnique(id, updated.Email, updated.Username, updated.RegistrationNumber); err != nil {
		return nil, err
	}

	updated.Subjects = slices.Clone(updated.Subjects)
	*existing = updated
	return cloneUser(existing), nil
}

// checkUnique must be called with the write lock held. skipID excludes the
// record being updated.
func (s *UserStore) checkUnique(skipID, email, username, regNo string) error {
	checks := []struct {
		match func(*models.User) bool
		err   error
	}{
		{func(u *models.User) bool { return u.Email == email }, repository.ErrEmailTaken},
		{func(u *models.User) bool { return u.Username == username }, repository.ErrUsernameTaken},
		{func(u *models.User) bool { return u.RegistrationNumber == regNo }, repository.ErrRegistrationNumberTaken},
	}
	for _, c := range checks {
		clash := s.db.users.first(func(u *models.User) bool {
			return u.ID != skipID && c.match(u)
		})
		if clash != nil {
			return c.err
		}
	}
	return nil
}

func applyUserPatch(u *models.User, p models.UserPatch) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.RegistrationNumber != nil {
		u.RegistrationNumber = *p.RegistrationNumber
	}
	if p.Program != nil {
		u.Program = *p.Program
	}
	if p.Year != nil {
		u.Year = *p.Year
	}
	if p.PreferredLocation != nil {
		u.PreferredLocation = *p.PreferredLocation
	}
	if p.Subjects != nil {
		u.Subjects = *p.Subjects
	}
	if p.StudyTopics != nil {
		u.StudyTopics = *p.StudyTopics
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Subjects = slices.Clone(u.Subjects)
	return &cp
}
