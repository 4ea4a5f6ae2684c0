package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/studymate/internal/db"
	"github.com/lalith-99/studymate/internal/repository"
)

// Store bundles the per-table stores over one pool.
type Store struct {
	database *db.DB
	pool     *pgxpool.Pool
}

func NewStore(database *db.DB) *Store {
	return &Store{database: database, pool: database.Pool()}
}

func (s *Store) Users() repository.UserRepository { return NewUserStore(s.pool) }
func (s *Store) StudyBuddies() repository.StudyBuddyRepository { return NewStudyBuddyStore(s.pool) }
func (s *Store) Notes() repository.NoteRepository { return NewNoteStore(s.pool) }
func (s *Store) Timetables() repository.TimetableRepository { return NewTimetableStore(s.pool) }
func (s *Store) Connections() repository.ConnectionRepository { return NewConnectionStore(s.pool) }
func (s *Store) Messages() repository.MessageRepository { return NewMessageStore(s.pool) }

// Health pings the pool. /v1/health turns a failure into a 503 so a load
// balancer stops routing to an instance that lost its database.
func (s *Store) Health(ctx context.Context) error {
	return s.database.Health(ctx)
}

func (s *Store) Close() {
	s.database.Close()
}

var _ repository.Store = (*Store)(nil)

const uniqueViolation = "23505"

// uniqueConstraintErr maps a unique_violation on one of the users
// constraints to its sentinel. Anything else comes back unchanged.
func uniqueConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return repository.ErrEmailTaken
	case "users_username_key":
		return repository.ErrUsernameTaken
	case "users_registration_number_key":
		return repository.ErrRegistrationNumberTaken
	}
	return err
}
