package repository

import (
	"context"
	"errors"

	"github.com/lalith-99/studymate/internal/models"
)

// Every lookup addressed by id or owner returns (nil, nil) when nothing
// matches. "Not found" is a normal result, not an error. The only errors a
// repository returns on valid input are the uniqueness sentinels below and
// backend failures (connection lost, etc.).
//
// List methods return an empty slice, never nil, so JSON encodes [] not null.
// Ordering is createdAt descending with insertion order breaking ties, except
// MessageRepository.ListBetween which is ascending.

var (
	ErrEmailTaken              = errors.New("user already exists with this email")
	ErrUsernameTaken           = errors.New("username already taken")
	ErrRegistrationNumberTaken = errors.New("registration number already registered")

	ErrTimetableExists = errors.New("timetable already exists")
)

// UserRepository stores accounts. Create and Update check uniqueness of
// email, username and registration number and write in one atomic step.
type UserRepository interface {
	Create(ctx context.Context, u models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRegistrationNumber(ctx context.Context, regNo string) (*models.User, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
}

// StudyBuddyRepository stores study-partner requests. Requests are never
// deleted; set IsActive=false to hide one.
type StudyBuddyRepository interface {
	// Create sets IsActive=true regardless of the input.
	Create(ctx context.Context, r models.StudyBuddyRequest) (*models.StudyBuddyRequest, error)
	GetByID(ctx context.Context, id string) (*models.StudyBuddyRequest, error)
	List(ctx context.Context, f models.StudyBuddyFilter) ([]models.StudyBuddyRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.StudyBuddyRequest, error)
	Update(ctx context.Context, id string, patch models.StudyBuddyPatch) (*models.StudyBuddyRequest, error)
}

type NoteRepository interface {
	// Create zeroes Downloads and Likes.
	Create(ctx context.Context, n models.Note) (*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	List(ctx context.Context, f models.NoteFilter) ([]models.Note, error)
	ListByUploader(ctx context.Context, userID string) ([]models.Note, error)

	// UpdateStats adds exactly one to the selected counter.
	UpdateStats(ctx context.Context, id string, stat models.NoteStat) (*models.Note, error)
}

// TimetableRepository addresses timetables by owner, one per user.
type TimetableRepository interface {
	// CreateIfAbsent stores t with UpdatedAt = CreatedAt unless its owner
	// already has a timetable, in which case it returns ErrTimetableExists.
	// Concurrent calls for the same owner create at most one.
	CreateIfAbsent(ctx context.Context, t models.Timetable) (*models.Timetable, error)
	GetByUser(ctx context.Context, userID string) (*models.Timetable, error)

	// Update applies the patch in one write and moves UpdatedAt forward, so
	// readers never see a new schedule with the old visibility. Returns
	// nil, nil if the user has no timetable yet.
	Update(ctx context.Context, userID string, patch models.TimetablePatch) (*models.Timetable, error)
}

type ConnectionRepository interface {
	// Create defaults an empty Status to pending.
	Create(ctx context.Context, c models.Connection) (*models.Connection, error)
	GetByID(ctx context.Context, id string) (*models.Connection, error)

	// ListByUser returns connections where userID is requester or receiver.
	ListByUser(ctx context.Context, userID string) ([]models.Connection, error)
	UpdateStatus(ctx context.Context, id string, status models.ConnectionStatus) (*models.Connection, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m models.Message) (*models.Message, error)

	// ListBetween returns messages in both directions, oldest first.
	ListBetween(ctx context.Context, userA, userB string) ([]models.Message, error)
}

// Store is the full capability set. Both the in-memory backend and the
// Postgres backend implement it, so handlers never see which one is running.
type Store interface {
	Users() UserRepository
	StudyBuddies() StudyBuddyRepository
	Notes() NoteRepository
	Timetables() TimetableRepository
	Connections() ConnectionRepository
	Messages() MessageRepository

	// Health reports whether the backend can serve requests right now.
	Health(ctx context.Context) error
	Close()
}
