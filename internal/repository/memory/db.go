package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

// DB holds every collection behind one RWMutex. Each public store method
// takes the lock exactly once, so a reader never sees half of a write and
// "check uniqueness, then insert" cannot interleave with another writer.
//
// DB is the in-memory counterpart of db.DB + pgxpool: the per-entity stores
// (UserStore, NoteStore, ...) all share it the way the Postgres stores share
// one pool.
type DB struct {
	mu sync.RWMutex

	now   func() time.Time
	newID func() string

	users        *table[models.User]
	studyBuddies *table[models.StudyBuddyRequest]
	notes        *table[models.Note]
	timetables   *table[models.Timetable]
	connections  *table[models.Connection]
	messages     *table[models.Message]
}

type Option func(*DB)

// WithClock replaces time.Now. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(db *DB) { db.newID = newID }
}

func New(opts ...Option) *DB {
	db := &DB{
		now:          time.Now,
		newID:        uuid.NewString,
		users:        newTable[models.User](),
		studyBuddies: newTable[models.StudyBuddyRequest](),
		notes:        newTable[models.Note](),
		timetables:   newTable[models.Timetable](),
		connections:  newTable[models.Connection](),
		messages:     newTable[models.Message](),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *DB) Users() repository.UserRepository { return NewUserStore(db) }
func (db *DB) StudyBuddies() repository.StudyBuddyRepository { return NewStudyBuddyStore(db) }
func (db *DB) Notes() repository.NoteRepository { return NewNoteStore(db) }
func (db *DB) Timetables() repository.TimetableRepository { return NewTimetableStore(db) }
func (db *DB) Connections() repository.ConnectionRepository { return NewConnectionStore(db) }
func (db *DB) Messages() repository.MessageRepository { return NewMessageStore(db) }

// Close is a no-op; there is nothing to release.
func (db *DB) Close() {}

// Health always succeeds; there is nothing to lose a connection to.
func (db *DB) Health(ctx context.Context) error { return nil }

var _ repository.Store = (*DB)(nil)

// table keeps rows by id plus the order they were inserted in. Scans walk
// the insertion order, so a stable sort by createdAt breaks ties
// deterministically.
type table[T any] struct {
	order []string
	rows  map[string]*T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) insert(id string, row *T) {
	t.order = append(t.order, id)
	t.rows[id] = row
}

func (t *table[T]) get(id string) *T {
	return t.rows[id]
}

// scan returns matching rows in insertion order. A nil keep matches all.
func (t *table[T]) scan(keep func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// first returns the first row (in insertion order) that matches.
func (t *table[T]) first(keep func(*T) bool) *T {
	for _, id := range t.order {
		if row := t.rows[id]; keep(row) {
			return row
		}
	}
	return nil
}

// newestFirst sorts by createdAt descending; equal timestamps keep their
// incoming (insertion) order.
func newestFirst[T any](rows []*T, createdAt func(*T) time.Time) {
	slices.SortStableFunc(rows, func(a, b *T) int {
		return createdAt(b).Compare(createdAt(a))
	})
}

func oldestFirst[T any](rows []*T, createdAt func(*T) time.Time) {
	slices.SortStableFunc(rows, func(a, b *T) int {
		return createdAt(a).Compare(createdAt(b))
	})
}
