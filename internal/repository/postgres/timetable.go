package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

const timetableColumns = `id, user_id, schedule, is_public, created_at, updated_at`

// firstTimetable picks the user's earliest timetable; nothing stops a second
// row from existing.
const firstTimetable = `(SELECT id FROM timetables WHERE user_id = $1 ORDER BY seq LIMIT 1)`

// bumpUpdatedAt keeps updated_at strictly increasing even within one
// transaction, where now() does not move.
const bumpUpdatedAt = `updated_at = GREATEST(now(), updated_at + interval '1 microsecond')`

type TimetableStore struct {
	pool *pgxpool.Pool
}

func NewTimetableStore(pool *pgxpool.Pool) *TimetableStore {
	return &TimetableStore{pool: pool}
}

const insertTimetable = `
	INSERT INTO timetables (id, user_id, schedule, is_public, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + timetableColumns

// CreateIfAbsent serialises creators of the same user's timetable on a
// transaction-scoped advisory lock, so the existence check and the insert
// cannot interleave with another request's.
func (s *TimetableStore) CreateIfAbsent(ctx context.Context, t models.Timetable) (*models.Timetable, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create timetable: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('timetable:' || $1))`, t.UserID); err != nil {
		return nil, fmt.Errorf("lock timetable owner: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM timetables WHERE user_id = $1)`, t.UserID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check timetable: %w", err)
	}
	if exists {
		return nil, repository.ErrTimetableExists
	}

	created, err := scanTimetable(tx.QueryRow(ctx, insertTimetable,
		uuid.NewString(), t.UserID, t.Schedule.Clone(), t.IsPublic,
	))
	if err != nil {
		return nil, fmt.Errorf("insert timetable: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit timetable: %w", err)
	}
	return created, nil
}

func (s *TimetableStore) GetByUser(ctx context.Context, userID string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = ` + firstTimetable

	t, err := scanTimetable(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get timetable: %w", err)
	}
	return t, nil
}

// Update writes both fields in one statement; NULL keeps the stored value.
func (s *TimetableStore) Update(ctx context.Context, userID string, patch models.TimetablePatch) (*models.Timetable, error) {
	query := `
		UPDATE timetables SET
			schedule  = COALESCE($2, schedule),
			is_public = COALESCE($3, is_public),
			` + bumpUpdatedAt + `
		WHERE id = ` + firstTimetable + `
		RETURNING ` + timetableColumns

	// Untyped nil, so pgx sends NULL rather than encoding an empty map.
	var schedule any
	if patch.Schedule != nil {
		schedule = patch.Schedule.Clone()
	}
	return s.update(ctx, "update timetable", query, userID, schedule, patch.IsPublic)
}

func (s *TimetableStore) update(ctx context.Context, op, query string, args ...any) (*models.Timetable, error) {
	t, err := scanTimetable(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func scanTimetable(row pgx.Row) (*models.Timetable, error) {
	var t models.Timetable
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Schedule,
		&t.IsPublic,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if t.Schedule == nil {
		t.Schedule = models.Schedule{}
	}
	return &t, nil
}
