package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/studymate/internal/models"
)

const studyBuddyColumns = `id, user_id, subject, topic, location, description, is_active, created_at`

type StudyBuddyStore struct {
	pool *pgxpool.Pool
}

func NewStudyBuddyStore(pool *pgxpool.Pool) *StudyBuddyStore {
	return &StudyBuddyStore{pool: pool}
}

func (s *StudyBuddyStore) Create(ctx context.Context, r models.StudyBuddyRequest) (*models.StudyBuddyRequest, error) {
	query := `
		INSERT INTO study_buddy_requests (id, user_id, subject, topic, location, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now())
		RETURNING ` + studyBuddyColumns

	created, err := scanStudyBuddy(s.pool.QueryRow(ctx, query,
		uuid.NewString(), r.UserID, r.Subject, r.Topic, r.Location, r.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("insert study buddy request: %w", err)
	}
	return created, nil
}

func (s *StudyBuddyStore) GetByID(ctx context.Context, id string) (*models.StudyBuddyRequest, error) {
	query := `SELECT ` + studyBuddyColumns + ` FROM study_buddy_requests WHERE id = $1`

	r, err := scanStudyBuddy(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get study buddy request: %w", err)
	}
	return r, nil
}

// List uses strpos on lowered text rather than ILIKE so '%' and '_' in a
// filter match literally. strpos(x, '') is 1, so empty filters match all.
func (s *StudyBuddyStore) List(ctx context.Context, f models.StudyBuddyFilter) ([]models.StudyBuddyRequest, error) {
	query := `
		SELECT ` + studyBuddyColumns + `
		FROM study_buddy_requests
		WHERE ($1 OR is_active)
			AND strpos(lower(subject), lower($2)) > 0
			AND strpos(lower(topic), lower($3)) > 0
			AND strpos(lower(location), lower($4)) > 0
		ORDER BY created_at DESC, seq ASC`

	return s.list(ctx, query, f.IncludeInactive, f.Subject, f.Topic, f.Location)
}

func (s *StudyBuddyStore) ListByUser(ctx context.Context, userID string) ([]models.StudyBuddyRequest, error) {
	query := `
		SELECT ` + studyBuddyColumns + `
		FROM study_buddy_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, seq ASC`

	return s.list(ctx, query, userID)
}

func (s *StudyBuddyStore) Update(ctx context.Context, id string, patch models.StudyBuddyPatch) (*models.StudyBuddyRequest, error) {
	query := `
		UPDATE study_buddy_requests SET
			subject     = COALESCE($2, subject),
			topic       = COALESCE($3, topic),
			location    = COALESCE($4, location),
			description = COALESCE($5, description),
			is_active   = COALESCE($6, is_active)
		WHERE id = $1
		RETURNING ` + studyBuddyColumns

	r, err := scanStudyBuddy(s.pool.QueryRow(ctx, query, id,
		patch.Subject, patch.Topic, patch.Location, patch.Description, patch.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update study buddy request: %w", err)
	}
	return r, nil
}

func (s *StudyBuddyStore) list(ctx context.Context, query string, args ...any) ([]models.StudyBuddyRequest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list study buddy requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.StudyBuddyRequest, 0)
	for rows.Next() {
		r, err := scanStudyBuddy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study buddy request: %w", err)
		}
		requests = append(requests, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study buddy requests: %w", err)
	}
	return requests, nil
}

func scanStudyBuddy(row pgx.Row) (*models.StudyBuddyRequest, error) {
	var r models.StudyBuddyRequest
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Subject,
		&r.Topic,
		&r.Location,
		&r.Description,
		&r.IsActive,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
