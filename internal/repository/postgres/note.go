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

const noteColumns = `id, title, subject, description, file_name, file_type, file_size, file_path,
		uploaded_by, downloads, likes, created_at`

type NoteStore struct {
	pool *pgxpool.Pool
}

func NewNoteStore(pool *pgxpool.Pool) *NoteStore {
	return &NoteStore{pool: pool}
}

func (s *NoteStore) Create(ctx context.Context, n models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (id, title, subject, description, file_name, file_type, file_size, file_path,
			uploaded_by, downloads, likes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, now())
		RETURNING ` + noteColumns

	created, err := scanNote(s.pool.QueryRow(ctx, query,
		uuid.NewString(), n.Title, n.Subject, n.Description, n.FileName, n.FileType, n.FileSize,
		n.FilePath, n.UploadedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return created, nil
}

func (s *NoteStore) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	n, err := scanNote(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *NoteStore) List(ctx context.Context, f models.NoteFilter) ([]models.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE strpos(lower(subject), lower($1)) > 0
			AND strpos(lower(title), lower($2)) > 0
		ORDER BY created_at DESC, seq ASC`

	return s.list(ctx, query, f.Subject, f.Title)
}

func (s *NoteStore) ListByUploader(ctx context.Context, userID string) ([]models.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE uploaded_by = $1
		ORDER BY created_at DESC, seq ASC`

	return s.list(ctx, query, userID)
}

// UpdateStats increments in SQL, so concurrent calls never lose an update.
func (s *NoteStore) UpdateStats(ctx context.Context, id string, stat models.NoteStat) (*models.Note, error) {
	var query string
	switch stat {
	case models.NoteStatDownload:
		query = `UPDATE notes SET downloads = downloads + 1 WHERE id = $1 RETURNING ` + noteColumns
	case models.NoteStatLike:
		query = `UPDATE notes SET likes = likes + 1 WHERE id = $1 RETURNING ` + noteColumns
	default:
		return nil, fmt.Errorf("update note stats: unknown stat %q", stat)
	}

	n, err := scanNote(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update note stats: %w", err)
	}
	return n, nil
}

func (s *NoteStore) list(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Subject,
		&n.Description,
		&n.FileName,
		&n.FileType,
		&n.FileSize,
		&n.FilePath,
		&n.UploadedBy,
		&n.Downloads,
		&n.Likes,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
