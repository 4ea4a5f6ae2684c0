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

const userColumns = `id, username, email, password_hash, full_name, registration_number,
		program, year, preferred_location, subjects, study_topics, profile_image, created_at`

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a user. The unique constraints make check-and-insert a
// single atomic step; a violation comes back as a repository sentinel.
func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	if u.Subjects == nil {
		u.Subjects = []string{}
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, full_name, registration_number,
			program, year, preferred_location, subjects, study_topics, profile_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		RETURNING ` + userColumns

	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(), u.Username, u.Email, u.Password, u.FullName, u.RegistrationNumber,
		u.Program, u.Year, u.PreferredLocation, u.Subjects, u.StudyTopics, u.ProfileImage,
	)
	created, err := scanUser(row)
	if err != nil {
		if sentinel := s.clash(ctx, "", &u.Email, &u.Username, &u.RegistrationNumber, err); sentinel != nil {
			return nil, sentinel
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *UserStore) GetByRegistrationNumber(ctx context.Context, regNo string) (*models.User, error) {
	return s.getBy(ctx, "registration_number", regNo)
}

// getBy is only called with fixed column names, never user input.
func (s *UserStore) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return u, nil
}

// Update applies the non-nil fields of patch. COALESCE keeps the stored value
// for every NULL (nil) argument.
func (s *UserStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	if patch.Subjects != nil && *patch.Subjects == nil {
		empty := []string{}
		patch.Subjects = &empty
	}

	query := `
		UPDATE users SET
			username            = COALESCE($2, username),
			email               = COALESCE($3, email),
			password_hash       = COALESCE($4, password_hash),
			full_name           = COALESCE($5, full_name),
			registration_number = COALESCE($6, registration_number),
			program             = COALESCE($7, program),
			year                = COALESCE($8, year),
			preferred_location  = COALESCE($9, preferred_location),
			subjects            = COALESCE($10, subjects),
			study_topics        = COALESCE($11, study_topics),
			profile_image       = COALESCE($12, profile_image)
		WHERE id = $1
		RETURNING ` + userColumns

	row := s.pool.QueryRow(ctx, query, id,
		patch.Username, patch.Email, patch.Password, patch.FullName, patch.RegistrationNumber,
		patch.Program, patch.Year, patch.PreferredLocation, patch.Subjects, patch.StudyTopics,
		patch.ProfileImage,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if sentinel := s.clash(ctx, id, patch.Email, patch.Username, patch.RegistrationNumber, err); sentinel != nil {
			return nil, sentinel
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// clash turns a unique violation into a sentinel. Postgres reports whichever
// constraint it checked first, so when several fields collide we look again
// and report email, then username, then registration number. Returns nil if
// err is not a unique violation on users.
func (s *UserStore) clash(ctx context.Context, skipID string, email, username, regNo *string, err error) error {
	mapped := uniqueConstraintErr(err)
	if !isSentinel(mapped) {
		return nil
	}

	query := `
		SELECT
			$1::text IS NOT NULL AND EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $4),
			$2::text IS NOT NULL AND EXISTS (SELECT 1 FROM users WHERE username = $2 AND id <> $4),
			$3::text IS NOT NULL AND EXISTS (SELECT 1 FROM users WHERE registration_number = $3 AND id <> $4)`

	var emailTaken, usernameTaken, regNoTaken bool
	if qerr := s.pool.QueryRow(ctx, query, email, username, regNo, skipID).
		Scan(&emailTaken, &usernameTaken, &regNoTaken); qerr != nil {
		return mapped
	}
	switch {
	case emailTaken:
		return repository.ErrEmailTaken
	case usernameTaken:
		return repository.ErrUsernameTaken
	case regNoTaken:
		return repository.ErrRegistrationNumberTaken
	}
	return mapped
}

func isSentinel(err error) bool {
	return errors.Is(err, repository.ErrEmailTaken) ||
		errors.Is(err, repository.ErrUsernameTaken) ||
		errors.Is(err, repository.ErrRegistrationNumberTaken)
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.FullName,
		&u.RegistrationNumber,
		&u.Program,
		&u.Year,
		&u.PreferredLocation,
		&u.Subjects,
		&u.StudyTopics,
		&u.ProfileImage,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
