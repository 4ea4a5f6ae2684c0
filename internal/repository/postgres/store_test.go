package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/db"
	"github.com/lalith-99/studymate/internal/models"
	"github.com/lalith-99/studymate/internal/repository"
)

func TestUniqueConstraintErr(t *testing.T) {
	other := errors.New("connection reset")

	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, repository.ErrEmailTaken},
		{"username", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, repository.ErrUsernameTaken},
		{"registration number", &pgconn.PgError{Code: "23505", ConstraintName: "users_registration_number_key"}, repository.ErrRegistrationNumberTaken},
		{"wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), repository.ErrEmailTaken},
		{"other error", other, other},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, uniqueConstraintErr(tc.err), tc.want)
		})
	}

	unknown := &pgconn.PgError{Code: "23505", ConstraintName: "messages_pkey"}
	assert.Same(t, unknown, uniqueConstraintErr(unknown))

	notNull := &pgconn.PgError{Code: "23502", ConstraintName: "users_email_key"}
	assert.Same(t, notNull, uniqueConstraintErr(notNull))
}

// openTestStore connects to TEST_DATABASE_URL. The integration tests below
// are skipped without it.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.New(ctx, url, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx))

	_, err = database.Pool().Exec(ctx,
		`TRUNCATE users, study_buddy_requests, notes, timetables, connections, messages`)
	require.NoError(t, err)

	store := NewStore(database)
	t.Cleanup(store.Close)
	return store
}

func TestPostgresUsers(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	users := store.Users()

	alice, err := users.Create(ctx, models.User{
		Username: "alice", Email: "a@x.com", Password: "hash", FullName: "Alice",
		RegistrationNumber: "R1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, alice.Subjects)

	got, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = users.Create(ctx, models.User{
		Username: "alice", Email: "a@x.com", Password: "hash", FullName: "Bob", RegistrationNumber: "R2",
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	missing, err := users.GetByID(ctx, "not-a-uuid")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	loc := "Library"
	updated, err := users.Update(ctx, alice.ID, models.UserPatch{PreferredLocation: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Library", updated.PreferredLocation)
	assert.Equal(t, "alice", updated.Username)
}

func TestPostgresOrderingAndStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, subject := range []string{"Math", "Physics", "Math 2"} {
		r, err := store.StudyBuddies().Create(ctx, models.StudyBuddyRequest{UserID: "u", Subject: subject})
		require.NoError(t, err)
		ids = append([]string{r.ID}, ids...)
	}
	listed, err := store.StudyBuddies().List(ctx, models.StudyBuddyFilter{Subject: "MATH"})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, ids[0], listed[0].ID)

	note, err := store.Notes().Create(ctx, models.Note{Title: "T", Subject: "S", FileName: "f.pdf", FileType: "application/pdf", FilePath: "/tmp/f", UploadedBy: "u"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := store.Notes().UpdateStats(ctx, note.ID, models.NoteStatDownload)
		require.NoError(t, err)
	}
	note, err = store.Notes().UpdateStats(ctx, note.ID, models.NoteStatLike)
	require.NoError(t, err)
	assert.Equal(t, 3, note.Downloads)
	assert.Equal(t, 1, note.Likes)

	tt, err := store.Timetables().CreateIfAbsent(ctx, models.Timetable{UserID: "u", Schedule: models.Schedule{}})
	require.NoError(t, err)
	_, err = store.Timetables().CreateIfAbsent(ctx, models.Timetable{UserID: "u", Schedule: models.Schedule{}})
	assert.ErrorIs(t, err, repository.ErrTimetableExists)

	public := true
	updated, err := store.Timetables().Update(ctx, "u", models.TimetablePatch{
		Schedule: models.Schedule{"Monday": {"9:00 AM": {Subject: "Math"}}},
		IsPublic: &public,
	})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(tt.CreatedAt))
	assert.Equal(t, "Math", updated.Schedule["Monday"]["9:00 AM"].Subject)
	assert.True(t, updated.IsPublic)

	private := false
	updated, err = store.Timetables().Update(ctx, "u", models.TimetablePatch{IsPublic: &private})
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, "Math", updated.Schedule["Monday"]["9:00 AM"].Subject, "NULL schedule keeps the stored one")
}
