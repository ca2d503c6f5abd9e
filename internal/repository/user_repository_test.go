package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	externalID := "local_abc"
	user := &models.User{
		ExternalID: &externalID,
		Username:   "jane_abc",
		Email:      "jane@example.com",
		FirstName:  "Jane",
		LastName:   "Doe",
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane_abc", byID.Username)

	byExternal, err := repo.FindByExternalID(ctx, externalID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byExternal.ID)

	byEmail, err := repo.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.FindByUsername(ctx, "jane_abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByID(ctx, "42")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "one", Email: "same@example.com"}))
	err := repo.Create(ctx, &models.User{Username: "two", Email: "same@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestUserRepository_ListByRole(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "alice", models.RoleUser)
	testutil.CreateUser(t, db, "root", models.RoleAdmin)
	testutil.CreateUser(t, db, "bob", models.RoleUser)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	role := models.RoleUser
	users, err := repo.List(ctx, &role)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, models.RoleUser, u.Role)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "carol", models.RoleUser)
	user.Bio = "Likes jazz"
	user.SocialLinks = map[string]string{"twitter": "@carol"}
	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Likes jazz", found.Bio)
	assert.Equal(t, "@carol", found.SocialLinks["twitter"])

	ghost := &models.User{ID: "00000000-0000-0000-0000-000000000000", Username: "ghost", Email: "ghost@example.com"}
	assert.ErrorIs(t, repo.Update(ctx, ghost), repository.ErrNotFound)
}

func TestUserRepository_DeleteRemovesParticipation(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	user := testutil.CreateUser(t, db, "dave", models.RoleUser)
	event := testutil.CreateEvent(t, db, "Gig", admin.ID, models.CategoryMusic, time.Now().Add(24*time.Hour), 10)
	testutil.SignUp(t, db, event.ID, user.ID)

	require.NoError(t, repo.Delete(ctx, user.ID))

	var count int64
	db.Model(&models.EventParticipant{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)

	_, err := repo.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), repository.ErrNotFound)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepository_PostgresErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))
	_, err := repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnError(boom)
	_, err = repo.FindByUsername(ctx, "anyone")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
