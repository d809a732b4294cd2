package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
)

func setupMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to open sqlmock database")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		db.Close()
	})
	return db, mock
}

var userRowColumns = []string{"id", "email", "name", "email_verified", "role", "created_at", "updated_at"}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.NoError(t, VerifyPassword(hash, "secret1"))
	assert.Error(t, VerifyPassword(hash, "secret2"))
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, name, email_verified, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)")).
		WithArgs("a@x.com", "", false, models.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (id, account_id, provider_id, user_id, password, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "5", models.ProviderCredential, int64(5), "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", Role: models.RoleUser}, "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", Role: models.RoleUser}, "hash")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_Create_AccountFailureRollsBack(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", Role: models.RoleUser}, "hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_FindCredentialByEmail(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN accounts a ON a.user_id = u.id AND a.provider_id = ? WHERE u.email = ?")).
		WithArgs(models.ProviderCredential, "a@x.com").
		WillReturnRows(sqlmock.NewRows(append(userRowColumns, "password")).
			AddRow(1, "a@x.com", "", false, "admin", now, now, "hash"))

	c, err := repo.FindCredentialByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.User.ID)
	assert.Equal(t, "admin", c.User.Role)
	assert.Equal(t, "hash", c.PasswordHash)
}

func TestUserRepository_FindCredentialByEmail_NotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u JOIN accounts")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindCredentialByEmail(context.Background(), "missing@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_FindByID_Postgres(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.Postgres)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users u WHERE u.id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, "c@x.com", "", true, "user", now, now))

	u, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", u.Email)
	assert.True(t, u.EmailVerified)
}

func TestUserRepository_Count(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestUserRepository_UpdatePassword_NotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET password = ?, updated_at = ? WHERE user_id = ? AND provider_id = ?")).
		WithArgs("newhash", sqlmock.AnyArg(), int64(9), models.ProviderCredential).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), 9, "newhash")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_UpdateRole(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepository(db, database.MySQL)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = ?, updated_at = ? WHERE email = ?")).
		WithArgs(models.RoleAdmin, sqlmock.AnyArg(), "a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateRole(context.Background(), "a@x.com", models.RoleAdmin))
}
