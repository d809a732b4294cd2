// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
)

// HashPassword は与えられたパスワードをbcryptでハッシュ化します。
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// VerifyPassword はハッシュ化されたパスワードと平文のパスワードを比較します。
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrUserNotFound   = errors.New("user not found")
)

const userColumns = "u.id, u.email, u.name, u.email_verified, u.role, u.created_at, u.updated_at"

// UserRepository は users / accounts テーブルを扱います。
type UserRepository struct {
	DB      *sql.DB
	Dialect database.Dialect
}

// NewUserRepository は新しいUserRepositoryインスタンスを作成します。
func NewUserRepository(db *sql.DB, d database.Dialect) *UserRepository {
	return &UserRepository{DB: db, Dialect: d}
}

// Create はユーザーと credential アカウントを1つのトランザクションで作成します。
func (r *UserRepository) Create(ctx context.Context, u *models.User, passwordHash string) (*models.User, error) {
	now := time.Now().UTC().Truncate(time.Second)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id, err := r.Dialect.InsertID(ctx, tx,
		"INSERT INTO users (email, name, email_verified, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.Email, u.Name, u.EmailVerified, u.Role, now, now,
	)
	if err != nil {
		if r.Dialect.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("could not insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx, r.Dialect.Rebind(
		"INSERT INTO accounts (id, account_id, provider_id, user_id, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		uuid.NewString(), strconv.FormatInt(id, 10), models.ProviderCredential, id, passwordHash, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert credential account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit user: %w", err)
	}

	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// FindCredentialByEmail はメールアドレスでユーザーとパスワードハッシュを取得します。
func (r *UserRepository) FindCredentialByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query := "SELECT " + userColumns + ", a.password FROM users u " +
		"JOIN accounts a ON a.user_id = u.id AND a.provider_id = ? WHERE u.email = ?"

	var c models.Credential
	var hash sql.NullString
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), models.ProviderCredential, email).Scan(
		&c.User.ID, &c.User.Email, &c.User.Name, &c.User.EmailVerified, &c.User.Role,
		&c.User.CreatedAt, &c.User.UpdatedAt, &hash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query credential: %w", err)
	}
	c.PasswordHash = hash.String
	normalizeUser(&c.User)
	return &c, nil
}

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users u WHERE u.email = ?", email)
}

// FindByID はIDでユーザーを検索します。
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id = ?", id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.EmailVerified, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not query user: %w", err)
	}
	normalizeUser(&u)
	return &u, nil
}

// Count は登録ユーザー数を返します。
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count users: %w", err)
	}
	return n, nil
}

// UpdatePassword は credential アカウントのパスワードハッシュを更新します。
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, newHash string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(
		"UPDATE accounts SET password = ?, updated_at = ? WHERE user_id = ? AND provider_id = ?"),
		newHash, time.Now().UTC().Truncate(time.Second), userID, models.ProviderCredential,
	)
	if err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

// UpdateRole はメールアドレスで指定したユーザーのロールを変更します。
func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(
		"UPDATE users SET role = ?, updated_at = ? WHERE email = ?"),
		role, time.Now().UTC().Truncate(time.Second), email,
	)
	if err != nil {
		return fmt.Errorf("could not update role: %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

func normalizeUser(u *models.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
}

// expectAffected は更新・削除された行が無い場合に notFound を返します。
func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
