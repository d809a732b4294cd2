package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
)

var ErrVerificationNotFound = errors.New("verification not found")

// VerificationRepository は verifications テーブル (パスワードリセットトークン等) を扱います。
type VerificationRepository struct {
	DB      *sql.DB
	Dialect database.Dialect
}

func NewVerificationRepository(db *sql.DB, d database.Dialect) *VerificationRepository {
	return &VerificationRepository{DB: db, Dialect: d}
}

func (r *VerificationRepository) Save(ctx context.Context, v *models.Verification) error {
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(
		"INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"),
		v.ID, v.Identifier, v.Value, v.ExpiresAt, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert verification: %w", err)
	}
	return nil
}

// FindByIdentifier は identifier に一致する最新のレコードを返します。
func (r *VerificationRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Verification, error) {
	query := "SELECT id, identifier, value, expires_at, created_at, updated_at FROM verifications " +
		"WHERE identifier = ? ORDER BY created_at DESC LIMIT 1"

	var v models.Verification
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), identifier).Scan(
		&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("could not query verification: %w", err)
	}
	v.ExpiresAt = v.ExpiresAt.UTC()
	return &v, nil
}

// Delete は使用済みのレコードを削除します。
func (r *VerificationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM verifications WHERE id = ?"), id); err != nil {
		return fmt.Errorf("could not delete verification: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れのレコードを削除します。
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM verifications WHERE expires_at <= ?"), now)
	if err != nil {
		return 0, fmt.Errorf("could not delete expired verifications: %w", err)
	}
	return res.RowsAffected()
}
