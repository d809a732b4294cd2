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

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository は sessions テーブルを扱います。
type SessionRepository struct {
	DB      *sql.DB
	Dialect database.Dialect
}

func NewSessionRepository(db *sql.DB, d database.Dialect) *SessionRepository {
	return &SessionRepository{DB: db, Dialect: d}
}

// Create はセッションを保存します。
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(
		"INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		s.ID, s.Token, s.UserID, s.ExpiresAt, s.IPAddress, s.UserAgent, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("could not insert session: %w", err)
	}
	return nil
}

// FindPrincipalByToken は有効期限内のセッションを検索し、ユーザーIDと現在のロールを返します。
func (r *SessionRepository) FindPrincipalByToken(ctx context.Context, token string, now time.Time) (*models.Principal, error) {
	query := "SELECT s.id, s.user_id, u.role FROM sessions s JOIN users u ON u.id = s.user_id " +
		"WHERE s.token = ? AND s.expires_at > ?"

	var p models.Principal
	err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), token, now).Scan(&p.SessionID, &p.UserID, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}
	return &p, nil
}

// DeleteByToken はセッションを削除します。存在しない場合もエラーにしません。
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM sessions WHERE token = ?"), token); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全セッションを削除し、削除件数を返します。
func (r *SessionRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM sessions WHERE user_id = ?"), userID)
	if err != nil {
		return 0, fmt.Errorf("could not delete user sessions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteExpired は期限切れのセッションを削除します。
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM sessions WHERE expires_at <= ?"), now)
	if err != nil {
		return 0, fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
