package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
)

// ErrInvalidSession はCookieが無い・改ざんされている・期限切れ・ログアウト済みの場合のエラーです。
var ErrInvalidSession = errors.New("invalid or expired session")

const (
	maxUserAgentLen = 512
	maxIPLen        = 64
)

// IssuedSession は新しく発行したセッションとCookieの値です。
type IssuedSession struct {
	Session *models.Session
	Cookie  string
}

// SessionService はセッションの発行・解決・破棄を扱います。
type SessionService struct {
	sessions SessionStore
	jwt      *JWTService
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionService は新しいSessionServiceを作成します。
func NewSessionService(sessions SessionStore, jwtService *JWTService, ttl time.Duration) *SessionService {
	return &SessionService{
		sessions: sessions,
		jwt:      jwtService,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// TTL はセッションの有効期間を返します。
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue はユーザーの新しいセッションを作成し、署名済みのCookie値を返します。
func (s *SessionService) Issue(ctx context.Context, user *models.User, ipAddress, userAgent string) (*IssuedSession, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: truncate(ipAddress, maxIPLen),
		UserAgent: truncate(userAgent, maxUserAgentLen),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	cookie, err := s.jwt.GenerateToken(token, user.ID, now, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &IssuedSession{Session: session, Cookie: cookie}, nil
}

// Resolve はCookie値からユーザーIDとロールを解決します。
func (s *SessionService) Resolve(ctx context.Context, cookie string) (*models.Principal, error) {
	if cookie == "" {
		return nil, ErrInvalidSession
	}
	token, err := s.jwt.ValidateToken(cookie)
	if err != nil {
		return nil, ErrInvalidSession
	}
	principal, err := s.sessions.FindPrincipalByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return principal, nil
}

// Revoke はCookieが指すセッションを削除します。無効なCookieは何もせず成功扱いにします。
func (s *SessionService) Revoke(ctx context.Context, cookie string) error {
	if cookie == "" {
		return nil
	}
	token, err := s.jwt.ValidateToken(cookie)
	if err != nil {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

// PurgeExpired は期限切れのセッションを削除します。
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// generateToken は32バイトのランダムなトークンを16進文字列で返します。
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
