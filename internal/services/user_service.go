package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials はメールアドレスまたはパスワードが一致しない場合のエラーです。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken はリセットトークンが存在しないか期限切れの場合のエラーです。
	ErrInvalidResetToken = errors.New("invalid or expired token")
)

const resetIdentifierPrefix = "reset-password:"

// ResetConfig はパスワードリセットの設定です。
type ResetConfig struct {
	AppURL string
	TTL    time.Duration
}

// UserService はユーザー関連のビジネスロジックを扱います。
type UserService struct {
	users         UserStore
	sessions      SessionStore
	verifications VerificationStore
	mailer        Mailer
	reset         ResetConfig
	log           *zap.Logger
	now           func() time.Time
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(users UserStore, sessions SessionStore, verifications VerificationStore, mailer Mailer, reset ResetConfig, log *zap.Logger) *UserService {
	return &UserService{
		users:         users,
		sessions:      sessions,
		verifications: verifications,
		mailer:        mailer,
		reset:         reset,
		log:           log,
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser はユーザーを role=user で登録します。ログインは行いません。
func (s *UserService) RegisterUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	hashedPassword, err := repositories.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		Email: normalizeEmail(req.Email),
		Role:  models.RoleUser,
	}
	created, err := s.users.Create(ctx, newUser, hashedPassword)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", created.ID))
	return created, nil
}

// AuthenticateUser はメールアドレスとパスワードを照合し、成功したらユーザーを返します。
func (s *UserService) AuthenticateUser(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	cred, err := s.users.FindCredentialByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if cred.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := repositories.VerifyPassword(cred.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &cred.User, nil
}

// CountUsers は登録ユーザー数を返します。
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// ForgotPasswordUser はリセット用トークンを発行し、メールで送信します。
// ユーザーが存在しない場合も成功として扱います。
func (s *UserService) ForgotPasswordUser(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.log.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	v := &models.Verification{
		ID:         uuid.NewString(),
		Identifier: resetIdentifierPrefix + token,
		Value:      strconv.FormatInt(user.ID, 10),
		ExpiresAt:  now.Add(s.reset.TTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.verifications.Save(ctx, v); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.reset.AppURL, "/"), token)
	body := fmt.Sprintf("Use the link below to set a new password.\r\n%s\r\nThe link expires in %s.", resetURL, s.reset.TTL)
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		// トークンは保存済みなので、送信失敗はログのみ
		s.log.Warn("failed to send reset email", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPasswordUser はトークンを使ってパスワードを更新し、既存のセッションをすべて破棄します。
func (s *UserService) ResetPasswordUser(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	v, err := s.verifications.FindByIdentifier(ctx, resetIdentifierPrefix+token)
	if err != nil {
		if errors.Is(err, repositories.ErrVerificationNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !s.now().Before(v.ExpiresAt) {
		if err := s.verifications.Delete(ctx, v.ID); err != nil {
			s.log.Warn("failed to delete expired reset token", zap.Error(err))
		}
		return ErrInvalidResetToken
	}

	userID, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return ErrInvalidResetToken
	}

	hashedPassword, err := repositories.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.verifications.Delete(ctx, v.ID); err != nil {
		s.log.Warn("failed to delete used reset token", zap.Error(err))
	}
	revoked, err := s.sessions.DeleteByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.log.Info("password reset", zap.Int64("user_id", userID), zap.Int64("revoked_sessions", revoked))
	return nil
}

// PurgeExpiredVerifications は期限切れのリセットトークン等を削除します。
func (s *UserService) PurgeExpiredVerifications(ctx context.Context) (int64, error) {
	return s.verifications.DeleteExpired(ctx, s.now())
}
