package models

import "time"

// ロール
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ProviderCredential はメールアドレスとパスワードによるアカウントのプロバイダIDです。
const ProviderCredential = "credential"

// User はユーザーのデータベース構造体を表します。
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Account はユーザーと認証プロバイダの紐付けです。
// credential プロバイダの場合のみ PasswordHash を持ちます。
type Account struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"accountId"`
	ProviderID   string    `json:"providerId"`
	UserID       int64     `json:"userId"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credential はログイン時の照合に使うユーザーとパスワードハッシュの組です。
type Credential struct {
	User         User
	PasswordHash string
}

// Session はログインセッションです。
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Verification はメール確認やパスワードリセットに使う一時的なレコードです。
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Principal はセッションから解決された呼び出し元です。
type Principal struct {
	UserID    int64
	Role      string
	SessionID string
}

// IsAdmin は管理者ロールかどうかを返します。
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UserSummary はレスポンスに含めるユーザー情報です。
type UserSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Summary は User から UserSummary を作ります。
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Role: u.Role}
}

// SignupRequest はユーザー登録リクエストの構造体です。
type SignupRequest struct {
	Email    string `json:"email" binding:"required,max=255,email"`
	Password string `json:"password" binding:"required,min=6,maxbytes=72"`
}

// LoginRequest はログインリクエストの構造体です。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=255,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,max=255,email"`
}

// ResetPasswordRequest は新しいパスワードです。bcrypt は72バイトまでしか扱えません。
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,maxbytes=72"`
}

// MeResponse は /me のレスポンスです。
type MeResponse struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// UserCount は管理者向けのユーザー数レスポンスです。
type UserCount struct {
	TotalUsers int64 `json:"totalUsers"`
}
