// Package services はユーザー・セッション・Todoのビジネスロジックを提供します。
package services

import (
	"context"
	"time"

	"todo-board/backend/internal/models"
)

// UserStore はユーザーとcredentialアカウントの永続化を行います。
type UserStore interface {
	Create(ctx context.Context, u *models.User, passwordHash string) (*models.User, error)
	FindCredentialByEmail(ctx context.Context, email string) (*models.Credential, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	UpdatePassword(ctx context.Context, userID int64, newHash string) error
}

// SessionStore はログインセッションの永続化を行います。
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	FindPrincipalByToken(ctx context.Context, token string, now time.Time) (*models.Principal, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// VerificationStore はパスワードリセットトークン等の永続化を行います。
type VerificationStore interface {
	Save(ctx context.Context, v *models.Verification) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.Verification, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TodoStore はTodoの永続化を行います。すべての操作は所有者で絞り込まれます。
type TodoStore interface {
	Create(ctx context.Context, t *models.Todo) (*models.Todo, error)
	FindByUserID(ctx context.Context, userID int64) ([]*models.Todo, error)
	FindByIDForUser(ctx context.Context, id, userID int64) (*models.Todo, error)
	Replace(ctx context.Context, t *models.Todo) (*models.Todo, error)
	Patch(ctx context.Context, id, userID int64, p *models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id, userID int64) error
}
