package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
)

// Memory はリポジトリのインメモリ実装です。データベース無しでルーターやサービスをテストするために使います。
type Memory struct {
	mu            sync.Mutex
	nextUserID    int64
	nextTodoID    int64
	users         map[int64]*models.User
	passwords     map[int64]string
	sessions      map[string]*models.Session
	verifications map[string]*models.Verification
	todos         map[int64]*models.Todo

	// PingErr が設定されている場合、PingContext はそのエラーを返します。
	PingErr error
}

// NewMemory は空のMemoryを作成します。
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[int64]*models.User),
		passwords:     make(map[int64]string),
		sessions:      make(map[string]*models.Session),
		verifications: make(map[string]*models.Verification),
		todos:         make(map[int64]*models.Todo),
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// PingContext は handlers.Pinger を満たします。
func (m *Memory) PingContext(context.Context) error {
	return m.PingErr
}

func (m *Memory) Users() *MemoryUsers                 { return &MemoryUsers{m} }
func (m *Memory) Sessions() *MemorySessions           { return &MemorySessions{m} }
func (m *Memory) Verifications() *MemoryVerifications { return &MemoryVerifications{m} }
func (m *Memory) Todos() *MemoryTodos                 { return &MemoryTodos{m} }

// SetRole はメールアドレスで指定したユーザーのロールを変更します。
func (m *Memory) SetRole(email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.Role = role
			return nil
		}
	}
	return repositories.ErrUserNotFound
}

// SessionCount はユーザーの有効なセッション数を返します。
func (m *Memory) SessionCount(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// ExpireVerifications はすべてのリセットトークンを期限切れにします。
func (m *Memory) ExpireVerifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.verifications {
		v.ExpiresAt = now().Add(-time.Minute)
	}
}

// MemoryUsers は services.UserStore のインメモリ実装です。
type MemoryUsers struct{ m *Memory }

func (r *MemoryUsers) Create(_ context.Context, u *models.User, passwordHash string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return nil, repositories.ErrDuplicateEmail
		}
	}
	r.m.nextUserID++
	t := now()
	u.ID = r.m.nextUserID
	u.CreatedAt = t
	u.UpdatedAt = t
	stored := *u
	r.m.users[u.ID] = &stored
	r.m.passwords[u.ID] = passwordHash
	return u, nil
}

func (r *MemoryUsers) FindCredentialByEmail(_ context.Context, email string) (*models.Credential, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return &models.Credential{User: *u, PasswordHash: r.m.passwords[u.ID]}, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *MemoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *MemoryUsers) Count(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.users)), nil
}

func (r *MemoryUsers) UpdatePassword(_ context.Context, userID int64, newHash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[userID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.m.passwords[userID] = newHash
	return nil
}

// MemorySessions は services.SessionStore のインメモリ実装です。
type MemorySessions struct{ m *Memory }

func (r *MemorySessions) Create(_ context.Context, s *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *s
	r.m.sessions[s.Token] = &stored
	return nil
}

func (r *MemorySessions) FindPrincipalByToken(_ context.Context, token string, at time.Time) (*models.Principal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[token]
	if !ok || !s.ExpiresAt.After(at) {
		return nil, repositories.ErrSessionNotFound
	}
	u, ok := r.m.users[s.UserID]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	return &models.Principal{UserID: u.ID, Role: u.Role, SessionID: s.ID}, nil
}

func (r *MemorySessions) DeleteByToken(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sessions, token)
	return nil
}

func (r *MemorySessions) DeleteByUserID(_ context.Context, userID int64) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, s := range r.m.sessions {
		if s.UserID == userID {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (r *MemorySessions) DeleteExpired(_ context.Context, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for token, s := range r.m.sessions {
		if !s.ExpiresAt.After(at) {
			delete(r.m.sessions, token)
			n++
		}
	}
	return n, nil
}

// MemoryVerifications は services.VerificationStore のインメモリ実装です。
type MemoryVerifications struct{ m *Memory }

func (r *MemoryVerifications) Save(_ context.Context, v *models.Verification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *v
	r.m.verifications[v.ID] = &stored
	return nil
}

func (r *MemoryVerifications) FindByIdentifier(_ context.Context, identifier string) (*models.Verification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *models.Verification
	for _, v := range r.m.verifications {
		if v.Identifier == identifier && (latest == nil || v.CreatedAt.After(latest.CreatedAt)) {
			latest = v
		}
	}
	if latest == nil {
		return nil, repositories.ErrVerificationNotFound
	}
	found := *latest
	return &found, nil
}

func (r *MemoryVerifications) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.verifications, id)
	return nil
}

func (r *MemoryVerifications) DeleteExpired(_ context.Context, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, v := range r.m.verifications {
		if !v.ExpiresAt.After(at) {
			delete(r.m.verifications, id)
			n++
		}
	}
	return n, nil
}

// MemoryTodos は services.TodoStore のインメモリ実装です。
type MemoryTodos struct{ m *Memory }

func (r *MemoryTodos) owned(id, userID int64) (*models.Todo, error) {
	t, ok := r.m.todos[id]
	if !ok || t.UserID != userID {
		return nil, repositories.ErrTodoNotFound
	}
	return t, nil
}

func (r *MemoryTodos) Create(_ context.Context, t *models.Todo) (*models.Todo, error) {
	if t.UserID == 0 {
		return nil, errors.New("todo without owner")
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextTodoID++
	ts := now()
	t.ID = r.m.nextTodoID
	t.CreatedAt = ts
	t.UpdatedAt = ts
	stored := *t
	r.m.todos[t.ID] = &stored
	return t, nil
}

func (r *MemoryTodos) FindByUserID(_ context.Context, userID int64) ([]*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	todos := make([]*models.Todo, 0)
	for _, t := range r.m.todos {
		if t.UserID == userID {
			found := *t
			todos = append(todos, &found)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (r *MemoryTodos) FindByIDForUser(_ context.Context, id, userID int64) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	found := *t
	return &found, nil
}

func (r *MemoryTodos) Replace(_ context.Context, t *models.Todo) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, err := r.owned(t.ID, t.UserID)
	if err != nil {
		return nil, err
	}
	stored.Text = t.Text
	stored.Description = t.Description
	stored.Status = t.Status
	stored.StartAt = t.StartAt
	stored.EndAt = t.EndAt
	stored.UpdatedAt = now()
	found := *stored
	return &found, nil
}

func (r *MemoryTodos) Patch(_ context.Context, id, userID int64, p *models.TodoPatch) (*models.Todo, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if !p.Empty() {
		p.Apply(stored)
		stored.UpdatedAt = now()
	}
	found := *stored
	return &found, nil
}

func (r *MemoryTodos) Delete(_ context.Context, id, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.owned(id, userID); err != nil {
		return err
	}
	delete(r.m.todos, id)
	return nil
}
