package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-board/backend/internal/models"
)

// ErrInvalidSchedule は開始・終了日時が解釈できない、または終了が開始より前の場合のエラーです。
var ErrInvalidSchedule = errors.New("invalid schedule")

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は呼び出し元のユーザーIDで絞り込まれます。
type TodoService struct {
	todos TodoStore
	loc   *time.Location
}

// NewTodoService は新しいTodoServiceを作成します。loc は日付・時刻入力の解釈に使います。
func NewTodoService(todos TodoStore, loc *time.Location) *TodoService {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoService{todos: todos, loc: loc}
}

func (s *TodoService) schedule(form *models.TodoForm) (time.Time, time.Time, error) {
	start, end, err := form.Window(s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end is before start", ErrInvalidSchedule)
	}
	return start, end, nil
}

// ListTodos はユーザーのTodoを作成順で返します。
func (s *TodoService) ListTodos(ctx context.Context, userID int64) ([]*models.Todo, error) {
	return s.todos.FindByUserID(ctx, userID)
}

func (s *TodoService) GetTodo(ctx context.Context, id, userID int64) (*models.Todo, error) {
	return s.todos.FindByIDForUser(ctx, id, userID)
}

// CreateTodo は新しいTodoを作成します。
func (s *TodoService) CreateTodo(ctx context.Context, userID int64, form *models.TodoForm) (*models.Todo, error) {
	start, end, err := s.schedule(form)
	if err != nil {
		return nil, err
	}
	return s.todos.Create(ctx, &models.Todo{
		UserID:      userID,
		Text:        form.Text,
		Description: form.Description,
		Status:      form.Status,
		StartAt:     start,
		EndAt:       end,
	})
}

// ReplaceTodo はTodoの全フィールドを置き換えます。
func (s *TodoService) ReplaceTodo(ctx context.Context, id, userID int64, form *models.TodoForm) (*models.Todo, error) {
	start, end, err := s.schedule(form)
	if err != nil {
		return nil, err
	}
	return s.todos.Replace(ctx, &models.Todo{
		ID:          id,
		UserID:      userID,
		Text:        form.Text,
		Description: form.Description,
		Status:      form.Status,
		StartAt:     start,
		EndAt:       end,
	})
}

// PatchTodo は指定されたフィールドだけを更新します。
func (s *TodoService) PatchTodo(ctx context.Context, id, userID int64, patch *models.TodoPatch) (*models.Todo, error) {
	return s.todos.Patch(ctx, id, userID, patch)
}

// DeleteTodo はTodoを削除します。
func (s *TodoService) DeleteTodo(ctx context.Context, id, userID int64) error {
	return s.todos.Delete(ctx, id, userID)
}
