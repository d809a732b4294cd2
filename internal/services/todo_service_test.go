package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
	"todo-board/backend/internal/services"
	"todo-board/backend/testutil"
)

func validForm() *models.TodoForm {
	return &models.TodoForm{
		Text:      "Task",
		Status:    models.StatusTodo,
		StartDate: "2024-05-01",
		StartTime: "09:00",
		EndDate:   "2024-05-01",
		EndTime:   "10:00",
	}
}

func TestTodoService_CreateUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	mem := testutil.NewMemory()
	svc := services.NewTodoService(mem.Todos(), tokyo)

	created, err := svc.CreateTodo(context.Background(), 7, validForm())
	require.NoError(t, err)

	assert.Equal(t, int64(7), created.UserID)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), created.StartAt)
	assert.Equal(t, time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), created.EndAt)
}

func TestTodoService_InvalidSchedule(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	svc := services.NewTodoService(mem.Todos(), nil)

	form := validForm()
	form.EndDate = "2024-04-30"
	_, err := svc.CreateTodo(ctx, 1, form)
	assert.ErrorIs(t, err, services.ErrInvalidSchedule)

	form = validForm()
	form.StartTime = "9am"
	_, err = svc.CreateTodo(ctx, 1, form)
	assert.ErrorIs(t, err, services.ErrInvalidSchedule)

	// DATETIME に保存できない年は拒否
	form = validForm()
	form.StartDate = "0999-12-31"
	_, err = svc.CreateTodo(ctx, 1, form)
	assert.ErrorIs(t, err, services.ErrInvalidSchedule)

	form = validForm()
	form.EndDate = "10000-01-01"
	_, err = svc.CreateTodo(ctx, 1, form)
	assert.ErrorIs(t, err, services.ErrInvalidSchedule)

	// 開始と終了が同じ時刻は許可
	form = validForm()
	form.EndTime = form.StartTime
	_, err = svc.CreateTodo(ctx, 1, form)
	assert.NoError(t, err)

	todos, err := svc.ListTodos(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, todos, 1)
}

func TestTodoService_OwnershipScoping(t *testing.T) {
	ctx := context.Background()
	mem := testutil.NewMemory()
	svc := services.NewTodoService(mem.Todos(), time.UTC)

	todo, err := svc.CreateTodo(ctx, 1, validForm())
	require.NoError(t, err)

	_, err = svc.GetTodo(ctx, todo.ID, 2)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	_, err = svc.ReplaceTodo(ctx, todo.ID, 2, validForm())
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	done := models.StatusDone
	_, err = svc.PatchTodo(ctx, todo.ID, 2, &models.TodoPatch{Status: &done})
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
	assert.ErrorIs(t, svc.DeleteTodo(ctx, todo.ID, 2), repositories.ErrTodoNotFound)

	others, err := svc.ListTodos(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)

	patched, err := svc.PatchTodo(ctx, todo.ID, 1, &models.TodoPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, patched.Status)
	assert.Equal(t, "Task", patched.Text)

	require.NoError(t, svc.DeleteTodo(ctx, todo.ID, 1))
	_, err = svc.GetTodo(ctx, todo.ID, 1)
	assert.ErrorIs(t, err, repositories.ErrTodoNotFound)
}
