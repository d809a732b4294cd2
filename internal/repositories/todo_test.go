package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
)

var todoRowColumns = []string{"id", "user_id", "text", "description", "status", "start_at", "end_at", "created_at", "updated_at"}

func todoRow(rows *sqlmock.Rows, id, userID int64, text, status string) *sqlmock.Rows {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(id, userID, text, "d", status, start, start.Add(time.Hour), start, start)
}

func TestTodoRepository_Create(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO todos (user_id, text, description, status, start_at, end_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(int64(1), "t", "d", "todo", start, start.Add(time.Hour), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))

	created, err := repo.Create(context.Background(), &models.Todo{
		UserID: 1, Text: "t", Description: "d", Status: models.StatusTodo,
		StartAt: start, EndAt: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestTodoRepository_Create_Postgres(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	created, err := repo.Create(context.Background(), &models.Todo{UserID: 1, Text: "t", Status: models.StatusTodo})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
}

func TestTodoRepository_FindByUserID(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	rows := sqlmock.NewRows(todoRowColumns)
	todoRow(rows, 1, 7, "first", "todo")
	todoRow(rows, 2, 7, "second", "done")
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE user_id = ? ORDER BY id ASC")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	todos, err := repo.FindByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "first", todos[0].Text)
	assert.Equal(t, models.StatusDone, todos[1].Status)
}

func TestTodoRepository_FindByUserID_Empty(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE user_id = ?")).
		WillReturnRows(sqlmock.NewRows(todoRowColumns))

	todos, err := repo.FindByUserID(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestTodoRepository_FindByIDForUser_NotOwned(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE id = ? AND user_id = ?")).
		WithArgs(int64(1), int64(2)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIDForUser(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestTodoRepository_Replace(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)
	start := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE todos SET text = ?, description = ?, status = ?, start_at = ?, end_at = ?, updated_at = ? WHERE id = ? AND user_id = ?")).
		WithArgs("new", "d", "backlog", start, start.Add(time.Hour), sqlmock.AnyArg(), int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE id = ? AND user_id = ?")).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(todoRow(sqlmock.NewRows(todoRowColumns), 1, 7, "new", "backlog"))

	updated, err := repo.Replace(context.Background(), &models.Todo{
		ID: 1, UserID: 7, Text: "new", Description: "d", Status: models.StatusBacklog,
		StartAt: start, EndAt: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Text)
}

func TestTodoRepository_Replace_NotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE todos SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Replace(context.Background(), &models.Todo{ID: 99, UserID: 7})
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestTodoRepository_Patch(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)
	done := models.StatusDone

	mock.ExpectExec(regexp.QuoteMeta("UPDATE todos SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?")).
		WithArgs("done", sqlmock.AnyArg(), int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE id = ? AND user_id = ?")).
		WillReturnRows(todoRow(sqlmock.NewRows(todoRowColumns), 1, 7, "t", "done"))

	updated, err := repo.Patch(context.Background(), 1, 7, &models.TodoPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "t", updated.Text)
}

func TestTodoRepository_Patch_AllFieldsPostgres(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.Postgres)
	text, desc, status := "x", "y", models.StatusCancelled

	mock.ExpectExec(regexp.QuoteMeta("UPDATE todos SET text = $1, description = $2, status = $3, updated_at = $4 WHERE id = $5 AND user_id = $6")).
		WithArgs("x", "y", "cancelled", sqlmock.AnyArg(), int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE id = $1 AND user_id = $2")).
		WillReturnRows(todoRow(sqlmock.NewRows(todoRowColumns), 1, 7, "x", "cancelled"))

	_, err := repo.Patch(context.Background(), 1, 7, &models.TodoPatch{Text: &text, Description: &desc, Status: &status})
	require.NoError(t, err)
}

func TestTodoRepository_Patch_EmptyOnlyReads(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE id = ? AND user_id = ?")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Patch(context.Background(), 1, 8, &models.TodoPatch{})
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestTodoRepository_Delete(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTodoRepository(db, database.MySQL)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM todos WHERE id = ? AND user_id = ?")).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM todos WHERE id = ? AND user_id = ?")).
		WithArgs(int64(1), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 1, 7))
	assert.ErrorIs(t, repo.Delete(context.Background(), 1, 8), ErrTodoNotFound)
}
