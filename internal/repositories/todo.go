package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
)

// ErrTodoNotFound はTODOが存在しない、または呼び出し元の所有でない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

const todoColumns = "id, user_id, text, description, status, start_at, end_at, created_at, updated_at"

// TodoRepository は todos テーブルを扱います。
// 更新・削除はすべて id と user_id の両方で絞り込みます。
type TodoRepository struct {
	DB      *sql.DB
	Dialect database.Dialect
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB, d database.Dialect) *TodoRepository {
	return &TodoRepository{DB: db, Dialect: d}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var t models.Todo
	if err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.Description, &t.Status,
		&t.StartAt, &t.EndAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.StartAt = t.StartAt.UTC()
	t.EndAt = t.EndAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// Create は新しいTodoを挿入します。
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	now := time.Now().UTC().Truncate(time.Second)

	id, err := r.Dialect.InsertID(ctx, r.DB,
		"INSERT INTO todos (user_id, text, description, status, start_at, end_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.UserID, t.Text, t.Description, t.Status, t.StartAt, t.EndAt, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

// FindByUserID はユーザーのTodoを作成順 (id 昇順) で返します。
func (r *TodoRepository) FindByUserID(ctx context.Context, userID int64) ([]*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE user_id = ? ORDER BY id ASC"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

// FindByIDForUser は呼び出し元が所有するTodoを返します。
func (r *TodoRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE id = ? AND user_id = ?"

	t, err := scanTodo(r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return t, nil
}

// Replace は t.ID / t.UserID で指定したTodoの全フィールドを上書きします。
func (r *TodoRepository) Replace(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	query := "UPDATE todos SET text = ?, description = ?, status = ?, start_at = ?, end_at = ?, updated_at = ? " +
		"WHERE id = ? AND user_id = ?"

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query),
		t.Text, t.Description, t.Status, t.StartAt, t.EndAt, time.Now().UTC().Truncate(time.Second),
		t.ID, t.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not update todo: %w", err)
	}
	if err := expectAffected(res, ErrTodoNotFound); err != nil {
		return nil, err
	}
	return r.FindByIDForUser(ctx, t.ID, t.UserID)
}

// Patch は指定されたフィールドだけを更新します。空のパッチは現在の値を返します。
func (r *TodoRepository) Patch(ctx context.Context, id, userID int64, p *models.TodoPatch) (*models.Todo, error) {
	if p.Empty() {
		return r.FindByIDForUser(ctx, id, userID)
	}

	var (
		sets []string
		args []any
	)
	if p.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *p.Text)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Truncate(time.Second), id, userID)

	query := "UPDATE todos SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("could not patch todo: %w", err)
	}
	if err := expectAffected(res, ErrTodoNotFound); err != nil {
		return nil, err
	}
	return r.FindByIDForUser(ctx, id, userID)
}

// Delete は呼び出し元が所有するTodoを削除します。
func (r *TodoRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind("DELETE FROM todos WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return fmt.Errorf("could not delete todo: %w", err)
	}
	return expectAffected(res, ErrTodoNotFound)
}
