package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// todoID はパスの :id を解釈します。数値でない・0以下の場合は404を返します。
func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusNotFound, "Todo not found")
		return 0, false
	}
	return id, true
}

// GetTodosHandler はログイン中のユーザーのTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	todos, err := h.todoService.ListTodos(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if todos == nil {
		todos = []*models.Todo{}
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodo(c.Request.Context(), id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var form models.TodoForm
	if !bindJSON(c, &form) {
		return
	}

	created, err := h.todoService.CreateTodo(c.Request.Context(), userID, &form)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateTodoHandler はTodoの全フィールドを置き換えます。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	var form models.TodoForm
	if !bindJSON(c, &form) {
		return
	}

	updated, err := h.todoService.ReplaceTodo(c.Request.Context(), id, userID, &form)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// PatchTodoHandler は status / text / description の一部だけを更新します。
func (h *TodoHandler) PatchTodoHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	var patch models.TodoPatch
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := h.todoService.PatchTodo(c.Request.Context(), id, userID, &patch)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(c.Request.Context(), id, userID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
