package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-board/backend/internal/models"
)

// 認証ミドルウェアがコンテキストに設定するキー
const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextSessionID = "session_id"
)

// SetPrincipal は解決済みのユーザー情報をコンテキストに設定します。
func SetPrincipal(c *gin.Context, p *models.Principal) {
	c.Set(ContextUserID, p.UserID)
	c.Set(ContextUserRole, p.Role)
	c.Set(ContextSessionID, p.SessionID)
}

// CurrentUserID はコンテキストからユーザーIDを取り出します。
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// CurrentUserRole はコンテキストからロールを取り出します。
func CurrentUserRole(c *gin.Context) string {
	return c.GetString(ContextUserRole)
}

// requireUserID はユーザーIDが無い場合に401を返します。
func requireUserID(c *gin.Context) (int64, bool) {
	userID, ok := CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	return userID, true
}
