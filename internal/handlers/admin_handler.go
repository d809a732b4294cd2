package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/services"
)

// AdminHandler は管理者向けのハンドラーです。ロールの確認はルーター側で行います。
type AdminHandler struct {
	userService *services.UserService
}

func NewAdminHandler(userService *services.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// UserCountHandler は登録ユーザー数を返します。
func (h *AdminHandler) UserCountHandler(c *gin.Context) {
	count, err := h.userService.CountUsers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserCount{TotalUsers: count})
}

// Pinger はデータベースの疎通確認を行います。*sql.DB が満たします。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はデータベースの疎通を確認します。
func HealthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
