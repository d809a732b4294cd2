package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"todo-board/backend/internal/handlers"
	"todo-board/backend/internal/services"
)

// AuthMiddleware はセッションCookieを検証し、ユーザー情報をコンテキストに設定するミドルウェアです。
func AuthMiddleware(sessionService *services.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Message: "Authentication required"})
			return
		}

		principal, err := sessionService.Resolve(c.Request.Context(), cookie)
		if err != nil {
			if errors.Is(err, services.ErrInvalidSession) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Message: "Invalid or expired session"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.ErrorResponse{Message: "Internal server error"})
			return
		}

		handlers.SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole は指定したロール以外のユーザーを403で拒否します。AuthMiddleware の後に使います。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := handlers.CurrentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handlers.ErrorResponse{Message: "Authentication required"})
			return
		}
		if handlers.CurrentUserRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, handlers.ErrorResponse{Message: "Forbidden"})
			return
		}
		c.Next()
	}
}

// RequestLogger はリクエストごとにアクセスログを出力します。
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID, ok := handlers.CurrentUserID(c); ok {
			fields = append(fields, zap.Int64("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		}
		if ce := log.Check(level, "request"); ce != nil {
			ce.Write(fields...)
		}
	}
}
