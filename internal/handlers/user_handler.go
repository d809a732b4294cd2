package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/models"
	"todo-board/backend/internal/services"
)

// UserHandler は認証・ユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	cookie         config.CookieConfig
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, sessionService *services.SessionService, cookie config.CookieConfig) *UserHandler {
	return &UserHandler{userService: userService, sessionService: sessionService, cookie: cookie}
}

func (h *UserHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

// SignupHandler はユーザー登録を処理します。ログイン状態にはしません。
func (h *UserHandler) SignupHandler(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed up", "user": user.Summary()})
}

// LoginHandler はユーザーログインを処理し、セッションCookieを設定します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	issued, err := h.sessionService.Issue(c.Request.Context(), user, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, issued.Cookie, int(h.sessionService.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "user": user.Summary()})
}

// LogoutHandler はセッションを破棄してCookieを消去します。何度呼ばれても成功します。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	if cookie, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.sessionService.Revoke(c.Request.Context(), cookie); err != nil {
			_ = c.Error(err)
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler はログイン中のユーザーのIDとロールを返します。
func (h *UserHandler) MeHandler(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.MeResponse{ID: userID, Role: CurrentUserRole(c)})
}

// ForgotPasswordHandler はパスワードリセットリクエストを処理します。
// アカウントの有無に関わらず同じレスポンスを返します。
func (h *UserHandler) ForgotPasswordHandler(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ForgotPasswordUser(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a password reset email has been sent"})
}

// ResetPasswordHandler はトークンを使ってパスワードを再設定します。
func (h *UserHandler) ResetPasswordHandler(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ResetPasswordUser(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
