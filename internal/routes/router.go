// Package routesはroutingを行います。
package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/handlers"
	"todo-board/backend/internal/models"
	"todo-board/backend/internal/services"
)

// Dependencies はルーターの構築に必要な依存関係です。
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            handlers.Pinger
	Users         services.UserStore
	Sessions      services.SessionStore
	Verifications services.VerificationStore
	Todos         services.TodoStore
	Mailer        services.Mailer
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	jwtService, err := services.NewJWTService(cfg.AuthSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt service: %w", err)
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = services.NewMailer(cfg.SMTP, log)
	}

	// サービス
	sessionService := services.NewSessionService(deps.Sessions, jwtService, cfg.SessionTTL)
	userService := services.NewUserService(deps.Users, deps.Sessions, deps.Verifications, mailer,
		services.ResetConfig{AppURL: cfg.Origin(), TTL: cfg.ResetTokenTTL}, log)
	todoService := services.NewTodoService(deps.Todos, loc)

	// ハンドラー
	handlers.RegisterValidators()
	userHandler := handlers.NewUserHandler(userService, sessionService, cfg.Cookie)
	todoHandler := handlers.NewTodoHandler(todoService)
	adminHandler := handlers.NewAdminHandler(userService)

	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin()}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Message: "Not found"})
	})

	// ルーティング
	api := r.Group("/api")
	api.POST("/signup", userHandler.SignupHandler)
	api.POST("/login", userHandler.LoginHandler)
	api.POST("/logout", userHandler.LogoutHandler)
	api.POST("/forgot-password", userHandler.ForgotPasswordHandler)
	api.POST("/reset-password/:token", userHandler.ResetPasswordHandler)
	if deps.DB != nil {
		api.GET("/health", handlers.HealthHandler(deps.DB))
	}

	authorized := api.Group("")
	authorized.Use(AuthMiddleware(sessionService, cfg.Cookie.Name))
	{
		authorized.GET("/me", userHandler.MeHandler)
		authorized.GET("/", todoHandler.GetTodosHandler)
		authorized.POST("/", todoHandler.CreateTodoHandler)
		authorized.GET("/:id", todoHandler.GetTodoByIDHandler)
		authorized.PUT("/:id", todoHandler.UpdateTodoHandler)
		authorized.PATCH("/:id", todoHandler.PatchTodoHandler)
		authorized.DELETE("/:id", todoHandler.DeleteTodoHandler)

		admin := authorized.Group("/admin")
		admin.Use(RequireRole(models.RoleAdmin))
		admin.GET("/user-count", adminHandler.UserCountHandler)
	}

	return r, nil
}
