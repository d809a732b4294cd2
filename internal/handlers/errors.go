// Package handlers はHTTPハンドラーを提供します。
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
	"todo-board/backend/internal/services"
)

const invalidPayloadMessage = "Invalid request payload"

// FieldError は入力エラーの1項目です。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

var registerOnce sync.Once

// RegisterValidators は独自のバリデーションタグを登録し、
// エラーのフィールド名にJSONのキーを使うよう設定します。
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// maxbytes は文字数ではなくバイト数の上限です (bcrypt は72バイトまで)
		_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= n
		})
		_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
			return models.ValidDate(fl.Field().String())
		})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

func respondValidation(c *gin.Context, fields ...FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: invalidPayloadMessage, Errors: fields})
}

// bindJSON はリクエストボディを obj に読み込み、失敗した場合は400を返します。
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		respondValidation(c, fields...)
		return false
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondValidation(c, FieldError{Field: typeErr.Field, Message: "has an invalid type"})
		return false
	}
	respondValidation(c)
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	case "datetime":
		return "must match the format " + fe.Param()
	case "calendardate":
		return fmt.Sprintf("must be a date in YYYY-MM-DD format between years %d and %d", models.MinYear, models.MaxYear)
	}
	return "is invalid"
}

// handleServiceError はサービス層のエラーをHTTPステータスに変換します。
// 想定外のエラーはコンテキストに記録し、詳細を返さずに500とします。
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidSchedule):
		respondValidation(c, FieldError{Field: "endDate", Message: "must not be before the start"})
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidSession):
		respondError(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrInvalidResetToken):
		respondError(c, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, repositories.ErrTodoNotFound):
		respondError(c, http.StatusNotFound, "Todo not found")
	case errors.Is(err, repositories.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, "Email already registered")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
