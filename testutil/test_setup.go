// Package testutil はハンドラー・サービスのテストで使う共通のセットアップを提供します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/models"
	"todo-board/backend/internal/routes"
)

// TestServer はテスト用のルーターとその裏側のインメモリストアです。
type TestServer struct {
	Router *gin.Engine
	Memory *Memory
	Mailer *CaptureMailer
	Config *config.Config
}

// TestConfig はテスト用の設定を返します。
func TestConfig() *config.Config {
	return &config.Config{
		Addr:          ":0",
		DBDriver:      config.DriverMySQL,
		AuthSecret:    "test-secret",
		AppURL:        "http://localhost:3000",
		Timezone:      "UTC",
		SessionTTL:    time.Hour,
		ResetTokenTTL: time.Hour,
		Cookie:        config.CookieConfig{Name: "todo_session"},
	}
}

// SetupTestRouter はインメモリストアの上に本番と同じルーターを組み立てます。
func SetupTestRouter(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := NewMemory()
	mailer := &CaptureMailer{}
	cfg := TestConfig()

	router, err := routes.SetupRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        zap.NewNop(),
		DB:            mem,
		Users:         mem.Users(),
		Sessions:      mem.Sessions(),
		Verifications: mem.Verifications(),
		Todos:         mem.Todos(),
		Mailer:        mailer,
	})
	require.NoError(t, err)

	return &TestServer{Router: router, Memory: mem, Mailer: mailer, Config: cfg}
}

// Do はJSONボディ付きのリクエストを送ります。cookie が nil の場合は付けません。
func (s *TestServer) Do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

// SessionCookie はレスポンスからセッションCookieを取り出します。無ければ nil を返します。
func (s *TestServer) SessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == s.Config.Cookie.Name {
			return c
		}
	}
	return nil
}

// Signup はユーザーを登録し、作成されたユーザーを返します。
func (s *TestServer) Signup(t *testing.T, email, password string) models.UserSummary {
	t.Helper()
	w := s.Do(t, http.MethodPost, "/api/signup", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, "signup failed: %s", w.Body.String())

	var res struct {
		User models.UserSummary `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.User
}

// Login はログインしてセッションCookieを返します。
func (s *TestServer) Login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	w := s.Do(t, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	cookie := s.SessionCookie(w)
	require.NotNil(t, cookie, "session cookie not set")
	require.NotEmpty(t, cookie.Value)
	return cookie
}

// SignupAndLogin は登録とログインをまとめて行います。
func (s *TestServer) SignupAndLogin(t *testing.T, email, password string) (models.UserSummary, *http.Cookie) {
	t.Helper()
	user := s.Signup(t, email, password)
	return user, s.Login(t, email, password)
}

// TodoPayload はテスト用の有効なTodo作成リクエストを返します。
func TodoPayload(text string) map[string]string {
	return map[string]string{
		"text":        text,
		"description": "",
		"status":      "todo",
		"startDate":   "2024-05-01",
		"startTime":   "09:00",
		"endDate":     "2024-05-01",
		"endTime":     "10:00",
	}
}

// CreateTestTodo はAPI経由でTodoを作成します。
func (s *TestServer) CreateTestTodo(t *testing.T, cookie *http.Cookie, text string) *models.Todo {
	t.Helper()
	w := s.Do(t, http.MethodPost, "/api/", TodoPayload(text), cookie)
	require.Equal(t, http.StatusCreated, w.Code, "TODO作成に失敗しました: %s", w.Body.String())

	var created models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return &created
}

// SentMail は CaptureMailer が受け取ったメールです。
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// CaptureMailer は送信されたメールを記録するだけのMailerです。
type CaptureMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *CaptureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return m.Err
}

var resetLinkPattern = regexp.MustCompile(`/reset-password/([0-9a-f]+)`)

// LastResetToken は最後に送信されたメールからリセットトークンを取り出します。
func (m *CaptureMailer) LastResetToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Sent, "no mail sent")

	match := resetLinkPattern.FindStringSubmatch(m.Sent[len(m.Sent)-1].Body)
	require.Len(t, match, 2, "reset link not found in mail body")
	return match[1]
}
