// Package config はアプリケーション設定の読み込みと検証を行います。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// 対応しているデータベースドライバ
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// CookieConfig はセッションCookieの設定です。
type CookieConfig struct {
	Name   string `toml:"name"`
	Domain string `toml:"domain"`
	Secure bool   `toml:"secure"`
}

// SMTPConfig はパスワードリセットメール送信用の設定です。
// Host が空の場合、メールは送信されずログに出力されます。
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Config はサーバー全体の設定を保持します。
type Config struct {
	Addr          string        `toml:"addr"`
	DBDriver      string        `toml:"db_driver"`
	DatabaseURL   string        `toml:"database_url"`
	AuthSecret    string        `toml:"auth_secret"`
	AppURL        string        `toml:"app_url"`
	Timezone      string        `toml:"timezone"`
	SessionTTL    time.Duration `toml:"session_ttl"`
	ResetTokenTTL time.Duration `toml:"reset_token_ttl"`
	LogLevel      string        `toml:"log_level"`
	LogFormat     string        `toml:"log_format"`
	Cookie        CookieConfig  `toml:"cookie"`
	SMTP          SMTPConfig    `toml:"smtp"`

	// ConfigFile は読み込んだ(または探した)TOMLファイルのパスです。
	ConfigFile string `toml:"-"`
}

func setDefaults(cfg *Config) {
	cfg.Addr = ":8080"
	cfg.DBDriver = DriverMySQL
	cfg.AppURL = "http://localhost:3000"
	cfg.Timezone = "UTC"
	cfg.SessionTTL = 7 * 24 * time.Hour
	cfg.ResetTokenTTL = time.Hour
	cfg.LogLevel = "info"
	cfg.LogFormat = "json"
	cfg.Cookie.Name = "todo_session"
	cfg.SMTP.Port = "587"
	cfg.ConfigFile = "config.toml"
}

// Location は Timezone を *time.Location に変換します。
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate は必須項目と値の範囲を確認します。
func (c *Config) Validate() error {
	var errs []error

	if c.AuthSecret == "" {
		errs = append(errs, errors.New("auth secret is required (AUTH_SECRET)"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url is required (DATABASE_URL or DB_* variables)"))
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DBDriver))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	if u, err := url.Parse(c.AppURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid app url %q", c.AppURL))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("reset token ttl must be positive"))
	}
	if c.Cookie.Name == "" {
		errs = append(errs, errors.New("cookie name must not be empty"))
	}

	return errors.Join(errs...)
}

// Origin は CORS で許可するオリジン (末尾スラッシュなし) を返します。
func (c *Config) Origin() string {
	return strings.TrimRight(c.AppURL, "/")
}
