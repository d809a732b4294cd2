package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load は以下の優先順位で設定を読み込みます。
//  1. デフォルト値
//  2. .env ファイル (既存の環境変数は上書きしない)
//  3. TOML 設定ファイル (-config / CONFIG、既定は config.toml)
//  4. 環境変数
//  5. コマンドラインフラグ
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	var (
		flagAddr   string
		flagDSN    string
		flagConfig string
	)
	fs.StringVar(&flagAddr, "a", "", "run on ip:port server")
	fs.StringVar(&flagDSN, "d", "", "database url")
	fs.StringVar(&flagConfig, "config", "", "path to TOML config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	explicit := false
	if path := os.Getenv("CONFIG"); path != "" {
		cfg.ConfigFile = path
		explicit = true
	}
	if flagConfig != "" {
		cfg.ConfigFile = flagConfig
		explicit = true
	}
	if err := loadConfigFile(cfg, cfg.ConfigFile, explicit); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDSN != "" {
		cfg.DatabaseURL = flagDSN
	}

	return cfg, nil
}

// loadConfigFile は TOML ファイルを読み込みます。明示指定されていないファイルが無い場合は無視します。
func loadConfigFile(cfg *Config, path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	setString(&cfg.Addr, "SERVER_ADDRESS")
	setString(&cfg.DBDriver, "DB_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.AuthSecret, "AUTH_SECRET")
	setString(&cfg.AppURL, "APP_URL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.Cookie.Name, "COOKIE_NAME")
	setString(&cfg.Cookie.Domain, "COOKIE_DOMAIN")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setString(&cfg.SMTP.Port, "SMTP_PORT")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")

	if err := setBool(&cfg.Cookie.Secure, "COOKIE_SECURE"); err != nil {
		return err
	}
	if err := setDuration(&cfg.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ResetTokenTTL, "RESET_TOKEN_TTL"); err != nil {
		return err
	}

	// DATABASE_URL が無い場合は個別の DB_* 変数から MySQL の DSN を組み立てる
	if cfg.DatabaseURL == "" && cfg.DBDriver == DriverMySQL && os.Getenv("DB_HOST") != "" {
		cfg.DatabaseURL = mysqlDSNFromEnv()
	}
	return nil
}

// mysqlDSNFromEnv は環境変数から MySQL 接続文字列 (DSN) を構築します。
func mysqlDSNFromEnv() string {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, name)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
