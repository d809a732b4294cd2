// Package database はデータベース接続の初期化とSQL方言の差異を扱います。
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// DBTX は *sql.DB と *sql.Tx の共通インターフェースです。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect は MySQL と PostgreSQL の違いを吸収します。
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect はドライバ名から Dialect を返します。
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case MySQL, Postgres:
		return Dialect(driver), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind は ? プレースホルダーを方言に合わせて書き換えます。
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation は一意制約違反のエラーかどうかを判定します。
func (d Dialect) IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// InsertID は INSERT を実行し、自動採番されたIDを返します。
// query は "INSERT INTO ... VALUES (?, ...)" 形式で、RETURNING 句を含めないこと。
func (d Dialect) InsertID(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	if d == Postgres {
		var id int64
		if err := db.QueryRowContext(ctx, d.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("could not get last insert ID: %w", err)
	}
	return id, nil
}

// Open はデータベース接続プールを作成し、疎通を確認します。
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	if d == MySQL {
		var err error
		if dsn, err = normalizeMySQLDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return db, nil
}

// normalizeMySQLDSN は時刻のパースと UTC を強制し、
// 値が変わらない UPDATE でも一致した行数を返すように設定します。
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Migrate はテーブルが存在しなければ作成します。
func Migrate(ctx context.Context, db DBTX, d Dialect) error {
	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
