// promote はユーザーのロールを変更する管理用コマンドです。
//
//	go run ./cmd/promote -email admin@example.com -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"todo-board/backend/internal/config"
	"todo-board/backend/internal/database"
	"todo-board/backend/internal/models"
	"todo-board/backend/internal/repositories"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "promote:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	email := fs.String("email", "", "email of the user to update")
	role := fs.String("role", models.RoleAdmin, "new role (admin or user)")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	if err := validateArgs(*email, *role); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("database url is required (DATABASE_URL or DB_* variables)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db, dialect)
	normalized := strings.ToLower(strings.TrimSpace(*email))
	if err := users.UpdateRole(ctx, normalized, *role); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("no user with email %q", normalized)
		}
		return err
	}

	fmt.Printf("%s is now %s\n", normalized, *role)
	return nil
}

func validateArgs(email, role string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("-email is required")
	}
	switch role {
	case models.RoleAdmin, models.RoleUser:
		return nil
	}
	return fmt.Errorf("unknown role %q", role)
}
