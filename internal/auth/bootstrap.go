package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/backend/internal/models"
)

// EnsureAdmin provisions the platform admin account at startup. Idempotent:
// an existing admin is left untouched.
func EnsureAdmin(ctx context.Context, users UserStore, username, email, password string, log *slog.Logger) error {
	if username == "" || email == "" || password == "" {
		log.Warn("admin bootstrap skipped, ADMIN_USERNAME/ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return nil
	}

	if _, err := users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "Platform Admin",
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("admin account created", "username", username)
	return nil
}
