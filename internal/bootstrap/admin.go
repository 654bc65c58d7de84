// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dukerupert/mercato/internal/domain"
	"github.com/dukerupert/mercato/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AdminConfig contains configuration for the initial admin user.
// UserID must match the subject the identity service puts in the admin's tokens.
type AdminConfig struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

// Validate checks that the admin configuration is valid.
func (c *AdminConfig) Validate() error {
	if c.Email == "" {
		return errors.New("admin email is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("admin email %q is not valid", c.Email)
	}
	if _, err := uuid.Parse(c.UserID); err != nil {
		return fmt.Errorf("admin user id %q is not a UUID", c.UserID)
	}
	return nil
}

// UserStore is the subset of the repository needed to seed the admin.
type UserStore interface {
	UpsertUser(ctx context.Context, arg repository.UpsertUserParams) error
}

// EnsureMasterAdmin creates or promotes the configured admin user.
// It is idempotent and safe to call on every startup.
//
// A nil config or empty email skips seeding with a warning.
func EnsureMasterAdmin(ctx context.Context, users UserStore, cfg *AdminConfig, logger zerolog.Logger) error {
	if cfg == nil || cfg.Email == "" {
		logger.Warn().
			Str("hint", "Set ADMIN_USER_ID and ADMIN_EMAIL to seed an admin on startup").
			Msg("bootstrap: skipping admin creation")
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	firstName := cfg.FirstName
	if firstName == "" {
		firstName = "Admin"
	}
	lastName := cfg.LastName
	if lastName == "" {
		lastName = "User"
	}

	id := uuid.MustParse(cfg.UserID)
	err := users.UpsertUser(ctx, repository.UpsertUserParams{
		ID:    id,
		Email: strings.ToLower(cfg.Email),
		Name:  strings.TrimSpace(firstName + " " + lastName),
		Role:  string(domain.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert admin user: %w", err)
	}

	logger.Info().
		Str("user_id", id.String()).
		Str("email", cfg.Email).
		Msg("bootstrap: admin user ensured")
	return nil
}
