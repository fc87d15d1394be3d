package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"eventhub/internal/model"
)

const (
	maxDisplayName = 64
	maxEmail       = 128
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

var validate = validator.New()

type PasswordPolicy struct {
	MinLength  int
	BcryptCost int
}

func (p PasswordPolicy) check(password string) error {
	minLength := p.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if utf8.RuneCountInString(password) < minLength {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return newError(KindValidation, "password is too long")
	}
	return nil
}

func (p PasswordPolicy) hash(password string) (string, error) {
	cost := p.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, fmt.Sprintf("required,email,max=%d", maxEmail)); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxDisplayName {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// recordActivity publishes an audit entry. The mutation it describes has
// already been committed, so a publish failure is logged and swallowed.
func recordActivity(ctx context.Context, publisher ActivityPublisher, logger zerolog.Logger, activity model.Activity) {
	if publisher == nil {
		return
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	if err := publisher.Publish(ctx, activity); err != nil {
		logger.Warn().Err(err).
			Str("action", string(activity.Action)).
			Uint("actor_id", activity.ActorID).
			Msg("publish activity failed")
	}
}

func evictPrincipal(ctx context.Context, cache PrincipalCache, logger zerolog.Logger, userID uint) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, userID); err != nil {
		logger.Warn().Err(err).Uint("user_id", userID).Msg("evict principal failed")
	}
}

func uintPtr(v uint) *uint {
	return &v
}
