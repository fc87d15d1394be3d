package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"eventhub/internal/app"
	"eventhub/internal/bootstrap"
	"eventhub/internal/model"
	"eventhub/internal/platform/database"
	"eventhub/internal/repository"
)

var promoteEmail string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := bootstrap.OpenDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info().Str("driver", cfg.DatabaseDriver()).Msg("schema migrated")
		return nil
	},
}

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant the admin role to an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := bootstrap.OpenDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		user, err := promoteAdmin(cmd.Context(), repository.NewUserRepository(db), promoteEmail)
		if err != nil {
			return err
		}
		logger.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("user promoted to admin")
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the account to promote")
	_ = promoteAdminCmd.MarkFlagRequired("email")
}

var errAccountNotFound = errors.New("account not found")

// promoteAdmin is idempotent: an account that is already an admin is
// returned unchanged.
func promoteAdmin(ctx context.Context, users app.UserStore, email string) (*model.User, error) {
	user, err := users.GetByEmail(ctx, normalizeEmailArg(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", errAccountNotFound, email)
	}
	if user.Role == model.RoleAdmin {
		return user, nil
	}
	user.Role = model.RoleAdmin
	if err := users.Update(ctx, user, model.UserColumnRole); err != nil {
		return nil, fmt.Errorf("update role failed: %w", err)
	}
	return user, nil
}

func normalizeEmailArg(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
