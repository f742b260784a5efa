package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"capriccio/internal/auth"
	"capriccio/internal/config"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/validation"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	adminUserID   string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or reset an administrator login",
	Long: `Create an email/password login with the admin role.

When the email already belongs to a login its password is replaced and the
profile is promoted. Pass --user-id to attach the login to an existing profile.`,
	RunE: runCreateAdmin,
}

var promoteCmd = &cobra.Command{
	Use:   "promote USER_ID",
	Short: "Grant the admin role to an existing profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromote,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(promoteCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Administrator password")
	createAdminCmd.Flags().StringVar(&adminUserID, "user-id", "", "Existing profile to attach the login to")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	users := repository.New(e.pool, e.logger).Users
	userID, err := createAdmin(cmd.Context(), users, e.cfg.Auth, adminEmail, adminPassword, adminUserID, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s ready (user %s)\n", strings.ToLower(adminEmail), userID)
	return nil
}

func runPromote(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	users := repository.New(e.pool, e.logger).Users
	if err := promote(cmd.Context(), users, args[0], time.Now()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %s promoted to admin\n", args[0])
	return nil
}

// createAdmin upserts an admin credential and returns the profile id it
// belongs to.
func createAdmin(ctx context.Context, users repository.UserRepository, cfg config.AuthConfig, email, password, userID string, now time.Time) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Var("email", email, "required,email", model.ErrInvalidEmail.Message); err != nil {
		return "", err
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	if userID == "" {
		existing, err := users.GetCredentialByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("failed to look up credential: %w", err)
		}
		if existing != nil {
			userID = existing.UserID
		} else {
			userID = uuid.NewString()
		}
	}

	hash, err := auth.HashPassword(password, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := promote(ctx, users, userID, now); err != nil {
		return "", err
	}

	credential := &model.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now.UTC(),
	}
	if err := users.UpsertCredential(ctx, credential); err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}

	return userID, nil
}

// promote makes sure the profile exists and carries the admin role.
func promote(ctx context.Context, users repository.UserRepository, userID string, now time.Time) error {
	profile, err := users.CreateProfile(ctx, &model.UserProfile{
		ID:        userID,
		Role:      model.RoleAdmin,
		CreatedAt: now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	if profile.Role == model.RoleAdmin {
		return nil
	}

	if err := users.SetRole(ctx, userID, model.RoleAdmin); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}
