package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"github.com/menuboard/api/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoRestaurantName = "Demo Restaurant"
	demoLocationName   = "Main"
)

var seedOpts struct {
	email    string
	password string
	name     string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo restaurant and an ADMIN account",
	Long: `Create the demo restaurant, its default location and an ADMIN profile.

Flags fall back to SEED_EMAIL, SEED_PASSWORD and SEED_NAME. Running it twice
is safe: an existing profile with the same email is left untouched.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedOpts.email, "email", os.Getenv("SEED_EMAIL"), "admin email address")
	seedCmd.Flags().StringVar(&seedOpts.password, "password", os.Getenv("SEED_PASSWORD"), "admin password")
	seedCmd.Flags().StringVar(&seedOpts.name, "name", os.Getenv("SEED_NAME"), "admin full name")
}

func runSeed(cmd *cobra.Command, args []string) error {
	email := strings.ToLower(strings.TrimSpace(seedOpts.email))
	if email == "" || seedOpts.password == "" {
		return errors.New("--email and --password are required")
	}
	if len(seedOpts.password) < 8 {
		return service.ErrWeakPassword
	}
	name := seedOpts.name
	if name == "" {
		name = "Administrator"
	}

	ctx := cmd.Context()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)

	existing, err := q.GetProfileByEmail(ctx, email)
	if err == nil {
		logger.Info("profile already exists, skipping",
			zap.String("email", email), zap.String("id", existing.ID.String()))
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check profile: %w", err)
	}

	admin, err := seedAdmin(ctx, q, email, seedOpts.password, name)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logger.Info("seed completed",
		zap.String("restaurant_id", admin.RestaurantID.String()),
		zap.String("admin_id", admin.ID.String()))
	return nil
}

func seedAdmin(ctx context.Context, q *database.Queries, email, password, name string) (database.Profile, error) {
	restaurant, err := q.CreateRestaurant(ctx, database.CreateRestaurantParams{
		Name: demoRestaurantName,
		Slug: service.Slugify(demoRestaurantName),
	})
	if err != nil {
		return database.Profile{}, fmt.Errorf("create restaurant: %w", err)
	}

	if _, err := q.CreateLocation(ctx, database.CreateLocationParams{
		RestaurantID: restaurant.ID,
		Name:         demoLocationName,
		IsDefault:    true,
	}); err != nil {
		return database.Profile{}, fmt.Errorf("create location: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	admin, err := q.CreateProfile(ctx, database.CreateProfileParams{
		RestaurantID:   restaurant.ID,
		Email:          email,
		HashedPassword: string(hash),
		FullName:       name,
		Role:           enum.UserRoleAdmin,
	})
	if err != nil {
		return database.Profile{}, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}
