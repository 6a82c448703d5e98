// Command admin_seed bootstraps the admin account from the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"peerpay/internal/config"
	"peerpay/internal/logger"
	"peerpay/internal/models"
	"peerpay/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()
	logger.Init(config.IsProduction())
	defer logger.Log.Sync()

	if err := seed(); err != nil {
		logger.Log.Fatal("admin seed failed", zap.Error(err))
	}
}

// seed runs in its own function so its deferred cleanup runs before main
// can exit fatally.
func seed() error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	database, err := repositories.Open()
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := repositories.NewUserRepository(database)

	if _, err := users.GetByEmail(ctx, adminEmail); err == nil {
		logger.Log.Info("admin user already exists")
		return nil
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("admin lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("password hash: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("admin create: %w", err)
	}

	logger.Log.Info("admin account created", zap.String("email", adminEmail))
	return nil
}
