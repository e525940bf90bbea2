// Command admin_seed creates the first admin operator and, when SWAP_FEE is
// set, stores it as the runtime swap fee setting.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"swapledger/internal/config"
	"swapledger/internal/models"
	"swapledger/internal/repositories"
	"swapledger/internal/services/auth"
	"swapledger/internal/services/settlement"
	"swapledger/internal/validation"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	log, err := config.NewLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	v := validation.New()
	v.Password("ADMIN_PASSWORD", adminPassword)
	if !v.Valid() {
		log.Fatal("admin password rejected", zap.Error(v.Err()))
	}

	db, err := repositories.OpenDB(repositories.DBConfigFromEnv())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := repositories.CloseDB(db); err != nil {
			log.Warn("failed to close database connection", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	operators := repositories.NewOperatorRepository(db)

	if _, err := operators.GetByEmail(ctx, adminEmail); err == nil {
		log.Info("admin operator already exists", zap.String("email", adminEmail))
	} else if !errors.Is(err, repositories.ErrOperatorNotFound) {
		log.Fatal("failed to look up admin operator", zap.Error(err))
	} else {
		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			log.Fatal("failed to hash password", zap.Error(err))
		}
		admin := &models.Operator{
			Email:        adminEmail,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			TokenVersion: 1,
		}
		if err := operators.Create(ctx, admin); err != nil {
			log.Fatal("failed to create admin operator", zap.Error(err))
		}
		log.Info("admin operator created", zap.String("email", adminEmail))
	}

	if fee := os.Getenv("SWAP_FEE"); fee != "" {
		if _, err := settlement.ParseFee(fee); err != nil {
			log.Fatal("invalid SWAP_FEE", zap.Error(err))
		}
		settings := repositories.NewSettingRepository(db)
		if _, err := settings.Set(ctx, models.SettingSwapFee, fee, "admin_seed"); err != nil {
			log.Fatal("failed to store swap fee", zap.Error(err))
		}
		log.Info("swap fee setting stored", zap.String("swap_fee", fee))
	}
}
