package main

import (
	"context"
	"flag"

	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/pkg/database"
	"go-inventory-pos/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg, envFound, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()
	if !envFound {
		log.Warn(".env file not found, relying on system env")
	}

	email := flag.String("email", cfg.AdminEmail, "account to reset")
	password := flag.String("password", cfg.AdminPassword, "new password")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash and store the new password
	if err := user.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		log.Fatal("update password", zap.Error(err))
	}

	// 5. Drop any open session
	if err := users.UpdateTokenVersion(ctx, user.ID, ""); err != nil {
		log.Fatal("clear session", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", *email))
}
