package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/internal/users"
	"github.com/beveragedistro/ops-backend/pkg/config"
	"github.com/beveragedistro/ops-backend/pkg/db"
	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	"github.com/beveragedistro/ops-backend/pkg/env"
	"github.com/beveragedistro/ops-backend/pkg/logger"
	"github.com/beveragedistro/ops-backend/pkg/security"
)

const tempPasswordLength = 16

type adminStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type seedInput struct {
	Email    string
	Name     string
	Password string
}

type seedResult struct {
	User            *models.User
	Created         bool
	GeneratedSecret string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed-admin"})
	_ = godotenv.Load()

	email := flag.String("email", os.Getenv("DISTRO_SEED_ADMIN_EMAIL"), "admin email")
	name := flag.String("name", env.Get("DISTRO_SEED_ADMIN_NAME", "Administrator"), "admin display name")
	password := flag.String("password", os.Getenv("DISTRO_SEED_ADMIN_PASSWORD"), "admin password (generated when empty)")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	res, err := seedAdmin(ctx, users.NewRepository(dbClient.DB()), cfg.Password, seedInput{
		Email:    *email,
		Name:     *name,
		Password: *password,
	})
	if err != nil {
		logg.Error(ctx, "seed admin failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"email": res.User.Email, "created": res.Created})
	if !res.Created {
		logg.Info(ctx, "admin already present")
		return
	}
	logg.Info(ctx, "admin created")
	if res.GeneratedSecret != "" {
		fmt.Printf("temporary password for %s: %s\n", res.User.Email, res.GeneratedSecret)
	}
}

// seedAdmin creates the admin unless a user with the email already exists.
func seedAdmin(ctx context.Context, store adminStore, pwCfg config.PasswordConfig, in seedInput) (*seedResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	existing, err := store.FindByEmail(ctx, email)
	if err == nil {
		return &seedResult{User: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	res := &seedResult{Created: true}
	password := in.Password
	if password == "" {
		password, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		res.GeneratedSecret = password
	}
	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Administrator"
	}
	user := &models.User{
		Email:        email,
		Name:         name,
		Role:         enums.RoleAdmin,
		Status:       enums.UserStatusActive,
		PasswordHash: hash,
	}
	if err := store.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	res.User = user
	return res, nil
}
