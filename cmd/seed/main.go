package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
	pginfra "github.com/agrihelp/agrihelp-api/internal/infrastructure/postgres"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 1, time.Minute)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if len(cfg.AdminPassword) < 6 {
		log.Fatal("ADMIN_PASSWORD must be at least 6 characters")
	}
	hash, err := helpers.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	// re-running resets the admin password and flag
	admin := &entity.User{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: hash, IsAdmin: true}
	if err := pginfra.NewUserRepository(pool).Upsert(ctx, admin); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s name=%s\n", admin.ID, admin.Email, admin.Name)
}
