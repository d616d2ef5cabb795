package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/config"
	"tradeSite/internal/db"
	"tradeSite/internal/logging"
	"tradeSite/models"
	"tradeSite/repository"
)

// seed creates the first admin account out of band. Running it again with
// the same email leaves the existing account untouched.
func main() {
	email := flag.String("email", "admin@example.com", "admin email")
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (min 6 characters)")
	flag.Parse()

	log := logging.New(os.Stdout, os.Getenv("APP_ENV"))
	if err := run(log, *email, *username, *password); err != nil {
		log.Error(context.Background(), "seed failed", "error", err)
		os.Exit(1)
	}
}

func run(log logging.Logger, email, username, password string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	d, err := db.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer d.Close()

	users := repository.NewUserRepository(d)
	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info(ctx, "admin already exists", "user_id", existing.ID, "email", existing.Email)
		return nil
	}
	if taken, err := users.GetByUsername(ctx, username); err != nil {
		return err
	} else if taken != nil {
		return fmt.Errorf("username %q already belongs to %s", username, taken.Email)
	}

	issuer, err := auth.NewIssuer(auth.TokenConfig{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL})
	if err != nil {
		return err
	}
	u, err := accounts.NewService(users, issuer, log).CreatePrincipal(ctx, accounts.CreatePrincipalRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info(ctx, "admin created", "user_id", u.ID, "email", u.Email)
	return nil
}
