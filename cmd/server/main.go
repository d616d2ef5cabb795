package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradeSite/internal/accounts"
	"tradeSite/internal/auth"
	"tradeSite/internal/config"
	"tradeSite/internal/db"
	grpcserver "tradeSite/internal/grpc"
	"tradeSite/internal/httpapi"
	"tradeSite/internal/logging"
	"tradeSite/repository"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply pending migrations and exit")
	flag.Parse()

	log := logging.NewJSON()
	if err := run(log, *migrateOnly); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(log logging.Logger, migrateOnly bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log = logging.New(os.Stdout, cfg.Env)
	log.Info(ctx, "configuration loaded", "config", cfg.String())

	// Migrations run before any listener opens; a failure is fatal.
	d, err := db.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Error(ctx, "close db", "error", err)
		}
	}()

	if migrateOnly {
		recs, err := db.NewRunner(d, log).Applied(ctx)
		if err != nil {
			return fmt.Errorf("read migration ledger: %w", err)
		}
		for _, r := range recs {
			log.Info(ctx, "migration recorded", "id", r.ID, "description", r.Description, "applied_at", r.AppliedAt)
		}
		return nil
	}

	tokens := auth.TokenConfig{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL}
	issuer, err := auth.NewIssuer(tokens)
	if err != nil {
		return err
	}
	authn, err := auth.NewAuthenticator(tokens)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(d)
	authz := auth.NewAuthorizer(users)
	svc := accounts.NewService(users, issuer, log)

	api := httpapi.NewServer(httpapi.Deps{
		Config:   cfg,
		Log:      log,
		Authn:    authn,
		Authz:    authz,
		Accounts: svc,
		Products: repository.NewProductRepository(d),
		News:     repository.NewNewsRepository(d),
		Contacts: repository.NewContactRepository(d),
		Settings: repository.NewSettingsRepository(d),
	})
	stopHTTP, err := api.Start()
	if err != nil {
		return fmt.Errorf("start http: %w", err)
	}
	log.Info(ctx, "http server listening", "address", cfg.HTTPAddress())

	stopGRPC, err := grpcserver.StartGRPC(cfg, authn, authz, svc, log)
	if err != nil {
		_ = stopHTTP(ctx)
		return fmt.Errorf("start grpc: %w", err)
	}
	log.Info(ctx, "grpc server listening", "address", cfg.GRPC.Address)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	log.Info(ctx, "shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := stopHTTP(shutdownCtx); err != nil {
		log.Error(ctx, "http shutdown", "error", err)
	}
	if err := stopGRPC(shutdownCtx); err != nil {
		log.Error(ctx, "grpc shutdown", "error", err)
	}
	return nil
}
