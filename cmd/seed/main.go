// Command seed installs the default service tiers and, optionally, a staff account.
//
//	seed                      # catalog only
//	seed -staff reviewer      # catalog plus staff user, password prompted
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"scholarly/feedback-app/internal/bootstrap"
	"scholarly/feedback-app/internal/config"
	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/service"
)

func main() {
	staffUser := flag.String("staff", "", "create a staff account with this username")
	staffName := flag.String("name", "", "display name of the staff account")
	flag.Parse()

	if err := run(*staffUser, *staffName); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(staffUser, staffName string) error {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, "text")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend, err := bootstrap.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close(context.Background()) }()

	created, err := service.NewCatalogService(backend.Services, logger).SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	fmt.Printf("services created: %d\n", created)

	if staffUser == "" {
		return nil
	}
	if cfg.JWT.Secret == "" {
		// The auth service refuses to start without one; it is not used for seeding.
		cfg.JWT.Secret = "seed"
	}

	password, err := promptPassword(bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	auth := service.NewAuthService(backend.Users, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	user, err := auth.Register(ctx, service.RegisterInput{
		Username: staffUser,
		Name:     staffName,
		Password: password,
	}, domain.RoleStaff)
	if err != nil {
		return fmt.Errorf("create staff user: %w", err)
	}
	fmt.Printf("staff user %s created (id %s)\n", user.Username, user.ID)
	return nil
}
