// Command createadmin provisions dashboard administrators. With -reset every
// existing admin is removed first.
//
//	createadmin -config config/config.dev.yaml -reset -admin alice:s3cret-pass -admin bob:an0ther-pass
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"facingcourage-backend/internal/config"
	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/repository/postgres"
	"facingcourage-backend/internal/security"
	"facingcourage-backend/internal/service"
)

// credentialsFlag collects repeated -admin user:pass values.
type credentialsFlag []credential

type credential struct {
	username string
	password string
}

func (c *credentialsFlag) String() string {
	names := make([]string, 0, len(*c))
	for _, cred := range *c {
		names = append(names, cred.username)
	}
	return strings.Join(names, ",")
}

func (c *credentialsFlag) Set(value string) error {
	username, password, ok := strings.Cut(value, ":")
	if !ok || username == "" || password == "" {
		return errors.New("expected username:password")
	}
	*c = append(*c, credential{username: username, password: password})
	return nil
}

func main() {
	var admins credentialsFlag
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	reset := flag.Bool("reset", false, "Delete all existing admins before creating new ones")
	flag.Var(&admins, "admin", "Admin to create as username:password (repeatable)")
	flag.Parse()

	if len(admins) == 0 && !*reset {
		log.Fatal("Nothing to do: pass -admin username:password and/or -reset")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hasher, err := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to initialize password hasher: %v", err)
	}
	store := postgres.NewStore(db)
	authSvc := service.NewAuthService(store.AdminRepository, hasher, nil)

	if *reset {
		n, err := authSvc.ResetAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to clear admins: %v", err)
		}
		fmt.Printf("Removed %d existing admin(s)\n", n)
	}

	failed := 0
	for _, cred := range admins {
		admin, err := authSvc.ProvisionAdmin(ctx, cred.username, cred.password)
		switch {
		case errors.Is(err, domain.ErrAdminExists):
			fmt.Printf("Admin %q already exists, skipped\n", cred.username)
		case err != nil:
			fmt.Printf("Failed to create admin %q: %v\n", cred.username, err)
			failed++
		default:
			fmt.Printf("Created admin %q (id %d)\n", admin.Username, admin.ID)
		}
	}
	if failed > 0 {
		log.Fatalf("%d admin(s) could not be created", failed)
	}
}
