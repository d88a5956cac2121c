// seed creates development principals with a local password identity.
// Idempotent: an email that is already registered is skipped.
package main

import (
	"context"
	"errors"
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/yuriscavalcante/rh360/internal/audit"
	auditrepo "github.com/yuriscavalcante/rh360/internal/audit/repository"
	"github.com/yuriscavalcante/rh360/internal/config"
	"github.com/yuriscavalcante/rh360/internal/db"
	identityrepo "github.com/yuriscavalcante/rh360/internal/identity/repository"
	identityservice "github.com/yuriscavalcante/rh360/internal/identity/service"
	"github.com/yuriscavalcante/rh360/internal/logging"
	"github.com/yuriscavalcante/rh360/internal/platform/rbac"
	"github.com/yuriscavalcante/rh360/internal/security"
	userrepo "github.com/yuriscavalcante/rh360/internal/user/repository"
)

const (
	devUserEmail  = "dev@example.com"
	devAdminEmail = "admin@example.com"
	devPassword   = "Dev-Password-123"
)

type principal struct {
	email, name, role string
}

func main() {
	password := flag.String("password", devPassword, "Password for the seeded principals")
	flag.Parse()

	log := logging.Log()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()

	auditLog := audit.NewLogger(auditrepo.NewSQLRepository(conn, dialect), nil)
	auth := identityservice.NewAuthService(
		userrepo.NewSQLRepository(conn, dialect),
		identityrepo.NewSQLRepository(conn, dialect),
		security.NewHasher(cfg.BcryptCost),
		nil, nil, auditLog,
	)

	ctx := context.Background()
	for _, p := range []principal{
		{email: devUserEmail, name: "Dev User", role: rbac.RoleUser},
		{email: devAdminEmail, name: "Dev Admin", role: rbac.RoleAdmin},
	} {
		id, err := auth.Register(ctx, p.email, *password, p.name, p.role)
		switch {
		case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
			log.WithField("email", p.email).Info("seed: already present, skipping")
		case err != nil:
			log.WithError(err).WithField("email", p.email).Fatal("seed: register")
		default:
			log.WithFields(logrus.Fields{"email": p.email, "id": id, "role": p.role}).Info("seed: principal created")
		}
	}
}
