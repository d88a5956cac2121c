// migrate applies the embedded SQL migrations to DATABASE_URL (postgres:// or sqlite3://).
package main

import (
	"flag"

	"github.com/yuriscavalcante/rh360/internal/config"
	"github.com/yuriscavalcante/rh360/internal/db/migrate"
	"github.com/yuriscavalcante/rh360/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
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

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	log.WithField("direction", *direction).Info("migrations applied")
}
