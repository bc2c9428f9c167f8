package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

func main() {
	status := flag.Bool("status", false, "Print migration status without applying anything")
	down := flag.Bool("down", false, "Roll back the most recent migration")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	switch {
	case *status:
		err = postgres.MigrationStatus(db.DB.DB)
	case *down:
		logger.Info("Rolling back last migration...")
		err = postgres.RollbackMigration(db.DB.DB)
	default:
		logger.Info("Running database migrations...")
		err = postgres.RunMigrations(db.DB.DB)
	}
	if err != nil {
		logger.Fatalw("Migration failed", "error", err)
	}

	fmt.Println("Migration process completed")
}
