package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"qomex.backend/internal/config"
	"qomex.backend/internal/infrastructure/datasources/postgres"
	"qomex.backend/pkg/logger"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		sqlDB, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.OpenGorm(sqlDB)
	}
	migrateDB = postgres.Migrate
	resetDB   = postgres.Reset
	fatalfFn  = log.Fatalf
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fatalfFn("migrate: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	reset := fs.Bool("reset", false, "drop every service table before migrating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = loadDotenv()
	cfg := loadCfg()
	logger.Init(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if *reset {
		logger.Warn(ctx, "Dropping service tables", zap.String("database", cfg.Database.DBName))
		if err := resetDB(db); err != nil {
			return err
		}
	} else if err := migrateDB(db); err != nil {
		return err
	}
	logger.Info(ctx, "Schema is up to date", zap.Bool("reset", *reset))
	return nil
}
