package database

import (
	"log"
	"time"

	"github.com/ggorockee/storemaps/internal/config"
	"github.com/ggorockee/storemaps/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

func Connect(cfg *config.Config) (*DB, error) {
	logLevel := logger.Silent
	if cfg.ServerEnv == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	// Register metrics plugin for Prometheus
	if err := db.Use(&MetricsPlugin{}); err != nil {
		log.Printf("Failed to register metrics plugin: %v", err)
	} else {
		log.Println("Database metrics plugin registered")
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		log.Println("Database connection pool configured")
	}

	return &DB{db}, nil
}

// Migrate runs AutoMigrate for all models
// Note: Errors are logged but not fatal - an existing schema may carry
// different constraint names
func Migrate(db *DB) error {
	err := db.AutoMigrate(
		// User domain
		&models.User{},

		// Store domain
		&models.Store{},

		// Search history
		&models.SearchHistory{},
	)
	if err != nil {
		log.Printf("AutoMigrate warning (non-fatal): %v", err)
	}
	return nil
}
