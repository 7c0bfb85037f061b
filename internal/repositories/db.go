// Package repositories provides the data access layer: gorm-backed stores
// for clients, transactions and payment sessions, the atomic unit of work
// that groups their mutations, and a Redis read cache for client records.
package repositories

import (
	"fmt"
	"time"

	"vwallet/internal/config"
	"vwallet/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DBConfig holds database connection pool configuration.
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DBConfigFromEnv reads pool tuning from the environment with sane defaults.
func DBConfigFromEnv() DBConfig {
	return DBConfig{
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	}
}

// InitDB opens the postgres connection, applies pool settings and runs the
// schema migration for the wallet entities.
func InitDB(cfg DBConfig) (*gorm.DB, error) {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "vwallet") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Client{},
		&models.Transaction{},
		&models.PaymentSession{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
