// Package database opens the gorm connection and prepares the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"openclaw/internal/config"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open connects to postgres when cfg.URL is set and to the SQLite file at
// cfg.SQLitePath otherwise.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if cfg.URL != "" {
		db, err = gorm.Open(postgres.Open(cfg.URL), gormConfig(log))
	} else {
		db, err = OpenSQLite(fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", cfg.SQLitePath), log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Info().Str("dialect", db.Dialector.Name()).Msg("connected to database")
	return db, nil
}

// OpenSQLite opens a SQLite database. Foreign keys must be enabled in the DSN
// for reminder cascades to be enforced by the engine.
func OpenSQLite(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), gormConfig(log))
}

func gormConfig(log zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(log, gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
