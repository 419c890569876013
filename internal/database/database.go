// Package database opens the audit log database.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/config"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresDSN builds a postgres:// URL from the DB_* settings.
func PostgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}, "application_name": {"ziogram-admin"}}.Encode(),
	}
	return u.String()
}

// Dialector picks the GORM dialector for the configured driver. Postgres connections go
// through pgx; DATABASE_URL wins over the DB_* fields.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	if cfg.DBDriver != "postgres" {
		return sqlite.Open(cfg.DBSQLitePath), nil
	}

	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = PostgresDSN(cfg)
	}
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	if _, ok := pgxCfg.RuntimeParams["application_name"]; !ok {
		pgxCfg.RuntimeParams["application_name"] = "ziogram-admin"
	}
	if pgxCfg.ConnectTimeout == 0 {
		pgxCfg.ConnectTimeout = 5 * time.Second
	}
	return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*pgxCfg)}), nil
}

// Connect opens the audit database described by cfg. The schema is migrated outside
// production; production deploys migrate ahead of the rollout.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := Open(dialector, !cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Minute)
	}

	observability.Logger.Info("audit database ready",
		slog.String("driver", cfg.DBDriver), slog.Bool("migrated", !cfg.IsProduction()))
	return db, nil
}

// Open opens dialector, optionally migrating the audit table.
func Open(dialector gorm.Dialector, migrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(observability.Logger, logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}

	if migrate {
		if err := db.AutoMigrate(&models.AuditEntry{}); err != nil {
			return nil, fmt.Errorf("migrate audit log: %w", err)
		}
	}
	return db, nil
}

// Ping checks the connection behind db.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
