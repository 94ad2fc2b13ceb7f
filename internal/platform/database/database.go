// Package database opens the relational user store and brings its schema up
// to date.
package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"identity-service/internal/config"
)

//go:embed migrations
var migrations embed.FS

// New opens the store selected by cfg, verifies it is reachable and applies
// the embedded migrations for its dialect.
func New(ctx context.Context, cfg config.StorageConfig) (*gorm.DB, error) {
	dialector, dialect, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql db failed: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers itself; one long-lived connection also
		// keeps a :memory: database alive for the life of the process.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s failed: %w", cfg.Driver, err)
	}

	if err := migrate(ctx, db, dialect); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func open(cfg config.StorageConfig) (gorm.Dialector, goose.Dialect, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.Location), goose.DialectSQLite3, nil
	case config.DriverMySQL:
		return mysql.Open(cfg.Location), goose.DialectMySQL, nil
	case config.DriverPostgres:
		return postgres.Open(cfg.Location), goose.DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func migrate(ctx context.Context, db *gorm.DB, dialect goose.Dialect) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db failed: %w", err)
	}

	dir, err := fs.Sub(migrations, "migrations/"+migrationDir(dialect))
	if err != nil {
		return fmt.Errorf("open migrations failed: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, dir)
	if err != nil {
		return fmt.Errorf("create migration provider failed: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations failed: %w", err)
	}
	return nil
}

func migrationDir(dialect goose.Dialect) string {
	switch dialect {
	case goose.DialectMySQL:
		return "mysql"
	case goose.DialectPostgres:
		return "postgres"
	default:
		return "sqlite3"
	}
}
