package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// MySQLConfig holds configuration for the MySQL store accessed through gorm.
type MySQLConfig struct {
	DSN          string        `env:"DSN" default:"simpletodo:simpletodo@tcp(localhost:3306)/simpletodo?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" default:"5"`
	SlowQuery    time.Duration `env:"SLOW_QUERY" default:"200ms"`
	// LogLevel is the gorm log level ("silent", "error", "warn", "info")
	LogLevel string `env:"LOG_LEVEL" default:"warn"`
}

// OpenMySQL opens a gorm connection to MySQL. Tables are migrated by the
// repositories that own them. The DSN should set clientFoundRows so updates
// report matched rather than changed rows.
func OpenMySQL(ctx context.Context, cfg MySQLConfig) (*gorm.DB, error) {
	//nolint:exhaustruct
	db, err := gorm.Open(gormmysql.Open(cfg.DSN), &gorm.Config{
		Logger:         NewGormLogger(cfg.LogLevel, cfg.SlowQuery),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// IsMySQLUniqueViolation reports whether err is a duplicate key error, either
// translated by gorm or raw from the driver.
func IsMySQLUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError

	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// CloseGorm closes the connection pool behind db.
func CloseGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
