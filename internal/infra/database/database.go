// Package database opens the SQL stores the repositories run on and owns
// their schema.
package database

import (
	"errors"
	"fmt"
)

// Supported values for Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrUnknownDriver is returned for a Config.Driver that is not supported.
var ErrUnknownDriver = errors.New("unknown database driver")

// Config selects and configures the backing store.
type Config struct {
	// Driver is one of "sqlite", "postgres" or "mysql"
	Driver string `env:"DRIVER" default:"sqlite"`

	SQLite   SQLiteConfig   `envPrefix:"SQLITE_"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	MySQL    MySQLConfig    `envPrefix:"MYSQL_"`
}

// Validate reports whether the configured driver is supported.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}
