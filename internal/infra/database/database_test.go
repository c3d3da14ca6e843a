package database_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mkrupp/simpletodo/internal/infra/database"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{database.DriverSQLite, database.DriverPostgres, database.DriverMySQL} {
		//nolint:exhaustruct
		if err := (database.Config{Driver: driver}).Validate(); err != nil {
			t.Errorf("driver %q: unexpected error %v", driver, err)
		}
	}

	//nolint:exhaustruct
	if err := (database.Config{Driver: "oracle"}).Validate(); !errors.Is(err, database.ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestUniqueViolationDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		check func(error) bool
		err   error
		want  bool
	}{
		{"postgres unique", database.IsPostgresUniqueViolation, &pgconn.PgError{Code: "23505"}, true},
		{"postgres wrapped", database.IsPostgresUniqueViolation, fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres other", database.IsPostgresUniqueViolation, &pgconn.PgError{Code: "23503"}, false},
		{"mysql duplicate", database.IsMySQLUniqueViolation, &mysql.MySQLError{Number: 1062}, true},
		{"mysql translated", database.IsMySQLUniqueViolation, gorm.ErrDuplicatedKey, true},
		{"mysql other", database.IsMySQLUniqueViolation, &mysql.MySQLError{Number: 1146}, false},
		{"sqlite plain error", database.IsSQLiteUniqueViolation, errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnixNanoRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.FixedZone("CEST", 2*60*60))

	if got := database.FromUnixNano(database.UnixNano(now)); !got.Equal(now) || got.Location() != time.UTC {
		t.Errorf("round trip = %v, want %v in UTC", got, now)
	}

	if got := database.FromNullUnixNano(database.NullUnixNano(nil)); got != nil {
		t.Errorf("nil round trip = %v, want nil", got)
	}

	if got := database.FromNullUnixNano(database.NullUnixNano(&now)); got == nil || !got.Equal(now) {
		t.Errorf("pointer round trip = %v, want %v", got, now)
	}
}
