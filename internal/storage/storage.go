package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Credentials describes the single relational database shared by the
// catalog, accounts and orders repositories. Postgres is the deployment
// target; sqlite covers local development and repository tests.
type Credentials struct {
	Driver            string
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SQLitePath        string
	MigrationsDirPath string
}

func Open(cred *Credentials) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch cred.Driver {
	case DriverPostgres:
		psqlconn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cred.Host,
			cred.Port,
			cred.User,
			cred.Password,
			cred.DBName)
		db, err = sql.Open("postgres", psqlconn)
	case DriverSQLite:
		db, err = sql.Open("sqlite", cred.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cred.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if cred.Driver == DriverPostgres {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	return db, nil
}

// RunMigrations applies the per-driver migration set. Migration files live
// in separate directories because postgres and sqlite disagree on column
// types and auto-increment syntax.
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var err error
	var driver database.Driver
	var m *migrate.Migrate

	switch driverName {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return fmt.Errorf("could not create migration driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s/postgres", migrationsPath),
			"postgres",
			driver,
		)
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("could not create migration driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s/sqlite", migrationsPath),
			"sqlite",
			driver,
		)
	default:
		return fmt.Errorf("unknown database driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}
