package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// DefaultTable is the name of the records table.
const DefaultTable = "image_info"

var (
	// ErrNotFound is returned when no record has the requested path.
	ErrNotFound = catalog.ErrNotFound

	// ErrUnsupportedDriver is returned for an unknown Options.Driver.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrInvalidTableName is returned when Options.Table is not a plain identifier.
	ErrInvalidTableName = errors.New("invalid table name")
)

// Options selects and configures the storage backend.
type Options struct {
	Driver string // "sqlite" (default) or "mysql"
	Table  string // records table, DefaultTable when empty

	// SQLite
	Path string

	// MySQL
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Database stores catalog records.
type Database struct {
	db      *sql.DB
	dialect dialect
	table   string
	mu      sync.RWMutex
}

// New opens the configured backend, verifies the connection and creates the
// schema if needed.
func New(ctx context.Context, opts Options) (*Database, error) {
	if opts.Table == "" {
		opts.Table = DefaultTable
	}

	dl, err := newDialect(opts.Driver, opts.Table)
	if err != nil {
		return nil, err
	}

	if dl.name == DriverSQLite {
		logging.Info("Database path: %s", opts.Path)
		if err := diagnoseDatabasePermissions(opts.Path); err != nil {
			logging.Warn("Database permission diagnostics: %v", err)
		}
	} else {
		logging.Info("Database: mysql://%s@%s:%d/%s", opts.User, opts.Host, opts.Port, opts.Database)
	}

	db, err := sql.Open(dl.driverName, dl.dsn(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:      db,
		dialect: dl,
		table:   opts.Table,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully (%s, table %s)", dl.name, opts.Table)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// One statement per Exec: the MySQL driver rejects multi-statement strings.
	for _, stmt := range d.dialect.schema {
		if _, err = d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns the backend name, "sqlite" or "mysql".
func (d *Database) Driver() string {
	return d.dialect.name
}

// Ping verifies the connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks that the SQLite file and its WAL
// companions are writable, fixing the companions' mode when it can.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	if dbInfo, err := os.Stat(dbPath); err == nil && dbInfo.Mode().Perm()&0o200 == 0 {
		logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
	}

	for _, companion := range []string{dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(companion)
		if err != nil || info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("%s is read-only (mode %v), this will cause write failures", companion, info.Mode())
		if chmodErr := os.Chmod(companion, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions of %s: %v", companion, chmodErr)
		} else {
			logging.Info("Fixed permissions of %s", companion)
		}
	}

	return nil
}
