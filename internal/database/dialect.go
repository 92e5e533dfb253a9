package database

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported values of Options.Driver.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// dialect holds the driver-specific SQL for one backend.
type dialect struct {
	name           string
	driverName     string
	schema         []string
	upsertMetadata string
}

func newDialect(driver, table string) (dialect, error) {
	if !tableNamePattern.MatchString(table) {
		return dialect{}, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		return dialect{
			name:       DriverSQLite,
			driverName: "sqlite3",
			schema: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					full_path TEXT NOT NULL UNIQUE,
					created_time TEXT,
					exif_make TEXT,
					exif_model TEXT,
					exif_datetime TEXT,
					image_filename TEXT NOT NULL,
					exif_xpkeywords TEXT
				)`, table),
				fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_filename ON %[1]s(image_filename)`, table),
				fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_datetime ON %[1]s(exif_datetime)`, table),
				`CREATE TABLE IF NOT EXISTS metadata (
					meta_key TEXT PRIMARY KEY,
					meta_value TEXT
				)`,
			},
			upsertMetadata: `INSERT INTO metadata (meta_key, meta_value) VALUES (?, ?)
				ON CONFLICT(meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
		}, nil

	case DriverMySQL:
		return dialect{
			name:       DriverMySQL,
			driverName: "mysql",
			schema: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
					full_path VARCHAR(1024) NOT NULL,
					created_time VARCHAR(32),
					exif_make VARCHAR(255),
					exif_model VARCHAR(255),
					exif_datetime VARCHAR(32),
					image_filename VARCHAR(255) NOT NULL,
					exif_xpkeywords TEXT,
					UNIQUE KEY uq_full_path (full_path(768)),
					KEY idx_filename (image_filename),
					KEY idx_datetime (exif_datetime)
				) DEFAULT CHARSET = utf8mb4`, table),
				`CREATE TABLE IF NOT EXISTS metadata (
					meta_key VARCHAR(191) NOT NULL PRIMARY KEY,
					meta_value TEXT
				) DEFAULT CHARSET = utf8mb4`,
			},
			upsertMetadata: `INSERT INTO metadata (meta_key, meta_value) VALUES (?, ?)
				ON DUPLICATE KEY UPDATE meta_value = VALUES(meta_value)`,
		}, nil
	}

	return dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// dsn builds the connection string for the dialect.
func (dl dialect) dsn(opts Options) string {
	if dl.name == DriverMySQL {
		cfg := mysql.NewConfig()
		cfg.User = opts.User
		cfg.Passwd = opts.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
		cfg.DBName = opts.Database
		cfg.Timeout = defaultTimeout
		cfg.ReadTimeout = 30 * time.Second
		cfg.WriteTimeout = 30 * time.Second
		// Report matched rather than changed rows, like SQLite, so an update
		// that sets a field to its current value still counts as found.
		cfg.ClientFoundRows = true
		cfg.Params = map[string]string{"charset": "utf8mb4"}
		return cfg.FormatDSN()
	}

	// WAL mode; busy_timeout helps prevent "database is locked" errors
	return fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", opts.Path)
}
