package startup

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"photo-catalog/internal/database"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/memory"
)

const (
	// EnvPrefix prefixes every environment override, e.g. PHOTO_CATALOG_SERVER_PORT.
	EnvPrefix = "PHOTO_CATALOG"

	// DefaultConfigFile is read when neither --config nor CONFIG_FILE is set.
	DefaultConfigFile = "config.yaml"

	defaultGalleryLimit = 500
)

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// AppConfig holds application-level settings.
type AppConfig struct {
	Name             string `mapstructure:"name"`
	Debug            bool   `mapstructure:"debug"`
	UploadFolder     string `mapstructure:"upload_folder"`
	MaxContentLength int64  `mapstructure:"max_content_length"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	LogStaticFiles  bool   `mapstructure:"log_static_files"`
	LogHealthChecks bool   `mapstructure:"log_health_checks"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Table    string `mapstructure:"table"`
}

// ImagesConfig controls which files are catalogued.
type ImagesConfig struct {
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// SyncConfig controls the background synchronization.
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	OnStart  bool          `mapstructure:"on_start"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
	Workers  int           `mapstructure:"workers"`
}

// GalleryConfig controls the gallery page.
type GalleryConfig struct {
	Limit int `mapstructure:"limit"`
}

// CacheConfig locates the thumbnail cache.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// MemoryConfig sizes the Go heap against a container memory limit.
type MemoryConfig struct {
	Limit int64   `mapstructure:"limit"`
	Ratio float64 `mapstructure:"ratio"`
}

// LogConfig controls log level and the optional rotating log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Images   ImagesConfig   `mapstructure:"images"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Gallery  GalleryConfig  `mapstructure:"gallery"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Log      LogConfig      `mapstructure:"log"`

	// Derived at load time
	ConfigFile        string                  `mapstructure:"-"`
	UploadDir         string                  `mapstructure:"-"`
	ThumbnailDir      string                  `mapstructure:"-"`
	ThumbnailsEnabled bool                    `mapstructure:"-"`
	AllowedExtensions mediatypes.ExtensionSet `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "photo-catalog")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.upload_folder", "uploads")
	v.SetDefault("app.max_content_length", 0)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.log_static_files", false)
	v.SetDefault("server.log_health_checks", true)

	v.SetDefault("database.type", database.DriverSQLite)
	v.SetDefault("database.path", "catalog.db")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "image_gallery")
	v.SetDefault("database.table", database.DefaultTable)

	v.SetDefault("images.allowed_extensions", mediatypes.DefaultImageExtensions)

	v.SetDefault("sync.interval", "30m")
	v.SetDefault("sync.on_start", true)
	v.SetDefault("sync.watch", false)
	v.SetDefault("sync.debounce", "5s")
	v.SetDefault("sync.workers", 0)

	v.SetDefault("gallery.limit", defaultGalleryLimit)
	v.SetDefault("cache.dir", "cache")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("memory.limit", 0)
	v.SetDefault("memory.ratio", memory.DefaultRatio)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// ConfigPath returns the configuration file to read: explicit, then
// CONFIG_FILE, then DefaultConfigFile.
func ConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("CONFIG_FILE"); env != "" {
		return env
	}
	return DefaultConfigFile
}

// Load reads the configuration file at path (see ConfigPath) and applies
// environment overrides. A missing file is not an error; a malformed one is.
// Directories are resolved to absolute paths but not created.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path = ConfigPath(path)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	configFile := ""
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		configFile = path
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigFile = configFile

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates the loaded values and fills the derived fields.
func (c *Config) resolve() error {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case database.DriverSQLite, database.DriverMySQL:
	default:
		return fmt.Errorf("%w: database.type %q (want sqlite or mysql)", ErrInvalidConfig, c.Database.Type)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("%w: metrics.port %d", ErrInvalidConfig, c.Metrics.Port)
	}
	if c.Sync.Workers < 0 {
		return fmt.Errorf("%w: sync.workers %d", ErrInvalidConfig, c.Sync.Workers)
	}
	if c.Memory.Limit < 0 {
		return fmt.Errorf("%w: memory.limit %d", ErrInvalidConfig, c.Memory.Limit)
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("%w: sync.interval %v", ErrInvalidConfig, c.Sync.Interval)
	}
	if c.Gallery.Limit <= 0 {
		logging.Warn("Invalid gallery.limit %d, using default: %d", c.Gallery.Limit, defaultGalleryLimit)
		c.Gallery.Limit = defaultGalleryLimit
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	c.AllowedExtensions = mediatypes.NewExtensionSet(c.Images.AllowedExtensions...)
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("%w: images.allowed_extensions is empty", ErrInvalidConfig)
	}

	var err error
	if c.UploadDir, err = filepath.Abs(c.App.UploadFolder); err != nil {
		return fmt.Errorf("failed to resolve upload folder path: %w", err)
	}
	if c.Cache.Dir, err = filepath.Abs(c.Cache.Dir); err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	c.ThumbnailDir = filepath.Join(c.Cache.Dir, "thumbnails")

	if c.Database.Type == database.DriverSQLite {
		if c.Database.Path, err = filepath.Abs(c.Database.Path); err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// MetricsAddr is the metrics listen address.
func (c *Config) MetricsAddr() string {
	return ":" + strconv.Itoa(c.Metrics.Port)
}

// DatabaseOptions converts the database section for database.New.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		Driver:   c.Database.Type,
		Table:    c.Database.Table,
		Path:     c.Database.Path,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Database,
	}
}

// LoggingOptions converts the log section for logging.Configure.
// app.debug forces debug level.
func (c *Config) LoggingOptions(color bool) logging.Options {
	level := c.Log.Level
	if c.App.Debug {
		level = "debug"
	}
	return logging.Options{
		Level:      level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
		Color:      color,
	}
}
