package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/term"

	"photo-catalog/internal/database"
	"photo-catalog/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is served by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the linked-in build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// StderrIsTerminal reports whether console log output can use colors.
func StderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// LoadConfig is Load for the server: it also configures logging, prints the
// startup report and prepares directories. A missing upload folder is only
// a warning since it may be mounted later. The sqlite directory must be
// writable. An unwritable cache directory disables thumbnails.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	logging.Configure(cfg.LoggingOptions(StderrIsTerminal()))

	printBanner()
	logSystemInfo()
	logConfig(cfg)

	section("DIRECTORY SETUP")
	logging.Info("  Upload folder:   %s", cfg.UploadDir)
	logging.Info("  Cache directory: %s", cfg.Cache.Dir)

	if err := ensureDirectory(cfg.UploadDir, "upload", false); err != nil {
		logging.Warn("  Upload folder issue: %v", err)
	}

	if cfg.Database.Type == database.DriverSQLite {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := ensureDirectory(dbDir, "database", true); err != nil {
			return nil, fmt.Errorf("database directory error: %w", err)
		}
		if err := testWriteAccess(dbDir); err != nil {
			return nil, fmt.Errorf("database directory %s is not writable: %w", dbDir, err)
		}
		logging.Info("  [OK] Database directory is writable")
	}

	cfg.ThumbnailsEnabled = setupOptionalDir(cfg.ThumbnailDir, "thumbnails")

	logging.Info("")
	logging.Info("  Feature availability:")
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"Thumbnails", cfg.ThumbnailsEnabled},
		{"Watcher", cfg.Sync.Watch},
		{"Periodic sync", cfg.Sync.Interval > 0},
		{"Metrics", cfg.Metrics.Enabled},
	} {
		logging.Info("    %-14s %s", f.name+":", enabledString(f.on))
	}

	return cfg, nil
}

func logConfig(cfg *Config) {
	section("CONFIGURATION")

	source := cfg.ConfigFile
	if source == "" {
		source = fmt.Sprintf("(none, using defaults and %s_* environment)", EnvPrefix)
	}

	target := cfg.Database.Path
	if cfg.Database.Type != database.DriverSQLite {
		target = fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	workers := "auto"
	if cfg.Sync.Workers > 0 {
		workers = fmt.Sprint(cfg.Sync.Workers)
	}

	rows := [][2]string{
		{"config file", source},
		{"app.upload_folder", cfg.App.UploadFolder},
		{"server", cfg.Addr()},
		{"database", cfg.Database.Type + " " + target},
		{"database.table", cfg.Database.Table},
		{"images", strings.Join(cfg.AllowedExtensions.Sorted(), ", ")},
		{"sync", fmt.Sprintf("interval=%v on_start=%v watch=%v workers=%s", cfg.Sync.Interval, cfg.Sync.OnStart, cfg.Sync.Watch, workers)},
		{"gallery.limit", fmt.Sprint(cfg.Gallery.Limit)},
		{"metrics", fmt.Sprintf("%v (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port)},
		{"log.level", logging.GetLevel().String()},
	}
	if cfg.Log.File != "" {
		rows = append(rows, [2]string{"log.file", cfg.Log.File})
	}
	if cfg.Memory.Limit > 0 {
		rows = append(rows, [2]string{"memory", fmt.Sprintf("limit=%d ratio=%.2f", cfg.Memory.Limit, cfg.Memory.Ratio)})
	}

	for _, r := range rows {
		logging.Info("  %-19s %s", r[0]+":", r[1])
	}
}
