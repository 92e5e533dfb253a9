// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read with viper from a YAML file ([DefaultConfigFile],
// overridden by the --config flag or the CONFIG_FILE environment variable).
// A missing file is not an error. Every key can be overridden from the
// environment with the PHOTO_CATALOG_ prefix and dots replaced by
// underscores, e.g. PHOTO_CATALOG_SERVER_PORT=8080 or
// PHOTO_CATALOG_IMAGES_ALLOWED_EXTENSIONS=jpg,png.
//
// Sections: app, server, database, images, sync, gallery, cache, metrics and
// log. See setDefaults for every key and its default.
//
// [Load] only parses and validates. [LoadConfig] additionally configures
// logging, prints the banner and configuration, and prepares directories:
//   - Upload folder: checked, never created
//   - Database directory (sqlite): required, must be writable
//   - Cache directory: optional, enables thumbnails if writable
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
