// Package database stores catalog records in a relational table.
//
// Two backends are supported: SQLite through github.com/mattn/go-sqlite3
// (WAL mode, the default) and MySQL through github.com/go-sql-driver/mysql.
// Both use the same table layout:
//
//	full_path        unique identity of the file
//	created_time     ISO-8601 file creation time
//	exif_make        camera make, nullable
//	exif_model       camera model, nullable
//	exif_datetime    "YYYY-MM-DD HH:MM:SS" or "YYYY-MM-DD", nullable
//	image_filename   base name of full_path
//	exif_xpkeywords  comma-joined keyword tags, nullable
//
// A small metadata key/value table records the time of the last sync.
//
// Every call is timed into the photo_catalog_db_* metrics. Writes take an
// exclusive lock; the catalog assumes a single writer process.
package database
