package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-catalog/internal/catalog"
)

const recordColumns = "full_path, created_time, exif_make, exif_model, exif_datetime, image_filename, exif_xpkeywords"

// SearchCriteria filters Search. Empty fields are ignored.
type SearchCriteria struct {
	Date         string // YYYY-MM-DD, matched against the date part of the capture time
	Filename     string // exact image_filename
	TagSubstring string // substring of the keyword tag string
}

// IsEmpty reports whether no filter is set.
func (c SearchCriteria) IsEmpty() bool {
	return c.Date == "" && c.Filename == "" && c.TagSubstring == ""
}

// ListAllPaths returns the full_path of every record.
func (d *Database) ListAllPaths(ctx context.Context) (paths []string, err error) {
	start := time.Now()
	defer func() { recordQuery("list_paths", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT full_path FROM %s", d.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	err = rows.Err()
	return paths, err
}

// InsertRecord inserts one record. Inserting a full_path that already exists
// fails with the driver's constraint error.
func (d *Database) InsertRecord(ctx context.Context, r catalog.Record) (err error) {
	start := time.Now()
	defer func() { recordQuery("insert_record", start, err) }()

	if r.FullPath == "" {
		return catalog.ErrEmptyPath
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)", d.table, recordColumns)
	_, err = d.db.ExecContext(ctx, query, r.Values()...)
	return err
}

// GetRecord returns the record stored under fullPath.
func (d *Database) GetRecord(ctx context.Context, fullPath string) (record *catalog.Record, err error) {
	start := time.Now()
	defer func() { recordQuery("get_record", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE full_path = ?", recordColumns, d.table)
	r, err := scanRecord(d.db.QueryRowContext(ctx, query, fullPath))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetTags returns the keyword tags of the record at fullPath, nil when none
// are stored.
func (d *Database) GetTags(ctx context.Context, fullPath string) (value *string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_tags", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tags sql.NullString
	query := fmt.Sprintf("SELECT exif_xpkeywords FROM %s WHERE full_path = ?", d.table)
	err = d.db.QueryRowContext(ctx, query, fullPath).Scan(&tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return nullToPtr(tags), nil
}

// SetTags replaces the keyword tags of the record at fullPath. An empty value
// clears the column to NULL.
func (d *Database) SetTags(ctx context.Context, fullPath, value string) (affected int64, err error) {
	start := time.Now()
	defer func() { recordQuery("set_tags", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var arg any
	if value != "" {
		arg = value
	}

	query := fmt.Sprintf("UPDATE %s SET exif_xpkeywords = ? WHERE full_path = ?", d.table)
	res, err := d.db.ExecContext(ctx, query, arg, fullPath)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateMetadataFields sets capture time, make and model of the record at
// fullPath. Nil fields keep their stored value.
func (d *Database) UpdateMetadataFields(ctx context.Context, fullPath string, u catalog.MetadataUpdate) (affected int64, err error) {
	start := time.Now()
	defer func() { recordQuery("update_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`UPDATE %s SET
		exif_datetime = COALESCE(?, exif_datetime),
		exif_make = COALESCE(?, exif_make),
		exif_model = COALESCE(?, exif_model)
		WHERE full_path = ?`, d.table)

	res, err := d.db.ExecContext(ctx, query, ptrArg(u.CaptureTime), ptrArg(u.Make), ptrArg(u.Model), fullPath)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Search returns records matching every non-empty criterion. Empty criteria
// return no records; use ListRecent to browse.
func (d *Database) Search(ctx context.Context, c SearchCriteria) (records []catalog.Record, err error) {
	if c.IsEmpty() {
		return []catalog.Record{}, nil
	}

	start := time.Now()
	defer func() { recordQuery("search", start, err) }()

	var (
		where []string
		args  []any
	)
	if c.Date != "" {
		where = append(where, "DATE(exif_datetime) = ?")
		args = append(args, c.Date)
	}
	if c.Filename != "" {
		where = append(where, "image_filename = ?")
		args = append(args, c.Filename)
	}
	if c.TagSubstring != "" {
		where = append(where, "exif_xpkeywords LIKE ? ESCAPE '!'")
		args = append(args, "%"+escapeLike(c.TagSubstring)+"%")
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY exif_datetime DESC, full_path",
		recordColumns, d.table, strings.Join(where, " AND "))

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.queryRecords(ctx, query, args...)
}

// ListRecent returns up to limit records, newest capture time first.
// Records without a capture time come last.
func (d *Database) ListRecent(ctx context.Context, limit int) (records []catalog.Record, err error) {
	start := time.Now()
	defer func() { recordQuery("list_recent", start, err) }()

	if limit <= 0 {
		return []catalog.Record{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM %s
		ORDER BY exif_datetime IS NULL, exif_datetime DESC, full_path
		LIMIT ?`, recordColumns, d.table)
	return d.queryRecords(ctx, query, limit)
}

// CountRecords returns the number of stored records.
func (d *Database) CountRecords(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_records", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", d.table)).Scan(&count)
	return count, err
}

// Stats summarizes the stored catalog.
type Stats struct {
	Records         int       `json:"records"`
	Tagged          int       `json:"tagged"`
	WithCaptureTime int       `json:"withCaptureTime"`
	LastSync        time.Time `json:"lastSync,omitempty"`
}

// GetStats returns catalog-wide counts and the last sync time.
func (d *Database) GetStats(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	query := fmt.Sprintf(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN exif_xpkeywords IS NOT NULL AND exif_xpkeywords <> '' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN exif_datetime IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM %s`, d.table)
	qctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	err = d.db.QueryRowContext(qctx, query).Scan(&stats.Records, &stats.Tagged, &stats.WithCaptureTime)
	cancel()
	d.mu.RUnlock()
	if err != nil {
		return Stats{}, err
	}

	stats.LastSync, err = d.GetLastSync(ctx)
	return stats, err
}

func (d *Database) queryRecords(ctx context.Context, query string, args ...any) ([]catalog.Record, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []catalog.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (catalog.Record, error) {
	var (
		r                                  catalog.Record
		created, mk, model, taken, keyword sql.NullString
	)
	if err := s.Scan(&r.FullPath, &created, &mk, &model, &taken, &r.ImageFilename, &keyword); err != nil {
		return catalog.Record{}, err
	}
	r.CreatedTime = created.String
	r.Make = nullToPtr(mk)
	r.Model = nullToPtr(model)
	r.CaptureTime = nullToPtr(taken)
	r.KeywordTags = nullToPtr(keyword)
	return r, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// escapeLike escapes LIKE wildcards with '!', which needs no quoting in
// either SQLite or MySQL string literals.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
