package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const lastSyncKey = "last_sync"

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v sql.NullString
	err = d.db.QueryRowContext(ctx, "SELECT meta_value FROM metadata WHERE meta_key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, d.dialect.upsertMetadata, key, value)
	return err
}

// GetLastSync returns the completion time of the last synchronization pass.
// Returns zero time if none has run.
func (d *Database) GetLastSync(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastSyncKey)
	if errors.Is(err, ErrNotFound) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastSync stores the completion time of a synchronization pass.
func (d *Database) SetLastSync(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, lastSyncKey, "")
	}
	return d.SetMetadata(ctx, lastSyncKey, t.UTC().Format(time.RFC3339))
}
