package index

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const lastWarmRunKey = "last_warm_run"

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (i *Index) GetMetadata(ctx context.Context, key string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := i.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (i *Index) SetMetadata(ctx context.Context, key, value string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := i.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastWarmRun returns when the cache was last warmed, or the zero time.
func (i *Index) GetLastWarmRun(ctx context.Context) (time.Time, error) {
	value, err := i.GetMetadata(ctx, lastWarmRunKey)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastWarmRun stores when the cache was last warmed.
func (i *Index) SetLastWarmRun(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return i.SetMetadata(ctx, lastWarmRunKey, "")
	}
	return i.SetMetadata(ctx, lastWarmRunKey, t.Format(time.RFC3339))
}
