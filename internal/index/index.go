package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"preview-generator/internal/logging"
	"preview-generator/internal/metrics"
)

// Default timeout for index operations
const defaultTimeout = 5 * time.Second

// Index stores artifact records.
type Index struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens or creates the index at dbPath. The parent directory must exist
// and be writable.
func New(ctx context.Context, dbPath string) (*Index, error) {
	logging.Info("Index database path: %s", dbPath)

	if err := diagnosePermissions(dbPath); err != nil {
		logging.Warn("Index database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	idx := &Index{db: db}
	if err := idx.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	logging.Info("Index database initialized successfully at %s", dbPath)
	return idx, nil
}

func (i *Index) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS previews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cache_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		source_path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		builder TEXT NOT NULL,
		page INTEGER NOT NULL DEFAULT -1,
		artifact_path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(cache_key, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_previews_source ON previews(source_path);
	CREATE INDEX IF NOT EXISTS idx_previews_kind ON previews(kind);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err := i.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// recordQuery records index query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IndexQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.IndexQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnosePermissions checks that the database directory is writable and
// that existing database files are not read-only.
func diagnosePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat index directory: %w", err)
	}
	logging.Debug("Index directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("index directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Index file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Index file %s is read-only! Mode: %v", path, info.Mode())
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
