package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// notifyTimeout bounds a single history insert triggered by the
	// actuation fan-out.
	notifyTimeout = 5 * time.Second

	// defaultListLimit caps ListByDevice when the caller passes no limit.
	defaultListLimit = 100
)

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("history: store closed")

// Config contains history store configuration options.
// These map to the history section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// Entry is one recorded state change.
type Entry struct {
	ID        int64     `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the SQLite-backed state change log.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS state_changes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id  TEXT NOT NULL,
	field      TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_state_changes_device
	ON state_changes (device_id, id DESC);
`

// Open creates the history store, initialising the schema if needed.
//
// Setup mirrors the usual SQLite recipe: ensure the directory exists,
// apply busy timeout and optional WAL pragmas through the connection
// string, pin the pool to a single connection (SQLite supports one
// writer), then verify with a ping.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("history: database path is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.BusyTimeout*msPerSecond)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("initialising history schema: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File may not exist until first write

	return &Store{db: db, path: cfg.Path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing history database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (s *Store) Path() string {
	return s.path
}

// HealthCheck verifies the database is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("history health check failed: %w", err)
	}
	return nil
}

// Record appends one state change. The value is serialised to JSON so
// structured values (colour triples, scale-tagged temperatures) survive
// intact.
func (s *Store) Record(ctx context.Context, deviceID, field string, value any) error {
	if deviceID == "" || field == "" {
		return errors.New("history: device id and field are required")
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding history value: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO state_changes (device_id, field, value, created_at) VALUES (?, ?, ?, ?)",
		deviceID, field, string(encoded), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording state change: %w", err)
	}
	return nil
}

// ListByDevice returns the most recent changes for one device, newest
// first. A non-positive limit applies the default cap.
func (s *Store) ListByDevice(ctx context.Context, deviceID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, device_id, field, value, created_at FROM state_changes WHERE device_id = ? ORDER BY id DESC LIMIT ?",
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state changes: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Field, &e.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state change: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing state change timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state changes: %w", err)
	}
	return entries, nil
}

// Notify implements the actuation notifier contract by recording the
// change with a bounded timeout.
func (s *Store) Notify(deviceID, field string, value any) error {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	return s.Record(ctx, deviceID, field, value)
}
