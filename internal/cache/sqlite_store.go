package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avelume/tutorialcast/internal/script"
	"github.com/avelume/tutorialcast/pkg/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps cache entries in a single scripts table, one row per
// fingerprint, with the script serialized as a JSON payload column.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, ttl: ttl}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func migrationVersion(name string) int {
	for i, r := range name {
		if r < '0' || r > '9' {
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// Get loads the row for fingerprint. Stale or unparseable payloads are
// misses, never errors.
func (s *SQLiteStore) Get(ctx context.Context, fingerprint string, now time.Time) (Entry, bool, error) {
	var createdAt time.Time
	var payload string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT created_at, payload FROM scripts WHERE fingerprint = ?`,
		fingerprint,
	).Scan(&createdAt, &payload)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	e := Entry{Fingerprint: fingerprint, CreatedAt: createdAt}
	if !e.Fresh(now, s.ttl) {
		return Entry{}, false, nil
	}

	var sc script.Script
	if err := json.Unmarshal([]byte(payload), &sc); err != nil {
		log.Warn("Discarding corrupt cache row %s: %v", fingerprint, err)
		return Entry{}, false, nil
	}
	e.Script = sc
	return e, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e.Script)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO scripts (fingerprint, created_at, payload)
		 VALUES (?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			created_at=excluded.created_at,
			payload=excluded.payload`,
		e.Fingerprint,
		e.CreatedAt.UTC(),
		string(payload),
	)
	return err
}

// Sweep deletes rows older than the freshness window.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM scripts WHERE created_at < ?`,
		now.Add(-s.ttl).UTC(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
