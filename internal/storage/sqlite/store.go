// Package sqlite provides a SQLite-backed wave history store for single-host deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/holdout/internal/storage"
	"github.com/cory-johannsen/holdout/internal/storage/sqlite/migrations"
)

const migrationTable = "schema_migrations"

// Store persists wave records in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the SQLite database at path and applies embedded migrations.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a ready Store or a non-nil error.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Health pings the database within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.sqlDB.PingContext(ctx)
}

// RecordWave inserts rec.
//
// Precondition: rec must pass Validate.
// Postcondition: Returns the stored record with ID and RecordedAt set.
func (s *Store) RecordWave(ctx context.Context, rec storage.WaveRecord) (storage.WaveRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.WaveRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return storage.WaveRecord{}, err
	}
	rec = storage.Stamp(rec, s.now())
	// Millisecond precision is all the column keeps.
	rec.RecordedAt = fromMillis(toMillis(rec.RecordedAt))

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO wave_records (id, session_id, arena, wave_index, wave_name, outcome, players, factor, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.SessionID.String(), rec.Arena, rec.WaveIndex, rec.WaveName,
		string(rec.Outcome), rec.Players, rec.Factor, toMillis(rec.RecordedAt),
	)
	if err != nil {
		return storage.WaveRecord{}, fmt.Errorf("insert wave record: %w", err)
	}
	return rec, nil
}

// LastCleared returns the highest cleared wave index in arena.
//
// Postcondition: Returns storage.ErrNotFound when no wave was cleared in arena.
func (s *Store) LastCleared(ctx context.Context, arena string) (int, error) {
	var idx sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT MAX(wave_index) FROM wave_records
		 WHERE arena = ? AND outcome IN ('cleared', 'victory')`,
		arena,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("query last cleared wave: %w", err)
	}
	if !idx.Valid {
		return 0, storage.ErrNotFound
	}
	return int(idx.Int64), nil
}

// History returns all records of sessionID ordered by time of writing.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (s *Store) History(ctx context.Context, sessionID uuid.UUID) ([]storage.WaveRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, session_id, arena, wave_index, wave_name, outcome, players, factor, recorded_at
		 FROM wave_records
		 WHERE session_id = ?
		 ORDER BY recorded_at, wave_index, rowid`,
		sessionID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query wave history: %w", err)
	}
	defer rows.Close()

	out := make([]storage.WaveRecord, 0)
	for rows.Next() {
		var (
			rec                 storage.WaveRecord
			id, session, result string
			at                  int64
		)
		if err := rows.Scan(&id, &session, &rec.Arena, &rec.WaveIndex, &rec.WaveName,
			&result, &rec.Players, &rec.Factor, &at); err != nil {
			return nil, fmt.Errorf("scan wave record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse wave record id %q: %w", id, err)
		}
		if rec.SessionID, err = uuid.Parse(session); err != nil {
			return nil, fmt.Errorf("parse session id %q: %w", session, err)
		}
		rec.Outcome = storage.Outcome(result)
		rec.RecordedAt = fromMillis(at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wave history: %w", err)
	}
	return out, nil
}

// applyMigrations executes each embedded .sql file at most once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range files {
		var found int
		err := sqlDB.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&found)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %s: %w", name, err)
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(upSection(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			name, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// upSection returns the SQL between the Up and Down markers.
func upSection(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]
	if end := strings.Index(content, down); end != -1 {
		content = content[:end]
	}
	return content
}
