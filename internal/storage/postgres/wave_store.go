package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/holdout/internal/storage"
)

// WaveStore persists wave records in the wave_records table.
type WaveStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewWaveStore creates a WaveStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with migrations applied.
func NewWaveStore(db *pgxpool.Pool) *WaveStore {
	return &WaveStore{db: db, now: time.Now}
}

// WaveStore returns a WaveStore over this pool.
func (p *Pool) WaveStore() *WaveStore {
	return NewWaveStore(p.pool)
}

// Health pings the database within timeout.
func (s *WaveStore) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.db.Ping(ctx)
}

// RecordWave inserts rec.
//
// Precondition: rec must pass Validate.
// Postcondition: Returns the stored record with ID and RecordedAt set.
func (s *WaveStore) RecordWave(ctx context.Context, rec storage.WaveRecord) (storage.WaveRecord, error) {
	if err := rec.Validate(); err != nil {
		return storage.WaveRecord{}, err
	}
	rec = storage.Stamp(rec, s.now())

	var recordedAt time.Time
	err := s.db.QueryRow(ctx,
		`INSERT INTO wave_records (id, session_id, arena, wave_index, wave_name, outcome, players, factor, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING recorded_at`,
		rec.ID, rec.SessionID, rec.Arena, rec.WaveIndex, rec.WaveName, string(rec.Outcome), rec.Players, rec.Factor, rec.RecordedAt,
	).Scan(&recordedAt)
	if err != nil {
		return storage.WaveRecord{}, fmt.Errorf("inserting wave record: %w", err)
	}
	rec.RecordedAt = recordedAt.UTC()
	return rec, nil
}

// LastCleared returns the highest cleared wave index in arena.
//
// Postcondition: Returns storage.ErrNotFound when no wave was cleared in arena.
func (s *WaveStore) LastCleared(ctx context.Context, arena string) (int, error) {
	var idx *int
	err := s.db.QueryRow(ctx,
		`SELECT MAX(wave_index) FROM wave_records
		 WHERE arena = $1 AND outcome IN ('cleared', 'victory')`,
		arena,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("querying last cleared wave: %w", err)
	}
	if idx == nil {
		return 0, storage.ErrNotFound
	}
	return *idx, nil
}

// History returns all records of sessionID ordered by time of writing.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (s *WaveStore) History(ctx context.Context, sessionID uuid.UUID) ([]storage.WaveRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, arena, wave_index, wave_name, outcome, players, factor, recorded_at
		 FROM wave_records
		 WHERE session_id = $1
		 ORDER BY recorded_at, wave_index`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying wave history: %w", err)
	}
	defer rows.Close()

	out := make([]storage.WaveRecord, 0)
	for rows.Next() {
		var (
			rec     storage.WaveRecord
			outcome string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Arena, &rec.WaveIndex, &rec.WaveName,
			&outcome, &rec.Players, &rec.Factor, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning wave record: %w", err)
		}
		rec.Outcome = storage.Outcome(outcome)
		rec.RecordedAt = rec.RecordedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("iterating wave history: %w", err)
	}
	return out, nil
}
