// Package storage defines the wave history persisted between sessions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal result of one wave attempt.
type Outcome string

// Wave outcomes.
const (
	OutcomeCleared Outcome = "cleared"
	OutcomeRetried Outcome = "retried"
	OutcomeVictory Outcome = "victory"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCleared, OutcomeRetried, OutcomeVictory:
		return true
	}
	return false
}

// ErrNotFound is returned when no matching wave record exists.
var ErrNotFound = errors.New("wave record not found")

// WaveRecord is one persisted wave attempt.
type WaveRecord struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Arena      string
	WaveIndex  int
	WaveName   string
	Outcome    Outcome
	Players    int
	Factor     float64
	RecordedAt time.Time
}

// Validate checks the record before it is written.
//
// Postcondition: Returns nil iff Arena is non-empty, WaveIndex >= 0, Players >= 0 and Outcome is known.
func (r WaveRecord) Validate() error {
	if r.Arena == "" {
		return fmt.Errorf("wave record: arena must not be empty")
	}
	if r.WaveIndex < 0 {
		return fmt.Errorf("wave record: wave index must be >= 0, got %d", r.WaveIndex)
	}
	if r.Players < 0 {
		return fmt.Errorf("wave record: players must be >= 0, got %d", r.Players)
	}
	if !r.Outcome.Valid() {
		return fmt.Errorf("wave record: unknown outcome %q", r.Outcome)
	}
	return nil
}

// Store persists wave outcomes.
type Store interface {
	// RecordWave writes rec, assigning ID and RecordedAt when they are zero.
	RecordWave(ctx context.Context, rec WaveRecord) (WaveRecord, error)
	// LastCleared returns the highest wave index cleared (or won) in arena,
	// or ErrNotFound when none has been.
	LastCleared(ctx context.Context, arena string) (int, error)
	// History returns every record of sessionID in write order.
	History(ctx context.Context, sessionID uuid.UUID) ([]WaveRecord, error)
}

// HealthChecker is implemented by stores that can report their reachability.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// ResumeIndex returns the wave index a new session in arena should start at.
//
// Precondition: waveCount > 0.
// Postcondition: Returns fallback when nothing was cleared, the index after the
// last cleared wave otherwise, and 0 once the whole schedule has been cleared.
func ResumeIndex(ctx context.Context, store Store, arena string, waveCount, fallback int) (int, error) {
	if waveCount <= 0 {
		return 0, fmt.Errorf("resume index: wave count must be > 0, got %d", waveCount)
	}
	last, err := store.LastCleared(ctx, arena)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resume index: %w", err)
	}
	next := last + 1
	if next >= waveCount {
		return 0, nil
	}
	return next, nil
}

// Stamp fills the zero-valued ID and RecordedAt fields of rec.
func Stamp(rec WaveRecord, now time.Time) WaveRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = now.UTC()
	}
	return rec
}
