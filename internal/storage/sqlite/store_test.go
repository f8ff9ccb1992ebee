package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/holdout/internal/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "holdout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenTwiceAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdout.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var n int
	require.NoError(t, second.sqlDB.QueryRow(`SELECT COUNT(*) FROM `+migrationTable).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestRecordWaveAndHistory(t *testing.T) {
	store := openTempStore(t)
	base := time.Date(2026, time.February, 22, 16, 40, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()
	session := uuid.New()

	rec, err := store.RecordWave(ctx, storage.WaveRecord{
		SessionID: session, Arena: "foundry", WaveIndex: 0, WaveName: "Scrap Tide",
		Outcome: storage.OutcomeCleared, Players: 3, Factor: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, base, rec.RecordedAt)

	store.now = func() time.Time { return base.Add(time.Minute) }
	_, err = store.RecordWave(ctx, storage.WaveRecord{
		SessionID: session, Arena: "foundry", WaveIndex: 1, WaveName: "Furnace",
		Outcome: storage.OutcomeRetried, Players: 3, Factor: 3,
	})
	require.NoError(t, err)

	history, err := store.History(ctx, session)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, rec, history[0])
	assert.Equal(t, storage.OutcomeRetried, history[1].Outcome)

	other, err := store.History(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLastCleared(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	_, err := store.LastCleared(ctx, "docks")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	session := uuid.New()
	for _, rec := range []storage.WaveRecord{
		{SessionID: session, Arena: "docks", WaveIndex: 1, Outcome: storage.OutcomeCleared},
		{SessionID: session, Arena: "docks", WaveIndex: 4, Outcome: storage.OutcomeRetried},
		{SessionID: session, Arena: "foundry", WaveIndex: 9, Outcome: storage.OutcomeVictory},
	} {
		_, err := store.RecordWave(ctx, rec)
		require.NoError(t, err)
	}

	last, err := store.LastCleared(ctx, "docks")
	require.NoError(t, err)
	assert.Equal(t, 1, last)

	next, err := storage.ResumeIndex(ctx, store, "docks", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestRecordWaveRejectsInvalid(t *testing.T) {
	store := openTempStore(t)
	_, err := store.RecordWave(context.Background(), storage.WaveRecord{Outcome: storage.OutcomeCleared})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.RecordWave(ctx, storage.WaveRecord{Arena: "a", Outcome: storage.OutcomeCleared})
	assert.Error(t, err)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA\n", upSection("-- +migrate Up\nA\n-- +migrate Down\nB"))
	assert.Equal(t, "plain", upSection("plain"))
}

func TestHealth(t *testing.T) {
	store := openTempStore(t)
	var checker storage.HealthChecker = store
	require.NoError(t, checker.Health(context.Background(), time.Second))

	require.NoError(t, store.Close())
	assert.Error(t, store.Health(context.Background(), time.Second))
}
