package gameserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"

	"github.com/cory-johannsen/holdout/internal/config"
	"github.com/cory-johannsen/holdout/internal/game/npc"
	"github.com/cory-johannsen/holdout/internal/game/wave"
	"github.com/cory-johannsen/holdout/internal/scripting"
	"github.com/cory-johannsen/holdout/internal/storage"
	"github.com/cory-johannsen/holdout/internal/storage/postgres"
	"github.com/cory-johannsen/holdout/internal/storage/sqlite"
)

// ProviderSet builds a *Session from a config.Config, a context and a base logger.
var ProviderSet = wire.NewSet(
	ProvideSessionConfig,
	ProvideSchedule,
	ProvideCatalog,
	ProvideStore,
	ProvideScripts,
	ProvideJournal,
	health.NewServer,
	wire.Struct(new(SessionParams), "*"),
	NewSession,
)

// ProvideSessionConfig selects the session section of cfg.
func ProvideSessionConfig(cfg config.Config) config.SessionConfig {
	return cfg.Session
}

// ProvideSchedule loads the wave schedule named by cfg.
func ProvideSchedule(cfg config.SessionConfig) (*wave.Schedule, error) {
	return wave.LoadSchedule(cfg.WavesFile)
}

// ProvideCatalog loads every enemy template under cfg.EnemiesDir.
func ProvideCatalog(cfg config.SessionConfig) (*npc.Catalog, error) {
	templates, err := npc.LoadTemplates(cfg.EnemiesDir)
	if err != nil {
		return nil, err
	}
	return npc.NewCatalog(templates)
}

// ProvideStore opens the configured wave history backend. The store is nil when
// storage is disabled.
//
// Postcondition: the cleanup func is always non-nil.
func ProvideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Session.Storage {
	case config.StorageSQLite:
		st, err := sqlite.Open(cfg.Session.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("wave history in sqlite", zap.String("path", cfg.Session.SQLitePath))
		return st, func() { _ = st.Close() }, nil
	case config.StoragePostgres:
		start := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(start)),
		)
		return pool.WaveStore(), pool.Close, nil
	}
	return nil, func() {}, nil
}

// ProvideScripts loads the arena's Lua hooks. The manager is nil when no scripts
// directory is configured.
func ProvideScripts(cfg config.SessionConfig, sched *wave.Schedule, logger *zap.Logger) (*scripting.Manager, func(), error) {
	if cfg.ScriptsDir == "" {
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(logger.Named("scripting"))
	if err := mgr.LoadArena(sched.Arena.ID, cfg.ScriptsDir, scripting.DefaultInstructionLimit); err != nil {
		mgr.Close()
		return nil, func() {}, fmt.Errorf("loading arena scripts: %w", err)
	}
	logger.Info("arena scripts loaded", zap.String("arena", sched.Arena.ID), zap.String("dir", cfg.ScriptsDir))
	return mgr, mgr.Close, nil
}

// ProvideJournal opens the event journal for appending. The writer is nil when no
// journal file is configured.
func ProvideJournal(cfg config.SessionConfig) (io.Writer, func(), error) {
	if cfg.JournalFile == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(cfg.JournalFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening journal: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
