package gameserver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"

	"github.com/cory-johannsen/holdout/internal/config"
	"github.com/cory-johannsen/holdout/internal/game/npc"
	"github.com/cory-johannsen/holdout/internal/game/session"
	"github.com/cory-johannsen/holdout/internal/game/shop"
	"github.com/cory-johannsen/holdout/internal/game/wave"
	"github.com/cory-johannsen/holdout/internal/observability"
	"github.com/cory-johannsen/holdout/internal/scripting"
	"github.com/cory-johannsen/holdout/internal/storage"
	"github.com/cory-johannsen/holdout/internal/telemetry"
)

// SessionParams are the loaded inputs of one combat session. Store, Scripts, Journal
// and Health may be nil; the matching feature is then disabled.
type SessionParams struct {
	Config   config.SessionConfig
	Schedule *wave.Schedule
	Catalog  *npc.Catalog
	Logger   *zap.Logger
	Store    storage.Store
	Scripts  *scripting.Manager
	Journal  io.Writer
	Health   *health.Server
}

// Session owns every component of one running combat session and ticks them in order.
type Session struct {
	ID           uuid.UUID
	Roster       *session.Roster
	Authority    *Authority
	Orchestrator *Orchestrator
	Shop         *shop.TimedGate

	cfg      config.SessionConfig
	schedule *wave.Schedule
	store    storage.Store
	recorder *telemetry.Recorder
	sparring *Sparring
	health   *HealthReporter
	healthSv *health.Server
	logger   *zap.Logger
}

// NewSession wires a session from p. The session is idle until Begin.
//
// Precondition: p.Schedule, p.Catalog and p.Logger must be non-nil.
func NewSession(p SessionParams) (*Session, error) {
	if p.Schedule == nil || p.Catalog == nil || p.Logger == nil {
		return nil, fmt.Errorf("session: schedule, catalog and logger are required")
	}
	id := uuid.New()
	arena := p.Schedule.Arena.ID
	logger := observability.SessionLogger(p.Logger, id.String(), arena)
	for _, w := range p.Schedule.Warnings() {
		logger.Warn("wave schedule warning", zap.String("detail", w))
	}

	s := &Session{
		ID:        id,
		Roster:    session.NewRoster(),
		Authority: NewAuthority(arena, p.Catalog, npc.NewManager()),
		Shop:      shop.NewTimedGate(p.Config.ShopDuration(), logger.Named("shop")),
		cfg:       p.Config,
		schedule:  p.Schedule,
		store:     p.Store,
		healthSv:  p.Health,
		logger:    logger,
	}

	sinks := []telemetry.Sink{telemetry.NewLogSink(logger)}
	var journal *telemetry.Journal
	if p.Journal != nil {
		journal = telemetry.NewJournal(p.Journal, id.String(), logger)
		sinks = append(sinks, journal)
	}
	if p.Scripts != nil {
		sinks = append(sinks, telemetry.NewScriptSink(p.Scripts, arena))
	}
	if p.Store != nil {
		s.recorder = telemetry.NewRecorder(p.Store, id, arena, telemetry.DefaultRecorderBuffer, logger)
		sinks = append(sinks, s.recorder)
	}

	minPlayers := p.Config.MinPlayers
	d := Deps{
		Schedule:  p.Schedule,
		Authority: s.Authority,
		Census:    s.Roster,
		Ready:     func() bool { return s.Roster.AllSpawned(minPlayers) },
		Shop:      s.Shop,
		Sink:      telemetry.NewFanout(sinks...),
		Logger:    logger,
	}
	if journal != nil {
		d.Replicator = journal
	}
	orch, err := NewOrchestrator(d)
	if err != nil {
		return nil, err
	}
	s.Orchestrator = orch

	if p.Config.SparringBots > 0 {
		s.sparring, err = NewSparring(s.Roster, s.Authority, p.Config.SparringBots, p.Config.SparringDamage,
			p.Schedule.Arena.PlayerSpawn, logger.Named("sparring"))
		if err != nil {
			return nil, err
		}
	}
	if p.Health != nil {
		s.health = NewHealthReporter(p.Health, orch.Phase)
	}
	return s, nil
}

// Begin starts the first wave, resuming after the last recorded clear when configured.
//
// Postcondition: Returns the index the session started at.
func (s *Session) Begin(ctx context.Context) (int, error) {
	start := s.cfg.StartWave
	if s.cfg.Resume && s.store != nil {
		idx, err := storage.ResumeIndex(ctx, s.store, s.schedule.Arena.ID, len(s.schedule.Waves), start)
		if err != nil {
			return 0, fmt.Errorf("resolving resume wave: %w", err)
		}
		s.logger.Info("resuming session", zap.Int("wave_index", idx))
		start = idx
	}
	if err := s.Orchestrator.Begin(start); err != nil {
		return 0, err
	}
	return start, nil
}

// Tick advances the bots, the orchestrator and the health status, in that order.
func (s *Session) Tick(now time.Time) {
	if s.sparring != nil {
		s.sparring.Tick(now)
	}
	s.Orchestrator.Tick(now)
	if s.health != nil {
		s.health.Tick(now)
	}
}

// Recorder returns the wave history writer, or nil without a store.
func (s *Session) Recorder() *telemetry.Recorder { return s.recorder }

// Store returns the wave history store, or nil.
func (s *Session) Store() storage.Store { return s.store }

// HealthServer returns the gRPC health server the session reports to, or nil.
func (s *Session) HealthServer() *health.Server { return s.healthSv }

// Sparring returns the bot driver, or nil when sparring is disabled.
func (s *Session) Sparring() *Sparring { return s.sparring }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Close stops the shop timer and detaches the orchestrator.
func (s *Session) Close() {
	s.Orchestrator.Close()
	s.Shop.Shutdown()
}
