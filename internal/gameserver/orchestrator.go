package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/holdout/internal/game/boss"
	"github.com/cory-johannsen/holdout/internal/game/encounter"
	"github.com/cory-johannsen/holdout/internal/game/rng"
	"github.com/cory-johannsen/holdout/internal/game/shop"
	"github.com/cory-johannsen/holdout/internal/game/wave"
	"github.com/cory-johannsen/holdout/internal/telemetry"
)

const tracerName = "github.com/cory-johannsen/holdout/internal/gameserver"

// Phase is the orchestrator's position in the wave cycle.
type Phase int

// Orchestrator phases.
const (
	PhaseIdle Phase = iota
	PhaseWaitingForReadiness
	PhaseSpawning
	PhaseAwaitingClear
	PhaseShopOpen
	PhaseRetrying
	PhaseVictory
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaitingForReadiness:
		return "waiting_for_readiness"
	case PhaseSpawning:
		return "spawning"
	case PhaseAwaitingClear:
		return "awaiting_clear"
	case PhaseShopOpen:
		return "shop_open"
	case PhaseRetrying:
		return "retrying"
	case PhaseVictory:
		return "victory"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Errors returned by Begin and AdvanceOrRetry.
var (
	ErrAlreadyStarted = errors.New("orchestrator already started")
	ErrNotStarted     = errors.New("orchestrator not started")
	ErrFinished       = errors.New("session already won")
	ErrWaveInProgress = errors.New("wave in progress")
	ErrWaveOutOfRange = errors.New("start wave out of range")
)

// PlayerCensus reports the participants of the session.
type PlayerCensus interface {
	GetActivePlayerCount() int
	GetAlivePlayerCount() int
	// ResetAll resurrects every participant and moves them to at.
	ResetAll(at wave.Point)
}

// ReadinessSignal reports whether every participant has finished spawning.
type ReadinessSignal func() bool

// ShopGate is the inter-wave shop.
type ShopGate interface {
	Open()
	Subscribe(fn func()) shop.Subscription
	Unsubscribe(s shop.Subscription) bool
}

// SpawnAuthority creates the wave's enemies and reports what is left of them.
type SpawnAuthority interface {
	encounter.Authority
	HostileCount() int
	DestroyEntities() []string
}

// Deps are the collaborators of an Orchestrator. Census, Ready, Shop, Replicator and
// Sink are optional; a missing collaborator is logged once and its phase bypassed.
type Deps struct {
	Schedule   *wave.Schedule
	Authority  SpawnAuthority
	Census     PlayerCensus
	Ready      ReadinessSignal
	Shop       ShopGate
	Replicator encounter.Replicator
	Source     rng.Source
	Sink       telemetry.Sink
	Logger     *zap.Logger
}

// Orchestrator sequences the waves of one session. Tick drives every wait; nothing
// runs on its own goroutine.
//
// Callbacks from other goroutines (shop closed, boss defeated, wipe reports) only
// record a signal under sigMu; the next Tick consumes it under mu.
type Orchestrator struct {
	mu         sync.Mutex
	schedule   *wave.Schedule
	authority  SpawnAuthority
	census     PlayerCensus
	ready      ReadinessSignal
	shop       ShopGate
	shopSub    shop.Subscription
	replicator encounter.Replicator
	source     rng.Source
	sink       telemetry.Sink
	binder     *boss.Binder
	retry      *RetryCoordinator
	tracer     trace.Tracer
	logger     *zap.Logger
	warned     map[string]bool

	phase      Phase
	progress   wave.Progress
	factor     int
	players    int
	waveCtx    context.Context
	cancelWave context.CancelFunc
	span       trace.Span
	spawners   []*encounter.Spawner
	wavePools  []*boss.Pool
	defeatSub  boss.Subscription

	sigMu      sync.Mutex
	shopClosed bool
	wipe       bool
	defeated   []*boss.Pool
}

// NewOrchestrator creates an idle Orchestrator.
//
// Precondition: d.Schedule, d.Authority and d.Logger must be non-nil.
func NewOrchestrator(d Deps) (*Orchestrator, error) {
	if d.Schedule == nil {
		return nil, errors.New("orchestrator: schedule must not be nil")
	}
	if d.Authority == nil {
		return nil, errors.New("orchestrator: spawn authority must not be nil")
	}
	if d.Logger == nil {
		return nil, errors.New("orchestrator: logger must not be nil")
	}
	noSink := d.Sink == nil
	if noSink {
		d.Sink = telemetry.Nop{}
	}
	if d.Source == nil {
		d.Source = rng.NewCryptoSource()
	}
	o := &Orchestrator{
		schedule:   d.Schedule,
		authority:  d.Authority,
		census:     d.Census,
		ready:      d.Ready,
		shop:       d.Shop,
		replicator: d.Replicator,
		source:     d.Source,
		sink:       d.Sink,
		binder:     boss.NewBinder(d.Sink),
		retry:      NewRetryCoordinator(d.Logger),
		tracer:     otel.Tracer(tracerName),
		logger:     d.Logger,
		warned:     make(map[string]bool),
		progress:   wave.Progress{CurrentWaveIndex: -1},
	}
	if noSink {
		o.warnOnce("sink", "no presentation sink; wave and boss events are not displayed")
	}
	if o.shop != nil {
		o.shopSub = o.shop.Subscribe(o.onShopClosed)
	}
	return o, nil
}

// Begin starts the session at wave start.
//
// Postcondition: On success the orchestrator waits for readiness. Returns
// wave.ErrNoWaves for an empty schedule and ErrWaveOutOfRange for a bad start.
func (o *Orchestrator) Begin(start int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseIdle {
		return ErrAlreadyStarted
	}
	if len(o.schedule.Waves) == 0 {
		o.logger.Error("cannot begin session", zap.Error(wave.ErrNoWaves))
		return wave.ErrNoWaves
	}
	if start < 0 || start >= len(o.schedule.Waves) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrWaveOutOfRange, start, len(o.schedule.Waves))
	}
	if o.census == nil {
		o.warnOnce("census", "no player census; scaling factor fixed at 1")
	}
	if o.shop == nil {
		o.warnOnce("shop", "no shop gate; shop phase is skipped")
	}
	o.progress = wave.Progress{CurrentWaveIndex: start}
	o.phase = PhaseWaitingForReadiness
	o.logger.Info("session started",
		zap.Int("start_wave", start),
		zap.Int("waves", len(o.schedule.Waves)),
	)
	return nil
}

// AdvanceOrRetry re-enters the wave cycle: advancing moves to the next wave or
// declares victory after the last one; retrying restarts the current wave.
//
// Postcondition: Returns ErrWaveInProgress while spawning, clearing or retrying.
func (o *Orchestrator) AdvanceOrRetry(shouldAdvance bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.phase {
	case PhaseIdle:
		return ErrNotStarted
	case PhaseVictory:
		return ErrFinished
	case PhaseSpawning, PhaseAwaitingClear, PhaseRetrying:
		return ErrWaveInProgress
	}
	o.advanceOrRetryLocked(shouldAdvance)
	return nil
}

// ReportWipe requests a retry of the current wave. Safe to call from any goroutine;
// ignored unless a wave is spawning or awaiting clear at the next Tick.
func (o *Orchestrator) ReportWipe() {
	o.sigMu.Lock()
	defer o.sigMu.Unlock()
	o.wipe = true
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Progress returns a copy of the wave progress.
func (o *Orchestrator) Progress() wave.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Factor returns the scaling factor of the current wave, or 0 before the first launch.
func (o *Orchestrator) Factor() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.factor
}

// RetryAttempts returns the number of retries executed this session.
func (o *Orchestrator) RetryAttempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retry.Attempts()
}

// Close detaches the orchestrator from the shop gate and cancels the running wave.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.shop != nil {
		o.shop.Unsubscribe(o.shopSub)
	}
	o.haltSpawnersLocked()
	o.binder.Detach()
	o.endSpanLocked("closed")
}

// Tick advances the state machine to now.
func (o *Orchestrator) Tick(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := o.phase
	shopClosed, wipe, defeated := o.drainSignals()
	for _, p := range defeated {
		o.onDefeatLocked(p)
	}

	if o.phase == PhaseRetrying {
		o.retry.Tick(lockedTarget{o})
	}

	if o.phase == PhaseWaitingForReadiness {
		if !o.readyLocked() {
			return
		}
		o.launchLocked(now)
	}

	if o.phase == PhaseSpawning || o.phase == PhaseAwaitingClear {
		active := start == PhaseSpawning || start == PhaseAwaitingClear
		if (wipe && active) || o.partyWipedLocked() {
			o.retryLocked()
			return
		}
	}

	if o.phase == PhaseSpawning {
		if o.stepSpawnersLocked(now) {
			o.phase = PhaseAwaitingClear
		}
	}

	if o.phase == PhaseAwaitingClear && o.authority.HostileCount() == 0 {
		o.clearLocked()
	}

	if o.phase == PhaseShopOpen && start == PhaseShopOpen && shopClosed {
		o.advanceOrRetryLocked(true)
	}
}

func (o *Orchestrator) drainSignals() (shopClosed, wipe bool, defeated []*boss.Pool) {
	o.sigMu.Lock()
	defer o.sigMu.Unlock()
	shopClosed, wipe, defeated = o.shopClosed, o.wipe, o.defeated
	o.shopClosed, o.wipe, o.defeated = false, false, nil
	return shopClosed, wipe, defeated
}

func (o *Orchestrator) onShopClosed() {
	o.sigMu.Lock()
	defer o.sigMu.Unlock()
	o.shopClosed = true
}

func (o *Orchestrator) readyLocked() bool {
	if o.ready == nil {
		o.warnOnce("readiness", "no readiness signal; waves launch immediately")
		return true
	}
	return o.ready()
}

func (o *Orchestrator) currentWave() wave.Wave {
	return o.schedule.Waves[o.progress.CurrentWaveIndex]
}

// launchLocked snapshots scaling, resets the participants and starts every spawner.
func (o *Orchestrator) launchLocked(now time.Time) {
	w := o.currentWave()
	arena := o.schedule.Arena

	o.players = 0
	if o.census != nil {
		o.players = o.census.GetActivePlayerCount()
		o.census.ResetAll(arena.PlayerSpawnFor(w))
	}
	o.factor = wave.ScalingFactor(o.players)

	o.waveCtx, o.cancelWave = context.WithCancel(context.Background())
	_, o.span = o.tracer.Start(o.waveCtx, "wave",
		trace.WithAttributes(
			attribute.Int("wave.index", o.progress.CurrentWaveIndex),
			attribute.String("wave.name", w.Name),
			attribute.Int("wave.factor", o.factor),
			attribute.Int("wave.players", o.players),
		),
	)
	o.sink.OnWaveStarted(w.Name)
	o.logger.Info("wave launched",
		zap.Int("wave_index", o.progress.CurrentWaveIndex),
		zap.String("wave", w.Name),
		zap.Int("factor", o.factor),
	)

	o.spawners = nil
	o.phase = PhaseSpawning
	if !arena.HasSpawnSource() {
		o.logger.Error("wave has no spawn points and no origin; no enemies spawned",
			zap.String("wave", w.Name))
		o.phase = PhaseAwaitingClear
		return
	}

	wctx := &encounter.Context{
		Arena:      arena,
		Wave:       w,
		WaveIndex:  o.progress.CurrentWaveIndex,
		Factor:     o.factor,
		Authority:  o.authority,
		Replicator: o.replicator,
		Source:     o.source,
		BossAlive:  o.bossAliveLocked,
		OnBoss:     o.registerBossLocked,
		Logger:     o.logger,
	}
	// Boss groups go first so unbounded groups due in the same tick see their boss.
	groups := append([]wave.EncounterGroup(nil), w.Groups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Boss && !groups[j].Boss })
	for _, g := range groups {
		o.spawners = append(o.spawners, encounter.New(g, wctx, now))
	}
}

// stepSpawnersLocked steps every spawner and reports whether all have finished.
func (o *Orchestrator) stepSpawnersLocked(now time.Time) bool {
	done := true
	for _, s := range o.spawners {
		if !s.Step(o.waveCtx, now) {
			done = false
		}
	}
	return done
}

func (o *Orchestrator) partyWipedLocked() bool {
	if o.census == nil || !o.currentWave().HasMajorBoss() {
		return false
	}
	return o.census.GetActivePlayerCount() > 0 && o.census.GetAlivePlayerCount() == 0
}

func (o *Orchestrator) bossAliveLocked() bool {
	return o.progress.ActiveBoss != nil && o.progress.ActiveBoss.Alive()
}

// registerBossLocked makes p the active boss, moving the display and the defeat
// subscription off the previous pool first.
func (o *Orchestrator) registerBossLocked(p *boss.Pool) {
	o.wavePools = append(o.wavePools, p)
	if prev := o.progress.ActiveBoss; prev != nil {
		prev.Unsubscribe(o.defeatSub)
	}
	o.progress.ActiveBoss = p
	o.binder.Initialize(p)
	o.defeatSub = p.OnDefeated(func() {
		o.sigMu.Lock()
		defer o.sigMu.Unlock()
		o.defeated = append(o.defeated, p)
	})
	o.sink.OnBossHealthChanged(p.Current(), p.Total())
}

func (o *Orchestrator) onDefeatLocked(p *boss.Pool) {
	if o.span != nil {
		o.span.AddEvent("boss defeated", trace.WithAttributes(attribute.String("boss.pool", p.ID().String())))
	}
	o.logger.Info("boss defeated", zap.String("pool", p.ID().String()))
	if o.progress.ActiveBoss != p {
		return
	}
	o.progress.ActiveBoss = nil
	o.defeatSub = boss.Subscription{}
	o.binder.Detach()
}

func (o *Orchestrator) clearLocked() {
	ev := o.eventLocked()
	o.phase = PhaseShopOpen
	o.spawners = nil
	o.wavePools = nil
	if o.cancelWave != nil {
		o.cancelWave()
	}
	o.sink.OnWaveCleared(ev)
	o.endSpanLocked("cleared")
	if o.shop == nil {
		o.warnOnce("shop", "no shop gate; shop phase is skipped")
		o.advanceOrRetryLocked(true)
		return
	}
	o.shop.Open()
}

func (o *Orchestrator) retryLocked() {
	ev := o.eventLocked()
	o.logger.Info("party wiped; retrying wave",
		zap.Int("wave_index", ev.Index),
		zap.String("wave", ev.Name),
	)
	if o.span != nil {
		o.span.AddEvent("wipe")
	}
	o.endSpanLocked("retried")
	o.retry.Execute(lockedTarget{o})
	o.phase = PhaseRetrying
	o.sink.OnWaveRetried(ev)
}

func (o *Orchestrator) advanceOrRetryLocked(shouldAdvance bool) {
	if shouldAdvance && o.progress.CurrentWaveIndex+1 >= len(o.schedule.Waves) {
		ev := o.eventLocked()
		o.phase = PhaseVictory
		o.logger.Info("all waves cleared", zap.Int("waves", len(o.schedule.Waves)))
		o.sink.OnVictory(ev)
		return
	}
	if shouldAdvance {
		o.progress.CurrentWaveIndex++
	}
	o.phase = PhaseWaitingForReadiness
}

func (o *Orchestrator) haltSpawnersLocked() {
	if o.cancelWave != nil {
		o.cancelWave()
	}
	for _, s := range o.spawners {
		s.Step(o.waveCtx, time.Time{})
	}
	o.spawners = nil
}

func (o *Orchestrator) eventLocked() telemetry.WaveEvent {
	return telemetry.WaveEvent{
		Index:   o.progress.CurrentWaveIndex,
		Name:    o.currentWave().Name,
		Players: o.players,
		Factor:  o.factor,
	}
}

func (o *Orchestrator) endSpanLocked(outcome string) {
	if o.span == nil {
		return
	}
	o.span.SetAttributes(attribute.String("wave.outcome", outcome))
	o.span.End()
	o.span = nil
}

func (o *Orchestrator) warnOnce(key, msg string) {
	if o.warned[key] {
		return
	}
	o.warned[key] = true
	o.logger.Warn(msg)
}

// lockedTarget exposes the orchestrator to the RetryCoordinator while mu is held.
type lockedTarget struct{ o *Orchestrator }

func (t lockedTarget) HaltSpawners() { t.o.haltSpawnersLocked() }

func (t lockedTarget) DestroyEntities() int { return len(t.o.authority.DestroyEntities()) }

func (t lockedTarget) DestroyBossPools() int {
	n := 0
	if p := t.o.progress.ActiveBoss; p != nil {
		p.Destroy()
		n++
	}
	for _, p := range t.o.wavePools {
		if p != t.o.progress.ActiveBoss {
			p.Destroy()
			n++
		}
	}
	return n
}

func (t lockedTarget) ClearActiveBoss() {
	t.o.progress.ActiveBoss = nil
	t.o.defeatSub = boss.Subscription{}
	t.o.wavePools = nil
	t.o.binder.Detach()
}

func (t lockedTarget) AdvanceOrRetry(shouldAdvance bool) { t.o.advanceOrRetryLocked(shouldAdvance) }
