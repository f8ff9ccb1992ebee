package gameserver_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holdout/internal/game/boss"
	"github.com/cory-johannsen/holdout/internal/game/npc"
	"github.com/cory-johannsen/holdout/internal/game/rng"
	"github.com/cory-johannsen/holdout/internal/game/session"
	"github.com/cory-johannsen/holdout/internal/game/shop"
	"github.com/cory-johannsen/holdout/internal/game/wave"
	"github.com/cory-johannsen/holdout/internal/gameserver"
	"github.com/cory-johannsen/holdout/internal/telemetry"
)

var t0 = time.Unix(1_700_000_000, 0)

// recordingSink records every notification as "kind:wave".
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) add(e string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) OnWaveStarted(name string) { s.add("started:" + name) }
func (s *recordingSink) OnBossHealthChanged(current, total float64) { s.add("health") }
func (s *recordingSink) OnBossDefeated() { s.add("defeated") }
func (s *recordingSink) OnWaveCleared(ev telemetry.WaveEvent) { s.add("cleared:" + ev.Name) }
func (s *recordingSink) OnWaveRetried(ev telemetry.WaveEvent) { s.add("retried:" + ev.Name) }
func (s *recordingSink) OnVictory(ev telemetry.WaveEvent) { s.add("victory:" + ev.Name) }

func (s *recordingSink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func (s *recordingSink) has(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

func testCatalog(t require.TestingT) *npc.Catalog {
	cat, err := npc.NewCatalog([]*npc.Template{
		{ID: "scrapper", Name: "Scrapper", MaxHP: 10},
		{ID: "furnace_core", Name: "Furnace Core", MaxHP: 100, Boss: &npc.BossSpec{PoolHealth: 1000, Parts: []string{"furnace_wall"}}},
		{ID: "furnace_wall", Name: "Furnace Wall", MaxHP: 50},
	})
	require.NoError(t, err)
	return cat
}

func testArena() wave.Arena {
	return wave.Arena{
		ID:               "foundry",
		EnemySpawnPoints: []wave.Point{{X: 5, Y: 5}},
		PlayerSpawn:      wave.Point{X: 0, Y: 0},
	}
}

func scrapperWave(name string) wave.Wave {
	return wave.Wave{Name: name, Groups: []wave.EncounterGroup{{Prototype: "scrapper", Count: 1}}}
}

func furnaceWave() wave.Wave {
	return wave.Wave{
		Name: "Furnace",
		Groups: []wave.EncounterGroup{
			{Prototype: "scrapper", Count: 0, Interval: time.Second},
			{Prototype: "furnace_core", Boss: true, MajorBoss: true},
		},
	}
}

type fixture struct {
	orch      *gameserver.Orchestrator
	roster    *session.Roster
	gate      *shop.TimedGate
	authority *gameserver.Authority
	sink      *recordingSink
}

type fixtureOpts struct {
	noShop   bool
	noCensus bool
	logger   *zap.Logger
}

func newFixture(t require.TestingT, sched *wave.Schedule, opts fixtureOpts) *fixture {
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &fixture{
		roster:    session.NewRoster(),
		gate:      shop.NewTimedGate(0, logger),
		authority: gameserver.NewAuthority(sched.Arena.ID, testCatalog(t), npc.NewManager()),
		sink:      &recordingSink{},
	}
	_, err := f.roster.AddPlayer("u1", "Ana")
	require.NoError(t, err)
	require.NoError(t, f.roster.MarkSpawned("u1", wave.Point{}))

	d := gameserver.Deps{
		Schedule:  sched,
		Authority: f.authority,
		Ready:     func() bool { return f.roster.AllSpawned(1) },
		Source:    rng.NewSequenceSource(0),
		Sink:      f.sink,
		Logger:    logger,
	}
	if !opts.noShop {
		d.Shop = f.gate
	}
	if !opts.noCensus {
		d.Census = f.roster
	}
	f.orch, err = gameserver.NewOrchestrator(d)
	require.NoError(t, err)
	return f
}

func (f *fixture) killAll() {
	for {
		id, ok := f.authority.FirstHostile()
		if !ok {
			return
		}
		_, _ = f.authority.ApplyDamage(id, 1e9)
	}
}

func schedule(waves ...wave.Wave) *wave.Schedule {
	return &wave.Schedule{Arena: testArena(), Waves: waves}
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	auth := gameserver.NewAuthority("foundry", testCatalog(t), npc.NewManager())
	_, err := gameserver.NewOrchestrator(gameserver.Deps{Authority: auth, Logger: zap.NewNop()})
	assert.Error(t, err)
	_, err = gameserver.NewOrchestrator(gameserver.Deps{Schedule: schedule(), Logger: zap.NewNop()})
	assert.Error(t, err)
	_, err = gameserver.NewOrchestrator(gameserver.Deps{Schedule: schedule(), Authority: auth})
	assert.Error(t, err)
}

func TestOrchestrator_BeginValidation(t *testing.T) {
	f := newFixture(t, schedule(), fixtureOpts{})
	assert.ErrorIs(t, f.orch.Begin(0), wave.ErrNoWaves)
	assert.Equal(t, gameserver.PhaseIdle, f.orch.Phase())

	f = newFixture(t, schedule(scrapperWave("One")), fixtureOpts{})
	assert.ErrorIs(t, f.orch.Begin(1), gameserver.ErrWaveOutOfRange)
	assert.ErrorIs(t, f.orch.Begin(-1), gameserver.ErrWaveOutOfRange)
	require.NoError(t, f.orch.Begin(0))
	assert.ErrorIs(t, f.orch.Begin(0), gameserver.ErrAlreadyStarted)
}

func TestOrchestrator_AdvanceOrRetryRejectedOutsideShop(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two")), fixtureOpts{})
	assert.ErrorIs(t, f.orch.AdvanceOrRetry(true), gameserver.ErrNotStarted)

	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	require.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase())
	assert.ErrorIs(t, f.orch.AdvanceOrRetry(true), gameserver.ErrWaveInProgress)
	assert.Equal(t, 0, f.orch.Progress().CurrentWaveIndex)
}

func TestOrchestrator_WaitsForReadiness(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One")), fixtureOpts{})
	require.NoError(t, f.roster.RemovePlayer("u1"))
	require.NoError(t, f.orch.Begin(0))

	f.orch.Tick(t0)
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, gameserver.PhaseWaitingForReadiness, f.orch.Phase())
	assert.False(t, f.sink.has("started:"))
	assert.Equal(t, 0, f.authority.HostileCount())

	_, err := f.roster.AddPlayer("u2", "Bo")
	require.NoError(t, err)
	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, gameserver.PhaseWaitingForReadiness, f.orch.Phase(), "registered but not spawned")

	require.NoError(t, f.roster.MarkSpawned("u2", wave.Point{}))
	f.orch.Tick(t0.Add(3 * time.Second))
	assert.Equal(t, 1, f.sink.count("started:One"))
	assert.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase())
}

func TestOrchestrator_ShopOpensOnlyAfterClear(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))

	f.orch.Tick(t0)
	assert.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase())
	assert.False(t, f.gate.IsOpen())
	f.orch.Tick(t0.Add(time.Second))
	assert.False(t, f.gate.IsOpen())

	f.killAll()
	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
	assert.True(t, f.gate.IsOpen())
	assert.Equal(t, 1, f.sink.count("cleared:One"))

	f.gate.Close()
	f.orch.Tick(t0.Add(3 * time.Second))
	assert.Equal(t, gameserver.PhaseWaitingForReadiness, f.orch.Phase())
	assert.Equal(t, 1, f.orch.Progress().CurrentWaveIndex)

	f.orch.Tick(t0.Add(4 * time.Second))
	assert.Equal(t, 1, f.sink.count("started:Two"))
}

func TestOrchestrator_ShopClosedBeforeOpenIsIgnored(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)

	f.gate.Open()
	f.gate.Close()
	f.killAll()
	f.orch.Tick(t0.Add(time.Second))
	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
	assert.Equal(t, 0, f.orch.Progress().CurrentWaveIndex)
}

// Scenario D: clearing the last of three waves wins the session without a fourth start.
func TestOrchestrator_VictoryAfterLastWave(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two"), scrapperWave("Three")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(2))
	f.orch.Tick(t0)
	f.killAll()
	f.orch.Tick(t0.Add(time.Second))
	require.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())

	require.NoError(t, f.orch.AdvanceOrRetry(true))
	assert.Equal(t, gameserver.PhaseVictory, f.orch.Phase())
	assert.Equal(t, 1, f.sink.count("victory:Three"))

	f.gate.Close()
	for i := 2; i < 6; i++ {
		f.orch.Tick(t0.Add(time.Duration(i) * time.Second))
	}
	assert.Equal(t, gameserver.PhaseVictory, f.orch.Phase())
	assert.Equal(t, 2, f.orch.Progress().CurrentWaveIndex)
	assert.Equal(t, 1, f.sink.count("started:Three"))
	assert.Equal(t, 1, f.sink.count("victory:Three"))
	assert.ErrorIs(t, f.orch.AdvanceOrRetry(true), gameserver.ErrFinished)
}

func TestOrchestrator_VictoryViaShopClose(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("Only")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	f.killAll()
	f.orch.Tick(t0.Add(time.Second))
	f.gate.Close()
	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, gameserver.PhaseVictory, f.orch.Phase())
	assert.Equal(t, 1, f.sink.count("victory:Only"))
}

// Scenario E: a wipe during the boss wave tears it down and restarts the same wave.
func TestOrchestrator_WipeRetriesSameWave(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("Opening"), furnaceWave()), fixtureOpts{})
	require.NoError(t, f.orch.Begin(1))

	f.orch.Tick(t0)
	require.Equal(t, gameserver.PhaseSpawning, f.orch.Phase())
	pool := f.orch.Progress().ActiveBoss
	require.NotNil(t, pool)
	assert.Equal(t, 3, f.authority.HostileCount(), "core, wall and one minion")

	require.NoError(t, f.roster.MarkDead("u1"))
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, gameserver.PhaseRetrying, f.orch.Phase())
	assert.Equal(t, 0, f.authority.HostileCount())
	assert.Nil(t, f.orch.Progress().ActiveBoss)
	assert.False(t, pool.Alive())
	assert.Equal(t, 0, pool.SubscriberCount())
	assert.Equal(t, 0, f.authority.Registry().Len())
	assert.Equal(t, 1, f.sink.count("retried:Furnace"))
	assert.Equal(t, 0, f.sink.count("defeated"), "teardown is not a defeat")

	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, 1, f.orch.Progress().CurrentWaveIndex)
	assert.Equal(t, 2, f.sink.count("started:Furnace"))
	assert.Equal(t, 1, f.orch.RetryAttempts())
	assert.Equal(t, 1, f.roster.GetAlivePlayerCount())
	require.NotNil(t, f.orch.Progress().ActiveBoss)
	assert.NotSame(t, pool, f.orch.Progress().ActiveBoss)
}

func TestOrchestrator_NoWipeWithoutMajorBoss(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	require.NoError(t, f.roster.MarkDead("u1"))
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase())
}

func TestOrchestrator_ReportWipe(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two")), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))

	f.orch.ReportWipe()
	f.orch.Tick(t0)
	assert.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase(), "a wipe reported before launch is dropped")

	f.orch.ReportWipe()
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, gameserver.PhaseRetrying, f.orch.Phase())

	f.orch.Tick(t0.Add(2 * time.Second))
	f.killAll()
	f.orch.Tick(t0.Add(3 * time.Second))
	require.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
	f.orch.ReportWipe()
	f.orch.Tick(t0.Add(4 * time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
}

func TestOrchestrator_BossDefeatStopsUnboundedAndClears(t *testing.T) {
	f := newFixture(t, schedule(furnaceWave()), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, 4, f.authority.HostileCount(), "two minions while the boss lives")

	pool := f.orch.Progress().ActiveBoss
	require.NotNil(t, pool)
	parts := f.authority.Registry().PartsOf(pool.ID())
	require.Len(t, parts, 2)
	_, err := f.authority.ApplyDamage(parts[1], 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sink.count("defeated"))

	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Nil(t, f.orch.Progress().ActiveBoss)
	assert.Equal(t, gameserver.PhaseAwaitingClear, f.orch.Phase())
	assert.Equal(t, 2, f.authority.HostileCount(), "parts destroyed with the pool")

	f.orch.Tick(t0.Add(5 * time.Second))
	assert.Equal(t, 2, f.authority.HostileCount(), "no minions after the boss falls")
	f.killAll()
	f.orch.Tick(t0.Add(6 * time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
}

func TestOrchestrator_BossDefeatClearsWithoutWaitingForInterval(t *testing.T) {
	w := wave.Wave{Name: "Slow Pour", Groups: []wave.EncounterGroup{
		{Prototype: "scrapper", Count: 0, Interval: 30 * time.Second},
		{Prototype: "furnace_core", Boss: true, MajorBoss: true},
	}}
	f := newFixture(t, schedule(w), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	require.Equal(t, gameserver.PhaseSpawning, f.orch.Phase())

	f.killAll()
	require.Equal(t, 0, f.authority.HostileCount())
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
	assert.Equal(t, 1, f.sink.count("cleared:Slow Pour"))
}

func TestOrchestrator_RebindMovesSubscriptionsToNewBoss(t *testing.T) {
	w := wave.Wave{Name: "Twins", Groups: []wave.EncounterGroup{
		{Prototype: "furnace_core", Boss: true},
		{Prototype: "furnace_core", Boss: true},
	}}
	f := newFixture(t, schedule(w), fixtureOpts{})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)

	first, ok := f.authority.Registry().Pool(boss.PoolID{Arena: "foundry", Index: 0})
	require.True(t, ok)
	second, ok := f.authority.Registry().Pool(boss.PoolID{Arena: "foundry", Index: 1})
	require.True(t, ok)
	assert.Same(t, second, f.orch.Progress().ActiveBoss)
	assert.Equal(t, 0, first.SubscriberCount())
	assert.Equal(t, 3, second.SubscriberCount())

	first.TakeDamage(first.Total())
	f.orch.Tick(t0.Add(time.Second))
	assert.Same(t, second, f.orch.Progress().ActiveBoss)
	assert.Equal(t, 0, f.sink.count("defeated"))
}

func TestOrchestrator_MissingShopAdvancesImmediately(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, schedule(scrapperWave("One"), scrapperWave("Two")), fixtureOpts{noShop: true, logger: zap.New(core)})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	f.killAll()
	f.orch.Tick(t0.Add(time.Second))

	assert.Equal(t, gameserver.PhaseWaitingForReadiness, f.orch.Phase())
	assert.Equal(t, 1, f.orch.Progress().CurrentWaveIndex)
	assert.Equal(t, 1, logs.FilterMessage("no shop gate; shop phase is skipped").Len())
}

func TestOrchestrator_MissingCensusUsesUnitFactor(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, schedule(scrapperWave("One")), fixtureOpts{noCensus: true, logger: zap.New(core)})
	_, err := f.roster.AddPlayer("u2", "Bo")
	require.NoError(t, err)
	require.NoError(t, f.roster.MarkSpawned("u2", wave.Point{}))
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)

	assert.Equal(t, 1, f.orch.Factor())
	assert.Equal(t, 1, f.authority.HostileCount())
	assert.Equal(t, 1, logs.FilterMessage("no player census; scaling factor fixed at 1").Len())
}

func TestNewOrchestrator_MissingSinkLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	auth := gameserver.NewAuthority("foundry", testCatalog(t), npc.NewManager())
	o, err := gameserver.NewOrchestrator(gameserver.Deps{
		Schedule:  schedule(scrapperWave("One")),
		Authority: auth,
		Ready:     func() bool { return true },
		Logger:    zap.New(core),
	})
	require.NoError(t, err)
	require.NoError(t, o.Begin(0))
	o.Tick(t0)

	assert.Equal(t, gameserver.PhaseAwaitingClear, o.Phase())
	assert.Equal(t, 1, logs.FilterMessage("no presentation sink; wave and boss events are not displayed").Len())
}

func TestOrchestrator_FactorSnapshotAtLaunch(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One")), fixtureOpts{})
	_, err := f.roster.AddPlayer("u2", "Bo")
	require.NoError(t, err)
	require.NoError(t, f.roster.MarkSpawned("u2", wave.Point{}))
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	assert.Equal(t, 2, f.orch.Factor())
	assert.Equal(t, 2, f.authority.HostileCount())

	_, err = f.roster.AddPlayer("u3", "Cy")
	require.NoError(t, err)
	f.orch.Tick(t0.Add(time.Second))
	assert.Equal(t, 2, f.orch.Factor())
}

func TestOrchestrator_NoSpawnSourceClearsEmptyWave(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sched := &wave.Schedule{Arena: wave.Arena{ID: "void"}, Waves: []wave.Wave{scrapperWave("One"), scrapperWave("Two")}}
	f := newFixture(t, sched, fixtureOpts{logger: zap.New(core)})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)

	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
	assert.Equal(t, 1, logs.FilterMessage("wave has no spawn points and no origin; no enemies spawned").Len())
}

func TestOrchestrator_ResetsParticipantsAtLaunch(t *testing.T) {
	alt := wave.Point{X: 9, Y: 9}
	sched := schedule(wave.Wave{Name: "Alt", UseAlternateSpawn: true, Groups: []wave.EncounterGroup{{Prototype: "scrapper", Count: 1}}})
	sched.Arena.AlternatePlayerSpawn = &alt
	f := newFixture(t, sched, fixtureOpts{})
	require.NoError(t, f.roster.Move("u1", wave.Point{X: 1, Y: 1}))
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)

	p, ok := f.roster.Get("u1")
	require.True(t, ok)
	assert.Equal(t, alt, p.Position)
}

func TestOrchestrator_CloseUnsubscribesShop(t *testing.T) {
	f := newFixture(t, schedule(scrapperWave("One")), fixtureOpts{logger: zaptest.NewLogger(t)})
	require.NoError(t, f.orch.Begin(0))
	f.orch.Tick(t0)
	f.orch.Close()
	f.killAll()
	f.orch.Tick(t0.Add(time.Second))
	f.gate.Close()
	f.orch.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, gameserver.PhaseShopOpen, f.orch.Phase())
}

func TestProperty_Orchestrator_RetryPreservesWaveIndex(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "waves")
		start := rapid.IntRange(0, n-1).Draw(rt, "start")
		retries := rapid.IntRange(1, 4).Draw(rt, "retries")

		waves := make([]wave.Wave, n)
		for i := range waves {
			waves[i] = scrapperWave(string(rune('A' + i)))
		}
		f := newFixture(rt, schedule(waves...), fixtureOpts{})
		if err := f.orch.Begin(start); err != nil {
			rt.Fatalf("begin: %v", err)
		}
		now := t0
		f.orch.Tick(now)
		for i := 0; i < retries; i++ {
			f.orch.ReportWipe()
			now = now.Add(time.Second)
			f.orch.Tick(now)
			now = now.Add(time.Second)
			f.orch.Tick(now)
		}
		if got := f.orch.Progress().CurrentWaveIndex; got != start {
			rt.Fatalf("wave index %d after %d retries, want %d", got, retries, start)
		}
		if got := f.sink.count("started:" + waves[start].Name); got != retries+1 {
			rt.Fatalf("wave started %d times, want %d", got, retries+1)
		}
		if got := f.authority.HostileCount(); got != 1 {
			rt.Fatalf("hostiles %d, want exactly the relaunched wave", got)
		}
	})
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "shop_open", gameserver.PhaseShopOpen.String())
	assert.Equal(t, "phase(99)", gameserver.Phase(99).String())
}
