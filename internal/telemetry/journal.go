package telemetry

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/holdout/internal/game/encounter"
)

// Journal appends one protojson-encoded structpb.Struct per line for each session
// event. It doubles as the encounter Replicator: a replicated entity is an
// "entity_replicated" line that downstream consumers pick up.
type Journal struct {
	mu      sync.Mutex
	w       io.Writer
	session string
	now     func() time.Time
	logger  *zap.Logger
	opts    protojson.MarshalOptions
}

// NewJournal creates a Journal writing to w.
//
// Precondition: w and logger must be non-nil.
func NewJournal(w io.Writer, sessionID string, logger *zap.Logger) *Journal {
	return &Journal{
		w:       w,
		session: sessionID,
		now:     time.Now,
		logger:  logger,
		opts:    protojson.MarshalOptions{UseProtoNames: true},
	}
}

// Append writes one event line.
//
// Postcondition: Returns an error if fields cannot be represented as a
// structpb.Struct or the write fails; nothing partial is written on encode failure.
func (j *Journal) Append(event string, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		payload[k] = v
	}
	payload["event"] = event
	payload["session_id"] = j.session

	j.mu.Lock()
	defer j.mu.Unlock()
	payload["at"] = j.now().UTC().Format(time.RFC3339Nano)

	st, err := structpb.NewStruct(payload)
	if err != nil {
		return fmt.Errorf("encoding journal event %q: %w", event, err)
	}
	line, err := j.opts.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshalling journal event %q: %w", event, err)
	}
	if _, err := j.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing journal event %q: %w", event, err)
	}
	return nil
}

func (j *Journal) record(event string, fields map[string]any) {
	if err := j.Append(event, fields); err != nil {
		j.logger.Warn("journal write failed", zap.String("event", event), zap.Error(err))
	}
}

func waveMap(ev WaveEvent) map[string]any {
	return map[string]any{
		"wave_index": ev.Index,
		"wave":       ev.Name,
		"players":    ev.Players,
		"factor":     ev.Factor,
	}
}

// OnWaveStarted appends a wave_started line.
func (j *Journal) OnWaveStarted(name string) {
	j.record("wave_started", map[string]any{"wave": name})
}

// OnBossHealthChanged appends a boss_health line.
func (j *Journal) OnBossHealthChanged(current, total float64) {
	j.record("boss_health", map[string]any{"current": current, "total": total})
}

// OnBossDefeated appends a boss_defeated line.
func (j *Journal) OnBossDefeated() {
	j.record("boss_defeated", nil)
}

// OnWaveCleared appends a wave_cleared line.
func (j *Journal) OnWaveCleared(ev WaveEvent) {
	j.record("wave_cleared", waveMap(ev))
}

// OnWaveRetried appends a wave_retried line.
func (j *Journal) OnWaveRetried(ev WaveEvent) {
	j.record("wave_retried", waveMap(ev))
}

// OnVictory appends a victory line.
func (j *Journal) OnVictory(ev WaveEvent) {
	j.record("victory", waveMap(ev))
}

// Replicate publishes e as an entity_replicated line.
func (j *Journal) Replicate(e encounter.Entity) error {
	fields := map[string]any{"entity_id": e.ID()}
	if p := e.BossPool(); p != nil {
		fields["boss_pool"] = p.ID().String()
		fields["pool_total"] = p.Total()
	}
	return j.Append("entity_replicated", fields)
}
