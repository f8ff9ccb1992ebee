package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/holdout/internal/storage"
)

// DefaultRecorderBuffer is the number of pending records a Recorder queues.
const DefaultRecorderBuffer = 64

// Recorder turns wave outcomes into storage writes off the tick goroutine.
// Notifications are queued without blocking; when the queue is full the record
// is dropped and a warning logged.
type Recorder struct {
	store     storage.Store
	sessionID uuid.UUID
	arena     string
	logger    *zap.Logger
	timeout   time.Duration

	queue    chan storage.WaveRecord
	stopOnce sync.Once
	stop     chan struct{}
}

// NewRecorder creates a Recorder for one session.
//
// Precondition: store and logger must be non-nil; buffer > 0.
func NewRecorder(store storage.Store, sessionID uuid.UUID, arena string, buffer int, logger *zap.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}
	return &Recorder{
		store:     store,
		sessionID: sessionID,
		arena:     arena,
		logger:    logger,
		timeout:   5 * time.Second,
		queue:     make(chan storage.WaveRecord, buffer),
		stop:      make(chan struct{}),
	}
}

func (r *Recorder) enqueue(ev WaveEvent, outcome storage.Outcome) {
	rec := storage.WaveRecord{
		SessionID: r.sessionID,
		Arena:     r.arena,
		WaveIndex: ev.Index,
		WaveName:  ev.Name,
		Outcome:   outcome,
		Players:   ev.Players,
		Factor:    float64(ev.Factor),
	}
	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("wave record dropped; recorder queue full",
			zap.Int("wave_index", ev.Index),
			zap.String("outcome", string(outcome)),
		)
	}
}

// OnWaveStarted is a no-op; only wave outcomes are recorded.
func (r *Recorder) OnWaveStarted(string) {}

// OnBossHealthChanged is a no-op.
func (r *Recorder) OnBossHealthChanged(float64, float64) {}

// OnBossDefeated is a no-op.
func (r *Recorder) OnBossDefeated() {}

// OnWaveCleared queues a cleared record for ev.
func (r *Recorder) OnWaveCleared(ev WaveEvent) { r.enqueue(ev, storage.OutcomeCleared) }

// OnWaveRetried queues a retried record for ev.
func (r *Recorder) OnWaveRetried(ev WaveEvent) { r.enqueue(ev, storage.OutcomeRetried) }

// OnVictory queues a victory record for ev.
func (r *Recorder) OnVictory(ev WaveEvent) { r.enqueue(ev, storage.OutcomeVictory) }

// Start writes queued records until ctx is cancelled or Stop is called, then
// flushes whatever is still queued.
//
// Postcondition: Returns nil; write failures are logged, not returned.
func (r *Recorder) Start(ctx context.Context) error {
	for {
		select {
		case rec := <-r.queue:
			r.write(ctx, rec)
		case <-ctx.Done():
			r.flush()
			return nil
		case <-r.stop:
			r.flush()
			return nil
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Pending returns the number of queued records.
func (r *Recorder) Pending() int {
	return len(r.queue)
}

func (r *Recorder) flush() {
	for {
		select {
		case rec := <-r.queue:
			r.write(context.Background(), rec)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, rec storage.WaveRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if _, err := r.store.RecordWave(ctx, rec); err != nil {
		r.logger.Warn("recording wave outcome failed",
			zap.Int("wave_index", rec.WaveIndex),
			zap.String("outcome", string(rec.Outcome)),
			zap.Error(err),
		)
	}
}
