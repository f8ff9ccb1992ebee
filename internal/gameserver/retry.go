package gameserver

import "go.uber.org/zap"

// RetryTarget is the wave state a RetryCoordinator tears down. Methods are called in
// the order they are declared.
type RetryTarget interface {
	// HaltSpawners cancels every spawner of the current wave.
	HaltSpawners()
	// DestroyEntities removes every wave entity that is not part of a boss pool.
	DestroyEntities() int
	// DestroyBossPools destroys the active boss pool and every other pool of the wave,
	// together with their parts.
	DestroyBossPools() int
	// ClearActiveBoss drops the active boss handle and every subscription on it.
	ClearActiveBoss()
	// AdvanceOrRetry restarts (false) or advances (true) the wave sequence.
	AdvanceOrRetry(shouldAdvance bool)
}

// RetryCoordinator resets a wiped wave. It does not decide when to retry.
//
// Execute performs the teardown; the restart is deferred to the next Tick so that
// destruction settles for one tick before the wave starts again.
type RetryCoordinator struct {
	logger   *zap.Logger
	pending  bool
	attempts int
}

// NewRetryCoordinator creates a RetryCoordinator.
//
// Precondition: logger must be non-nil.
func NewRetryCoordinator(logger *zap.Logger) *RetryCoordinator {
	return &RetryCoordinator{logger: logger}
}

// Execute halts spawners, destroys wave entities, destroys boss pools and clears the
// active boss, strictly in that order.
//
// Postcondition: Pending() is true until the next Tick.
func (r *RetryCoordinator) Execute(t RetryTarget) {
	t.HaltSpawners()
	entities := t.DestroyEntities()
	pools := t.DestroyBossPools()
	t.ClearActiveBoss()
	r.pending = true
	r.attempts++
	r.logger.Info("wave torn down for retry",
		zap.Int("entities_destroyed", entities),
		zap.Int("pools_destroyed", pools),
		zap.Int("attempt", r.attempts),
	)
}

// Tick restarts the wave if a retry is pending.
//
// Postcondition: Returns true iff AdvanceOrRetry(false) was called.
func (r *RetryCoordinator) Tick(t RetryTarget) bool {
	if !r.pending {
		return false
	}
	r.pending = false
	t.AdvanceOrRetry(false)
	return true
}

// Pending reports whether a torn-down wave is waiting to restart.
func (r *RetryCoordinator) Pending() bool { return r.pending }

// Attempts returns the number of retries executed.
func (r *RetryCoordinator) Attempts() int { return r.attempts }
