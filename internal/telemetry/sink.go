// Package telemetry delivers session notifications to display, logging, journal,
// scripting and persistence consumers.
package telemetry

// WaveEvent describes one wave attempt at the moment it ended.
type WaveEvent struct {
	// Index is the zero-based wave index within the schedule.
	Index   int
	Name    string
	Players int
	// Factor is the scaling factor snapshotted when the wave launched.
	Factor int
}

// Sink receives session notifications.
//
// Every method is called from the tick goroutine and must not block.
type Sink interface {
	OnWaveStarted(name string)
	OnBossHealthChanged(current, total float64)
	OnBossDefeated()
	OnWaveCleared(ev WaveEvent)
	OnWaveRetried(ev WaveEvent)
	OnVictory(ev WaveEvent)
}

// Nop is a Sink that discards every notification.
type Nop struct{}

func (Nop) OnWaveStarted(string) {}
func (Nop) OnBossHealthChanged(float64, float64) {}
func (Nop) OnBossDefeated() {}
func (Nop) OnWaveCleared(WaveEvent) {}
func (Nop) OnWaveRetried(WaveEvent) {}
func (Nop) OnVictory(WaveEvent) {}

// Fanout forwards each notification to every sink in order.
type Fanout []Sink

// NewFanout builds a Fanout, skipping nil sinks.
func NewFanout(sinks ...Sink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// OnWaveStarted forwards the wave start to every sink.
func (f Fanout) OnWaveStarted(name string) {
	for _, s := range f {
		s.OnWaveStarted(name)
	}
}

// OnBossHealthChanged forwards a boss health change to every sink.
func (f Fanout) OnBossHealthChanged(current, total float64) {
	for _, s := range f {
		s.OnBossHealthChanged(current, total)
	}
}

// OnBossDefeated forwards a boss defeat to every sink.
func (f Fanout) OnBossDefeated() {
	for _, s := range f {
		s.OnBossDefeated()
	}
}

// OnWaveCleared forwards a cleared wave to every sink.
func (f Fanout) OnWaveCleared(ev WaveEvent) {
	for _, s := range f {
		s.OnWaveCleared(ev)
	}
}

// OnWaveRetried forwards a retried wave to every sink.
func (f Fanout) OnWaveRetried(ev WaveEvent) {
	for _, s := range f {
		s.OnWaveRetried(ev)
	}
}

// OnVictory forwards the victory to every sink.
func (f Fanout) OnVictory(ev WaveEvent) {
	for _, s := range f {
		s.OnVictory(ev)
	}
}
