package telemetry

import "go.uber.org/zap"

// LogSink writes every notification to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
//
// Precondition: logger must be non-nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func waveFields(ev WaveEvent) []zap.Field {
	return []zap.Field{
		zap.Int("wave_index", ev.Index),
		zap.String("wave", ev.Name),
		zap.Int("players", ev.Players),
		zap.Int("factor", ev.Factor),
	}
}

// OnWaveStarted logs the wave start.
func (s *LogSink) OnWaveStarted(name string) {
	s.logger.Info("wave started", zap.String("wave", name))
}

// OnBossHealthChanged logs a boss health change.
func (s *LogSink) OnBossHealthChanged(current, total float64) {
	s.logger.Debug("boss health changed",
		zap.Float64("current", current),
		zap.Float64("total", total),
	)
}

// OnBossDefeated logs a boss defeat.
func (s *LogSink) OnBossDefeated() {
	s.logger.Info("boss defeated")
}

// OnWaveCleared logs a cleared wave.
func (s *LogSink) OnWaveCleared(ev WaveEvent) {
	s.logger.Info("wave cleared", waveFields(ev)...)
}

// OnWaveRetried logs a retried wave.
func (s *LogSink) OnWaveRetried(ev WaveEvent) {
	s.logger.Info("wave retried", waveFields(ev)...)
}

// OnVictory logs the victory.
func (s *LogSink) OnVictory(ev WaveEvent) {
	s.logger.Info("victory", waveFields(ev)...)
}
