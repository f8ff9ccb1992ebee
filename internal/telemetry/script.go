package telemetry

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/holdout/internal/scripting"
)

// Lua hook names invoked by ScriptSink.
const (
	HookWaveStarted  = "on_wave_started"
	HookBossHealth   = "on_boss_health"
	HookBossDefeated = "on_boss_defeated"
	HookWaveCleared  = "on_wave_cleared"
	HookWaveRetried  = "on_wave_retried"
	HookVictory      = "on_victory"
)

// ScriptSink forwards notifications to the arena's Lua hooks.
// Undefined hooks are skipped; script errors are logged by the manager.
type ScriptSink struct {
	mgr   *scripting.Manager
	arena string
}

// NewScriptSink creates a ScriptSink for arena.
//
// Precondition: mgr must be non-nil.
func NewScriptSink(mgr *scripting.Manager, arena string) *ScriptSink {
	return &ScriptSink{mgr: mgr, arena: arena}
}

func (s *ScriptSink) call(hook string, args ...lua.LValue) {
	_, _ = s.mgr.CallHook(s.arena, hook, args...)
}

func waveArgs(ev WaveEvent) []lua.LValue {
	return []lua.LValue{
		lua.LNumber(ev.Index),
		lua.LString(ev.Name),
		lua.LNumber(ev.Players),
		lua.LNumber(ev.Factor),
	}
}

// OnWaveStarted calls the Lua hook for the wave start.
func (s *ScriptSink) OnWaveStarted(name string) {
	s.call(HookWaveStarted, lua.LString(name))
}

// OnBossHealthChanged calls the Lua hook for a boss health change.
func (s *ScriptSink) OnBossHealthChanged(current, total float64) {
	s.call(HookBossHealth, lua.LNumber(current), lua.LNumber(total))
}

// OnBossDefeated calls the Lua hook for a boss defeat.
func (s *ScriptSink) OnBossDefeated() {
	s.call(HookBossDefeated)
}

// OnWaveCleared calls the Lua hook for a cleared wave.
func (s *ScriptSink) OnWaveCleared(ev WaveEvent) {
	s.call(HookWaveCleared, waveArgs(ev)...)
}

// OnWaveRetried calls the Lua hook for a retried wave.
func (s *ScriptSink) OnWaveRetried(ev WaveEvent) {
	s.call(HookWaveRetried, waveArgs(ev)...)
}

// OnVictory calls the Lua hook for the victory.
func (s *ScriptSink) OnVictory(ev WaveEvent) {
	s.call(HookVictory, waveArgs(ev)...)
}
