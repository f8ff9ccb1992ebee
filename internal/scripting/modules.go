package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the holdout.* Lua table into L for the VM keyed by arenaID.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: holdout global is defined in L with fields arena (string) and log (function).
func (m *Manager) RegisterModules(L *lua.LState, arenaID string) {
	mod := L.NewTable()
	L.SetField(mod, "arena", lua.LString(arenaID))
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("script",
			zap.String("arena", arenaID),
			zap.String("msg", L.CheckString(1)),
		)
		return 0
	}))
	L.SetGlobal("holdout", mod)
}
