package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalArenaID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no arena VM is found.
const globalArenaID = "__global__"

// Manager owns one sandboxed LState per arena and exposes hook dispatch.
//
// Each LState is single-threaded; Manager serializes every call into the same VM.
type Manager struct {
	mu     sync.Mutex
	vms    map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// LoadArena creates a sandboxed VM for arenaID, registers the holdout.* module,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: arenaID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Arena VM is registered, replacing any previous one; returns error on
// Lua load failure.
func (m *Manager) LoadArena(arenaID, scriptDir string, instLimit int) error {
	return m.loadDir(arenaID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM used as a CallHook fallback for any arena.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadDir(globalArenaID, scriptDir, instLimit)
}

// LoadString creates a VM for arenaID from a single source chunk.
func (m *Manager) LoadString(arenaID, src string, instLimit int) error {
	v := newVM(instLimit)
	m.RegisterModules(v.L, arenaID)
	if err := v.L.DoString(src); err != nil {
		v.close()
		return fmt.Errorf("scripting: loading source for %q: %w", arenaID, err)
	}
	m.install(arenaID, v)
	return nil
}

func (m *Manager) loadDir(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	v := newVM(instLimit)
	m.RegisterModules(v.L, key)
	for _, path := range luaFiles {
		if err := v.L.DoFile(path); err != nil {
			v.close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	m.install(key, v)
	return nil
}

func (m *Manager) install(key string, v *vm) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.vms[key]; ok {
		old.close()
	}
	m.vms[key] = v
}

// HasVM reports whether arenaID, or the global fallback, has a VM.
func (m *Manager) HasVM(arenaID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vms[arenaID]
	_, global := m.vms[globalArenaID]
	return ok || global
}

// CallHook calls the named Lua global function in arenaID's VM. If the arena has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(arenaID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vms[arenaID]
	if !ok {
		v = m.vms[globalArenaID]
	}
	if v == nil {
		m.logger.Debug("scripting: no VM for arena",
			zap.String("arena", arenaID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.rearm()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("arena", arenaID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.vms {
		v.close()
		delete(m.vms, k)
	}
}
