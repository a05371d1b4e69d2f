package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// DamageHook is the Lua global called for every damage estimate:
//
//	function modify_damage(attacker, defender, shooting, min, max) return min, max end
const DamageHook = "modify_damage"

// DamageHooks owns one sandboxed LState loaded with damage scripts and implements
// combat.DamageModifier by calling DamageHook.
//
// DamageHooks is safe for concurrent use; calls into the VM are serialized.
type DamageHooks struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	logger *zap.Logger
}

// LoadDir creates a sandboxed VM, registers the battle module, then executes every *.lua
// file in scriptDir in lexicographic order.
//
// Precondition: scriptDir must be a readable directory; logger must not be nil.
// Postcondition: Returns loaded hooks or an error on Lua load failure. The caller must Close them.
func LoadDir(scriptDir string, instLimit int, logger *zap.Logger) (*DamageHooks, error) {
	if logger == nil {
		panic("scripting.LoadDir: logger must not be nil")
	}

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return nil, fmt.Errorf("scripting.LoadDir: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	RegisterModules(L)

	for _, path := range luaFiles {
		if err := WithInstructionLimit(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return nil, fmt.Errorf("scripting.LoadDir: loading %q: %w", path, err)
		}
	}

	logger.Info("damage scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
		zap.Bool("hook_defined", L.GetGlobal(DamageHook) != lua.LNil),
	)
	return &DamageHooks{L: L, limit: instLimit, logger: logger}, nil
}

// Close releases the VM.
func (h *DamageHooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.Close()
}

// ModifyDamage passes r through DamageHook. When the hook is missing, fails, exceeds its
// instruction budget, or returns non-numbers, r is returned unchanged; failures are logged
// at Warn level and never propagated.
//
// Postcondition: 0 <= Min <= Max.
func (h *DamageHooks) ModifyDamage(attacker, defender *combat.Unit, shooting bool, r combat.DamageRange) combat.DamageRange {
	h.mu.Lock()
	defer h.mu.Unlock()

	L := h.L
	fn := L.GetGlobal(DamageHook)
	if fn == lua.LNil {
		return r
	}

	err := WithInstructionLimit(L, h.limit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    2,
			Protect: true,
		}, unitTable(L, attacker), unitTable(L, defender), lua.LBool(shooting), lua.LNumber(r.Min), lua.LNumber(r.Max))
	})
	if err != nil {
		h.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", DamageHook),
			zap.Stringer("attacker", attacker),
			zap.Stringer("defender", defender),
			zap.Error(err),
		)
		return r
	}

	lo, hi := L.Get(-2), L.Get(-1)
	L.Pop(2)

	loNum, okLo := lo.(lua.LNumber)
	hiNum, okHi := hi.(lua.LNumber)
	if !okLo || !okHi {
		h.logger.Warn("scripting: hook returned non-numbers",
			zap.String("hook", DamageHook),
			zap.String("min", lo.Type().String()),
			zap.String("max", hi.Type().String()),
		)
		return r
	}

	out := combat.DamageRange{Min: max(0, int64(loNum)), Max: int64(hiNum)}
	if out.Max < out.Min {
		out.Max = out.Min
	}
	return out
}

// unitTable snapshots u for Lua.
func unitTable(L *lua.LState, u *combat.Unit) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(u.ID))
	t.RawSetString("name", lua.LString(u.Name))
	t.RawSetString("side", lua.LString(u.Side.String()))
	t.RawSetString("count", lua.LNumber(u.Count()))
	t.RawSetString("attack", lua.LNumber(u.Attack))
	t.RawSetString("defense", lua.LNumber(u.Defense))
	t.RawSetString("shooter", lua.LBool(u.Shooter))
	t.RawSetString("x", lua.LNumber(u.Position.X()))
	t.RawSetString("y", lua.LNumber(u.Position.Y()))
	return t
}
