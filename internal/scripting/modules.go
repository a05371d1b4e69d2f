package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// RegisterModules registers the battle.* Lua table into L:
//
//	battle.field_width, battle.field_height
//	battle.adjacent(x1, y1, x2, y2) -> bool
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: battle global is defined in L.
func RegisterModules(L *lua.LState) {
	battle := L.NewTable()
	battle.RawSetString("field_width", lua.LNumber(combat.FieldWidth))
	battle.RawSetString("field_height", lua.LNumber(combat.FieldHeight))
	battle.RawSetString("adjacent", L.NewFunction(luaAdjacent))
	L.SetGlobal("battle", battle)
}

func luaAdjacent(L *lua.LState) int {
	a := combat.NewHex(L.CheckInt(1), L.CheckInt(2))
	b := combat.NewHex(L.CheckInt(3), L.CheckInt(4))
	L.Push(lua.LBool(a.IsValid() && b.IsValid() && a.IsAdjacent(b)))
	return 1
}
