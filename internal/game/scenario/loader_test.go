package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

const validScenarioYAML = `
scenario:
  id: duel
  description: "Two stacks face off."
  active: 1
  obstacles:
    - { x: 8, y: 5 }
  units:
    - id: 1
      name: Swordsmen
      side: attacker
      x: 3
      y: 5
      count: 10
      max_health: 35
      attack: 10
      defense: 12
      damage: "6d3"
      speed: 5
    - id: 2
      name: Archers
      side: defender
      x: 12
      y: 5
      count: 8
      max_health: 10
      wounds: 4
      damage: "2d2"
      speed: 4
      shooter: true
      shots: 12
      counter_attacks: 0
`

func TestLoadFromBytes_Valid(t *testing.T) {
	s, err := LoadFromBytes([]byte(validScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "duel", s.ID)
	assert.Equal(t, "Two stacks face off.", s.Description)
	assert.Equal(t, combat.UnitID(1), s.Active)
	assert.Equal(t, []combat.Hex{combat.NewHex(8, 5)}, s.Obstacles)
	require.Len(t, s.Units, 2)

	assert.Equal(t, combat.SideAttacker, s.Units[0].Side)
	assert.Equal(t, 1, s.Units[0].CounterAttacks, "counter_attacks defaults to 1")
	assert.Equal(t, combat.SideDefender, s.Units[1].Side)
	assert.Equal(t, 0, s.Units[1].CounterAttacks)
	assert.True(t, s.Units[1].Shooter)
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("not: [valid yaml"))
	assert.Error(t, err)
}

func TestLoadFromBytes_UnknownSide(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
scenario:
  id: x
  active: 1
  units:
    - { id: 1, name: A, side: neutral, x: 1, y: 1, count: 1, max_health: 1, damage: "1d1" }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "side")
}

func validScenario() *Scenario {
	return &Scenario{
		ID:     "s",
		Active: 1,
		Units: []UnitSpec{
			{ID: 1, Name: "A", Side: combat.SideAttacker, X: 1, Y: 1, Count: 5, MaxHealth: 10, Damage: "1d3", Speed: 4, CounterAttacks: 1},
			{ID: 2, Name: "B", Side: combat.SideDefender, X: 10, Y: 1, Count: 5, MaxHealth: 10, Damage: "1d3", Speed: 4, CounterAttacks: 1},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"empty id", func(s *Scenario) { s.ID = "" }, "ID must not be empty"},
		{"no units", func(s *Scenario) { s.Units = nil }, "at least one unit"},
		{"duplicate id", func(s *Scenario) { s.Units[1].ID = 1 }, "duplicate unit ID"},
		{"missing active", func(s *Scenario) { s.Active = 9 }, "active unit 9 not found"},
		{"zero count", func(s *Scenario) { s.Units[0].Count = 0 }, "count must be > 0"},
		{"zero health", func(s *Scenario) { s.Units[0].MaxHealth = 0 }, "max_health must be > 0"},
		{"wounds too deep", func(s *Scenario) { s.Units[0].Wounds = 10 }, "wounds"},
		{"bad damage", func(s *Scenario) { s.Units[0].Damage = "lots" }, "damage"},
		{"off field", func(s *Scenario) { s.Units[0].X = 17 }, "outside the battlefield"},
		{"overlap", func(s *Scenario) { s.Units[1].X = 1 }, "overlaps unit 1"},
		{"on obstacle", func(s *Scenario) { s.Obstacles = []combat.Hex{combat.NewHex(1, 1)} }, "obstacle"},
		{"bad obstacle", func(s *Scenario) { s.Obstacles = []combat.Hex{combat.InvalidHex} }, "obstacle outside"},
		{"rear hex off field", func(s *Scenario) {
			s.Units[0].X = 0
			s.Units[0].DoubleWide = true
		}, "rear hex"},
		{"rear hex overlap", func(s *Scenario) {
			s.Units[1].X = 2
			s.Units[1].DoubleWide = true
			s.Units[1].Side = combat.SideAttacker
			s.Units[0].X = 1
		}, "overlaps unit 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuild_ProducesActiveState(t *testing.T) {
	s, err := LoadFromBytes([]byte(validScenarioYAML))
	require.NoError(t, err)

	state, err := s.Build(nil)
	require.NoError(t, err)

	active, ok := state.Active()
	assert.True(t, ok)
	assert.Equal(t, combat.UnitID(1), active)
	assert.True(t, state.IsObstacle(combat.NewHex(8, 5)))

	archers := state.Unit(2)
	require.NotNil(t, archers)
	assert.Equal(t, int64(76), archers.Health)
	assert.Equal(t, int64(8), archers.Count())
	assert.Equal(t, int64(6), archers.FirstHPLeft())
	assert.Equal(t, 2, archers.DamageDice.Count)
	assert.Equal(t, combat.NewHex(12, 5), archers.Position)
}

func TestLoad_Testdata(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "bridge_skirmish.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bridge_skirmish", s.ID)
	assert.Len(t, s.Units, 6)

	_, err = s.Build(nil)
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario.Load")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(validScenarioYAML), 0o644))
	second := []byte(`
scenario:
  id: alone
  active: 7
  units:
    - { id: 7, name: Monk, side: defender, x: 4, y: 4, count: 2, max_health: 30, damage: "2d4" }
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"), second, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "alone", scenarios[0].ID, "files load in name order")
	assert.Equal(t, "duel", scenarios[1].ID)
}

func TestLoadDir_DuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validScenarioYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(validScenarioYAML), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined in both")
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}
