package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/hexbattle/internal/game/combat"
)

// yamlScenarioFile is the top-level YAML structure for scenario files.
type yamlScenarioFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

type yamlScenario struct {
	ID          string     `yaml:"id"`
	Description string     `yaml:"description"`
	Active      int        `yaml:"active"`
	Obstacles   []yamlHex  `yaml:"obstacles"`
	Units       []yamlUnit `yaml:"units"`
}

type yamlHex struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// yamlUnit is the YAML representation of a stack. counter_attacks defaults to 1 when omitted.
type yamlUnit struct {
	ID                    int    `yaml:"id"`
	Name                  string `yaml:"name"`
	Side                  string `yaml:"side"`
	X                     int    `yaml:"x"`
	Y                     int    `yaml:"y"`
	Count                 int64  `yaml:"count"`
	MaxHealth             int64  `yaml:"max_health"`
	Wounds                int64  `yaml:"wounds"`
	Attack                int    `yaml:"attack"`
	Defense               int    `yaml:"defense"`
	Damage                string `yaml:"damage"`
	Speed                 int    `yaml:"speed"`
	Shooter               bool   `yaml:"shooter"`
	Shots                 int    `yaml:"shots"`
	DoubleWide            bool   `yaml:"double_wide"`
	DoubleAttack          bool   `yaml:"double_attack"`
	NoRetaliation         bool   `yaml:"no_retaliation"`
	BlocksRetaliation     bool   `yaml:"blocks_retaliation"`
	UnlimitedRetaliations bool   `yaml:"unlimited_retaliations"`
	CounterAttacks        *int   `yaml:"counter_attacks"`
	Moved                 bool   `yaml:"moved"`
	Waiting               bool   `yaml:"waiting"`
	Waited                bool   `yaml:"waited"`
}

// Load reads and validates a single scenario YAML file.
//
// Precondition: path must point to a YAML scenario file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario.Load: reading %s: %w", path, err)
	}
	s, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("scenario.Load: %s: %w", path, err)
	}
	return s, nil
}

// LoadFromBytes parses and validates a scenario from YAML bytes.
//
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var file yamlScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	s, err := convertYAMLScenario(file.Scenario)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return s, nil
}

// LoadDir loads every YAML file in dir as a scenario, in file name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all validated scenarios or the first error encountered.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario.LoadDir: reading %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	ids := make(map[string]string, len(names))
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("scenario.LoadDir: %w", err)
		}
		if prev, dup := ids[s.ID]; dup {
			return nil, fmt.Errorf("scenario.LoadDir: scenario %q defined in both %s and %s", s.ID, prev, name)
		}
		ids[s.ID] = name
		scenarios = append(scenarios, s)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario.LoadDir: no scenario files found in %s", dir)
	}
	return scenarios, nil
}

func convertYAMLScenario(ys yamlScenario) (*Scenario, error) {
	s := &Scenario{
		ID:          ys.ID,
		Description: strings.TrimSpace(ys.Description),
		Active:      combat.UnitID(ys.Active),
	}
	for _, h := range ys.Obstacles {
		s.Obstacles = append(s.Obstacles, combat.NewHex(h.X, h.Y))
	}

	for _, yu := range ys.Units {
		side, err := parseSide(yu.Side)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: unit %d: %w", ys.ID, yu.ID, err)
		}
		counterAttacks := 1
		if yu.CounterAttacks != nil {
			counterAttacks = *yu.CounterAttacks
		}
		s.Units = append(s.Units, UnitSpec{
			ID:                    combat.UnitID(yu.ID),
			Name:                  yu.Name,
			Side:                  side,
			X:                     yu.X,
			Y:                     yu.Y,
			Count:                 yu.Count,
			MaxHealth:             yu.MaxHealth,
			Wounds:                yu.Wounds,
			Attack:                yu.Attack,
			Defense:               yu.Defense,
			Damage:                yu.Damage,
			Speed:                 yu.Speed,
			Shooter:               yu.Shooter,
			Shots:                 yu.Shots,
			DoubleWide:            yu.DoubleWide,
			DoubleAttack:          yu.DoubleAttack,
			NoRetaliation:         yu.NoRetaliation,
			BlocksRetaliation:     yu.BlocksRetaliation,
			UnlimitedRetaliations: yu.UnlimitedRetaliations,
			CounterAttacks:        counterAttacks,
			Moved:                 yu.Moved,
			Waiting:               yu.Waiting,
			Waited:                yu.Waited,
		})
	}
	return s, nil
}

func parseSide(s string) (combat.Side, error) {
	switch strings.ToLower(s) {
	case "attacker":
		return combat.SideAttacker, nil
	case "defender":
		return combat.SideDefender, nil
	default:
		return 0, fmt.Errorf("side must be attacker or defender, got %q", s)
	}
}
