// Package main provides the exchange-eval binary: it loads a battle scenario, scores every
// attack the active unit can make with the exchange evaluator, and prints a YAML report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/hexbattle/internal/config"
	"github.com/cory-johannsen/hexbattle/internal/game/ai"
	"github.com/cory-johannsen/hexbattle/internal/game/combat"
	"github.com/cory-johannsen/hexbattle/internal/game/scenario"
	"github.com/cory-johannsen/hexbattle/internal/observability"
	"github.com/cory-johannsen/hexbattle/internal/scripting"
)

// report is the YAML document printed for one evaluation.
type report struct {
	RunID           string        `yaml:"run_id"`
	Scenario        string        `yaml:"scenario"`
	ActiveUnit      string        `yaml:"active_unit"`
	Candidates      int           `yaml:"candidates"`
	Attack          *attackReport `yaml:"attack,omitempty"`
	Score           int64         `yaml:"score"`
	Wait            bool          `yaml:"wait"`
	BlocksOurStacks bool          `yaml:"blocks_our_stacks"`
}

type attackReport struct {
	Attacker string `yaml:"attacker"`
	Defender string `yaml:"defender"`
	From     string `yaml:"from"`
	Dest     string `yaml:"dest"`
	Shooting bool   `yaml:"shooting"`
	Value    int64  `yaml:"value"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("exchange-eval: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	start := time.Now()

	fs := flag.NewFlagSet("exchange-eval", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file; empty = defaults and HEXBATTLE_* environment")
	scenarioPath := fs.String("scenario", "", "path to the scenario YAML file (required)")
	scriptDir := fs.String("scripts", "", "directory of Lua damage hooks; overrides scripting.dir")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return errors.New("-scenario is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *scriptDir != "" {
		cfg.Scripting.Dir = *scriptDir
	}

	logger, err := observability.NewLogger(cfg.Logging, "exchange-eval")
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		return err
	}

	var modifier combat.DamageModifier
	if cfg.Scripting.Dir != "" {
		hooks, err := scripting.LoadDir(cfg.Scripting.Dir, cfg.Scripting.InstructionLimit, logger)
		if err != nil {
			return err
		}
		defer hooks.Close()
		modifier = hooks
	}

	state, err := sc.Build(modifier)
	if err != nil {
		return err
	}
	active := state.Unit(sc.Active)
	if !active.Alive() {
		return fmt.Errorf("active unit %s is dead", active)
	}

	logger.Info("evaluating",
		zap.String("scenario", sc.ID),
		zap.Stringer("active", active),
		zap.Int("turn_lookahead", cfg.Evaluator.TurnLookahead),
	)

	targets := ai.NewPotentialTargets(active, state, logger)
	evaluator := ai.NewEvaluator(state, cfg.Evaluator, logger)
	result := evaluator.FindBestTarget(active, targets, state.Fork())

	rep := report{
		RunID:      runID.String(),
		Scenario:   sc.ID,
		ActiveUnit: active.String(),
		Candidates: len(targets.PossibleAttacks),
		Score:      result.Score,
		Wait:       result.Wait,
	}

	if ap := result.BestAttack; ap != nil {
		rep.Attack = &attackReport{
			Attacker: ap.Attacker.String(),
			Defender: ap.Defender.String(),
			From:     ap.From.String(),
			Dest:     ap.Dest.String(),
			Shooting: ap.Shooting,
			Value:    ap.AttackValue(),
		}
		if !ap.Shooting {
			hb := state.Fork()
			evaluator.UpdateReachabilityMap(hb)
			rep.BlocksOurStacks = evaluator.CheckPositionBlocksOurStacks(hb, active, ap.From)
		}
	}

	logger.Info("evaluation complete",
		zap.Int64("score", result.Score),
		zap.Bool("wait", result.Wait),
		zap.Duration("elapsed", time.Since(start)),
	)

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return enc.Close()
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
