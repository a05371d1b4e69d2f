// Package config provides Viper-based configuration loading for the battle AI evaluator.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EvaluatorConfig bounds the exchange simulation and tunes the blocking heuristic.
type EvaluatorConfig struct {
	// TurnLookahead is the number of rounds included in the turn order lookahead.
	TurnLookahead int `mapstructure:"turn_lookahead"`
	// MaxTurnActions caps the total number of unit actions across all lookahead rounds.
	MaxTurnActions int `mapstructure:"max_turn_actions"`
	// BlockingThreshold is the blocking score above which a position is reported as blocking.
	BlockingThreshold int `mapstructure:"blocking_threshold"`
	// EnemyBlockPenalty is added for each lost hex that holds a living enemy.
	EnemyBlockPenalty int `mapstructure:"enemy_block_penalty"`
	// FreeBlockPenalty is added for each other lost hex.
	FreeBlockPenalty int `mapstructure:"free_block_penalty"`
}

// ScriptingConfig holds Lua damage hook settings.
type ScriptingConfig struct {
	// Dir is the directory of *.lua damage hooks; empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEvaluator(c.Evaluator); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateEvaluator(e EvaluatorConfig) error {
	var errs []string
	if e.TurnLookahead < 1 {
		errs = append(errs, fmt.Sprintf("evaluator.turn_lookahead must be >= 1, got %d", e.TurnLookahead))
	}
	if e.MaxTurnActions < 1 {
		errs = append(errs, fmt.Sprintf("evaluator.max_turn_actions must be >= 1, got %d", e.MaxTurnActions))
	}
	if e.BlockingThreshold < 0 {
		errs = append(errs, fmt.Sprintf("evaluator.blocking_threshold must be >= 0, got %d", e.BlockingThreshold))
	}
	if e.EnemyBlockPenalty < 0 || e.FreeBlockPenalty < 0 {
		errs = append(errs, "evaluator block penalties must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Default returns the defaults with environment overrides applied, without reading a file.
//
// Postcondition: Returns a valid Config or a non-nil error when an override is invalid.
func Default() (Config, error) {
	return LoadFromViper(newViper())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with HEXBATTLE_ prefix
	v.SetEnvPrefix("HEXBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("evaluator.turn_lookahead", 2)
	v.SetDefault("evaluator.max_turn_actions", 1000)
	v.SetDefault("evaluator.blocking_threshold", 50)
	v.SetDefault("evaluator.enemy_block_penalty", 100)
	v.SetDefault("evaluator.free_block_penalty", 1)

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 100_000)
}
