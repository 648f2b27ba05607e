// Package config loads simulator settings from defaults, an optional YAML
// file and BMS_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/battery-pack-simulator/core"
	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// ErrInvalidConfig wraps every validation and parse failure.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BMS_"

// Config is the full simulator configuration.
type Config struct {
	Pack       PackConfig       `yaml:"pack"`
	Simulation SimulationConfig `yaml:"simulation"`
	Faults     FaultConfig      `yaml:"faults"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	// View is the heatmap metric: temperature, voltage, soc or soh.
	View string `yaml:"view"`
}

// PackConfig sizes the cell grid.
type PackConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// SimulationConfig drives the tick schedule.
type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// Duration bounds the run in simulation time; zero runs until interrupted.
	Duration time.Duration `yaml:"duration"`
	// Accelerated skips wall-clock sleeping between events.
	Accelerated bool `yaml:"accelerated"`
	// Seed of 0 seeds from the wall clock.
	Seed          int64 `yaml:"seed"`
	HistoryLength int   `yaml:"history_length"`
}

// FaultConfig drives the periodic fault opportunity.
type FaultConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	Probability float64       `yaml:"probability"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pack: PackConfig{
			Rows: core.DefaultRows,
			Cols: core.DefaultCols,
		},
		Simulation: SimulationConfig{
			TickInterval:  2 * time.Second,
			HistoryLength: core.DefaultHistoryLength,
		},
		Faults: FaultConfig{
			Enabled:     true,
			Interval:    8 * time.Second,
			Probability: 0.3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		View: model.ViewTemperature.String(),
	}
}

// Load layers the YAML file at path (skipped when empty) and the process
// environment over Default. The result is not validated so callers can
// apply flag overrides first.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML over cfg; keys absent from raw keep their values.
func Parse(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides cfg from BMS_* variables resolved through lookup.
// Parse failures are collected and leave the affected field unchanged.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	env := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}
	intVar := func(key string, dst *int) {
		if v, ok := env(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	durationVar := func(key string, dst *time.Duration) {
		if v, ok := env(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolVar := func(key string, dst *bool) {
		if v, ok := env(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	stringVar := func(key string, dst *string) {
		if v, ok := env(key); ok {
			*dst = v
		}
	}

	intVar("ROWS", &cfg.Pack.Rows)
	intVar("COLS", &cfg.Pack.Cols)
	durationVar("TICK_INTERVAL", &cfg.Simulation.TickInterval)
	durationVar("DURATION", &cfg.Simulation.Duration)
	boolVar("ACCELERATED", &cfg.Simulation.Accelerated)
	if v, ok := env("SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			cfg.Simulation.Seed = seed
		}
	}
	intVar("HISTORY_LENGTH", &cfg.Simulation.HistoryLength)
	boolVar("FAULTS_ENABLED", &cfg.Faults.Enabled)
	durationVar("FAULT_INTERVAL", &cfg.Faults.Interval)
	if v, ok := env("FAULT_PROBABILITY"); ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sFAULT_PROBABILITY: %w", EnvPrefix, err))
		} else {
			cfg.Faults.Probability = p
		}
	}
	// Unprefixed LOG_LEVEL and LOG_FORMAT are honoured too; the BMS_ forms win.
	for key, dst := range map[string]*string{"LOG_LEVEL": &cfg.Logging.Level, "LOG_FORMAT": &cfg.Logging.Format} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	stringVar("LOG_LEVEL", &cfg.Logging.Level)
	stringVar("LOG_FORMAT", &cfg.Logging.Format)
	stringVar("METRICS_ADDR", &cfg.Metrics.Addr)
	stringVar("VIEW", &cfg.View)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate reports every constraint violation in cfg.
func (c Config) Validate() error {
	var errs []error
	if c.Pack.Rows <= 0 || c.Pack.Cols <= 0 {
		errs = append(errs, fmt.Errorf("pack dimensions must be positive, got %dx%d", c.Pack.Rows, c.Pack.Cols))
	}
	if c.Simulation.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_interval must be positive, got %s", c.Simulation.TickInterval))
	}
	if c.Simulation.Duration < 0 {
		errs = append(errs, fmt.Errorf("simulation.duration must not be negative, got %s", c.Simulation.Duration))
	}
	if c.Simulation.HistoryLength < 1 {
		errs = append(errs, fmt.Errorf("simulation.history_length must be at least 1, got %d", c.Simulation.HistoryLength))
	}
	if c.Faults.Enabled && c.Faults.Interval <= 0 {
		errs = append(errs, fmt.Errorf("faults.interval must be positive, got %s", c.Faults.Interval))
	}
	if c.Faults.Probability < 0 || c.Faults.Probability > 1 {
		errs = append(errs, fmt.Errorf("faults.probability must be within [0,1], got %v", c.Faults.Probability))
	}
	if _, ok := model.ParseViewMode(c.View); !ok {
		errs = append(errs, fmt.Errorf("unknown view %q", c.View))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ViewMode returns the parsed view, defaulting to temperature.
func (c Config) ViewMode() model.ViewMode {
	if mode, ok := model.ParseViewMode(c.View); ok {
		return mode
	}
	return model.ViewTemperature
}
