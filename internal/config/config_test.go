package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.Pack.Rows)
	assert.Equal(t, 12, cfg.Pack.Cols)
	assert.Equal(t, 20, cfg.Simulation.HistoryLength)
	assert.Equal(t, model.ViewTemperature, cfg.ViewMode())
	assert.Empty(t, cfg.Metrics.Addr, "metrics listener must be opt-in")
}

func TestParseOverlaysOnlyPresentKeys(t *testing.T) {
	cfg := Default()
	raw := []byte(`
pack:
  rows: 4
simulation:
  tick_interval: 500ms
  seed: 99
faults:
  probability: 0.5
view: soh
`)

	require.NoError(t, Parse(raw, &cfg))

	assert.Equal(t, 4, cfg.Pack.Rows)
	assert.Equal(t, 12, cfg.Pack.Cols)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, 0.5, cfg.Faults.Probability)
	assert.Equal(t, 8*time.Second, cfg.Faults.Interval)
	assert.Equal(t, model.ViewSoH, cfg.ViewMode())
}

func TestParseEmptyDocumentKeepsDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, Parse(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Parse([]byte("pack:\n  layers: 3\n"), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, mapLookup(map[string]string{
		"BMS_ROWS":              "2",
		"BMS_COLS":              " 3 ",
		"BMS_TICK_INTERVAL":     "1s",
		"BMS_ACCELERATED":       "true",
		"BMS_SEED":              "7",
		"BMS_HISTORY_LENGTH":    "5",
		"BMS_FAULTS_ENABLED":    "false",
		"BMS_FAULT_PROBABILITY": "1",
		"BMS_LOG_LEVEL":         "debug",
		"BMS_METRICS_ADDR":      ":9102",
		"BMS_VIEW":              "voltage",
		"BMS_DURATION":          "",
	}))

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pack.Rows)
	assert.Equal(t, 3, cfg.Pack.Cols)
	assert.Equal(t, time.Second, cfg.Simulation.TickInterval)
	assert.True(t, cfg.Simulation.Accelerated)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, 5, cfg.Simulation.HistoryLength)
	assert.False(t, cfg.Faults.Enabled)
	assert.Equal(t, 1.0, cfg.Faults.Probability)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)
	assert.Equal(t, model.ViewVoltage, cfg.ViewMode())
	assert.Zero(t, cfg.Simulation.Duration, "blank values are ignored")
}

func TestApplyEnvCollectsParseErrors(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, mapLookup(map[string]string{
		"BMS_ROWS":          "eight",
		"BMS_TICK_INTERVAL": "soon",
	}))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "BMS_ROWS")
	assert.Contains(t, err.Error(), "BMS_TICK_INTERVAL")
	assert.Equal(t, 8, cfg.Pack.Rows, "failed overrides leave the value untouched")
}

func TestLoadPrecedenceFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pack:\n  rows: 6\n  cols: 6\nsimulation:\n  history_length: 10\n"), 0o600))
	t.Setenv("BMS_COLS", "9")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Pack.Rows, "file overrides default")
	assert.Equal(t, 9, cfg.Pack.Cols, "env overrides file")
	assert.Equal(t, 10, cfg.Simulation.HistoryLength)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"zero rows":         func(c *Config) { c.Pack.Rows = 0 },
		"negative cols":     func(c *Config) { c.Pack.Cols = -1 },
		"zero tick":         func(c *Config) { c.Simulation.TickInterval = 0 },
		"negative duration": func(c *Config) { c.Simulation.Duration = -time.Second },
		"empty history":     func(c *Config) { c.Simulation.HistoryLength = 0 },
		"zero fault period": func(c *Config) { c.Faults.Interval = 0 },
		"probability above": func(c *Config) { c.Faults.Probability = 1.01 },
		"probability below": func(c *Config) { c.Faults.Probability = -0.1 },
		"unknown view":      func(c *Config) { c.View = "pressure" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateIgnoresFaultIntervalWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Faults.Enabled = false
	cfg.Faults.Interval = 0
	assert.NoError(t, cfg.Validate())
}

func TestExampleConfigFileIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "simulator.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default().Faults, cfg.Faults)
}

func TestApplyEnvLogFallbacks(t *testing.T) {
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, mapLookup(map[string]string{
		"LOG_LEVEL":      "warn",
		"LOG_FORMAT":     "json",
		"BMS_LOG_FORMAT": "text",
	})))

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "BMS_ form takes precedence")
}
