package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

func TestSimulationEngineTickPipeline(t *testing.T) {
	se, err := NewSimulationEngine(DefaultRows, DefaultCols, DefaultHistoryLength, NewRand(21))
	require.NoError(t, err)

	var results []TickResult
	se.RegisterTickListener(func(res TickResult) { results = append(results, res) })

	start := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 25; i++ {
		res := se.Tick(start.Add(time.Duration(i) * time.Second))
		assert.Equal(t, uint64(i), res.Tick)
	}

	require.Len(t, results, 25)
	assert.Equal(t, uint64(25), se.Ticks())
	assert.Len(t, se.Aggregator.History(), 20)
	assert.Equal(t, start.Add(6*time.Second), se.Aggregator.History()[0].Time)
	assert.Equal(t, 96, se.Aggregator.Distribution().Total())
	assert.Equal(t, results[24].Metrics, se.Aggregator.Latest())
}

func TestSimulationEngineInvalidDimensions(t *testing.T) {
	_, err := NewSimulationEngine(0, DefaultCols, DefaultHistoryLength, NewRand(1))
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestSimulationEngineInjectFaultRefreshesBanner(t *testing.T) {
	se, err := NewSimulationEngine(DefaultRows, DefaultCols, DefaultHistoryLength, NewRand(4))
	require.NoError(t, err)
	require.Equal(t, model.StatusNormal, se.Banner().Level, "fresh pack has no anomalies")

	report := se.InjectFaultKind(FaultHotspot)

	require.Len(t, report.Cells, 1)
	hot := se.Pack.Cells[report.Center]
	if hot.Temperature > CriticalThreshold {
		assert.Equal(t, model.StatusCritical, hot.Status)
		assert.Equal(t, model.StatusCritical, se.Banner().Level)
	}
	assert.Empty(t, se.Aggregator.History(), "injection does not record history")
}

func TestSimulationEngineReset(t *testing.T) {
	se, err := NewSimulationEngine(DefaultRows, DefaultCols, DefaultHistoryLength, NewRand(9))
	require.NoError(t, err)
	old := se.Pack
	se.Tick(time.Now())
	se.Tick(time.Now())

	require.NoError(t, se.Reset())

	assert.NotSame(t, old, se.Pack)
	assert.Equal(t, 96, se.Pack.Len())
	assert.Equal(t, uint64(0), se.Ticks())
	assert.Empty(t, se.Aggregator.History())
}

func TestSimulationEngineChance(t *testing.T) {
	se, err := NewSimulationEngine(2, 2, 5, NewRand(3))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.False(t, se.Chance(0))
		assert.True(t, se.Chance(1))
	}
}
