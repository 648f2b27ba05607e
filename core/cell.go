package core

import (
	"math"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// Physical limits enforced on every tick.
const (
	MinTemperature = 20.0
	MaxTemperature = 60.0
	MinVoltage     = 3.0
	MaxVoltage     = 4.2
	MinSoC         = 0.0
	MaxSoC         = 100.0
)

// Per-tick random-walk amplitudes. Each attribute moves by U(-a, a).
const (
	tempStep    = 0.25
	voltageStep = 0.005
	currentStep = 1.0
	socStep     = 0.25
)

// NewCell creates a cell at (row, col) with randomised initial telemetry.
func NewCell(id string, row, col int, r Rand) *model.Cell {
	return &model.Cell{
		ID:          id,
		Row:         row,
		Col:         col,
		Temperature: Uniform(r, 25, 35),
		Voltage:     Uniform(r, 3.6, 3.8),
		Current:     Uniform(r, -5, 20),
		SoC:         Uniform(r, 60, 100),
		SoH:         Uniform(r, 80, 100),
		Resistance:  Uniform(r, 1, 5),
		Cycles:      int(math.Floor(Uniform(r, 200, 1200))),
		Status:      model.StatusNormal,
	}
}

// StepCell applies one tick of zero-mean perturbation to c and clamps
// temperature, voltage and SoC back into their physical ranges. Current,
// resistance, SoH and cycles are left unclamped.
func StepCell(c *model.Cell, r Rand) {
	c.Temperature += Uniform(r, -tempStep, tempStep)
	c.Voltage += Uniform(r, -voltageStep, voltageStep)
	c.Current += Uniform(r, -currentStep, currentStep)
	c.SoC += Uniform(r, -socStep, socStep)

	c.Temperature = clamp(c.Temperature, MinTemperature, MaxTemperature)
	c.Voltage = clamp(c.Voltage, MinVoltage, MaxVoltage)
	c.SoC = clamp(c.SoC, MinSoC, MaxSoC)
}
