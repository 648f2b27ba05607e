package core

import (
	"fmt"
	"testing"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// steadyPack builds a pack whose cells all sit at the same nominal values,
// so tests can perturb individual cells without random noise.
func steadyPack(t *testing.T, rows, cols int) *Pack {
	t.Helper()
	grid := Grid{Rows: rows, Cols: cols}
	cells := make([]*model.Cell, grid.Size())
	for i := range cells {
		r, c := grid.Position(i)
		cells[i] = &model.Cell{
			ID:          fmt.Sprintf("T-%03d", i),
			Row:         r,
			Col:         c,
			Temperature: 30,
			Voltage:     3.7,
			Current:     5,
			SoC:         80,
			SoH:         90,
			Resistance:  2,
			Cycles:      500,
		}
	}
	return &Pack{Grid: grid, Cells: cells}
}

// scriptedRand replays fixed draws; it panics when a script runs dry so a
// test that consumes more randomness than expected fails loudly.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scriptedRand: out of floats")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRand) IntN(n int) int {
	if len(s.ints) == 0 {
		panic("scriptedRand: out of ints")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}
