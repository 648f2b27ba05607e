package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// Default pack topology.
const (
	DefaultRows = 8
	DefaultCols = 12
)

// CellIDPrefix is prepended to every generated cell ordinal.
const CellIDPrefix = "CELL-"

// ErrInvalidDimensions is returned for grids with a non-positive side.
var ErrInvalidDimensions = errors.New("invalid pack dimensions")

// Pack is a fixed-size, row-major collection of cells. The slice is never
// resized after generation; cells are mutated in place.
type Pack struct {
	Grid
	Cells []*model.Cell

	neighbors *NeighborIndex
}

// GeneratePack builds a rows x cols pack with randomised cells. IDs are the
// 1-based row-major ordinal, zero padded to at least three digits.
func GeneratePack(rows, cols int, r Rand) (*Pack, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: rows=%d cols=%d, both must be positive", ErrInvalidDimensions, rows, cols)
	}
	grid := Grid{Rows: rows, Cols: cols}
	n := grid.Size()

	width := len(fmt.Sprint(n))
	if width < 3 {
		width = 3
	}

	cells := make([]*model.Cell, n)
	for i := range cells {
		row, col := grid.Position(i)
		id := fmt.Sprintf("%s%0*d", CellIDPrefix, width, i+1)
		cells[i] = NewCell(id, row, col, r)
	}
	return &Pack{
		Grid:      grid,
		Cells:     cells,
		neighbors: NewNeighborIndex(grid),
	}, nil
}

// Len returns the number of cells in the pack.
func (p *Pack) Len() int { return len(p.Cells) }

// Cell returns the cell at index, or nil when out of range.
func (p *Pack) Cell(index int) *model.Cell {
	if index < 0 || index >= len(p.Cells) {
		return nil
	}
	return p.Cells[index]
}

// Neighbors returns the cached neighbour list for index.
func (p *Pack) Neighbors(index int) []int {
	if p.neighbors == nil {
		p.neighbors = NewNeighborIndex(p.Grid)
	}
	return p.neighbors.Neighbors(index)
}

// Step advances every cell by one tick.
func (p *Pack) Step(r Rand) {
	for _, c := range p.Cells {
		StepCell(c, r)
	}
}

// AverageVoltage returns the mean cell voltage, or 0 for an empty pack.
func (p *Pack) AverageVoltage() float64 {
	if len(p.Cells) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range p.Cells {
		sum += c.Voltage
	}
	return sum / float64(len(p.Cells))
}
