package state

import (
	"github.com/signalsfoundry/battery-pack-simulator/core"
	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// CellView is a copy of one cell plus the presentation values derived from it.
type CellView struct {
	model.Cell

	Band  model.TempBand
	Color model.RGB
	// Value is the metric selected by the snapshot's view mode.
	Value float64
}

// PackSnapshot is a read-only copy of the pack state. Nothing in it aliases
// PackState internals, so it may be kept across ticks.
type PackSnapshot struct {
	Rows  int
	Cols  int
	Cells []CellView

	Metrics      core.PackMetrics
	History      []core.TempSample
	Distribution core.SoHDistribution
	Banner       core.Banner
	Ticks        uint64
	View         model.ViewMode
	AutoInject   bool
	LastFault    *core.FaultReport
}

// Cell returns the view at (row, col), or nil when out of range.
func (s *PackSnapshot) Cell(row, col int) *CellView {
	if s == nil || row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return nil
	}
	return &s.Cells[row*s.Cols+col]
}

// Snapshot returns a deep copy of the current pack state.
func (s *PackState) Snapshot() *PackSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pack := s.engine.Pack
	cells := make([]CellView, 0, pack.Len())
	for _, c := range pack.Cells {
		cells = append(cells, CellView{
			Cell:  *c,
			Band:  c.Band(),
			Color: c.Color(),
			Value: c.Metric(s.view),
		})
	}

	var last *core.FaultReport
	if s.lastFault != nil {
		cp := *s.lastFault
		cp.Cells = append([]int(nil), s.lastFault.Cells...)
		last = &cp
	}

	return &PackSnapshot{
		Rows:         pack.Rows,
		Cols:         pack.Cols,
		Cells:        cells,
		Metrics:      s.engine.Aggregator.Latest(),
		History:      s.engine.Aggregator.History(),
		Distribution: s.engine.Aggregator.Distribution(),
		Banner:       s.engine.Banner(),
		Ticks:        s.engine.Ticks(),
		View:         s.view,
		AutoInject:   s.autoInject,
		LastFault:    last,
	}
}
