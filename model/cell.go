package model

// Status is the anomaly classification assigned to a cell by the detector.
type Status int

const (
	StatusNormal Status = iota
	StatusWarning
	StatusCritical
)

// String returns the upper-case label used by the dashboard.
func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "NORMAL"
	}
}

// Cell is one simulated battery cell.
// Row and Col are fixed at creation; everything else is mutated in place
// by the engine.
type Cell struct {
	ID  string `json:"id"`
	Row int    `json:"row"`
	Col int    `json:"col"`

	Temperature float64 `json:"temperature"` // degC
	Voltage     float64 `json:"voltage"`     // V
	Current     float64 `json:"current"`     // A, positive = discharge
	SoC         float64 `json:"soc"`         // %
	SoH         float64 `json:"soh"`         // %
	Resistance  float64 `json:"resistance"`  // mOhm
	Cycles      int     `json:"cycles"`

	Status Status `json:"status"`
}

// Band classifies the cell's current temperature.
func (c *Cell) Band() TempBand { return Classify(c.Temperature) }

// Color maps the cell's current temperature onto the heatmap palette.
func (c *Cell) Color() RGB { return TemperatureColor(c.Temperature) }

// Metric returns the value a heatmap in the given view mode displays for
// this cell.
func (c *Cell) Metric(mode ViewMode) float64 {
	switch mode {
	case ViewVoltage:
		return c.Voltage
	case ViewSoC:
		return c.SoC
	case ViewSoH:
		return c.SoH
	default:
		return c.Temperature
	}
}

// ViewMode selects which cell attribute the heatmap shows.
type ViewMode int

const (
	ViewTemperature ViewMode = iota
	ViewVoltage
	ViewSoC
	ViewSoH
)

func (m ViewMode) String() string {
	switch m {
	case ViewVoltage:
		return "voltage"
	case ViewSoC:
		return "soc"
	case ViewSoH:
		return "soh"
	default:
		return "temperature"
	}
}

// ParseViewMode is the inverse of ViewMode.String. Unknown names fall back
// to ViewTemperature and report false.
func ParseViewMode(name string) (ViewMode, bool) {
	switch name {
	case "temperature", "temp", "":
		return ViewTemperature, true
	case "voltage":
		return ViewVoltage, true
	case "soc":
		return ViewSoC, true
	case "soh":
		return ViewSoH, true
	default:
		return ViewTemperature, false
	}
}
