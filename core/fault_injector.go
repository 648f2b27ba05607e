package core

// FaultKind enumerates the fault archetypes the injector can emulate.
type FaultKind int

const (
	FaultHotspot FaultKind = iota
	FaultThermalCluster
	FaultVoltageImbalance

	faultKinds = 3
)

func (k FaultKind) String() string {
	switch k {
	case FaultHotspot:
		return "hotspot"
	case FaultThermalCluster:
		return "thermal_cluster"
	case FaultVoltageImbalance:
		return "voltage_imbalance"
	default:
		return "unknown"
	}
}

// ParseFaultKind is the inverse of FaultKind.String.
func ParseFaultKind(name string) (FaultKind, bool) {
	for k := FaultKind(0); k < faultKinds; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Fault shape parameters.
const (
	hotspotSpread       = 10.0
	clusterSpread       = 5.0
	clusterNeighborsMax = 3
	// imbalanceFactor puts the cell 5 points past the detector's
	// deviation limit.
	imbalanceFactor = 1 + VoltageDeviationMax + 0.05
)

// FaultReport describes what an injection changed.
type FaultReport struct {
	Kind   FaultKind `json:"kind"`
	Center int       `json:"center"`
	Cells  []int     `json:"cells"`
}

// InjectFault applies one fault chosen uniformly among the three kinds.
func InjectFault(p *Pack, r Rand) FaultReport {
	return InjectFaultKind(p, FaultKind(r.IntN(faultKinds)), r)
}

// InjectFaultKind applies a fault of the given kind at a random cell.
// Injected values are not clamped; the next tick pulls them back into
// range. An empty pack, or a zero average voltage for an imbalance, leaves
// the pack untouched and reports no cells.
func InjectFaultKind(p *Pack, kind FaultKind, r Rand) FaultReport {
	report := FaultReport{Kind: kind, Center: -1}
	if p.Len() == 0 {
		return report
	}
	center := r.IntN(p.Len())

	switch kind {
	case FaultHotspot:
		p.Cells[center].Temperature = CriticalThreshold + Uniform(r, 0, hotspotSpread)
		report.Cells = []int{center}

	case FaultThermalCluster:
		report.Cells = append(report.Cells, center)
		neighbors := p.Neighbors(center)
		if len(neighbors) > clusterNeighborsMax {
			neighbors = neighbors[:clusterNeighborsMax]
		}
		report.Cells = append(report.Cells, neighbors...)
		for _, i := range report.Cells {
			p.Cells[i].Temperature = ElevatedMax + Uniform(r, 0, clusterSpread)
		}

	case FaultVoltageImbalance:
		avg := p.AverageVoltage()
		if avg == 0 {
			return report
		}
		p.Cells[center].Voltage = avg * imbalanceFactor
		report.Cells = []int{center}

	default:
		return report
	}

	report.Center = center
	return report
}
