package core

import (
	"math"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// Detector thresholds.
//
// CriticalThreshold and WarningMax are equal, so the temperature WARNING
// branch in Detect can never fire. The two constants are kept separate to
// preserve the rule ordering exactly.
const (
	CriticalThreshold   = model.TempWarningMax
	WarningMax          = model.TempWarningMax
	ElevatedThreshold   = model.TempNormalMax
	ElevatedMax         = model.TempElevatedMax
	VoltageDeviationMax = 0.10
	SoHCriticalMin      = 70.0

	// ClusterNeighborMin is how many elevated neighbours make an elevated
	// cell a cluster member.
	ClusterNeighborMin = 2
	// ClusterBannerMin is how many cluster members turn a CRITICAL banner
	// into a thermal-cluster banner.
	ClusterBannerMin = 3
)

// Banner labels.
const (
	BannerNormal         = "NORMAL"
	BannerWarning        = "WARNING"
	BannerCritical       = "CRITICAL"
	BannerThermalCluster = "THERMAL CLUSTER DETECTED"
)

// Banner is the pack-wide anomaly summary shown to the operator.
type Banner struct {
	Level          model.Status `json:"level"`
	Label          string       `json:"label"`
	ClusterMembers int          `json:"cluster_members"`
}

// Detect reclassifies every cell in the pack. Rules are applied in order
// and a later rule overwrites an earlier one; it is not "most severe wins".
func Detect(p *Pack) {
	avg := p.AverageVoltage()
	for _, c := range p.Cells {
		c.Status = classifyCell(c, avg)
	}
}

func classifyCell(c *model.Cell, avgVoltage float64) model.Status {
	status := model.StatusNormal

	if c.Temperature > CriticalThreshold {
		status = model.StatusCritical
	} else if c.Temperature > WarningMax {
		status = model.StatusWarning
	}

	if avgVoltage != 0 && status == model.StatusNormal {
		if math.Abs(c.Voltage-avgVoltage)/avgVoltage > VoltageDeviationMax {
			status = model.StatusWarning
		}
	}

	if c.SoH < SoHCriticalMin {
		status = model.StatusCritical
	}
	return status
}

// IsThermalCluster reports whether the cell at index is elevated and
// corroborated by at least ClusterNeighborMin elevated neighbours.
func IsThermalCluster(p *Pack, index int) bool {
	c := p.Cell(index)
	if c == nil || c.Temperature < ElevatedThreshold {
		return false
	}
	hot := 0
	for _, n := range p.Neighbors(index) {
		if p.Cells[n].Temperature >= ElevatedThreshold {
			hot++
			if hot >= ClusterNeighborMin {
				return true
			}
		}
	}
	return false
}

// ClusterMembers counts the cells for which IsThermalCluster holds.
func ClusterMembers(p *Pack) int {
	n := 0
	for i := range p.Cells {
		if IsThermalCluster(p, i) {
			n++
		}
	}
	return n
}

// AggregateStatus derives the banner from the statuses set by Detect.
func AggregateStatus(p *Pack) Banner {
	var critical, warning bool
	for _, c := range p.Cells {
		switch c.Status {
		case model.StatusCritical:
			critical = true
		case model.StatusWarning:
			warning = true
		}
	}

	members := ClusterMembers(p)
	switch {
	case critical && members >= ClusterBannerMin:
		return Banner{Level: model.StatusCritical, Label: BannerThermalCluster, ClusterMembers: members}
	case critical:
		return Banner{Level: model.StatusCritical, Label: BannerCritical, ClusterMembers: members}
	case warning:
		return Banner{Level: model.StatusWarning, Label: BannerWarning, ClusterMembers: members}
	default:
		return Banner{Level: model.StatusNormal, Label: BannerNormal, ClusterMembers: members}
	}
}
