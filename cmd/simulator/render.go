package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/signalsfoundry/battery-pack-simulator/core"
	sim "github.com/signalsfoundry/battery-pack-simulator/internal/sim/state"
	"github.com/signalsfoundry/battery-pack-simulator/model"
)

var bandGlyphs = map[model.TempBand]byte{
	model.BandCool:     '.',
	model.BandNormal:   'o',
	model.BandElevated: '+',
	model.BandWarning:  '*',
	model.BandCritical: '#',
}

const bandLegend = ". cool  o normal  + elevated  * warning  # critical  (! = anomalous cell)"

// renderHeatmap writes one grid of band glyphs per row. Cells whose anomaly
// status is not NORMAL are followed by '!'.
func renderHeatmap(w io.Writer, snap *sim.PackSnapshot) {
	var b strings.Builder
	fmt.Fprintf(&b, "tick %d  [%s]  avg=%.1fC max=%.1fC min=%.1fC  warn=%d crit=%d\n",
		snap.Ticks, snap.Banner.Label,
		snap.Metrics.AvgTemp, snap.Metrics.MaxTemp, snap.Metrics.MinTemp,
		snap.Metrics.WarningCount, snap.Metrics.CriticalCount,
	)
	for row := 0; row < snap.Rows; row++ {
		fmt.Fprintf(&b, "%3d ", row)
		for col := 0; col < snap.Cols; col++ {
			c := snap.Cell(row, col)
			b.WriteByte(bandGlyphs[c.Band])
			if c.Status != model.StatusNormal {
				b.WriteByte('!')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(bandLegend)
	b.WriteString("\n\n")
	io.WriteString(w, b.String())
}

// printSummary writes the final pack metrics, SoH distribution and the
// temperature history tail.
func printSummary(w io.Writer, snap *sim.PackSnapshot) {
	m := snap.Metrics
	fmt.Fprintf(w, "Simulation complete after %d ticks. Banner: %s\n", snap.Ticks, snap.Banner.Label)
	fmt.Fprintf(w, "  temperature avg/max/min: %.2f / %.2f / %.2f C\n", m.AvgTemp, m.MaxTemp, m.MinTemp)
	fmt.Fprintf(w, "  soc avg: %.2f %%  soh avg: %.2f %%\n", m.AvgSoC, m.AvgSoH)
	fmt.Fprintf(w, "  pack voltage: %.2f V  pack current: %.2f A\n", m.TotalVoltage, m.TotalCurrent)
	fmt.Fprintf(w, "  warning cells: %d  critical cells: %d\n", m.WarningCount, m.CriticalCount)

	fmt.Fprint(w, "  soh distribution:")
	for i, n := range snap.Distribution {
		fmt.Fprintf(w, " %s=%d", core.SoHBucketLabels[i], n)
	}
	fmt.Fprintln(w)

	if len(snap.History) > 0 {
		first := snap.History[0].Time
		fmt.Fprintf(w, "  history (%d samples):", len(snap.History))
		for _, s := range snap.History {
			fmt.Fprintf(w, " +%s:%.1f", s.Time.Sub(first).Round(time.Millisecond), s.Avg)
		}
		fmt.Fprintln(w)
	}
	if f := snap.LastFault; f != nil {
		ids := make([]string, 0, len(f.Cells))
		for _, i := range f.Cells {
			ids = append(ids, snap.Cells[i].ID)
		}
		fmt.Fprintf(w, "  last fault: %s at %s\n", f.Kind, strings.Join(ids, ","))
	}
}
