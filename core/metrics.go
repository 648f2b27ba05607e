package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// DefaultHistoryLength is the number of temperature samples kept.
const DefaultHistoryLength = 20

// PackMetrics are the pack-wide statistics computed every tick.
// TotalVoltage is a sum: cells are series-connected.
type PackMetrics struct {
	AvgTemp       float64 `json:"avg_temp"`
	MaxTemp       float64 `json:"max_temp"`
	MinTemp       float64 `json:"min_temp"`
	AvgSoC        float64 `json:"avg_soc"`
	AvgSoH        float64 `json:"avg_soh"`
	TotalVoltage  float64 `json:"total_voltage"`
	TotalCurrent  float64 `json:"total_current"`
	WarningCount  int     `json:"warning_count"`
	CriticalCount int     `json:"critical_count"`
}

// TempSample is one entry of the rolling temperature history.
type TempSample struct {
	Time time.Time `json:"time"`
	Avg  float64   `json:"avg"`
	Max  float64   `json:"max"`
	Min  float64   `json:"min"`
}

// SoH histogram buckets: [<75, 75-80, 80-85, 85-90, 90-95, >=95).
const SoHBuckets = 6

// SoHBucketLabels names the buckets of SoHDistribution in order.
var SoHBucketLabels = [SoHBuckets]string{"<75", "75-80", "80-85", "85-90", "90-95", ">=95"}

var sohBucketUpper = [SoHBuckets - 1]float64{75, 80, 85, 90, 95}

// SoHDistribution counts cells per SoH bucket.
type SoHDistribution [SoHBuckets]int

// Total returns the number of cells counted.
func (d SoHDistribution) Total() int {
	n := 0
	for _, v := range d {
		n += v
	}
	return n
}

// SoHBucket returns the bucket index for soh.
func SoHBucket(soh float64) int {
	for i, upper := range sohBucketUpper {
		if soh < upper {
			return i
		}
	}
	return SoHBuckets - 1
}

// Aggregate computes PackMetrics over all cells. An empty pack yields the
// zero value.
func Aggregate(p *Pack) PackMetrics {
	n := len(p.Cells)
	if n == 0 {
		return PackMetrics{}
	}
	m := PackMetrics{MaxTemp: math.Inf(-1), MinTemp: math.Inf(1)}
	var tempSum, socSum, sohSum float64
	for _, c := range p.Cells {
		tempSum += c.Temperature
		socSum += c.SoC
		sohSum += c.SoH
		m.TotalVoltage += c.Voltage
		m.TotalCurrent += c.Current
		m.MaxTemp = math.Max(m.MaxTemp, c.Temperature)
		m.MinTemp = math.Min(m.MinTemp, c.Temperature)
		switch c.Status {
		case model.StatusWarning:
			m.WarningCount++
		case model.StatusCritical:
			m.CriticalCount++
		}
	}
	m.AvgTemp = tempSum / float64(n)
	m.AvgSoC = socSum / float64(n)
	m.AvgSoH = sohSum / float64(n)
	return m
}

// Distribution recomputes the SoH histogram from scratch.
func Distribution(p *Pack) SoHDistribution {
	var d SoHDistribution
	for _, c := range p.Cells {
		d[SoHBucket(c.SoH)]++
	}
	return d
}

// MetricsAggregator owns the rolling temperature history and the latest
// SoH distribution. It is not safe for concurrent use.
type MetricsAggregator struct {
	limit        int
	history      []TempSample
	distribution SoHDistribution
	latest       PackMetrics
}

// NewMetricsAggregator keeps at most limit history samples. A limit below 1
// falls back to DefaultHistoryLength.
func NewMetricsAggregator(limit int) *MetricsAggregator {
	if limit < 1 {
		limit = DefaultHistoryLength
	}
	return &MetricsAggregator{
		limit:   limit,
		history: make([]TempSample, 0, limit),
	}
}

// Record aggregates p, appends a history sample stamped now and evicts the
// oldest samples beyond the limit.
func (a *MetricsAggregator) Record(now time.Time, p *Pack) PackMetrics {
	m := Aggregate(p)
	a.latest = m
	a.history = append(a.history, TempSample{Time: now, Avg: m.AvgTemp, Max: m.MaxTemp, Min: m.MinTemp})
	if over := len(a.history) - a.limit; over > 0 {
		a.history = append(a.history[:0], a.history[over:]...)
	}
	a.distribution = Distribution(p)
	return m
}

// Latest returns the metrics from the most recent Record.
func (a *MetricsAggregator) Latest() PackMetrics { return a.latest }

// History returns a copy of the samples, oldest first.
func (a *MetricsAggregator) History() []TempSample {
	out := make([]TempSample, len(a.history))
	copy(out, a.history)
	return out
}

// Distribution returns the SoH histogram from the most recent Record.
func (a *MetricsAggregator) Distribution() SoHDistribution { return a.distribution }

// Limit returns the history capacity.
func (a *MetricsAggregator) Limit() int { return a.limit }

// Reset drops all recorded state.
func (a *MetricsAggregator) Reset() {
	a.history = a.history[:0]
	a.distribution = SoHDistribution{}
	a.latest = PackMetrics{}
}
