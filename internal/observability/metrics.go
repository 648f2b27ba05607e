package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/battery-pack-simulator/core"
)

// PackCollector bundles Prometheus metrics describing the simulated pack and
// the engine driving it.
type PackCollector struct {
	gatherer prometheus.Gatherer

	Temperature    *prometheus.GaugeVec // label stat = avg|max|min
	AvgSoC         prometheus.Gauge
	AvgSoH         prometheus.Gauge
	TotalVoltage   prometheus.Gauge
	TotalCurrent   prometheus.Gauge
	CellsByStatus  *prometheus.GaugeVec // label status = warning|critical
	ClusterMembers prometheus.Gauge
	BannerLevel    prometheus.Gauge

	TicksTotal     prometheus.Counter
	TickDuration   prometheus.Histogram
	FaultsInjected *prometheus.CounterVec // label kind
}

// NewPackCollector registers pack metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewPackCollector(reg prometheus.Registerer) (*PackCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	temps, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pack_temperature_celsius",
		Help: "Pack cell temperature statistics in degrees Celsius, labeled by stat (avg, max, min).",
	}, []string{"stat"}), "pack_temperature_celsius")
	if err != nil {
		return nil, err
	}
	soc, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_soc_avg_percent",
		Help: "Mean state of charge across all cells.",
	}), "pack_soc_avg_percent")
	if err != nil {
		return nil, err
	}
	soh, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_soh_avg_percent",
		Help: "Mean state of health across all cells.",
	}), "pack_soh_avg_percent")
	if err != nil {
		return nil, err
	}
	voltage, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_voltage_total_volts",
		Help: "Sum of cell voltages (series-connected pack voltage).",
	}), "pack_voltage_total_volts")
	if err != nil {
		return nil, err
	}
	current, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_current_total_amperes",
		Help: "Sum of cell currents.",
	}), "pack_current_total_amperes")
	if err != nil {
		return nil, err
	}
	statuses, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pack_cells_anomalous",
		Help: "Number of cells per anomaly status, labeled by status (warning, critical).",
	}, []string{"status"}), "pack_cells_anomalous")
	if err != nil {
		return nil, err
	}
	cluster, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_thermal_cluster_members",
		Help: "Number of cells that are members of a thermal cluster.",
	}), "pack_thermal_cluster_members")
	if err != nil {
		return nil, err
	}
	banner, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pack_banner_level",
		Help: "Pack-wide anomaly level: 0 normal, 1 warning, 2 critical.",
	}), "pack_banner_level")
	if err != nil {
		return nil, err
	}
	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pack_ticks_total",
		Help: "Total number of simulation ticks executed.",
	}), "pack_ticks_total")
	if err != nil {
		return nil, err
	}
	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pack_tick_duration_seconds",
		Help:    "Wall-clock duration of one simulation tick (update, detection, aggregation).",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}), "pack_tick_duration_seconds")
	if err != nil {
		return nil, err
	}
	faults, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pack_faults_injected_total",
		Help: "Total number of injected faults, labeled by kind.",
	}, []string{"kind"}), "pack_faults_injected_total")
	if err != nil {
		return nil, err
	}

	return &PackCollector{
		gatherer:       gatherer,
		Temperature:    temps,
		AvgSoC:         soc,
		AvgSoH:         soh,
		TotalVoltage:   voltage,
		TotalCurrent:   current,
		CellsByStatus:  statuses,
		ClusterMembers: cluster,
		BannerLevel:    banner,
		TicksTotal:     ticks,
		TickDuration:   tickDuration,
		FaultsInjected: faults,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *PackCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PackCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTick satisfies the PackState metrics recorder: it publishes the
// latest pack statistics and the tick latency.
func (c *PackCollector) ObserveTick(m core.PackMetrics, banner core.Banner, d time.Duration) {
	if c == nil {
		return
	}
	c.SetPack(m, banner)
	if c.TicksTotal != nil {
		c.TicksTotal.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

// SetPack publishes pack gauges without counting a tick.
func (c *PackCollector) SetPack(m core.PackMetrics, banner core.Banner) {
	if c == nil {
		return
	}
	if c.Temperature != nil {
		c.Temperature.WithLabelValues("avg").Set(m.AvgTemp)
		c.Temperature.WithLabelValues("max").Set(m.MaxTemp)
		c.Temperature.WithLabelValues("min").Set(m.MinTemp)
	}
	if c.AvgSoC != nil {
		c.AvgSoC.Set(m.AvgSoC)
	}
	if c.AvgSoH != nil {
		c.AvgSoH.Set(m.AvgSoH)
	}
	if c.TotalVoltage != nil {
		c.TotalVoltage.Set(m.TotalVoltage)
	}
	if c.TotalCurrent != nil {
		c.TotalCurrent.Set(m.TotalCurrent)
	}
	if c.CellsByStatus != nil {
		c.CellsByStatus.WithLabelValues("warning").Set(float64(m.WarningCount))
		c.CellsByStatus.WithLabelValues("critical").Set(float64(m.CriticalCount))
	}
	if c.ClusterMembers != nil {
		c.ClusterMembers.Set(float64(banner.ClusterMembers))
	}
	if c.BannerLevel != nil {
		c.BannerLevel.Set(float64(banner.Level))
	}
}

// ObserveFault counts an injected fault.
func (c *PackCollector) ObserveFault(kind core.FaultKind) {
	if c == nil || c.FaultsInjected == nil {
		return
	}
	c.FaultsInjected.WithLabelValues(kind.String()).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
