package core

import "time"

// TickResult summarises one simulation step.
type TickResult struct {
	Tick    uint64
	Time    time.Time
	Metrics PackMetrics
	Banner  Banner
}

// SimulationEngine runs the per-tick pipeline over a pack:
// cell update, anomaly detection, metrics aggregation.
// It is not safe for concurrent use; callers serialise access.
type SimulationEngine struct {
	Pack       *Pack
	Aggregator *MetricsAggregator

	rng           Rand
	rows, cols    int
	ticks         uint64
	banner        Banner
	tickListeners []func(TickResult)
}

// NewSimulationEngine generates a rows x cols pack and runs an initial
// detection pass so the banner is valid before the first tick.
func NewSimulationEngine(rows, cols, historyLength int, r Rand) (*SimulationEngine, error) {
	pack, err := GeneratePack(rows, cols, r)
	if err != nil {
		return nil, err
	}
	se := &SimulationEngine{
		Pack:       pack,
		Aggregator: NewMetricsAggregator(historyLength),
		rng:        r,
		rows:       rows,
		cols:       cols,
	}
	se.detect()
	return se, nil
}

// RegisterTickListener adds a callback invoked after every Tick.
func (se *SimulationEngine) RegisterTickListener(fn func(TickResult)) {
	se.tickListeners = append(se.tickListeners, fn)
}

// Tick advances the simulation by one step stamped now.
func (se *SimulationEngine) Tick(now time.Time) TickResult {
	se.Pack.Step(se.rng)
	se.detect()
	metrics := se.Aggregator.Record(now, se.Pack)
	se.ticks++

	res := TickResult{Tick: se.ticks, Time: now, Metrics: metrics, Banner: se.banner}
	for _, fn := range se.tickListeners {
		fn(res)
	}
	return res
}

// InjectFault applies one random fault and re-runs detection so statuses
// and the banner reflect it immediately. History is left alone.
func (se *SimulationEngine) InjectFault() FaultReport {
	report := InjectFault(se.Pack, se.rng)
	se.detect()
	return report
}

// InjectFaultKind is InjectFault with a fixed archetype.
func (se *SimulationEngine) InjectFaultKind(kind FaultKind) FaultReport {
	report := InjectFaultKind(se.Pack, kind, se.rng)
	se.detect()
	return report
}

// Chance draws against probability p.
func (se *SimulationEngine) Chance(p float64) bool {
	return se.rng.Float64() < p
}

// Reset regenerates the pack with the original dimensions and clears all
// derived state.
func (se *SimulationEngine) Reset() error {
	pack, err := GeneratePack(se.rows, se.cols, se.rng)
	if err != nil {
		return err
	}
	se.Pack = pack
	se.Aggregator.Reset()
	se.ticks = 0
	se.detect()
	return nil
}

// Ticks returns the number of completed ticks since creation or Reset.
func (se *SimulationEngine) Ticks() uint64 { return se.ticks }

// Banner returns the banner from the latest detection pass.
func (se *SimulationEngine) Banner() Banner { return se.banner }

func (se *SimulationEngine) detect() {
	Detect(se.Pack)
	se.banner = AggregateStatus(se.Pack)
}
