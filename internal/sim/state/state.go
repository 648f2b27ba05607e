// Package state holds the simulation state owned by one controller: the pack,
// its derived metrics and the handlers the time controller drives.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/battery-pack-simulator/core"
	"github.com/signalsfoundry/battery-pack-simulator/internal/logging"
	"github.com/signalsfoundry/battery-pack-simulator/internal/observability"
	"github.com/signalsfoundry/battery-pack-simulator/model"
)

// Config sizes the pack and sets the initial presentation flags.
type Config struct {
	Rows          int
	Cols          int
	HistoryLength int
	AutoInject    bool
	View          model.ViewMode
}

// DefaultConfig returns the 8x12 pack with a 20 sample history and
// automatic fault injection enabled.
func DefaultConfig() Config {
	return Config{
		Rows:          core.DefaultRows,
		Cols:          core.DefaultCols,
		HistoryLength: core.DefaultHistoryLength,
		AutoInject:    true,
		View:          model.ViewTemperature,
	}
}

// PackMetricsRecorder receives per-tick pack statistics and fault events.
type PackMetricsRecorder interface {
	ObserveTick(m core.PackMetrics, banner core.Banner, d time.Duration)
	ObserveFault(kind core.FaultKind)
}

// Clock supplies the timestamps stamped on history samples.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// PackState coordinates the simulation engine with logging, metrics and
// tracing. Handlers are expected to be serialised by the caller; the lock
// lets Snapshot run concurrently from other goroutines.
type PackState struct {
	mu sync.RWMutex

	engine     *core.SimulationEngine
	autoInject bool
	view       model.ViewMode
	lastFault  *core.FaultReport

	log     logging.Logger
	metrics PackMetricsRecorder
	clock   Clock
	tracer  trace.Tracer
}

// Option customises PackState construction.
type Option func(*PackState)

// WithMetricsRecorder attaches a recorder for tick and fault metrics.
func WithMetricsRecorder(m PackMetricsRecorder) Option {
	return func(s *PackState) {
		s.metrics = m
	}
}

// WithClock overrides the wall clock used to timestamp ticks.
func WithClock(c Clock) Option {
	return func(s *PackState) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTracer overrides the tracer used for handler spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *PackState) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewPackState generates the pack described by cfg using r as its only
// randomness source.
func NewPackState(cfg Config, r core.Rand, log logging.Logger, opts ...Option) (*PackState, error) {
	if log == nil {
		log = logging.Noop()
	}
	if r == nil {
		r = core.NewRand(0)
	}
	engine, err := core.NewSimulationEngine(cfg.Rows, cfg.Cols, cfg.HistoryLength, r)
	if err != nil {
		return nil, fmt.Errorf("generate pack: %w", err)
	}

	s := &PackState{
		engine:     engine,
		autoInject: cfg.AutoInject,
		view:       cfg.View,
		log:        log.With(logging.String("component", "pack_state")),
		clock:      wallClock{},
		tracer:     observability.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Tick advances every cell, re-runs detection and records aggregate metrics.
func (s *PackState) Tick(ctx context.Context) core.TickResult {
	ctx, span := s.tracer.Start(ctx, "pack.tick")
	defer span.End()

	start := time.Now()

	s.mu.Lock()
	prev := s.engine.Banner()
	res := s.engine.Tick(s.clock.Now())
	s.mu.Unlock()

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveTick(res.Metrics, res.Banner, elapsed)
	}

	span.SetAttributes(
		attribute.Int64("pack.tick", int64(res.Tick)),
		attribute.Float64("pack.temp.avg", res.Metrics.AvgTemp),
		attribute.Float64("pack.temp.max", res.Metrics.MaxTemp),
		attribute.Int("pack.cells.warning", res.Metrics.WarningCount),
		attribute.Int("pack.cells.critical", res.Metrics.CriticalCount),
		attribute.String("pack.banner", res.Banner.Label),
	)
	if res.Banner.Level == model.StatusCritical {
		span.SetStatus(codes.Error, res.Banner.Label)
	}

	s.log.Debug(ctx, "tick complete",
		logging.Uint64("tick", res.Tick),
		logging.Float("avg_temp", res.Metrics.AvgTemp),
		logging.Float("max_temp", res.Metrics.MaxTemp),
		logging.Int("warning", res.Metrics.WarningCount),
		logging.Int("critical", res.Metrics.CriticalCount),
		logging.Duration("elapsed", elapsed),
	)
	s.logBannerChange(ctx, prev, res.Banner)
	return res
}

// InjectFault applies one random fault and re-runs detection so the next
// snapshot shows it. Temperature history is not touched.
func (s *PackState) InjectFault(ctx context.Context) core.FaultReport {
	return s.inject(ctx, func(e *core.SimulationEngine) core.FaultReport {
		return e.InjectFault()
	})
}

// InjectFaultKind is InjectFault with a fixed archetype.
func (s *PackState) InjectFaultKind(ctx context.Context, kind core.FaultKind) core.FaultReport {
	return s.inject(ctx, func(e *core.SimulationEngine) core.FaultReport {
		return e.InjectFaultKind(kind)
	})
}

// MaybeInjectFault injects a random fault with probability p while automatic
// injection is enabled. The boolean reports whether a fault fired.
func (s *PackState) MaybeInjectFault(ctx context.Context, p float64) (core.FaultReport, bool) {
	s.mu.Lock()
	fire := s.autoInject && s.engine.Chance(p)
	s.mu.Unlock()
	if !fire {
		return core.FaultReport{Center: -1}, false
	}
	return s.InjectFault(ctx), true
}

func (s *PackState) inject(ctx context.Context, apply func(*core.SimulationEngine) core.FaultReport) core.FaultReport {
	ctx, span := s.tracer.Start(ctx, "pack.inject_fault")
	defer span.End()

	s.mu.Lock()
	prev := s.engine.Banner()
	report := apply(s.engine)
	banner := s.engine.Banner()
	if len(report.Cells) > 0 {
		cp := report
		cp.Cells = append([]int(nil), report.Cells...)
		s.lastFault = &cp
	}
	ids := make([]string, 0, len(report.Cells))
	for _, i := range report.Cells {
		ids = append(ids, s.engine.Pack.Cell(i).ID)
	}
	s.mu.Unlock()

	span.SetAttributes(
		attribute.String("fault.kind", report.Kind.String()),
		attribute.Int("fault.center", report.Center),
		attribute.StringSlice("fault.cells", ids),
	)
	if len(report.Cells) == 0 {
		s.log.Warn(ctx, "fault injection changed no cells",
			logging.String("kind", report.Kind.String()),
		)
		return report
	}
	if s.metrics != nil {
		s.metrics.ObserveFault(report.Kind)
	}

	s.log.Info(ctx, "fault injected",
		logging.String("kind", report.Kind.String()),
		logging.Any("cells", ids),
	)
	s.logBannerChange(ctx, prev, banner)
	return report
}

// SetAutoInject toggles the periodic fault opportunity.
func (s *PackState) SetAutoInject(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoInject = enabled
}

// SetViewMode selects which cell metric snapshots expose as the heatmap value.
func (s *PackState) SetViewMode(mode model.ViewMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = mode
}

// Reset regenerates the pack and clears history and the tick counter.
func (s *PackState) Reset(ctx context.Context) error {
	s.mu.Lock()
	err := s.engine.Reset()
	if err == nil {
		s.lastFault = nil
	}
	size := s.engine.Pack.Len()
	s.mu.Unlock()

	if err != nil {
		s.log.Error(ctx, "pack reset failed", logging.Err(err))
		return fmt.Errorf("reset pack: %w", err)
	}
	s.log.Info(ctx, "pack reset", logging.Int("cells", size))
	return nil
}

func (s *PackState) logBannerChange(ctx context.Context, prev, next core.Banner) {
	if prev.Label == next.Label {
		return
	}
	fields := []logging.Field{
		logging.String("from", prev.Label),
		logging.String("to", next.Label),
		logging.Int("cluster_members", next.ClusterMembers),
	}
	switch next.Level {
	case model.StatusCritical:
		s.log.Error(ctx, "pack banner changed", fields...)
	case model.StatusWarning:
		s.log.Warn(ctx, "pack banner changed", fields...)
	default:
		s.log.Info(ctx, "pack banner changed", fields...)
	}
}
