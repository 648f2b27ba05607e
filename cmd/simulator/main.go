package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/battery-pack-simulator/core"
	"github.com/signalsfoundry/battery-pack-simulator/internal/config"
	"github.com/signalsfoundry/battery-pack-simulator/internal/logging"
	"github.com/signalsfoundry/battery-pack-simulator/internal/observability"
	sim "github.com/signalsfoundry/battery-pack-simulator/internal/sim/state"
	"github.com/signalsfoundry/battery-pack-simulator/timectrl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "simulator: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	configPath string
	inject     string
	render     bool
}

// parseFlags loads the config file and environment, then applies any flags
// that were set explicitly on the command line.
func parseFlags(args []string, stderr io.Writer) (config.Config, options, error) {
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	def := config.Default()
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.inject, "inject", "", "inject one fault at startup: hotspot, thermal_cluster or voltage_imbalance")
	fs.BoolVar(&opts.render, "render", false, "print an ASCII band heatmap after every tick")
	rows := fs.Int("rows", def.Pack.Rows, "pack rows")
	cols := fs.Int("cols", def.Pack.Cols, "pack columns")
	tick := fs.Duration("tick", def.Simulation.TickInterval, "simulation tick interval")
	duration := fs.Duration("duration", def.Simulation.Duration, "total simulation duration (0 runs until interrupted)")
	accelerated := fs.Bool("accelerated", def.Simulation.Accelerated, "run in accelerated mode (vs real-time)")
	seed := fs.Int64("seed", def.Simulation.Seed, "random seed (0 = wall clock)")
	history := fs.Int("history", def.Simulation.HistoryLength, "temperature history length")
	faults := fs.Bool("faults", def.Faults.Enabled, "enable the periodic fault opportunity")
	faultInterval := fs.Duration("fault-interval", def.Faults.Interval, "interval between fault opportunities")
	faultProbability := fs.Float64("fault-probability", def.Faults.Probability, "probability of a fault per opportunity")
	view := fs.String("view", def.View, "heatmap metric: temperature, voltage, soc or soh")
	metricsAddr := fs.String("metrics-addr", def.Metrics.Addr, "HTTP address for Prometheus /metrics (empty disables)")
	logLevel := fs.String("log-level", def.Logging.Level, "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", def.Logging.Format, "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rows":
			cfg.Pack.Rows = *rows
		case "cols":
			cfg.Pack.Cols = *cols
		case "tick":
			cfg.Simulation.TickInterval = *tick
		case "duration":
			cfg.Simulation.Duration = *duration
		case "accelerated":
			cfg.Simulation.Accelerated = *accelerated
		case "seed":
			cfg.Simulation.Seed = *seed
		case "history":
			cfg.Simulation.HistoryLength = *history
		case "faults":
			cfg.Faults.Enabled = *faults
		case "fault-interval":
			cfg.Faults.Interval = *faultInterval
		case "fault-probability":
			cfg.Faults.Probability = *faultProbability
		case "view":
			cfg.View = *view
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, opts, err
	}
	if opts.inject != "" {
		if _, ok := core.ParseFaultKind(opts.inject); !ok {
			return cfg, opts, fmt.Errorf("%w: unknown fault kind %q", config.ErrInvalidConfig, opts.inject)
		}
	}
	return cfg, opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	base := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: stderr,
	})
	ctx, log := logging.WithRunLogger(ctx, base)
	ctx = logging.ContextWithLogger(ctx, log)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := observability.NewPackCollector(reg)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return fmt.Errorf("init metrics: %w", err)
	}

	mode := timectrl.RealTime
	if cfg.Simulation.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.Simulation.TickInterval, mode)

	state, err := sim.NewPackState(sim.Config{
		Rows:          cfg.Pack.Rows,
		Cols:          cfg.Pack.Cols,
		HistoryLength: cfg.Simulation.HistoryLength,
		AutoInject:    cfg.Faults.Enabled,
		View:          cfg.ViewMode(),
	}, core.NewRand(cfg.Simulation.Seed), log,
		sim.WithMetricsRecorder(collector),
		sim.WithClock(tc),
	)
	if err != nil {
		log.Error(ctx, "failed to generate pack", logging.Err(err))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	tc.AddListener(func(time.Time) {
		state.Tick(runCtx)
		if opts.render {
			renderHeatmap(stdout, state.Snapshot())
		}
	})
	if cfg.Faults.Enabled {
		tc.AddPeriodic(cfg.Faults.Interval, func(time.Time) {
			state.MaybeInjectFault(runCtx, cfg.Faults.Probability)
		})
	}
	if opts.inject != "" {
		kind, _ := core.ParseFaultKind(opts.inject)
		tc.Trigger(func(time.Time) {
			state.InjectFaultKind(runCtx, kind)
		})
	}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(collector),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info(ctx, "serving Prometheus metrics", logging.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		watchManualTrigger(runCtx, tc, state)
		return nil
	})

	g.Go(func() error {
		defer cancelRun()
		if mode == timectrl.Accelerated && cfg.Simulation.Duration == 0 {
			log.Warn(ctx, "accelerated mode without a duration runs until interrupted")
		}
		log.Info(ctx, "starting simulation",
			logging.Int("rows", cfg.Pack.Rows),
			logging.Int("cols", cfg.Pack.Cols),
			logging.Duration("tick", cfg.Simulation.TickInterval),
			logging.Duration("duration", cfg.Simulation.Duration),
			logging.String("mode", mode.String()),
			logging.Bool("faults", cfg.Faults.Enabled),
		)
		<-tc.Start(runCtx, cfg.Simulation.Duration)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error(ctx, "simulator stopped", logging.Err(err))
		return err
	}

	snap := state.Snapshot()
	printSummary(stdout, snap)
	log.Info(ctx, "simulation complete",
		logging.Uint64("ticks", snap.Ticks),
		logging.String("banner", snap.Banner.Label),
	)
	return nil
}

// watchManualTrigger turns SIGUSR1 into a fault injection queued on the
// controller goroutine.
func watchManualTrigger(ctx context.Context, tc *timectrl.TimeController, state *sim.PackState) {
	sigs := make(chan os.Signal, 1)
	notifyManualTrigger(sigs)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			ok := tc.Trigger(func(time.Time) {
				state.InjectFault(ctx)
			})
			if !ok {
				logging.FromContext(ctx).Warn(ctx, "manual fault dropped; trigger queue full")
			}
		}
	}
}

func metricsMux(collector *observability.PackCollector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}
