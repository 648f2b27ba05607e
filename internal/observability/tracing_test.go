package observability

import (
	"context"
	"testing"

	"github.com/signalsfoundry/battery-pack-simulator/internal/logging"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"BMS_TRACING_ENABLED", "BMS_TRACING_EXPORTER", "BMS_TRACING_SERVICE_NAME", "BMS_TRACING_SAMPLE_RATIO", "BMS_OTLP_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg := TracingConfigFromEnv()

	if cfg.Enabled {
		t.Fatalf("Enabled = true, want false")
	}
	if cfg.Exporter != "stdout" {
		t.Fatalf("Exporter = %q, want stdout", cfg.Exporter)
	}
	if cfg.ServiceName != DefaultServiceName {
		t.Fatalf("ServiceName = %q, want %q", cfg.ServiceName, DefaultServiceName)
	}
	if cfg.SampleRatio != 1.0 {
		t.Fatalf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestTracingConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("BMS_TRACING_ENABLED", "TRUE")
	t.Setenv("BMS_TRACING_EXPORTER", "OTLP")
	t.Setenv("BMS_TRACING_SERVICE_NAME", "pack-a")
	t.Setenv("BMS_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("BMS_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()

	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.ServiceName != "pack-a" || cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("TracingConfigFromEnv() = %+v", cfg)
	}
}

func TestTracingConfigIgnoresInvalidRatio(t *testing.T) {
	t.Setenv("BMS_TRACING_SAMPLE_RATIO", "1.5")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1.0 {
		t.Fatalf("SampleRatio = %v, want 1", cfg.SampleRatio)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{Enabled: false}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "probe")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Fatalf("noop tracer produced a valid span context")
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}, logging.Noop()); err == nil {
		t.Fatalf("InitTracing() error = nil, want unsupported exporter error")
	}
}
