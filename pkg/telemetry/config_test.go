package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	appconfig "github.com/perf-attribution/pkg/config"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")

	cfg := LoadFromEnv()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "grpc", cfg.Protocol)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "my-service")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc=def, X-Env=prod")

	cfg := LoadFromEnv()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "my-service", cfg.ServiceName)
	assert.Equal(t, "collector:4317", cfg.Endpoint)
	assert.Equal(t, "Bearer abc=def", cfg.Headers["Authorization"])
	assert.Equal(t, "prod", cfg.Headers["X-Env"])
}

func TestApplyFileConfig(t *testing.T) {
	cfg := &Config{Protocol: "grpc"}

	cfg.ApplyFileConfig(&appconfig.TelemetryConfig{
		Enabled:     true,
		Exporter:    "http",
		Endpoint:    "collector:4318",
		SampleRatio: 0.25,
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "http", cfg.Protocol)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.Equal(t, "parentbased_traceidratio", cfg.Sampler)
	assert.Equal(t, "0.25", cfg.SamplerArg)
}

func TestApplyFileConfigPartial(t *testing.T) {
	cfg := &Config{Enabled: true, Protocol: "grpc", Endpoint: "env:4317"}

	// Empty fields leave environment-derived values alone; a full
	// sample ratio keeps the default sampler.
	cfg.ApplyFileConfig(&appconfig.TelemetryConfig{SampleRatio: 1})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Equal(t, "env:4317", cfg.Endpoint)
	assert.Empty(t, cfg.Sampler)

	cfg.ApplyFileConfig(nil)
	assert.Equal(t, "env:4317", cfg.Endpoint)
}

func TestParseKeyValuePairs(t *testing.T) {
	assert.Empty(t, parseKeyValuePairs(""))
	assert.Empty(t, parseKeyValuePairs("=value,novalue"))

	pairs := parseKeyValuePairs(" a=1 , b = 2 ")
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, pairs)
}
