// Package telemetry provides OpenTelemetry integration for distributed
// tracing of scene analyses.
package telemetry

import (
	"os"
	"strconv"
	"strings"

	appconfig "github.com/perf-attribution/pkg/config"
)

// DefaultServiceName identifies this service in traces.
const DefaultServiceName = "perf-attribution"

// Config holds tracing configuration. Values come from the standard
// OTEL_* environment variables; the application config file can
// overlay them via ApplyFileConfig.
type Config struct {
	// Enabled gates all tracing. From OTEL_ENABLED.
	Enabled bool

	// ServiceName is reported on every span. From OTEL_SERVICE_NAME.
	ServiceName string

	// ServiceVersion from OTEL_SERVICE_VERSION.
	ServiceVersion string

	// Endpoint is the OTLP collector endpoint. From
	// OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string

	// Protocol selects the exporter wire format, grpc or
	// http/protobuf. From OTEL_EXPORTER_OTLP_PROTOCOL.
	Protocol string

	// Headers carries exporter headers such as Authorization. From
	// OTEL_EXPORTER_OTLP_HEADERS, "key1=value1,key2=value2".
	Headers map[string]string

	// Insecure disables TLS. From OTEL_EXPORTER_OTLP_INSECURE.
	Insecure bool

	// Sampler selects the sampling strategy. From OTEL_TRACES_SAMPLER:
	// always_on, always_off, traceidratio, parentbased_always_on,
	// parentbased_always_off, parentbased_traceidratio.
	Sampler string

	// SamplerArg is the ratio for the traceidratio samplers. From
	// OTEL_TRACES_SAMPLER_ARG.
	SamplerArg string

	// ResourceAttrs adds resource attributes from
	// OTEL_RESOURCE_ATTRIBUTES, "key1=value1,key2=value2".
	ResourceAttrs map[string]string
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName:    getEnvOrDefault("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion: getEnvOrDefault("OTEL_SERVICE_VERSION", "unknown"),
		Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Protocol:       getEnvOrDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		Headers:        parseKeyValuePairs(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:       strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")) == "true",
		Sampler:        os.Getenv("OTEL_TRACES_SAMPLER"),
		SamplerArg:     os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
		ResourceAttrs:  parseKeyValuePairs(os.Getenv("OTEL_RESOURCE_ATTRIBUTES")),
	}
}

// ApplyFileConfig overlays settings from the application config file.
// Environment variables win only where the file leaves a field unset.
func (c *Config) ApplyFileConfig(fc *appconfig.TelemetryConfig) {
	if fc == nil {
		return
	}
	if fc.Enabled {
		c.Enabled = true
	}
	if fc.Exporter != "" {
		c.Protocol = fc.Exporter
	}
	if fc.Endpoint != "" {
		c.Endpoint = fc.Endpoint
	}
	if fc.SampleRatio > 0 && fc.SampleRatio < 1 {
		c.Sampler = "parentbased_traceidratio"
		c.SamplerArg = strconv.FormatFloat(fc.SampleRatio, 'f', -1, 64)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseKeyValuePairs parses a comma-separated list of key=value pairs.
func parseKeyValuePairs(s string) map[string]string {
	result := make(map[string]string)
	if s == "" {
		return result
	}

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		// Split on the first '=' only so values may contain '='.
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(pair[:idx])
		value := strings.TrimSpace(pair[idx+1:])
		if key != "" {
			result[key] = value
		}
	}
	return result
}
