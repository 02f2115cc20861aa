package telemetry

import (
	"os"
	"strings"
)

// Config holds tracing configuration loaded from OTEL_* environment
// variables.
type Config struct {
	// Enabled comes from OTEL_ENABLED.
	Enabled bool

	// ServiceName comes from OTEL_SERVICE_NAME, default "mem-analysis".
	ServiceName string

	// ServiceVersion comes from OTEL_SERVICE_VERSION, default "unknown".
	ServiceVersion string

	// Endpoint comes from OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string

	// Protocol comes from OTEL_EXPORTER_OTLP_PROTOCOL: grpc or
	// http/protobuf.
	Protocol string

	// Headers comes from OTEL_EXPORTER_OTLP_HEADERS as
	// "key1=value1,key2=value2".
	Headers map[string]string

	// Insecure comes from OTEL_EXPORTER_OTLP_INSECURE.
	Insecure bool

	// Sampler comes from OTEL_TRACES_SAMPLER: always_on, always_off,
	// traceidratio, or a parentbased_ variant.
	Sampler string

	// SamplerArg comes from OTEL_TRACES_SAMPLER_ARG.
	SamplerArg string

	// ResourceAttrs comes from OTEL_RESOURCE_ATTRIBUTES as
	// "key1=value1,key2=value2".
	ResourceAttrs map[string]string
}

// LoadFromEnv reads the configuration from the environment.
func LoadFromEnv() *Config {
	return &Config{
		Enabled:        strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true",
		ServiceName:    getEnvOrDefault("OTEL_SERVICE_NAME", "mem-analysis"),
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

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseKeyValuePairs splits "k1=v1,k2=v2" into a map. Values may
// contain '='; only the first one separates.
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
