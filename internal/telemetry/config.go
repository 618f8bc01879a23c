package telemetry

// Config holds OpenTelemetry configuration for the coordinator
// process.
type Config struct {
	// Enabled indicates whether tracing is active. When false, Init
	// wires a no-op tracer and every span created through this package
	// is free.
	Enabled bool

	// ServiceName is reported to the trace backend as the resource's
	// service.name.
	ServiceName string

	// ServiceVersion is reported as the resource's service.version.
	ServiceVersion string

	// Endpoint is the OTLP/gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string

	// Insecure disables TLS on the OTLP connection.
	Insecure bool

	// SampleRate is the trace sampling ratio, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns telemetry disabled by default, matching the
// rest of the ambient stack's zero-overhead-unless-configured stance.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "vfsproviderd",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
