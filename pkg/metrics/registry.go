package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
	enabled      atomic.Bool
)

// InitRegistry creates the process-wide Prometheus registry used by
// pkg/metrics/prometheus. It is idempotent: subsequent calls are no-ops
// once the registry exists. Callers that never call InitRegistry get
// IsEnabled() == false, and every constructor in pkg/metrics/prometheus
// returns nil, disabling instrumentation with zero overhead.
func InitRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		enabled.Store(true)
	})
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// was never called.
func GetRegistry() *prometheus.Registry {
	return registry
}
