// Package metrics provides the metrics registry and the adapter functions
// that let pkg/page observe its operations without importing Prometheus
// directly. Every adapter here is a thin, nil-safe wrapper: when metrics
// are not enabled, the constructors return nil and page.Store treats a
// nil Metrics exactly like the noop implementation it already carries
// internally, so there is no branch in hot-path code for "is metrics on".
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the process-wide Prometheus registry and enables
// metrics construction. Safe to call once at process startup; a second
// call replaces the registry.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the process-wide registry, or nil if InitRegistry
// has not been called.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}
