package metrics

import "github.com/dittokv/pagestore/pkg/page"

// NewPageMetrics creates a new Prometheus-backed page.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When
// nil is returned, pass it straight through to page.WithMetrics: a nil
// page.Metrics is zero overhead.
func NewPageMetrics() page.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusPageMetrics()
}

// newPrometheusPageMetrics is implemented in pkg/metrics/prometheus/page.go.
// The indirection lets pkg/metrics reference the Prometheus constructor
// without importing the prometheus subpackage, which in turn imports
// pkg/metrics to reach IsEnabled/GetRegistry; a direct import would cycle.
var newPrometheusPageMetrics func() page.Metrics

// RegisterPageMetricsConstructor registers the Prometheus page metrics
// constructor. Called from pkg/metrics/prometheus's package init.
func RegisterPageMetricsConstructor(constructor func() page.Metrics) {
	newPrometheusPageMetrics = constructor
}
