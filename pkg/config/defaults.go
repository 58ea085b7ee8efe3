package config

import (
	"strings"
	"time"

	"github.com/dittokv/pagestore/internal/bytesize"
	"github.com/dittokv/pagestore/pkg/page"
)

// ApplyDefaults fills in zero-valued fields with defaults. Explicit
// values from file or environment are left untouched.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyPageDefaults(&cfg.Page)
	applyMetricsDefaults(&cfg.Metrics)
	applyDriverDefaults(&cfg.Driver)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyPageDefaults(cfg *PageConfig) {
	if cfg.Path == "" {
		cfg.Path = "pagestore.dat"
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = bytesize.ByteSize(page.DefaultCapacity)
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.ListenPort == 0 {
		cfg.ListenPort = 9090
	}
}

func applyDriverDefaults(cfg *DriverConfig) {
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = 64
	}
}
