// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the dataset fingerprint index.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreCapacity bounds the number of retained analyses.
	StoreCapacity int `koanf:"store_capacity"`

	// MaxListLimit caps GET /analyses?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxUploadBytes caps the size of an uploaded dataset.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// InboxDir is watched for dropped CSV/XLSX files. Empty disables it.
	InboxDir string `koanf:"inbox_dir"`

	// InboxDebounceMS is how long a dropped file must stay unchanged.
	InboxDebounceMS int `koanf:"inbox_debounce_ms"`

	// XLSXSheet is the worksheet read from spreadsheets; empty means first.
	XLSXSheet string `koanf:"xlsx_sheet"`

	// PreviewRows is the number of records echoed in each report.
	PreviewRows int `koanf:"preview_rows"`

	// MetricsEnabled turns the pipeline counters on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsPrefix is inserted before each metric's base name.
	MetricsPrefix string `koanf:"metrics_prefix"`

	// MetricsBuckets overrides the latency histogram buckets (YAML list).
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels added to every metric (YAML map).
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsRefreshMS is how often gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		QueueSize:       64,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      1024,
		StoreCapacity:   256,
		MaxListLimit:    100,
		MaxUploadBytes:  32 << 20,
		InboxDebounceMS: 500,
		PreviewRows:     5,

		MetricsEnabled:   true,
		MetricsNamespace: "leadtime",
		MetricsSubsystem: "analysis",
		MetricsRefreshMS: 5000,
	}
}

// InboxDebounce returns InboxDebounceMS as a duration.
func (c *Config) InboxDebounce() time.Duration {
	return time.Duration(c.InboxDebounceMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !validLevel(c.LogLevel):
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.StoreCapacity <= 0:
		return fmt.Errorf("%w: store_capacity must be positive", ErrInvalidConfig)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.InboxDebounceMS < 0:
		return fmt.Errorf("%w: inbox_debounce_ms must not be negative", ErrInvalidConfig)
	case c.PreviewRows < 0:
		return fmt.Errorf("%w: preview_rows must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.MetricsNamespace) == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	case !ascending(c.MetricsBuckets):
		return fmt.Errorf("%w: metrics_buckets must be strictly increasing", ErrInvalidConfig)
	}
	return nil
}

func validLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func ascending(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
