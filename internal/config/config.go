// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for metrics, e.g. ":9090".
	Addr string `koanf:"addr"`

	// ReportQueueSize bounds the in-memory intake queue.
	ReportQueueSize int `koanf:"report_queue_size"`

	// WorkerCount sets the number of triage workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the duplicate-report id window.
	DedupeSize int `koanf:"dedupe_size"`

	// AlertSweepSpec is the cron schedule for stock alert sweeps.
	AlertSweepSpec string `koanf:"alert_sweep_spec"`

	// MaxQueueListLimit caps victim queue listing requests.
	MaxQueueListLimit int `koanf:"max_queue_list_limit"`

	// InventoryOverrides adjusts provisioned totals per equipment kind,
	// e.g. {"stretcher": 30}. Kinds absent here keep catalog defaults.
	InventoryOverrides map[string]int `koanf:"inventory_overrides"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		ReportQueueSize:   10_000,
		WorkerCount:       runtime.NumCPU() * 4,
		DedupeSize:        50_000,
		AlertSweepSpec:    "@every 30s",
		MaxQueueListLimit: 100,
	}
}
