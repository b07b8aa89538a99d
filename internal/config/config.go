// Package config defines service configuration structures and loading hooks.
//
// This is process configuration (addresses, store URLs, tuning knobs). The
// operator-facing matching policy lives in the settings store and is owned
// by the app layer, not here.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the Postgres-backed snapshot/request/candidate
	// stores when set. Empty means in-memory stores.
	DatabaseURL string `koanf:"database_url"`

	// RedisURL selects the Redis-backed settings store and invitation
	// ledger when set. Empty means in-memory.
	RedisURL string `koanf:"redis_url"`

	// ComputeTimeout bounds a single scoring run. A hung scorer returns
	// an error to the caller instead of wedging the dashboard.
	ComputeTimeout time.Duration `koanf:"compute_timeout"`

	// RescoreQueueSize bounds the background rescore job queue.
	RescoreQueueSize int `koanf:"rescore_queue_size"`

	// RescoreWorkerCount sets the number of rescore workers.
	RescoreWorkerCount int `koanf:"rescore_worker_count"`

	// RescoreEnabled toggles the background rescore sweep.
	RescoreEnabled bool `koanf:"rescore_enabled"`

	// RescoreCron is the cron expression for the stale-snapshot sweep.
	RescoreCron string `koanf:"rescore_cron"`

	// RescoreMaxAge marks a latest snapshot stale once it is older than
	// this; stale requests are queued for background recomputation.
	RescoreMaxAge time.Duration `koanf:"rescore_max_age"`

	// InviteExpiryCron is the cron expression for the invitation expiry
	// sweep.
	InviteExpiryCron string `koanf:"invite_expiry_cron"`

	// SnapshotHistoryLimit caps GET /requests/{id}/snapshots?limit.
	SnapshotHistoryLimit int `koanf:"snapshot_history_limit"`
}

// New creates a Config with documented defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		ComputeTimeout:       45 * time.Second,
		RescoreQueueSize:     1024,
		RescoreWorkerCount:   runtime.NumCPU(),
		RescoreEnabled:       true,
		RescoreCron:          "@every 10m",
		RescoreMaxAge:        6 * time.Hour,
		InviteExpiryCron:     "@every 1m",
		SnapshotHistoryLimit: 50,
	}
}
