package config

import "time"

// Config is the root configuration for busstate.
type Config struct {
	Log          LogSection          `koanf:"log" json:"log" yaml:"log"`
	Metrics      MetricsSection      `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Dedup        DedupSection        `koanf:"dedup" json:"dedup" yaml:"dedup"`
	Subscription SubscriptionSection `koanf:"subscription" json:"subscription" yaml:"subscription"`
	Soak         SoakSection         `koanf:"soak" json:"soak" yaml:"soak"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" json:"addr" yaml:"addr"`
	Path    string `koanf:"path" json:"path" yaml:"path"`
}

// DedupSection configures the message deduplication window.
type DedupSection struct {
	// Capacity is the number of message ids remembered. Fixed at startup.
	Capacity int `koanf:"capacity" json:"capacity" yaml:"capacity"`
}

// SubscriptionSection configures the subscription registry.
type SubscriptionSection struct {
	// SeenCapacity is the number of applied request ids remembered for
	// replay protection. Fixed at startup.
	SeenCapacity int `koanf:"seen_capacity" json:"seen_capacity" yaml:"seen_capacity"`
}

// SoakSection configures the load driver.
type SoakSection struct {
	Workers      int           `koanf:"workers" json:"workers" yaml:"workers"`
	OpsPerWorker int           `koanf:"ops_per_worker" json:"ops_per_worker" yaml:"ops_per_worker"`
	Rate         float64       `koanf:"rate" json:"rate" yaml:"rate"` // rounds per second across all workers, 0 = unlimited
	Burst        int           `koanf:"burst" json:"burst" yaml:"burst"`
	Interval     time.Duration `koanf:"interval" json:"interval" yaml:"interval"` // serve only, 0 = never
}
