package config

import (
	"github.com/yndnr/busstate-go/pkg/lruset"
)

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsAddr = "127.0.0.1:9464"
	DefaultMetricsPath = "/metrics"

	DefaultDedupCapacity    = lruset.DefaultCapacity
	DefaultSeenCapacity     = lruset.DefaultCapacity
	DefaultSoakWorkers      = 4
	DefaultSoakOpsPerWorker = 1000
	DefaultSoakBurst        = 100
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
			Path:    DefaultMetricsPath,
		},
		Dedup: DedupSection{
			Capacity: DefaultDedupCapacity,
		},
		Subscription: SubscriptionSection{
			SeenCapacity: DefaultSeenCapacity,
		},
		Soak: SoakSection{
			Workers:      DefaultSoakWorkers,
			OpsPerWorker: DefaultSoakOpsPerWorker,
			Burst:        DefaultSoakBurst,
		},
	}
}
