package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/busstate-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyLog(&cfg.Log),
		verifyMetrics(&cfg.Metrics),
		verifyCapacities(cfg),
		verifySoak(&cfg.Soak),
	)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logger.ParseFormat(cfg.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	return errors.Join(errs...)
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr %q: %w", cfg.Addr, err)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", cfg.Path)
	}
	return nil
}

func verifyCapacities(cfg *Config) error {
	if cfg.Dedup.Capacity <= 0 {
		return errors.New("dedup.capacity must be positive")
	}
	if cfg.Subscription.SeenCapacity <= 0 {
		return errors.New("subscription.seen_capacity must be positive")
	}
	return nil
}

func verifySoak(cfg *SoakSection) error {
	if cfg.Workers < 1 {
		return errors.New("soak.workers must be at least 1")
	}
	if cfg.OpsPerWorker < 1 {
		return errors.New("soak.ops_per_worker must be at least 1")
	}
	if cfg.Rate < 0 {
		return errors.New("soak.rate must not be negative")
	}
	if cfg.Rate > 0 && cfg.Burst < 1 {
		return errors.New("soak.burst must be at least 1 when soak.rate is set")
	}
	if cfg.Interval < 0 {
		return errors.New("soak.interval must not be negative")
	}
	return nil
}
