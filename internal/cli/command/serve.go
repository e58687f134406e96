package command

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/busstate-go/internal/config"
	"github.com/yndnr/busstate-go/internal/infra/buildinfo"
	"github.com/yndnr/busstate-go/internal/infra/confloader"
	"github.com/yndnr/busstate-go/internal/infra/shutdown"
	"github.com/yndnr/busstate-go/internal/server/metricserver"
	"github.com/yndnr/busstate-go/internal/soak"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/internal/telemetry/metric"
)

// ServeCommand runs the long-lived process.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve metrics and state, soaking the components on an interval",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Listen address for /metrics and /healthz",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Run a soak every interval, 0 to disable",
			},
		}, soakFlags()...),
		Action: func(c *cli.Context) error {
			cfg, loader, err := loadConfig(c)
			if err != nil {
				return err
			}
			log, err := initLogger(cfg, c.App.ErrWriter)
			if err != nil {
				return err
			}

			h := shutdown.NewHandler(shutdown.DefaultTimeout)
			ctx, stop := h.NotifyContext(logger.WithLogger(c.Context, log))
			defer stop()

			return runServe(ctx, cfg, loader, h, nil)
		},
	}
}

// state is served at /debug/state.
type state struct {
	Version        string              `json:"version"`
	LogLevel       string              `json:"log_level"`
	Sagas          int                 `json:"sagas"`
	Formatters     int                 `json:"formatters"`
	DedupEntries   int                 `json:"dedup_entries"`
	DedupCapacity  int                 `json:"dedup_capacity"`
	DedupEvictions uint64              `json:"dedup_evictions"`
	Subscriptions  map[string][]string `json:"subscriptions"`
	LastSoak       *soak.Report        `json:"last_soak,omitempty"`
}

// runServe blocks until ctx is done. ready, when set, is called with the
// bound metrics address once the server accepts connections.
func runServe(ctx context.Context, cfg *config.Config, loader *confloader.Loader, h *shutdown.Handler, ready func(addr string)) error {
	log := logger.L(ctx)
	log.Info("starting busstate", "version", buildinfo.Get().Version, "config", loader.FilePath())

	components := soak.NewComponents(cfg.Dedup.Capacity, cfg.Subscription.SeenCapacity)
	reg := metric.NewRegistry()
	if err := reg.Register(metric.NewContainerCollector(metric.Sources{
		Sagas:         components.Sagas,
		Formatters:    components.Formatters,
		Dedup:         components.Dedup,
		Subscriptions: components.Subscriptions,
	})); err != nil {
		return err
	}

	runner, err := soak.NewRunner(soakConfig(cfg), components, soak.WithMetrics(reg))
	if err != nil {
		return err
	}
	last := newLastReport()

	if cfg.Metrics.Enabled {
		router := metricserver.NewRouter(metricserver.RouterConfig{
			MetricsPath:    cfg.Metrics.Path,
			MetricsHandler: reg.Handler(),
			Logger:         log,
			State: func() any {
				return state{
					Version:        buildinfo.Get().Version,
					LogLevel:       logger.GetLevel(),
					Sagas:          components.Sagas.Count(),
					Formatters:     components.Formatters.Len(),
					DedupEntries:   components.Dedup.Len(),
					DedupCapacity:  components.Dedup.Capacity(),
					DedupEvictions: components.Dedup.Evictions(),
					Subscriptions:  components.Subscriptions.Snapshot(),
					LastSoak:       last.get(),
				}
			},
		})
		srv := metricserver.New(cfg.Metrics.Addr, router, log)
		if err := srv.Start(); err != nil {
			return err
		}
		h.OnShutdown(srv.Shutdown)
		if ready != nil {
			ready(srv.Addr())
		}
	} else if ready != nil {
		ready("")
	}

	if path := loader.FilePath(); path != "" {
		watcher, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(logger.ToSlog(log)))
		if err != nil {
			return err
		}
		watcher.OnChange(func(string) {
			reg.ObserveReload(reload(ctx, loader))
		})
		watchCtx, cancelWatch := context.WithCancel(ctx)
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			_ = watcher.Run(watchCtx)
		}()
		h.OnShutdown(func(context.Context) error {
			cancelWatch()
			<-watchDone
			return nil
		})
	}

	if cfg.Soak.Interval > 0 {
		soakDone := make(chan struct{})
		go func() {
			defer close(soakDone)
			soakLoop(ctx, runner, cfg.Soak.Interval, last)
		}()
		h.OnShutdown(func(hctx context.Context) error {
			select {
			case <-soakDone:
				return nil
			case <-hctx.Done():
				return hctx.Err()
			}
		})
	}

	log.Info("busstate started")
	<-ctx.Done()
	log.Info("shutting down")

	if err := h.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("stopped gracefully")
	return nil
}

// reload re-reads the configuration and applies the settings that may
// change at runtime. Capacities are fixed at construction.
func reload(ctx context.Context, loader *confloader.Loader) error {
	log := logger.L(ctx)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		log.Warn("config reload failed", "error", err)
		return err
	}
	if err := config.Verify(cfg); err != nil {
		log.Warn("config reload rejected", "error", err)
		return err
	}

	prev := logger.GetLevel()
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	if now := logger.GetLevel(); now != prev {
		log.Info("log level changed", "from", prev, "to", now)
	}
	return nil
}

func soakLoop(ctx context.Context, runner *soak.Runner, interval time.Duration, last *lastReport) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := runner.Run(ctx)
			if report != nil {
				last.set(report)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.L(ctx).Error("soak run failed", "error", err)
			}
		}
	}
}
