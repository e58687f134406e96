package command

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/busstate-go/internal/config"
	"github.com/yndnr/busstate-go/internal/soak"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/internal/telemetry/metric"
)

// ExitVerifyFailed is the exit code when a soak run loses an update.
const ExitVerifyFailed = 2

// SoakCommand runs one soak against fresh components.
func SoakCommand() *cli.Command {
	return &cli.Command{
		Name:  "soak",
		Usage: "Run one concurrent soak and print the report",
		Flags: soakFlags(),
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			log, err := initLogger(cfg, c.App.ErrWriter)
			if err != nil {
				return err
			}
			f, err := formatterFor(c)
			if err != nil {
				return err
			}

			runner, err := soak.NewRunner(soakConfig(cfg),
				soak.NewComponents(cfg.Dedup.Capacity, cfg.Subscription.SeenCapacity),
				soak.WithMetrics(metric.NewRegistry()),
				soak.WithKeepState(true),
			)
			if err != nil {
				return err
			}

			ctx := logger.WithLogger(c.Context, log)
			report, runErr := runner.Run(ctx)
			if report != nil {
				if err := f.Format(c.App.Writer, report); err != nil {
					return err
				}
			}
			if errors.Is(runErr, soak.ErrVerify) {
				return cli.Exit(runErr.Error(), ExitVerifyFailed)
			}
			return runErr
		},
	}
}

func soakFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Concurrent workers",
		},
		&cli.IntFlag{
			Name:    "ops",
			Aliases: []string{"n"},
			Usage:   "Rounds per worker",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Rounds per second across all workers, 0 for unlimited",
		},
		&cli.IntFlag{
			Name:  "burst",
			Usage: "Rate limiter burst",
		},
	}
}

func soakConfig(cfg *config.Config) soak.Config {
	return soak.Config{
		Workers:      cfg.Soak.Workers,
		OpsPerWorker: cfg.Soak.OpsPerWorker,
		Rate:         cfg.Soak.Rate,
		Burst:        cfg.Soak.Burst,
	}
}
